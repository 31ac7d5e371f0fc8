package mpris

import (
	"net/url"
	"strings"

	"github.com/godbus/dbus/v5"

	"github.com/tejashwikalptaru/cadence/internal/domain"
)

const (
	statusPlaying = "Playing"
	statusPaused  = "Paused"
	statusStopped = "Stopped"

	loopNone     = "None"
	loopTrack    = "Track"
	loopPlaylist = "Playlist"

	trackPathPrefix = "/org/mpris/MediaPlayer2/Track/"
	noTrackPath     = dbus.ObjectPath("/org/mpris/MediaPlayer2/TrackList/NoTrack")

	microsecond = int64(1_000_000)
)

// PlaybackStatus maps a player state to the MPRIS PlaybackStatus value.
func PlaybackStatus(state domain.PlaybackState) string {
	switch state {
	case domain.StatePlaying:
		return statusPlaying
	case domain.StatePaused:
		return statusPaused
	default:
		return statusStopped
	}
}

// LoopStatus maps a repeat mode to the MPRIS LoopStatus value.
func LoopStatus(mode domain.RepeatMode) string {
	switch mode {
	case domain.RepeatOne:
		return loopTrack
	case domain.RepeatAll:
		return loopPlaylist
	default:
		return loopNone
	}
}

// ParseLoopStatus maps an MPRIS LoopStatus value back to a repeat mode.
func ParseLoopStatus(status string) (domain.RepeatMode, bool) {
	switch status {
	case loopNone:
		return domain.RepeatConsecutive, true
	case loopTrack:
		return domain.RepeatOne, true
	case loopPlaylist:
		return domain.RepeatAll, true
	default:
		return domain.RepeatConsecutive, false
	}
}

// TrackID returns the object path identifying song. Object path elements
// only allow [A-Za-z0-9_], so the dashes of the UUID are replaced.
func TrackID(song *domain.Song) dbus.ObjectPath {
	if song == nil || song.UUID() == "" {
		return noTrackPath
	}
	return dbus.ObjectPath(trackPathPrefix + strings.ReplaceAll(song.UUID(), "-", "_"))
}

// Metadata builds the MPRIS Metadata map for song.
func Metadata(song *domain.Song) map[string]dbus.Variant {
	if song == nil || song.IsInvalid() {
		return map[string]dbus.Variant{
			"mpris:trackid": dbus.MakeVariant(noTrackPath),
		}
	}

	md := map[string]dbus.Variant{
		"mpris:trackid": dbus.MakeVariant(TrackID(song)),
		"mpris:length":  dbus.MakeVariant(int64(song.Duration()) * microsecond),
		"xesam:title":   dbus.MakeVariant(song.Title()),
		"xesam:artist":  dbus.MakeVariant([]string{song.Artist()}),
		"xesam:album":   dbus.MakeVariant(song.Album()),
		"xesam:url":     dbus.MakeVariant(song.URI()),
	}
	if cover := song.Cover(); cover != nil && cover.CachePath != "" {
		art := url.URL{Scheme: "file", Path: cover.CachePath}
		md["mpris:artUrl"] = dbus.MakeVariant(art.String())
	}
	return md
}

func toMicroseconds(seconds uint64) int64 {
	return int64(seconds) * microsecond
}

func toSeconds(us int64) int64 {
	return us / microsecond
}
