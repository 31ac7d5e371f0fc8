// Package domain contains core business models and logic with no external dependencies.
// This package defines the fundamental entities of the Cadence music player.
package domain

import (
	"fmt"
	"image"
	"image/color"
	"strings"
)

// PlaybackState represents the current state of the player.
type PlaybackState int

const (
	// StateStopped indicates nothing is playing. This is the initial state.
	StateStopped PlaybackState = iota

	// StatePlaying indicates playback is active
	StatePlaying

	// StatePaused indicates playback is paused
	StatePaused
)

// String returns a human-readable representation of the playback state.
func (s PlaybackState) String() string {
	switch s {
	case StateStopped:
		return "stopped"
	case StatePlaying:
		return "playing"
	case StatePaused:
		return "paused"
	default:
		return "unknown"
	}
}

// RepeatMode controls how the queue advances past its current song.
type RepeatMode int

const (
	// RepeatConsecutive plays the queue once, in order.
	RepeatConsecutive RepeatMode = iota

	// RepeatAll wraps to the first song after the last one.
	RepeatAll

	// RepeatOne keeps replaying the current song.
	RepeatOne
)

// String returns the settings name of the repeat mode.
func (m RepeatMode) String() string {
	switch m {
	case RepeatConsecutive:
		return "consecutive"
	case RepeatAll:
		return "repeat-all"
	case RepeatOne:
		return "repeat-one"
	default:
		return "unknown"
	}
}

// Next returns the mode that follows m in the toggle cycle.
func (m RepeatMode) Next() RepeatMode {
	switch m {
	case RepeatConsecutive:
		return RepeatAll
	case RepeatAll:
		return RepeatOne
	default:
		return RepeatConsecutive
	}
}

// MarshalText implements encoding.TextMarshaler.
func (m RepeatMode) MarshalText() ([]byte, error) {
	if m < RepeatConsecutive || m > RepeatOne {
		return nil, NewValidationError("repeat-mode", int(m), "unknown repeat mode")
	}
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *RepeatMode) UnmarshalText(text []byte) error {
	mode, err := ParseRepeatMode(string(text))
	if err != nil {
		return err
	}
	*m = mode
	return nil
}

// ParseRepeatMode parses a repeat mode name. The short aliases "all" and
// "one" are accepted for command line use.
func ParseRepeatMode(s string) (RepeatMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "consecutive", "none", "off":
		return RepeatConsecutive, nil
	case "repeat-all", "all", "playlist":
		return RepeatAll, nil
	case "repeat-one", "one", "track":
		return RepeatOne, nil
	default:
		return RepeatConsecutive, NewValidationError("repeat-mode", s, "unknown repeat mode")
	}
}

// ReplayGainMode selects the volume normalization applied by the media backend.
// The numeric values are stable and used for persistence.
type ReplayGainMode int

const (
	ReplayGainAlbum ReplayGainMode = 0
	ReplayGainTrack ReplayGainMode = 1
	ReplayGainOff   ReplayGainMode = 2
)

// String returns the settings name of the replay gain mode.
func (m ReplayGainMode) String() string {
	switch m {
	case ReplayGainAlbum:
		return "album"
	case ReplayGainTrack:
		return "track"
	case ReplayGainOff:
		return "off"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (m ReplayGainMode) MarshalText() ([]byte, error) {
	if m < ReplayGainAlbum || m > ReplayGainOff {
		return nil, NewValidationError("replay-gain", int(m), "unknown replay gain mode")
	}
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *ReplayGainMode) UnmarshalText(text []byte) error {
	mode, err := ParseReplayGainMode(string(text))
	if err != nil {
		return err
	}
	*m = mode
	return nil
}

// ParseReplayGainMode parses a replay gain mode name.
func ParseReplayGainMode(s string) (ReplayGainMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "album":
		return ReplayGainAlbum, nil
	case "track":
		return ReplayGainTrack, nil
	case "off", "none":
		return ReplayGainOff, nil
	default:
		return ReplayGainOff, NewValidationError("replay-gain", s, "unknown replay gain mode")
	}
}

// ReplayGainModeFromInt converts a persisted integer into a mode.
func ReplayGainModeFromInt(v int) (ReplayGainMode, error) {
	if v < int(ReplayGainAlbum) || v > int(ReplayGainOff) {
		return ReplayGainOff, NewValidationError("replay-gain", v, "invalid replay gain key")
	}
	return ReplayGainMode(v), nil
}

// PictureType describes the role of an embedded picture.
type PictureType int

const (
	PictureNone PictureType = iota
	PictureFrontCover
	PictureOther
	PictureBandLogo
	PictureUnknown
)

// Metadata is the result of reading an audio file's tags.
type Metadata struct {
	Title       string
	Artist      string
	Album       string
	AlbumArtist string

	// Duration in whole seconds
	Duration uint64

	// Cover is the raw bytes of the preferred embedded picture, if any
	Cover     []byte
	CoverType PictureType

	// ReplayGain values in dB; nil when the tag is absent
	TrackGain *float64
	AlbumGain *float64
}

// CoverArt is a decoded, scaled cover image with its dominant colors.
type CoverArt struct {
	// UUID identifies the cover; songs of one album share it
	UUID string

	Image   image.Image
	Palette []color.RGBA

	// CachePath is the PNG written to the cover store; empty if it could not be written
	CachePath string
}

// Settings are user preferences persisted between sessions.
type Settings struct {
	ReplayGain      ReplayGainMode `toml:"replay-gain"`
	RepeatMode      RepeatMode     `toml:"repeat-mode"`
	Volume          float64        `toml:"volume"`
	RestorePlaylist bool           `toml:"restore-playlist"`
	BackgroundPlay  bool           `toml:"background-play"`
	Notifications   bool           `toml:"notifications"`
	WindowWidth     int            `toml:"window-width"`
	WindowHeight    int            `toml:"window-height"`
}

// DefaultSettings returns the settings used when nothing has been persisted.
func DefaultSettings() Settings {
	return Settings{
		ReplayGain:      ReplayGainTrack,
		RepeatMode:      RepeatConsecutive,
		Volume:          1.0,
		RestorePlaylist: true,
		BackgroundPlay:  true,
		Notifications:   true,
		WindowWidth:     600,
		WindowHeight:    800,
	}
}

// Validate checks the settings for out-of-range values.
func (s Settings) Validate() error {
	if s.Volume < 0 || s.Volume > 1 {
		return NewValidationError("volume", s.Volume, "must be between 0.0 and 1.0")
	}
	if s.WindowWidth < 0 || s.WindowHeight < 0 {
		return NewValidationError("window-size", fmt.Sprintf("%dx%d", s.WindowWidth, s.WindowHeight), "must not be negative")
	}
	return nil
}

// LoadProgress represents the progress of a batch song load.
type LoadProgress struct {
	// CurrentFile is the file currently being read
	CurrentFile string

	// Current is the number of files processed so far
	Current int

	// Total is the number of files in the batch
	Total int

	// Loaded is the number of valid songs found
	Loaded int
}

// Percentage returns the completion percentage (0-100).
func (p LoadProgress) Percentage() float64 {
	if p.Total <= 0 {
		return 0
	}
	return float64(p.Current) / float64(p.Total) * 100
}
