package domain

import (
	"image/color"
	"net/url"
	"path/filepath"
	"sync/atomic"
)

const (
	unknownArtist = "Unknown artist"
	unknownTitle  = "Unknown title"
	unknownAlbum  = "Unknown album"

	invalidPath = "/does-not-exist"
)

// Song is the metadata record of one audio file.
// Everything except the playing and selected flags is fixed at construction.
type Song struct {
	path     string
	uuid     string
	title    string
	artist   string
	album    string
	duration uint64
	cover    *CoverArt

	playing  atomic.Bool
	selected atomic.Bool
}

// NewSong creates a song for the file at path. The uuid is the song's
// content-derived identity and may be empty, in which case identity
// falls back to the path.
func NewSong(path, uuid string, md Metadata, cover *CoverArt) *Song {
	return &Song{
		path:     path,
		uuid:     uuid,
		title:    md.Title,
		artist:   md.Artist,
		album:    md.Album,
		duration: md.Duration,
		cover:    cover,
	}
}

// InvalidSong returns the placeholder song used when a file could not be read.
// Queues reject it.
func InvalidSong() *Song {
	return &Song{
		path:   invalidPath,
		title:  "Invalid Title",
		artist: "Invalid Artist",
		album:  "Invalid Album",
	}
}

// Path returns the absolute file path.
func (s *Song) Path() string { return s.path }

// URI returns the file URI of the song.
func (s *Song) URI() string {
	u := url.URL{Scheme: "file", Path: s.path}
	return u.String()
}

// UUID returns the content-derived identity, or "" when none could be computed.
func (s *Song) UUID() string { return s.uuid }

// Title returns the title tag, falling back to "Unknown title".
func (s *Song) Title() string {
	if s.title == "" {
		return unknownTitle
	}
	return s.title
}

// Artist returns the artist tag, falling back to "Unknown artist".
func (s *Song) Artist() string {
	if s.artist == "" {
		return unknownArtist
	}
	return s.artist
}

// Album returns the album tag, falling back to "Unknown album".
func (s *Song) Album() string {
	if s.album == "" {
		return unknownAlbum
	}
	return s.album
}

// HasTitle, HasArtist and HasAlbum report whether the tag was present.
func (s *Song) HasTitle() bool  { return s.title != "" }
func (s *Song) HasArtist() bool { return s.artist != "" }
func (s *Song) HasAlbum() bool  { return s.album != "" }

// Duration returns the song length in seconds.
func (s *Song) Duration() uint64 { return s.duration }

// Cover returns the cover art, or nil.
func (s *Song) Cover() *CoverArt { return s.cover }

// CoverUUID returns the identity of the song's cover, or "".
func (s *Song) CoverUUID() string {
	if s.cover == nil {
		return ""
	}
	return s.cover.UUID
}

// CoverPalette returns the dominant colors of the cover, or nil.
func (s *Song) CoverPalette() []color.RGBA {
	if s.cover == nil {
		return nil
	}
	return s.cover.Palette
}

// DisplayName returns the base name of the file.
func (s *Song) DisplayName() string {
	return filepath.Base(s.path)
}

// SearchKey returns the text fuzzy search matches against.
func (s *Song) SearchKey() string {
	return s.Artist() + " " + s.Album() + " " + s.Title()
}

// Playing reports whether this song is the one loaded in the player.
func (s *Song) Playing() bool { return s.playing.Load() }

// SetPlaying marks the song as loaded in the player.
func (s *Song) SetPlaying(playing bool) { s.playing.Store(playing) }

// Selected reports whether the song is part of the current selection.
func (s *Song) Selected() bool { return s.selected.Load() }

// SetSelected changes the selection flag.
func (s *Song) SetSelected(selected bool) { s.selected.Store(selected) }

// Equals compares identities: by uuid when both songs have one, otherwise by path.
func (s *Song) Equals(other *Song) bool {
	if s == nil || other == nil {
		return s == other
	}
	if s.uuid != "" && other.uuid != "" {
		return s.uuid == other.uuid
	}
	return s.path == other.path
}

// IsInvalid reports whether s is the placeholder returned by InvalidSong.
func (s *Song) IsInvalid() bool {
	return s == nil || s.Equals(InvalidSong())
}
