package service

import (
	"fmt"
	"sync"

	"github.com/tejashwikalptaru/cadence/internal/domain"
	"github.com/tejashwikalptaru/cadence/internal/ports"
)

// PlayerState is the observable "now playing" record: playback state,
// position, current song and volume. Each change is published on the bus
// after the state lock is released.
type PlayerState struct {
	bus ports.EventBus

	mu       sync.RWMutex
	playback domain.PlaybackState
	position uint64
	song     *domain.Song
	volume   float64
}

// NewPlayerState creates a stopped state with no song at full volume.
func NewPlayerState(bus ports.EventBus) *PlayerState {
	return &PlayerState{
		bus:      bus,
		playback: domain.StateStopped,
		volume:   1.0,
	}
}

func (s *PlayerState) publish(events ...domain.Event) {
	if s.bus == nil {
		return
	}
	for _, e := range events {
		s.bus.Publish(e)
	}
}

// SetPlaybackState changes the playback state and reports whether it changed.
func (s *PlayerState) SetPlaybackState(state domain.PlaybackState) bool {
	s.mu.Lock()
	old := s.playback
	s.playback = state
	s.mu.Unlock()

	if old == state {
		return false
	}
	s.publish(domain.NewPlaybackStateChangedEvent(old, state))
	return true
}

// SetCurrentSong replaces the current song and rewinds the position to 0.
// Both changes are always published, even when the song did not change.
func (s *PlayerState) SetCurrentSong(song *domain.Song) {
	s.mu.Lock()
	s.song = song
	s.position = 0
	s.mu.Unlock()

	s.publish(domain.NewSongChangedEvent(song), domain.NewPositionChangedEvent(0))
}

// SetPosition sets the position in seconds.
func (s *PlayerState) SetPosition(position uint64) {
	s.mu.Lock()
	s.position = position
	s.mu.Unlock()

	s.publish(domain.NewPositionChangedEvent(position))
}

// SetVolume stores the volume and reports whether it changed. Changes
// smaller than 0.005 are not considered changes.
func (s *PlayerState) SetVolume(volume float64) bool {
	s.mu.Lock()
	old := s.volume
	if fmt.Sprintf("%.2f", old) == fmt.Sprintf("%.2f", volume) {
		s.mu.Unlock()
		return false
	}
	s.volume = volume
	s.mu.Unlock()

	s.publish(domain.NewVolumeChangedEvent(old, volume))
	return true
}

// PlaybackState returns the playback state.
func (s *PlayerState) PlaybackState() domain.PlaybackState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.playback
}

// Playing reports whether the state is StatePlaying.
func (s *PlayerState) Playing() bool {
	return s.PlaybackState() == domain.StatePlaying
}

// Position returns the position in seconds.
func (s *PlayerState) Position() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.position
}

// Volume returns the last volume reported by the backend.
func (s *PlayerState) Volume() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.volume
}

// CurrentSong returns the current song, or nil.
func (s *PlayerState) CurrentSong() *domain.Song {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.song
}

// Title returns the current title, or "" with no song.
func (s *PlayerState) Title() string {
	if song := s.CurrentSong(); song != nil {
		return song.Title()
	}
	return ""
}

// Artist returns the current artist, or "" with no song.
func (s *PlayerState) Artist() string {
	if song := s.CurrentSong(); song != nil {
		return song.Artist()
	}
	return ""
}

// Album returns the current album, or "" with no song.
func (s *PlayerState) Album() string {
	if song := s.CurrentSong(); song != nil {
		return song.Album()
	}
	return ""
}

// Duration returns the current song length in seconds, or 0.
func (s *PlayerState) Duration() uint64 {
	if song := s.CurrentSong(); song != nil {
		return song.Duration()
	}
	return 0
}

// Cover returns the cover of the current song, or nil.
func (s *PlayerState) Cover() *domain.CoverArt {
	if song := s.CurrentSong(); song != nil {
		return song.Cover()
	}
	return nil
}
