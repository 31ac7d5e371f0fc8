package ports

import (
	"github.com/tejashwikalptaru/cadence/internal/domain"
)

// Controller is an observer of the player, registered once when the player is built.
//
// The player calls these methods synchronously, in registration order, while a
// transition is being applied. Implementations must return quickly: slow work
// (D-Bus signals, decoding, notifications) is handed off to their own goroutines.
// They must tolerate repeated calls with an unchanged value, and must not call
// back into the player; requests go through an ActionSender.
type Controller interface {
	// SetPlaybackState is called after the player state changed and before
	// the backend is commanded.
	SetPlaybackState(state domain.PlaybackState)

	// SetSong is called with the song about to become current. It is always
	// called before SetPlaybackState reports that song as playing.
	SetSong(song *domain.Song)

	// SetPosition is called with the position in seconds. notify is true when
	// the position results from a seek and false for periodic ticks.
	SetPosition(position uint64, notify bool)

	// SetRepeatMode is called when the repeat mode changes.
	SetRepeatMode(mode domain.RepeatMode)
}
