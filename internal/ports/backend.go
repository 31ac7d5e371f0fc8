// Package ports defines interfaces for dependency inversion.
// These interfaces keep the player core independent of audio, D-Bus and storage libraries.
package ports

import (
	"github.com/tejashwikalptaru/cadence/internal/domain"
)

// ActionSender delivers playback actions to the player's action loop.
// Backends and controllers hold one of these instead of a reference to the player.
type ActionSender interface {
	// Send enqueues an action. It returns false if the player has shut down.
	Send(action domain.PlaybackAction) bool
}

// MediaBackend is the interface for the audio decode and output pipeline.
//
// Commands are fire-and-forget from the player's point of view: errors are
// returned for logging but never change player state. The backend reports
// back through the ActionSender set with SetActionSender:
//   - domain.UpdatePositionAction every tick while playing (Notify=false)
//     and after a completed seek (Notify=true)
//   - domain.PlayNextAction with the finished URI at end of stream
//   - domain.VolumeChangedAction after SetVolume was applied
//   - domain.WarningAction for non-fatal problems
//
// Implementations must be thread-safe.
type MediaBackend interface {
	// SetActionSender sets where backend events go. Must be called before playback.
	SetActionSender(sender ActionSender)

	// SetURI loads the song at uri, paused at position 0.
	// An empty uri unloads the current song.
	SetURI(uri string) error

	// Play starts or resumes output.
	Play() error

	// Pause suspends output, keeping the position.
	Pause() error

	// Stop halts output and rewinds to the start.
	Stop() error

	// SeekTo moves to an absolute position in seconds.
	SeekTo(position uint64) error

	// SetVolume sets the volume on a 0.0-1.0 perceptual (cubic) scale.
	SetVolume(volume float64) error

	// SetReplayGain selects the normalization mode.
	SetReplayGain(mode domain.ReplayGainMode) error

	// ReplayGainAvailable reports whether SetReplayGain has any effect.
	ReplayGainAvailable() bool

	// Shutdown releases output devices and stops background goroutines.
	Shutdown() error
}

// MetadataReader reads tags from an audio file.
type MetadataReader interface {
	// Read returns the metadata of the file at path, or an error if the file
	// is missing or cannot be parsed.
	Read(path string) (domain.Metadata, error)
}
