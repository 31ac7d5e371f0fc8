// Package ports defines repository interfaces for data persistence abstraction.
// These interfaces enable the repository pattern and allow swapping persistence mechanisms.
package ports

import (
	"context"
	"image"

	"github.com/tejashwikalptaru/cadence/internal/domain"
)

// PlaylistRepository persists the snapshot of the last queued files.
//
// Thread-safety: Implementations must be thread-safe.
type PlaylistRepository interface {
	// Save replaces the snapshot with paths, in order.
	Save(paths []string) error

	// Load returns the saved paths.
	// A missing or unreadable snapshot returns domain.ErrNoCachedPlaylist.
	Load() ([]string, error)

	// Clear removes the snapshot. Clearing a missing snapshot is not an error.
	Clear() error
}

// SettingsRepository persists user settings.
type SettingsRepository interface {
	// Load returns the stored settings, or defaults if nothing is stored.
	Load() (domain.Settings, error)

	// Save stores settings.
	Save(settings domain.Settings) error

	// Watch calls onChange with freshly loaded settings whenever the storage
	// is modified externally, until ctx is done.
	Watch(ctx context.Context, onChange func(domain.Settings)) error
}

// WaveformRepository caches per-song waveform peaks.
type WaveformRepository interface {
	// Load returns the peaks stored for songUUID.
	// A missing entry returns domain.ErrWaveformNotCached.
	Load(songUUID string) ([][2]float64, error)

	// Save stores the peaks for songUUID.
	Save(songUUID string, peaks [][2]float64) error
}

// CoverStore writes cover images where other processes (notification daemons,
// MPRIS clients) can read them.
type CoverStore interface {
	// Save writes img for coverUUID and returns its path.
	Save(coverUUID string, img image.Image) (string, error)

	// Path returns the path of a previously saved cover and whether it exists.
	Path(coverUUID string) (string, bool)
}
