// Package memory provides repositories that keep everything in process memory.
// They back ephemeral sessions, where nothing is read from or written to disk.
package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/tejashwikalptaru/cadence/internal/domain"
	"github.com/tejashwikalptaru/cadence/internal/ports"
)

// PlaylistRepository implements ports.PlaylistRepository in memory.
//
// Thread-safe: All operations protected by sync.RWMutex.
type PlaylistRepository struct {
	mu    sync.RWMutex
	paths []string
	saved bool
}

// NewPlaylistRepository creates an empty playlist repository.
func NewPlaylistRepository() *PlaylistRepository {
	return &PlaylistRepository{}
}

// Save replaces the snapshot with a copy of paths.
func (r *PlaylistRepository) Save(paths []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.paths = slices.Clone(paths)
	r.saved = true
	return nil
}

// Load returns the saved paths, or domain.ErrNoCachedPlaylist.
func (r *PlaylistRepository) Load() ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if !r.saved {
		return nil, domain.ErrNoCachedPlaylist
	}
	return slices.Clone(r.paths), nil
}

// Clear forgets the snapshot.
func (r *PlaylistRepository) Clear() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.paths, r.saved = nil, false
	return nil
}

// SettingsRepository implements ports.SettingsRepository in memory.
// Replace simulates an external edit and is reported to watchers.
type SettingsRepository struct {
	mu       sync.RWMutex
	settings domain.Settings
	watchers map[int]func(domain.Settings)
	nextID   int
}

// NewSettingsRepository creates a repository holding the default settings.
func NewSettingsRepository() *SettingsRepository {
	return &SettingsRepository{
		settings: domain.DefaultSettings(),
		watchers: make(map[int]func(domain.Settings)),
	}
}

// Load returns the stored settings.
func (r *SettingsRepository) Load() (domain.Settings, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.settings, nil
}

// Save stores valid settings.
func (r *SettingsRepository) Save(settings domain.Settings) error {
	if err := settings.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.settings = settings
	return nil
}

// Replace stores settings and notifies watchers, as an edit made outside
// the application would.
func (r *SettingsRepository) Replace(settings domain.Settings) error {
	if err := r.Save(settings); err != nil {
		return err
	}

	r.mu.RLock()
	watchers := make([]func(domain.Settings), 0, len(r.watchers))
	for _, fn := range r.watchers {
		watchers = append(watchers, fn)
	}
	r.mu.RUnlock()

	for _, fn := range watchers {
		fn(settings)
	}
	return nil
}

// Watch registers onChange until ctx is done.
func (r *SettingsRepository) Watch(ctx context.Context, onChange func(domain.Settings)) error {
	r.mu.Lock()
	id := r.nextID
	r.nextID++
	r.watchers[id] = onChange
	r.mu.Unlock()

	<-ctx.Done()

	r.mu.Lock()
	delete(r.watchers, id)
	r.mu.Unlock()
	return nil
}

// WaveformRepository implements ports.WaveformRepository in memory.
type WaveformRepository struct {
	mu    sync.RWMutex
	peaks map[string][][2]float64
}

// NewWaveformRepository creates an empty waveform cache.
func NewWaveformRepository() *WaveformRepository {
	return &WaveformRepository{peaks: make(map[string][][2]float64)}
}

// Load returns the peaks of songUUID, or domain.ErrWaveformNotCached.
func (r *WaveformRepository) Load(songUUID string) ([][2]float64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	peaks, ok := r.peaks[songUUID]
	if !ok {
		return nil, domain.ErrWaveformNotCached
	}
	return slices.Clone(peaks), nil
}

// Save stores a copy of peaks.
func (r *WaveformRepository) Save(songUUID string, peaks [][2]float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.peaks[songUUID] = slices.Clone(peaks)
	return nil
}

// Len returns the number of cached waveforms.
func (r *WaveformRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.peaks)
}

var (
	_ ports.PlaylistRepository = (*PlaylistRepository)(nil)
	_ ports.SettingsRepository = (*SettingsRepository)(nil)
	_ ports.WaveformRepository = (*WaveformRepository)(nil)
)
