package file

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/BurntSushi/toml"
	"github.com/fsnotify/fsnotify"

	"github.com/tejashwikalptaru/cadence/internal/domain"
	"github.com/tejashwikalptaru/cadence/internal/ports"
)

// SettingsRepository implements ports.SettingsRepository as a TOML file.
// Keys missing from the file keep their defaults.
type SettingsRepository struct {
	path   string
	logger *slog.Logger
	mu     sync.Mutex
}

// NewSettingsRepository creates a repository for the TOML file at path.
func NewSettingsRepository(path string, logger *slog.Logger) *SettingsRepository {
	return &SettingsRepository{
		path:   path,
		logger: logger.With(slog.String("repository", "settings")),
	}
}

// Path returns the settings file location.
func (r *SettingsRepository) Path() string {
	return r.path
}

// Load returns the stored settings. A missing file yields defaults; so does
// a corrupt or invalid one, after logging it.
func (r *SettingsRepository) Load() (domain.Settings, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.load(), nil
}

func (r *SettingsRepository) load() domain.Settings {
	settings := domain.DefaultSettings()

	data, err := os.ReadFile(r.path)
	if err != nil {
		if !os.IsNotExist(err) {
			r.logger.Warn("failed to read settings", slog.String("path", r.path), slog.Any("error", err))
		}
		return settings
	}

	if _, err := toml.Decode(string(data), &settings); err != nil {
		r.logger.Warn("corrupt settings file, using defaults", slog.String("path", r.path), slog.Any("error", err))
		return domain.DefaultSettings()
	}
	if err := settings.Validate(); err != nil {
		r.logger.Warn("invalid settings, using defaults", slog.String("path", r.path), slog.Any("error", err))
		return domain.DefaultSettings()
	}
	return settings
}

// Save writes settings to the file.
func (r *SettingsRepository) Save(settings domain.Settings) error {
	if err := settings.Validate(); err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(settings); err != nil {
		return domain.NewRepositoryError("save", "settings", "failed to encode settings", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if err := writeFileAtomic(r.path, buf.Bytes()); err != nil {
		return domain.NewRepositoryError("save", "settings", "failed to write settings", err)
	}
	return nil
}

// Watch calls onChange with the reloaded settings whenever the file is
// written, created or replaced, until ctx is done. The directory is watched
// rather than the file so that editors replacing the file are seen.
func (r *SettingsRepository) Watch(ctx context.Context, onChange func(domain.Settings)) error {
	dir := filepath.Dir(r.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return domain.NewRepositoryError("watch", "settings", "failed to create config directory", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return domain.NewRepositoryError("watch", "settings", "failed to create watcher", err)
	}
	defer watcher.Close()

	if err := watcher.Add(dir); err != nil {
		return domain.NewRepositoryError("watch", "settings", "failed to watch config directory", err)
	}
	r.logger.Debug("watching settings", slog.String("path", r.path))

	name := filepath.Clean(r.path)
	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != name || !event.Has(fsnotify.Write|fsnotify.Create|fsnotify.Rename) {
				continue
			}
			r.mu.Lock()
			settings := r.load()
			r.mu.Unlock()
			onChange(settings)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			r.logger.Warn("settings watcher error", slog.Any("error", err))
		}
	}
}

var _ ports.SettingsRepository = (*SettingsRepository)(nil)
