package service

import (
	"context"
	"log/slog"
	"sync"

	"github.com/tejashwikalptaru/cadence/internal/domain"
	"github.com/tejashwikalptaru/cadence/internal/ports"
)

// SettingsService caches user settings and writes changes through to the
// repository. Every change, local or external, is published as a
// SettingsChangedEvent.
// All operations are thread-safe via sync.RWMutex.
type SettingsService struct {
	logger     *slog.Logger
	repository ports.SettingsRepository
	bus        ports.EventBus

	mu       sync.RWMutex
	settings domain.Settings
}

// NewSettingsService creates a settings service and loads the stored
// settings. A repository failure is logged and leaves the defaults.
func NewSettingsService(
	logger *slog.Logger,
	repository ports.SettingsRepository,
	bus ports.EventBus,
) *SettingsService {
	s := &SettingsService{
		logger:     logger.With(slog.String("service", "settings")),
		repository: repository,
		bus:        bus,
		settings:   domain.DefaultSettings(),
	}

	settings, err := repository.Load()
	if err != nil {
		s.logger.Warn("failed to load settings, using defaults", slog.Any("error", err))
	} else {
		s.settings = settings
	}

	return s
}

// Settings returns a copy of the current settings.
func (s *SettingsService) Settings() domain.Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings
}

// update applies fn to a copy of the settings, validates, persists and
// publishes it. Nothing changes if validation or saving fails.
func (s *SettingsService) update(fn func(*domain.Settings)) error {
	s.mu.Lock()
	next := s.settings
	fn(&next)
	if next == s.settings {
		s.mu.Unlock()
		return nil
	}
	if err := next.Validate(); err != nil {
		s.mu.Unlock()
		return err
	}
	if err := s.repository.Save(next); err != nil {
		s.mu.Unlock()
		return err
	}
	s.settings = next
	s.mu.Unlock()

	if s.bus != nil {
		s.bus.Publish(domain.NewSettingsChangedEvent(next))
	}
	return nil
}

// ReplayGain returns the replay gain mode.
func (s *SettingsService) ReplayGain() domain.ReplayGainMode {
	return s.Settings().ReplayGain
}

// SetReplayGain saves the replay gain mode.
func (s *SettingsService) SetReplayGain(mode domain.ReplayGainMode) error {
	if _, err := domain.ReplayGainModeFromInt(int(mode)); err != nil {
		return err
	}
	return s.update(func(st *domain.Settings) { st.ReplayGain = mode })
}

// RepeatMode returns the repeat mode.
func (s *SettingsService) RepeatMode() domain.RepeatMode {
	return s.Settings().RepeatMode
}

// SetRepeatMode saves the repeat mode.
func (s *SettingsService) SetRepeatMode(mode domain.RepeatMode) error {
	if _, err := mode.MarshalText(); err != nil {
		return err
	}
	return s.update(func(st *domain.Settings) { st.RepeatMode = mode })
}

// Volume returns the saved volume (0.0 to 1.0).
func (s *SettingsService) Volume() float64 {
	return s.Settings().Volume
}

// SetVolume saves the volume (0.0 to 1.0).
func (s *SettingsService) SetVolume(volume float64) error {
	if volume < 0.0 || volume > 1.0 {
		return domain.ErrInvalidVolume
	}
	return s.update(func(st *domain.Settings) { st.Volume = volume })
}

// RestorePlaylist reports whether the last playlist is restored at startup.
func (s *SettingsService) RestorePlaylist() bool {
	return s.Settings().RestorePlaylist
}

// SetRestorePlaylist saves the restore-playlist flag.
func (s *SettingsService) SetRestorePlaylist(enabled bool) error {
	return s.update(func(st *domain.Settings) { st.RestorePlaylist = enabled })
}

// Notifications reports whether now-playing notifications are shown.
func (s *SettingsService) Notifications() bool {
	return s.Settings().Notifications
}

// SetNotifications saves the notifications flag.
func (s *SettingsService) SetNotifications(enabled bool) error {
	return s.update(func(st *domain.Settings) { st.Notifications = enabled })
}

// Watch reloads the settings whenever the repository reports an external
// change, until ctx is done.
func (s *SettingsService) Watch(ctx context.Context) error {
	return s.repository.Watch(ctx, s.reloaded)
}

func (s *SettingsService) reloaded(settings domain.Settings) {
	s.mu.Lock()
	if settings == s.settings {
		s.mu.Unlock()
		return
	}
	s.settings = settings
	s.mu.Unlock()

	s.logger.Info("settings reloaded")
	if s.bus != nil {
		s.bus.Publish(domain.NewSettingsChangedEvent(settings))
	}
}
