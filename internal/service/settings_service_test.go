package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tejashwikalptaru/cadence/internal/adapter/eventbus"
	"github.com/tejashwikalptaru/cadence/internal/domain"
	"github.com/tejashwikalptaru/cadence/internal/logger"
)

type mockSettingsRepository struct {
	mu       sync.Mutex
	settings domain.Settings
	saves    int
	loadErr  error
	saveErr  error
	changes  chan domain.Settings
}

func newMockSettingsRepository() *mockSettingsRepository {
	return &mockSettingsRepository{
		settings: domain.DefaultSettings(),
		changes:  make(chan domain.Settings),
	}
}

func (m *mockSettingsRepository) Load() (domain.Settings, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.loadErr != nil {
		return domain.Settings{}, m.loadErr
	}
	return m.settings, nil
}

func (m *mockSettingsRepository) Save(settings domain.Settings) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	m.settings = settings
	m.saves++
	return nil
}

func (m *mockSettingsRepository) Watch(ctx context.Context, onChange func(domain.Settings)) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case s := <-m.changes:
			onChange(s)
		}
	}
}

func (m *mockSettingsRepository) saveCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}

func newTestSettingsService(t *testing.T, repo *mockSettingsRepository) (*SettingsService, *eventbus.SyncEventBus) {
	t.Helper()
	bus := eventbus.NewSyncEventBus()
	t.Cleanup(func() { _ = bus.Close() })
	return NewSettingsService(logger.NewTestLogger(), repo, bus), bus
}

func TestSettingsService_LoadsStoredSettings(t *testing.T) {
	repo := newMockSettingsRepository()
	repo.settings.Volume = 0.4
	repo.settings.RepeatMode = domain.RepeatAll

	service, _ := newTestSettingsService(t, repo)
	assert.InDelta(t, 0.4, service.Volume(), 1e-9)
	assert.Equal(t, domain.RepeatAll, service.RepeatMode())
	assert.Equal(t, domain.ReplayGainTrack, service.ReplayGain())
}

func TestSettingsService_LoadFailureUsesDefaults(t *testing.T) {
	repo := newMockSettingsRepository()
	repo.loadErr = errors.New("corrupt")

	service, _ := newTestSettingsService(t, repo)
	assert.Equal(t, domain.DefaultSettings(), service.Settings())
}

func TestSettingsService_SettersPersistAndPublish(t *testing.T) {
	repo := newMockSettingsRepository()
	service, bus := newTestSettingsService(t, repo)

	var events []domain.Settings
	bus.Subscribe(domain.EventSettingsChanged, func(e domain.Event) {
		events = append(events, e.(domain.SettingsChangedEvent).Settings)
	})

	require.NoError(t, service.SetVolume(0.25))
	require.NoError(t, service.SetReplayGain(domain.ReplayGainAlbum))
	require.NoError(t, service.SetRepeatMode(domain.RepeatOne))
	require.NoError(t, service.SetRestorePlaylist(false))
	require.NoError(t, service.SetNotifications(false))

	assert.Equal(t, 5, repo.saveCount())
	require.Len(t, events, 5)
	last := events[4]
	assert.InDelta(t, 0.25, last.Volume, 1e-9)
	assert.Equal(t, domain.ReplayGainAlbum, last.ReplayGain)
	assert.Equal(t, domain.RepeatOne, last.RepeatMode)
	assert.False(t, last.RestorePlaylist)
	assert.False(t, last.Notifications)
	assert.False(t, service.Notifications())
	assert.False(t, service.RestorePlaylist())

	require.NoError(t, service.SetVolume(0.25))
	assert.Equal(t, 5, repo.saveCount(), "unchanged value is not saved")
}

func TestSettingsService_Validation(t *testing.T) {
	repo := newMockSettingsRepository()
	service, _ := newTestSettingsService(t, repo)

	assert.ErrorIs(t, service.SetVolume(1.5), domain.ErrInvalidVolume)
	assert.Error(t, service.SetReplayGain(domain.ReplayGainMode(7)))
	assert.Error(t, service.SetRepeatMode(domain.RepeatMode(-1)))
	assert.Zero(t, repo.saveCount())
}

func TestSettingsService_SaveFailureKeepsOldValue(t *testing.T) {
	repo := newMockSettingsRepository()
	repo.saveErr = errors.New("read-only")
	service, _ := newTestSettingsService(t, repo)

	assert.Error(t, service.SetVolume(0.5))
	assert.InDelta(t, 1.0, service.Volume(), 1e-9)
}

func TestSettingsService_Watch(t *testing.T) {
	repo := newMockSettingsRepository()
	service, bus := newTestSettingsService(t, repo)

	changed := make(chan domain.Settings, 1)
	bus.Subscribe(domain.EventSettingsChanged, func(e domain.Event) {
		changed <- e.(domain.SettingsChangedEvent).Settings
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- service.Watch(ctx) }()

	external := domain.DefaultSettings()
	external.ReplayGain = domain.ReplayGainOff
	repo.changes <- external

	select {
	case s := <-changed:
		assert.Equal(t, domain.ReplayGainOff, s.ReplayGain)
	case <-time.After(time.Second):
		t.Fatal("no settings event after external change")
	}
	assert.Equal(t, domain.ReplayGainOff, service.ReplayGain())

	cancel()
	require.NoError(t, <-done)
}
