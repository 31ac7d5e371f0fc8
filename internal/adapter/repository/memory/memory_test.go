package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tejashwikalptaru/cadence/internal/domain"
	"github.com/tejashwikalptaru/cadence/internal/testutil"
)

func TestPlaylistRepository(t *testing.T) {
	repo := NewPlaylistRepository()

	_, err := repo.Load()
	assert.ErrorIs(t, err, domain.ErrNoCachedPlaylist)

	paths := []string{"/music/a.flac", "/music/b.flac"}
	require.NoError(t, repo.Save(paths))
	paths[0] = "/changed"

	loaded, err := repo.Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"/music/a.flac", "/music/b.flac"}, loaded)

	// an empty snapshot is still a snapshot
	require.NoError(t, repo.Save(nil))
	loaded, err = repo.Load()
	require.NoError(t, err)
	assert.Empty(t, loaded)

	require.NoError(t, repo.Clear())
	_, err = repo.Load()
	assert.ErrorIs(t, err, domain.ErrNoCachedPlaylist)
}

func TestSettingsRepository_SaveLoad(t *testing.T) {
	repo := NewSettingsRepository()

	settings, err := repo.Load()
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultSettings(), settings)

	settings.Volume = 0.4
	settings.RepeatMode = domain.RepeatOne
	require.NoError(t, repo.Save(settings))

	loaded, err := repo.Load()
	require.NoError(t, err)
	assert.Equal(t, settings, loaded)

	settings.Volume = 3
	var validationErr *domain.ValidationError
	assert.ErrorAs(t, repo.Save(settings), &validationErr)
}

func TestSettingsRepository_Watch(t *testing.T) {
	defer testutil.VerifyNoLeaks(t)

	repo := NewSettingsRepository()
	changed := make(chan domain.Settings, 1)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- repo.Watch(ctx, func(s domain.Settings) { changed <- s })
	}()

	external := domain.DefaultSettings()
	external.Notifications = false
	require.Eventually(t, func() bool {
		_ = repo.Replace(external)
		select {
		case s := <-changed:
			return !s.Notifications
		default:
			return false
		}
	}, time.Second, 10*time.Millisecond)

	cancel()
	require.NoError(t, <-done)
}

func TestWaveformRepository(t *testing.T) {
	repo := NewWaveformRepository()

	_, err := repo.Load("song")
	assert.ErrorIs(t, err, domain.ErrWaveformNotCached)

	peaks := [][2]float64{{0.1, 0.2}, {0.5, 0.4}}
	require.NoError(t, repo.Save("song", peaks))
	peaks[0][0] = 1

	loaded, err := repo.Load("song")
	require.NoError(t, err)
	assert.Equal(t, [][2]float64{{0.1, 0.2}, {0.5, 0.4}}, loaded)
	assert.Equal(t, 1, repo.Len())
}
