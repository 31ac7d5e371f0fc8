package waveform

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/generators"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tejashwikalptaru/cadence/internal/adapter/eventbus"
	"github.com/tejashwikalptaru/cadence/internal/domain"
	"github.com/tejashwikalptaru/cadence/internal/logger"
	"github.com/tejashwikalptaru/cadence/internal/testutil"
)

type memoryWaveformRepository struct {
	mu    sync.Mutex
	peaks map[string][][2]float64
	saves int
}

func newMemoryWaveformRepository() *memoryWaveformRepository {
	return &memoryWaveformRepository{peaks: make(map[string][][2]float64)}
}

func (r *memoryWaveformRepository) Load(songUUID string) ([][2]float64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	peaks, ok := r.peaks[songUUID]
	if !ok {
		return nil, domain.ErrWaveformNotCached
	}
	return peaks, nil
}

func (r *memoryWaveformRepository) Save(songUUID string, peaks [][2]float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.peaks[songUUID] = peaks
	r.saves++
	return nil
}

// frames streams a fixed list of frames.
type frames struct {
	data [][2]float64
	pos  int
}

func (f *frames) Stream(samples [][2]float64) (int, bool) {
	if f.pos >= len(f.data) {
		return 0, false
	}
	n := copy(samples, f.data[f.pos:])
	f.pos += n
	return n, true
}

func (f *frames) Err() error { return nil }

// endless wraps an infinite generator so it can stand in for a file.
type endless struct {
	beep.Streamer
}

func (endless) Len() int       { return 0 }
func (endless) Position() int  { return 0 }
func (endless) Seek(int) error { return nil }
func (endless) Close() error   { return nil }

func newTestGenerator(t *testing.T) (*Generator, *memoryWaveformRepository, chan domain.WaveformReadyEvent) {
	t.Helper()

	repo := newMemoryWaveformRepository()
	bus := eventbus.NewSyncEventBus()
	ready := make(chan domain.WaveformReadyEvent, 4)
	bus.Subscribe(domain.EventWaveformReady, func(event domain.Event) {
		ready <- event.(domain.WaveformReadyEvent)
	})
	return NewGenerator(logger.NewTestLogger(), repo, bus), repo, ready
}

func waitReady(t *testing.T, ready chan domain.WaveformReadyEvent) domain.WaveformReadyEvent {
	t.Helper()
	select {
	case event := <-ready:
		return event
	case <-time.After(5 * time.Second):
		t.Fatal("waveform was not published")
		return domain.WaveformReadyEvent{}
	}
}

func TestComputePeaks(t *testing.T) {
	stream := &frames{data: [][2]float64{
		{0.1, -0.2}, {-0.5, 0.1}, {0.3, 0.3},
		{0, 0}, {0.9, -1.5}, {0.2, 0.2},
		{-0.4, 0.05},
	}}

	peaks, err := ComputePeaks(context.Background(), stream, 3)
	require.NoError(t, err)
	assert.Equal(t, [][2]float64{{0.5, 0.3}, {0.9, 1}, {0.4, 0.05}}, peaks)
}

func TestComputePeaks_Empty(t *testing.T) {
	peaks, err := ComputePeaks(context.Background(), &frames{}, 100)
	require.NoError(t, err)
	assert.Empty(t, peaks)
}

func TestComputePeaks_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := ComputePeaks(ctx, &frames{data: make([][2]float64, 10)}, 5)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestGenerator_GeneratesAndCaches(t *testing.T) {
	defer testutil.VerifyNoLeaks(t)

	path := filepath.Join(t.TempDir(), "tone.wav")
	testutil.WriteWAV(t, path, time.Second, 0.5)

	g, repo, ready := newTestGenerator(t)
	song := domain.NewSong(path, "song-uuid", domain.Metadata{Duration: 1}, nil)
	g.SetSong(song)

	event := waitReady(t, ready)
	assert.Equal(t, "song-uuid", event.SongUUID)
	require.Len(t, event.Peaks, 4, "one pair per 250ms")
	for _, peak := range event.Peaks {
		assert.InDelta(t, 0.5, peak[0], 0.02)
		assert.InDelta(t, 0.5, peak[1], 0.02)
	}
	assert.Equal(t, event.Peaks, g.Peaks())

	require.NoError(t, g.Shutdown())

	cached, err := repo.Load("song-uuid")
	require.NoError(t, err)
	assert.Equal(t, event.Peaks, cached)
}

func TestGenerator_UsesCache(t *testing.T) {
	defer testutil.VerifyNoLeaks(t)

	g, repo, ready := newTestGenerator(t)
	g.open = func(string) (beep.StreamSeekCloser, beep.Format, error) {
		return nil, beep.Format{}, errors.New("should not decode")
	}
	cached := [][2]float64{{0.1, 0.2}, {0.3, 0.4}}
	require.NoError(t, repo.Save("cached", cached))

	g.SetSong(domain.NewSong("/music/cached.flac", "cached", domain.Metadata{}, nil))
	assert.Equal(t, cached, waitReady(t, ready).Peaks)

	require.NoError(t, g.Shutdown())
	assert.Equal(t, 1, repo.saves, "cache hits are not written back")
}

func TestGenerator_DecodeFailure(t *testing.T) {
	defer testutil.VerifyNoLeaks(t)

	g, repo, ready := newTestGenerator(t)
	g.SetSong(domain.NewSong(filepath.Join(t.TempDir(), "missing.flac"), "missing", domain.Metadata{}, nil))
	require.NoError(t, g.Shutdown())

	assert.Empty(t, ready)
	assert.Nil(t, g.Peaks())
	assert.Zero(t, repo.saves)
}

func TestGenerator_SongChangeCancels(t *testing.T) {
	defer testutil.VerifyNoLeaks(t)

	g, repo, ready := newTestGenerator(t)
	started := make(chan struct{})
	g.open = func(path string) (beep.StreamSeekCloser, beep.Format, error) {
		if path == "/music/long.flac" {
			close(started)
			tone, err := generators.SineTone(testutil.WAVFormat.SampleRate, 440)
			return endless{tone}, testutil.WAVFormat, err
		}
		return endless{beep.Silence(8000)}, testutil.WAVFormat, nil
	}

	g.SetSong(domain.NewSong("/music/long.flac", "long", domain.Metadata{}, nil))
	<-started
	g.SetSong(domain.NewSong("/music/short.flac", "short", domain.Metadata{}, nil))

	event := waitReady(t, ready)
	assert.Equal(t, "short", event.SongUUID)
	assert.Len(t, event.Peaks, 4)

	require.NoError(t, g.Shutdown())
	assert.Empty(t, ready, "the cancelled song is never published")
	_, err := repo.Load("long")
	assert.ErrorIs(t, err, domain.ErrWaveformNotCached)
}

func TestGenerator_InvalidSong(t *testing.T) {
	defer testutil.VerifyNoLeaks(t)

	g, _, ready := newTestGenerator(t)
	g.SetSong(domain.InvalidSong())
	g.SetSong(nil)
	require.NoError(t, g.Shutdown())

	assert.Empty(t, ready)
	assert.Nil(t, g.Peaks())
}
