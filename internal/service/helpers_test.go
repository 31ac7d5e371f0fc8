package service

import (
	"fmt"
	"math/rand/v2"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tejashwikalptaru/cadence/internal/adapter/backend/mock"
	"github.com/tejashwikalptaru/cadence/internal/adapter/eventbus"
	"github.com/tejashwikalptaru/cadence/internal/domain"
	"github.com/tejashwikalptaru/cadence/internal/logger"
)

// recordingController records controller calls as strings, in order.
type recordingController struct {
	mu    sync.Mutex
	calls []string
}

func (c *recordingController) add(call string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, call)
}

func (c *recordingController) SetPlaybackState(state domain.PlaybackState) {
	c.add("state:" + state.String())
}

func (c *recordingController) SetSong(song *domain.Song) {
	c.add("song:" + song.Title())
}

func (c *recordingController) SetPosition(position uint64, notify bool) {
	c.add(fmt.Sprintf("position:%d:%t", position, notify))
}

func (c *recordingController) SetRepeatMode(mode domain.RepeatMode) {
	c.add("repeat:" + mode.String())
}

func (c *recordingController) Calls() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.calls...)
}

func (c *recordingController) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = nil
}

// newTestSong creates a valid song titled title with the given duration.
func newTestSong(title string, duration uint64) *domain.Song {
	return domain.NewSong("/music/"+title+".flac", "uuid-"+title, domain.Metadata{
		Title:    title,
		Artist:   "Test Artist",
		Album:    "Test Album",
		Duration: duration,
	}, nil)
}

func newTestSongs(titles ...string) []*domain.Song {
	songs := make([]*domain.Song, len(titles))
	for i, title := range titles {
		songs[i] = newTestSong(title, 180)
	}
	return songs
}

func newTestRand() *rand.Rand {
	return rand.New(rand.NewPCG(1, 2))
}

type testPlayer struct {
	*AudioPlayer
	backend    *mock.Backend
	controller *recordingController
	bus        *eventbus.SyncEventBus
}

// newTestPlayer builds a player on the mock backend with one recording controller.
func newTestPlayer(t *testing.T) *testPlayer {
	t.Helper()

	bus := eventbus.NewSyncEventBus()
	backend := mock.NewBackend()
	controller := &recordingController{}
	actions := NewActionChannel(DefaultActionBuffer)

	player := NewAudioPlayer(
		logger.NewTestLogger(),
		backend,
		bus,
		actions,
		WithControllers(controller),
		WithQueue(NewQueue(bus, WithRand(newTestRand()))),
	)
	t.Cleanup(func() {
		player.Shutdown()
		_ = bus.Close()
	})

	return &testPlayer{AudioPlayer: player, backend: backend, controller: controller, bus: bus}
}

// queueABC queues A(180s), B(200s), C(150s) without starting playback.
func (p *testPlayer) queueABC(t *testing.T) []*domain.Song {
	t.Helper()
	songs := []*domain.Song{
		newTestSong("A", 180),
		newTestSong("B", 200),
		newTestSong("C", 150),
	}
	result := p.QueueSongs(songs)
	require.Equal(t, 3, result.Added)
	require.True(t, result.WasEmpty)
	p.backend.ResetCalls()
	p.controller.Reset()
	return songs
}

// waitForPosition waits until the action loop has applied position.
func (p *testPlayer) waitForPosition(t *testing.T, position uint64) {
	t.Helper()
	require.Eventually(t, func() bool {
		return p.State().Position() == position
	}, time.Second, 5*time.Millisecond)
}
