// Package inhibit keeps the system awake while music is playing.
package inhibit

import (
	"io"
	"log/slog"
	"sync"

	"github.com/tejashwikalptaru/cadence/internal/domain"
	"github.com/tejashwikalptaru/cadence/internal/ports"
)

// Reason is shown by the session manager next to the inhibition.
const Reason = "Playback in progress"

// Inhibitor takes an inhibition. Closing the returned handle releases it.
type Inhibitor interface {
	Inhibit(reason string) (io.Closer, error)
}

// Controller implements ports.Controller. It holds an inhibition while the
// player is playing and releases it in any other state.
//
// The player calls in with its lock held, so the D-Bus round trips happen on
// a worker goroutine. Only the latest requested state matters.
type Controller struct {
	logger    *slog.Logger
	inhibitor Inhibitor

	wanted chan bool
	quit   chan struct{}
	wg     sync.WaitGroup

	mu     sync.Mutex
	handle io.Closer
	once   sync.Once
}

// New creates the controller and starts its worker.
func New(logger *slog.Logger, inhibitor Inhibitor) *Controller {
	c := &Controller{
		logger:    logger.With(slog.String("controller", "inhibit")),
		inhibitor: inhibitor,
		wanted:    make(chan bool, 1),
		quit:      make(chan struct{}),
	}
	c.wg.Add(1)
	go c.run()
	return c
}

func (c *Controller) run() {
	defer c.wg.Done()
	for {
		select {
		case <-c.quit:
			c.apply(false)
			return
		case inhibit := <-c.wanted:
			c.apply(inhibit)
		}
	}
}

func (c *Controller) apply(inhibit bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch {
	case inhibit && c.handle == nil:
		handle, err := c.inhibitor.Inhibit(Reason)
		if err != nil {
			c.logger.Warn("failed to inhibit suspend", slog.Any("error", err))
			return
		}
		c.handle = handle
		c.logger.Debug("suspend inhibited")

	case !inhibit && c.handle != nil:
		if err := c.handle.Close(); err != nil {
			c.logger.Warn("failed to release inhibition", slog.Any("error", err))
		}
		c.handle = nil
		c.logger.Debug("suspend uninhibited")
	}
}

// Inhibited reports whether an inhibition is currently held.
func (c *Controller) Inhibited() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.handle != nil
}

// SetPlaybackState implements ports.Controller.
func (c *Controller) SetPlaybackState(state domain.PlaybackState) {
	inhibit := state == domain.StatePlaying
	for {
		select {
		case c.wanted <- inhibit:
			return
		default:
		}
		// replace the stale request nobody has picked up yet
		select {
		case <-c.wanted:
		default:
		}
	}
}

func (c *Controller) SetSong(*domain.Song)            {}
func (c *Controller) SetPosition(uint64, bool)        {}
func (c *Controller) SetRepeatMode(domain.RepeatMode) {}

// Shutdown releases any held inhibition and stops the worker.
func (c *Controller) Shutdown() error {
	c.once.Do(func() {
		close(c.quit)
		c.wg.Wait()
	})
	return nil
}

var _ ports.Controller = (*Controller)(nil)
