// Package notify announces the song that starts playing with a desktop
// notification.
package notify

import (
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/gen2brain/beeep"
	"github.com/sourcegraph/conc"

	"github.com/tejashwikalptaru/cadence/internal/domain"
	"github.com/tejashwikalptaru/cadence/internal/ports"
)

// queueSize bounds the notifications waiting for delivery; more are dropped.
const queueSize = 4

// Notification is a message for the desktop notification daemon.
type Notification struct {
	Title string
	Body  string
	// Icon is the path of an image file, or empty
	Icon string
}

// SendFunc delivers a notification.
type SendFunc func(n Notification) error

// Beeep returns a SendFunc backed by gen2brain/beeep, sending as appName.
func Beeep(appName string) SendFunc {
	beeep.AppName = appName
	return func(n Notification) error {
		return beeep.Notify(n.Title, n.Body, n.Icon)
	}
}

// Controller implements ports.Controller. Each song is announced once when
// it reaches Playing; resuming after a pause is not announced again.
type Controller struct {
	logger  *slog.Logger
	send    SendFunc
	enabled atomic.Bool

	queue chan Notification
	wg    conc.WaitGroup

	mu        sync.Mutex
	song      *domain.Song
	announced string
	closed    bool
}

// New creates the controller and starts the delivery worker.
func New(logger *slog.Logger, send SendFunc) *Controller {
	c := &Controller{
		logger: logger.With(slog.String("controller", "notify")),
		send:   send,
		queue:  make(chan Notification, queueSize),
	}
	c.enabled.Store(true)
	c.wg.Go(c.deliver)
	return c
}

func (c *Controller) deliver() {
	for n := range c.queue {
		if err := c.send(n); err != nil {
			c.logger.Warn("failed to send notification", slog.String("title", n.Title), slog.Any("error", err))
		}
	}
}

// SetEnabled turns announcements on or off.
func (c *Controller) SetEnabled(enabled bool) {
	c.enabled.Store(enabled)
}

// Enabled reports whether announcements are on.
func (c *Controller) Enabled() bool {
	return c.enabled.Load()
}

// SetSong implements ports.Controller.
func (c *Controller) SetSong(song *domain.Song) {
	c.mu.Lock()
	c.song = song
	c.mu.Unlock()
}

// SetPlaybackState implements ports.Controller.
func (c *Controller) SetPlaybackState(state domain.PlaybackState) {
	if state != domain.StatePlaying || !c.enabled.Load() {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed || c.song.IsInvalid() || songKey(c.song) == c.announced {
		return
	}
	c.announced = songKey(c.song)

	select {
	case c.queue <- Build(c.song):
	default:
		c.logger.Debug("notification dropped, queue is full", slog.String("song", c.song.Title()))
	}
}

func (c *Controller) SetPosition(uint64, bool)        {}
func (c *Controller) SetRepeatMode(domain.RepeatMode) {}

func songKey(song *domain.Song) string {
	if song.UUID() != "" {
		return song.UUID()
	}
	return song.Path()
}

// Build returns the notification announcing song.
func Build(song *domain.Song) Notification {
	n := Notification{Title: song.Title(), Body: song.Artist()}
	if song.HasAlbum() {
		n.Body += ", " + song.Album()
	}
	if cover := song.Cover(); cover != nil {
		n.Icon = cover.CachePath
	}
	return n
}

// Shutdown delivers what is queued and stops the worker.
func (c *Controller) Shutdown() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	close(c.queue)
	c.mu.Unlock()

	c.wg.Wait()
	return nil
}

var _ ports.Controller = (*Controller)(nil)
