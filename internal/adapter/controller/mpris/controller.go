// Package mpris exposes the player on the session bus as an MPRIS
// MediaPlayer2 service, so desktop media keys and applets can drive it.
package mpris

import (
	"log/slog"
	"sync"

	"github.com/godbus/dbus/v5"

	"github.com/tejashwikalptaru/cadence/internal/domain"
	"github.com/tejashwikalptaru/cadence/internal/ports"
)

// updateBuffer bounds the property updates waiting for the D-Bus worker.
const updateBuffer = 64

// propertySetter is the part of prop.Properties the controller writes to.
type propertySetter interface {
	SetMust(iface, property string, v interface{})
}

// signalEmitter emits a signal on the Player interface.
type signalEmitter func(name string, values ...interface{}) error

// Controller implements ports.Controller for MPRIS.
//
// Player callbacks only queue property updates; a worker goroutine applies
// them so that D-Bus writes never run under the player's lock. Method calls
// from D-Bus clients are translated into actions on the ActionSender.
type Controller struct {
	logger *slog.Logger
	cfg    Config
	sender ports.ActionSender
	bus    ports.EventBus

	props propertySetter
	emit  signalEmitter
	conn  *dbus.Conn

	mu     sync.Mutex
	song   *domain.Song
	closed bool
	subs   []domain.SubscriptionID

	updates chan func()
	wg      sync.WaitGroup
}

func newController(logger *slog.Logger, sender ports.ActionSender, bus ports.EventBus) *Controller {
	return &Controller{
		logger:  logger.With(slog.String("controller", "mpris")),
		sender:  sender,
		bus:     bus,
		updates: make(chan func(), updateBuffer),
	}
}

// start attaches the property sink and begins following the bus.
func (c *Controller) start(props propertySetter, emit signalEmitter) {
	c.props = props
	c.emit = emit

	c.wg.Add(1)
	go c.run()

	if c.bus == nil {
		return
	}
	c.subs = append(c.subs,
		c.bus.Subscribe(domain.EventVolumeChanged, func(event domain.Event) {
			e := event.(domain.VolumeChangedEvent)
			c.enqueue(func() { c.props.SetMust(playerInterface, "Volume", e.New) })
		}),
		c.bus.Subscribe(domain.EventShuffleChanged, func(event domain.Event) {
			e := event.(domain.ShuffleChangedEvent)
			c.enqueue(func() { c.props.SetMust(playerInterface, "Shuffle", e.Shuffled) })
		}),
	)
}

func (c *Controller) run() {
	defer c.wg.Done()
	for update := range c.updates {
		update()
	}
}

func (c *Controller) enqueue(update func()) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	select {
	case c.updates <- update:
	default:
		c.logger.Warn("property update dropped, worker is behind")
	}
}

// SetPlaybackState implements ports.Controller.
func (c *Controller) SetPlaybackState(state domain.PlaybackState) {
	status := PlaybackStatus(state)
	c.enqueue(func() {
		c.props.SetMust(playerInterface, "CanPlay", true)
		c.props.SetMust(playerInterface, "PlaybackStatus", status)
	})
}

// SetSong implements ports.Controller.
func (c *Controller) SetSong(song *domain.Song) {
	c.mu.Lock()
	c.song = song
	c.mu.Unlock()

	md := Metadata(song)
	c.enqueue(func() {
		c.props.SetMust(playerInterface, "Metadata", md)
	})
}

// SetPosition implements ports.Controller. Seeks are announced with the
// Seeked signal; ticks only update the Position property.
func (c *Controller) SetPosition(position uint64, notify bool) {
	us := toMicroseconds(position)
	c.enqueue(func() {
		c.props.SetMust(playerInterface, "Position", us)
		if !notify {
			return
		}
		if err := c.emit("Seeked", us); err != nil {
			c.logger.Warn("failed to emit Seeked", slog.Any("error", err))
		}
	})
}

// SetRepeatMode implements ports.Controller.
func (c *Controller) SetRepeatMode(mode domain.RepeatMode) {
	status := LoopStatus(mode)
	c.enqueue(func() {
		c.props.SetMust(playerInterface, "LoopStatus", status)
	})
}

func (c *Controller) currentSong() *domain.Song {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.song
}

func (c *Controller) send(action domain.PlaybackAction) *dbus.Error {
	if !c.sender.Send(action) {
		c.logger.Warn("player is closed, dropping request", slog.String("action", action.Name()))
		return dbus.MakeFailedError(domain.ErrPlayerClosed)
	}
	return nil
}

// Shutdown stops following the bus, drains pending updates and releases
// the bus name.
func (c *Controller) Shutdown() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	close(c.updates)
	c.mu.Unlock()

	if c.bus != nil {
		for _, id := range c.subs {
			c.bus.Unsubscribe(id)
		}
	}
	c.wg.Wait()

	if c.conn == nil {
		return nil
	}
	if _, err := c.conn.ReleaseName(c.busName()); err != nil {
		c.logger.Debug("failed to release bus name", slog.Any("error", err))
	}
	return c.conn.Close()
}

var _ ports.Controller = (*Controller)(nil)
