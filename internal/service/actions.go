package service

import (
	"sync"

	"github.com/tejashwikalptaru/cadence/internal/domain"
	"github.com/tejashwikalptaru/cadence/internal/ports"
)

// DefaultActionBuffer is the action channel capacity used by the app.
const DefaultActionBuffer = 64

// ActionChannel carries playback actions from backends and controllers to the
// player's action loop. Send never blocks once the channel is closed.
type ActionChannel struct {
	ch        chan domain.PlaybackAction
	done      chan struct{}
	closeOnce sync.Once
}

// NewActionChannel creates a channel buffering up to size actions.
func NewActionChannel(size int) *ActionChannel {
	return &ActionChannel{
		ch:   make(chan domain.PlaybackAction, max(size, 0)),
		done: make(chan struct{}),
	}
}

// Send enqueues action. It blocks while the buffer is full and returns false
// if the channel is, or becomes, closed.
func (c *ActionChannel) Send(action domain.PlaybackAction) bool {
	if action == nil {
		return false
	}

	select {
	case <-c.done:
		return false
	default:
	}

	select {
	case c.ch <- action:
		return true
	case <-c.done:
		return false
	}
}

// Receive returns the channel actions are read from. It is never closed;
// select on Done as well.
func (c *ActionChannel) Receive() <-chan domain.PlaybackAction {
	return c.ch
}

// Done is closed when the channel is closed.
func (c *ActionChannel) Done() <-chan struct{} {
	return c.done
}

// Close stops the channel. Pending actions are dropped. Safe to call more than once.
func (c *ActionChannel) Close() {
	c.closeOnce.Do(func() { close(c.done) })
}

var _ ports.ActionSender = (*ActionChannel)(nil)
