// Package eventbus provides implementations of the EventBus interface.
package eventbus

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/tejashwikalptaru/cadence/internal/domain"
	"github.com/tejashwikalptaru/cadence/internal/ports"
)

// ErrClosed is returned by Close when the bus was already closed.
var ErrClosed = errors.New("event bus already closed")

// SyncEventBus is a synchronous implementation of the EventBus interface.
// Handlers run on the publishing goroutine, in subscription order, with
// type-specific handlers before wildcard ones.
//
// Thread-safety: This implementation is thread-safe. Handlers may subscribe or
// unsubscribe from inside a handler; the change applies to the next Publish.
type SyncEventBus struct {
	logger *slog.Logger

	mu     sync.RWMutex
	subs   []subscription
	nextID uint64
	closed bool
}

type subscription struct {
	id domain.SubscriptionID

	// eventType is empty for wildcard subscriptions
	eventType domain.EventType
	handler   domain.EventHandler
}

func (s subscription) matches(eventType domain.EventType) bool {
	return s.eventType == "" || s.eventType == eventType
}

// NewSyncEventBus creates a new synchronous event bus.
func NewSyncEventBus() *SyncEventBus {
	return &SyncEventBus{}
}

// SetLogger sets the logger used to report handler panics.
func (bus *SyncEventBus) SetLogger(logger *slog.Logger) {
	bus.mu.Lock()
	defer bus.mu.Unlock()
	bus.logger = logger
}

// Publish delivers event to every matching subscriber. Panics in handlers are
// recovered and logged and do not stop delivery to the remaining handlers.
func (bus *SyncEventBus) Publish(event domain.Event) {
	if event == nil {
		return
	}

	bus.mu.RLock()
	if bus.closed {
		bus.mu.RUnlock()
		return
	}
	eventType := event.Type()
	typed := make([]subscription, 0, len(bus.subs))
	var wildcard []subscription
	for _, sub := range bus.subs {
		switch {
		case sub.eventType == eventType:
			typed = append(typed, sub)
		case sub.eventType == "":
			wildcard = append(wildcard, sub)
		}
	}
	logger := bus.logger
	bus.mu.RUnlock()

	for _, sub := range append(typed, wildcard...) {
		bus.callHandler(logger, sub, event)
	}
}

func (bus *SyncEventBus) callHandler(logger *slog.Logger, sub subscription, event domain.Event) {
	defer func() {
		if r := recover(); r != nil && logger != nil {
			logger.Error("event handler panicked",
				slog.Any("panic", r),
				slog.String("subscription", string(sub.id)),
				slog.String("event_type", string(event.Type())))
		}
	}()
	sub.handler(event)
}

// Subscribe registers a handler for events of the specified type.
func (bus *SyncEventBus) Subscribe(eventType domain.EventType, handler domain.EventHandler) domain.SubscriptionID {
	if eventType == "" {
		panic("event type cannot be empty, use SubscribeAll")
	}
	return bus.add(eventType, handler, "sub")
}

// SubscribeAll registers a handler that receives all events regardless of type.
func (bus *SyncEventBus) SubscribeAll(handler domain.EventHandler) domain.SubscriptionID {
	return bus.add("", handler, "sub-all")
}

func (bus *SyncEventBus) add(eventType domain.EventType, handler domain.EventHandler, prefix string) domain.SubscriptionID {
	if handler == nil {
		panic("event handler cannot be nil")
	}

	bus.mu.Lock()
	defer bus.mu.Unlock()

	if bus.closed {
		return ""
	}

	bus.nextID++
	id := domain.SubscriptionID(fmt.Sprintf("%s-%d", prefix, bus.nextID))
	bus.subs = append(bus.subs, subscription{id: id, eventType: eventType, handler: handler})
	return id
}

// Unsubscribe removes a previously registered handler, keeping the order of the others.
func (bus *SyncEventBus) Unsubscribe(id domain.SubscriptionID) {
	bus.mu.Lock()
	defer bus.mu.Unlock()

	bus.subs = slices.DeleteFunc(bus.subs, func(s subscription) bool { return s.id == id })
}

// HasSubscribers returns true if a Publish of eventType would reach any handler.
func (bus *SyncEventBus) HasSubscribers(eventType domain.EventType) bool {
	bus.mu.RLock()
	defer bus.mu.RUnlock()

	return slices.ContainsFunc(bus.subs, func(s subscription) bool { return s.matches(eventType) })
}

// SubscriberCount returns the number of active subscriptions.
func (bus *SyncEventBus) SubscriberCount() int {
	bus.mu.RLock()
	defer bus.mu.RUnlock()
	return len(bus.subs)
}

// Close drops all subscriptions. Later publishes are ignored and later
// subscriptions return an empty ID.
func (bus *SyncEventBus) Close() error {
	bus.mu.Lock()
	defer bus.mu.Unlock()

	if bus.closed {
		return ErrClosed
	}
	bus.closed = true
	bus.subs = nil
	return nil
}

// Verify that SyncEventBus implements the EventBus interface
var _ ports.EventBus = (*SyncEventBus)(nil)
