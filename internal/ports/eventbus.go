// Package ports defines the EventBus interface for event-driven communication.
// The event bus lets observers follow the player without coupling to it.
package ports

import (
	"github.com/tejashwikalptaru/cadence/internal/domain"
)

// EventBus is the interface for publishing and subscribing to events.
//
// The player state, the queue and the loaders publish on it; frontends,
// persistence hooks and some controllers subscribe. Subscribers don't know
// about publishers.
//
// Thread-safety: Implementations must be thread-safe as events may be published and
// subscribed from multiple goroutines simultaneously.
//
// Handlers run while the publisher may hold its own locks. A handler must not call
// back into the publishing component synchronously; everything it needs is in the event.
//
// Example usage:
//
//	subID := bus.Subscribe(domain.EventSongChanged, func(event domain.Event) {
//	    e := event.(domain.SongChangedEvent)
//	    fmt.Println("now playing", e.Song.Title())
//	})
//
//	// Later: Unsubscribe
//	bus.Unsubscribe(subID)
type EventBus interface {
	// Publish publishes an event to all subscribers of that event type.
	// This method must not block for long periods.
	Publish(event domain.Event)

	// Subscribe registers a handler for events of the specified type.
	// Each subscription gets a unique SubscriptionID.
	Subscribe(eventType domain.EventType, handler domain.EventHandler) domain.SubscriptionID

	// Unsubscribe removes a previously registered event handler.
	// If the subscription ID is invalid or already unsubscribed, this is a no-op.
	Unsubscribe(id domain.SubscriptionID)

	// SubscribeAll registers a handler that receives all events regardless of type.
	SubscribeAll(handler domain.EventHandler) domain.SubscriptionID

	// HasSubscribers returns true if there are any active subscriptions for the given event type.
	HasSubscribers(eventType domain.EventType) bool

	// Close shuts down the event bus and cleans up resources.
	Close() error
}
