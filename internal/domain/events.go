// Package domain defines events for the event-driven architecture.
// Events let observers follow the player without holding references into it.
package domain

import (
	"time"
)

// Event is the base interface for all events in the system.
// All events must implement this interface to be published via the event bus.
type Event interface {
	// Type returns the event type identifier
	Type() EventType

	// Timestamp returns when the event occurred
	Timestamp() time.Time
}

// EventType is a string identifier for different event types.
type EventType string

// Event type constants define all possible events in the system.
const (
	// Player state events
	EventPlaybackStateChanged EventType = "playback.state_changed"
	EventSongChanged          EventType = "song.changed"
	EventPositionChanged      EventType = "position.changed"
	EventVolumeChanged        EventType = "volume.changed"

	// Queue events
	EventQueueChanged       EventType = "queue.changed"
	EventCurrentSongChanged EventType = "queue.current_changed"
	EventRepeatModeChanged  EventType = "repeat.changed"
	EventShuffleChanged     EventType = "shuffle.changed"

	// Batch loading events
	EventLoadStarted   EventType = "load.started"
	EventLoadProgress  EventType = "load.progress"
	EventLoadCompleted EventType = "load.completed"
	EventLoadCancelled EventType = "load.cancelled"

	// Integration events
	EventWaveformReady   EventType = "waveform.ready"
	EventBackendWarning  EventType = "backend.warning"
	EventRaiseRequested  EventType = "app.raise_requested"
	EventQuitRequested   EventType = "app.quit_requested"
	EventOpenRequested   EventType = "app.open_requested"
	EventSettingsChanged EventType = "settings.changed"
)

// EventHandler is a function that handles events.
type EventHandler func(event Event)

// SubscriptionID uniquely identifies an event subscription.
type SubscriptionID string

// baseEvent provides common event functionality.
// All concrete events should embed this struct.
type baseEvent struct {
	timestamp time.Time
}

// Timestamp returns when the event occurred.
func (e baseEvent) Timestamp() time.Time {
	return e.timestamp
}

func newBaseEvent() baseEvent {
	return baseEvent{timestamp: time.Now()}
}

// PlaybackStateChangedEvent is published when the player state actually changes.
type PlaybackStateChangedEvent struct {
	baseEvent
	Old PlaybackState
	New PlaybackState
}

// Type implements Event.
func (e PlaybackStateChangedEvent) Type() EventType { return EventPlaybackStateChanged }

// NewPlaybackStateChangedEvent creates a new PlaybackStateChangedEvent.
func NewPlaybackStateChangedEvent(old, state PlaybackState) PlaybackStateChangedEvent {
	return PlaybackStateChangedEvent{baseEvent: newBaseEvent(), Old: old, New: state}
}

// SongChangedEvent is published every time the current song is set,
// including when it is set to the same song again. Song is nil when
// nothing is loaded.
type SongChangedEvent struct {
	baseEvent
	Song *Song
}

// Type implements Event.
func (e SongChangedEvent) Type() EventType { return EventSongChanged }

// NewSongChangedEvent creates a new SongChangedEvent.
func NewSongChangedEvent(song *Song) SongChangedEvent {
	return SongChangedEvent{baseEvent: newBaseEvent(), Song: song}
}

// PositionChangedEvent carries the playback position in seconds.
type PositionChangedEvent struct {
	baseEvent
	Position uint64
}

// Type implements Event.
func (e PositionChangedEvent) Type() EventType { return EventPositionChanged }

// NewPositionChangedEvent creates a new PositionChangedEvent.
func NewPositionChangedEvent(position uint64) PositionChangedEvent {
	return PositionChangedEvent{baseEvent: newBaseEvent(), Position: position}
}

// VolumeChangedEvent is published when the volume changes at two-decimal precision.
type VolumeChangedEvent struct {
	baseEvent
	Old float64
	New float64
}

// Type implements Event.
func (e VolumeChangedEvent) Type() EventType { return EventVolumeChanged }

// NewVolumeChangedEvent creates a new VolumeChangedEvent.
func NewVolumeChangedEvent(old, volume float64) VolumeChangedEvent {
	return VolumeChangedEvent{baseEvent: newBaseEvent(), Old: old, New: volume}
}

// QueueChangedEvent is published when songs are added to or removed from the queue.
type QueueChangedEvent struct {
	baseEvent
	Count int
}

// Type implements Event.
func (e QueueChangedEvent) Type() EventType { return EventQueueChanged }

// NewQueueChangedEvent creates a new QueueChangedEvent.
func NewQueueChangedEvent(count int) QueueChangedEvent {
	return QueueChangedEvent{baseEvent: newBaseEvent(), Count: count}
}

// CurrentSongChangedEvent is published when the queue's current position moves.
// Position is -1 and Song is nil when the queue has no current song.
type CurrentSongChangedEvent struct {
	baseEvent
	Position int
	Song     *Song
}

// Type implements Event.
func (e CurrentSongChangedEvent) Type() EventType { return EventCurrentSongChanged }

// NewCurrentSongChangedEvent creates a new CurrentSongChangedEvent.
func NewCurrentSongChangedEvent(position int, song *Song) CurrentSongChangedEvent {
	return CurrentSongChangedEvent{baseEvent: newBaseEvent(), Position: position, Song: song}
}

// RepeatModeChangedEvent is published when the repeat mode changes.
type RepeatModeChangedEvent struct {
	baseEvent
	Old RepeatMode
	New RepeatMode
}

// Type implements Event.
func (e RepeatModeChangedEvent) Type() EventType { return EventRepeatModeChanged }

// NewRepeatModeChangedEvent creates a new RepeatModeChangedEvent.
func NewRepeatModeChangedEvent(old, mode RepeatMode) RepeatModeChangedEvent {
	return RepeatModeChangedEvent{baseEvent: newBaseEvent(), Old: old, New: mode}
}

// ShuffleChangedEvent is published when shuffle is toggled.
type ShuffleChangedEvent struct {
	baseEvent
	Shuffled bool
}

// Type implements Event.
func (e ShuffleChangedEvent) Type() EventType { return EventShuffleChanged }

// NewShuffleChangedEvent creates a new ShuffleChangedEvent.
func NewShuffleChangedEvent(shuffled bool) ShuffleChangedEvent {
	return ShuffleChangedEvent{baseEvent: newBaseEvent(), Shuffled: shuffled}
}

// LoadStartedEvent is published when a batch load begins.
type LoadStartedEvent struct {
	baseEvent
	Total int
}

// Type implements Event.
func (e LoadStartedEvent) Type() EventType { return EventLoadStarted }

// NewLoadStartedEvent creates a new LoadStartedEvent.
func NewLoadStartedEvent(total int) LoadStartedEvent {
	return LoadStartedEvent{baseEvent: newBaseEvent(), Total: total}
}

// LoadProgressEvent is published once per file of a batch load.
type LoadProgressEvent struct {
	baseEvent
	Progress LoadProgress
}

// Type implements Event.
func (e LoadProgressEvent) Type() EventType { return EventLoadProgress }

// NewLoadProgressEvent creates a new LoadProgressEvent.
func NewLoadProgressEvent(progress LoadProgress) LoadProgressEvent {
	return LoadProgressEvent{baseEvent: newBaseEvent(), Progress: progress}
}

// LoadCompletedEvent is published when a batch load finishes.
type LoadCompletedEvent struct {
	baseEvent
	Loaded  int
	Failed  int
	Elapsed time.Duration
}

// Type implements Event.
func (e LoadCompletedEvent) Type() EventType { return EventLoadCompleted }

// NewLoadCompletedEvent creates a new LoadCompletedEvent.
func NewLoadCompletedEvent(loaded, failed int, elapsed time.Duration) LoadCompletedEvent {
	return LoadCompletedEvent{baseEvent: newBaseEvent(), Loaded: loaded, Failed: failed, Elapsed: elapsed}
}

// LoadCancelledEvent is published when a batch load is canceled.
type LoadCancelledEvent struct {
	baseEvent
	Progress LoadProgress
}

// Type implements Event.
func (e LoadCancelledEvent) Type() EventType { return EventLoadCancelled }

// NewLoadCancelledEvent creates a new LoadCancelledEvent.
func NewLoadCancelledEvent(progress LoadProgress) LoadCancelledEvent {
	return LoadCancelledEvent{baseEvent: newBaseEvent(), Progress: progress}
}

// WaveformReadyEvent is published when the peaks of a song are available.
type WaveformReadyEvent struct {
	baseEvent
	SongUUID string
	Peaks    [][2]float64
}

// Type implements Event.
func (e WaveformReadyEvent) Type() EventType { return EventWaveformReady }

// NewWaveformReadyEvent creates a new WaveformReadyEvent.
func NewWaveformReadyEvent(songUUID string, peaks [][2]float64) WaveformReadyEvent {
	return WaveformReadyEvent{baseEvent: newBaseEvent(), SongUUID: songUUID, Peaks: peaks}
}

// BackendWarningEvent carries a non-fatal media backend problem.
type BackendWarningEvent struct {
	baseEvent
	Message string
}

// Type implements Event.
func (e BackendWarningEvent) Type() EventType { return EventBackendWarning }

// NewBackendWarningEvent creates a new BackendWarningEvent.
func NewBackendWarningEvent(message string) BackendWarningEvent {
	return BackendWarningEvent{baseEvent: newBaseEvent(), Message: message}
}

// RaiseRequestedEvent asks the frontend to present itself.
type RaiseRequestedEvent struct {
	baseEvent
}

// Type implements Event.
func (e RaiseRequestedEvent) Type() EventType { return EventRaiseRequested }

// NewRaiseRequestedEvent creates a new RaiseRequestedEvent.
func NewRaiseRequestedEvent() RaiseRequestedEvent {
	return RaiseRequestedEvent{baseEvent: newBaseEvent()}
}

// QuitRequestedEvent asks the application to exit.
type QuitRequestedEvent struct {
	baseEvent
}

// Type implements Event.
func (e QuitRequestedEvent) Type() EventType { return EventQuitRequested }

// NewQuitRequestedEvent creates a new QuitRequestedEvent.
func NewQuitRequestedEvent() QuitRequestedEvent {
	return QuitRequestedEvent{baseEvent: newBaseEvent()}
}

// OpenRequestedEvent asks the application to queue a location.
type OpenRequestedEvent struct {
	baseEvent
	URI string
}

// Type implements Event.
func (e OpenRequestedEvent) Type() EventType { return EventOpenRequested }

// NewOpenRequestedEvent creates a new OpenRequestedEvent.
func NewOpenRequestedEvent(uri string) OpenRequestedEvent {
	return OpenRequestedEvent{baseEvent: newBaseEvent(), URI: uri}
}

// SettingsChangedEvent is published after settings are saved or reloaded.
type SettingsChangedEvent struct {
	baseEvent
	Settings Settings
}

// Type implements Event.
func (e SettingsChangedEvent) Type() EventType { return EventSettingsChanged }

// NewSettingsChangedEvent creates a new SettingsChangedEvent.
func NewSettingsChangedEvent(settings Settings) SettingsChangedEvent {
	return SettingsChangedEvent{baseEvent: newBaseEvent(), Settings: settings}
}
