// Package mock provides a mock implementation of the MediaBackend interface.
// It is used for testing the player and for running without an audio device.
package mock

import (
	"fmt"
	"log/slog"
	"math"
	"sync"

	"github.com/tejashwikalptaru/cadence/internal/domain"
	"github.com/tejashwikalptaru/cadence/internal/ports"
)

// Backend is a mock MediaBackend that records every command as a string
// ("set_uri:<uri>", "play", "pause", "stop", "seek:<s>", "volume:<v>",
// "replay_gain:<mode>") and reports back through the action sender the way a
// real backend would.
//
// Thread-safety: This implementation is thread-safe. Actions are sent while no
// backend lock is held.
type Backend struct {
	logger *slog.Logger

	mu         sync.Mutex
	sender     ports.ActionSender
	calls      []string
	uri        string
	state      domain.PlaybackState
	position   uint64
	volume     float64
	replayGain domain.ReplayGainMode
	shutdown   bool

	// Behavior configuration (for testing error scenarios)
	failures  map[string]error
	echoSeeks bool
	noGain    bool
}

// NewBackend creates a mock backend at full volume.
func NewBackend() *Backend {
	return &Backend{
		logger:     slog.New(slog.DiscardHandler),
		volume:     1.0,
		replayGain: domain.ReplayGainTrack,
		failures:   make(map[string]error),
	}
}

// SetLogger sets the logger for this backend.
func (b *Backend) SetLogger(logger *slog.Logger) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.logger = logger
}

// SetFailure makes the command op ("set_uri", "play", "pause", "stop",
// "seek", "volume", "replay_gain") return err. A nil err clears the failure.
func (b *Backend) SetFailure(op string, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err == nil {
		delete(b.failures, op)
		return
	}
	b.failures[op] = err
}

// SetEchoSeeks makes SeekTo report the new position with notify set, as a
// real backend does once a seek completes.
func (b *Backend) SetEchoSeeks(echo bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.echoSeeks = echo
}

// SetReplayGainAvailable changes what ReplayGainAvailable reports.
func (b *Backend) SetReplayGainAvailable(available bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.noGain = !available
}

// SetActionSender implements ports.MediaBackend.
func (b *Backend) SetActionSender(sender ports.ActionSender) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sender = sender
}

// record appends a call and returns the configured failure for op.
// Must be called with b.mu held.
func (b *Backend) record(op, call string) error {
	b.calls = append(b.calls, call)
	if err, ok := b.failures[op]; ok {
		return domain.NewBackendError(op, b.uri, "mock failure", err)
	}
	return nil
}

func (b *Backend) send(action domain.PlaybackAction) {
	b.mu.Lock()
	sender := b.sender
	b.mu.Unlock()

	if sender != nil {
		sender.Send(action)
	}
}

// SetURI implements ports.MediaBackend.
func (b *Backend) SetURI(uri string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.record("set_uri", "set_uri:"+uri); err != nil {
		return err
	}
	b.uri = uri
	b.position = 0
	b.state = domain.StatePaused
	if uri == "" {
		b.state = domain.StateStopped
	}
	return nil
}

// Play implements ports.MediaBackend.
func (b *Backend) Play() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.record("play", "play"); err != nil {
		return err
	}
	if b.uri == "" {
		return domain.NewBackendError("play", "", "no song loaded", nil)
	}
	b.state = domain.StatePlaying
	return nil
}

// Pause implements ports.MediaBackend.
func (b *Backend) Pause() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.record("pause", "pause"); err != nil {
		return err
	}
	b.state = domain.StatePaused
	return nil
}

// Stop implements ports.MediaBackend.
func (b *Backend) Stop() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.record("stop", "stop"); err != nil {
		return err
	}
	b.state = domain.StateStopped
	b.position = 0
	return nil
}

// SeekTo implements ports.MediaBackend.
func (b *Backend) SeekTo(position uint64) error {
	b.mu.Lock()
	if err := b.record("seek", fmt.Sprintf("seek:%d", position)); err != nil {
		b.mu.Unlock()
		return err
	}
	b.position = position
	echo := b.echoSeeks
	b.mu.Unlock()

	if echo {
		b.send(domain.UpdatePositionAction{Position: position, Notify: true})
	}
	return nil
}

// SetVolume implements ports.MediaBackend. The applied volume is reported
// back with a VolumeChangedAction.
func (b *Backend) SetVolume(volume float64) error {
	b.mu.Lock()
	if err := b.record("volume", fmt.Sprintf("volume:%.2f", volume)); err != nil {
		b.mu.Unlock()
		return err
	}
	b.volume = math.Min(math.Max(volume, 0), 1)
	applied := b.volume
	b.mu.Unlock()

	b.send(domain.VolumeChangedAction{Volume: applied})
	return nil
}

// SetReplayGain implements ports.MediaBackend.
func (b *Backend) SetReplayGain(mode domain.ReplayGainMode) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.record("replay_gain", "replay_gain:"+mode.String()); err != nil {
		return err
	}
	b.replayGain = mode
	return nil
}

// ReplayGainAvailable implements ports.MediaBackend.
func (b *Backend) ReplayGainAvailable() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return !b.noGain
}

// Shutdown implements ports.MediaBackend.
func (b *Backend) Shutdown() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.shutdown = true
	b.state = domain.StateStopped
	b.logger.Debug("mock backend shut down")
	return nil
}

// SimulatePosition reports a periodic position tick.
func (b *Backend) SimulatePosition(position uint64) {
	b.mu.Lock()
	b.position = position
	b.mu.Unlock()

	b.send(domain.UpdatePositionAction{Position: position})
}

// SimulateEndOfStream reports that the loaded song finished.
func (b *Backend) SimulateEndOfStream() {
	b.mu.Lock()
	uri := b.uri
	b.mu.Unlock()

	b.send(domain.PlayNextAction{URI: uri})
}

// SimulateWarning reports a non-fatal problem.
func (b *Backend) SimulateWarning(message string) {
	b.send(domain.WarningAction{Message: message})
}

// Calls returns a copy of the recorded commands.
func (b *Backend) Calls() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.calls...)
}

// ResetCalls forgets the recorded commands.
func (b *Backend) ResetCalls() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls = nil
}

// URI returns the loaded URI.
func (b *Backend) URI() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.uri
}

// State returns the simulated output state.
func (b *Backend) State() domain.PlaybackState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Volume returns the applied volume.
func (b *Backend) Volume() float64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.volume
}

// ReplayGain returns the selected replay gain mode.
func (b *Backend) ReplayGain() domain.ReplayGainMode {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.replayGain
}

// IsShutdown reports whether Shutdown was called.
func (b *Backend) IsShutdown() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.shutdown
}

// Verify that Backend implements the MediaBackend interface
var _ ports.MediaBackend = (*Backend)(nil)
