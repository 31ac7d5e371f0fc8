package testutil

import (
	"slices"
	"sync"

	"github.com/tejashwikalptaru/cadence/internal/domain"
)

// ActionRecorder is a ports.ActionSender that keeps every action it receives.
type ActionRecorder struct {
	mu      sync.Mutex
	actions []domain.PlaybackAction
	closed  bool
}

// Send implements ports.ActionSender.
func (r *ActionRecorder) Send(action domain.PlaybackAction) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return false
	}
	r.actions = append(r.actions, action)
	return true
}

// Close makes further sends fail, like a shut down player.
func (r *ActionRecorder) Close() {
	r.mu.Lock()
	r.closed = true
	r.mu.Unlock()
}

// Actions returns a copy of the recorded actions.
func (r *ActionRecorder) Actions() []domain.PlaybackAction {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.actions)
}

// Last returns the most recent action, or nil.
func (r *ActionRecorder) Last() domain.PlaybackAction {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.actions) == 0 {
		return nil
	}
	return r.actions[len(r.actions)-1]
}

// Reset forgets the recorded actions.
func (r *ActionRecorder) Reset() {
	r.mu.Lock()
	r.actions = nil
	r.mu.Unlock()
}
