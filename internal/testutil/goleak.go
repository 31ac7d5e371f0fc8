// Package testutil provides testing utilities for the Cadence player.
package testutil

import (
	"testing"

	"go.uber.org/goleak"
)

// VerifyNoLeaks should be deferred at the start of tests that spawn goroutines.
// It verifies that no goroutines were leaked during the test.
func VerifyNoLeaks(t *testing.T, opts ...goleak.Option) {
	t.Helper()
	goleak.VerifyNone(t, append(opts, IgnoreRuntimeGoroutines()...)...)
}

// IgnoreRuntimeGoroutines returns goleak options for long-lived goroutines
// started by libraries on first use, which are not owned by any test.
func IgnoreRuntimeGoroutines() []goleak.Option {
	return []goleak.Option{
		// fsnotify keeps its reader alive until Close returns
		goleak.IgnoreAnyFunction("github.com/fsnotify/fsnotify.(*inotify).readEvents"),
		// godbus runs one reader per connection
		goleak.IgnoreAnyFunction("github.com/godbus/dbus/v5.(*Conn).inWorker"),
		goleak.IgnoreAnyFunction("github.com/godbus/dbus/v5.(*outputHandler).sendAndIfClosed"),
	}
}
