package inhibit

import (
	"fmt"
	"io"
	"os"

	"github.com/godbus/dbus/v5"

	"github.com/tejashwikalptaru/cadence/internal/domain"
)

const (
	login1Name   = "org.freedesktop.login1"
	login1Path   = dbus.ObjectPath("/org/freedesktop/login1")
	login1Method = "org.freedesktop.login1.Manager.Inhibit"
)

// Login1 takes "sleep:idle" block inhibitions from systemd-logind.
// logind hands back a file descriptor; the inhibition lasts until it is closed.
type Login1 struct {
	conn *dbus.Conn
	app  string
}

// NewLogin1 connects to the system bus.
func NewLogin1(app string) (*Login1, error) {
	conn, err := dbus.ConnectSystemBus()
	if err != nil {
		return nil, fmt.Errorf("%w: connect to system bus: %w", domain.ErrIntegrationUnavailable, err)
	}
	if !conn.SupportsUnixFDs() {
		_ = conn.Close()
		return nil, fmt.Errorf("%w: system bus does not pass file descriptors", domain.ErrIntegrationUnavailable)
	}
	return &Login1{conn: conn, app: app}, nil
}

// Inhibit implements Inhibitor.
func (l *Login1) Inhibit(reason string) (io.Closer, error) {
	var fd dbus.UnixFD
	call := l.conn.Object(login1Name, login1Path).Call(login1Method, 0, "sleep:idle", l.app, reason, "block")
	if err := call.Store(&fd); err != nil {
		return nil, fmt.Errorf("inhibit: %w", err)
	}
	return os.NewFile(uintptr(fd), "login1-inhibit"), nil
}

// Close disconnects from the system bus.
func (l *Login1) Close() error {
	return l.conn.Close()
}
