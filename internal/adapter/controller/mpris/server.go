package mpris

import (
	"fmt"
	"log/slog"

	"github.com/godbus/dbus/v5"
	"github.com/godbus/dbus/v5/introspect"
	"github.com/godbus/dbus/v5/prop"

	"github.com/tejashwikalptaru/cadence/internal/domain"
	"github.com/tejashwikalptaru/cadence/internal/ports"
)

const (
	busNamePrefix   = "org.mpris.MediaPlayer2."
	objectPath      = dbus.ObjectPath("/org/mpris/MediaPlayer2")
	rootInterface   = "org.mpris.MediaPlayer2"
	playerInterface = "org.mpris.MediaPlayer2.Player"
)

// Config describes how the player presents itself on the bus.
type Config struct {
	// Name is appended to org.mpris.MediaPlayer2. to form the bus name
	Name string

	// Identity is the human readable player name
	Identity string

	// DesktopEntry is the basename of the .desktop file, without extension
	DesktopEntry string
}

// SupportedMimeTypes lists the formats the player can open through OpenUri.
var SupportedMimeTypes = []string{
	"audio/mpeg",
	"audio/flac",
	"audio/x-flac",
	"audio/wav",
	"audio/x-wav",
	"audio/ogg",
	"audio/vorbis",
}

// New connects to the session bus, claims the player's MPRIS name and
// exports the MediaPlayer2 and Player interfaces. Any failure is reported
// as domain.ErrIntegrationUnavailable.
func New(logger *slog.Logger, cfg Config, sender ports.ActionSender, bus ports.EventBus) (*Controller, error) {
	c := newController(logger, sender, bus)
	c.cfg = cfg

	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return nil, fmt.Errorf("%w: connect to session bus: %w", domain.ErrIntegrationUnavailable, err)
	}

	props, err := c.export(conn)
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("%w: %w", domain.ErrIntegrationUnavailable, err)
	}

	c.conn = conn
	c.start(props, func(name string, values ...interface{}) error {
		return conn.Emit(objectPath, playerInterface+"."+name, values...)
	})

	c.logger.Info("MPRIS service registered", slog.String("name", c.busName()))
	return c, nil
}

func (c *Controller) busName() string {
	return busNamePrefix + c.cfg.Name
}

func (c *Controller) export(conn *dbus.Conn) (*prop.Properties, error) {
	reply, err := conn.RequestName(c.busName(), dbus.NameFlagDoNotQueue)
	if err != nil {
		return nil, fmt.Errorf("request name %s: %w", c.busName(), err)
	}
	if reply != dbus.RequestNameReplyPrimaryOwner {
		return nil, fmt.Errorf("name %s already taken", c.busName())
	}

	mediaPlayer := &root{c: c}
	player := &player{c: c}

	if err := conn.Export(mediaPlayer, objectPath, rootInterface); err != nil {
		return nil, fmt.Errorf("export %s: %w", rootInterface, err)
	}
	if err := conn.Export(player, objectPath, playerInterface); err != nil {
		return nil, fmt.Errorf("export %s: %w", playerInterface, err)
	}

	props, err := prop.Export(conn, objectPath, c.propertySpec())
	if err != nil {
		return nil, fmt.Errorf("export properties: %w", err)
	}

	node := &introspect.Node{
		Name: string(objectPath),
		Interfaces: []introspect.Interface{
			introspect.IntrospectData,
			prop.IntrospectData,
			{
				Name:       rootInterface,
				Methods:    introspect.Methods(mediaPlayer),
				Properties: props.Introspection(rootInterface),
			},
			{
				Name:       playerInterface,
				Methods:    introspect.Methods(player),
				Properties: props.Introspection(playerInterface),
				Signals: []introspect.Signal{{
					Name: "Seeked",
					Args: []introspect.Arg{{Name: "Position", Type: "x"}},
				}},
			},
		},
	}
	if err := conn.Export(introspect.NewIntrospectable(node), objectPath, "org.freedesktop.DBus.Introspectable"); err != nil {
		return nil, fmt.Errorf("export introspection: %w", err)
	}
	return props, nil
}

func (c *Controller) propertySpec() prop.Map {
	readOnly := func(v interface{}) *prop.Prop {
		return &prop.Prop{Value: v, Writable: false, Emit: prop.EmitTrue}
	}

	return prop.Map{
		rootInterface: {
			"CanQuit":             readOnly(true),
			"CanRaise":            readOnly(true),
			"HasTrackList":        readOnly(false),
			"Identity":            readOnly(c.cfg.Identity),
			"DesktopEntry":        readOnly(c.cfg.DesktopEntry),
			"SupportedUriSchemes": readOnly([]string{"file"}),
			"SupportedMimeTypes":  readOnly(SupportedMimeTypes),
		},
		playerInterface: {
			"PlaybackStatus": readOnly(statusStopped),
			"LoopStatus":     {Value: loopNone, Writable: true, Emit: prop.EmitTrue, Callback: c.onLoopStatus},
			"Rate":           {Value: 1.0, Writable: true, Emit: prop.EmitTrue, Callback: c.onRate},
			"Shuffle":        {Value: false, Writable: true, Emit: prop.EmitTrue, Callback: c.onShuffle},
			"Metadata":       readOnly(Metadata(nil)),
			"Volume":         {Value: 1.0, Writable: true, Emit: prop.EmitTrue, Callback: c.onVolume},
			"Position":       {Value: int64(0), Writable: false, Emit: prop.EmitFalse},
			"MinimumRate":    readOnly(1.0),
			"MaximumRate":    readOnly(1.0),
			"CanGoNext":      readOnly(true),
			"CanGoPrevious":  readOnly(true),
			"CanPlay":        readOnly(false),
			"CanPause":       readOnly(true),
			"CanSeek":        readOnly(true),
			"CanControl":     readOnly(true),
		},
	}
}

func (c *Controller) onLoopStatus(change *prop.Change) *dbus.Error {
	status, _ := change.Value.(string)
	mode, ok := ParseLoopStatus(status)
	if !ok {
		return prop.ErrInvalidArg
	}
	return c.send(domain.RepeatAction{Mode: mode})
}

func (c *Controller) onShuffle(change *prop.Change) *dbus.Error {
	shuffled, ok := change.Value.(bool)
	if !ok {
		return prop.ErrInvalidArg
	}
	return c.send(domain.ShuffleAction{Shuffled: shuffled})
}

func (c *Controller) onVolume(change *prop.Change) *dbus.Error {
	volume, ok := change.Value.(float64)
	if !ok {
		return prop.ErrInvalidArg
	}
	return c.send(domain.SetVolumeAction{Volume: min(max(volume, 0), 1)})
}

// onRate accepts only the normal rate; playback speed is fixed.
func (c *Controller) onRate(change *prop.Change) *dbus.Error {
	if rate, ok := change.Value.(float64); !ok || rate != 1.0 {
		return prop.ErrInvalidArg
	}
	return nil
}

// root implements the org.mpris.MediaPlayer2 methods.
type root struct {
	c *Controller
}

func (r *root) Raise() *dbus.Error { return r.c.send(domain.RaiseAction{}) }
func (r *root) Quit() *dbus.Error  { return r.c.send(domain.QuitAction{}) }

// player implements the org.mpris.MediaPlayer2.Player methods.
type player struct {
	c *Controller
}

func (p *player) Next() *dbus.Error      { return p.c.send(domain.SkipNextAction{}) }
func (p *player) Previous() *dbus.Error  { return p.c.send(domain.SkipPreviousAction{}) }
func (p *player) Pause() *dbus.Error     { return p.c.send(domain.PauseAction{}) }
func (p *player) PlayPause() *dbus.Error { return p.c.send(domain.TogglePlayAction{}) }
func (p *player) Stop() *dbus.Error      { return p.c.send(domain.StopAction{}) }
func (p *player) Play() *dbus.Error      { return p.c.send(domain.PlayAction{}) }

// Seek moves by offset microseconds.
func (p *player) Seek(offset int64) *dbus.Error {
	seconds := toSeconds(offset)
	if seconds == 0 {
		return nil
	}
	return p.c.send(domain.SeekAction{Offset: seconds})
}

// SetPosition is ignored unless trackID names the current song.
func (p *player) SetPosition(trackID dbus.ObjectPath, position int64) *dbus.Error {
	song := p.c.currentSong()
	if song == nil || trackID != TrackID(song) || position < 0 {
		return nil
	}
	seconds := uint64(toSeconds(position))
	if seconds > song.Duration() {
		return nil
	}
	return p.c.send(domain.SeekToAction{Position: seconds})
}

// OpenUri hands the location to the application, which owns loading.
func (p *player) OpenUri(uri string) *dbus.Error {
	if p.c.bus == nil {
		return dbus.MakeFailedError(domain.ErrIntegrationUnavailable)
	}
	p.c.bus.Publish(domain.NewOpenRequestedEvent(uri))
	return nil
}
