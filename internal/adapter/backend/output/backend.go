// Package output provides the beep implementation of the MediaBackend interface.
//
// One song is loaded at a time. Its stream is wrapped as
//
//	decoder -> resampler -> ctrl (pause) -> gain (replay gain) -> volume
//
// and handed to the speaker followed by an end-of-stream callback.
package output

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net/url"
	"sync"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/effects"
	"github.com/gopxl/beep/v2/speaker"

	"github.com/tejashwikalptaru/cadence/internal/adapter/decode"
	"github.com/tejashwikalptaru/cadence/internal/domain"
	"github.com/tejashwikalptaru/cadence/internal/ports"
)

const (
	// DefaultSampleRate is the speaker rate used when none is configured.
	DefaultSampleRate = 44100

	tickInterval    = 250 * time.Millisecond
	resampleQuality = 4
	eventBuffer     = 32
)

// ErrNotLoaded matches backend errors for commands sent before SetURI.
var ErrNotLoaded = errors.New("no song loaded")

// track is the loaded song and its effect chain.
type track struct {
	uri    string
	stream beep.StreamSeekCloser
	format beep.Format
	ctrl   *beep.Ctrl
	gain   *effects.Gain
	volume *effects.Volume

	trackGain *float64
	albumGain *float64
}

// Backend plays songs on the default audio device through beep's speaker.
//
// Lock order is b.mu, then the speaker lock. The end-of-stream callback runs
// on the speaker goroutine with the speaker lock held and only touches
// b.events. Its action is dropped if another song was loaded meanwhile.
type Backend struct {
	logger     *slog.Logger
	tags       ports.MetadataReader
	sampleRate beep.SampleRate

	mu         sync.Mutex
	sender     ports.ActionSender
	current    *track
	playing    bool
	volume     float64
	replayGain domain.ReplayGainMode
	closed     bool

	events chan backendEvent
	quit   chan struct{}
	wg     sync.WaitGroup
}

// backendEvent is an action waiting for the reporting goroutine. An action
// with a track is only delivered while that track is still loaded.
type backendEvent struct {
	action domain.PlaybackAction
	track  *track
}

// NewBackend initializes the speaker at sampleRate and starts the reporting
// goroutine. tags, when not nil, supplies ReplayGain values for loaded songs.
func NewBackend(logger *slog.Logger, tags ports.MetadataReader, sampleRate int) (*Backend, error) {
	if sampleRate <= 0 {
		sampleRate = DefaultSampleRate
	}
	sr := beep.SampleRate(sampleRate)

	if err := speaker.Init(sr, sr.N(time.Second/10)); err != nil {
		return nil, domain.NewBackendError("init", "", "cannot open audio device", err)
	}

	b := &Backend{
		logger:     logger.With(slog.String("component", "output")),
		tags:       tags,
		sampleRate: sr,
		volume:     1.0,
		replayGain: domain.ReplayGainTrack,
		events:     make(chan backendEvent, eventBuffer),
		quit:       make(chan struct{}),
	}

	b.wg.Add(1)
	go b.run()

	b.logger.Info("audio output initialized", slog.Int("sample_rate", sampleRate))
	return b, nil
}

// run forwards queued events and reports the position while playing.
// It is the only goroutine that calls the action sender.
func (b *Backend) run() {
	defer b.wg.Done()

	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-b.quit:
			return
		case event := <-b.events:
			b.deliver(event)
		case <-ticker.C:
			if position, ok := b.tickPosition(); ok {
				b.deliver(backendEvent{action: domain.UpdatePositionAction{Position: position}})
			}
		}
	}
}

func (b *Backend) deliver(event backendEvent) {
	b.mu.Lock()
	sender := b.sender
	stale := event.track != nil && event.track != b.current
	b.mu.Unlock()

	if stale {
		b.logger.Debug("dropping event of unloaded song",
			slog.String("action", event.action.Name()),
			slog.String("uri", event.track.uri))
		return
	}
	if sender != nil {
		sender.Send(event.action)
	}
}

// emit queues an action for the reporting goroutine without blocking.
func (b *Backend) emit(action domain.PlaybackAction) {
	b.enqueue(backendEvent{action: action})
}

func (b *Backend) enqueue(event backendEvent) {
	select {
	case b.events <- event:
	default:
		b.logger.Warn("dropping backend event", slog.String("action", event.action.Name()))
	}
}

// endOfStream returns the speaker callback that reports t has finished.
func (b *Backend) endOfStream(t *track) func() {
	return func() {
		b.enqueue(backendEvent{action: domain.PlayNextAction{URI: t.uri}, track: t})
	}
}

func (b *Backend) tickPosition() (uint64, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.playing || b.current == nil {
		return 0, false
	}
	return b.position(b.current), true
}

// position returns the position of t in whole seconds. Must be called with b.mu held.
func (b *Backend) position(t *track) uint64 {
	speaker.Lock()
	samples := t.stream.Position()
	speaker.Unlock()
	return uint64(t.format.SampleRate.D(samples) / time.Second)
}

// SetActionSender implements ports.MediaBackend.
func (b *Backend) SetActionSender(sender ports.ActionSender) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sender = sender
}

// uriToPath accepts file URIs and plain paths.
func uriToPath(uri string) (string, error) {
	u, err := url.Parse(uri)
	if err != nil {
		return "", err
	}
	switch u.Scheme {
	case "":
		return uri, nil
	case "file":
		return u.Path, nil
	default:
		return "", fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
}

// SetURI implements ports.MediaBackend. The previous song is released first.
func (b *Backend) SetURI(uri string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return domain.NewBackendError("set_uri", uri, "backend is shut down", nil)
	}

	b.release()
	if uri == "" {
		return nil
	}

	path, err := uriToPath(uri)
	if err != nil {
		return domain.NewBackendError("set_uri", uri, "invalid location", err)
	}

	stream, format, err := decode.Open(path)
	if err != nil {
		b.emit(domain.WarningAction{Message: fmt.Sprintf("Unable to play %s", path)})
		return domain.NewBackendError("set_uri", uri, "cannot decode file", err)
	}

	t := &track{uri: uri, stream: stream, format: format}
	if b.tags != nil {
		if md, err := b.tags.Read(path); err == nil {
			t.trackGain, t.albumGain = md.TrackGain, md.AlbumGain
		}
	}

	var resampled beep.Streamer = stream
	if format.SampleRate != b.sampleRate {
		resampled = beep.Resample(resampleQuality, format.SampleRate, b.sampleRate, stream)
	}
	t.ctrl = &beep.Ctrl{Streamer: resampled, Paused: true}
	t.gain = &effects.Gain{Streamer: t.ctrl, Gain: gainFactor(selectGain(b.replayGain, t.trackGain, t.albumGain))}
	t.volume = &effects.Volume{Streamer: t.gain, Base: 2}
	applyVolume(t.volume, b.volume)

	b.current = t
	speaker.Play(beep.Seq(t.volume, beep.Callback(b.endOfStream(t))))

	b.logger.Debug("song loaded",
		slog.String("path", path),
		slog.Int("sample_rate", int(format.SampleRate)),
		slog.Duration("length", format.SampleRate.D(stream.Len())))
	return nil
}

// release stops output and closes the loaded stream. Must be called with b.mu held.
func (b *Backend) release() {
	b.playing = false
	if b.current == nil {
		return
	}

	speaker.Clear()
	if err := b.current.stream.Close(); err != nil {
		b.logger.Debug("closing stream failed", slog.Any("error", err))
	}
	b.current = nil
}

func (b *Backend) loaded(op string) (*track, error) {
	if b.current == nil {
		return nil, domain.NewBackendError(op, "", "no song loaded", ErrNotLoaded)
	}
	return b.current, nil
}

// Play implements ports.MediaBackend.
func (b *Backend) Play() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	t, err := b.loaded("play")
	if err != nil {
		return err
	}
	speaker.Lock()
	t.ctrl.Paused = false
	speaker.Unlock()
	b.playing = true
	return nil
}

// Pause implements ports.MediaBackend.
func (b *Backend) Pause() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	t, err := b.loaded("pause")
	if err != nil {
		return err
	}
	speaker.Lock()
	t.ctrl.Paused = true
	speaker.Unlock()
	b.playing = false
	return nil
}

// Stop implements ports.MediaBackend. Stopping without a song is a no-op.
func (b *Backend) Stop() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.playing = false
	if b.current == nil {
		return nil
	}

	t := b.current
	speaker.Lock()
	t.ctrl.Paused = true
	err := t.stream.Seek(0)
	speaker.Unlock()
	if err != nil {
		return domain.NewBackendError("stop", t.uri, "cannot rewind", err)
	}
	return nil
}

// SeekTo implements ports.MediaBackend. The new position is reported with
// notify set once the stream has moved.
func (b *Backend) SeekTo(position uint64) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	t, err := b.loaded("seek")
	if err != nil {
		return err
	}

	sample := t.format.SampleRate.N(time.Duration(position) * time.Second)
	speaker.Lock()
	sample = min(sample, max(t.stream.Len()-1, 0))
	err = t.stream.Seek(sample)
	speaker.Unlock()
	if err != nil {
		return domain.NewBackendError("seek", t.uri, "seek failed", err)
	}

	b.emit(domain.UpdatePositionAction{Position: b.position(t), Notify: true})
	return nil
}

// SetVolume implements ports.MediaBackend. volume is on a cubic scale.
func (b *Backend) SetVolume(volume float64) error {
	if volume < 0 || volume > 1 || math.IsNaN(volume) {
		return domain.NewBackendError("volume", "", "volume out of range", domain.ErrInvalidVolume)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.volume = volume
	if b.current != nil {
		speaker.Lock()
		applyVolume(b.current.volume, volume)
		speaker.Unlock()
	}

	b.emit(domain.VolumeChangedAction{Volume: volume})
	return nil
}

// SetReplayGain implements ports.MediaBackend.
func (b *Backend) SetReplayGain(mode domain.ReplayGainMode) error {
	if _, err := domain.ReplayGainModeFromInt(int(mode)); err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.replayGain = mode
	if t := b.current; t != nil {
		speaker.Lock()
		t.gain.Gain = gainFactor(selectGain(mode, t.trackGain, t.albumGain))
		speaker.Unlock()
	}
	return nil
}

// ReplayGainAvailable implements ports.MediaBackend.
func (b *Backend) ReplayGainAvailable() bool {
	return b.tags != nil
}

// Shutdown implements ports.MediaBackend.
func (b *Backend) Shutdown() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	b.release()
	b.mu.Unlock()

	close(b.quit)
	b.wg.Wait()

	speaker.Close()
	b.logger.Debug("audio output shut down")
	return nil
}

// applyVolume sets v to the linear amplitude volume^3. Must be called with
// the speaker lock held.
func applyVolume(v *effects.Volume, volume float64) {
	v.Silent = volume <= 0
	if !v.Silent {
		v.Volume = 3 * math.Log2(volume)
	}
}

// selectGain picks the gain in dB for mode, falling back to the other tag
// when the preferred one is missing.
func selectGain(mode domain.ReplayGainMode, trackGain, albumGain *float64) float64 {
	first, second := trackGain, albumGain
	switch mode {
	case domain.ReplayGainOff:
		return 0
	case domain.ReplayGainAlbum:
		first, second = albumGain, trackGain
	}
	if first != nil {
		return *first
	}
	if second != nil {
		return *second
	}
	return 0
}

// gainFactor converts dB into the offset effects.Gain multiplies by.
func gainFactor(db float64) float64 {
	return math.Pow(10, db/20) - 1
}

var _ ports.MediaBackend = (*Backend)(nil)
