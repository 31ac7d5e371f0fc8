package service

import (
	"log/slog"
	"math"
	"sync"

	"github.com/tejashwikalptaru/cadence/internal/domain"
	"github.com/tejashwikalptaru/cadence/internal/ports"
)

const (
	// seekStep is the offset of SeekBackwards and SeekForward, in seconds
	seekStep = 10

	// restartThreshold is the position from which SkipPrevious restarts the
	// current song instead of going back
	restartThreshold = 10
)

// coverClearer is the part of the cover cache the player needs.
type coverClearer interface {
	Clear()
}

// QueueResult reports the outcome of AudioPlayer.QueueSongs.
type QueueResult struct {
	Added    int
	WasEmpty bool
}

// AudioPlayer is the playback state machine. It is the only writer of its
// Queue and PlayerState, drives the media backend, and fans every transition
// out to its controllers.
//
// Direct method calls and actions received from the ActionChannel are
// serialised on one mutex, so each transition completes before the next one
// starts. Controllers are called while that mutex is held.
type AudioPlayer struct {
	// Dependencies (injected)
	logger      *slog.Logger
	backend     ports.MediaBackend
	bus         ports.EventBus
	actions     *ActionChannel
	covers      coverClearer
	controllers []ports.Controller

	// State
	queue *Queue
	state *PlayerState

	// Concurrency control
	mu     sync.Mutex
	closed bool
	loopWg sync.WaitGroup
}

// PlayerOption configures an AudioPlayer.
type PlayerOption func(*AudioPlayer)

// WithControllers registers controllers, in call order.
func WithControllers(controllers ...ports.Controller) PlayerOption {
	return func(p *AudioPlayer) {
		p.controllers = append(p.controllers, controllers...)
	}
}

// WithCoverCache sets the cache that ClearQueue empties.
func WithCoverCache(covers coverClearer) PlayerOption {
	return func(p *AudioPlayer) {
		p.covers = covers
	}
}

// WithQueue replaces the default queue, e.g. to inject a seeded random source.
func WithQueue(queue *Queue) PlayerOption {
	return func(p *AudioPlayer) {
		p.queue = queue
	}
}

// NewAudioPlayer creates a stopped player and starts its action loop.
// The backend's action sender is set to actions.
func NewAudioPlayer(
	logger *slog.Logger,
	backend ports.MediaBackend,
	bus ports.EventBus,
	actions *ActionChannel,
	opts ...PlayerOption,
) *AudioPlayer {
	p := &AudioPlayer{
		logger:  logger.With(slog.String("service", "player")),
		backend: backend,
		bus:     bus,
		actions: actions,
		state:   NewPlayerState(bus),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.queue == nil {
		p.queue = NewQueue(bus)
	}

	backend.SetActionSender(actions)

	p.loopWg.Add(1)
	go p.loop()

	p.logger.Debug("audio player initialized", slog.Int("controllers", len(p.controllers)))
	return p
}

// Queue returns the player's queue. Mutate it only through the player.
func (p *AudioPlayer) Queue() *Queue { return p.queue }

// State returns the observable player state.
func (p *AudioPlayer) State() *PlayerState { return p.state }

// Actions returns the channel the player consumes.
func (p *AudioPlayer) Actions() ports.ActionSender { return p.actions }

func (p *AudioPlayer) loop() {
	defer p.loopWg.Done()

	for {
		select {
		case <-p.actions.Done():
			return
		case action := <-p.actions.Receive():
			p.dispatch(action)
		}
	}
}

func (p *AudioPlayer) dispatch(action domain.PlaybackAction) {
	p.logger.Debug("action received", slog.String("action", action.Name()))

	// these only reach the bus, whose subscribers may want the player
	switch a := action.(type) {
	case domain.RaiseAction:
		p.bus.Publish(domain.NewRaiseRequestedEvent())
		return
	case domain.QuitAction:
		p.bus.Publish(domain.NewQuitRequestedEvent())
		return
	case domain.WarningAction:
		p.logger.Warn("backend warning", slog.String("message", a.Message))
		p.bus.Publish(domain.NewBackendWarningEvent(a.Message))
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return
	}

	switch a := action.(type) {
	case domain.PlayAction:
		p.play()
	case domain.PauseAction:
		p.pause()
	case domain.TogglePlayAction:
		p.togglePlay()
	case domain.StopAction:
		p.setPlaybackState(domain.StateStopped)
	case domain.SkipPreviousAction:
		p.skipPrevious()
	case domain.SkipNextAction:
		p.skipNext()
	case domain.PlayNextAction:
		if current := p.state.CurrentSong(); a.URI != "" && (current == nil || current.URI() != a.URI) {
			p.logger.Debug("stale end of stream ignored", slog.String("uri", a.URI))
			return
		}
		p.skipNext()
	case domain.SkipToAction:
		p.skipTo(a.Position)
	case domain.UpdatePositionAction:
		p.updatePosition(a.Position, a.Notify)
	case domain.VolumeChangedAction:
		p.state.SetVolume(a.Volume)
	case domain.SetVolumeAction:
		if err := p.setVolume(a.Volume); err != nil {
			p.logger.Warn("rejected volume", slog.Float64("volume", a.Volume), slog.Any("error", err))
		}
	case domain.RepeatAction:
		p.setRepeatMode(a.Mode)
	case domain.ShuffleAction:
		p.queue.SetShuffled(a.Shuffled)
	case domain.SeekAction:
		p.seekOffset(a.Offset)
	case domain.SeekToAction:
		p.seekPositionAbs(a.Position)
	default:
		p.logger.Warn("unknown action ignored", slog.String("action", action.Name()))
	}
}

// check logs a failed backend command. Backend failures never change player state.
func (p *AudioPlayer) check(op string, err error) {
	if err != nil {
		p.logger.Warn("backend command failed", slog.String("op", op), slog.Any("error", err))
	}
}

func (p *AudioPlayer) notifySong(song *domain.Song) {
	for _, c := range p.controllers {
		c.SetSong(song)
	}
}

func (p *AudioPlayer) notifyPlaybackState(state domain.PlaybackState) {
	for _, c := range p.controllers {
		c.SetPlaybackState(state)
	}
}

func (p *AudioPlayer) commandBackend(state domain.PlaybackState) {
	switch state {
	case domain.StatePlaying:
		p.check("play", p.backend.Play())
	case domain.StatePaused:
		p.check("pause", p.backend.Pause())
	case domain.StateStopped:
		p.check("stop", p.backend.Stop())
	}
}

// setPlaybackState applies state to the current song. Without a current song
// the queue is advanced first; if it has nothing to offer the player stops.
func (p *AudioPlayer) setPlaybackState(state domain.PlaybackState) {
	if p.state.CurrentSong() == nil {
		next := p.queue.NextSong()
		if next == nil {
			p.unload()
			return
		}

		p.notifySong(next)
		next.SetPlaying(true)
		p.check("set_uri", p.backend.SetURI(next.URI()))
		p.state.SetCurrentSong(next)
	}

	p.state.SetPlaybackState(state)
	p.notifyPlaybackState(state)
	p.commandBackend(state)
}

// unload empties the backend and forces the stopped state without a song.
func (p *AudioPlayer) unload() {
	if current := p.state.CurrentSong(); current != nil {
		current.SetPlaying(false)
	}
	p.check("set_uri", p.backend.SetURI(""))
	p.state.SetCurrentSong(nil)
	p.state.SetPlaybackState(domain.StateStopped)
	p.notifyPlaybackState(domain.StateStopped)
}

// swapSong makes song current without any controller seeing it paired with a
// stale playing state: pause, swap, then resume if it was playing.
func (p *AudioPlayer) swapSong(song *domain.Song) {
	wasPlaying := p.state.Playing()
	if wasPlaying {
		p.setPlaybackState(domain.StatePaused)
	}

	p.notifySong(song)

	p.check("set_uri", p.backend.SetURI(song.URI()))
	p.check("seek", p.backend.SeekTo(0))

	song.SetPlaying(true)
	p.state.SetCurrentSong(song)

	if wasPlaying {
		p.setPlaybackState(domain.StatePlaying)
	}
}

func (p *AudioPlayer) unmarkCurrent() {
	if current := p.state.CurrentSong(); current != nil {
		current.SetPlaying(false)
	}
}

// Play starts or resumes playback. It does nothing while already playing.
func (p *AudioPlayer) Play() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.closed {
		p.play()
	}
}

func (p *AudioPlayer) play() {
	if !p.state.Playing() {
		p.setPlaybackState(domain.StatePlaying)
	}
}

// Pause pauses playback. It does nothing unless playing.
func (p *AudioPlayer) Pause() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.closed {
		p.pause()
	}
}

func (p *AudioPlayer) pause() {
	if p.state.Playing() {
		p.setPlaybackState(domain.StatePaused)
	}
}

// TogglePlay switches between playing and paused. It does nothing on an empty queue.
func (p *AudioPlayer) TogglePlay() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.closed {
		p.togglePlay()
	}
}

func (p *AudioPlayer) togglePlay() {
	if p.queue.IsEmpty() {
		return
	}
	if p.state.Playing() {
		p.setPlaybackState(domain.StatePaused)
	} else {
		p.setPlaybackState(domain.StatePlaying)
	}
}

// Stop stops playback and rewinds the current song.
func (p *AudioPlayer) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.closed {
		p.setPlaybackState(domain.StateStopped)
	}
}

// SkipPrevious restarts the current song once it has played for 10 seconds,
// and otherwise goes back one song. It does nothing on the first song.
func (p *AudioPlayer) SkipPrevious() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.closed {
		p.skipPrevious()
	}
}

func (p *AudioPlayer) skipPrevious() {
	if p.queue.IsEmpty() {
		return
	}

	if p.state.CurrentSong() != nil {
		if p.state.Position() >= restartThreshold {
			p.check("seek", p.backend.SeekTo(0))
			return
		}
		if p.queue.IsFirstSong() {
			return
		}
	}

	prev := p.queue.PreviousSong()
	if prev == nil {
		return
	}

	p.unmarkCurrent()
	p.swapSong(prev)
}

// SkipNext advances the queue according to the repeat mode. At the end of a
// consecutive queue the player unloads and stops; the next Play starts over
// from the first song.
func (p *AudioPlayer) SkipNext() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.closed {
		p.skipNext()
	}
}

func (p *AudioPlayer) skipNext() {
	if p.queue.IsEmpty() {
		return
	}

	next := p.queue.NextSong()
	if next == nil {
		p.logger.Debug("end of queue")
		p.unload()
		return
	}

	p.unmarkCurrent()
	p.swapSong(next)
}

// SkipTo jumps to pos. It does nothing on an empty queue or when pos is
// already current.
func (p *AudioPlayer) SkipTo(pos int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.closed {
		p.skipTo(pos)
	}
}

func (p *AudioPlayer) skipTo(pos int) {
	if p.queue.IsEmpty() {
		return
	}
	if current, ok := p.queue.CurrentPosition(); ok && current == pos {
		return
	}

	song := p.queue.SkipSong(pos)
	if song == nil {
		p.logger.Warn("skip to invalid position", slog.Int("position", pos))
		return
	}

	p.unmarkCurrent()
	p.swapSong(song)
}

func (p *AudioPlayer) updatePosition(position uint64, notify bool) {
	p.state.SetPosition(position)
	for _, c := range p.controllers {
		c.SetPosition(position, notify)
	}
}

func (p *AudioPlayer) seekTo(position uint64) {
	if p.state.CurrentSong() == nil {
		return
	}
	p.check("seek", p.backend.SeekTo(position))
}

// SeekStart seeks to the start of the current song.
func (p *AudioPlayer) SeekStart() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.closed {
		p.seekTo(0)
	}
}

// SeekBackwards seeks 10 seconds back.
func (p *AudioPlayer) SeekBackwards() {
	p.SeekOffset(-seekStep)
}

// SeekForward seeks 10 seconds ahead.
func (p *AudioPlayer) SeekForward() {
	p.SeekOffset(seekStep)
}

// SeekOffset moves the position by offset seconds, clamped to the song.
// Forward seeks are ignored when the duration is unknown.
func (p *AudioPlayer) SeekOffset(offset int64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.closed {
		p.seekOffset(offset)
	}
}

func (p *AudioPlayer) seekOffset(offset int64) {
	position := p.state.Position()
	duration := p.state.Duration()

	if offset < 0 {
		back := uint64(-offset)
		if back > position {
			back = position
		}
		p.seekTo(position - back)
		return
	}

	if duration == 0 {
		return
	}
	p.seekTo(min(position+uint64(offset), duration))
}

// SeekPositionRel seeks to fraction (0.0-1.0) of the current song.
func (p *AudioPlayer) SeekPositionRel(fraction float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed || math.IsNaN(fraction) {
		return
	}

	duration := float64(p.state.Duration())
	p.seekTo(uint64(math.Min(math.Max(duration*fraction, 0), duration)))
}

// SeekPositionAbs seeks to position seconds, clamped to the song duration
// when it is known.
func (p *AudioPlayer) SeekPositionAbs(position uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.closed {
		p.seekPositionAbs(position)
	}
}

func (p *AudioPlayer) seekPositionAbs(position uint64) {
	if duration := p.state.Duration(); duration > 0 {
		position = min(position, duration)
	}
	p.seekTo(position)
}

// SetVolume asks the backend for a new volume in [0, 1]. The player state
// follows once the backend reports the applied value.
func (p *AudioPlayer) SetVolume(volume float64) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return domain.ErrPlayerClosed
	}
	return p.setVolume(volume)
}

func (p *AudioPlayer) setVolume(volume float64) error {
	if math.IsNaN(volume) || volume < 0 || volume > 1 {
		return domain.ErrInvalidVolume
	}
	p.check("set_volume", p.backend.SetVolume(volume))
	return nil
}

// SetReplayGain selects the replay gain mode of the backend.
func (p *AudioPlayer) SetReplayGain(mode domain.ReplayGainMode) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	p.check("set_replay_gain", p.backend.SetReplayGain(mode))
}

// ReplayGainAvailable reports whether the backend can apply replay gain.
func (p *AudioPlayer) ReplayGainAvailable() bool {
	return p.backend.ReplayGainAvailable()
}

// ToggleRepeatMode cycles consecutive, repeat-all and repeat-one, and returns
// the new mode. A closed player keeps and returns its current mode.
func (p *AudioPlayer) ToggleRepeatMode() domain.RepeatMode {
	p.mu.Lock()
	defer p.mu.Unlock()

	mode := p.queue.RepeatMode()
	if p.closed {
		return mode
	}
	mode = mode.Next()
	p.setRepeatMode(mode)
	return mode
}

// SetRepeatMode changes the repeat mode. Setting the current mode does nothing.
func (p *AudioPlayer) SetRepeatMode(mode domain.RepeatMode) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.closed {
		p.setRepeatMode(mode)
	}
}

func (p *AudioPlayer) setRepeatMode(mode domain.RepeatMode) {
	if !p.queue.SetRepeatMode(mode) {
		return
	}
	for _, c := range p.controllers {
		c.SetRepeatMode(mode)
	}
}

// SetShuffled turns queue shuffling on or off.
func (p *AudioPlayer) SetShuffled(shuffled bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.queue.SetShuffled(shuffled)
}

// QueueSongs appends songs, skipping invalid ones. When the queue was empty
// the first new song is loaded, and a single new song also starts playing.
func (p *AudioPlayer) QueueSongs(songs []*domain.Song) QueueResult {
	p.mu.Lock()
	defer p.mu.Unlock()

	wasEmpty := p.queue.IsEmpty()
	added := p.queue.AddSongs(songs)
	p.logger.Debug("songs queued", slog.Int("added", added), slog.Bool("was_empty", wasEmpty))

	if wasEmpty && added > 0 && !p.closed {
		p.skipTo(0)
		if added == 1 {
			p.play()
		}
	}

	return QueueResult{Added: added, WasEmpty: wasEmpty}
}

// RemoveSong removes song from the queue. A playing song is skipped first;
// if the removed song is still current afterwards, the player unloads.
func (p *AudioPlayer) RemoveSong(song *domain.Song) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if song == nil {
		return
	}
	if song.Playing() && !p.closed {
		p.skipNext()
	}

	p.queue.RemoveSong(song)

	if current := p.state.CurrentSong(); p.queue.IsEmpty() || song.Equals(current) {
		p.unload()
	}
}

// ClearQueue stops playback, empties the queue and the cover cache.
func (p *AudioPlayer) ClearQueue() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.closed {
		p.setPlaybackState(domain.StateStopped)
	}
	p.unmarkCurrent()
	p.state.SetCurrentSong(nil)
	p.queue.Clear()

	if p.covers != nil {
		p.covers.Clear()
	}
}

// Shutdown stops the action loop. Later calls are ignored; actions sent
// afterwards are rejected by the channel.
func (p *AudioPlayer) Shutdown() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	p.mu.Unlock()

	p.actions.Close()
	p.loopWg.Wait()

	p.logger.Debug("audio player shut down")
}
