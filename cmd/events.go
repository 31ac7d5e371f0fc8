package main

import (
	"fmt"
	"io"
	"sync"

	"github.com/tejashwikalptaru/cadence/internal/domain"
	"github.com/tejashwikalptaru/cadence/internal/ports"
)

// eventPrinter writes what the player is doing to the terminal.
type eventPrinter struct {
	out  io.Writer
	bus  ports.EventBus
	mu   sync.Mutex
	subs []domain.SubscriptionID
}

func newEventPrinter(out io.Writer, bus ports.EventBus) *eventPrinter {
	p := &eventPrinter{out: out, bus: bus}
	p.subs = []domain.SubscriptionID{
		bus.Subscribe(domain.EventSongChanged, p.songChanged),
		bus.Subscribe(domain.EventPlaybackStateChanged, p.stateChanged),
		bus.Subscribe(domain.EventBackendWarning, p.warning),
		bus.Subscribe(domain.EventLoadCompleted, p.loadCompleted),
		bus.Subscribe(domain.EventLoadCancelled, p.loadCancelled),
	}
	return p
}

func (p *eventPrinter) printf(format string, args ...any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintf(p.out, format, args...)
}

func (p *eventPrinter) songChanged(event domain.Event) {
	song := event.(domain.SongChangedEvent).Song
	if song == nil {
		return
	}
	p.printf("%s\n", describe(song))
}

func (p *eventPrinter) stateChanged(event domain.Event) {
	e := event.(domain.PlaybackStateChangedEvent)
	if e.New == domain.StatePaused || e.Old == domain.StatePaused {
		p.printf("[%s]\n", e.New)
	}
}

func (p *eventPrinter) warning(event domain.Event) {
	p.printf("warning: %s\n", event.(domain.BackendWarningEvent).Message)
}

func (p *eventPrinter) loadCompleted(event domain.Event) {
	e := event.(domain.LoadCompletedEvent)
	if e.Failed > 0 {
		p.printf("%d files could not be loaded\n", e.Failed)
	}
}

func (p *eventPrinter) loadCancelled(domain.Event) {
	p.printf("loading cancelled\n")
}

func (p *eventPrinter) Close() {
	for _, id := range p.subs {
		p.bus.Unsubscribe(id)
	}
}

func describe(song *domain.Song) string {
	line := fmt.Sprintf("%s - %s", song.Artist(), song.Title())
	if song.HasAlbum() {
		line += fmt.Sprintf(" (%s)", song.Album())
	}
	return fmt.Sprintf("%s [%s]", line, domain.FormatTime(song.Duration()))
}
