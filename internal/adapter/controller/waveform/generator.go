// Package waveform computes the peak envelope of the current song for
// waveform displays, caching it per song.
package waveform

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"slices"
	"sync"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/sourcegraph/conc"

	"github.com/tejashwikalptaru/cadence/internal/adapter/decode"
	"github.com/tejashwikalptaru/cadence/internal/domain"
	"github.com/tejashwikalptaru/cadence/internal/ports"
)

// Window is the length of audio summarized by one peak pair.
const Window = 250 * time.Millisecond

// chunkSize is the number of frames read from the decoder at a time.
const chunkSize = 4096

// OpenFunc opens a decoded stream for path.
type OpenFunc func(path string) (beep.StreamSeekCloser, beep.Format, error)

// Generator implements ports.Controller. Setting a song cancels any running
// generation, then loads the song's peaks from the cache or decodes the file
// in the background. Results are published as domain.WaveformReadyEvent.
type Generator struct {
	logger *slog.Logger
	repo   ports.WaveformRepository
	bus    ports.EventBus
	open   OpenFunc

	mu         sync.Mutex
	song       *domain.Song
	peaks      [][2]float64
	cancel     context.CancelFunc
	generation uint64
	closed     bool

	wg conc.WaitGroup
}

// NewGenerator creates a generator. repo and bus may be nil.
func NewGenerator(logger *slog.Logger, repo ports.WaveformRepository, bus ports.EventBus) *Generator {
	return &Generator{
		logger: logger.With(slog.String("controller", "waveform")),
		repo:   repo,
		bus:    bus,
		open:   decode.Open,
	}
}

// SetSong implements ports.Controller.
func (g *Generator) SetSong(song *domain.Song) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.closed {
		return
	}
	if g.cancel != nil {
		g.cancel()
		g.cancel = nil
	}
	g.generation++
	g.song = song
	g.peaks = nil

	if song.IsInvalid() {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	g.cancel = cancel
	generation := g.generation
	g.wg.Go(func() {
		defer cancel()
		g.load(ctx, generation, song)
	})
}

func (g *Generator) SetPlaybackState(domain.PlaybackState) {}
func (g *Generator) SetPosition(uint64, bool)              {}
func (g *Generator) SetRepeatMode(domain.RepeatMode)       {}

// Peaks returns the peaks of the current song, or nil while they are not ready.
func (g *Generator) Peaks() [][2]float64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return slices.Clone(g.peaks)
}

func (g *Generator) load(ctx context.Context, generation uint64, song *domain.Song) {
	cacheable := g.repo != nil && song.UUID() != ""

	if cacheable {
		peaks, err := g.repo.Load(song.UUID())
		if err == nil {
			g.publish(generation, song, peaks)
			return
		}
		if !errors.Is(err, domain.ErrWaveformNotCached) {
			g.logger.Warn("failed to read cached waveform", slog.String("song", song.UUID()), slog.Any("error", err))
		}
	}

	start := time.Now()
	peaks, err := g.generate(ctx, song.Path())
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			g.logger.Warn("failed to generate waveform", slog.String("path", song.Path()), slog.Any("error", err))
		}
		return
	}
	g.logger.Debug("waveform generated",
		slog.String("path", song.Path()),
		slog.Int("peaks", len(peaks)),
		slog.Duration("elapsed", time.Since(start)))

	if cacheable {
		if err := g.repo.Save(song.UUID(), peaks); err != nil {
			g.logger.Warn("failed to cache waveform", slog.String("song", song.UUID()), slog.Any("error", err))
		}
	}
	g.publish(generation, song, peaks)
}

func (g *Generator) generate(ctx context.Context, path string) ([][2]float64, error) {
	stream, format, err := g.open(path)
	if err != nil {
		return nil, err
	}
	defer stream.Close()

	return ComputePeaks(ctx, stream, format.SampleRate.N(Window))
}

// publish stores peaks unless another song was set meanwhile.
func (g *Generator) publish(generation uint64, song *domain.Song, peaks [][2]float64) {
	g.mu.Lock()
	if generation != g.generation || g.closed {
		g.mu.Unlock()
		return
	}
	g.peaks = peaks
	g.mu.Unlock()

	if g.bus != nil {
		g.bus.Publish(domain.NewWaveformReadyEvent(song.UUID(), slices.Clone(peaks)))
	}
}

// ComputePeaks reads stream to the end and returns, for every window of
// frames, the largest absolute sample of each channel, clamped to 1.
// The last window may be shorter.
func ComputePeaks(ctx context.Context, stream beep.Streamer, window int) ([][2]float64, error) {
	if window <= 0 {
		window = 1
	}

	var (
		peaks   [][2]float64
		current [2]float64
		filled  int
		buf     = make([][2]float64, chunkSize)
	)
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		n, ok := stream.Stream(buf)
		for _, frame := range buf[:n] {
			current[0] = max(current[0], math.Abs(frame[0]))
			current[1] = max(current[1], math.Abs(frame[1]))
			filled++
			if filled == window {
				peaks = append(peaks, clamp(current))
				current, filled = [2]float64{}, 0
			}
		}
		if !ok {
			break
		}
	}
	if err := stream.Err(); err != nil {
		return nil, err
	}
	if filled > 0 {
		peaks = append(peaks, clamp(current))
	}
	return peaks, nil
}

func clamp(peak [2]float64) [2]float64 {
	return [2]float64{min(peak[0], 1), min(peak[1], 1)}
}

// Shutdown cancels any running generation and waits for it to stop.
func (g *Generator) Shutdown() error {
	g.mu.Lock()
	g.closed = true
	if g.cancel != nil {
		g.cancel()
		g.cancel = nil
	}
	g.mu.Unlock()

	g.wg.Wait()
	return nil
}

var _ ports.Controller = (*Generator)(nil)
