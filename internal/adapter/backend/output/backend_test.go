package output

import (
	"math"
	"testing"

	"github.com/gopxl/beep/v2/effects"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tejashwikalptaru/cadence/internal/domain"
	"github.com/tejashwikalptaru/cadence/internal/logger"
	"github.com/tejashwikalptaru/cadence/internal/testutil"
)

// newTestBackend builds a backend without opening the speaker. Nothing runs
// the reporting goroutine; tests call deliver themselves.
func newTestBackend() (*Backend, *testutil.ActionRecorder) {
	b := &Backend{
		logger: logger.NewTestLogger(),
		events: make(chan backendEvent, eventBuffer),
		quit:   make(chan struct{}),
	}
	sender := &testutil.ActionRecorder{}
	b.SetActionSender(sender)
	return b, sender
}

func TestURIToPath(t *testing.T) {
	path, err := uriToPath("file:///music/My%20Song.flac")
	require.NoError(t, err)
	assert.Equal(t, "/music/My Song.flac", path)

	path, err = uriToPath("/music/plain.mp3")
	require.NoError(t, err)
	assert.Equal(t, "/music/plain.mp3", path)

	song := domain.NewSong("/music/a b#c.ogg", "", domain.Metadata{}, nil)
	path, err = uriToPath(song.URI())
	require.NoError(t, err)
	assert.Equal(t, "/music/a b#c.ogg", path, "song URIs round trip")

	_, err = uriToPath("https://example.com/stream.mp3")
	assert.Error(t, err)
}

func TestSelectGain(t *testing.T) {
	track, album := -6.5, -3.0

	tests := []struct {
		name         string
		mode         domain.ReplayGainMode
		track, album *float64
		want         float64
	}{
		{"track", domain.ReplayGainTrack, &track, &album, -6.5},
		{"album", domain.ReplayGainAlbum, &track, &album, -3.0},
		{"off", domain.ReplayGainOff, &track, &album, 0},
		{"track falls back to album", domain.ReplayGainTrack, nil, &album, -3.0},
		{"album falls back to track", domain.ReplayGainAlbum, &track, nil, -6.5},
		{"no tags", domain.ReplayGainTrack, nil, nil, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, selectGain(tt.mode, tt.track, tt.album), 1e-9)
		})
	}
}

func TestGainFactor(t *testing.T) {
	assert.InDelta(t, 0, gainFactor(0), 1e-9)
	assert.InDelta(t, 1, gainFactor(20*math.Log10(2)), 1e-9, "+6.02 dB doubles")
	assert.InDelta(t, -0.5, gainFactor(20*math.Log10(0.5)), 1e-9)
}

func TestApplyVolume(t *testing.T) {
	v := &effects.Volume{Base: 2}

	applyVolume(v, 1)
	assert.False(t, v.Silent)
	assert.InDelta(t, 0, v.Volume, 1e-9)

	applyVolume(v, 0.5)
	assert.InDelta(t, 0.125, math.Pow(2, v.Volume), 1e-9, "cubic scale")

	applyVolume(v, 0)
	assert.True(t, v.Silent)
}

func TestBackend_EndOfStreamAfterSkipIsDropped(t *testing.T) {
	b, sender := newTestBackend()

	first := &track{uri: "file:///music/a.flac"}
	b.current = first
	b.endOfStream(first)()

	// a skip loads the next song before the event is delivered
	second := &track{uri: "file:///music/b.flac"}
	b.current = second
	b.deliver(<-b.events)
	assert.Empty(t, sender.Actions())

	b.endOfStream(second)()
	b.deliver(<-b.events)
	assert.Equal(t, []domain.PlaybackAction{
		domain.PlayNextAction{URI: "file:///music/b.flac"},
	}, sender.Actions())
}

func TestBackend_UntrackedEventsAlwaysDelivered(t *testing.T) {
	b, sender := newTestBackend()

	b.emit(domain.WarningAction{Message: "Unable to play /music/a.flac"})
	b.deliver(<-b.events)
	assert.Equal(t, domain.WarningAction{Message: "Unable to play /music/a.flac"}, sender.Last())

	// the events buffer never blocks the speaker callback
	for range eventBuffer + 1 {
		b.emit(domain.UpdatePositionAction{Position: 1})
	}
	assert.Len(t, b.events, eventBuffer)
}
