package testutil

import (
	"os"
	"testing"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/effects"
	"github.com/gopxl/beep/v2/generators"
	"github.com/gopxl/beep/v2/wav"
	"github.com/stretchr/testify/require"
)

// WAVFormat is the format of files written by WriteWAV.
var WAVFormat = beep.Format{SampleRate: 8000, NumChannels: 2, Precision: 2}

// WriteWAV writes a 440 Hz sine tone of the given length and amplitude
// (0 to 1) to path.
func WriteWAV(t *testing.T, path string, length time.Duration, amplitude float64) {
	t.Helper()

	tone, err := generators.SineTone(WAVFormat.SampleRate, 440)
	require.NoError(t, err)

	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	scaled := &effects.Gain{Streamer: tone, Gain: amplitude - 1}
	require.NoError(t, wav.Encode(f, beep.Take(WAVFormat.SampleRate.N(length), scaled), WAVFormat))
}
