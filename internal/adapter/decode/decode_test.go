package decode

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tejashwikalptaru/cadence/internal/domain"
	"github.com/tejashwikalptaru/cadence/internal/testutil"
)

func TestOpen_WAV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tone.wav")
	testutil.WriteWAV(t, path, 2*time.Second, 0.5)

	stream, format, err := Open(path)
	require.NoError(t, err)
	defer stream.Close()

	assert.Equal(t, beep.SampleRate(8000), format.SampleRate)
	assert.Equal(t, 16000, stream.Len())
}

func TestDuration(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tone.wav")
	testutil.WriteWAV(t, path, 3*time.Second, 0.5)

	d, err := Duration(path)
	require.NoError(t, err)
	assert.Equal(t, 3*time.Second, d)
}

func TestOpen_Errors(t *testing.T) {
	dir := t.TempDir()

	_, _, err := Open(filepath.Join(dir, "missing.mp3"))
	assert.ErrorIs(t, err, domain.ErrFileNotFound)

	txt := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(txt, []byte("hello"), 0o644))
	_, _, err = Open(txt)
	assert.ErrorIs(t, err, domain.ErrUnsupportedFormat)

	bad := filepath.Join(dir, "bad.wav")
	require.NoError(t, os.WriteFile(bad, []byte("not a wav file"), 0o644))
	_, _, err = Open(bad)
	assert.Error(t, err)
}
