package metadata

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/dhowden/tag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tejashwikalptaru/cadence/internal/domain"
	"github.com/tejashwikalptaru/cadence/internal/logger"
	"github.com/tejashwikalptaru/cadence/internal/testutil"
)

func TestReader_UntaggedWAV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tone.wav")
	testutil.WriteWAV(t, path, 3*time.Second, 0.5)

	md, err := NewReader(logger.NewTestLogger()).Read(path)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), md.Duration)
	assert.Empty(t, md.Title)
	assert.Nil(t, md.Cover)
	assert.Nil(t, md.TrackGain)
}

func TestReader_Errors(t *testing.T) {
	reader := NewReader(logger.NewTestLogger())
	dir := t.TempDir()

	_, err := reader.Read(filepath.Join(dir, "missing.flac"))
	var mdErr *domain.MetadataError
	require.ErrorAs(t, err, &mdErr)
	assert.ErrorIs(t, err, domain.ErrFileNotFound)

	garbage := filepath.Join(dir, "garbage.mp3")
	require.NoError(t, os.WriteFile(garbage, []byte("definitely not audio"), 0o644))
	_, err = reader.Read(garbage)
	assert.ErrorAs(t, err, &mdErr)
}

func TestPictureType(t *testing.T) {
	assert.Equal(t, domain.PictureFrontCover, pictureType("Cover (front)"))
	assert.Equal(t, domain.PictureOther, pictureType("Other"))
	assert.Equal(t, domain.PictureBandLogo, pictureType("Band/artist logotype"))
	assert.Equal(t, domain.PictureUnknown, pictureType("Cover (back)"))
	assert.Equal(t, domain.PictureUnknown, pictureType(""))
}

func TestReplayGain(t *testing.T) {
	t.Run("vorbis comments", func(t *testing.T) {
		trackGain, albumGain := replayGain(map[string]any{
			"replaygain_track_gain": "-6.48 dB",
			"replaygain_album_gain": "+1.20 dB",
			"title":                 "River",
		})
		require.NotNil(t, trackGain)
		require.NotNil(t, albumGain)
		assert.InDelta(t, -6.48, *trackGain, 1e-9)
		assert.InDelta(t, 1.2, *albumGain, 1e-9)
	})

	t.Run("id3 frames", func(t *testing.T) {
		trackGain, albumGain := replayGain(map[string]any{
			"TXXX":   &tag.Comm{Description: "REPLAYGAIN_TRACK_GAIN", Text: "-2.5 dB"},
			"TXXX_0": &tag.Comm{Description: "MusicBrainz Album Id", Text: "abc"},
		})
		require.NotNil(t, trackGain)
		assert.InDelta(t, -2.5, *trackGain, 1e-9)
		assert.Nil(t, albumGain)
	})

	t.Run("unparsable", func(t *testing.T) {
		trackGain, _ := replayGain(map[string]any{"replaygain_track_gain": "loud"})
		assert.Nil(t, trackGain)
	})
}

func TestParseGain(t *testing.T) {
	for text, want := range map[string]float64{"-6.48 dB": -6.48, "3dB": 3, " 0.5 ": 0.5, "+1.00 db": 1} {
		got, ok := parseGain(text)
		assert.True(t, ok, text)
		assert.InDelta(t, want, got, 1e-9, text)
	}
}
