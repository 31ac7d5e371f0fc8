// Package decode opens audio files as beep streams.
package decode

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/flac"
	"github.com/gopxl/beep/v2/mp3"
	"github.com/gopxl/beep/v2/vorbis"
	"github.com/gopxl/beep/v2/wav"

	"github.com/tejashwikalptaru/cadence/internal/domain"
)

// Open decodes the file at path, choosing the decoder by extension.
// Closing the returned stream closes the file.
func Open(path string) (beep.StreamSeekCloser, beep.Format, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, beep.Format{}, fmt.Errorf("%w: %s", domain.ErrFileNotFound, path)
		}
		return nil, beep.Format{}, err
	}

	var (
		stream beep.StreamSeekCloser
		format beep.Format
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".mp3":
		stream, format, err = mp3.Decode(f)
	case ".flac":
		stream, format, err = flac.Decode(f)
	case ".wav":
		stream, format, err = wav.Decode(f)
	case ".ogg", ".oga":
		stream, format, err = vorbis.Decode(f)
	default:
		_ = f.Close()
		return nil, beep.Format{}, fmt.Errorf("%w: %s", domain.ErrUnsupportedFormat, path)
	}
	if err != nil {
		_ = f.Close()
		return nil, beep.Format{}, fmt.Errorf("decode %s: %w", path, err)
	}

	return stream, format, nil
}

// Duration returns the length of the file at path.
func Duration(path string) (time.Duration, error) {
	stream, format, err := Open(path)
	if err != nil {
		return 0, err
	}
	defer stream.Close()

	return format.SampleRate.D(stream.Len()), nil
}
