// Package metadata reads audio file tags with dhowden/tag.
package metadata

import (
	"errors"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/dhowden/tag"

	"github.com/tejashwikalptaru/cadence/internal/adapter/decode"
	"github.com/tejashwikalptaru/cadence/internal/domain"
	"github.com/tejashwikalptaru/cadence/internal/ports"
)

const (
	trackGainKey = "replaygain_track_gain"
	albumGainKey = "replaygain_album_gain"
)

// Reader implements ports.MetadataReader. Tags come from dhowden/tag and the
// duration from decoding the stream header, so a file without tags is still
// a valid song as long as it decodes.
type Reader struct {
	logger *slog.Logger
}

// NewReader creates a metadata reader.
func NewReader(logger *slog.Logger) *Reader {
	return &Reader{logger: logger.With(slog.String("component", "metadata"))}
}

// Read implements ports.MetadataReader.
func (r *Reader) Read(path string) (domain.Metadata, error) {
	length, err := decode.Duration(path)
	if err != nil {
		if errors.Is(err, domain.ErrFileNotFound) {
			return domain.Metadata{}, domain.NewMetadataError(path, "file not found", err)
		}
		return domain.Metadata{}, domain.NewMetadataError(path, "cannot decode audio", err)
	}

	md := domain.Metadata{Duration: uint64(length / time.Second)}

	f, err := os.Open(path)
	if err != nil {
		return domain.Metadata{}, domain.NewMetadataError(path, "cannot open file", err)
	}
	defer f.Close()

	tags, err := tag.ReadFrom(f)
	if err != nil {
		// Untagged files are common (wav); keep the duration
		r.logger.Debug("no tags", slog.String("path", path), slog.Any("error", err))
		return md, nil
	}

	md.Title = strings.TrimSpace(tags.Title())
	md.Artist = strings.TrimSpace(tags.Artist())
	md.Album = strings.TrimSpace(tags.Album())
	md.AlbumArtist = strings.TrimSpace(tags.AlbumArtist())

	if picture := tags.Picture(); picture != nil && len(picture.Data) > 0 {
		md.Cover = picture.Data
		md.CoverType = pictureType(picture.Type)
	}

	md.TrackGain, md.AlbumGain = replayGain(tags.Raw())
	return md, nil
}

// pictureType maps the picture role names used by dhowden/tag.
func pictureType(name string) domain.PictureType {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "":
		return domain.PictureUnknown
	case "cover (front)":
		return domain.PictureFrontCover
	case "other":
		return domain.PictureOther
	case "band/artist logotype":
		return domain.PictureBandLogo
	default:
		return domain.PictureUnknown
	}
}

// replayGain finds the track and album gains among raw tags. Vorbis comments
// store them as plain keys, ID3v2 as TXXX frames with a description.
func replayGain(raw map[string]any) (trackGain, albumGain *float64) {
	for key, value := range raw {
		name, text := strings.ToLower(key), ""
		switch v := value.(type) {
		case string:
			text = v
		case *tag.Comm:
			name, text = strings.ToLower(v.Description), v.Text
		default:
			continue
		}

		switch {
		case strings.HasSuffix(name, trackGainKey):
			if gain, ok := parseGain(text); ok {
				trackGain = &gain
			}
		case strings.HasSuffix(name, albumGainKey):
			if gain, ok := parseGain(text); ok {
				albumGain = &gain
			}
		}
	}
	return trackGain, albumGain
}

// parseGain parses values such as "-6.48 dB".
func parseGain(text string) (float64, bool) {
	text = strings.TrimSpace(text)
	if i := strings.IndexFunc(text, func(r rune) bool { return r == ' ' || r == 'd' || r == 'D' }); i >= 0 {
		text = text[:i]
	}
	gain, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return 0, false
	}
	return gain, true
}

var _ ports.MetadataReader = (*Reader)(nil)
