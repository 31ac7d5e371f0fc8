package service

import (
	"bytes"
	"crypto/sha256"
	"errors"
	"fmt"
	"image"
	_ "image/gif"  // register GIF decoder
	_ "image/jpeg" // register JPEG decoder
	_ "image/png"  // register PNG decoder
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
	"github.com/nfnt/resize"
	_ "golang.org/x/image/bmp"  // register BMP decoder
	_ "golang.org/x/image/webp" // register WebP decoder

	"github.com/tejashwikalptaru/cadence/internal/domain"
	"github.com/tejashwikalptaru/cadence/internal/palette"
	"github.com/tejashwikalptaru/cadence/internal/ports"
)

// CoverSize is the largest width or height of a cached cover, in pixels.
const CoverSize = 512

var (
	coverNamespace = uuid.MustParse("6f0d5b52-3c1e-4d8a-9a57-0f3c2b7e9d41")
	songNamespace  = uuid.MustParse("c5a1e0f4-8b2d-4e63-b1f7-2a9d6c3e8f05")
)

// externalCovers are looked up next to a song without an embedded picture.
var externalCovers = []string{"Cover.jpg", "Cover.png", "cover.jpg", "cover.png"}

// CoverUUID returns the identity of the cover of the song at path. Songs of
// the same album in the same directory share it; without an album the path
// is used.
func CoverUUID(path string, md domain.Metadata) string {
	var data string
	if md.Album != "" {
		artist := md.AlbumArtist
		if artist == "" {
			artist = md.Artist
		}
		data = md.Album + artist + filepath.Dir(path)
	} else {
		data = path
	}
	return uuid.NewHash(sha256.New(), coverNamespace, []byte(data), 5).String()
}

// SongUUID returns the content identity of the song at path.
func SongUUID(path string, md domain.Metadata) string {
	data := filepath.Base(path) + md.Artist + md.Title + md.Album
	return uuid.NewHash(sha256.New(), songNamespace, []byte(data), 5).String()
}

// CoverCache decodes, scales and stores cover art once per cover identity.
// Entries live until Clear.
//
// All operations are thread-safe via sync.Mutex.
type CoverCache struct {
	logger *slog.Logger
	store  ports.CoverStore

	mu      sync.Mutex
	entries map[string]*domain.CoverArt
}

// NewCoverCache creates an empty cache. store may be nil, in which case
// covers are not written to disk.
func NewCoverCache(logger *slog.Logger, store ports.CoverStore) *CoverCache {
	return &CoverCache{
		logger:  logger.With(slog.String("service", "covers")),
		store:   store,
		entries: make(map[string]*domain.CoverArt),
	}
}

// Lookup returns the cover of the song at path, loading it on first use from
// md.Cover or from a cover file in the song's directory. It returns
// domain.ErrNoCoverArt when the song has no usable picture.
func (c *CoverCache) Lookup(path string, md domain.Metadata) (*domain.CoverArt, error) {
	id := CoverUUID(path, md)

	c.mu.Lock()
	defer c.mu.Unlock()

	if cover, ok := c.entries[id]; ok {
		return cover, nil
	}

	data := md.Cover
	if len(data) == 0 {
		data = c.externalCover(filepath.Dir(path))
	}
	if len(data) == 0 {
		return nil, domain.ErrNoCoverArt
	}

	cover, err := c.load(id, data)
	if err != nil {
		c.logger.Debug("cover art unusable", slog.String("path", path), slog.Any("error", err))
		return nil, err
	}

	c.entries[id] = cover
	return cover, nil
}

func (c *CoverCache) externalCover(dir string) []byte {
	for _, name := range externalCovers {
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err == nil && len(data) > 0 {
			return data
		}
	}
	return nil
}

func (c *CoverCache) load(id string, data []byte) (*domain.CoverArt, error) {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrNoCoverArt, err)
	}

	bounds := img.Bounds()
	if bounds.Dx() > CoverSize || bounds.Dy() > CoverSize {
		img = resize.Thumbnail(CoverSize, CoverSize, img, resize.Bilinear)
	}

	colors, err := palette.Extract(img, palette.DefaultCount, palette.DefaultQuality)
	if err != nil && !errors.Is(err, palette.ErrNoColors) {
		return nil, err
	}

	cover := &domain.CoverArt{UUID: id, Image: img, Palette: colors}
	if c.store != nil {
		if cached, ok := c.store.Path(id); ok {
			cover.CachePath = cached
		} else if cached, err := c.store.Save(id, img); err != nil {
			c.logger.Warn("failed to cache cover art", slog.String("uuid", id), slog.Any("error", err))
		} else {
			cover.CachePath = cached
		}
	}

	c.logger.Debug("cover art loaded",
		slog.String("uuid", id),
		slog.String("format", format),
		slog.Int("width", img.Bounds().Dx()),
		slog.Int("height", img.Bounds().Dy()))
	return cover, nil
}

// Len returns the number of cached covers.
func (c *CoverCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Clear drops every entry. Files already written to the cover store are kept.
func (c *CoverCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	clear(c.entries)
}
