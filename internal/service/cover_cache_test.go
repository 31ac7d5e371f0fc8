package service

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tejashwikalptaru/cadence/internal/domain"
	"github.com/tejashwikalptaru/cadence/internal/logger"
)

type memoryCoverStore struct {
	mu    sync.Mutex
	saved map[string]image.Image
	err   error
}

func newMemoryCoverStore() *memoryCoverStore {
	return &memoryCoverStore{saved: make(map[string]image.Image)}
}

func (s *memoryCoverStore) Save(id string, img image.Image) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return "", s.err
	}
	s.saved[id] = img
	return "/cache/covers/" + id + ".png", nil
}

func (s *memoryCoverStore) Path(id string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.saved[id]; !ok {
		return "", false
	}
	return "/cache/covers/" + id + ".png", true
}

func (s *memoryCoverStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.saved)
}

func newTestPNG(t *testing.T, w, h int, c color.RGBA) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			img.SetRGBA(x, y, c)
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestCoverUUID(t *testing.T) {
	album := domain.Metadata{Album: "Blue", Artist: "Joni"}

	a := CoverUUID("/music/blue/01.flac", album)
	b := CoverUUID("/music/blue/02.flac", album)
	assert.Equal(t, a, b, "songs of one album in one folder share a cover")

	assert.NotEqual(t, a, CoverUUID("/other/blue/01.flac", album), "different folder")

	withAlbumArtist := domain.Metadata{Album: "Blue", Artist: "Someone", AlbumArtist: "Joni"}
	assert.Equal(t, a, CoverUUID("/music/blue/03.flac", withAlbumArtist), "album artist wins over artist")

	noAlbum := domain.Metadata{Artist: "Joni"}
	assert.NotEqual(t,
		CoverUUID("/music/blue/01.flac", noAlbum),
		CoverUUID("/music/blue/02.flac", noAlbum),
		"without an album each file is its own cover")
}

func TestSongUUID(t *testing.T) {
	md := domain.Metadata{Title: "River", Artist: "Joni", Album: "Blue"}
	assert.Equal(t, SongUUID("/a/river.flac", md), SongUUID("/b/river.flac", md), "path directory does not matter")
	assert.NotEqual(t, SongUUID("/a/river.flac", md), SongUUID("/a/river2.flac", md))
}

func TestCoverCache_EmbeddedCover(t *testing.T) {
	store := newMemoryCoverStore()
	cache := NewCoverCache(logger.NewTestLogger(), store)

	md := domain.Metadata{Album: "Blue", Artist: "Joni", Cover: newTestPNG(t, 16, 16, color.RGBA{R: 30, G: 60, B: 200, A: 255})}
	cover, err := cache.Lookup("/music/blue/01.flac", md)
	require.NoError(t, err)

	assert.Equal(t, CoverUUID("/music/blue/01.flac", md), cover.UUID)
	assert.Equal(t, "/cache/covers/"+cover.UUID+".png", cover.CachePath)
	assert.NotEmpty(t, cover.Palette)
	assert.Equal(t, 1, cache.Len())

	again, err := cache.Lookup("/music/blue/02.flac", md)
	require.NoError(t, err)
	assert.Same(t, cover, again, "second song of the album hits the cache")
	assert.Equal(t, 1, store.count())
}

func TestCoverCache_ScalesLargeCovers(t *testing.T) {
	cache := NewCoverCache(logger.NewTestLogger(), nil)

	md := domain.Metadata{Cover: newTestPNG(t, 1024, 768, color.RGBA{R: 200, G: 20, B: 20, A: 255})}
	cover, err := cache.Lookup("/music/single.mp3", md)
	require.NoError(t, err)

	bounds := cover.Image.Bounds()
	assert.Equal(t, CoverSize, bounds.Dx())
	assert.Equal(t, 384, bounds.Dy())
	assert.Empty(t, cover.CachePath, "no store")
}

func TestCoverCache_ExternalCover(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "cover.png"), newTestPNG(t, 8, 8, color.RGBA{G: 180, A: 255}), 0o644))

	cache := NewCoverCache(logger.NewTestLogger(), newMemoryCoverStore())
	cover, err := cache.Lookup(filepath.Join(dir, "track.ogg"), domain.Metadata{Album: "Green"})
	require.NoError(t, err)
	assert.NotNil(t, cover.Image)
}

func TestCoverCache_NoCover(t *testing.T) {
	cache := NewCoverCache(logger.NewTestLogger(), nil)

	_, err := cache.Lookup(filepath.Join(t.TempDir(), "track.ogg"), domain.Metadata{Album: "Green"})
	assert.ErrorIs(t, err, domain.ErrNoCoverArt)

	_, err = cache.Lookup("/music/garbage.mp3", domain.Metadata{Cover: []byte("not an image")})
	assert.ErrorIs(t, err, domain.ErrNoCoverArt)

	assert.Zero(t, cache.Len(), "absences are not cached")
}

func TestCoverCache_StoreFailureKeepsCover(t *testing.T) {
	store := newMemoryCoverStore()
	store.err = errors.New("disk full")
	cache := NewCoverCache(logger.NewTestLogger(), store)

	md := domain.Metadata{Cover: newTestPNG(t, 8, 8, color.RGBA{R: 90, G: 90, B: 10, A: 255})}
	cover, err := cache.Lookup("/music/a.mp3", md)
	require.NoError(t, err)
	assert.Empty(t, cover.CachePath)
}

func TestCoverCache_Clear(t *testing.T) {
	cache := NewCoverCache(logger.NewTestLogger(), nil)
	md := domain.Metadata{Cover: newTestPNG(t, 4, 4, color.RGBA{R: 90, A: 255})}

	_, err := cache.Lookup("/music/a.mp3", md)
	require.NoError(t, err)
	require.Equal(t, 1, cache.Len())

	cache.Clear()
	assert.Zero(t, cache.Len())
}
