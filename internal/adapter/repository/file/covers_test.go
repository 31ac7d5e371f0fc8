package file

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCoverStore(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "covers")
	store := NewCoverStore(dir)

	_, ok := store.Path("cover-1")
	assert.False(t, ok)

	img := image.NewRGBA(image.Rect(0, 0, 4, 3))
	img.Set(1, 1, color.RGBA{R: 200, A: 255})

	path, err := store.Save("cover-1", img)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "cover-1.png"), path)

	got, ok := store.Path("cover-1")
	assert.True(t, ok)
	assert.Equal(t, path, got)

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	decoded, err := png.Decode(f)
	require.NoError(t, err)
	assert.Equal(t, img.Bounds(), decoded.Bounds())

	again, err := store.Save("cover-1", image.NewRGBA(image.Rect(0, 0, 1, 1)))
	require.NoError(t, err)
	assert.Equal(t, path, again, "existing covers are reused")
}
