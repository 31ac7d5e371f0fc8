package palette

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestImage fills a w x h image with stripes of the given colors, the
// first stripe taking share of the rows.
func newTestImage(w, h int, share float64, colors ...color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	first := int(float64(h) * share)
	rest := (h - first) / max(len(colors)-1, 1)
	for y := range h {
		idx := 0
		if y >= first && len(colors) > 1 {
			idx = min(1+(y-first)/max(rest, 1), len(colors)-1)
		}
		for x := range w {
			img.SetRGBA(x, y, colors[idx])
		}
	}
	return img
}

func TestExtract_SolidImage(t *testing.T) {
	red := color.RGBA{R: 200, G: 16, B: 16, A: 255}
	colors, err := Extract(newTestImage(20, 20, 1, red), DefaultCount, DefaultQuality)
	require.NoError(t, err)
	require.Len(t, colors, 1)
	assert.Less(t, Distance(red, colors[0]), 0.05)
}

func TestExtract_OrdersByPopulation(t *testing.T) {
	blue := color.RGBA{R: 20, G: 40, B: 200, A: 255}
	green := color.RGBA{R: 30, G: 190, B: 40, A: 255}
	img := newTestImage(40, 40, 0.7, blue, green)

	colors, err := Extract(img, DefaultCount, 1)
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(colors), 2)
	assert.Less(t, Distance(blue, colors[0]), 0.05)
	assert.Less(t, Distance(green, colors[1]), 0.05)
}

func TestExtract_LimitsCount(t *testing.T) {
	img := newTestImage(60, 60, 0.2,
		color.RGBA{R: 250, A: 255},
		color.RGBA{G: 250, A: 255},
		color.RGBA{B: 250, A: 255},
		color.RGBA{R: 120, G: 120, A: 255},
		color.RGBA{R: 10, G: 10, B: 10, A: 255},
		color.RGBA{R: 140, B: 140, A: 255},
		color.RGBA{G: 100, B: 160, A: 255},
	)

	colors, err := Extract(img, 3, 1)
	require.NoError(t, err)
	assert.LessOrEqual(t, len(colors), 3)
	assert.NotEmpty(t, colors)
}

func TestExtract_NoUsablePixels(t *testing.T) {
	white := color.RGBA{R: 255, G: 255, B: 255, A: 255}
	_, err := Extract(newTestImage(10, 10, 1, white), DefaultCount, 1)
	assert.ErrorIs(t, err, ErrNoColors)

	_, err = Extract(image.NewRGBA(image.Rect(0, 0, 4, 4)), DefaultCount, 1)
	assert.ErrorIs(t, err, ErrNoColors, "fully transparent")

	_, err = Extract(image.NewRGBA(image.Rectangle{}), DefaultCount, 1)
	assert.ErrorIs(t, err, ErrNoColors)
}

func TestComplementary(t *testing.T) {
	red := color.RGBA{R: 255, A: 255}
	comp := Complementary(red)
	assert.Equal(t, color.RGBA{G: 255, B: 255, A: 255}, comp)

	gray := color.RGBA{R: 128, G: 128, B: 128, A: 200}
	assert.Equal(t, gray, Complementary(gray))
}

func TestDistanceAndHex(t *testing.T) {
	a := color.RGBA{R: 10, G: 20, B: 30, A: 255}
	assert.Zero(t, Distance(a, a))
	assert.Greater(t, Distance(a, color.RGBA{R: 250, G: 250, B: 250, A: 255}), 0.5)
	assert.Equal(t, "#0a141e", Hex(a))

	assert.True(t, IsDark(a))
	assert.False(t, IsDark(color.RGBA{R: 240, G: 240, B: 240, A: 255}))
}
