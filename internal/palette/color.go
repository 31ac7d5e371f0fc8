package palette

import (
	"image/color"
	"math"

	"github.com/lucasb-eyer/go-colorful"
)

func toColorful(c color.RGBA) colorful.Color {
	return colorful.Color{R: float64(c.R) / 255, G: float64(c.G) / 255, B: float64(c.B) / 255}
}

func fromColorful(c colorful.Color, alpha uint8) color.RGBA {
	r, g, b := c.Clamped().RGB255()
	return color.RGBA{R: r, G: g, B: b, A: alpha}
}

// Complementary rotates the hue of c by 180 degrees, keeping saturation and lightness.
func Complementary(c color.RGBA) color.RGBA {
	h, s, l := toColorful(c).Hsl()
	return fromColorful(colorful.Hsl(math.Mod(h+180, 360), s, l), c.A)
}

// Distance returns the CIE76 distance between a and b.
func Distance(a, b color.RGBA) float64 {
	return toColorful(a).DistanceCIE76(toColorful(b))
}

// Hex formats c as #rrggbb.
func Hex(c color.RGBA) string {
	return toColorful(c).Hex()
}

// IsDark reports whether text on c should be light.
func IsDark(c color.RGBA) bool {
	l, _, _ := toColorful(c).Lab()
	return l < 0.5
}
