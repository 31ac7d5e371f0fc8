// Package palette extracts the dominant colors of cover images.
//
// Extraction is a modified median cut over a 5-bit-per-channel histogram:
// boxes are first split by population, then by population times volume, so
// that small but vivid regions of the image still get a color.
package palette

import (
	"errors"
	"image"
	"image/color"
	"slices"
)

const (
	sigBits     = 5
	rShift      = 8 - sigBits
	histSize    = 1 << (3 * sigBits)
	maxIter     = 1000
	popFraction = 0.75

	// DefaultCount and DefaultQuality are used for cover art.
	DefaultCount   = 5
	DefaultQuality = 4
)

// ErrNoColors is returned when the image has no usable pixels.
var ErrNoColors = errors.New("no colors in image")

func histIndex(r, g, b int) int {
	return r<<(2*sigBits) | g<<sigBits | b
}

type box struct {
	r1, r2 int
	g1, g2 int
	b1, b2 int

	hist  []int
	count int
}

func (b *box) volume() int {
	return (b.r2 - b.r1 + 1) * (b.g2 - b.g1 + 1) * (b.b2 - b.b1 + 1)
}

func (b *box) population() int {
	n := 0
	for r := b.r1; r <= b.r2; r++ {
		for g := b.g1; g <= b.g2; g++ {
			for bl := b.b1; bl <= b.b2; bl++ {
				n += b.hist[histIndex(r, g, bl)]
			}
		}
	}
	return n
}

func (b *box) average() color.RGBA {
	const mult = 1 << rShift
	var total, rSum, gSum, bSum int
	for r := b.r1; r <= b.r2; r++ {
		for g := b.g1; g <= b.g2; g++ {
			for bl := b.b1; bl <= b.b2; bl++ {
				h := b.hist[histIndex(r, g, bl)]
				total += h
				rSum += h * (r*mult + mult/2)
				gSum += h * (g*mult + mult/2)
				bSum += h * (bl*mult + mult/2)
			}
		}
	}
	if total == 0 {
		return color.RGBA{
			R: uint8(mult * (b.r1 + b.r2 + 1) / 2),
			G: uint8(mult * (b.g1 + b.g2 + 1) / 2),
			B: uint8(mult * (b.b1 + b.b2 + 1) / 2),
			A: 0xff,
		}
	}
	return color.RGBA{R: uint8(rSum / total), G: uint8(gSum / total), B: uint8(bSum / total), A: 0xff}
}

func (b *box) clone() *box {
	c := *b
	return &c
}

// split cuts b at the median of its longest axis. It returns nil when b
// cannot be split.
func (b *box) split() (*box, *box) {
	if b.count < 2 {
		return nil, nil
	}

	rw, gw, bw := b.r2-b.r1, b.g2-b.g1, b.b2-b.b1
	maxw := max(rw, gw, bw)
	if maxw == 0 {
		return nil, nil
	}

	// lo/hi of the chosen axis, and the population of one slice along it
	var lo, hi int
	var slice func(i int) int
	switch maxw {
	case rw:
		lo, hi = b.r1, b.r2
		slice = func(i int) int { return b.sliceCount(i, i, b.g1, b.g2, b.b1, b.b2) }
	case gw:
		lo, hi = b.g1, b.g2
		slice = func(i int) int { return b.sliceCount(b.r1, b.r2, i, i, b.b1, b.b2) }
	default:
		lo, hi = b.b1, b.b2
		slice = func(i int) int { return b.sliceCount(b.r1, b.r2, b.g1, b.g2, i, i) }
	}

	cut := hi - 1
	sum := 0
	for i := lo; i < hi; i++ {
		sum += slice(i)
		if sum >= b.count/2 {
			cut = i
			break
		}
	}

	left, right := b.clone(), b.clone()
	switch maxw {
	case rw:
		left.r2, right.r1 = cut, cut+1
	case gw:
		left.g2, right.g1 = cut, cut+1
	default:
		left.b2, right.b1 = cut, cut+1
	}
	left.count = left.population()
	right.count = right.population()
	return left, right
}

func (b *box) sliceCount(r1, r2, g1, g2, b1, b2 int) int {
	n := 0
	for r := r1; r <= r2; r++ {
		for g := g1; g <= g2; g++ {
			for bl := b1; bl <= b2; bl++ {
				n += b.hist[histIndex(r, g, bl)]
			}
		}
	}
	return n
}

// histogram samples every quality-th pixel of img, skipping transparent
// and near-white pixels.
func histogram(img image.Image, quality int) ([]int, *box) {
	hist := make([]int, histSize)
	bounds := img.Bounds()
	bx := &box{r1: 1 << sigBits, g1: 1 << sigBits, b1: 1 << sigBits, r2: -1, g2: -1, b2: -1, hist: hist}

	width := bounds.Dx()
	n := width * bounds.Dy()
	for i := 0; i < n; i += quality {
		x := bounds.Min.X + i%width
		y := bounds.Min.Y + i/width
		r32, g32, b32, a32 := img.At(x, y).RGBA()
		r, g, b, a := int(r32>>8), int(g32>>8), int(b32>>8), int(a32>>8)
		if a < 125 || (r > 250 && g > 250 && b > 250) {
			continue
		}

		r, g, b = r>>rShift, g>>rShift, b>>rShift
		hist[histIndex(r, g, b)]++
		bx.count++
		bx.r1, bx.r2 = min(bx.r1, r), max(bx.r2, r)
		bx.g1, bx.g2 = min(bx.g1, g), max(bx.g2, g)
		bx.b1, bx.b2 = min(bx.b1, b), max(bx.b2, b)
	}
	return hist, bx
}

// iterate splits boxes, largest by key first, until there are target boxes
// or nothing left to split.
func iterate(boxes []*box, target int, key func(*box) int) []*box {
	var done []*box
	for i := 0; i < maxIter && len(boxes) > 0 && len(boxes)+len(done) < target; i++ {
		slices.SortStableFunc(boxes, func(a, b *box) int { return key(b) - key(a) })

		top := boxes[0]
		boxes = boxes[1:]

		left, right := top.split()
		if left == nil {
			done = append(done, top)
			continue
		}
		for _, half := range []*box{left, right} {
			if half.count > 0 {
				boxes = append(boxes, half)
			}
		}
	}
	return append(boxes, done...)
}

// Extract returns up to count dominant colors of img ordered by population,
// sampling every quality-th pixel (1 samples all of them).
func Extract(img image.Image, count, quality int) ([]color.RGBA, error) {
	if img == nil || img.Bounds().Empty() {
		return nil, ErrNoColors
	}
	count = max(count, 1)
	quality = max(quality, 1)

	_, initial := histogram(img, quality)
	if initial.count == 0 {
		return nil, ErrNoColors
	}
	initial.count = initial.population()

	population := func(b *box) int { return b.count }
	weighted := func(b *box) int { return b.count * b.volume() }

	boxes := iterate([]*box{initial}, int(popFraction*float64(count)), population)
	boxes = iterate(boxes, count, weighted)

	slices.SortStableFunc(boxes, func(a, b *box) int { return b.count - a.count })
	colors := make([]color.RGBA, 0, len(boxes))
	for _, b := range boxes {
		if b.count > 0 {
			colors = append(colors, b.average())
		}
	}
	if len(colors) > count {
		colors = colors[:count]
	}
	return colors, nil
}
