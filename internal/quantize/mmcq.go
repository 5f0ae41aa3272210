// Package quantize implements modified median-cut quantization (MMCQ).
//
// Quantize buckets the sampled pixels of a grid into a 5-bit-per-channel
// histogram and recursively splits its bounding box along the widest channel
// at the population median, producing a small list of weighted color boxes.
package quantize

import (
	"errors"
	"sort"

	"github.com/ironsheep/colorfetch/internal/colormath"
	"github.com/ironsheep/colorfetch/internal/imaging"
)

const (
	sigBits   = 5
	rShift    = 8 - sigBits
	histoSize = 1 << (3 * sigBits)
	maxIndex  = (1 << sigBits) - 1

	maxIterations = 1000

	// fractByPopulation is the share of boxes produced by splitting on
	// population alone; the rest split on population times volume.
	fractByPopulation = 0.75

	// nearWhite is the per-channel level above which a pixel is skipped.
	nearWhite = 250
)

// ErrInvalidColorCount is returned for a maxColors outside [2, 256].
var ErrInvalidColorCount = errors.New("quantize: color count must be between 2 and 256")

// Box is one bucket of the quantized color space.
type Box struct {
	count int
	avg   colormath.RGB
}

// NewBox returns a box of count pixels averaging to c.
func NewBox(c colormath.RGB, count int) Box {
	return Box{count: count, avg: c}
}

// Color returns the population-weighted average color of the box.
func (b Box) Color() colormath.RGB { return b.avg }

// Count returns the number of sampled pixels that fell into the box.
func (b Box) Count() int { return b.count }

// Quantize reduces grid to at most maxColors boxes.
//
// Every quality-th pixel in row-major order is sampled (quality < 1 means
// every pixel). Near-white pixels (all channels above 250) are ignored, as
// are transparent pixels when the grid reports opacity.
//
// Boxes are returned largest first by population times volume. Empty boxes
// are dropped, so an image with no eligible pixels yields an empty slice and
// no error.
func Quantize(grid imaging.PixelGrid, maxColors, quality int) ([]Box, error) {
	if maxColors < 2 || maxColors > 256 {
		return nil, ErrInvalidColorCount
	}
	if quality < 1 {
		quality = 1
	}

	h := buildHistogram(grid, quality)
	initial, ok := h.boundingBox()
	if !ok {
		return nil, nil
	}

	boxes := []*box{initial}

	// First split by population, then by population * volume.
	popTarget := int(fractByPopulation*float64(maxColors) + 0.999999)
	boxes = h.iterate(boxes, popTarget, func(b *box) float64 {
		return float64(b.count)
	})
	boxes = h.iterate(boxes, maxColors, func(b *box) float64 {
		return float64(b.count) * float64(b.volume())
	})

	sort.SliceStable(boxes, func(i, j int) bool {
		return boxes[i].count*boxes[i].volume() > boxes[j].count*boxes[j].volume()
	})

	out := make([]Box, 0, len(boxes))
	for _, b := range boxes {
		if b.count == 0 {
			continue
		}
		out = append(out, NewBox(h.average(b), b.count))
	}
	return out, nil
}

type histogram [histoSize]int

func colorIndex(r, g, b int) int {
	return (r << (2 * sigBits)) | (g << sigBits) | b
}

func buildHistogram(grid imaging.PixelGrid, quality int) *histogram {
	h := new(histogram)
	opaque, hasAlpha := grid.(interface{ Opaque(x, y int) bool })

	width := grid.Width()
	total := width * grid.Height()
	for i := 0; i < total; i += quality {
		x, y := i%width, i/width
		if hasAlpha && !opaque.Opaque(x, y) {
			continue
		}
		c := grid.At(x, y)
		if c.R > nearWhite && c.G > nearWhite && c.B > nearWhite {
			continue
		}
		h[colorIndex(int(c.R)>>rShift, int(c.G)>>rShift, int(c.B)>>rShift)]++
	}
	return h
}

type box struct {
	r1, r2, g1, g2, b1, b2 int
	count                  int
}

func (b *box) volume() int {
	return (b.r2 - b.r1 + 1) * (b.g2 - b.g1 + 1) * (b.b2 - b.b1 + 1)
}

func (h *histogram) boundingBox() (*box, bool) {
	b := &box{r1: maxIndex, g1: maxIndex, b1: maxIndex}
	for i, n := range h {
		if n == 0 {
			continue
		}
		r, g, bl := i>>(2*sigBits), (i>>sigBits)&maxIndex, i&maxIndex
		b.r1, b.r2 = min(b.r1, r), max(b.r2, r)
		b.g1, b.g2 = min(b.g1, g), max(b.g2, g)
		b.b1, b.b2 = min(b.b1, bl), max(b.b2, bl)
		b.count += n
	}
	return b, b.count > 0
}

func (h *histogram) countBox(b *box) int {
	n := 0
	for r := b.r1; r <= b.r2; r++ {
		for g := b.g1; g <= b.g2; g++ {
			for bl := b.b1; bl <= b.b2; bl++ {
				n += h[colorIndex(r, g, bl)]
			}
		}
	}
	return n
}

func (h *histogram) average(b *box) colormath.RGB {
	const mult = 1 << rShift
	var total, rSum, gSum, bSum float64
	for r := b.r1; r <= b.r2; r++ {
		for g := b.g1; g <= b.g2; g++ {
			for bl := b.b1; bl <= b.b2; bl++ {
				n := float64(h[colorIndex(r, g, bl)])
				total += n
				rSum += n * (float64(r) + 0.5) * mult
				gSum += n * (float64(g) + 0.5) * mult
				bSum += n * (float64(bl) + 0.5) * mult
			}
		}
	}
	if total == 0 {
		return colormath.RGB{
			R: uint8(mult * (b.r1 + b.r2 + 1) / 2),
			G: uint8(mult * (b.g1 + b.g2 + 1) / 2),
			B: uint8(mult * (b.b1 + b.b2 + 1) / 2),
		}
	}
	return colormath.RGB{
		R: uint8(rSum / total),
		G: uint8(gSum / total),
		B: uint8(bSum / total),
	}
}

// iterate splits the highest-priority splittable box until target boxes
// exist, nothing can be split, or the iteration budget runs out.
func (h *histogram) iterate(boxes []*box, target int, priority func(*box) float64) []*box {
	stuck := make(map[*box]bool)
	for n := 0; len(boxes) < target && n < maxIterations; n++ {
		best := -1
		for i, b := range boxes {
			if b.count < 2 || b.volume() < 2 || stuck[b] {
				continue
			}
			if best < 0 || priority(b) > priority(boxes[best]) {
				best = i
			}
		}
		if best < 0 {
			break
		}

		left, right := h.medianCut(boxes[best])
		if right == nil {
			stuck[boxes[best]] = true
			continue
		}
		boxes[best] = left
		boxes = append(boxes, right)
	}
	return boxes
}

// shrink reduces b to the tightest bounds that still hold all its pixels.
func (h *histogram) shrink(b *box) {
	t := box{r1: maxIndex, g1: maxIndex, b1: maxIndex}
	for r := b.r1; r <= b.r2; r++ {
		for g := b.g1; g <= b.g2; g++ {
			for bl := b.b1; bl <= b.b2; bl++ {
				if h[colorIndex(r, g, bl)] == 0 {
					continue
				}
				t.r1, t.r2 = min(t.r1, r), max(t.r2, r)
				t.g1, t.g2 = min(t.g1, g), max(t.g2, g)
				t.b1, t.b2 = min(t.b1, bl), max(t.b2, bl)
			}
		}
	}
	if t.r1 > t.r2 {
		return
	}
	t.count = b.count
	*b = t
}

// medianCut splits b along its widest channel at the population median so
// that both halves hold pixels. It returns right == nil when no such split
// exists. b is expected to have tight bounds.
func (h *histogram) medianCut(b *box) (*box, *box) {
	rw, gw, bw := b.r2-b.r1+1, b.g2-b.g1+1, b.b2-b.b1+1
	maxw := max(rw, gw, bw)

	var lo, hi int
	var slice func(i int) int
	var apply func(left, right *box, cut int)

	switch maxw {
	case rw:
		lo, hi = b.r1, b.r2
		slice = func(i int) int {
			return h.countBox(&box{r1: i, r2: i, g1: b.g1, g2: b.g2, b1: b.b1, b2: b.b2})
		}
		apply = func(left, right *box, cut int) { left.r2, right.r1 = cut, cut+1 }
	case gw:
		lo, hi = b.g1, b.g2
		slice = func(i int) int {
			return h.countBox(&box{r1: b.r1, r2: b.r2, g1: i, g2: i, b1: b.b1, b2: b.b2})
		}
		apply = func(left, right *box, cut int) { left.g2, right.g1 = cut, cut+1 }
	default:
		lo, hi = b.b1, b.b2
		slice = func(i int) int {
			return h.countBox(&box{r1: b.r1, r2: b.r2, g1: b.g1, g2: b.g2, b1: i, b2: i})
		}
		apply = func(left, right *box, cut int) { left.b2, right.b1 = cut, cut+1 }
	}

	if lo == hi {
		return b, nil
	}

	partial := make([]int, hi-lo+1)
	total := 0
	for i := lo; i <= hi; i++ {
		total += slice(i)
		partial[i-lo] = total
	}

	for i := lo; i <= hi; i++ {
		if partial[i-lo] <= total/2 {
			continue
		}

		left, right := i-lo, hi-i
		var cut int
		if left <= right {
			cut = min(hi-1, int(float64(i)+float64(right)/2))
		} else {
			cut = max(lo, int(float64(i)-1-float64(left)/2))
		}

		// Move the cut so that neither half is empty.
		for cut < hi-1 && partial[cut-lo] == 0 {
			cut++
		}
		for cut > lo && total-partial[cut-lo] == 0 {
			cut--
		}
		if partial[cut-lo] == 0 || total-partial[cut-lo] == 0 {
			return b, nil
		}

		l, r := *b, *b
		apply(&l, &r, cut)
		l.count = partial[cut-lo]
		r.count = total - l.count
		h.shrink(&l)
		h.shrink(&r)
		return &l, &r
	}

	return b, nil
}
