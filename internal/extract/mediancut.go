package extract

import (
	"fmt"
	"math"
	"sort"

	"github.com/ironsheep/colorfetch/internal/colormath"
	"github.com/ironsheep/colorfetch/internal/imaging"
	"github.com/ironsheep/colorfetch/internal/quantize"
)

const (
	medianCutColors  = 10
	medianCutQuality = 5

	minBoxPopulation   = 1000
	minBoxPerceived    = 0.075
	minBoxColorfulness = 0.1

	// minSurvivorPopulation is the combined population below which the
	// image is treated as grayscale.
	minSurvivorPopulation = 3000

	brightnessGridSteps = 20
	brightnessGamma     = 1 / 2.2
	brightnessScale     = 0.85
)

// MedianCutExtractor picks the primary and secondary colors from the two
// heaviest colorful median-cut boxes.
type MedianCutExtractor struct{}

// NewMedianCutExtractor returns a median-cut extractor.
func NewMedianCutExtractor() *MedianCutExtractor {
	return &MedianCutExtractor{}
}

// Extract implements Extractor.
func (e *MedianCutExtractor) Extract(grid imaging.PixelGrid) (Result, error) {
	boxes, err := quantize.Quantize(grid, medianCutColors, medianCutQuality)
	if err != nil {
		return Result{}, fmt.Errorf("median cut: %w", err)
	}

	survivors := selectBoxes(boxes)
	avg := AverageBrightness(grid)

	switch len(survivors) {
	case 0:
		level := uint8(math.Round(255 * avg))
		return Result{
			Primary:           colormath.White,
			Secondary:         colormath.RGB{R: level, G: level, B: level},
			AverageBrightness: avg,
		}, nil
	case 1:
		c := survivors[0].Color()
		return Result{Primary: c, Secondary: c, AverageBrightness: avg}, nil
	}

	first, second := survivors[0].Color(), survivors[1].Color()
	if colormath.PerceivedBrightness(first) > colormath.PerceivedBrightness(second) {
		return Result{Primary: first, Secondary: second, AverageBrightness: avg}, nil
	}
	return Result{Primary: second, Secondary: first, AverageBrightness: avg}, nil
}

// selectBoxes filters out dim, gray, and sparse boxes and ranks the rest by
// population weighted by squared perceived brightness. It returns nil when
// the survivors hold too few pixels to be representative.
func selectBoxes(boxes []quantize.Box) []quantize.Box {
	var survivors []quantize.Box
	total := 0
	for _, b := range boxes {
		c := b.Color()
		if b.Count() <= minBoxPopulation ||
			colormath.PerceivedBrightness(c) <= minBoxPerceived ||
			colormath.Colorfulness(c.R, c.G, c.B) <= minBoxColorfulness {
			continue
		}
		survivors = append(survivors, b)
		total += b.Count()
	}

	if total < minSurvivorPopulation {
		return nil
	}

	sort.SliceStable(survivors, func(i, j int) bool {
		return weightedPopulation(survivors[i]) > weightedPopulation(survivors[j])
	})
	return survivors
}

func weightedPopulation(b quantize.Box) int {
	p := colormath.PerceivedBrightness(b.Color())
	return int(float64(b.Count()) * p * p)
}

// AverageBrightness estimates the overall brightness of grid.
//
// It averages perceived brightness over a coarse sample grid with
// min(width, height)/20 steps per axis, then gamma-corrects the average:
// avg^(1/2.2) · 0.85. An empty grid yields 0.
func AverageBrightness(grid imaging.PixelGrid) float64 {
	w, h := grid.Width(), grid.Height()
	if w <= 0 || h <= 0 {
		return 0
	}

	steps := max(1, min(w, h)/brightnessGridSteps)
	xStride := max(1, w/steps)
	yStride := max(1, h/steps)

	var sum float64
	n := 0
	for y := 0; y < h; y += yStride {
		for x := 0; x < w; x += xStride {
			sum += colormath.PerceivedBrightness(grid.At(x, y))
			n++
		}
	}

	avg := sum / float64(n)
	return math.Min(1, math.Pow(avg, brightnessGamma)*brightnessScale)
}
