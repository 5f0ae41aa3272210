// Package swatch generates named color swatches (Vibrant, Muted, and their
// light and dark variants) from a pixel grid.
//
// Pixels are clustered with k-means, near-black and near-white clusters are
// dropped, and each target then claims the highest-scoring remaining cluster
// whose saturation and lightness fall inside the target's windows. A cluster
// is claimed by at most one target.
package swatch

import (
	"fmt"
	"image"
	"math"

	"github.com/EdlinOrg/prominentcolor"
	"github.com/anthonynsimon/bild/transform"

	"github.com/ironsheep/colorfetch/internal/colormath"
	"github.com/ironsheep/colorfetch/internal/imaging"
)

const (
	// DefaultClusters is the k used for k-means clustering.
	DefaultClusters = 16

	// DefaultSampleArea is the pixel area images are scaled down to before
	// clustering.
	DefaultSampleArea = 112 * 112
)

// Swatch is one color cluster with its pixel population.
type Swatch struct {
	Color      colormath.RGB
	Population int
	HSL        colormath.HSL
}

// NewSwatch builds a swatch and derives its HSL representation.
func NewSwatch(c colormath.RGB, population int) *Swatch {
	return &Swatch{Color: c, Population: population, HSL: c.HSL()}
}

// Palette maps targets to the swatch each one claimed. A target with no
// suitable cluster maps to nil or is absent.
type Palette struct {
	// Targets lists the targets in the order they were generated.
	Targets  []Target
	Swatches map[Target]*Swatch
}

// Swatch returns the swatch claimed by t, or nil.
func (p Palette) Swatch(t Target) *Swatch {
	return p.Swatches[t]
}

// Generator produces palettes. The zero value is not usable; call
// NewGenerator.
type Generator struct {
	clusters   int
	sampleArea int
	targets    []Target
}

// NewGenerator creates a generator with the default cluster count, sample
// area, and target list.
func NewGenerator() *Generator {
	return &Generator{
		clusters:   DefaultClusters,
		sampleArea: DefaultSampleArea,
		targets:    DefaultTargets(),
	}
}

// Generate clusters grid and assigns clusters to targets.
//
// An image whose clusters are all filtered out yields a palette with no
// swatches and no error. Errors come only from the clustering step.
func (g *Generator) Generate(grid imaging.PixelGrid) (Palette, error) {
	palette := Palette{
		Targets:  append([]Target(nil), g.targets...),
		Swatches: make(map[Target]*Swatch, len(g.targets)),
	}

	img := g.scaleDown(imaging.ToImage(grid))
	k := distinctColors(img, g.clusters)
	if k == 0 {
		return palette, nil
	}

	items, err := prominentcolor.KmeansWithAll(
		k,
		img,
		prominentcolor.ArgumentNoCropping|prominentcolor.ArgumentAverageMean,
		clusterSize(img),
		nil,
	)
	if err != nil {
		return palette, fmt.Errorf("cluster colors: %w", err)
	}

	swatches := make([]*Swatch, 0, len(items))
	for _, item := range items {
		if item.Cnt <= 0 {
			continue
		}
		s := NewSwatch(colormath.RGB{
			R: uint8(item.Color.R),
			G: uint8(item.Color.G),
			B: uint8(item.Color.B),
		}, item.Cnt)
		if excluded(s.HSL) {
			continue
		}
		swatches = append(swatches, s)
	}

	assign(palette, swatches)
	return palette, nil
}

// scaleDown shrinks img to roughly the sample area, keeping aspect ratio.
// Smaller images are returned as they are.
func (g *Generator) scaleDown(img image.Image) image.Image {
	b := img.Bounds()
	area := b.Dx() * b.Dy()
	if g.sampleArea <= 0 || area <= g.sampleArea {
		return img
	}

	scale := math.Sqrt(float64(g.sampleArea) / float64(area))
	w := max(1, int(math.Ceil(float64(b.Dx())*scale)))
	h := max(1, int(math.Ceil(float64(b.Dy())*scale)))
	return transform.Resize(img, w, h, transform.Linear)
}

// clusterSize is the resize bound handed to the clustering step. It covers
// the longer side so the already downscaled image is not resampled again.
func clusterSize(img image.Image) uint {
	b := img.Bounds()
	return uint(max(b.Dx(), b.Dy()))
}

// distinctColors counts distinct colors in img, stopping at limit.
func distinctColors(img image.Image, limit int) int {
	seen := make(map[colormath.RGB]struct{}, limit)
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			seen[colormath.FromColor(img.At(x, y))] = struct{}{}
			if len(seen) >= limit {
				return limit
			}
		}
	}
	return len(seen)
}

// excluded drops near-black, near-white, and the skin-tone "I line" of the
// HSL cone, none of which make useful accent colors.
func excluded(hsl colormath.HSL) bool {
	if hsl.L <= 0.05 || hsl.L >= 0.95 {
		return true
	}
	return hsl.H >= 10 && hsl.H <= 37 && hsl.S <= 0.82
}

// assign lets every target claim its best-scoring unclaimed swatch.
func assign(palette Palette, swatches []*Swatch) {
	maxPopulation := 1
	for _, s := range swatches {
		maxPopulation = max(maxPopulation, s.Population)
	}

	used := make(map[*Swatch]bool, len(swatches))
	for _, t := range palette.Targets {
		spec, ok := targetSpecs[t]
		if !ok {
			continue
		}

		var best *Swatch
		bestScore := 0.0
		for _, s := range swatches {
			if used[s] || !spec.saturation.contains(s.HSL.S) || !spec.lightness.contains(s.HSL.L) {
				continue
			}
			score := spec.score(s, maxPopulation)
			if best == nil || score > bestScore {
				best, bestScore = s, score
			}
		}
		if best != nil {
			used[best] = true
			palette.Swatches[t] = best
		}
	}
}

func (spec targetSpec) score(s *Swatch, maxPopulation int) float64 {
	sat := saturationWeight * (1 - math.Abs(s.HSL.S-spec.saturation.target))
	lum := lightnessWeight * (1 - math.Abs(s.HSL.L-spec.lightness.target))
	pop := populationWeight * float64(s.Population) / float64(maxPopulation)
	return sat + lum + pop
}
