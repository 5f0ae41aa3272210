package extract

import (
	"fmt"

	"github.com/ironsheep/colorfetch/internal/colormath"
	"github.com/ironsheep/colorfetch/internal/imaging"
	"github.com/ironsheep/colorfetch/internal/swatch"
)

const (
	minSwatchPopulation = 100
	minSwatchLightness  = 0.2

	namedPaletteBrightness = 0.5
)

// swatchWeights ranks how well each target serves as a theme color.
var swatchWeights = map[swatch.Target]float64{
	swatch.Vibrant:      5,
	swatch.DarkVibrant:  4,
	swatch.LightVibrant: 3,
	swatch.Muted:        2,
	swatch.LightMuted:   2,
	swatch.DarkMuted:    1,
}

// SwatchGenerator produces named swatches for a grid.
// *swatch.Generator satisfies it.
type SwatchGenerator interface {
	Generate(grid imaging.PixelGrid) (swatch.Palette, error)
}

// NamedPaletteExtractor picks colors from generated swatches by weight.
type NamedPaletteExtractor struct {
	generator SwatchGenerator
}

// NewNamedPaletteExtractor returns an extractor backed by generator. A nil
// generator selects swatch.NewGenerator().
func NewNamedPaletteExtractor(generator SwatchGenerator) *NamedPaletteExtractor {
	if generator == nil {
		generator = swatch.NewGenerator()
	}
	return &NamedPaletteExtractor{generator: generator}
}

// Extract implements Extractor.
func (e *NamedPaletteExtractor) Extract(grid imaging.PixelGrid) (Result, error) {
	palette, err := e.generator.Generate(grid)
	if err != nil {
		return Result{}, fmt.Errorf("named palette: %w", err)
	}
	return SelectSwatches(palette), nil
}

// SelectSwatches picks the primary and secondary colors from palette.
//
// Swatches with population > 100 and lightness > 0.2 are scored first; if
// none qualify every present swatch is scored. The best swatch, brightened,
// becomes primary and the runner-up becomes secondary. Targets are visited in
// palette order and an equal later score never displaces an earlier one.
func SelectSwatches(palette swatch.Palette) Result {
	best, second := rankSwatches(palette, true)
	if best == nil {
		best, second = rankSwatches(palette, false)
	}

	result := Result{
		Primary:           colormath.White,
		Secondary:         colormath.White,
		AverageBrightness: namedPaletteBrightness,
	}
	if best == nil {
		return result
	}

	result.Primary = colormath.Brighten(best.Color)
	result.Secondary = best.Color
	if second != nil {
		result.Secondary = second.Color
	}
	return result
}

func rankSwatches(palette swatch.Palette, strict bool) (best, second *swatch.Swatch) {
	var bestScore, secondScore float64
	for _, t := range palette.Targets {
		s := palette.Swatch(t)
		if s == nil {
			continue
		}
		if strict && (s.Population <= minSwatchPopulation || s.HSL.L <= minSwatchLightness) {
			continue
		}

		score := swatchScore(s, swatchWeights[t])
		switch {
		case best == nil || bestScore < score:
			second, secondScore = best, bestScore
			best, bestScore = s, score
		case secondScore < score:
			second, secondScore = s, score
		}
	}
	return best, second
}

func swatchScore(s *swatch.Swatch, weight float64) float64 {
	c := s.Color
	sat := colormath.Colorfulness(c.R, c.G, c.B)
	pop := float64(s.Population)
	return (pop + pop*sat*sat*colormath.Brightness(c.R, c.G, c.B)) * weight
}
