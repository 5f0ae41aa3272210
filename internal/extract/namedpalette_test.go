package extract

import (
	"errors"
	"image/color"
	"testing"

	"github.com/ironsheep/colorfetch/internal/colormath"
	"github.com/ironsheep/colorfetch/internal/imaging"
	"github.com/ironsheep/colorfetch/internal/swatch"
)

func paletteOf(swatches map[swatch.Target]*swatch.Swatch) swatch.Palette {
	return swatch.Palette{Targets: swatch.DefaultTargets(), Swatches: swatches}
}

func TestSelectSwatches_OnlyMuted(t *testing.T) {
	muted := &swatch.Swatch{
		Color:      colormath.RGB{R: 110, G: 90, B: 80},
		Population: 500,
		HSL:        colormath.HSL{H: 20, S: 0.15, L: 0.3},
	}

	result := SelectSwatches(paletteOf(map[swatch.Target]*swatch.Swatch{swatch.Muted: muted}))

	if want := colormath.Brighten(muted.Color); result.Primary != want {
		t.Errorf("Primary = %v, want %v", result.Primary, want)
	}
	if result.Secondary != muted.Color {
		t.Errorf("Secondary = %v, want %v", result.Secondary, muted.Color)
	}
	if result.AverageBrightness != 0.5 {
		t.Errorf("AverageBrightness = %f, want 0.5", result.AverageBrightness)
	}
}

func TestSelectSwatches_Empty(t *testing.T) {
	result := SelectSwatches(paletteOf(nil))
	if result != Fallback {
		t.Errorf("got %+v, want white on white at 0.5", result)
	}
}

func TestSelectSwatches_WeightsDecide(t *testing.T) {
	vibrant := &swatch.Swatch{Color: colormath.RGB{R: 200, G: 40, B: 40}, Population: 1000, HSL: colormath.HSL{L: 0.47}}
	darkMuted := &swatch.Swatch{Color: colormath.RGB{R: 200, G: 40, B: 40}, Population: 3000, HSL: colormath.HSL{L: 0.47}}
	muted := &swatch.Swatch{Color: colormath.RGB{R: 90, G: 100, B: 90}, Population: 1000, HSL: colormath.HSL{L: 0.37}}

	result := SelectSwatches(paletteOf(map[swatch.Target]*swatch.Swatch{
		swatch.Vibrant:   vibrant,
		swatch.Muted:     muted,
		swatch.DarkMuted: darkMuted,
	}))

	// Vibrant scores 5x its population term; DarkMuted only 1x of a 3x population.
	if want := colormath.Brighten(vibrant.Color); result.Primary != want {
		t.Errorf("Primary = %v, want %v", result.Primary, want)
	}
	if result.Secondary != darkMuted.Color {
		t.Errorf("Secondary = %v, want %v", result.Secondary, darkMuted.Color)
	}
}

func TestSelectSwatches_RelaxedRetry(t *testing.T) {
	dim := &swatch.Swatch{Color: colormath.RGB{R: 20, G: 60, B: 20}, Population: 50, HSL: colormath.HSL{L: 0.15}}

	result := SelectSwatches(paletteOf(map[swatch.Target]*swatch.Swatch{swatch.DarkVibrant: dim}))

	if want := colormath.Brighten(dim.Color); result.Primary != want {
		t.Errorf("Primary = %v, want %v from the relaxed pass", result.Primary, want)
	}
	if result.Secondary != dim.Color {
		t.Errorf("Secondary = %v, want %v", result.Secondary, dim.Color)
	}
}

func TestSelectSwatches_StrictPassWins(t *testing.T) {
	// The dim swatch would win on score but fails the strict filter.
	dim := &swatch.Swatch{Color: colormath.RGB{R: 200, G: 20, B: 20}, Population: 9000, HSL: colormath.HSL{L: 0.1}}
	ok := &swatch.Swatch{Color: colormath.RGB{R: 100, G: 120, B: 100}, Population: 200, HSL: colormath.HSL{L: 0.43}}

	result := SelectSwatches(paletteOf(map[swatch.Target]*swatch.Swatch{
		swatch.Vibrant:    dim,
		swatch.LightMuted: ok,
	}))

	if want := colormath.Brighten(ok.Color); result.Primary != want {
		t.Errorf("Primary = %v, want %v", result.Primary, want)
	}
	if result.Secondary != ok.Color {
		t.Errorf("Secondary = %v, want %v", result.Secondary, ok.Color)
	}
}

func TestRankSwatches_EqualScoresKeepEarliest(t *testing.T) {
	c := colormath.RGB{R: 120, G: 100, B: 100}
	lightMuted := &swatch.Swatch{Color: c, Population: 400, HSL: colormath.HSL{L: 0.6}}
	muted := &swatch.Swatch{Color: c, Population: 400, HSL: colormath.HSL{L: 0.4}}

	best, second := rankSwatches(paletteOf(map[swatch.Target]*swatch.Swatch{
		swatch.LightMuted: lightMuted,
		swatch.Muted:      muted,
	}), true)

	if best != lightMuted {
		t.Error("equal later score displaced the earlier best swatch")
	}
	if second != muted {
		t.Error("expected the later equal swatch as runner-up")
	}
}

type stubGenerator struct {
	palette swatch.Palette
	err     error
}

func (g stubGenerator) Generate(imaging.PixelGrid) (swatch.Palette, error) {
	return g.palette, g.err
}

func TestNamedPaletteExtractor(t *testing.T) {
	grid := createInMemoryGrid(10, 10, color.NRGBA{R: 1, A: 255})

	vibrant := &swatch.Swatch{Color: colormath.RGB{R: 30, G: 200, B: 30}, Population: 800, HSL: colormath.HSL{L: 0.45}}
	e := NewNamedPaletteExtractor(stubGenerator{palette: paletteOf(map[swatch.Target]*swatch.Swatch{swatch.Vibrant: vibrant})})

	result, err := e.Extract(grid)
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if result.Primary != colormath.Brighten(vibrant.Color) {
		t.Errorf("Primary = %v", result.Primary)
	}

	boom := errors.New("boom")
	_, err = NewNamedPaletteExtractor(stubGenerator{err: boom}).Extract(grid)
	if !errors.Is(err, boom) {
		t.Errorf("expected generator error to propagate, got %v", err)
	}
}

func TestNamedPaletteExtractor_RealGenerator(t *testing.T) {
	grid := createInMemoryGrid(100, 100,
		color.NRGBA{R: 230, G: 30, B: 30, A: 255},
		color.NRGBA{R: 20, G: 20, B: 90, A: 255},
	)

	result, err := NewNamedPaletteExtractor(nil).Extract(grid)
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if result.Primary == colormath.White {
		t.Error("expected a swatch color, got white")
	}
	if result.AverageBrightness != 0.5 {
		t.Errorf("AverageBrightness = %f, want 0.5", result.AverageBrightness)
	}
}
