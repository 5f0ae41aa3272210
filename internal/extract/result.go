package extract

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ironsheep/colorfetch/internal/colormath"
	"github.com/ironsheep/colorfetch/internal/imaging"
)

// Result is the color pair extracted from one image.
type Result struct {
	// Primary is the foreground color.
	Primary colormath.RGB `json:"primary"`

	// Secondary is the background color.
	Secondary colormath.RGB `json:"secondary"`

	// AverageBrightness is the overall brightness estimate in [0, 1].
	AverageBrightness float64 `json:"averageBrightness"`
}

// Fallback is returned whenever extraction cannot complete.
var Fallback = Result{
	Primary:           colormath.White,
	Secondary:         colormath.White,
	AverageBrightness: 0.5,
}

// Normalize applies colormath.Normalize with floor to both colors and returns
// the new result. The receiver is not modified.
func (r Result) Normalize(floor float64) Result {
	return Result{
		Primary:           colormath.Normalize(r.Primary, floor),
		Secondary:         colormath.Normalize(r.Secondary, floor),
		AverageBrightness: r.AverageBrightness,
	}
}

// Extractor computes a Result from decoded pixels.
//
// Implementations are pure CPU work and must be safe for concurrent use.
type Extractor interface {
	Extract(grid imaging.PixelGrid) (Result, error)
}

// Strategy selects the extraction algorithm.
type Strategy int

const (
	// MedianCut quantizes the image with modified median cut and picks the
	// two heaviest colorful boxes.
	MedianCut Strategy = iota

	// NamedPalette picks from Vibrant/Muted style swatches by a fixed
	// weight table.
	NamedPalette
)

// ErrInvalidStrategy is returned by ParseStrategy for unknown names.
var ErrInvalidStrategy = errors.New("invalid strategy")

var strategyNames = map[Strategy]string{
	MedianCut:    "median_cut",
	NamedPalette: "named_palette",
}

// Strategies returns every strategy in declaration order.
func Strategies() []Strategy {
	return []Strategy{MedianCut, NamedPalette}
}

// String returns the wire name of the strategy, or "Strategy(n)" for values
// outside the enumeration.
func (s Strategy) String() string {
	if name, ok := strategyNames[s]; ok {
		return name
	}
	return fmt.Sprintf("Strategy(%d)", int(s))
}

// ParseStrategy maps a wire name to its Strategy. Matching ignores case and
// surrounding space.
func ParseStrategy(name string) (Strategy, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for s, n := range strategyNames {
		if n == name {
			return s, nil
		}
	}
	return 0, fmt.Errorf("%w: %q (want median_cut or named_palette)", ErrInvalidStrategy, name)
}

// MarshalText implements encoding.TextMarshaler.
func (s Strategy) MarshalText() ([]byte, error) {
	name, ok := strategyNames[s]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrInvalidStrategy, int(s))
	}
	return []byte(name), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Strategy) UnmarshalText(text []byte) error {
	parsed, err := ParseStrategy(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}
