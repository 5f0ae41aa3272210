// Package colormath provides the pure color arithmetic used by the extraction
// strategies: HSB brightness and saturation, HSP-style perceived brightness,
// brightening, and brightness-floor normalization.
//
// Every function in this package is stateless and safe for concurrent use.
package colormath

import (
	"fmt"
	"image/color"
	"math"

	"github.com/lucasb-eyer/go-colorful"
)

// RGB represents an RGB color with 8-bit components.
//
// RGB is a comparable value type and can be used directly as a map key.
type RGB struct {
	R uint8 `json:"r"` // Red component (0-255)
	G uint8 `json:"g"` // Green component (0-255)
	B uint8 `json:"b"` // Blue component (0-255)
}

// White is the color used for every fallback case.
var White = RGB{R: 255, G: 255, B: 255}

// HSL represents a color in HSL (Hue, Saturation, Lightness) color space.
type HSL struct {
	H float64 `json:"h"` // Hue: 0-360 degrees
	S float64 `json:"s"` // Saturation: 0-1
	L float64 `json:"l"` // Lightness: 0-1
}

// brightenFactor is the per-channel scale used by Brighten.
const brightenFactor = 0.7

// brightenFloor is the smallest non-zero channel value Brighten produces,
// round(1/(1-brightenFactor)).
var brightenFloor = int(math.Round(1 / (1 - brightenFactor)))

// FromColor converts any color.Color to 8-bit RGB, discarding alpha.
func FromColor(c color.Color) RGB {
	r, g, b, _ := c.RGBA()
	return RGB{R: uint8(r >> 8), G: uint8(g >> 8), B: uint8(b >> 8)}
}

// Hex returns the color in "#RRGGBB" form.
func (c RGB) Hex() string {
	return fmt.Sprintf("#%02X%02X%02X", c.R, c.G, c.B)
}

// String implements fmt.Stringer.
func (c RGB) String() string {
	return fmt.Sprintf("R %d / G %d / B %d", c.R, c.G, c.B)
}

// HSL converts the color to HSL space.
func (c RGB) HSL() HSL {
	h, s, l := c.colorful().Hsl()
	return HSL{H: h, S: s, L: l}
}

func (c RGB) colorful() colorful.Color {
	return colorful.Color{
		R: float64(c.R) / 255.0,
		G: float64(c.G) / 255.0,
		B: float64(c.B) / 255.0,
	}
}

// Brightness returns the HSB value channel of the color, max(r,g,b)/255.
//
// The result is always in [0, 1]: 0 for black, 1 for any color with a fully
// saturated channel.
func Brightness(r, g, b uint8) float64 {
	_, _, v := RGB{R: r, G: g, B: b}.colorful().Hsv()
	return v
}

// Colorfulness returns the HSB saturation channel of the color.
//
// The result is 0 for black and for every gray (r == g == b), and
// (max-min)/max otherwise.
func Colorfulness(r, g, b uint8) float64 {
	_, s, _ := RGB{R: r, G: g, B: b}.colorful().Hsv()
	return s
}

// PerceivedBrightness estimates how bright a color looks to a human viewer.
//
// It uses the HSP model, sqrt(0.299·r² + 0.587·g² + 0.114·b²) / 255, which
// weights green most heavily. Use it wherever "which of these looks brighter"
// matters; use Brightness for the raw HSB value.
func PerceivedBrightness(c RGB) float64 {
	r := float64(c.R)
	g := float64(c.G)
	b := float64(c.B)
	return math.Sqrt(0.299*r*r+0.587*g*g+0.114*b*b) / 255
}

// Brighten returns a brighter version of the color.
//
// Pure black becomes (3,3,3). Otherwise every channel below 3 but above 0 is
// lifted to 3 and every other channel v becomes min(255, round(v/0.7)).
func Brighten(c RGB) RGB {
	if c.R == 0 && c.G == 0 && c.B == 0 {
		v := uint8(brightenFloor)
		return RGB{R: v, G: v, B: v}
	}
	return RGB{
		R: brightenChannel(c.R),
		G: brightenChannel(c.G),
		B: brightenChannel(c.B),
	}
}

func brightenChannel(v uint8) uint8 {
	if v > 0 && int(v) < brightenFloor {
		return uint8(brightenFloor)
	}
	scaled := math.Round(float64(v) / brightenFactor)
	if scaled > 255 {
		return 255
	}
	return uint8(scaled)
}

// Normalize guarantees a minimum HSB brightness for the color.
//
// When the color's value channel is already at or above floor the color is
// returned unchanged. Otherwise hue and saturation are kept and the value
// channel is raised to floor. The 8-bit result never falls below floor
// because the target channel is rounded up.
//
// floor must lie in [0, 1]; callers validate it.
func Normalize(c RGB, floor float64) RGB {
	h, s, v := c.colorful().Hsv()
	if v >= floor {
		return c
	}
	target := math.Ceil(floor*255-1e-9) / 255
	if target > 1 {
		target = 1
	}
	r, g, b := colorful.Hsv(h, s, target).RGB255()
	return RGB{R: r, G: g, B: b}
}
