package swatch

// Target names one of the six color roles a palette fills.
type Target int

// Targets in generation order. Selection logic that walks a palette visits
// them in this order.
const (
	LightVibrant Target = iota
	Vibrant
	DarkVibrant
	LightMuted
	Muted
	DarkMuted
)

var targetNames = [...]string{
	LightVibrant: "LightVibrant",
	Vibrant:      "Vibrant",
	DarkVibrant:  "DarkVibrant",
	LightMuted:   "LightMuted",
	Muted:        "Muted",
	DarkMuted:    "DarkMuted",
}

func (t Target) String() string {
	if t < 0 || int(t) >= len(targetNames) {
		return "Unknown"
	}
	return targetNames[t]
}

// DefaultTargets returns all targets in generation order.
func DefaultTargets() []Target {
	return []Target{LightVibrant, Vibrant, DarkVibrant, LightMuted, Muted, DarkMuted}
}

// window is a min/target/max triple on one HSL axis.
type window struct {
	min, target, max float64
}

func (w window) contains(v float64) bool {
	return v >= w.min && v <= w.max
}

type targetSpec struct {
	saturation window
	lightness  window
}

var (
	lightLightness  = window{min: 0.55, target: 0.74, max: 1}
	normalLightness = window{min: 0.3, target: 0.5, max: 0.7}
	darkLightness   = window{min: 0, target: 0.26, max: 0.45}

	vibrantSaturation = window{min: 0.35, target: 1, max: 1}
	mutedSaturation   = window{min: 0, target: 0.3, max: 0.4}
)

var targetSpecs = map[Target]targetSpec{
	LightVibrant: {saturation: vibrantSaturation, lightness: lightLightness},
	Vibrant:      {saturation: vibrantSaturation, lightness: normalLightness},
	DarkVibrant:  {saturation: vibrantSaturation, lightness: darkLightness},
	LightMuted:   {saturation: mutedSaturation, lightness: lightLightness},
	Muted:        {saturation: mutedSaturation, lightness: normalLightness},
	DarkMuted:    {saturation: mutedSaturation, lightness: darkLightness},
}

// Score weights, summing to 1.
const (
	saturationWeight = 0.24
	lightnessWeight  = 0.52
	populationWeight = 0.24
)
