// Package style maps earthquake attributes to marker styles.
package style

// Depth bucket colors, shallow to deep.
const (
	ColorShallow  = "#31a354"
	ColorModerate = "#fff7bc"
	ColorDeep     = "#feb24c"
	ColorVeryDeep = "#f03b20"
)

// Fixed marker and boundary styling.
const (
	OutlineColor  = "#000000"
	OutlineWeight = 0.8
	FillOpacity   = 0.5
	Opacity       = 1.0

	PlateColor  = "#ff2f00"
	PlateWeight = 2.0

	RadiusScale = 4.0
	MinRadius   = 1.0
)

// LegendEntry is one depth bucket of the legend.
type LegendEntry struct {
	Label string `json:"label"`
	Color string `json:"color"`
}

// DepthColor returns the fill color for an earthquake depth in kilometers.
// Every boundary value belongs to the shallower bucket.
func DepthColor(depth float64) string {
	switch {
	case depth <= 10:
		return ColorShallow
	case depth <= 30:
		return ColorModerate
	case depth <= 50:
		return ColorDeep
	default:
		return ColorVeryDeep
	}
}

// MagnitudeRadius returns the marker radius for a magnitude.
// Zero magnitude gets MinRadius, anything else scales linearly, negatives included.
func MagnitudeRadius(mag float64) float64 {
	if mag == 0 {
		return MinRadius
	}
	return mag * RadiusScale
}

// Legend lists the depth buckets in ascending order.
func Legend() []LegendEntry {
	return []LegendEntry{
		{Label: "<= 10 km", Color: ColorShallow},
		{Label: "10-30 km", Color: ColorModerate},
		{Label: "30-50 km", Color: ColorDeep},
		{Label: "> 50 km", Color: ColorVeryDeep},
	}
}
