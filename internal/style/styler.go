package style

// Descriptor is the style of a single circle marker.
type Descriptor struct {
	FillColor   string  `json:"fillColor" yaml:"fillColor"`
	Color       string  `json:"color" yaml:"color"`
	Radius      float64 `json:"radius" yaml:"radius"`
	Opacity     float64 `json:"opacity" yaml:"opacity"`
	FillOpacity float64 `json:"fillOpacity" yaml:"fillOpacity"`
	Weight      float64 `json:"weight" yaml:"weight"`
	Stroke      bool    `json:"stroke" yaml:"stroke"`
}

// LineStyle is the style of a boundary line.
type LineStyle struct {
	Color  string  `json:"color" yaml:"color"`
	Weight float64 `json:"weight" yaml:"weight"`
}

// Styler builds style descriptors. The zero value is ready to use.
type Styler struct{}

// Style returns the marker style for an earthquake of the given depth and magnitude.
// Radii below MinRadius are raised to it so that no marker disappears.
func (Styler) Style(depth, mag float64) Descriptor {
	radius := MagnitudeRadius(mag)
	if radius < MinRadius {
		radius = MinRadius
	}

	return Descriptor{
		FillColor:   DepthColor(depth),
		Color:       OutlineColor,
		Radius:      radius,
		Opacity:     Opacity,
		FillOpacity: FillOpacity,
		Weight:      OutlineWeight,
		Stroke:      true,
	}
}

// Line returns the plate boundary style.
func (Styler) Line() LineStyle {
	return LineStyle{Color: PlateColor, Weight: PlateWeight}
}
