// Package layer turns feed features into styled map primitives and keeps them in overlay groups.
package layer

import (
	"github.com/woozymasta/quakemap/internal/geo"
	"github.com/woozymasta/quakemap/internal/style"

	"github.com/paulmach/orb"
)

// Primitive kinds as written to the "kind" property.
const (
	KindCircleMarker = "circle_marker"
	KindPolyline     = "polyline"
)

// Primitive is a visual element of an overlay.
type Primitive interface {
	Kind() string
	GeoJSON() geo.GeoJSONFeature
}

// CircleMarker is an earthquake drawn as a circle at its epicenter.
type CircleMarker struct {
	Place     string
	Popup     string
	Style     style.Descriptor
	Lon       float64
	Lat       float64
	Depth     float64
	Magnitude float64
}

// Kind implements Primitive.
func (CircleMarker) Kind() string { return KindCircleMarker }

// GeoJSON implements Primitive.
func (m CircleMarker) GeoJSON() geo.GeoJSONFeature {
	return geo.GeoJSONFeature{
		Type: "Feature",
		Geometry: geo.GeoJSONGeometry{
			Type:        "Point",
			Coordinates: []float64{m.Lon, m.Lat, m.Depth},
		},
		Properties: map[string]any{
			"kind":  KindCircleMarker,
			"mag":   m.Magnitude,
			"place": m.Place,
			"popup": m.Popup,
			"style": m.Style,
		},
	}
}

// Polyline is a plate boundary drawn as one or more connected lines.
type Polyline struct {
	Lines orb.MultiLineString
	Style style.LineStyle
}

// Kind implements Primitive.
func (Polyline) Kind() string { return KindPolyline }

// GeoJSON implements Primitive.
func (p Polyline) GeoJSON() geo.GeoJSONFeature {
	coords := make([][][]float64, 0, len(p.Lines))
	for _, ls := range p.Lines {
		line := make([][]float64, 0, len(ls))
		for _, pt := range ls {
			line = append(line, []float64{pt.Lon(), pt.Lat()})
		}
		coords = append(coords, line)
	}

	return geo.GeoJSONFeature{
		Type: "Feature",
		Geometry: geo.GeoJSONGeometry{
			Type:        "MultiLineString",
			Coordinates: coords,
		},
		Properties: map[string]any{
			"kind":  KindPolyline,
			"style": p.Style,
		},
	}
}
