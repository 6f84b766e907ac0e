// Package feed downloads and decodes remote GeoJSON documents.
package feed

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

var (
	// ErrDecode is returned when the body is not valid JSON.
	ErrDecode = errors.New("decode feed")
	// ErrNotFeatureCollection is returned for valid JSON that is not a FeatureCollection.
	ErrNotFeatureCollection = errors.New("not a GeoJSON FeatureCollection")
)

// Document is a parsed FeatureCollection. Features keep the source order.
type Document struct {
	URL      string
	Features []Feature
}

// Feature is one record of a document.
// Geometry is nil when the source geometry is missing or cannot be decoded.
type Feature struct {
	ID         any
	Geometry   orb.Geometry
	Properties geojson.Properties
	depth      float64
	hasDepth   bool
}

// Depth returns the third coordinate of a point geometry.
func (f Feature) Depth() (float64, bool) {
	return f.depth, f.hasDepth
}

// Magnitude returns the numeric "mag" property.
func (f Feature) Magnitude() (float64, bool) {
	v, ok := f.Properties["mag"].(float64)
	return v, ok
}

// Place returns the "place" property, or an empty string.
func (f Feature) Place() string {
	v, _ := f.Properties["place"].(string)
	return v
}

// Internal structures for JSON parsing
type rawCollection struct {
	Type     string       `json:"type"`
	Features []rawFeature `json:"features"`
}

type rawFeature struct {
	ID         any                `json:"id,omitempty"`
	Geometry   json.RawMessage    `json:"geometry"`
	Properties geojson.Properties `json:"properties"`
}

type rawGeometry struct {
	Type        string          `json:"type"`
	Coordinates json.RawMessage `json:"coordinates"`
}

// Parse decodes a GeoJSON FeatureCollection.
// A feature whose geometry cannot be decoded is kept with a nil geometry.
func Parse(data []byte) (*Document, error) {
	var root rawCollection
	if err := json.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecode, err)
	}
	if root.Type != "FeatureCollection" {
		return nil, fmt.Errorf("%w: type %q", ErrNotFeatureCollection, root.Type)
	}

	doc := &Document{Features: make([]Feature, 0, len(root.Features))}
	for _, rf := range root.Features {
		f := Feature{ID: rf.ID, Properties: rf.Properties}
		if f.Properties == nil {
			f.Properties = geojson.Properties{}
		}

		if len(rf.Geometry) > 0 && !bytes.Equal(rf.Geometry, []byte("null")) {
			if g, err := geojson.UnmarshalGeometry(rf.Geometry); err == nil {
				f.Geometry = g.Geometry()
			}
			f.depth, f.hasDepth = pointDepth(rf.Geometry)
		}

		doc.Features = append(doc.Features, f)
	}

	return doc, nil
}

// pointDepth extracts the third coordinate of a Point, which orb.Point does not carry.
func pointDepth(raw json.RawMessage) (float64, bool) {
	var g rawGeometry
	if err := json.Unmarshal(raw, &g); err != nil || g.Type != "Point" {
		return 0, false
	}

	var coords []float64
	if err := json.Unmarshal(g.Coordinates, &coords); err != nil || len(coords) < 3 {
		return 0, false
	}

	return coords[2], true
}
