package layer

import (
	"fmt"
	"html"
	"strconv"

	"github.com/woozymasta/quakemap/internal/feed"
	"github.com/woozymasta/quakemap/internal/observability"
	"github.com/woozymasta/quakemap/internal/style"

	"github.com/paulmach/orb"
	"github.com/rs/zerolog/log"
)

// Report counts the outcome of composing one document.
type Report struct {
	Added   int `json:"added"`
	Skipped int `json:"skipped"`
}

// Composer converts feed documents into primitives and fills groups with them.
type Composer struct {
	metrics *observability.Metrics
	styler  style.Styler
}

// NewComposer creates a composer. Metrics may be nil.
func NewComposer(metrics *observability.Metrics) *Composer {
	return &Composer{metrics: metrics}
}

// ComposeEarthquakes turns point features into circle markers and populates g.
func (c *Composer) ComposeEarthquakes(doc *feed.Document, g *Group) (Report, error) {
	primitives := make([]Primitive, 0, len(doc.Features))
	skipped := 0

	for i, f := range doc.Features {
		m, reason := c.circleMarker(f)
		if reason != "" {
			c.skip(g, i, reason)
			skipped++
			continue
		}
		primitives = append(primitives, m)
	}

	return c.populate(g, primitives, skipped)
}

// ComposePlates turns line and polygon features into boundary polylines and populates g.
func (c *Composer) ComposePlates(doc *feed.Document, g *Group) (Report, error) {
	primitives := make([]Primitive, 0, len(doc.Features))
	line := c.styler.Line()
	skipped := 0

	for i, f := range doc.Features {
		lines, reason := boundaryLines(f.Geometry)
		if reason != "" {
			c.skip(g, i, reason)
			skipped++
			continue
		}
		primitives = append(primitives, Polyline{Lines: lines, Style: line})
	}

	return c.populate(g, primitives, skipped)
}

func (c *Composer) populate(g *Group, primitives []Primitive, skipped int) (Report, error) {
	report := Report{Added: len(primitives), Skipped: skipped}
	if err := g.Populate(primitives); err != nil {
		return Report{}, fmt.Errorf("populate %s: %w", g.ID(), err)
	}

	if c.metrics != nil {
		c.metrics.LayerPrimitives.WithLabelValues(g.ID()).Set(float64(report.Added))
		c.metrics.FeaturesSkipped.WithLabelValues(g.ID()).Add(float64(skipped))
	}

	log.Info().
		Str("layer", g.ID()).
		Int("added", report.Added).
		Int("skipped", report.Skipped).
		Msg("Layer populated")

	return report, nil
}

func (c *Composer) skip(g *Group, pos int, reason string) {
	log.Warn().
		Str("layer", g.ID()).
		Int("feature", pos).
		Str("reason", reason).
		Msg("Skipping malformed feature")
}

// circleMarker validates an earthquake feature and styles it.
// A non-empty reason means the feature must be skipped.
func (c *Composer) circleMarker(f feed.Feature) (CircleMarker, string) {
	pt, ok := f.Geometry.(orb.Point)
	if !ok {
		return CircleMarker{}, "missing point geometry"
	}
	depth, ok := f.Depth()
	if !ok {
		return CircleMarker{}, "missing depth coordinate"
	}
	mag, ok := f.Magnitude()
	if !ok {
		return CircleMarker{}, "missing magnitude"
	}
	place := f.Place()

	return CircleMarker{
		Lon:       pt.Lon(),
		Lat:       pt.Lat(),
		Depth:     depth,
		Magnitude: mag,
		Place:     place,
		Style:     c.styler.Style(depth, mag),
		Popup:     Popup(mag, place),
	}, ""
}

// Popup returns the popup markup of an earthquake. The place is HTML-escaped.
func Popup(mag float64, place string) string {
	return "<strong>Magnitude: </strong> " + strconv.FormatFloat(mag, 'f', -1, 64) +
		"<br><strong> Location:</strong> " + html.EscapeString(place)
}

// boundaryLines flattens a line or polygon geometry into drawable lines.
func boundaryLines(g orb.Geometry) (orb.MultiLineString, string) {
	var lines orb.MultiLineString

	switch v := g.(type) {
	case orb.LineString:
		lines = orb.MultiLineString{v}
	case orb.MultiLineString:
		lines = v
	case orb.Polygon:
		lines = ringLines(v)
	case orb.MultiPolygon:
		for _, p := range v {
			lines = append(lines, ringLines(p)...)
		}
	case nil:
		return nil, "missing geometry"
	default:
		return nil, "unsupported geometry " + g.GeoJSONType()
	}

	drawable := lines[:0:0]
	for _, ls := range lines {
		if len(ls) >= 2 {
			drawable = append(drawable, ls)
		}
	}
	if len(drawable) == 0 {
		return nil, "empty boundary"
	}

	return drawable, ""
}

func ringLines(p orb.Polygon) orb.MultiLineString {
	lines := make(orb.MultiLineString, 0, len(p))
	for _, r := range p {
		lines = append(lines, orb.LineString(r))
	}
	return lines
}
