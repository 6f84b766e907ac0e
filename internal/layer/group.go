package layer

import (
	"errors"
	"fmt"
	"sync"

	"github.com/woozymasta/quakemap/internal/geo"

	"github.com/paulmach/orb"
)

var (
	// ErrAlreadyPopulated is returned when a group leaves the pending state a second time.
	ErrAlreadyPopulated = errors.New("layer group already populated")
	// ErrNotIndexed is returned when searching a group that holds more than circle markers.
	ErrNotIndexed = errors.New("layer group is not spatially indexed")
)

// State is the lifecycle position of a group.
type State int

// Group states. A group starts pending and moves exactly once.
const (
	StatePending State = iota
	StatePopulated
	StateFailed
)

// String returns the lowercase state name.
func (s State) String() string {
	switch s {
	case StatePopulated:
		return "populated"
	case StateFailed:
		return "failed"
	default:
		return "pending"
	}
}

// MarshalText lets the state appear as a string in JSON.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText parses a state name.
func (s *State) UnmarshalText(text []byte) error {
	switch string(text) {
	case "pending":
		*s = StatePending
	case "populated":
		*s = StatePopulated
	case "failed":
		*s = StateFailed
	default:
		return fmt.Errorf("unknown layer state %q", text)
	}
	return nil
}

// Group is a named overlay holding the primitives of one feed.
// It is written once by its loader and read concurrently by request handlers.
type Group struct {
	id   string
	name string

	mu         sync.RWMutex
	state      State
	reason     string
	primitives []Primitive
	index      *markerIndex
	unindexed  int
}

// NewGroup creates an empty, pending group.
func NewGroup(id, name string) *Group {
	return &Group{id: id, name: name}
}

// ID returns the route identifier of the group.
func (g *Group) ID() string { return g.id }

// Name returns the display name of the group.
func (g *Group) Name() string { return g.name }

// Populate stores the primitives and marks the group populated.
func (g *Group) Populate(primitives []Primitive) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.state != StatePending {
		return ErrAlreadyPopulated
	}

	g.primitives = primitives
	g.index = newMarkerIndex(primitives)
	for _, p := range primitives {
		if _, ok := p.(CircleMarker); !ok {
			g.unindexed++
		}
	}
	g.state = StatePopulated
	return nil
}

// Fail marks the group failed; it stays empty.
func (g *Group) Fail(reason string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.state != StatePending {
		return ErrAlreadyPopulated
	}

	g.state = StateFailed
	g.reason = reason
	return nil
}

// State returns the current state and, for a failed group, the reason.
func (g *Group) State() (State, string) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.state, g.reason
}

// Len returns the number of primitives.
func (g *Group) Len() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.primitives)
}

// Primitives returns a copy of the primitives in insertion order.
func (g *Group) Primitives() []Primitive {
	g.mu.RLock()
	defer g.mu.RUnlock()

	out := make([]Primitive, len(g.primitives))
	copy(out, g.primitives)
	return out
}

// Search returns the circle markers located inside b, in insertion order.
// Only circle markers are indexed, so a group holding polylines cannot be searched.
func (g *Group) Search(b orb.Bound) ([]Primitive, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	if g.unindexed > 0 {
		return nil, fmt.Errorf("%w: %s holds %d polylines", ErrNotIndexed, g.id, g.unindexed)
	}
	if g.index == nil {
		return nil, nil
	}

	positions := g.index.search(b, g.primitives)
	out := make([]Primitive, 0, len(positions))
	for _, pos := range positions {
		out = append(out, g.primitives[pos])
	}
	return out, nil
}

// FeatureCollection renders the whole group as GeoJSON.
func (g *Group) FeatureCollection() geo.GeoJSONFeatureCollection {
	return ToFeatureCollection(g.Primitives())
}

// ToFeatureCollection renders primitives as GeoJSON with their style in the properties.
func ToFeatureCollection(primitives []Primitive) geo.GeoJSONFeatureCollection {
	fc := geo.NewFeatureCollection(len(primitives))
	for _, p := range primitives {
		fc.Features = append(fc.Features, p.GeoJSON())
	}
	return fc
}
