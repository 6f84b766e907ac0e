package layer

import (
	"github.com/dhconnelly/rtreego"
	"github.com/paulmach/orb"
)

const (
	tolerance   = 1e-6
	minChildren = 25
	maxChildren = 50
	dimensions  = 2
)

// markerItem wraps a circle marker position for R-Tree indexing.
type markerItem struct {
	rect *rtreego.Rect
	pos  int
}

func (mi *markerItem) Bounds() *rtreego.Rect {
	return mi.rect
}

// markerIndex finds circle markers inside a viewport. Coordinates are [Lon, Lat].
type markerIndex struct {
	tree *rtreego.Rtree
}

func newMarkerIndex(primitives []Primitive) *markerIndex {
	idx := &markerIndex{tree: rtreego.NewTree(dimensions, minChildren, maxChildren)}
	for i, p := range primitives {
		m, ok := p.(CircleMarker)
		if !ok {
			continue
		}
		pt := rtreego.Point{m.Lon, m.Lat}
		idx.tree.Insert(&markerItem{rect: pt.ToRect(tolerance), pos: i})
	}
	return idx
}

// search returns the positions of markers inside b, in ascending order.
func (idx *markerIndex) search(b orb.Bound, primitives []Primitive) []int {
	lengths := []float64{b.Max.Lon() - b.Min.Lon(), b.Max.Lat() - b.Min.Lat()}
	for i := range lengths {
		if lengths[i] < tolerance {
			lengths[i] = tolerance
		}
	}

	rect, err := rtreego.NewRect(rtreego.Point{b.Min.Lon(), b.Min.Lat()}, lengths)
	if err != nil {
		return nil
	}

	found := idx.tree.SearchIntersect(rect)
	hits := make([]bool, len(primitives))
	for _, s := range found {
		item, ok := s.(*markerItem)
		if !ok {
			continue
		}
		// the tree matches on the tolerance rectangle, confirm the point itself
		m := primitives[item.pos].(CircleMarker)
		if b.Contains(orb.Point{m.Lon, m.Lat}) {
			hits[item.pos] = true
		}
	}

	positions := make([]int, 0, len(found))
	for i, hit := range hits {
		if hit {
			positions = append(positions, i)
		}
	}
	return positions
}
