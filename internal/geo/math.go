package geo

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
)

// MaxLat is the latitude limit of the Web Mercator projection used by the map tiles.
const MaxLat = 85.05112878

// ErrInvalidBBox is returned for a malformed bounding box query.
var ErrInvalidBBox = errors.New("invalid bbox")

// ClampLat limits a latitude to the range the map can display.
func ClampLat(lat float64) float64 {
	if lat > MaxLat {
		return MaxLat
	} else if lat < -MaxLat {
		return -MaxLat
	}
	return lat
}

// ClampLon limits a longitude to [-180, 180].
func ClampLon(lon float64) float64 {
	if lon > 180 {
		return 180
	} else if lon < -180 {
		return -180
	}
	return lon
}

// ParseBBox parses "minLon,minLat,maxLon,maxLat", the order used by GeoJSON and Leaflet's
// LatLngBounds.toBBoxString. Values outside the displayable range are clamped.
func ParseBBox(s string) (orb.Bound, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return orb.Bound{}, fmt.Errorf("%w: want 4 values, got %d", ErrInvalidBBox, len(parts))
	}

	var v [4]float64
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return orb.Bound{}, fmt.Errorf("%w: %q", ErrInvalidBBox, p)
		}
		v[i] = f
	}

	minLon, minLat := ClampLon(v[0]), ClampLat(v[1])
	maxLon, maxLat := ClampLon(v[2]), ClampLat(v[3])
	if minLon > maxLon || minLat > maxLat {
		return orb.Bound{}, fmt.Errorf("%w: min corner exceeds max corner", ErrInvalidBBox)
	}

	return orb.Bound{
		Min: orb.Point{minLon, minLat},
		Max: orb.Point{maxLon, maxLat},
	}, nil
}
