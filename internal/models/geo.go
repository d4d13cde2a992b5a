package models

import (
	"fmt"

	"github.com/paulmach/orb"
)

// LatLng represents a geographic coordinate
type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Point converts to an orb.Point (lng/lat order, as orb expects)
func (l LatLng) Point() orb.Point {
	return orb.Point{l.Lng, l.Lat}
}

// DisplayString formats a coordinate the way the dashboard shows it
func (l LatLng) DisplayString() string {
	return fmt.Sprintf("%.4f° N, %.4f° W", l.Lat, l.Lng)
}

// BoundingBox is an axis-aligned box in degrees, used for routing avoid areas
// and for fitting the camera to a rendered path
type BoundingBox struct {
	West  float64 `json:"west"`
	North float64 `json:"north"`
	East  float64 `json:"east"`
	South float64 `json:"south"`
}

// BoxAround returns a box centered on c with the given half-width in
// degrees. Not geodesically exact.
func BoxAround(c LatLng, halfWidth float64) BoundingBox {
	return BoundingBox{
		West:  c.Lng - halfWidth,
		North: c.Lat + halfWidth,
		East:  c.Lng + halfWidth,
		South: c.Lat - halfWidth,
	}
}

// PathBounds returns the bounding box of a path, ok=false for an empty path
func PathBounds(path []LatLng) (BoundingBox, bool) {
	if len(path) == 0 {
		return BoundingBox{}, false
	}
	b := BoundingBox{
		West:  path[0].Lng,
		North: path[0].Lat,
		East:  path[0].Lng,
		South: path[0].Lat,
	}
	for _, p := range path[1:] {
		if p.Lng < b.West {
			b.West = p.Lng
		}
		if p.Lng > b.East {
			b.East = p.Lng
		}
		if p.Lat > b.North {
			b.North = p.Lat
		}
		if p.Lat < b.South {
			b.South = p.Lat
		}
	}
	return b, true
}
