package domain

import "math"

// GeoPoint represents a geographic coordinate (WGS 84) in degrees.
type GeoPoint struct {
	Lon float64 `json:"lon"`
	Lat float64 `json:"lat"`
}

// ProjectedPoint is a point in map units. X grows eastward from the
// antimeridian, Y grows southward from the projection's northern limit.
type ProjectedPoint struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// ProjectedRect is an axis-aligned rectangle in map units.
type ProjectedRect struct {
	MinX   float64 `json:"min_x"`
	MinY   float64 `json:"min_y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// MaxX returns the eastern edge of the rectangle.
func (r ProjectedRect) MaxX() float64 { return r.MinX + r.Width }

// MaxY returns the southern edge of the rectangle.
func (r ProjectedRect) MaxY() float64 { return r.MinY + r.Height }

// IsDegenerate reports whether the rectangle has no area or contains
// non-finite coordinates.
func (r ProjectedRect) IsDegenerate() bool {
	for _, v := range [...]float64{r.MinX, r.MinY, r.Width, r.Height} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return true
		}
	}
	return r.Width <= 0 || r.Height <= 0
}

// Bounds represents a geographic bounding box. West may be greater than
// East when the box crosses the antimeridian.
type Bounds struct {
	West  float64 `json:"west"`
	South float64 `json:"south"`
	East  float64 `json:"east"`
	North float64 `json:"north"`
}
