package geospatial

import (
	"fmt"
	"math"

	"github.com/samirrijal/utmgrid/internal/core/domain"
)

// The projection is spherical Mercator over a square world of WorldSize
// map units, laid out like MapKit map points: x = 0 at -180° growing
// eastward, y = 0 at MaxLatitude growing southward.
const (
	WorldSize   = 268435456.0 // 2^28
	MaxLatitude = 85.05112878
)

// WorldRect returns the projected extent of the whole world.
func WorldRect() domain.ProjectedRect {
	return domain.ProjectedRect{MinX: 0, MinY: 0, Width: WorldSize, Height: WorldSize}
}

// ZoneWidth returns the nominal width of one UTM zone in map units.
func ZoneWidth() float64 {
	return WorldSize / domain.ZoneCount
}

// LonToX converts a longitude to x. It is linear, so longitudes outside
// [-180, 180] land on the adjacent world copies.
func LonToX(lon float64) float64 {
	return (lon + 180) / 360 * WorldSize
}

// XToLon is the inverse of LonToX.
func XToLon(x float64) float64 {
	return x/WorldSize*360 - 180
}

// LatToY converts a latitude to y. Latitudes beyond ±MaxLatitude have no
// projected position and yield domain.ErrOutOfRange.
func LatToY(lat float64) (float64, error) {
	if math.IsNaN(lat) || lat > MaxLatitude || lat < -MaxLatitude {
		return 0, fmt.Errorf("latitude %v outside ±%v: %w", lat, MaxLatitude, domain.ErrOutOfRange)
	}
	m := math.Atanh(math.Sin(toRad(lat)))
	return (0.5 - m/(2*math.Pi)) * WorldSize, nil
}

// MustLatToY is LatToY for latitudes known to be projectable. It panics
// otherwise.
func MustLatToY(lat float64) float64 {
	y, err := LatToY(lat)
	if err != nil {
		panic(err)
	}
	return y
}

// YToLat is the inverse of LatToY.
func YToLat(y float64) float64 {
	m := math.Pi * (1 - 2*y/WorldSize)
	return toDeg(math.Atan(math.Sinh(m)))
}

// Project converts a geographic point to map units.
func Project(p domain.GeoPoint) (domain.ProjectedPoint, error) {
	y, err := LatToY(p.Lat)
	if err != nil {
		return domain.ProjectedPoint{}, err
	}
	return domain.ProjectedPoint{X: LonToX(p.Lon), Y: y}, nil
}

// Unproject converts map units back to a geographic point.
func Unproject(p domain.ProjectedPoint) domain.GeoPoint {
	return domain.GeoPoint{Lon: XToLon(p.X), Lat: YToLat(p.Y)}
}

// NormalizeLon wraps a longitude into [-180, 180).
func NormalizeLon(lon float64) float64 {
	l := math.Mod(lon+180, 360)
	if l < 0 {
		l += 360
	}
	return l - 180
}

// ZoneForLon returns the regular zone containing a longitude, ignoring
// the Norway and Svalbard exceptions.
func ZoneForLon(lon float64) domain.Zone {
	z := int(math.Floor((NormalizeLon(lon)+180)/domain.ZoneWidthDeg)) + 1
	if z > domain.ZoneCount {
		z = domain.ZoneCount
	}
	return domain.Zone(z)
}

// ZoneWestLon returns the nominal western meridian of a zone.
func ZoneWestLon(z domain.Zone) float64 {
	return -180 + domain.ZoneWidthDeg*float64(z-1)
}

// ProjectBounds converts a geographic box to a projected viewport. A box
// whose East is less than its West crosses the antimeridian; the result
// then extends past the eastern world edge. Latitudes are clamped to the
// projectable range.
func ProjectBounds(b domain.Bounds) (domain.ProjectedRect, error) {
	for _, v := range [...]float64{b.West, b.South, b.East, b.North} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return domain.ProjectedRect{}, fmt.Errorf("bounds %+v: %w", b, domain.ErrOutOfRange)
		}
	}
	if b.South > b.North {
		return domain.ProjectedRect{}, fmt.Errorf("south %v above north %v: %w", b.South, b.North, domain.ErrDegenerateViewport)
	}
	east := b.East
	if east < b.West {
		east += 360
	}
	top, err := LatToY(clampLat(b.North))
	if err != nil {
		return domain.ProjectedRect{}, err
	}
	bottom, err := LatToY(clampLat(b.South))
	if err != nil {
		return domain.ProjectedRect{}, err
	}
	minX := LonToX(b.West)
	return domain.ProjectedRect{
		MinX:   minX,
		MinY:   top,
		Width:  LonToX(east) - minX,
		Height: bottom - top,
	}, nil
}

func clampLat(lat float64) float64 {
	return math.Max(-MaxLatitude, math.Min(MaxLatitude, lat))
}
