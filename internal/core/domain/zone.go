package domain

import "fmt"

// ZoneCount is the number of UTM zones around the globe.
const ZoneCount = 60

// ZoneWidthDeg is the nominal longitudinal width of a zone.
const ZoneWidthDeg = 6.0

// Zone is a UTM zone number in [1, 60].
type Zone int

// NoZone marks the absence of a zone.
const NoZone Zone = 0

// Valid reports whether z is a real zone number.
func (z Zone) Valid() bool { return z >= 1 && z <= ZoneCount }

// West returns the zone adjacent to z on the west, wrapping 1 to 60.
func (z Zone) West() Zone {
	if z <= 1 {
		return ZoneCount
	}
	return z - 1
}

// East returns the zone adjacent to z on the east, wrapping 60 to 1.
func (z Zone) East() Zone {
	if z >= ZoneCount {
		return 1
	}
	return z + 1
}

// String formats the zone the way grid labels show it.
func (z Zone) String() string { return fmt.Sprintf("%02d", int(z)) }

// BoundarySegment is one drawable zone boundary line.
//
// ExceptionZone is NoZone for regular grid lines. For lines that belong
// to the Norway/Svalbard exception set it names the zone actually lying
// on the exception side of the line. A segment whose ExceptionZone equals
// its NormalZone is a gap marker: the zone does not exist in that band
// and the segment must not be drawn or labelled.
type BoundarySegment struct {
	NormalZone    Zone           `json:"normal_zone"`
	ExceptionZone Zone           `json:"exception_zone,omitempty"`
	Start         ProjectedPoint `json:"start"`
	End           ProjectedPoint `json:"end"`
}

// IsGap reports whether the segment is a gap marker.
func (s BoundarySegment) IsGap() bool {
	return s.ExceptionZone != NoZone && s.ExceptionZone == s.NormalZone
}

// IsException reports whether the segment comes from the exception catalog.
func (s BoundarySegment) IsException() bool { return s.ExceptionZone != NoZone }

// IsVertical reports whether the segment runs along a meridian.
func (s BoundarySegment) IsVertical() bool { return s.Start.X == s.End.X }

// IsHorizontal reports whether the segment runs along a parallel.
func (s BoundarySegment) IsHorizontal() bool { return s.Start.Y == s.End.Y }

// Label returns the zone number a renderer should print next to the line.
func (s BoundarySegment) Label() Zone {
	if s.ExceptionZone != NoZone && s.ExceptionZone != s.NormalZone {
		return s.ExceptionZone
	}
	return s.NormalZone
}

// BoundarySet is the result of a boundary computation for one viewport.
type BoundarySet struct {
	Viewport ProjectedRect     `json:"viewport"`
	Segments []BoundarySegment `json:"segments"`
}

// ZoneInfo describes the zone containing a geographic point.
type ZoneInfo struct {
	Zone  Zone     `json:"zone"`
	Label string   `json:"label"`
	Point GeoPoint `json:"point"`
	// West and East are the zone's actual meridians at the point's
	// latitude, which differ from the nominal ones inside the Norway and
	// Svalbard bands.
	West        float64 `json:"west"`
	East        float64 `json:"east"`
	WidthMeters float64 `json:"width_meters"`
	Band        string  `json:"band,omitempty"`
	Exceptional bool    `json:"exceptional"`
}
