package grid

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/samirrijal/utmgrid/internal/core/domain"
	"github.com/samirrijal/utmgrid/internal/pkg/geospatial"
)

// maxWalk bounds the zone walk: a viewport at most one world wide has at
// most 61 zone edges in its closed x-range.
const maxWalk = domain.ZoneCount + 1

// span is a closed interval.
type span struct {
	min, max float64
}

func (s span) intersect(o span) (span, bool) {
	r := span{min: math.Max(s.min, o.min), max: math.Min(s.max, o.max)}
	return r, r.min <= r.max
}

// subtract removes the interior of o from every span in ss, dropping
// pieces that shrink to a point.
func subtract(ss []span, o span) []span {
	out := ss[:0:0]
	for _, s := range ss {
		if lo := (span{min: s.min, max: math.Min(s.max, o.min)}); lo.max > lo.min {
			out = append(out, lo)
		}
		if hi := (span{min: math.Max(s.min, o.max), max: s.max}); hi.max > hi.min {
			out = append(out, hi)
		}
	}
	return out
}

// Generator enumerates the zone boundaries crossing a viewport. It keeps
// no state between calls and is safe for concurrent use.
type Generator struct {
	catalog *Catalog
	logger  *slog.Logger
	limit   int
}

// NewGenerator creates a Generator over catalog. A nil logger uses
// slog.Default().
func NewGenerator(catalog *Catalog, logger *slog.Logger) *Generator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Generator{catalog: catalog, logger: logger, limit: maxWalk}
}

// Catalog returns the catalog the generator reads.
func (g *Generator) Catalog() *Catalog { return g.catalog }

// Compute returns every zone boundary segment intersecting viewport,
// clipped to it and ordered east to west.
//
// Each visited zone contributes its western boundary, labelled with the
// zone itself, so a renderer placing labels just east of each line
// prints every zone number inside its zone. Degenerate viewports and
// viewports outside the UTM envelope yield an empty slice. The only
// error is domain.ErrInvariantViolation.
func (g *Generator) Compute(viewport domain.ProjectedRect) ([]domain.BoundarySegment, error) {
	segs := []domain.BoundarySegment{}
	if viewport.IsDegenerate() {
		return segs, nil
	}

	window, ok := span{min: viewport.MinY, max: viewport.MaxY()}.intersect(g.catalog.envelope)
	if !ok {
		return segs, nil
	}

	world := geospatial.WorldSize
	minX, maxX := viewport.MinX, viewport.MaxX()
	if maxX-minX > world {
		maxX = minX + world
	}

	// Walk in the frame of the world copy holding the eastern edge.
	shift := math.Floor(maxX/world) * world
	east := zoneIndex(maxX - shift)
	west := zoneIndex(minX - shift)
	if west < east-domain.ZoneCount {
		west = east - domain.ZoneCount
	}

	steps := 0
	for u := east; u >= west; u-- {
		steps++
		if steps > g.limit {
			g.logger.Error("zone walk exceeded bound",
				"limit", g.limit,
				"viewport", viewport,
				"east_index", east,
				"west_index", west,
			)
			return nil, fmt.Errorf("zone walk over %+v exceeded %d steps: %w",
				viewport, g.limit, domain.ErrInvariantViolation)
		}
		zone, offset := wrapZone(u)
		segs = g.appendZone(segs, zone, shift+offset, minX, maxX, window)
	}

	return segs, nil
}

// zoneIndex returns the unwrapped index u of the zone edge at or west of
// x (edgeX(u) <= x < edgeX(u+1)), x being relative to a world copy. The
// float estimate is corrected against edgeX so the comparisons match the
// x values later emitted.
func zoneIndex(x float64) int {
	u := int(math.Floor(x / geospatial.ZoneWidth()))
	for edgeX(u) > x {
		u--
	}
	for edgeX(u+1) <= x {
		u++
	}
	return u
}

// wrapZone maps an unwrapped zone index to its zone number and the x
// offset of the world copy it falls in.
func wrapZone(u int) (domain.Zone, float64) {
	n := domain.ZoneCount
	copies := u / n
	if u%n < 0 {
		copies--
	}
	return domain.Zone(u-copies*n) + 1, float64(copies) * geospatial.WorldSize
}

// edgeX is the western edge of the zone at unwrapped index u.
func edgeX(u int) float64 {
	zone, offset := wrapZone(u)
	return offset + geospatial.LonToX(geospatial.ZoneWestLon(zone))
}

func (g *Generator) appendZone(segs []domain.BoundarySegment, zone domain.Zone, offset, minX, maxX float64, window span) []domain.BoundarySegment {
	regular := []span{window}

	g.catalog.forZone(zone, func(e *Entry) {
		band := span{min: e.MinY(), max: e.MaxY()}
		clip, ok := window.intersect(band)
		if !ok {
			return
		}
		for _, t := range e.Segments {
			if s, ok := clipTemplate(t, offset, minX, maxX, clip); ok {
				segs = append(segs, s)
			}
		}
		regular = subtract(regular, band)
	})

	x := offset + geospatial.LonToX(geospatial.ZoneWestLon(zone))
	if x < minX || x > maxX {
		return segs
	}
	for _, r := range regular {
		if r.max <= r.min {
			continue
		}
		segs = append(segs, domain.BoundarySegment{
			NormalZone: zone,
			Start:      domain.ProjectedPoint{X: x, Y: r.min},
			End:        domain.ProjectedPoint{X: x, Y: r.max},
		})
	}
	return segs
}

// clipTemplate shifts a catalog segment into the viewport's world copy
// and clips it. Vertical segments are clipped to clip; horizontal ones
// must lie within clip and are clipped to [minX, maxX].
func clipTemplate(t domain.BoundarySegment, offset, minX, maxX float64, clip span) (domain.BoundarySegment, bool) {
	s := t
	s.Start.X += offset
	s.End.X += offset

	if t.IsVertical() {
		if s.Start.X < minX || s.Start.X > maxX {
			return s, false
		}
		ys, ok := span{min: s.Start.Y, max: s.End.Y}.intersect(clip)
		if !ok || ys.max <= ys.min {
			return s, false
		}
		s.Start.Y, s.End.Y = ys.min, ys.max
		return s, true
	}

	if s.Start.Y < clip.min || s.Start.Y > clip.max {
		return s, false
	}
	xs, ok := span{min: s.Start.X, max: s.End.X}.intersect(span{min: minX, max: maxX})
	if !ok || xs.max <= xs.min {
		return s, false
	}
	s.Start.X, s.End.X = xs.min, xs.max
	return s, true
}
