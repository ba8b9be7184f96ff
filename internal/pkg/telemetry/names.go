package telemetry

// Span and attribute names used by the grid services.
const (
	TracerName = "github.com/samirrijal/utmgrid"

	SpanComputeBoundaries = "grid.compute_boundaries"
	SpanZoneLookup        = "grid.zone_lookup"

	AttrViewportMinX = "grid.viewport.min_x"
	AttrViewportMinY = "grid.viewport.min_y"
	AttrViewportW    = "grid.viewport.width"
	AttrViewportH    = "grid.viewport.height"
	AttrSegments     = "grid.segments"
	AttrCacheHit     = "grid.cache_hit"
	AttrZone         = "grid.zone"
)
