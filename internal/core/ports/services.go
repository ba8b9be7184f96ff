package ports

import (
	"context"

	"github.com/samirrijal/utmgrid/internal/core/domain"
)

// BoundaryComputer computes the zone boundary segments crossing a
// projected viewport. grid.Generator implements it.
type BoundaryComputer interface {
	Compute(viewport domain.ProjectedRect) ([]domain.BoundarySegment, error)
}

// BoundaryPublisher publishes computed boundary sets to a message broker.
type BoundaryPublisher interface {
	PublishBoundaries(ctx context.Context, set domain.BoundarySet) error
}

// CacheService provides read-through caching.
type CacheService interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttlSeconds int) error
	Delete(ctx context.Context, key string) error
}

// SegmentRenderer is the drawing surface an overlay paints boundary
// segments onto. Coordinates are map units.
type SegmentRenderer interface {
	StrokeLine(start, end domain.ProjectedPoint, width float64)
	DrawLabel(at domain.ProjectedPoint, text string)
}
