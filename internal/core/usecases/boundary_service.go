package usecases

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/samirrijal/utmgrid/internal/core/domain"
	"github.com/samirrijal/utmgrid/internal/core/ports"
	"github.com/samirrijal/utmgrid/internal/pkg/geospatial"
	"github.com/samirrijal/utmgrid/internal/pkg/metrics"
	"github.com/samirrijal/utmgrid/internal/pkg/telemetry"
	"github.com/samirrijal/utmgrid/internal/pkg/wire"
)

// BoundaryService computes zone boundaries for viewports, caching
// results and optionally publishing them.
type BoundaryService struct {
	grid      ports.BoundaryComputer
	cache     ports.CacheService
	publisher ports.BoundaryPublisher
	cacheTTL  int
	logger    *slog.Logger
}

// NewBoundaryService creates a new BoundaryService. cache and publisher
// may be nil; a cacheTTL of 0 disables caching.
func NewBoundaryService(
	grid ports.BoundaryComputer,
	cache ports.CacheService,
	publisher ports.BoundaryPublisher,
	cacheTTL int,
	logger *slog.Logger,
) *BoundaryService {
	if logger == nil {
		logger = slog.Default()
	}
	return &BoundaryService{
		grid:      grid,
		cache:     cache,
		publisher: publisher,
		cacheTTL:  cacheTTL,
		logger:    logger,
	}
}

// Compute returns the boundary set for a projected viewport. Degenerate
// viewports and viewports outside the UTM envelope give an empty set.
func (s *BoundaryService) Compute(ctx context.Context, viewport domain.ProjectedRect) (domain.BoundarySet, error) {
	ctx, span := telemetry.Tracer().Start(ctx, telemetry.SpanComputeBoundaries, trace.WithAttributes(
		attribute.Float64(telemetry.AttrViewportMinX, viewport.MinX),
		attribute.Float64(telemetry.AttrViewportMinY, viewport.MinY),
		attribute.Float64(telemetry.AttrViewportW, viewport.Width),
		attribute.Float64(telemetry.AttrViewportH, viewport.Height),
	))
	defer span.End()

	cacheable := s.cache != nil && s.cacheTTL > 0 && !viewport.IsDegenerate()

	// Try cache
	cacheKey := boundaryCacheKey(viewport)
	if cacheable {
		if data, err := s.cache.Get(ctx, cacheKey); err == nil {
			set, err := wire.UnmarshalBoundarySet(data)
			if err == nil {
				metrics.CacheHits.WithLabelValues("boundaries").Inc()
				span.SetAttributes(attribute.Bool(telemetry.AttrCacheHit, true),
					attribute.Int(telemetry.AttrSegments, len(set.Segments)))
				return set, nil
			}
			s.logger.WarnContext(ctx, "discarding corrupt cache entry", "key", cacheKey, "error", err)
		}
		metrics.CacheMisses.WithLabelValues("boundaries").Inc()
	}
	span.SetAttributes(attribute.Bool(telemetry.AttrCacheHit, false))

	start := time.Now()
	segs, err := s.grid.Compute(viewport)
	metrics.BoundaryDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.BoundaryComputations.WithLabelValues("error").Inc()
		if errors.Is(err, domain.ErrInvariantViolation) {
			metrics.InvariantViolations.Inc()
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "compute boundaries")
		s.logger.ErrorContext(ctx, "boundary computation failed", "viewport", viewport, "error", err)
		return domain.BoundarySet{}, fmt.Errorf("compute boundaries: %w", err)
	}

	set := domain.BoundarySet{Viewport: viewport, Segments: segs}
	metrics.BoundaryComputations.WithLabelValues("ok").Inc()
	metrics.SegmentsPerViewport.Observe(float64(len(segs)))
	for _, seg := range segs {
		if seg.IsGap() {
			metrics.GapMarkers.Inc()
		}
	}
	span.SetAttributes(attribute.Int(telemetry.AttrSegments, len(segs)))

	if cacheable {
		if err := s.cache.Set(ctx, cacheKey, wire.MarshalBoundarySet(set), s.cacheTTL); err != nil {
			s.logger.WarnContext(ctx, "cache boundaries", "key", cacheKey, "error", err)
		}
	}

	if s.publisher != nil {
		if err := s.publisher.PublishBoundaries(ctx, set); err != nil {
			metrics.BoundariesPublished.WithLabelValues("error").Inc()
			s.logger.WarnContext(ctx, "publish boundaries", "error", err)
		} else {
			metrics.BoundariesPublished.WithLabelValues("ok").Inc()
		}
	}

	return set, nil
}

// ComputeGeo projects a geographic box and computes its boundaries. A box
// whose East is less than its West crosses the antimeridian.
func (s *BoundaryService) ComputeGeo(ctx context.Context, bounds domain.Bounds) (domain.BoundarySet, error) {
	viewport, err := geospatial.ProjectBounds(bounds)
	if err != nil {
		return domain.BoundarySet{}, err
	}
	return s.Compute(ctx, viewport)
}

// boundaryCacheKey formats the viewport exactly so distinct viewports
// never share an entry.
func boundaryCacheKey(r domain.ProjectedRect) string {
	parts := make([]string, 0, 4)
	for _, v := range [...]float64{r.MinX, r.MinY, r.Width, r.Height} {
		parts = append(parts, strconv.FormatFloat(v, 'g', -1, 64))
	}
	return "grid:boundaries:v1:" + strings.Join(parts, ":")
}
