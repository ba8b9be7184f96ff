package usecases

import (
	"context"
	"fmt"
	"math"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/samirrijal/utmgrid/internal/core/domain"
	"github.com/samirrijal/utmgrid/internal/core/grid"
	"github.com/samirrijal/utmgrid/internal/pkg/geospatial"
	"github.com/samirrijal/utmgrid/internal/pkg/telemetry"
)

// ProjectionService exposes the coordinate helpers, zone lookup and the
// exception catalog.
type ProjectionService struct {
	catalog *grid.Catalog
}

// NewProjectionService creates a new ProjectionService.
func NewProjectionService(catalog *grid.Catalog) *ProjectionService {
	return &ProjectionService{catalog: catalog}
}

// Project converts a geographic point to map units.
func (s *ProjectionService) Project(p domain.GeoPoint) (domain.ProjectedPoint, error) {
	if math.IsNaN(p.Lon) || math.IsInf(p.Lon, 0) {
		return domain.ProjectedPoint{}, fmt.Errorf("longitude %v: %w", p.Lon, domain.ErrOutOfRange)
	}
	return geospatial.Project(p)
}

// Unproject converts map units to a geographic point.
func (s *ProjectionService) Unproject(p domain.ProjectedPoint) (domain.GeoPoint, error) {
	for _, v := range [...]float64{p.X, p.Y} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return domain.GeoPoint{}, fmt.Errorf("point %+v: %w", p, domain.ErrOutOfRange)
		}
	}
	if p.Y < 0 || p.Y > geospatial.WorldSize {
		return domain.GeoPoint{}, fmt.Errorf("y %v outside [0, %v]: %w", p.Y, geospatial.WorldSize, domain.ErrOutOfRange)
	}
	return geospatial.Unproject(p), nil
}

// LookupZone returns the zone containing p together with its actual
// extent and ground width at p's latitude.
func (s *ProjectionService) LookupZone(ctx context.Context, p domain.GeoPoint) (domain.ZoneInfo, error) {
	_, span := telemetry.Tracer().Start(ctx, telemetry.SpanZoneLookup, trace.WithAttributes(
		attribute.Float64("geo.lon", p.Lon),
		attribute.Float64("geo.lat", p.Lat),
	))
	defer span.End()

	zone, err := s.catalog.ZoneAt(p)
	if err != nil {
		return domain.ZoneInfo{}, err
	}
	west, east, ok := s.catalog.ZoneExtent(zone, p.Lat)
	if !ok {
		return domain.ZoneInfo{}, fmt.Errorf("zone %s has no extent at %v: %w", zone, p.Lat, domain.ErrInvariantViolation)
	}
	span.SetAttributes(attribute.Int(telemetry.AttrZone, int(zone)))

	info := domain.ZoneInfo{
		Zone:        zone,
		Label:       zone.String(),
		Point:       p,
		West:        west,
		East:        east,
		WidthMeters: geospatial.GroundWidth(p.Lat, west, east),
		Exceptional: west != geospatial.ZoneWestLon(zone) || east-west != domain.ZoneWidthDeg,
	}
	for _, b := range []grid.Band{grid.BandNorway, grid.BandSvalbard} {
		if b.Contains(p.Lat) {
			info.Band = b.Name
		}
	}
	return info, nil
}

// Exceptions lists the exception catalog, limited to the entries touching
// viewport when it is non-nil.
func (s *ProjectionService) Exceptions(viewport *domain.ProjectedRect) []grid.Entry {
	if viewport == nil {
		return s.catalog.Entries()
	}
	return s.catalog.Intersecting(*viewport)
}
