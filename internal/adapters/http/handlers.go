package http

import (
	"fmt"
	"math"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/samirrijal/utmgrid/internal/core/domain"
	"github.com/samirrijal/utmgrid/internal/pkg/wire"
)

// BoundariesHandler computes the zone boundaries inside a projected viewport.
func BoundariesHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		vp, err := viewportQuery(c)
		if err != nil {
			return errBadRequest(c, err.Error())
		}

		set, err := deps.Boundaries.Compute(c.UserContext(), vp)
		if err != nil {
			return errFromDomain(c, err)
		}
		return sendBoundarySet(c, set)
	}
}

// GeoBoundariesHandler computes the zone boundaries inside a geographic box.
// An east edge west of the west edge crosses the antimeridian.
func GeoBoundariesHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		v, err := queryFloats(c, "west", "south", "east", "north")
		if err != nil {
			return errBadRequest(c, err.Error())
		}

		set, err := deps.Boundaries.ComputeGeo(c.UserContext(), domain.Bounds{
			West: v[0], South: v[1], East: v[2], North: v[3],
		})
		if err != nil {
			return errFromDomain(c, err)
		}
		return sendBoundarySet(c, set)
	}
}

// ProjectHandler converts lon/lat to map units.
func ProjectHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		v, err := queryFloats(c, "lon", "lat")
		if err != nil {
			return errBadRequest(c, err.Error())
		}

		p, err := deps.Projection.Project(domain.GeoPoint{Lon: v[0], Lat: v[1]})
		if err != nil {
			return errFromDomain(c, err)
		}
		return c.JSON(p)
	}
}

// UnprojectHandler converts map units to lon/lat.
func UnprojectHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		v, err := queryFloats(c, "x", "y")
		if err != nil {
			return errBadRequest(c, err.Error())
		}

		g, err := deps.Projection.Unproject(domain.ProjectedPoint{X: v[0], Y: v[1]})
		if err != nil {
			return errFromDomain(c, err)
		}
		return c.JSON(g)
	}
}

// ZoneLookupHandler returns the zone containing lon/lat.
func ZoneLookupHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		v, err := queryFloats(c, "lon", "lat")
		if err != nil {
			return errBadRequest(c, err.Error())
		}

		info, err := deps.Projection.LookupZone(c.UserContext(), domain.GeoPoint{Lon: v[0], Lat: v[1]})
		if err != nil {
			return errFromDomain(c, err)
		}
		return c.JSON(info)
	}
}

// ExceptionsHandler lists the Norway and Svalbard exception entries,
// optionally only those touching a viewport.
func ExceptionsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var filter *domain.ProjectedRect
		if c.Query("min_x") != "" || c.Query("min_y") != "" || c.Query("width") != "" || c.Query("height") != "" {
			vp, err := viewportQuery(c)
			if err != nil {
				return errBadRequest(c, err.Error())
			}
			filter = &vp
		}
		offset, limit := pageQuery(c)
		page := paginate(deps.Projection.Exceptions(filter), offset, limit)
		SetLinkHeaders(c, page.Pagination)
		return c.JSON(page)
	}
}

// sendBoundarySet writes set as JSON, or in the wire encoding when the
// client prefers it.
func sendBoundarySet(c *fiber.Ctx, set domain.BoundarySet) error {
	c.Vary(fiber.HeaderAccept)
	if c.Accepts(fiber.MIMEApplicationJSON, wire.ContentType) == wire.ContentType {
		c.Set(fiber.HeaderContentType, wire.ContentType)
		return c.Send(wire.MarshalBoundarySet(set))
	}
	return c.JSON(set)
}

func viewportQuery(c *fiber.Ctx) (domain.ProjectedRect, error) {
	v, err := queryFloats(c, "min_x", "min_y", "width", "height")
	if err != nil {
		return domain.ProjectedRect{}, err
	}
	return domain.ProjectedRect{MinX: v[0], MinY: v[1], Width: v[2], Height: v[3]}, nil
}

// queryFloats parses the named query parameters, all of which are required
// and must be finite.
func queryFloats(c *fiber.Ctx, names ...string) ([]float64, error) {
	out := make([]float64, len(names))
	for i, name := range names {
		raw := c.Query(name)
		if raw == "" {
			return nil, fmt.Errorf("missing query parameter %q", name)
		}
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return nil, fmt.Errorf("query parameter %q must be a finite number", name)
		}
		out[i] = f
	}
	return out, nil
}
