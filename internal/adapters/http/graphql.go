package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/graphql-go/graphql"

	"github.com/samirrijal/utmgrid/internal/core/domain"
	"github.com/samirrijal/utmgrid/internal/core/grid"
)

// buildSchema creates the GraphQL schema wired to our services.
func buildSchema(deps *Dependencies) (graphql.Schema, error) {
	pointType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Point",
		Fields: graphql.Fields{
			"x": &graphql.Field{Type: graphql.Float},
			"y": &graphql.Field{Type: graphql.Float},
		},
	})

	viewportType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Viewport",
		Fields: graphql.Fields{
			"min_x":  &graphql.Field{Type: graphql.Float},
			"min_y":  &graphql.Field{Type: graphql.Float},
			"width":  &graphql.Field{Type: graphql.Float},
			"height": &graphql.Field{Type: graphql.Float},
		},
	})

	segmentType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Segment",
		Fields: graphql.Fields{
			"normal_zone":    &graphql.Field{Type: graphql.Int},
			"exception_zone": &graphql.Field{Type: graphql.Int},
			"label":          &graphql.Field{Type: graphql.String},
			"gap":            &graphql.Field{Type: graphql.Boolean},
			"start":          &graphql.Field{Type: pointType},
			"end":            &graphql.Field{Type: pointType},
		},
	})

	boundarySetType := graphql.NewObject(graphql.ObjectConfig{
		Name: "BoundarySet",
		Fields: graphql.Fields{
			"viewport": &graphql.Field{Type: viewportType},
			"segments": &graphql.Field{Type: graphql.NewList(segmentType)},
		},
	})

	zoneType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Zone",
		Fields: graphql.Fields{
			"zone":         &graphql.Field{Type: graphql.Int},
			"label":        &graphql.Field{Type: graphql.String},
			"west":         &graphql.Field{Type: graphql.Float},
			"east":         &graphql.Field{Type: graphql.Float},
			"width_meters": &graphql.Field{Type: graphql.Float},
			"band":         &graphql.Field{Type: graphql.String},
			"exceptional":  &graphql.Field{Type: graphql.Boolean},
		},
	})

	exceptionType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Exception",
		Fields: graphql.Fields{
			"zone":     &graphql.Field{Type: graphql.Int},
			"band":     &graphql.Field{Type: graphql.String},
			"south":    &graphql.Field{Type: graphql.Float},
			"north":    &graphql.Field{Type: graphql.Float},
			"segments": &graphql.Field{Type: graphql.NewList(segmentType)},
		},
	})

	queryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"boundaries": &graphql.Field{
				Type:        boundarySetType,
				Description: "Zone boundaries inside a projected viewport",
				Args: graphql.FieldConfigArgument{
					"minX":   &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"minY":   &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"width":  &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"height": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					set, err := deps.Boundaries.Compute(p.Context, domain.ProjectedRect{
						MinX:   p.Args["minX"].(float64),
						MinY:   p.Args["minY"].(float64),
						Width:  p.Args["width"].(float64),
						Height: p.Args["height"].(float64),
					})
					if err != nil {
						return nil, err
					}
					return map[string]interface{}{
						"viewport": map[string]interface{}{
							"min_x":  set.Viewport.MinX,
							"min_y":  set.Viewport.MinY,
							"width":  set.Viewport.Width,
							"height": set.Viewport.Height,
						},
						"segments": segmentMaps(set.Segments),
					}, nil
				},
			},
			"project": &graphql.Field{
				Type:        pointType,
				Description: "Project a geographic point to map units",
				Args: graphql.FieldConfigArgument{
					"lon": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"lat": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					pt, err := deps.Projection.Project(domain.GeoPoint{
						Lon: p.Args["lon"].(float64),
						Lat: p.Args["lat"].(float64),
					})
					if err != nil {
						return nil, err
					}
					return pointMap(pt), nil
				},
			},
			"zone": &graphql.Field{
				Type:        zoneType,
				Description: "The UTM zone containing a geographic point",
				Args: graphql.FieldConfigArgument{
					"lon": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"lat": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					info, err := deps.Projection.LookupZone(p.Context, domain.GeoPoint{
						Lon: p.Args["lon"].(float64),
						Lat: p.Args["lat"].(float64),
					})
					if err != nil {
						return nil, err
					}
					return map[string]interface{}{
						"zone":         int(info.Zone),
						"label":        info.Label,
						"west":         info.West,
						"east":         info.East,
						"width_meters": info.WidthMeters,
						"band":         info.Band,
						"exceptional":  info.Exceptional,
					}, nil
				},
			},
			"exceptions": &graphql.Field{
				Type:        graphql.NewList(exceptionType),
				Description: "Norway and Svalbard exception entries",
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return exceptionMaps(deps.Projection.Exceptions(nil)), nil
				},
			},
		},
	})

	return graphql.NewSchema(graphql.SchemaConfig{
		Query: queryType,
	})
}

// GraphQLHandler serves the GraphQL endpoint.
func GraphQLHandler(deps *Dependencies) fiber.Handler {
	schema, err := buildSchema(deps)
	if err != nil {
		// This would be a programming error in the schema definition
		panic("graphql schema build: " + err.Error())
	}

	type gqlRequest struct {
		Query         string                 `json:"query"`
		OperationName string                 `json:"operationName"`
		Variables     map[string]interface{} `json:"variables"`
	}

	return func(c *fiber.Ctx) error {
		var req gqlRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}

		result := graphql.Do(graphql.Params{
			Schema:         schema,
			RequestString:  req.Query,
			VariableValues: req.Variables,
			OperationName:  req.OperationName,
			Context:        c.UserContext(),
		})

		return c.JSON(result)
	}
}

// Zones are a named int type, which graphql-go's Int scalar does not
// coerce, so results are flattened to maps.

func pointMap(p domain.ProjectedPoint) map[string]interface{} {
	return map[string]interface{}{"x": p.X, "y": p.Y}
}

func segmentMaps(segs []domain.BoundarySegment) []map[string]interface{} {
	out := make([]map[string]interface{}, 0, len(segs))
	for _, s := range segs {
		m := map[string]interface{}{
			"normal_zone": int(s.NormalZone),
			"label":       s.Label().String(),
			"gap":         s.IsGap(),
			"start":       pointMap(s.Start),
			"end":         pointMap(s.End),
		}
		if s.IsException() {
			m["exception_zone"] = int(s.ExceptionZone)
		}
		out = append(out, m)
	}
	return out
}

func exceptionMaps(entries []grid.Entry) []map[string]interface{} {
	out := make([]map[string]interface{}, 0, len(entries))
	for _, e := range entries {
		out = append(out, map[string]interface{}{
			"zone":     int(e.Zone),
			"band":     e.Band,
			"south":    e.South,
			"north":    e.North,
			"segments": segmentMaps(e.Segments),
		})
	}
	return out
}
