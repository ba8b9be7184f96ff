package http

import (
	"github.com/nats-io/nats.go"
	"github.com/samirrijal/utmgrid/internal/adapters/valkey"
	"github.com/samirrijal/utmgrid/internal/core/usecases"
)

// Dependencies holds all services needed by HTTP handlers.
type Dependencies struct {
	Boundaries *usecases.BoundaryService
	Projection *usecases.ProjectionService
	NATS       *nats.Conn
	Cache      *valkey.Cache
}
