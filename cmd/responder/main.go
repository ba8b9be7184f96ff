package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	natsadapter "github.com/samirrijal/utmgrid/internal/adapters/nats"
	"github.com/samirrijal/utmgrid/internal/adapters/valkey"
	"github.com/samirrijal/utmgrid/internal/core/grid"
	"github.com/samirrijal/utmgrid/internal/core/ports"
	"github.com/samirrijal/utmgrid/internal/core/usecases"
	"github.com/samirrijal/utmgrid/internal/pkg/config"
	"github.com/samirrijal/utmgrid/internal/pkg/logging"
	"github.com/samirrijal/utmgrid/internal/pkg/telemetry"
)

// The responder serves boundary requests from remote renderers over NATS.
// Run several instances; they share the load through the queue group.
func main() {
	cfg, err := config.Load("utmgrid-responder")
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logging.Setup(cfg.Log.Level, cfg.Log.Format)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.InitTracer(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.TempoAddr)
		if err != nil {
			slog.Warn("telemetry init failed", "error", err)
		} else {
			defer shutdown()
		}
	}

	catalog, err := grid.DefaultCatalog()
	if err != nil {
		log.Fatalf("exception catalog: %v", err)
	}

	var cache ports.CacheService
	if cfg.Valkey.Enabled {
		c, err := valkey.New(cfg.Valkey.Addr)
		if err != nil {
			slog.Warn("valkey unavailable", "error", err)
		} else {
			defer c.Close()
			cache = c
		}
	}

	var publisher ports.BoundaryPublisher
	if cfg.Grid.Publish {
		pub, err := natsadapter.NewPublisher(cfg.NATS.URL, cfg.NATS.Stream, cfg.NATS.PublishSubject)
		if err != nil {
			slog.Warn("nats publisher unavailable", "error", err)
		} else {
			defer pub.Close()
			publisher = pub
		}
	}

	boundaries := usecases.NewBoundaryService(
		grid.NewGenerator(catalog, slog.Default()), cache, publisher, cfg.Grid.CacheTTL, slog.Default(),
	)

	conn, err := natsadapter.RawConn(cfg.NATS.URL)
	if err != nil {
		log.Fatalf("nats: %v", err)
	}

	responder := natsadapter.NewResponder(conn, boundaries, slog.Default())
	defer responder.Close()

	if err := responder.Serve(ctx, cfg.NATS.ComputeSubject, cfg.NATS.QueueGroup); err != nil {
		slog.Error("responder", "error", err)
		os.Exit(1)
	}

	<-ctx.Done()
	slog.Info("responder stopping")
}
