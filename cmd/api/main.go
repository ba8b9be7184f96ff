package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/samirrijal/utmgrid/internal/adapters/http"
	natsadapter "github.com/samirrijal/utmgrid/internal/adapters/nats"
	"github.com/samirrijal/utmgrid/internal/adapters/valkey"
	"github.com/samirrijal/utmgrid/internal/core/grid"
	"github.com/samirrijal/utmgrid/internal/core/ports"
	"github.com/samirrijal/utmgrid/internal/core/usecases"
	"github.com/samirrijal/utmgrid/internal/pkg/config"
	"github.com/samirrijal/utmgrid/internal/pkg/logging"
	"github.com/samirrijal/utmgrid/internal/pkg/telemetry"
)

func main() {
	cfg, err := config.Load("utmgrid-api")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	// Structured logging
	logging.Setup(cfg.Log.Level, cfg.Log.Format)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Telemetry
	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.InitTracer(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.TempoAddr)
		if err != nil {
			slog.Warn("telemetry init failed", "error", err)
		} else {
			defer shutdown()
		}
	}

	// Grid
	catalog, err := grid.DefaultCatalog()
	if err != nil {
		log.Fatalf("exception catalog: %v", err)
	}
	generator := grid.NewGenerator(catalog, slog.Default())

	// Cache
	var cache *valkey.Cache
	var cacheSvc ports.CacheService
	if cfg.Valkey.Enabled {
		c, err := valkey.New(cfg.Valkey.Addr)
		if err != nil {
			slog.Warn("valkey unavailable", "error", err)
		} else {
			defer c.Close()
			cache = c
			cacheSvc = c
		}
	}

	// NATS publisher for computed boundary sets
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

	// Raw NATS connection for readiness
	natsConn, err := natsadapter.RawConn(cfg.NATS.URL)
	if err != nil {
		slog.Warn("nats conn unavailable", "error", err)
		natsConn = nil
	} else {
		defer natsConn.Close()
	}

	deps := &http.Dependencies{
		Boundaries: usecases.NewBoundaryService(generator, cacheSvc, publisher, cfg.Grid.CacheTTL, slog.Default()),
		Projection: usecases.NewProjectionService(catalog),
		NATS:       natsConn,
		Cache:      cache,
	}

	// Fiber
	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    64 * 1024,
		AppName:      "UTM Grid API",
	})
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.Server.AllowOrigins,
		AllowMethods:     "GET,POST,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept",
		ExposeHeaders:    "ETag, Link, X-API-Version",
		AllowCredentials: false,
		MaxAge:           3600,
	}))

	http.SetupRoutes(app, deps)

	// Graceful shutdown
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Server.Port)
		slog.Info("API server starting", "addr", addr)
		if err := app.Listen(addr); err != nil {
			log.Fatalf("listen: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	slog.Info("shutdown signal received, draining connections", "signal", sig.String())

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		slog.Error("forced shutdown", "error", err)
	}

	slog.Info("server stopped")
}
