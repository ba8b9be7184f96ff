package metrics

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"
)

var (
	// HTTP metrics
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "utmgrid",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total HTTP requests processed",
	}, []string{"method", "path", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "utmgrid",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency in seconds",
		Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
	}, []string{"method", "path"})

	httpResponseSize = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "utmgrid",
		Subsystem: "http",
		Name:      "response_size_bytes",
		Help:      "HTTP response size in bytes",
		Buckets:   prometheus.ExponentialBuckets(100, 10, 6),
	}, []string{"method", "path"})

	// Grid metrics
	BoundaryComputations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "utmgrid",
		Subsystem: "grid",
		Name:      "computations_total",
		Help:      "Total boundary computations by outcome",
	}, []string{"outcome"})

	BoundaryDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "utmgrid",
		Subsystem: "grid",
		Name:      "compute_duration_seconds",
		Help:      "Duration of boundary computations, cache lookups excluded",
		Buckets:   []float64{0.00001, 0.00005, 0.0001, 0.0005, 0.001, 0.005, 0.01},
	})

	SegmentsPerViewport = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "utmgrid",
		Subsystem: "grid",
		Name:      "segments_per_viewport",
		Help:      "Number of boundary segments returned per viewport",
		Buckets:   []float64{0, 1, 2, 5, 10, 20, 40, 80, 160},
	})

	GapMarkers = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "utmgrid",
		Subsystem: "grid",
		Name:      "gap_markers_total",
		Help:      "Total gap marker segments returned",
	})

	InvariantViolations = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "utmgrid",
		Subsystem: "grid",
		Name:      "invariant_violations_total",
		Help:      "Zone walks that exceeded their iteration bound",
	})

	BoundariesPublished = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "utmgrid",
		Subsystem: "nats",
		Name:      "published_total",
		Help:      "Boundary sets published to JetStream by outcome",
	}, []string{"outcome"})

	NATSRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "utmgrid",
		Subsystem: "nats",
		Name:      "requests_total",
		Help:      "Viewport requests answered by the NATS responder",
	}, []string{"status"})

	ActiveWebSockets = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "utmgrid",
		Subsystem: "ws",
		Name:      "active_connections",
		Help:      "Current number of active WebSocket connections",
	})

	DroppedViewports = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "utmgrid",
		Subsystem: "ws",
		Name:      "dropped_viewports_total",
		Help:      "Viewports superseded by a newer one before they were computed",
	})

	CacheHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "utmgrid",
		Subsystem: "cache",
		Name:      "hits_total",
		Help:      "Total cache hits",
	}, []string{"operation"})

	CacheMisses = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "utmgrid",
		Subsystem: "cache",
		Name:      "misses_total",
		Help:      "Total cache misses",
	}, []string{"operation"})
)

// Middleware records request metrics.
func Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		err := c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Response().StatusCode())
		path := c.Route().Path
		if path == "" {
			path = c.Path()
		}
		method := c.Method()

		httpRequestsTotal.WithLabelValues(method, path, status).Inc()
		httpRequestDuration.WithLabelValues(method, path).Observe(duration)
		httpResponseSize.WithLabelValues(method, path).Observe(float64(len(c.Response().Body())))

		return err
	}
}

// Handler returns a Fiber handler serving Prometheus /metrics endpoint.
// Scrapes must never be served from an intermediary cache.
func Handler() fiber.Handler {
	handler := fasthttpadaptor.NewFastHTTPHandler(promhttp.Handler())
	return func(c *fiber.Ctx) error {
		handler(c.Context())
		c.Set(fiber.HeaderCacheControl, "no-cache")
		return nil
	}
}
