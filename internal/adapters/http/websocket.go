package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/gofiber/websocket/v2"
	"github.com/samirrijal/utmgrid/internal/core/domain"
	"github.com/samirrijal/utmgrid/internal/core/usecases"
	"github.com/samirrijal/utmgrid/internal/pkg/metrics"
)

// WebSocketHandler returns a handler that streams boundary sets for the
// viewports a client sends while it pans and zooms.
// Clients send JSON: {"min_x":..,"min_y":..,"width":..,"height":..}
// Only the most recent pending viewport is computed; older ones are dropped.
func WebSocketHandler(boundaries *usecases.BoundaryService) func(*websocket.Conn) {
	return func(c *websocket.Conn) {
		defer c.Close()

		remoteAddr := c.RemoteAddr().String()
		logger := slog.Default().With("remote", remoteAddr)
		logger.Info("ws client connected")
		metrics.ActiveWebSockets.Inc()
		defer metrics.ActiveWebSockets.Dec()

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		var mu sync.Mutex

		// Helper: thread-safe write
		writeJSON := func(v interface{}) error {
			data, err := json.Marshal(v)
			if err != nil {
				return err
			}
			mu.Lock()
			defer mu.Unlock()
			return c.WriteMessage(websocket.TextMessage, data)
		}

		latest := make(chan domain.ProjectedRect, 1)
		var wg sync.WaitGroup
		wg.Add(2)

		go func() {
			defer wg.Done()
			for vp := range latest {
				set, err := boundaries.Compute(ctx, vp)
				if err != nil {
					logger.Warn("ws compute boundaries", "viewport", vp, "error", err)
					_ = writeJSON(map[string]string{"error": "boundary computation failed"})
					continue
				}
				if err := writeJSON(set); err != nil {
					return
				}
			}
		}()

		// Keep-alive ping
		go func() {
			defer wg.Done()
			ticker := time.NewTicker(30 * time.Second)
			defer ticker.Stop()
			for {
				select {
				case <-ticker.C:
					mu.Lock()
					err := c.WriteMessage(websocket.PingMessage, nil)
					mu.Unlock()
					if err != nil {
						return
					}
				case <-ctx.Done():
					return
				}
			}
		}()

		for {
			_, msg, err := c.ReadMessage()
			if err != nil {
				break
			}

			var vp domain.ProjectedRect
			if err := json.Unmarshal(msg, &vp); err != nil {
				_ = writeJSON(map[string]string{"error": "invalid JSON"})
				continue
			}
			offer(latest, vp)
		}

		// Cleanup
		close(latest)
		cancel()
		wg.Wait()
		logger.Info("ws client disconnected")
	}
}

// offer places vp in the one-slot mailbox, replacing any viewport still
// waiting there. Only the connection's reader sends on mailbox.
func offer(mailbox chan domain.ProjectedRect, vp domain.ProjectedRect) {
	select {
	case mailbox <- vp:
		return
	default:
	}
	select {
	case <-mailbox:
		metrics.DroppedViewports.Inc()
	default:
	}
	mailbox <- vp
}
