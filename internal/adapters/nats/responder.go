package natsadapter

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/nats-io/nats.go"
	"github.com/samirrijal/utmgrid/internal/core/domain"
	"github.com/samirrijal/utmgrid/internal/pkg/metrics"
	"github.com/samirrijal/utmgrid/internal/pkg/wire"
)

// ErrorHeader carries the failure reason on replies without a payload.
const ErrorHeader = "Error"

// BoundarySource computes the boundary set of a viewport.
type BoundarySource interface {
	Compute(ctx context.Context, viewport domain.ProjectedRect) (domain.BoundarySet, error)
}

// Responder answers boundary requests from remote renderers over NATS
// request/reply.
type Responder struct {
	conn   *nats.Conn
	source BoundarySource
	logger *slog.Logger
	subs   []*nats.Subscription
}

// NewResponder creates a responder on an existing connection.
func NewResponder(conn *nats.Conn, source BoundarySource, logger *slog.Logger) *Responder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Responder{conn: conn, source: source, logger: logger}
}

// Serve subscribes to subject in queue group queue, so that several
// responders share the load. It returns once the subscription is set up.
func (r *Responder) Serve(ctx context.Context, subject, queue string) error {
	sub, err := r.conn.QueueSubscribe(subject, queue, func(msg *nats.Msg) {
		if msg.Reply == "" {
			metrics.NATSRequests.WithLabelValues("no_reply").Inc()
			return
		}
		reply := nats.NewMsg(msg.Reply)
		reply.Data, reply.Header = r.Answer(ctx, msg.Data)
		if err := msg.RespondMsg(reply); err != nil {
			r.logger.Warn("nats respond", "subject", subject, "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", subject, err)
	}
	r.subs = append(r.subs, sub)
	r.logger.Info("responder listening", "subject", subject, "queue", queue)
	return nil
}

// Answer decodes a wire-encoded viewport and returns the encoded boundary
// set, or a nil payload with ErrorHeader set.
func (r *Responder) Answer(ctx context.Context, data []byte) ([]byte, nats.Header) {
	viewport, err := wire.UnmarshalViewport(data)
	if err != nil {
		metrics.NATSRequests.WithLabelValues("bad_request").Inc()
		return nil, errorHeader("bad_request: " + err.Error())
	}

	set, err := r.source.Compute(ctx, viewport)
	if err != nil {
		status := "internal_error"
		if errors.Is(err, domain.ErrOutOfRange) {
			status = "out_of_range"
		}
		metrics.NATSRequests.WithLabelValues(status).Inc()
		r.logger.Error("nats compute boundaries", "viewport", viewport, "error", err)
		return nil, errorHeader(status + ": " + err.Error())
	}

	metrics.NATSRequests.WithLabelValues("ok").Inc()
	return wire.MarshalBoundarySet(set), nil
}

// Close unsubscribes and drains.
func (r *Responder) Close() {
	for _, sub := range r.subs {
		_ = sub.Unsubscribe()
	}
	_ = r.conn.Drain()
}

func errorHeader(reason string) nats.Header {
	h := nats.Header{}
	h.Set(ErrorHeader, reason)
	return h
}
