package natsadapter

import (
	"context"
	"errors"
	"fmt"

	"github.com/nats-io/nats.go"
	"github.com/samirrijal/utmgrid/internal/core/domain"
	"github.com/samirrijal/utmgrid/internal/pkg/wire"
)

// ErrRemote is returned when a responder reports a failure.
var ErrRemote = errors.New("remote boundary computation failed")

// RequestBoundaries asks a responder on subject for the boundaries of
// viewport. The deadline comes from ctx.
func RequestBoundaries(ctx context.Context, conn *nats.Conn, subject string, viewport domain.ProjectedRect) (domain.BoundarySet, error) {
	msg, err := conn.RequestWithContext(ctx, subject, wire.MarshalViewport(viewport))
	if err != nil {
		return domain.BoundarySet{}, fmt.Errorf("request %s: %w", subject, err)
	}
	return DecodeReply(msg)
}

// DecodeReply turns a responder reply into a boundary set.
func DecodeReply(msg *nats.Msg) (domain.BoundarySet, error) {
	if reason := msg.Header.Get(ErrorHeader); reason != "" {
		return domain.BoundarySet{}, fmt.Errorf("%w: %s", ErrRemote, reason)
	}
	return wire.UnmarshalBoundarySet(msg.Data)
}
