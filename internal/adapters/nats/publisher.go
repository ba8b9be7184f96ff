package natsadapter

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/samirrijal/utmgrid/internal/core/domain"
	"github.com/samirrijal/utmgrid/internal/pkg/wire"
)

// Publisher implements ports.BoundaryPublisher using NATS JetStream.
// Sets are published in the wire encoding.
type Publisher struct {
	conn    *nats.Conn
	js      nats.JetStreamContext
	subject string
}

// NewPublisher connects to NATS, enables JetStream and ensures stream
// captures subject.
func NewPublisher(url, stream, subject string) (*Publisher, error) {
	conn, err := RawConn(url)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}

	js, err := conn.JetStream()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("jetstream: %w", err)
	}

	cfg := StreamConfig(stream, subject)
	if _, err := js.AddStream(cfg); err != nil {
		if !errors.Is(err, nats.ErrStreamNameAlreadyInUse) {
			conn.Close()
			return nil, fmt.Errorf("ensure stream %s: %w", stream, err)
		}
		// Stream exists; bring its config up to date
		if _, err := js.UpdateStream(cfg); err != nil {
			conn.Close()
			return nil, fmt.Errorf("update stream %s: %w", stream, err)
		}
	}

	return &Publisher{conn: conn, js: js, subject: subject}, nil
}

// StreamConfig is the JetStream stream holding computed boundary sets.
// Sets are recomputable, so the stream is short-lived and memory-backed.
func StreamConfig(stream, subject string) *nats.StreamConfig {
	return &nats.StreamConfig{
		Name:      stream,
		Subjects:  []string{subject},
		Retention: nats.LimitsPolicy,
		Discard:   nats.DiscardOld,
		MaxAge:    1 * time.Hour,
		MaxMsgs:   100_000,
		Storage:   nats.MemoryStorage,
	}
}

// PublishBoundaries publishes set to the boundary stream.
func (p *Publisher) PublishBoundaries(ctx context.Context, set domain.BoundarySet) error {
	if _, err := p.js.Publish(p.subject, wire.MarshalBoundarySet(set), nats.Context(ctx)); err != nil {
		return fmt.Errorf("publish %s: %w", p.subject, err)
	}
	return nil
}

// Conn exposes the underlying connection, e.g. for readiness checks.
func (p *Publisher) Conn() *nats.Conn {
	return p.conn
}

// Close drains and closes the connection.
func (p *Publisher) Close() {
	_ = p.conn.Drain()
}

// RawConn creates a plain NATS connection that keeps reconnecting.
func RawConn(url string) (*nats.Conn, error) {
	return nats.Connect(url,
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
}
