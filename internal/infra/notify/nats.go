package notify

import (
	"context"
	"fmt"

	"github.com/nats-io/nats.go"

	"github.com/runoshun/agent-swarm/internal/domain"
)

type natsConnection interface {
	Publish(subject string, data []byte) error
	Close()
}

// NATS publishes events on a NATS server.
type NATS struct {
	conn    natsConnection
	subject string
}

// NewNATS connects to the NATS server at url.
func NewNATS(url, subject string) (*NATS, error) {
	if url == "" {
		url = nats.DefaultURL
	}
	conn, err := nats.Connect(url, nats.Name("agent-swarm"))
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}
	return &NATS{conn: conn, subject: subject}, nil
}

func (n *NATS) Notify(ctx context.Context, event domain.TaskEvent) error {
	raw, err := encode(event)
	if err != nil {
		return err
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}
	if err := n.conn.Publish(Subject(n.subject, event), raw); err != nil {
		return fmt.Errorf("publish task event: %w", err)
	}
	return nil
}

func (n *NATS) Close() error {
	n.conn.Close()
	return nil
}
