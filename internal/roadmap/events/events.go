// Package events announces settled roadmap generations to other services.
package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"

	"github.com/skillnavigator/roadmap-service/internal/roadmap/domain"
)

// Publisher emits settlement events. Delivery is best effort.
type Publisher interface {
	PublishSettled(ctx context.Context, evt domain.SettledEvent) error
}

// MessageBus is the subset of *nats.Conn the bus needs.
type MessageBus interface {
	Publish(subject string, data []byte) error
}

type Bus struct {
	conn    MessageBus
	subject string
}

func NewBus(conn MessageBus, subject string) *Bus {
	return &Bus{conn: conn, subject: subject}
}

// NewNATSBus publishes over an established NATS connection.
func NewNATSBus(nc *nats.Conn, subject string) *Bus {
	return NewBus(nc, subject)
}

func (b *Bus) PublishSettled(_ context.Context, evt domain.SettledEvent) error {
	data, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("marshal settled event: %w", err)
	}
	if err := b.conn.Publish(b.subject, data); err != nil {
		return fmt.Errorf("publish %s: %w", b.subject, err)
	}
	return nil
}

// Noop drops every event. Used when NATS_URL is unset.
type Noop struct{}

func (Noop) PublishSettled(context.Context, domain.SettledEvent) error { return nil }
