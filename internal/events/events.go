// Package events fans order lifecycle notifications out to interested parties:
// connected screens and, when configured, a message broker.
package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

const (
	TypeOrderCreated = "order.created"
	TypeOrderUpdated = "order.updated"
)

type Event struct {
	Type       string          `json:"type"`
	Payload    json.RawMessage `json:"payload"`
	OccurredAt time.Time       `json:"occurred_at"`
}

// New marshals payload into an event of the given type.
func New(eventType string, payload any) (Event, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return Event{}, fmt.Errorf("marshal %s payload: %w", eventType, err)
	}
	return Event{Type: eventType, Payload: b, OccurredAt: time.Now().UTC()}, nil
}

type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

// Multi publishes to every publisher, returning the joined errors.
type Multi []Publisher

func (m Multi) Publish(ctx context.Context, e Event) error {
	var errs []error
	for _, p := range m {
		if err := p.Publish(ctx, e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Nop discards events.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }
