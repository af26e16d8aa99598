// Package events publishes domain changes to a message broker so other
// services can follow customers, products and orders.
package events

import (
	"context"
	"time"

	"go.uber.org/zap"
)

const (
	CustomerCreated = "customer.created"
	CustomerUpdated = "customer.updated"
	CustomerDeleted = "customer.deleted"
	ProductCreated  = "product.created"
	ProductUpdated  = "product.updated"
	ProductDeleted  = "product.deleted"
	OrderCreated    = "order.created"
	OrderUpdated    = "order.updated"
	OrderDeleted    = "order.deleted"
	UserRegistered  = "user.registered"
)

type Event struct {
	Type       string      `json:"type"`
	EntityID   uint        `json:"entity_id"`
	OccurredAt time.Time   `json:"occurred_at"`
	Payload    interface{} `json:"payload,omitempty"`
}

func New(eventType string, id uint, payload interface{}) Event {
	return Event{Type: eventType, EntityID: id, OccurredAt: time.Now().UTC(), Payload: payload}
}

type Publisher interface {
	Publish(ctx context.Context, e Event) error
	Close() error
}

// NopPublisher drops every event. It is used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) error { return nil }
func (NopPublisher) Close() error                         { return nil }

// Emit publishes e and only logs a failure; a broker outage never fails the
// request that changed the data.
func Emit(ctx context.Context, p Publisher, logger *zap.Logger, e Event) {
	if p == nil {
		return
	}
	if err := p.Publish(ctx, e); err != nil {
		logger.Warn("failed to publish event",
			zap.String("type", e.Type),
			zap.Uint("entity_id", e.EntityID),
			zap.Error(err))
	}
}
