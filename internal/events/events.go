// Package events publishes request lifecycle events to RabbitMQ for the
// refund process.
package events

import (
	"context"
	"time"

	"roadside/internal/models"
)

const RequestCancelledQueue = "request.cancelled"

type RequestCancelledEvent struct {
	RequestId   string    `json:"requestId"`
	Source      string    `json:"source"`
	CustomerId  string    `json:"customerId"`
	Fee         float64   `json:"fee"`
	Refund      float64   `json:"refund"`
	CancelledAt time.Time `json:"cancelledAt"`
}

func NewRequestCancelledEvent(c models.Cancellation) RequestCancelledEvent {
	return RequestCancelledEvent{
		RequestId:   c.RequestId,
		Source:      string(c.Source),
		CustomerId:  c.CustomerId,
		Fee:         c.Fee,
		Refund:      c.Refund,
		CancelledAt: c.CancelledAt,
	}
}

// NopPublisher drops events. Used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) RequestCancelled(ctx context.Context, c models.Cancellation) error {
	return nil
}

func (NopPublisher) Close() error {
	return nil
}
