package order

import (
	"context"
	"time"
)

const (
	EventOrderPlaced    = "OrderPlaced"
	EventOrderPaid      = "OrderPaid"
	EventOrderShipped   = "OrderShipped"
	EventOrderDelivered = "OrderDelivered"
	EventOrderCancelled = "OrderCancelled"
)

// Event is a lifecycle notification carrying the order as persisted.
type Event struct {
	ID         string    `json:"id"`
	OrderID    string    `json:"order_id"`
	UserID     string    `json:"user_id"`
	EventType  string    `json:"event_type"`
	OccurredAt time.Time `json:"occurred_at"`
	Data       *Order    `json:"data"`
}

// Publisher delivers lifecycle events.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

func eventTypeFor(s Status) string {
	switch s {
	case StatusPaid:
		return EventOrderPaid
	case StatusShipped:
		return EventOrderShipped
	case StatusDelivered:
		return EventOrderDelivered
	case StatusCancelled:
		return EventOrderCancelled
	}
	return ""
}
