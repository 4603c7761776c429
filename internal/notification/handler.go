package notification

import (
	"context"
	"encoding/json"
	"errors"
	"log"

	"github.com/example/ec-store/internal/domain/order"
	"github.com/example/ec-store/internal/domain/user"
	"github.com/example/ec-store/internal/email"
)

// Mailer sends order emails.
type Mailer interface {
	SendOrderConfirmation(to string, summary email.OrderSummary) error
	SendOrderCancellation(to string, summary email.OrderSummary) error
}

// UserLookup resolves the recipient of an order email.
type UserLookup interface {
	Get(ctx context.Context, id string) (*user.User, error)
}

// Handler processes events for sending notifications
type Handler struct {
	mailer Mailer
	users  UserLookup
}

// NewHandler creates a new notification handler
func NewHandler(mailer Mailer, users UserLookup) *Handler {
	return &Handler{
		mailer: mailer,
		users:  users,
	}
}

// HandleEvent processes an event from Kafka. Malformed events and unknown
// recipients are logged and skipped; only delivery failures are returned.
func (h *Handler) HandleEvent(ctx context.Context, key, value []byte) error {
	var event order.Event
	if err := json.Unmarshal(value, &event); err != nil {
		log.Printf("[Notifier] Failed to unmarshal event: %v", err)
		return nil
	}

	switch event.EventType {
	case order.EventOrderPlaced:
		return h.notify(ctx, event, "confirmation", h.mailer.SendOrderConfirmation)
	case order.EventOrderCancelled:
		return h.notify(ctx, event, "cancellation", h.mailer.SendOrderCancellation)
	}
	return nil
}

func (h *Handler) notify(ctx context.Context, event order.Event, kind string, send func(string, email.OrderSummary) error) error {
	if event.Data == nil {
		log.Printf("[Notifier] %s event %s carries no order", event.EventType, event.ID)
		return nil
	}

	log.Printf("[Notifier] Processing %s event for order %s, user %s", event.EventType, event.OrderID, event.UserID)

	u, err := h.users.Get(ctx, event.UserID)
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			log.Printf("[Notifier] User not found: %s", event.UserID)
			return nil
		}
		log.Printf("[Notifier] Error getting user %s: %v", event.UserID, err)
		return err
	}

	if err := send(u.Email, summaryOf(event.Data, u.Name)); err != nil {
		log.Printf("[Notifier] Failed to send %s email to %s: %v", kind, u.Email, err)
		return err
	}

	log.Printf("[Notifier] Order %s email sent to %s for order %s", kind, u.Email, event.OrderID)
	return nil
}

func summaryOf(o *order.Order, customerName string) email.OrderSummary {
	items := make([]email.OrderItem, len(o.Items))
	for i, item := range o.Items {
		items[i] = email.OrderItem{
			ProductID: item.ProductID,
			Name:      item.Name,
			Quantity:  item.Quantity,
			Price:     item.UnitPrice,
		}
	}
	return email.OrderSummary{
		OrderID:       o.ID,
		CustomerName:  customerName,
		Items:         items,
		ItemsPrice:    o.ItemsPrice,
		TaxPrice:      o.TaxPrice,
		ShippingPrice: o.ShippingPrice,
		TotalPrice:    o.TotalPrice,
	}
}
