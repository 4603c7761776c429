package order

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/example/ec-store/internal/domain/user"
	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusPaid      Status = "paid"
	StatusShipped   Status = "shipped"
	StatusDelivered Status = "delivered"
	StatusCancelled Status = "cancelled"
)

// ParseStatus accepts any known status.
func ParseStatus(s string) (Status, error) {
	st := Status(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := validTransitions[st]; !ok {
		return "", fmt.Errorf("%w: %q", ErrInvalidStatus, s)
	}
	return st, nil
}

// validTransitions defines allowed state transitions
var validTransitions = map[Status][]Status{
	StatusPending:   {StatusPaid, StatusShipped, StatusDelivered, StatusCancelled},
	StatusPaid:      {StatusPaid, StatusShipped, StatusDelivered, StatusCancelled},
	StatusShipped:   {StatusDelivered},
	StatusDelivered: {}, // terminal state
	StatusCancelled: {}, // terminal state
}

// CanTransitionTo checks if the order can transition to the target status
func (o *Order) CanTransitionTo(target Status) bool {
	for _, s := range validTransitions[o.Status] {
		if s == target {
			return true
		}
	}
	return false
}

func (o *Order) transitionError(target Status) error {
	return fmt.Errorf("%w: cannot move order from %s to %s", ErrInvalidTransition, o.Status, target)
}

type PaymentMethod string

const (
	PaymentCOD      PaymentMethod = "COD"
	PaymentRazorpay PaymentMethod = "Razorpay"
	PaymentStripe   PaymentMethod = "Stripe"
)

// ParsePaymentMethod maps a client value to a method. Empty means COD.
func ParsePaymentMethod(s string) (PaymentMethod, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "cod":
		return PaymentCOD, nil
	case "razorpay":
		return PaymentRazorpay, nil
	case "stripe":
		return PaymentStripe, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidPaymentMethod, s)
}

// LineItem is a product snapshot taken when the order was placed.
type LineItem struct {
	ProductID string          `json:"product_id"`
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"price"`
}

type ShippingAddress struct {
	FullName    string `json:"full_name"`
	Address     string `json:"address"`
	City        string `json:"city"`
	State       string `json:"state"`
	Country     string `json:"country"`
	PostalCode  string `json:"postal_code"`
	PhoneNumber string `json:"phone_number"`
}

// Validate checks that every field is present. Formats are not checked.
func (a ShippingAddress) Validate() error {
	fields := []struct{ name, value string }{
		{"full name", a.FullName},
		{"address", a.Address},
		{"city", a.City},
		{"state", a.State},
		{"country", a.Country},
		{"postal code", a.PostalCode},
		{"phone number", a.PhoneNumber},
	}
	for _, f := range fields {
		if strings.TrimSpace(f.value) == "" {
			return fmt.Errorf("%w: %s is required", ErrInvalidAddress, f.name)
		}
	}
	return nil
}

// PaymentResult is stored exactly as the client reported it.
type PaymentResult struct {
	ID           string `json:"id"`
	Status       string `json:"status"`
	UpdateTime   string `json:"update_time"`
	EmailAddress string `json:"email_address"`
}

type Order struct {
	ID              string          `json:"id"`
	UserID          string          `json:"user_id"`
	Items           []LineItem      `json:"items"`
	ShippingAddress ShippingAddress `json:"shipping_address"`
	PaymentMethod   PaymentMethod   `json:"payment_method"`
	PaymentResult   *PaymentResult  `json:"payment_result,omitempty"`
	ItemsPrice      decimal.Decimal `json:"items_price"`
	TaxPrice        decimal.Decimal `json:"tax_price"`
	ShippingPrice   decimal.Decimal `json:"shipping_price"`
	TotalPrice      decimal.Decimal `json:"total_price"`
	Status          Status          `json:"status"`
	IsPaid          bool            `json:"is_paid"`
	PaidAt          *time.Time      `json:"paid_at,omitempty"`
	IsDelivered     bool            `json:"is_delivered"`
	DeliveredAt     *time.Time      `json:"delivered_at,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
	Version         int             `json:"version"` // optimistic concurrency counter
}

// WithOwner is an order with its owner's summary, as listed to admins.
// Owner is nil when the account no longer exists.
type WithOwner struct {
	*Order
	Owner *user.Summary `json:"user,omitempty"`
}

// Caller is the authenticated identity acting on orders.
type Caller struct {
	UserID string
	Role   string
}

func (c Caller) IsAdmin() bool {
	return c.Role == user.RoleAdmin
}

// Filter narrows admin listings. Zero fields do not filter.
type Filter struct {
	Status Status
}

// Repository persists orders. Orders are never deleted.
type Repository interface {
	Create(ctx context.Context, o *Order) error
	Get(ctx context.Context, id string) (*Order, error)
	// Update stores o only if the stored version still equals o.Version,
	// then increments o.Version. Otherwise it returns ErrVersionConflict.
	Update(ctx context.Context, o *Order) error
	// ListByUser and List return newest first.
	ListByUser(ctx context.Context, userID string) ([]*Order, error)
	List(ctx context.Context, f Filter) ([]*Order, error)
}
