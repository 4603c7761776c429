package order

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/example/ec-store/internal/domain/inventory"
	"github.com/example/ec-store/internal/domain/pricing"
	"github.com/example/ec-store/internal/domain/product"
	"github.com/example/ec-store/internal/domain/user"
	"github.com/google/uuid"
)

// maxUpdateAttempts bounds the reload-and-retry loop on version conflicts.
const maxUpdateAttempts = 3

// ProductReader resolves the products an order is placed for.
type ProductReader interface {
	Get(ctx context.Context, id string) (*product.Product, error)
}

// UserDirectory supplies owner summaries for admin listings.
type UserDirectory interface {
	Summaries(ctx context.Context, ids []string) (map[string]user.Summary, error)
}

// CartItem is one requested product and quantity. Any price the client
// sends is ignored.
type CartItem struct {
	ProductID string
	Quantity  int
}

type PlaceRequest struct {
	Items           []CartItem
	ShippingAddress ShippingAddress
	PaymentMethod   string
}

type Service struct {
	orders   Repository
	products ProductReader
	ledger   *inventory.Ledger
	users    UserDirectory
	events   Publisher
	now      func() time.Time
}

type Option func(*Service)

// WithPublisher sets the destination of lifecycle events.
func WithPublisher(p Publisher) Option {
	return func(s *Service) { s.events = p }
}

// WithUserDirectory enables owner summaries in ListAllOrders.
func WithUserDirectory(d UserDirectory) Option {
	return func(s *Service) { s.users = d }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(orders Repository, products ProductReader, ledger *inventory.Ledger, opts ...Option) *Service {
	s := &Service{
		orders:   orders,
		products: products,
		ledger:   ledger,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// PlaceOrder validates the cart, reserves stock for every line and persists a
// pending order. Nothing stays reserved if any step fails.
func (s *Service) PlaceOrder(ctx context.Context, caller Caller, req PlaceRequest) (*Order, error) {
	if len(req.Items) == 0 {
		return nil, ErrEmptyCart
	}
	for _, item := range req.Items {
		if item.Quantity <= 0 {
			return nil, ErrInvalidQuantity
		}
	}
	if err := req.ShippingAddress.Validate(); err != nil {
		return nil, err
	}
	method, err := ParsePaymentMethod(req.PaymentMethod)
	if err != nil {
		return nil, err
	}

	items := make([]LineItem, 0, len(req.Items))
	priced := make([]pricing.Line, 0, len(req.Items))
	for _, ci := range req.Items {
		p, err := s.products.Get(ctx, ci.ProductID)
		if err != nil {
			return nil, err
		}
		items = append(items, LineItem{
			ProductID: p.ID,
			Name:      p.Name,
			Quantity:  ci.Quantity,
			UnitPrice: p.Price,
		})
		priced = append(priced, pricing.Line{UnitPrice: p.Price, Quantity: ci.Quantity})
	}

	totals, err := pricing.Compute(priced)
	if err != nil {
		return nil, fmt.Errorf("failed to price order: %w", err)
	}

	orderID := uuid.New().String()
	lines := stockLines(items)
	if err := s.ledger.ReserveAll(ctx, orderID, lines); err != nil {
		return nil, err
	}

	now := s.now()
	o := &Order{
		ID:              orderID,
		UserID:          caller.UserID,
		Items:           items,
		ShippingAddress: req.ShippingAddress,
		PaymentMethod:   method,
		ItemsPrice:      totals.ItemsPrice,
		TaxPrice:        totals.TaxPrice,
		ShippingPrice:   totals.ShippingPrice,
		TotalPrice:      totals.TotalPrice,
		Status:          StatusPending,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := s.orders.Create(ctx, o); err != nil {
		if relErr := s.ledger.ReleaseAll(context.WithoutCancel(ctx), orderID, lines); relErr != nil {
			log.Printf("[Order] Failed to roll back reservations for %s: %v", orderID, relErr)
			return nil, errors.Join(err, relErr)
		}
		return nil, err
	}

	log.Printf("[Order] Placed order %s for user %s (%d items, total %s)", o.ID, o.UserID, len(o.Items), o.TotalPrice)
	s.publish(ctx, EventOrderPlaced, o)
	return o, nil
}

// GetOrder returns an order visible to caller. A missing order is reported
// before any authorization failure.
func (s *Service) GetOrder(ctx context.Context, caller Caller, orderID string) (*Order, error) {
	o, err := s.orders.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if err := authorizeOwnerOrAdmin(caller, o); err != nil {
		return nil, err
	}
	return o, nil
}

func (s *Service) ListMyOrders(ctx context.Context, caller Caller) ([]*Order, error) {
	return s.orders.ListByUser(ctx, caller.UserID)
}

// ListAllOrders lists every order, newest first, with owner summaries.
func (s *Service) ListAllOrders(ctx context.Context, caller Caller, f Filter) ([]*WithOwner, error) {
	if !caller.IsAdmin() {
		return nil, ErrForbidden
	}
	if f.Status != "" {
		status, err := ParseStatus(string(f.Status))
		if err != nil {
			return nil, err
		}
		f.Status = status
	}

	orders, err := s.orders.List(ctx, f)
	if err != nil {
		return nil, err
	}

	owners := map[string]user.Summary{}
	if s.users != nil && len(orders) > 0 {
		ids := make([]string, 0, len(orders))
		seen := make(map[string]struct{}, len(orders))
		for _, o := range orders {
			if _, ok := seen[o.UserID]; !ok {
				seen[o.UserID] = struct{}{}
				ids = append(ids, o.UserID)
			}
		}
		if owners, err = s.users.Summaries(ctx, ids); err != nil {
			return nil, fmt.Errorf("failed to load order owners: %w", err)
		}
	}

	out := make([]*WithOwner, 0, len(orders))
	for _, o := range orders {
		entry := &WithOwner{Order: o}
		if summary, ok := owners[o.UserID]; ok {
			entry.Owner = &summary
		}
		out = append(out, entry)
	}
	return out, nil
}

// PayOrder records a payment reported by the client. Pending and paid orders
// may be paid; a second payment replaces the recorded result.
func (s *Service) PayOrder(ctx context.Context, caller Caller, orderID string, result PaymentResult) (*Order, error) {
	o, err := s.mutate(ctx, orderID, caller, authorizeOwnerOrAdmin, func(o *Order, now time.Time) error {
		if !o.CanTransitionTo(StatusPaid) {
			return o.transitionError(StatusPaid)
		}
		o.Status = StatusPaid
		o.IsPaid = true
		o.PaidAt = &now
		o.PaymentResult = &result
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, EventOrderPaid, o)
	return o, nil
}

// UpdateStatus moves an order to shipped, delivered or cancelled. Cancelling
// restores the stock of every line item.
func (s *Service) UpdateStatus(ctx context.Context, caller Caller, orderID string, status Status) (*Order, error) {
	if !caller.IsAdmin() {
		return nil, ErrForbidden
	}
	switch status {
	case StatusShipped, StatusDelivered, StatusCancelled:
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}

	o, err := s.mutate(ctx, orderID, caller, nil, func(o *Order, now time.Time) error {
		return o.moveTo(status, now)
	})
	if err != nil {
		return nil, err
	}

	if status == StatusCancelled {
		if err := s.restock(ctx, o); err != nil {
			return nil, err
		}
	}
	s.publish(ctx, eventTypeFor(status), o)
	return o, nil
}

// CancelOrder cancels a pending or paid order on behalf of its owner or an
// admin and restores the reserved stock exactly once.
func (s *Service) CancelOrder(ctx context.Context, caller Caller, orderID string) (*Order, error) {
	o, err := s.mutate(ctx, orderID, caller, authorizeOwnerOrAdmin, func(o *Order, now time.Time) error {
		return o.moveTo(StatusCancelled, now)
	})
	if err != nil {
		return nil, err
	}

	if err := s.restock(ctx, o); err != nil {
		return nil, err
	}
	log.Printf("[Order] Cancelled order %s", o.ID)
	s.publish(ctx, EventOrderCancelled, o)
	return o, nil
}

func (s *Service) MarkDelivered(ctx context.Context, caller Caller, orderID string) (*Order, error) {
	if !caller.IsAdmin() {
		return nil, ErrForbidden
	}

	o, err := s.mutate(ctx, orderID, caller, nil, func(o *Order, now time.Time) error {
		return o.moveTo(StatusDelivered, now)
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, EventOrderDelivered, o)
	return o, nil
}

func (o *Order) moveTo(target Status, now time.Time) error {
	if !o.CanTransitionTo(target) {
		return o.transitionError(target)
	}
	o.Status = target
	if target == StatusDelivered {
		o.IsDelivered = true
		o.DeliveredAt = &now
	}
	return nil
}

// mutate loads the order, applies fn and stores it under optimistic
// versioning. On a version conflict the order is reloaded and fn re-evaluated
// against the fresh state.
func (s *Service) mutate(
	ctx context.Context,
	orderID string,
	caller Caller,
	authorize func(Caller, *Order) error,
	fn func(o *Order, now time.Time) error,
) (*Order, error) {
	for attempt := 1; attempt <= maxUpdateAttempts; attempt++ {
		o, err := s.orders.Get(ctx, orderID)
		if err != nil {
			return nil, err
		}
		if authorize != nil {
			if err := authorize(caller, o); err != nil {
				return nil, err
			}
		}

		now := s.now()
		if err := fn(o, now); err != nil {
			return nil, err
		}
		o.UpdatedAt = now

		err = s.orders.Update(ctx, o)
		if err == nil {
			return o, nil
		}
		if !errors.Is(err, ErrVersionConflict) {
			return nil, err
		}
		log.Printf("[Order] Version conflict on %s (attempt %d/%d)", orderID, attempt, maxUpdateAttempts)
	}
	return nil, ErrVersionConflict
}

// restock runs after the cancelled status is stored, so a lost race never
// releases the same order twice.
func (s *Service) restock(ctx context.Context, o *Order) error {
	if err := s.ledger.ReleaseAll(context.WithoutCancel(ctx), o.ID, stockLines(o.Items)); err != nil {
		log.Printf("[Order] Restock failed for cancelled order %s: %v", o.ID, err)
		return fmt.Errorf("%w: %w", ErrRestockIncomplete, err)
	}
	return nil
}

func (s *Service) publish(ctx context.Context, eventType string, o *Order) {
	if s.events == nil {
		return
	}
	snapshot := *o
	e := Event{
		ID:         uuid.New().String(),
		OrderID:    o.ID,
		UserID:     o.UserID,
		EventType:  eventType,
		OccurredAt: s.now(),
		Data:       &snapshot,
	}
	if err := s.events.Publish(ctx, e); err != nil {
		log.Printf("[Order] Failed to publish %s for %s: %v", eventType, o.ID, err)
	}
}

func authorizeOwnerOrAdmin(caller Caller, o *Order) error {
	if caller.IsAdmin() || (caller.UserID != "" && caller.UserID == o.UserID) {
		return nil
	}
	return ErrForbidden
}

func stockLines(items []LineItem) []inventory.Line {
	lines := make([]inventory.Line, 0, len(items))
	for _, item := range items {
		lines = append(lines, inventory.Line{
			ProductID: item.ProductID,
			Name:      item.Name,
			Quantity:  item.Quantity,
		})
	}
	return lines
}
