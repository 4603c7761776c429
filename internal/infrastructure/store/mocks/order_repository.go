package mocks

import (
	"context"
	"sync"

	"github.com/example/ec-store/internal/domain/order"
)

// OrderRepository wraps an order.Repository, recording calls and injecting
// failures for tests
type OrderRepository struct {
	mu    sync.Mutex
	inner order.Repository

	CreateErr error
	// UpdateErrs are returned by successive Update calls before delegating
	UpdateErrs []error
	// BeforeUpdate runs ahead of every delegated Update
	BeforeUpdate func(o *order.Order)

	CreateCalls []*order.Order
	UpdateCalls []UpdateCall
}

// UpdateCall records parameters passed to Update
type UpdateCall struct {
	ID      string
	Status  order.Status
	Version int
}

// NewOrderRepository creates a new OrderRepository around inner
func NewOrderRepository(inner order.Repository) *OrderRepository {
	return &OrderRepository{inner: inner}
}

func (m *OrderRepository) Create(ctx context.Context, o *order.Order) error {
	m.mu.Lock()
	m.CreateCalls = append(m.CreateCalls, o)
	err := m.CreateErr
	m.mu.Unlock()

	if err != nil {
		return err
	}
	return m.inner.Create(ctx, o)
}

func (m *OrderRepository) Get(ctx context.Context, id string) (*order.Order, error) {
	return m.inner.Get(ctx, id)
}

func (m *OrderRepository) Update(ctx context.Context, o *order.Order) error {
	m.mu.Lock()
	m.UpdateCalls = append(m.UpdateCalls, UpdateCall{ID: o.ID, Status: o.Status, Version: o.Version})
	var err error
	if len(m.UpdateErrs) > 0 {
		err, m.UpdateErrs = m.UpdateErrs[0], m.UpdateErrs[1:]
	}
	hook := m.BeforeUpdate
	m.mu.Unlock()

	if err != nil {
		return err
	}
	if hook != nil {
		hook(o)
	}
	return m.inner.Update(ctx, o)
}

func (m *OrderRepository) ListByUser(ctx context.Context, userID string) ([]*order.Order, error) {
	return m.inner.ListByUser(ctx, userID)
}

func (m *OrderRepository) List(ctx context.Context, f order.Filter) ([]*order.Order, error) {
	return m.inner.List(ctx, f)
}

// Updates returns a copy of the recorded Update calls
func (m *OrderRepository) Updates() []UpdateCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]UpdateCall(nil), m.UpdateCalls...)
}
