package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/example/ec-store/internal/domain/order"
)

// OrderStore is an in-memory order.Repository
type OrderStore struct {
	mu     sync.RWMutex
	orders map[string]*storedOrder
	seq    int64
}

type storedOrder struct {
	order *order.Order
	seq   int64
}

func NewOrderStore() *OrderStore {
	return &OrderStore{orders: make(map[string]*storedOrder)}
}

func (s *OrderStore) Create(_ context.Context, o *order.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.orders[o.ID]; exists {
		return fmt.Errorf("order %s already exists", o.ID)
	}
	s.seq++
	s.orders[o.ID] = &storedOrder{order: cloneOrder(o), seq: s.seq}
	return nil
}

func (s *OrderStore) Get(_ context.Context, id string) (*order.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stored, ok := s.orders[id]
	if !ok {
		return nil, order.ErrOrderNotFound
	}
	return cloneOrder(stored.order), nil
}

// Update replaces the order when o.Version matches the stored version
func (s *OrderStore) Update(_ context.Context, o *order.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.orders[o.ID]
	if !ok {
		return order.ErrOrderNotFound
	}
	if stored.order.Version != o.Version {
		return order.ErrVersionConflict
	}
	o.Version++
	stored.order = cloneOrder(o)
	return nil
}

func (s *OrderStore) ListByUser(_ context.Context, userID string) ([]*order.Order, error) {
	return s.list(func(o *order.Order) bool { return o.UserID == userID }), nil
}

func (s *OrderStore) List(_ context.Context, f order.Filter) ([]*order.Order, error) {
	return s.list(func(o *order.Order) bool { return f.Status == "" || o.Status == f.Status }), nil
}

// list returns matches newest first; insertion order breaks ties
func (s *OrderStore) list(match func(*order.Order) bool) []*order.Order {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := make([]*storedOrder, 0, len(s.orders))
	for _, stored := range s.orders {
		if match(stored.order) {
			matched = append(matched, stored)
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		a, b := matched[i], matched[j]
		if !a.order.CreatedAt.Equal(b.order.CreatedAt) {
			return a.order.CreatedAt.After(b.order.CreatedAt)
		}
		return a.seq > b.seq
	})

	out := make([]*order.Order, 0, len(matched))
	for _, stored := range matched {
		out = append(out, cloneOrder(stored.order))
	}
	return out
}

func cloneOrder(o *order.Order) *order.Order {
	c := *o
	c.Items = append([]order.LineItem(nil), o.Items...)
	if o.PaymentResult != nil {
		pr := *o.PaymentResult
		c.PaymentResult = &pr
	}
	if o.PaidAt != nil {
		t := *o.PaidAt
		c.PaidAt = &t
	}
	if o.DeliveredAt != nil {
		t := *o.DeliveredAt
		c.DeliveredAt = &t
	}
	return &c
}
