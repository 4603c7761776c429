package mocks

import (
	"context"
	"sync"

	"github.com/example/ec-store/internal/domain/inventory"
)

// StockStore wraps an inventory.StockStore and can fail increments
type StockStore struct {
	mu    sync.Mutex
	inner inventory.StockStore

	IncrementErr   error
	IncrementCalls int
}

func NewStockStore(inner inventory.StockStore) *StockStore {
	return &StockStore{inner: inner}
}

func (m *StockStore) DecrementStock(ctx context.Context, productID string, qty int) (bool, error) {
	return m.inner.DecrementStock(ctx, productID, qty)
}

func (m *StockStore) IncrementStock(ctx context.Context, productID string, qty int) error {
	m.mu.Lock()
	m.IncrementCalls++
	err := m.IncrementErr
	m.mu.Unlock()

	if err != nil {
		return err
	}
	return m.inner.IncrementStock(ctx, productID, qty)
}
