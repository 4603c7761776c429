package store

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/example/ec-store/internal/domain/inventory"
	"github.com/example/ec-store/internal/domain/product"
)

// ProductStore is an in-memory product.Repository and inventory.StockStore.
// Stock changes are compare-and-set under the store mutex.
type ProductStore struct {
	mu       sync.RWMutex
	products map[string]*product.Product
}

func NewProductStore() *ProductStore {
	return &ProductStore{products: make(map[string]*product.Product)}
}

func (s *ProductStore) Create(_ context.Context, p *product.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.products[p.ID]; exists {
		return fmt.Errorf("product %s already exists", p.ID)
	}
	c := *p
	s.products[p.ID] = &c
	return nil
}

func (s *ProductStore) Get(_ context.Context, id string) (*product.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.products[id]
	if !ok {
		return nil, product.ErrProductNotFound
	}
	c := *p
	return &c, nil
}

func (s *ProductStore) List(_ context.Context) ([]*product.Product, error) {
	return s.filter(func(*product.Product) bool { return true }), nil
}

// Update writes every field except Stock
func (s *ProductStore) Update(_ context.Context, p *product.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.products[p.ID]
	if !ok {
		return product.ErrProductNotFound
	}
	c := *p
	c.Stock = existing.Stock
	c.CreatedAt = existing.CreatedAt
	s.products[p.ID] = &c
	return nil
}

func (s *ProductStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.products[id]; !ok {
		return product.ErrProductNotFound
	}
	delete(s.products, id)
	return nil
}

func (s *ProductStore) ListByCategories(_ context.Context, categoryIDs []string) ([]*product.Product, error) {
	wanted := make(map[string]bool, len(categoryIDs))
	for _, id := range categoryIDs {
		wanted[id] = true
	}
	return s.filter(func(p *product.Product) bool { return wanted[p.CategoryID] }), nil
}

func (s *ProductStore) Search(_ context.Context, f product.Filter) ([]*product.Product, int64, error) {
	keyword := strings.ToLower(f.Keyword)
	matched := s.filter(func(p *product.Product) bool {
		if keyword != "" &&
			!strings.Contains(strings.ToLower(p.Name), keyword) &&
			!strings.Contains(strings.ToLower(p.Brand), keyword) {
			return false
		}
		if f.CategoryID != "" && p.CategoryID != f.CategoryID {
			return false
		}
		if f.MinPrice.Valid && p.Price.LessThan(f.MinPrice.Decimal) {
			return false
		}
		if f.MaxPrice.Valid && p.Price.GreaterThan(f.MaxPrice.Decimal) {
			return false
		}
		return true
	})

	switch f.Sort {
	case product.SortPriceAsc:
		sort.SliceStable(matched, func(i, j int) bool { return matched[i].Price.LessThan(matched[j].Price) })
	case product.SortPriceDesc:
		sort.SliceStable(matched, func(i, j int) bool { return matched[i].Price.GreaterThan(matched[j].Price) })
	}

	total := int64(len(matched))
	if f.Skip >= len(matched) {
		return []*product.Product{}, total, nil
	}
	matched = matched[f.Skip:]
	if f.Limit > 0 && f.Limit < len(matched) {
		matched = matched[:f.Limit]
	}
	return matched, total, nil
}

// DecrementStock subtracts qty only when at least qty units remain
func (s *ProductStore) DecrementStock(_ context.Context, productID string, qty int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.products[productID]
	if !ok {
		return false, inventory.ErrUnknownProduct
	}
	if p.Stock < qty {
		return false, nil
	}
	p.Stock -= qty
	return true, nil
}

func (s *ProductStore) IncrementStock(_ context.Context, productID string, qty int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.products[productID]
	if !ok {
		return inventory.ErrUnknownProduct
	}
	p.Stock += qty
	return nil
}

// filter returns copies newest first
func (s *ProductStore) filter(match func(*product.Product) bool) []*product.Product {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*product.Product, 0, len(s.products))
	for _, p := range s.products {
		if match(p) {
			c := *p
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}
