package store

import (
	"context"
	"sync"

	"github.com/example/ec-store/internal/domain/category"
)

// CategoryStore is an in-memory category.Repository
type CategoryStore struct {
	mu         sync.RWMutex
	categories map[string]*category.Category
	order      []string
}

func NewCategoryStore() *CategoryStore {
	return &CategoryStore{categories: make(map[string]*category.Category)}
}

func (s *CategoryStore) Create(_ context.Context, c *category.Category) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.categories {
		if existing.Name == c.Name {
			return category.ErrCategoryExists
		}
	}
	cp := *c
	s.categories[c.ID] = &cp
	s.order = append(s.order, c.ID)
	return nil
}

func (s *CategoryStore) GetByName(_ context.Context, name string) (*category.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, c := range s.categories {
		if c.Name == name {
			cp := *c
			return &cp, nil
		}
	}
	return nil, category.ErrCategoryNotFound
}

func (s *CategoryStore) List(_ context.Context) ([]*category.Category, error) {
	return s.collect(func(*category.Category) bool { return true }), nil
}

func (s *CategoryStore) ListChildren(_ context.Context, parentIDs []string) ([]*category.Category, error) {
	parents := make(map[string]bool, len(parentIDs))
	for _, id := range parentIDs {
		parents[id] = true
	}
	return s.collect(func(c *category.Category) bool { return c.ParentID != "" && parents[c.ParentID] }), nil
}

// collect returns copies in creation order
func (s *CategoryStore) collect(match func(*category.Category) bool) []*category.Category {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*category.Category, 0, len(s.order))
	for _, id := range s.order {
		if c := s.categories[id]; match(c) {
			cp := *c
			out = append(out, &cp)
		}
	}
	return out
}
