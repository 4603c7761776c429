package store

import (
	"context"
	"sync"

	"github.com/example/ec-store/internal/domain/user"
)

// UserStore is an in-memory user.Repository
type UserStore struct {
	mu      sync.RWMutex
	users   map[string]*user.User
	byEmail map[string]string
}

func NewUserStore() *UserStore {
	return &UserStore{
		users:   make(map[string]*user.User),
		byEmail: make(map[string]string),
	}
}

func (s *UserStore) Create(_ context.Context, u *user.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, taken := s.byEmail[u.Email]; taken {
		return user.ErrEmailTaken
	}
	c := *u
	s.users[u.ID] = &c
	s.byEmail[u.Email] = u.ID
	return nil
}

func (s *UserStore) GetByID(_ context.Context, id string) (*user.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return nil, user.ErrUserNotFound
	}
	c := *u
	return &c, nil
}

func (s *UserStore) GetByEmail(_ context.Context, email string) (*user.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byEmail[email]
	if !ok {
		return nil, user.ErrUserNotFound
	}
	c := *s.users[id]
	return &c, nil
}

func (s *UserStore) GetByIDs(_ context.Context, ids []string) ([]*user.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*user.User, 0, len(ids))
	for _, id := range ids {
		if u, ok := s.users[id]; ok {
			c := *u
			out = append(out, &c)
		}
	}
	return out, nil
}
