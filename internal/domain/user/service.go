package user

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/example/ec-store/internal/auth"
	"github.com/google/uuid"
)

// Service handles account operations
type Service struct {
	repo Repository
	now  func() time.Time
}

// NewService creates a new user service
func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

// Register creates a new customer account
func (s *Service) Register(ctx context.Context, email, password, name string) (*User, error) {
	return s.RegisterWithRole(ctx, email, password, name, RoleCustomer)
}

// RegisterAdmin creates a new admin account
func (s *Service) RegisterAdmin(ctx context.Context, email, password, name string) (*User, error) {
	return s.RegisterWithRole(ctx, email, password, name, RoleAdmin)
}

// RegisterWithRole creates a new account with a specific role
func (s *Service) RegisterWithRole(ctx context.Context, email, password, name, role string) (*User, error) {
	email = normalizeEmail(email)
	if !isValidEmail(email) {
		return nil, ErrInvalidEmail
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrInvalidName
	}

	passwordHash, err := auth.HashPassword(password)
	if err != nil {
		return nil, err
	}

	now := s.now()
	u := &User{
		ID:           uuid.New().String(),
		Email:        email,
		PasswordHash: passwordHash,
		Name:         name,
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.Create(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// Authenticate checks credentials. Unknown emails and wrong passwords are
// reported the same way.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*User, error) {
	u, err := s.repo.GetByEmail(ctx, normalizeEmail(email))
	if errors.Is(err, ErrUserNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if !auth.CheckPassword(password, u.PasswordHash) {
		return nil, ErrInvalidCredentials
	}
	return u, nil
}

func (s *Service) Get(ctx context.Context, id string) (*User, error) {
	return s.repo.GetByID(ctx, id)
}

// Summaries returns owner summaries keyed by user id. Unknown ids are omitted.
func (s *Service) Summaries(ctx context.Context, ids []string) (map[string]Summary, error) {
	out := make(map[string]Summary, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	users, err := s.repo.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, u := range users {
		out[u.ID] = Summary{ID: u.ID, Name: u.Name, Email: u.Email}
	}
	return out, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
