package user

import (
	"context"
	"errors"
	"regexp"
	"time"
)

const (
	RoleCustomer = "customer"
	RoleAdmin    = "admin"
)

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidEmail       = errors.New("a valid email is required")
	ErrInvalidName        = errors.New("name is required")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailTaken         = errors.New("email is already registered")
)

const maxEmailLength = 254

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9](?:[a-zA-Z0-9-]*[a-zA-Z0-9])?(?:\.[a-zA-Z0-9](?:[a-zA-Z0-9-]*[a-zA-Z0-9])?)*\.[a-zA-Z]{2,}$`)

// User represents a registered account
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Name         string    `json:"name"`
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Summary is the owner information attached to admin order listings
type Summary struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Repository persists users
type Repository interface {
	// Create stores a new user. A duplicate email is ErrEmailTaken.
	Create(ctx context.Context, u *User) error
	GetByID(ctx context.Context, id string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	// GetByIDs returns the users that exist among ids, in no particular order.
	GetByIDs(ctx context.Context, ids []string) ([]*User, error)
}

func isValidEmail(email string) bool {
	return len(email) <= maxEmailLength && emailRegex.MatchString(email)
}
