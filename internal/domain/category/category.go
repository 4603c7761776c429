package category

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"
)

var (
	ErrCategoryNotFound = errors.New("category not found")
	ErrCategoryExists   = errors.New("category already exists")
	ErrInvalidName      = errors.New("name is required")
	ErrParentNotFound   = errors.New("parent category not found")
	ErrCacheMiss        = errors.New("cache miss")
)

// slugRegex validates slug format (lowercase letters, numbers, hyphens)
var slugRegex = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

// Category is a node of the product category tree. Names are unique.
type Category struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug,omitempty"`
	ParentID  string    `json:"parent_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Repository persists categories.
type Repository interface {
	// Create stores a new category. A duplicate name is ErrCategoryExists.
	Create(ctx context.Context, c *Category) error
	GetByName(ctx context.Context, name string) (*Category, error)
	List(ctx context.Context) ([]*Category, error)
	// ListChildren returns the direct children of every given parent.
	ListChildren(ctx context.Context, parentIDs []string) ([]*Category, error)
}

// DescendantCache stores computed descendant id lists.
type DescendantCache interface {
	// GetDescendants returns ErrCacheMiss when nothing is cached for id.
	GetDescendants(ctx context.Context, id string) ([]string, error)
	SetDescendants(ctx context.Context, id string, ids []string) error
	// Invalidate drops every cached entry.
	Invalidate(ctx context.Context) error
}

// generateSlug creates a URL-friendly slug from a name
func generateSlug(name string) string {
	slug := strings.ToLower(name)
	slug = strings.ReplaceAll(slug, " ", "-")
	slug = strings.ReplaceAll(slug, "_", "-")
	reg := regexp.MustCompile(`[^a-z0-9-]`)
	slug = reg.ReplaceAllString(slug, "")
	reg = regexp.MustCompile(`-+`)
	slug = reg.ReplaceAllString(slug, "-")
	slug = strings.Trim(slug, "-")
	if !slugRegex.MatchString(slug) {
		return ""
	}
	return slug
}
