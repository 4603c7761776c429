package category

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
)

// Service handles category domain operations
type Service struct {
	repo  Repository
	cache DescendantCache
	group singleflight.Group
	now   func() time.Time
}

// NewService creates a new category service. cache may be nil.
func NewService(repo Repository, cache DescendantCache) *Service {
	return &Service{repo: repo, cache: cache, now: time.Now}
}

// Create creates a new category, optionally below the category named parentName.
func (s *Service) Create(ctx context.Context, name, parentName string) (*Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrInvalidName
	}

	var parentID string
	if parentName = strings.TrimSpace(parentName); parentName != "" {
		parent, err := s.repo.GetByName(ctx, parentName)
		if errors.Is(err, ErrCategoryNotFound) {
			return nil, ErrParentNotFound
		}
		if err != nil {
			return nil, err
		}
		parentID = parent.ID
	}

	now := s.now()
	c := &Category{
		ID:        uuid.New().String(),
		Name:      name,
		Slug:      generateSlug(name),
		ParentID:  parentID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.Create(ctx, c); err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Invalidate(ctx); err != nil {
			log.Printf("[Category] Failed to invalidate descendant cache: %v", err)
		}
	}
	return c, nil
}

func (s *Service) List(ctx context.Context) ([]*Category, error) {
	return s.repo.List(ctx)
}

// ResolveName returns the id of the category with the given name.
func (s *Service) ResolveName(ctx context.Context, name string) (string, error) {
	c, err := s.repo.GetByName(ctx, name)
	if err != nil {
		return "", err
	}
	return c.ID, nil
}

// Descendants returns the ids of every category below id, excluding id itself,
// in breadth-first order.
func (s *Service) Descendants(ctx context.Context, id string) ([]string, error) {
	if s.cache != nil {
		ids, err := s.cache.GetDescendants(ctx, id)
		if err == nil {
			return ids, nil
		}
		if !errors.Is(err, ErrCacheMiss) {
			log.Printf("[Category] Descendant cache read failed for %s: %v", id, err)
		}
	}

	v, err, _ := s.group.Do(id, func() (any, error) {
		ids, err := s.walk(ctx, id)
		if err != nil {
			return nil, err
		}
		if s.cache != nil {
			if err := s.cache.SetDescendants(ctx, id, ids); err != nil {
				log.Printf("[Category] Descendant cache write failed for %s: %v", id, err)
			}
		}
		return ids, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]string), nil
}

// walk is an iterative traversal; the visited set stops cycles.
func (s *Service) walk(ctx context.Context, rootID string) ([]string, error) {
	visited := map[string]struct{}{rootID: {}}
	frontier := []string{rootID}
	ids := []string{}

	for len(frontier) > 0 {
		children, err := s.repo.ListChildren(ctx, frontier)
		if err != nil {
			return nil, fmt.Errorf("failed to list children: %w", err)
		}

		next := make([]string, 0, len(children))
		for _, c := range children {
			if _, seen := visited[c.ID]; seen {
				continue
			}
			visited[c.ID] = struct{}{}
			ids = append(ids, c.ID)
			next = append(next, c.ID)
		}
		frontier = next
	}
	return ids, nil
}
