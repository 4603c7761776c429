package product

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/example/ec-store/internal/domain/category"
	"github.com/example/ec-store/internal/domain/inventory"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	defaultPage  = 1
	defaultLimit = 10
	maxLimit     = 100
)

type CreateInput struct {
	Name        string
	Description string
	Price       decimal.Decimal
	Image       string
	Brand       string
	Stock       int
	Category    string
}

// Patch holds the fields Update may change. Nil fields are left untouched.
type Patch struct {
	Name        *string
	Description *string
	Price       *decimal.Decimal
	Image       *string
	Brand       *string
	Category    *string
}

type SearchQuery struct {
	Keyword  string
	Category string
	MinPrice decimal.NullDecimal
	MaxPrice decimal.NullDecimal
	Sort     Sort
	Page     int
	Limit    int
}

type SearchResult struct {
	Page          int        `json:"page"`
	TotalPages    int64      `json:"totalPage"`
	TotalProducts int64      `json:"totalProducts"`
	Products      []*Product `json:"products"`
}

type Service struct {
	repo       Repository
	categories CategoryResolver
	ledger     *inventory.Ledger
	now        func() time.Time
}

func NewService(repo Repository, categories CategoryResolver, ledger *inventory.Ledger) *Service {
	return &Service{repo: repo, categories: categories, ledger: ledger, now: time.Now}
}

func (s *Service) Create(ctx context.Context, in CreateInput) (*Product, error) {
	if strings.TrimSpace(in.Name) == "" {
		return nil, ErrInvalidName
	}
	if !validPrice(in.Price) {
		return nil, ErrInvalidPrice
	}
	if in.Stock < 0 {
		return nil, ErrInvalidStock
	}

	categoryID, err := s.resolveCategory(ctx, in.Category)
	if err != nil {
		return nil, err
	}

	now := s.now()
	p := &Product{
		ID:          uuid.New().String(),
		Name:        strings.TrimSpace(in.Name),
		Description: in.Description,
		Price:       in.Price,
		Image:       in.Image,
		Brand:       in.Brand,
		Stock:       in.Stock,
		CategoryID:  categoryID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Service) Get(ctx context.Context, id string) (*Product, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) List(ctx context.Context) ([]*Product, error) {
	return s.repo.List(ctx)
}

func (s *Service) Update(ctx context.Context, id string, patch Patch) (*Product, error) {
	p, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if patch.Name != nil {
		if strings.TrimSpace(*patch.Name) == "" {
			return nil, ErrInvalidName
		}
		p.Name = strings.TrimSpace(*patch.Name)
	}
	if patch.Description != nil {
		p.Description = *patch.Description
	}
	if patch.Price != nil {
		if !validPrice(*patch.Price) {
			return nil, ErrInvalidPrice
		}
		p.Price = *patch.Price
	}
	if patch.Image != nil {
		p.Image = *patch.Image
	}
	if patch.Brand != nil {
		p.Brand = *patch.Brand
	}
	if patch.Category != nil {
		categoryID, err := s.resolveCategory(ctx, *patch.Category)
		if err != nil {
			return nil, err
		}
		p.CategoryID = categoryID
	}
	p.UpdatedAt = s.now()

	if err := s.repo.Update(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// Restock adds qty units through the inventory ledger.
func (s *Service) Restock(ctx context.Context, id string, qty int) (*Product, error) {
	if qty <= 0 {
		return nil, inventory.ErrInvalidQuantity
	}
	if _, err := s.repo.Get(ctx, id); err != nil {
		return nil, err
	}
	if err := s.ledger.Release(ctx, id, qty); err != nil {
		if errors.Is(err, inventory.ErrUnknownProduct) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}
	return s.repo.Get(ctx, id)
}

// Delete removes a product and returns what was removed.
func (s *Service) Delete(ctx context.Context, id string) (*Product, error) {
	p, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return nil, err
	}
	return p, nil
}

// ListByCategory returns the products of the named category and all of its
// descendants.
func (s *Service) ListByCategory(ctx context.Context, name string) ([]*Product, error) {
	rootID, err := s.categories.ResolveName(ctx, name)
	if err != nil {
		return nil, err
	}
	descendants, err := s.categories.Descendants(ctx, rootID)
	if err != nil {
		return nil, err
	}

	products, err := s.repo.ListByCategories(ctx, append([]string{rootID}, descendants...))
	if err != nil {
		return nil, err
	}
	if len(products) == 0 {
		return nil, ErrProductNotFound
	}
	return products, nil
}

func (s *Service) Search(ctx context.Context, q SearchQuery) (*SearchResult, error) {
	page, limit := q.Page, q.Limit
	if page < 1 {
		page = defaultPage
	}
	if limit < 1 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	result := &SearchResult{Page: page, Products: []*Product{}}

	f := Filter{
		Keyword:  strings.TrimSpace(q.Keyword),
		MinPrice: q.MinPrice,
		MaxPrice: q.MaxPrice,
		Sort:     q.Sort,
		Skip:     (page - 1) * limit,
		Limit:    limit,
	}
	if f.Sort != SortPriceAsc && f.Sort != SortPriceDesc {
		f.Sort = SortNewest
	}
	if q.Category != "" {
		categoryID, err := s.categories.ResolveName(ctx, q.Category)
		if errors.Is(err, category.ErrCategoryNotFound) {
			return result, nil
		}
		if err != nil {
			return nil, err
		}
		f.CategoryID = categoryID
	}

	products, total, err := s.repo.Search(ctx, f)
	if err != nil {
		return nil, err
	}
	if products != nil {
		result.Products = products
	}
	result.TotalProducts = total
	result.TotalPages = (total + int64(limit) - 1) / int64(limit)
	return result, nil
}

func (s *Service) resolveCategory(ctx context.Context, name string) (string, error) {
	if strings.TrimSpace(name) == "" {
		return "", ErrInvalidCategory
	}
	id, err := s.categories.ResolveName(ctx, strings.TrimSpace(name))
	if errors.Is(err, category.ErrCategoryNotFound) {
		return "", ErrInvalidCategory
	}
	return id, err
}
