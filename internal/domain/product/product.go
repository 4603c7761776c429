package product

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrProductNotFound = errors.New("product not found")
	ErrInvalidPrice    = errors.New("price must be non-negative with at most two decimal places")
	ErrInvalidName     = errors.New("name is required")
	ErrInvalidStock    = errors.New("stock must not be negative")
	ErrInvalidCategory = errors.New("invalid category name")
)

type Product struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Image       string          `json:"image,omitempty"`
	Brand       string          `json:"brand,omitempty"`
	Stock       int             `json:"stock"`
	CategoryID  string          `json:"category_id"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

type Sort string

const (
	SortNewest    Sort = "newest"
	SortPriceAsc  Sort = "priceAsc"
	SortPriceDesc Sort = "priceDesc"
)

// Filter selects products for Search. Zero fields do not filter.
type Filter struct {
	Keyword    string
	CategoryID string
	MinPrice   decimal.NullDecimal
	MaxPrice   decimal.NullDecimal
	Sort       Sort
	Skip       int
	Limit      int
}

// Repository persists products. Stock is changed only through the
// inventory.StockStore primitive, never by Update.
type Repository interface {
	Create(ctx context.Context, p *Product) error
	Get(ctx context.Context, id string) (*Product, error)
	List(ctx context.Context) ([]*Product, error)
	Update(ctx context.Context, p *Product) error
	Delete(ctx context.Context, id string) error
	ListByCategories(ctx context.Context, categoryIDs []string) ([]*Product, error)
	// Search returns one page of matches and the total match count.
	Search(ctx context.Context, f Filter) ([]*Product, int64, error)
}

// CategoryResolver is the part of the category tree products need.
type CategoryResolver interface {
	ResolveName(ctx context.Context, name string) (string, error)
	Descendants(ctx context.Context, id string) ([]string, error)
}

func validPrice(p decimal.Decimal) bool {
	return !p.IsNegative() && p.Equal(p.Round(2))
}
