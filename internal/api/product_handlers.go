package api

import (
	"net/http"
	"strconv"

	"github.com/example/ec-store/internal/domain/product"
	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

type ProductHandlers struct {
	products *product.Service
}

func NewProductHandlers(products *product.Service) *ProductHandlers {
	return &ProductHandlers{products: products}
}

type CreateProductRequest struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Image       string          `json:"image"`
	Brand       string          `json:"brand"`
	Stock       int             `json:"stock"`
	Category    string          `json:"category"`
}

// UpdateProductRequest carries the fields to change. Stock is changed only
// through the restock endpoint.
type UpdateProductRequest struct {
	Name        *string          `json:"name"`
	Description *string          `json:"description"`
	Price       *decimal.Decimal `json:"price"`
	Image       *string          `json:"image"`
	Brand       *string          `json:"brand"`
	Category    *string          `json:"category"`
}

type RestockRequest struct {
	Qty int `json:"qty"`
}

type productResponse struct {
	Message string           `json:"message"`
	Product *product.Product `json:"product"`
}

type productsResponse struct {
	Message  string             `json:"message"`
	Products []*product.Product `json:"products"`
}

type searchResponse struct {
	Message string `json:"message"`
	*product.SearchResult
}

func (h *ProductHandlers) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var req CreateProductRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	p, err := h.products.Create(r.Context(), product.CreateInput{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Image:       req.Image,
		Brand:       req.Brand,
		Stock:       req.Stock,
		Category:    req.Category,
	})
	if err != nil {
		respondDomainError(w, r, err)
		return
	}

	respondJSON(w, http.StatusCreated, productResponse{Message: "Product created", Product: p})
}

func (h *ProductHandlers) ListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.products.List(r.Context())
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	if products == nil {
		products = []*product.Product{}
	}

	respondJSON(w, http.StatusOK, productsResponse{Message: "All products", Products: products})
}

func (h *ProductHandlers) GetProduct(w http.ResponseWriter, r *http.Request) {
	p, err := h.products.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondDomainError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, productResponse{Message: "Product", Product: p})
}

func (h *ProductHandlers) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	var req UpdateProductRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	p, err := h.products.Update(r.Context(), chi.URLParam(r, "id"), product.Patch{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Image:       req.Image,
		Brand:       req.Brand,
		Category:    req.Category,
	})
	if err != nil {
		respondDomainError(w, r, err)
		return
	}

	respondJSON(w, http.StatusCreated, productResponse{Message: "Product updated", Product: p})
}

func (h *ProductHandlers) RestockProduct(w http.ResponseWriter, r *http.Request) {
	var req RestockRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	p, err := h.products.Restock(r.Context(), chi.URLParam(r, "id"), req.Qty)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, productResponse{Message: "Product restocked", Product: p})
}

func (h *ProductHandlers) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	p, err := h.products.Delete(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondDomainError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, productResponse{Message: "Product deleted", Product: p})
}

func (h *ProductHandlers) ListByCategory(w http.ResponseWriter, r *http.Request) {
	products, err := h.products.ListByCategory(r.Context(), chi.URLParam(r, "categoryName"))
	if err != nil {
		respondDomainError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, productsResponse{Message: "Products in category", Products: products})
}

func (h *ProductHandlers) SearchProducts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	query := product.SearchQuery{
		Keyword:  q.Get("keyword"),
		Category: q.Get("category"),
		Sort:     product.Sort(q.Get("sort")),
	}

	var err error
	if query.MinPrice, err = parseOptionalDecimal(q.Get("minPrice")); err != nil {
		respondError(w, http.StatusBadRequest, "validation_error", "minPrice must be a number")
		return
	}
	if query.MaxPrice, err = parseOptionalDecimal(q.Get("maxPrice")); err != nil {
		respondError(w, http.StatusBadRequest, "validation_error", "maxPrice must be a number")
		return
	}
	if query.Page, err = parseOptionalInt(q.Get("page")); err != nil {
		respondError(w, http.StatusBadRequest, "validation_error", "page must be an integer")
		return
	}
	if query.Limit, err = parseOptionalInt(q.Get("limit")); err != nil {
		respondError(w, http.StatusBadRequest, "validation_error", "limit must be an integer")
		return
	}

	result, err := h.products.Search(r.Context(), query)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, searchResponse{Message: "Search result", SearchResult: result})
}

func parseOptionalDecimal(s string) (decimal.NullDecimal, error) {
	if s == "" {
		return decimal.NullDecimal{}, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.NullDecimal{}, err
	}
	return decimal.NewNullDecimal(d), nil
}

func parseOptionalInt(s string) (int, error) {
	if s == "" {
		return 0, nil
	}
	return strconv.Atoi(s)
}
