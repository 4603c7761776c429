package api

import (
	"net/http"

	"github.com/example/ec-store/internal/domain/category"
)

// CategoryHandlers handles category-related HTTP requests
type CategoryHandlers struct {
	categories *category.Service
}

func NewCategoryHandlers(categories *category.Service) *CategoryHandlers {
	return &CategoryHandlers{categories: categories}
}

// CreateCategoryRequest names the new category and, optionally, its parent.
type CreateCategoryRequest struct {
	Name   string `json:"name"`
	Parent string `json:"parent,omitempty"`
}

type categoryResponse struct {
	Message  string             `json:"message"`
	Category *category.Category `json:"category"`
}

type categoriesResponse struct {
	Message    string               `json:"message"`
	Categories []*category.Category `json:"categories"`
}

func (h *CategoryHandlers) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var req CreateCategoryRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	c, err := h.categories.Create(r.Context(), req.Name, req.Parent)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}

	respondJSON(w, http.StatusCreated, categoryResponse{Message: "Category created", Category: c})
}

func (h *CategoryHandlers) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.categories.List(r.Context())
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	if categories == nil {
		categories = []*category.Category{}
	}

	respondJSON(w, http.StatusOK, categoriesResponse{Message: "All categories", Categories: categories})
}
