package api

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"

	"github.com/example/ec-store/internal/api/middleware"
	"github.com/example/ec-store/internal/auth"
	"github.com/example/ec-store/internal/domain/category"
	"github.com/example/ec-store/internal/domain/inventory"
	"github.com/example/ec-store/internal/domain/order"
	"github.com/example/ec-store/internal/domain/product"
	"github.com/example/ec-store/internal/domain/user"
)

const maxRequestBodySize = 1 << 20 // 1MB

type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("[API] Failed to encode response: %v", err)
	}
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, ErrorResponse{Error: message, Code: code})
}

// errorMapping pairs a domain error with its HTTP rendering. The first
// matching entry wins.
var errorMapping = []struct {
	err    error
	status int
	code   string
}{
	{inventory.ErrInsufficientStock, http.StatusBadRequest, "insufficient_stock"},
	{order.ErrEmptyCart, http.StatusBadRequest, "empty_cart"},
	{order.ErrInvalidStatus, http.StatusBadRequest, "invalid_status"},
	{order.ErrInvalidTransition, http.StatusBadRequest, "invalid_transition"},
	{order.ErrInvalidQuantity, http.StatusBadRequest, "validation_error"},
	{order.ErrInvalidAddress, http.StatusBadRequest, "validation_error"},
	{order.ErrInvalidPaymentMethod, http.StatusBadRequest, "validation_error"},
	{inventory.ErrInvalidQuantity, http.StatusBadRequest, "validation_error"},
	{product.ErrInvalidName, http.StatusBadRequest, "validation_error"},
	{product.ErrInvalidPrice, http.StatusBadRequest, "validation_error"},
	{product.ErrInvalidStock, http.StatusBadRequest, "validation_error"},
	{product.ErrInvalidCategory, http.StatusBadRequest, "validation_error"},
	{category.ErrInvalidName, http.StatusBadRequest, "validation_error"},
	{category.ErrParentNotFound, http.StatusBadRequest, "validation_error"},
	{user.ErrInvalidEmail, http.StatusBadRequest, "validation_error"},
	{user.ErrInvalidName, http.StatusBadRequest, "validation_error"},
	{auth.ErrPasswordTooShort, http.StatusBadRequest, "validation_error"},
	{auth.ErrPasswordTooLong, http.StatusBadRequest, "validation_error"},
	{order.ErrOrderNotFound, http.StatusNotFound, "not_found"},
	{product.ErrProductNotFound, http.StatusNotFound, "not_found"},
	{inventory.ErrUnknownProduct, http.StatusNotFound, "not_found"},
	{category.ErrCategoryNotFound, http.StatusNotFound, "not_found"},
	{user.ErrUserNotFound, http.StatusNotFound, "not_found"},
	{order.ErrForbidden, http.StatusForbidden, "forbidden"},
	{user.ErrInvalidCredentials, http.StatusUnauthorized, "unauthorized"},
	{order.ErrVersionConflict, http.StatusConflict, "concurrent_update"},
	{user.ErrEmailTaken, http.StatusConflict, "conflict"},
	{category.ErrCategoryExists, http.StatusConflict, "conflict"},
}

// respondDomainError renders err using errorMapping. Unmapped errors are
// logged and reported as a generic internal error.
func respondDomainError(w http.ResponseWriter, r *http.Request, err error) {
	// The order is already cancelled here, whatever the wrapped cause says.
	if errors.Is(err, order.ErrRestockIncomplete) {
		log.Printf("[API] %s %s failed: %v", r.Method, r.URL.Path, err)
		respondError(w, http.StatusInternalServerError, "restock_incomplete", order.ErrRestockIncomplete.Error())
		return
	}

	for _, m := range errorMapping {
		if errors.Is(err, m.err) {
			respondError(w, m.status, m.code, err.Error())
			return
		}
	}

	log.Printf("[API] %s %s failed: %v", r.Method, r.URL.Path, err)
	respondError(w, http.StatusInternalServerError, "internal_error", "internal server error")
}

// decodeJSON reads a single JSON object from the request body.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBodySize))
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			respondError(w, http.StatusBadRequest, "validation_error", "request body is required")
			return false
		}
		respondError(w, http.StatusBadRequest, "validation_error", "invalid JSON body")
		return false
	}
	return true
}

// callerFrom returns the authenticated caller. Routes that need one sit
// behind middleware.AuthMiddleware.
func callerFrom(r *http.Request) (order.Caller, bool) {
	claims, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		return order.Caller{}, false
	}
	return order.Caller{UserID: claims.UserID, Role: claims.Role}, true
}

type messageResponse struct {
	Message string `json:"message"`
}
