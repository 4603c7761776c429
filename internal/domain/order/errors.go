package order

import (
	"errors"

	"github.com/example/ec-store/internal/domain/product"
)

var (
	ErrOrderNotFound        = errors.New("order not found")
	ErrEmptyCart            = errors.New("no order items")
	ErrInvalidQuantity      = errors.New("quantity must be positive")
	ErrInvalidAddress       = errors.New("invalid shipping address")
	ErrInvalidPaymentMethod = errors.New("invalid payment method")
	ErrInvalidStatus        = errors.New("invalid status")
	ErrInvalidTransition    = errors.New("invalid order status transition")
	ErrForbidden            = errors.New("not allowed")
	ErrVersionConflict      = errors.New("order was modified concurrently")
	ErrRestockIncomplete    = errors.New("order cancelled but stock was not fully restored")

	ErrProductNotFound = product.ErrProductNotFound
)
