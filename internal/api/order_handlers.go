package api

import (
	"net/http"

	"github.com/example/ec-store/internal/domain/order"
	"github.com/go-chi/chi/v5"
)

type OrderHandlers struct {
	orders *order.Service
}

func NewOrderHandlers(orders *order.Service) *OrderHandlers {
	return &OrderHandlers{orders: orders}
}

type cartItemRequest struct {
	ProductID string `json:"productId"`
	Qty       int    `json:"qty"`
}

type shippingAddressRequest struct {
	FullName    string `json:"fullName"`
	Address     string `json:"address"`
	City        string `json:"city"`
	State       string `json:"state"`
	Country     string `json:"country"`
	PostalCode  string `json:"postalcode"`
	PhoneNumber string `json:"phoneNumber"`
}

// PlaceOrderRequest is the checkout body. Client prices are not accepted.
type PlaceOrderRequest struct {
	CartItems       []cartItemRequest      `json:"cartItems"`
	ShippingAddress shippingAddressRequest `json:"shippingAddress"`
	PaymentMethod   string                 `json:"paymentMethod"`
}

type PayOrderRequest struct {
	PaymentID    string `json:"paymentId"`
	Status       string `json:"status"`
	UpdateTime   string `json:"update_time"`
	EmailAddress string `json:"email_address"`
}

type UpdateStatusRequest struct {
	Status string `json:"status"`
}

type orderResponse struct {
	Message string       `json:"message"`
	Order   *order.Order `json:"order"`
}

type ordersResponse struct {
	Message string `json:"message"`
	Orders  any    `json:"orders"`
}

func (h *OrderHandlers) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(r)
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized", "authentication required")
		return
	}

	var req PlaceOrderRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	items := make([]order.CartItem, 0, len(req.CartItems))
	for _, ci := range req.CartItems {
		items = append(items, order.CartItem{ProductID: ci.ProductID, Quantity: ci.Qty})
	}
	a := req.ShippingAddress

	o, err := h.orders.PlaceOrder(r.Context(), caller, order.PlaceRequest{
		Items: items,
		ShippingAddress: order.ShippingAddress{
			FullName:    a.FullName,
			Address:     a.Address,
			City:        a.City,
			State:       a.State,
			Country:     a.Country,
			PostalCode:  a.PostalCode,
			PhoneNumber: a.PhoneNumber,
		},
		PaymentMethod: req.PaymentMethod,
	})
	if err != nil {
		respondDomainError(w, r, err)
		return
	}

	respondJSON(w, http.StatusCreated, orderResponse{Message: "Order placed", Order: o})
}

func (h *OrderHandlers) ListMyOrders(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(r)
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized", "authentication required")
		return
	}

	orders, err := h.orders.ListMyOrders(r.Context(), caller)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	if orders == nil {
		orders = []*order.Order{}
	}

	respondJSON(w, http.StatusOK, ordersResponse{Message: "My orders", Orders: orders})
}

func (h *OrderHandlers) GetOrder(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(r)
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized", "authentication required")
		return
	}

	o, err := h.orders.GetOrder(r.Context(), caller, chi.URLParam(r, "id"))
	if err != nil {
		respondDomainError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, orderResponse{Message: "Your order", Order: o})
}

func (h *OrderHandlers) PayOrder(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(r)
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized", "authentication required")
		return
	}

	var req PayOrderRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	o, err := h.orders.PayOrder(r.Context(), caller, chi.URLParam(r, "id"), order.PaymentResult{
		ID:           req.PaymentID,
		Status:       req.Status,
		UpdateTime:   req.UpdateTime,
		EmailAddress: req.EmailAddress,
	})
	if err != nil {
		respondDomainError(w, r, err)
		return
	}

	respondJSON(w, http.StatusCreated, orderResponse{Message: "Payment successful", Order: o})
}

func (h *OrderHandlers) CancelOrder(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(r)
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized", "authentication required")
		return
	}

	o, err := h.orders.CancelOrder(r.Context(), caller, chi.URLParam(r, "id"))
	if err != nil {
		respondDomainError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, orderResponse{Message: "Order cancelled", Order: o})
}

// Admin Handlers

func (h *OrderHandlers) ListAllOrders(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(r)
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized", "authentication required")
		return
	}

	f := order.Filter{Status: order.Status(r.URL.Query().Get("status"))}
	orders, err := h.orders.ListAllOrders(r.Context(), caller, f)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, ordersResponse{Message: "All orders", Orders: orders})
}

func (h *OrderHandlers) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(r)
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized", "authentication required")
		return
	}

	var req UpdateStatusRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	o, err := h.orders.UpdateStatus(r.Context(), caller, chi.URLParam(r, "id"), order.Status(req.Status))
	if err != nil {
		respondDomainError(w, r, err)
		return
	}

	respondJSON(w, http.StatusCreated, orderResponse{Message: "Status updated", Order: o})
}

func (h *OrderHandlers) MarkDelivered(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(r)
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized", "authentication required")
		return
	}

	o, err := h.orders.MarkDelivered(r.Context(), caller, chi.URLParam(r, "id"))
	if err != nil {
		respondDomainError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, orderResponse{Message: "Order updated to delivered", Order: o})
}
