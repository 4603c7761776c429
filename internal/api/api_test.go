package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/example/ec-store/internal/api/middleware"
	"github.com/example/ec-store/internal/auth"
	"github.com/example/ec-store/internal/domain/category"
	"github.com/example/ec-store/internal/domain/inventory"
	"github.com/example/ec-store/internal/domain/order"
	"github.com/example/ec-store/internal/domain/product"
	"github.com/example/ec-store/internal/domain/user"
	"github.com/example/ec-store/internal/infrastructure/store"
	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testServer struct {
	handler  http.Handler
	tokens   *auth.JWTService
	products *store.ProductStore
	orders   *order.Service
	users    *user.Service
}

func newTestServer(t *testing.T, checks map[string]HealthCheck) *testServer {
	t.Helper()
	tokens, err := auth.NewJWTService("api-test-secret-key-with-32-bytes!", time.Hour)
	require.NoError(t, err)

	products := store.NewProductStore()
	ledger := inventory.NewLedger(products, nil)
	categories := category.NewService(store.NewCategoryStore(), nil)
	users := user.NewService(store.NewUserStore())
	orders := order.NewService(store.NewOrderStore(), products, ledger, order.WithUserDirectory(users))

	handler := NewRouter(RouterConfig{
		Orders:         NewOrderHandlers(orders),
		Products:       NewProductHandlers(product.NewService(products, categories, ledger)),
		Categories:     NewCategoryHandlers(categories),
		Auth:           NewAuthHandlers(users, tokens),
		Tokens:         tokens,
		HealthChecks:   checks,
		RequestTimeout: 5 * time.Second,
	})

	return &testServer{handler: handler, tokens: tokens, products: products, orders: orders, users: users}
}

func (s *testServer) token(t *testing.T, userID, role string) string {
	t.Helper()
	tok, err := s.tokens.Issue(userID, userID+"@example.com", role)
	require.NoError(t, err)
	return tok.Value
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	default:
		require.NoError(t, json.NewEncoder(&buf).Encode(b))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) addProduct(t *testing.T, id, name, price string, stock int) {
	t.Helper()
	require.NoError(t, s.products.Create(context.Background(), &product.Product{
		ID: id, Name: name, Price: decimal.RequireFromString(price), Stock: stock,
	}))
}

func (s *testServer) stockOf(t *testing.T, id string) int {
	t.Helper()
	p, err := s.products.Get(context.Background(), id)
	require.NoError(t, err)
	return p.Stock
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	return body
}

func placeBody(items ...map[string]any) map[string]any {
	return map[string]any{
		"cartItems": items,
		"shippingAddress": map[string]string{
			"fullName":    "Alice Doe",
			"address":     "1 Main St",
			"city":        "Pune",
			"state":       "MH",
			"country":     "IN",
			"postalcode":  "411001",
			"phoneNumber": "+91-555-0100",
		},
	}
}

func item(productID string, qty int) map[string]any {
	return map[string]any{"productId": productID, "qty": qty}
}

// ============================================
// Order Endpoint Tests
// ============================================

func TestPlaceOrder_Created(t *testing.T) {
	s := newTestServer(t, nil)
	s.addProduct(t, "p1", "Lamp", "500", 5)
	alice := s.token(t, "alice", user.RoleCustomer)

	body := placeBody(item("p1", 2))
	body["cartItems"].([]map[string]any)[0]["price"] = 1
	rec := s.do(t, http.MethodPost, "/orders", alice, body)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	resp := decode(t, rec)
	assert.Equal(t, "Order placed", resp["message"])
	o := resp["order"].(map[string]any)
	assert.Equal(t, "pending", o["status"])
	assert.Equal(t, "alice", o["user_id"])
	assert.Equal(t, "COD", o["payment_method"])
	assert.Equal(t, "1000", o["items_price"])
	assert.Equal(t, "180", o["tax_price"])
	assert.Equal(t, "49", o["shipping_price"])
	assert.Equal(t, "1229", o["total_price"])
	assert.Equal(t, "Alice Doe", o["shipping_address"].(map[string]any)["full_name"])
	assert.Equal(t, 3, s.stockOf(t, "p1"))
}

func TestPlaceOrder_Errors(t *testing.T) {
	s := newTestServer(t, nil)
	s.addProduct(t, "p1", "Lamp", "500", 1)
	alice := s.token(t, "alice", user.RoleCustomer)

	tests := []struct {
		name   string
		token  string
		body   any
		status int
		code   string
	}{
		{"no token", "", placeBody(item("p1", 1)), http.StatusUnauthorized, "unauthorized"},
		{"bad json", alice, "{", http.StatusBadRequest, "validation_error"},
		{"empty body", alice, nil, http.StatusBadRequest, "validation_error"},
		{"empty cart", alice, placeBody(), http.StatusBadRequest, "empty_cart"},
		{"zero quantity", alice, placeBody(item("p1", 0)), http.StatusBadRequest, "validation_error"},
		{"unknown product", alice, placeBody(item("ghost", 1)), http.StatusNotFound, "not_found"},
		{"insufficient stock", alice, placeBody(item("p1", 2)), http.StatusBadRequest, "insufficient_stock"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := s.do(t, http.MethodPost, "/orders", tt.token, tt.body)

			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
			assert.Equal(t, tt.code, decode(t, rec)["code"])
		})
	}
	assert.Equal(t, 1, s.stockOf(t, "p1"))
}

func TestPlaceOrder_InvalidPaymentMethodAndAddress(t *testing.T) {
	s := newTestServer(t, nil)
	s.addProduct(t, "p1", "Lamp", "500", 5)
	alice := s.token(t, "alice", user.RoleCustomer)

	body := placeBody(item("p1", 1))
	body["paymentMethod"] = "Bitcoin"
	rec := s.do(t, http.MethodPost, "/orders", alice, body)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	body = placeBody(item("p1", 1))
	delete(body["shippingAddress"].(map[string]string), "city")
	rec = s.do(t, http.MethodPost, "/orders", alice, body)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, 5, s.stockOf(t, "p1"))
}

func TestOrderLifecycle_OverHTTP(t *testing.T) {
	s := newTestServer(t, nil)
	s.addProduct(t, "p1", "Lamp", "500", 5)
	alice := s.token(t, "alice", user.RoleCustomer)
	bob := s.token(t, "bob", user.RoleCustomer)
	admin := s.token(t, "root", user.RoleAdmin)

	rec := s.do(t, http.MethodPost, "/orders", alice, placeBody(item("p1", 2)))
	require.Equal(t, http.StatusCreated, rec.Code)
	id := decode(t, rec)["order"].(map[string]any)["id"].(string)

	rec = s.do(t, http.MethodGet, "/orders/"+id, bob, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "forbidden", decode(t, rec)["code"])

	rec = s.do(t, http.MethodGet, "/orders/missing", bob, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(t, http.MethodGet, "/orders/"+id, admin, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, http.MethodPut, "/orders/"+id+"/pay", alice, map[string]string{
		"paymentId": "pay_1", "status": "COMPLETED", "update_time": "2026-03-01T10:00:00Z", "email_address": "alice@example.com",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	paid := decode(t, rec)["order"].(map[string]any)
	assert.Equal(t, "paid", paid["status"])
	assert.Equal(t, true, paid["is_paid"])
	assert.Equal(t, "pay_1", paid["payment_result"].(map[string]any)["id"])

	rec = s.do(t, http.MethodGet, "/orders/my", alice, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode(t, rec)["orders"], 1)

	rec = s.do(t, http.MethodPut, "/orders/"+id+"/status", alice, map[string]string{"status": "shipped"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(t, http.MethodPut, "/orders/"+id+"/status", admin, map[string]string{"status": "paid"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_status", decode(t, rec)["code"])

	rec = s.do(t, http.MethodPut, "/orders/"+id+"/status", admin, map[string]string{"status": "shipped"})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = s.do(t, http.MethodPost, "/orders/"+id+"/cancel", alice, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_transition", decode(t, rec)["code"])
	assert.Equal(t, 3, s.stockOf(t, "p1"))

	rec = s.do(t, http.MethodPut, "/orders/"+id+"/deliver", admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	delivered := decode(t, rec)["order"].(map[string]any)
	assert.Equal(t, "delivered", delivered["status"])
	assert.Equal(t, true, delivered["is_delivered"])
}

func TestCancelOrder_RestoresStockOnce(t *testing.T) {
	s := newTestServer(t, nil)
	s.addProduct(t, "p1", "Lamp", "500", 5)
	alice := s.token(t, "alice", user.RoleCustomer)

	rec := s.do(t, http.MethodPost, "/orders", alice, placeBody(item("p1", 2)))
	require.Equal(t, http.StatusCreated, rec.Code)
	id := decode(t, rec)["order"].(map[string]any)["id"].(string)
	assert.Equal(t, 3, s.stockOf(t, "p1"))

	rec = s.do(t, http.MethodPost, "/orders/"+id+"/cancel", alice, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "cancelled", decode(t, rec)["order"].(map[string]any)["status"])
	assert.Equal(t, 5, s.stockOf(t, "p1"))

	rec = s.do(t, http.MethodPost, "/orders/"+id+"/cancel", alice, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, 5, s.stockOf(t, "p1"))
}

func TestCancelOrder_DeletedProductReportsRestockIncomplete(t *testing.T) {
	s := newTestServer(t, nil)
	s.addProduct(t, "p1", "Lamp", "500", 5)
	s.addProduct(t, "p2", "Desk", "100", 5)
	alice := s.token(t, "alice", user.RoleCustomer)
	admin := s.token(t, "root", user.RoleAdmin)

	rec := s.do(t, http.MethodPost, "/orders", alice, placeBody(item("p1", 2), item("p2", 1)))
	require.Equal(t, http.StatusCreated, rec.Code)
	id := decode(t, rec)["order"].(map[string]any)["id"].(string)
	require.Equal(t, http.StatusOK, s.do(t, http.MethodDelete, "/products/p1", admin, nil).Code)

	rec = s.do(t, http.MethodPost, "/orders/"+id+"/cancel", alice, nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "restock_incomplete", decode(t, rec)["code"])

	rec = s.do(t, http.MethodGet, "/orders/"+id, alice, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "cancelled", decode(t, rec)["order"].(map[string]any)["status"])
	assert.Equal(t, 5, s.stockOf(t, "p2"))
}

func TestListAllOrders_StatusFilterIsCaseInsensitive(t *testing.T) {
	s := newTestServer(t, nil)
	s.addProduct(t, "p1", "Lamp", "500", 5)
	alice := s.token(t, "alice", user.RoleCustomer)
	admin := s.token(t, "root", user.RoleAdmin)

	rec := s.do(t, http.MethodPost, "/orders", alice, placeBody(item("p1", 1)))
	require.Equal(t, http.StatusCreated, rec.Code)
	id := decode(t, rec)["order"].(map[string]any)["id"].(string)
	require.Equal(t, http.StatusCreated, s.do(t, http.MethodPut, "/orders/"+id+"/pay", alice, map[string]string{"paymentId": "pay_1"}).Code)

	rec = s.do(t, http.MethodGet, "/orders?status=Paid", admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode(t, rec)["orders"], 1)
}

func TestListAllOrders_AdminOnlyWithOwners(t *testing.T) {
	s := newTestServer(t, nil)
	s.addProduct(t, "p1", "Lamp", "500", 5)
	ctx := context.Background()
	owner, err := s.users.Register(ctx, "carol@example.com", "password123", "Carol")
	require.NoError(t, err)
	carol := s.token(t, owner.ID, user.RoleCustomer)
	admin := s.token(t, "root", user.RoleAdmin)

	require.Equal(t, http.StatusCreated, s.do(t, http.MethodPost, "/orders", carol, placeBody(item("p1", 1))).Code)

	rec := s.do(t, http.MethodGet, "/orders", carol, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(t, http.MethodGet, "/orders?status=pending", admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	orders := decode(t, rec)["orders"].([]any)
	require.Len(t, orders, 1)
	ownerJSON := orders[0].(map[string]any)["user"].(map[string]any)
	assert.Equal(t, "Carol", ownerJSON["name"])
	assert.Equal(t, "carol@example.com", ownerJSON["email"])

	rec = s.do(t, http.MethodGet, "/orders?status=lost", admin, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// ============================================
// Handler Tests (chi route context)
// ============================================

func withClaims(r *http.Request, userID, role string) *http.Request {
	return r.WithContext(middleware.WithClaims(r.Context(), &auth.Claims{UserID: userID, Role: role}))
}

func withURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

func TestOrderHandlers_GetOrder_Direct(t *testing.T) {
	s := newTestServer(t, nil)
	s.addProduct(t, "p1", "Lamp", "20", 5)
	o, err := s.orders.PlaceOrder(context.Background(), order.Caller{UserID: "alice"}, order.PlaceRequest{
		Items: []order.CartItem{{ProductID: "p1", Quantity: 1}},
		ShippingAddress: order.ShippingAddress{
			FullName: "A", Address: "B", City: "C", State: "D", Country: "E", PostalCode: "F", PhoneNumber: "G",
		},
	})
	require.NoError(t, err)
	handler := NewOrderHandlers(s.orders)

	req := withURLParam(httptest.NewRequest(http.MethodGet, "/orders/"+o.ID, nil), "id", o.ID)
	req = withClaims(req, "alice", user.RoleCustomer)
	rec := httptest.NewRecorder()
	handler.GetOrder(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Your order", decode(t, rec)["message"])

	rec = httptest.NewRecorder()
	handler.GetOrder(rec, withURLParam(httptest.NewRequest(http.MethodGet, "/orders/"+o.ID, nil), "id", o.ID))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRespondDomainError(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"insufficient stock", &inventory.InsufficientStockError{ProductID: "p1", Requested: 2}, http.StatusBadRequest, "insufficient_stock"},
		{"wrapped transition", fmt.Errorf("x: %w", order.ErrInvalidTransition), http.StatusBadRequest, "invalid_transition"},
		{"version conflict", order.ErrVersionConflict, http.StatusConflict, "concurrent_update"},
		{"category missing", category.ErrCategoryNotFound, http.StatusNotFound, "not_found"},
		{"email taken", user.ErrEmailTaken, http.StatusConflict, "conflict"},
		{"bad credentials", user.ErrInvalidCredentials, http.StatusUnauthorized, "unauthorized"},
		{"restock incomplete", fmt.Errorf("%w: boom", order.ErrRestockIncomplete), http.StatusInternalServerError, "restock_incomplete"},
		{"restock incomplete over deleted product", fmt.Errorf("%w: %w", order.ErrRestockIncomplete, inventory.ErrUnknownProduct), http.StatusInternalServerError, "restock_incomplete"},
		{"unknown", errors.New("mongo exploded"), http.StatusInternalServerError, "internal_error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			respondDomainError(rec, httptest.NewRequest(http.MethodGet, "/", nil), tt.err)

			assert.Equal(t, tt.status, rec.Code)
			body := decode(t, rec)
			assert.Equal(t, tt.code, body["code"])
			assert.NotContains(t, body["error"], "mongo exploded")
		})
	}
}

// ============================================
// Catalog Endpoint Tests
// ============================================

func TestCatalog_OverHTTP(t *testing.T) {
	s := newTestServer(t, nil)
	admin := s.token(t, "root", user.RoleAdmin)
	alice := s.token(t, "alice", user.RoleCustomer)

	require.Equal(t, http.StatusCreated, s.do(t, http.MethodPost, "/categories", admin, map[string]string{"name": "Electronics"}).Code)
	require.Equal(t, http.StatusCreated, s.do(t, http.MethodPost, "/categories", admin, map[string]string{"name": "Phones", "parent": "Electronics"}).Code)
	assert.Equal(t, http.StatusForbidden, s.do(t, http.MethodPost, "/categories", alice, map[string]string{"name": "Toys"}).Code)
	assert.Equal(t, http.StatusConflict, s.do(t, http.MethodPost, "/categories", admin, map[string]string{"name": "Phones"}).Code)

	rec := s.do(t, http.MethodPost, "/products", admin, map[string]any{
		"name": "Pixel", "price": "499.99", "brand": "Acme", "stock": 3, "category": "Phones",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	id := decode(t, rec)["product"].(map[string]any)["id"].(string)

	rec = s.do(t, http.MethodPost, "/products", admin, map[string]any{"name": "Toy", "price": 5, "category": "Toys"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodGet, "/products/category/Electronics", alice, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode(t, rec)["products"], 1)

	rec = s.do(t, http.MethodGet, "/products/search?keyword=acme&minPrice=100&sort=priceAsc&limit=5", alice, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	result := decode(t, rec)
	assert.Equal(t, float64(1), result["page"])
	assert.Equal(t, float64(1), result["totalPage"])
	assert.Equal(t, float64(1), result["totalProducts"])

	rec = s.do(t, http.MethodGet, "/products/search?minPrice=cheap", alice, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodPost, "/products/"+id+"/restock", admin, map[string]int{"qty": 7})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(10), decode(t, rec)["product"].(map[string]any)["stock"])

	rec = s.do(t, http.MethodPut, "/products/"+id, admin, map[string]any{"name": "Pixel 9", "stock": 0})
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, 10, s.stockOf(t, id))

	assert.Equal(t, http.StatusForbidden, s.do(t, http.MethodGet, "/products/all", alice, nil).Code)
	assert.Equal(t, http.StatusOK, s.do(t, http.MethodDelete, "/products/"+id, admin, nil).Code)
	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodGet, "/products/"+id, admin, nil).Code)
}

// ============================================
// Auth / Health Endpoint Tests
// ============================================

func TestAuth_RegisterLoginMe(t *testing.T) {
	s := newTestServer(t, nil)

	rec := s.do(t, http.MethodPost, "/auth/register", "", map[string]string{
		"email": "dave@example.com", "password": "password123", "name": "Dave",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "customer", decode(t, rec)["user"].(map[string]any)["role"])

	rec = s.do(t, http.MethodPost, "/auth/register", "", map[string]string{
		"email": "dave@example.com", "password": "password123", "name": "Dave",
	})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = s.do(t, http.MethodPost, "/auth/login", "", map[string]string{"email": "dave@example.com", "password": "wrong-pass"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do(t, http.MethodPost, "/auth/login", "", map[string]string{"email": "dave@example.com", "password": "password123"})
	require.Equal(t, http.StatusOK, rec.Code)
	var cookie *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == middleware.AccessTokenCookie {
			cookie = c
		}
	}
	require.NotNil(t, cookie)
	assert.True(t, cookie.HttpOnly)

	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	req.AddCookie(cookie)
	me := httptest.NewRecorder()
	s.handler.ServeHTTP(me, req)
	require.Equal(t, http.StatusOK, me.Code)
	assert.Equal(t, "dave@example.com", decode(t, me)["email"])

	rec = s.do(t, http.MethodPost, "/auth/logout", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotEmpty(t, rec.Result().Cookies())
	assert.Equal(t, -1, rec.Result().Cookies()[0].MaxAge)
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, map[string]HealthCheck{
		"mongo": func(context.Context) error { return nil },
	})
	rec := s.do(t, http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", decode(t, rec)["status"])

	s = newTestServer(t, map[string]HealthCheck{
		"mongo": func(context.Context) error { return nil },
		"kafka": func(context.Context) error { return errors.New("breaker open") },
	})
	rec = s.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "degraded", body["status"])
	assert.Equal(t, "breaker open", body["checks"].(map[string]any)["kafka"])
}
