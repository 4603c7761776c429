package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/example/ec-store/internal/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key-for-middleware-tests"

func newTestJWTService(t *testing.T) *auth.JWTService {
	t.Helper()
	service, err := auth.NewJWTService(testSecret, 15*time.Minute)
	require.NoError(t, err)
	return service
}

func issue(t *testing.T, service *auth.JWTService, userID, role string) string {
	t.Helper()
	token, err := service.Issue(userID, userID+"@example.com", role)
	require.NoError(t, err)
	return token.Value
}

// capture records the claims seen by the wrapped handler.
func capture(claims **auth.Claims) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if c, ok := GetUserFromContext(r.Context()); ok {
			*claims = c
		}
		w.WriteHeader(http.StatusOK)
	})
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) map[string]string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

// ============================================
// AuthMiddleware Tests
// ============================================

func TestAuthMiddleware_ValidToken_Header(t *testing.T) {
	jwtService := newTestJWTService(t)
	token := issue(t, jwtService, "user-123", "customer")

	var claims *auth.Claims
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()

	AuthMiddleware(jwtService)(capture(&claims)).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, claims)
	assert.Equal(t, "user-123", claims.UserID)
	assert.Equal(t, "user-123@example.com", claims.Email)
	assert.Equal(t, "customer", claims.Role)
}

func TestAuthMiddleware_ValidToken_Cookie(t *testing.T) {
	jwtService := newTestJWTService(t)
	token := issue(t, jwtService, "user-456", "admin")

	var claims *auth.Claims
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.AddCookie(&http.Cookie{Name: AccessTokenCookie, Value: token})
	rec := httptest.NewRecorder()

	AuthMiddleware(jwtService)(capture(&claims)).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, claims)
	assert.Equal(t, "user-456", claims.UserID)
}

func TestAuthMiddleware_CookieTakesPrecedence(t *testing.T) {
	jwtService := newTestJWTService(t)
	cookieToken := issue(t, jwtService, "cookie-user", "customer")
	headerToken := issue(t, jwtService, "header-user", "customer")

	var claims *auth.Claims
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.AddCookie(&http.Cookie{Name: AccessTokenCookie, Value: cookieToken})
	req.Header.Set("Authorization", "Bearer "+headerToken)
	rec := httptest.NewRecorder()

	AuthMiddleware(jwtService)(capture(&claims)).ServeHTTP(rec, req)

	require.NotNil(t, claims)
	assert.Equal(t, "cookie-user", claims.UserID)
}

func TestAuthMiddleware_Rejects(t *testing.T) {
	jwtService := newTestJWTService(t)
	other, err := auth.NewJWTService("a-completely-different-secret-key!", time.Minute)
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
	}{
		{"no token", ""},
		{"not bearer", "Basic dXNlcjpwYXNz"},
		{"garbage", "Bearer not-a-jwt"},
		{"wrong signature", "Bearer " + issue(t, other, "user-1", "admin")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called := false
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { called = true })
			req := httptest.NewRequest(http.MethodGet, "/protected", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()

			AuthMiddleware(jwtService)(next).ServeHTTP(rec, req)

			assert.False(t, called)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Equal(t, "unauthorized", decodeError(t, rec)["code"])
		})
	}
}

// ============================================
// RequireRole Tests
// ============================================

func TestRequireRole(t *testing.T) {
	tests := []struct {
		name   string
		claims *auth.Claims
		want   int
	}{
		{"admin allowed", &auth.Claims{UserID: "u1", Role: "admin"}, http.StatusOK},
		{"customer forbidden", &auth.Claims{UserID: "u2", Role: "customer"}, http.StatusForbidden},
		{"no claims", nil, http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
			req := httptest.NewRequest(http.MethodGet, "/admin", nil)
			if tt.claims != nil {
				req = req.WithContext(WithClaims(req.Context(), tt.claims))
			}
			rec := httptest.NewRecorder()

			RequireRole("admin")(next).ServeHTTP(rec, req)

			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestRequireRole_AnyOfSeveral(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(WithClaims(req.Context(), &auth.Claims{UserID: "u1", Role: "customer"}))
	rec := httptest.NewRecorder()

	RequireRole("admin", "customer")(next).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestGetUserFromContext_NoClaims(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	claims, ok := GetUserFromContext(req.Context())

	assert.False(t, ok)
	assert.Nil(t, claims)
}
