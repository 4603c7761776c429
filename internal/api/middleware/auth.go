package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/example/ec-store/internal/auth"
)

// AccessTokenCookie carries the access token for browser clients.
const AccessTokenCookie = "access_token"

// TokenValidator validates access tokens.
type TokenValidator interface {
	Validate(token string) (*auth.Claims, error)
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message, "code": code})
}

// ExtractToken extracts JWT token from cookie or Authorization header
func ExtractToken(r *http.Request) string {
	// Try cookie first (for browser)
	if cookie, err := r.Cookie(AccessTokenCookie); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	// Fall back to Authorization header (for API clients)
	if authHeader := r.Header.Get("Authorization"); strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
	}
	return ""
}

type contextKey string

const (
	UserContextKey contextKey = "user"
)

// AuthMiddleware validates JWT tokens and adds user claims to context
func AuthMiddleware(tokens TokenValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString := ExtractToken(r)
			if tokenString == "" {
				respondError(w, http.StatusUnauthorized, "unauthorized", "authentication required")
				return
			}

			claims, err := tokens.Validate(tokenString)
			if err != nil {
				respondError(w, http.StatusUnauthorized, "unauthorized", err.Error())
				return
			}

			next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
		})
	}
}

// RequireRole checks if the user has one of the required roles
func RequireRole(roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := GetUserFromContext(r.Context())
			if !ok {
				respondError(w, http.StatusUnauthorized, "unauthorized", "authentication required")
				return
			}

			for _, role := range roles {
				if claims.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}

			respondError(w, http.StatusForbidden, "forbidden", "not allowed")
		})
	}
}

// WithClaims stores claims on ctx.
func WithClaims(ctx context.Context, claims *auth.Claims) context.Context {
	return context.WithValue(ctx, UserContextKey, claims)
}

// GetUserFromContext retrieves user claims from the request context
func GetUserFromContext(ctx context.Context) (*auth.Claims, bool) {
	claims, ok := ctx.Value(UserContextKey).(*auth.Claims)
	return claims, ok
}
