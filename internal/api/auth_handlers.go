package api

import (
	"net/http"
	"time"

	"github.com/example/ec-store/internal/api/middleware"
	"github.com/example/ec-store/internal/auth"
	"github.com/example/ec-store/internal/domain/user"
)

// AuthHandlers handles authentication-related HTTP requests
type AuthHandlers struct {
	users  *user.Service
	tokens *auth.JWTService
}

func NewAuthHandlers(users *user.Service, tokens *auth.JWTService) *AuthHandlers {
	return &AuthHandlers{users: users, tokens: tokens}
}

// RegisterRequest represents the registration request body
type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

// LoginRequest represents the login request body
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResponse is returned by register and login. Token is also set as the
// access_token cookie.
type AuthResponse struct {
	Message   string       `json:"message"`
	User      UserResponse `json:"user"`
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
}

// UserResponse represents user data in responses
type UserResponse struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

func toUserResponse(u *user.User) UserResponse {
	return UserResponse{
		ID:        u.ID,
		Email:     u.Email,
		Name:      u.Name,
		Role:      u.Role,
		CreatedAt: u.CreatedAt,
	}
}

func (h *AuthHandlers) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	u, err := h.users.Register(r.Context(), req.Email, req.Password, req.Name)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}

	h.respondWithToken(w, r, http.StatusCreated, "Registration successful", u)
}

func (h *AuthHandlers) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	u, err := h.users.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}

	h.respondWithToken(w, r, http.StatusOK, "Login successful", u)
}

func (h *AuthHandlers) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.AccessTokenCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})

	respondJSON(w, http.StatusOK, messageResponse{Message: "Logout successful"})
}

// Me returns the current authenticated user's information
func (h *AuthHandlers) Me(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized", "authentication required")
		return
	}

	u, err := h.users.Get(r.Context(), claims.UserID)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, toUserResponse(u))
}

func (h *AuthHandlers) respondWithToken(w http.ResponseWriter, r *http.Request, status int, message string, u *user.User) {
	token, err := h.tokens.Issue(u.ID, u.Email, u.Role)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.AccessTokenCookie,
		Value:    token.Value,
		Path:     "/",
		Expires:  token.ExpiresAt,
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteStrictMode,
	})

	respondJSON(w, status, AuthResponse{
		Message:   message,
		User:      toUserResponse(u),
		Token:     token.Value,
		ExpiresAt: token.ExpiresAt,
	})
}
