package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token has expired")
	ErrWeakSecret   = errors.New("jwt secret must be at least 32 bytes")
)

const (
	minSecretLength = 32
	issuer          = "ec-store"
)

// Claims identifies the caller of an authenticated request.
type Claims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// Token is a signed access token and its expiry.
type Token struct {
	Value     string
	ExpiresAt time.Time
}

// JWTService issues and validates HS256 access tokens.
type JWTService struct {
	secretKey []byte
	expiry    time.Duration
	now       func() time.Time
}

func NewJWTService(secretKey string, expiry time.Duration) (*JWTService, error) {
	if len(secretKey) < minSecretLength {
		return nil, ErrWeakSecret
	}
	return &JWTService{
		secretKey: []byte(secretKey),
		expiry:    expiry,
		now:       time.Now,
	}, nil
}

func (s *JWTService) Issue(userID, email, role string) (Token, error) {
	now := s.now()
	expiresAt := now.Add(s.expiry)

	claims := Claims{
		UserID: userID,
		Email:  email,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secretKey)
	if err != nil {
		return Token{}, fmt.Errorf("failed to sign token: %w", err)
	}
	return Token{Value: signed, ExpiresAt: expiresAt}, nil
}

// Validate parses tokenString and returns its claims. Tokens without a user
// id or from another issuer are rejected.
func (s *JWTService) Validate(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return s.secretKey, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.UserID == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// Expiry returns the lifetime of issued tokens.
func (s *JWTService) Expiry() time.Duration {
	return s.expiry
}
