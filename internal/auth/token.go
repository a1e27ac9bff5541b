package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"medspa/internal/domain"

	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidToken = errors.New("invalid or expired token")

// Claims is the JWT payload issued at login.
type Claims struct {
	UserID int64  `json:"user_id"`
	Name   string `json:"name,omitempty"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// IssueToken signs an HS256 token for the principal valid for ttl.
func IssueToken(secret []byte, p domain.Principal, ttl time.Duration, now time.Time) (string, error) {
	if len(secret) == 0 {
		return "", fmt.Errorf("jwt secret not configured")
	}
	claims := Claims{
		UserID: int64(p.UserID),
		Name:   p.Name,
		Role:   p.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   fmt.Sprintf("%d", p.UserID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

// ParseToken validates signature and expiry and returns the caller.
func ParseToken(secret []byte, raw string) (domain.Principal, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" || len(secret) == 0 {
		return domain.Principal{}, ErrInvalidToken
	}
	var claims Claims
	tok, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (any, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil || !tok.Valid {
		return domain.Principal{}, ErrInvalidToken
	}
	if claims.UserID <= 0 || claims.Role == "" {
		return domain.Principal{}, ErrInvalidToken
	}
	return domain.Principal{
		UserID: domain.ID(claims.UserID),
		Name:   claims.Name,
		Role:   strings.ToLower(claims.Role),
	}, nil
}
