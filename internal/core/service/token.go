package service

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/taskdeck/taskdeck/internal/core/domain"
)

// TokenSigner issues and verifies the session tokens returned by Register and
// Login. A token lets the presentation layer reattach to a session without
// holding the plaintext password.
type TokenSigner struct {
	secret []byte
	ttl    time.Duration
}

func NewTokenSigner(secret string, ttl time.Duration) *TokenSigner {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &TokenSigner{secret: []byte(secret), ttl: ttl}
}

// Issue signs a token carrying the username.
func (s *TokenSigner) Issue(username string) (string, error) {
	claims := jwt.MapClaims{
		"sub": username,
		"exp": time.Now().Add(s.ttl).Unix(),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(s.secret)
}

// Verify validates a token and returns the username it was issued for.
// Invalid, tampered or expired tokens fail with ErrNotAuthenticated.
func (s *TokenSigner) Verify(token string) (string, error) {
	parsed, err := jwt.Parse(token, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil || !parsed.Valid {
		return "", fmt.Errorf("%w: bad session token", domain.ErrNotAuthenticated)
	}
	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return "", fmt.Errorf("%w: bad session token", domain.ErrNotAuthenticated)
	}
	username, _ := claims["sub"].(string)
	if username == "" {
		return "", fmt.Errorf("%w: bad session token", domain.ErrNotAuthenticated)
	}
	return username, nil
}
