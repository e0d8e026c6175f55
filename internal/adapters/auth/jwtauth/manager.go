package jwtauth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"pet-adoption/internal/ports/auth"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrTokenEmpty    = errors.New("token is empty")
	ErrNotConfigured = errors.New("jwt secret not configured")
)

type tokenClaims struct {
	Email string `json:"email,omitempty"`
	Role  string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// Manager implementa auth.AuthVerifier y auth.TokenIssuer con HS256.
// El subject del token es el user id.
type Manager struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func New(secret string, ttl time.Duration) *Manager {
	if ttl <= 0 {
		ttl = 30 * 24 * time.Hour
	}
	return &Manager{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
}

func (m *Manager) Issue(userID, email, role string) (string, error) {
	if m == nil || len(m.secret) == 0 {
		return "", ErrNotConfigured
	}
	if strings.TrimSpace(userID) == "" {
		return "", errors.New("user id required")
	}

	now := m.now()
	claims := tokenClaims{
		Email: email,
		Role:  role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

func (m *Manager) Verify(ctx context.Context, token string) (auth.Claims, error) {
	if m == nil || len(m.secret) == 0 {
		return auth.Claims{}, ErrNotConfigured
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return auth.Claims{}, ErrTokenEmpty
	}

	parsed, err := jwt.ParseWithClaims(token, &tokenClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil {
		return auth.Claims{}, fmt.Errorf("jwt verify failed: %w", err)
	}

	claims, ok := parsed.Claims.(*tokenClaims)
	if !ok || !parsed.Valid {
		return auth.Claims{}, errors.New("invalid token claims")
	}

	return auth.Claims{
		UserID: claims.Subject,
		Email:  claims.Email,
		Role:   claims.Role,
	}, nil
}
