package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var ErrInvalidToken = errors.New("invalid or expired token")

type Kind string

const (
	KindAccess  Kind = "access"
	KindRefresh Kind = "refresh"
)

type Claims struct {
	Type Kind `json:"type"`
	jwt.RegisteredClaims
}

// UserID parses the subject claim.
func (c *Claims) UserID() (uuid.UUID, error) {
	return uuid.Parse(c.Subject)
}

type TokenManager struct {
	secret []byte
	now    func() time.Time
}

type TokenManagerOption func(*TokenManager)

func WithTokenClock(now func() time.Time) TokenManagerOption {
	return func(m *TokenManager) {
		if now != nil {
			m.now = now
		}
	}
}

func NewTokenManager(secret string, opts ...TokenManagerOption) *TokenManager {
	m := &TokenManager{
		secret: []byte(secret),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *TokenManager) Issue(subject uuid.UUID, kind Kind, ttl time.Duration) (string, time.Time, error) {
	now := m.now()
	expiresAt := now.Add(ttl)

	claims := &Claims{
		Type: kind,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject.String(),
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// Validate returns ErrInvalidToken for every failure: bad signature, a
// non-HS256 algorithm, exp at or before now, the wrong kind or a subject that
// is not a UUID.
func (m *TokenManager) Validate(tokenString string, expected Kind) (*Claims, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)

	claims := &Claims{}
	token, err := parser.ParseWithClaims(tokenString, claims, func(*jwt.Token) (interface{}, error) {
		return m.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}

	if !m.now().Before(claims.ExpiresAt.Time) {
		return nil, ErrInvalidToken
	}
	if claims.Type != expected {
		return nil, ErrInvalidToken
	}
	if _, err = claims.UserID(); err != nil {
		return nil, ErrInvalidToken
	}

	return claims, nil
}
