package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"io"
	"time"

	"github.com/vibast-solutions/ms-go-journal/app/entity"
)

const resetTokenBytes = 32

var ErrInvalidResetToken = errors.New("invalid or expired reset token")

// ResetGrant is a freshly issued reset code. Only Digest is persisted; Token
// goes to the user by email.
type ResetGrant struct {
	Token     string
	Digest    string
	ExpiresAt time.Time
}

type ResetTokenManager struct {
	ttl    time.Duration
	random io.Reader
}

func NewResetTokenManager(ttl time.Duration) *ResetTokenManager {
	return &ResetTokenManager{ttl: ttl, random: rand.Reader}
}

func (m *ResetTokenManager) TTL() time.Duration {
	return m.ttl
}

func (m *ResetTokenManager) Request(now time.Time) (*ResetGrant, error) {
	secret := make([]byte, resetTokenBytes)
	if _, err := io.ReadFull(m.random, secret); err != nil {
		return nil, err
	}

	token := hex.EncodeToString(secret)
	return &ResetGrant{
		Token:     token,
		Digest:    Digest(token),
		ExpiresAt: now.Add(m.ttl),
	}, nil
}

// Consume checks a supplied reset code against the user's pending reset.
// The caller clears the reset fields in the same write that stores the new
// password hash.
func (m *ResetTokenManager) Consume(user *entity.User, supplied string, now time.Time) error {
	if user == nil || !user.HasPendingReset() {
		return ErrInvalidResetToken
	}

	digest := Digest(supplied)
	if subtle.ConstantTimeCompare([]byte(digest), []byte(user.ResetToken.String)) != 1 {
		return ErrInvalidResetToken
	}
	if now.After(user.ResetTokenExpiresAt.Time) {
		return ErrInvalidResetToken
	}

	return nil
}

// Digest is the SHA-256 hex digest stored in place of opaque tokens.
func Digest(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
