package entity

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID                  uuid.UUID
	Email               string
	PasswordHash        string
	ResetToken          sql.NullString
	ResetTokenExpiresAt sql.NullTime
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// HasPendingReset reports whether both reset fields are set.
func (u *User) HasPendingReset() bool {
	return u.ResetToken.Valid && u.ResetTokenExpiresAt.Valid
}

type RefreshToken struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	TokenHash string
	ExpiresAt time.Time
	CreatedAt time.Time
}
