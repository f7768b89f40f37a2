package entity

import (
	"time"

	"github.com/google/uuid"
)

type JournalEntry struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	Work      string
	Struggle  string
	Intention string
	CreatedAt time.Time
	UpdatedAt time.Time
}
