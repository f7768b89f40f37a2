package http

import (
	"time"

	"github.com/vibast-solutions/ms-go-journal/app/dto"
	"github.com/vibast-solutions/ms-go-journal/app/entity"
)

const TokenTypeBearer = "bearer"

type ErrorResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type StatusResponse struct {
	Message string `json:"message"`
	Status  string `json:"status"`
}

type UserResponse struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func NewUserResponse(user *entity.User) *UserResponse {
	return &UserResponse{
		ID:        user.ID.String(),
		Email:     user.Email,
		CreatedAt: user.CreatedAt,
		UpdatedAt: user.UpdatedAt,
	}
}

type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
}

func NewTokenResponse(pair *dto.TokenPair) *TokenResponse {
	return &TokenResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		TokenType:    TokenTypeBearer,
		ExpiresIn:    pair.ExpiresIn,
	}
}

type JournalEntryResponse struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Work      string    `json:"work"`
	Struggle  string    `json:"struggle"`
	Intention string    `json:"intention"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func NewJournalEntryResponse(entry *entity.JournalEntry) *JournalEntryResponse {
	return &JournalEntryResponse{
		ID:        entry.ID.String(),
		UserID:    entry.UserID.String(),
		Work:      entry.Work,
		Struggle:  entry.Struggle,
		Intention: entry.Intention,
		CreatedAt: entry.CreatedAt,
		UpdatedAt: entry.UpdatedAt,
	}
}

func NewJournalEntryListResponse(entries []*entity.JournalEntry) []*JournalEntryResponse {
	res := make([]*JournalEntryResponse, 0, len(entries))
	for _, entry := range entries {
		res = append(res, NewJournalEntryResponse(entry))
	}
	return res
}
