package service

import (
	"errors"

	"github.com/vibast-solutions/ms-go-journal/app/auth"
)

var (
	ErrUserExists         = errors.New("user already exists")
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = auth.ErrInvalidToken
	ErrInvalidResetToken  = auth.ErrInvalidResetToken
	ErrWeakPassword       = errors.New("password does not meet policy requirements")
	ErrEntryNotFound      = errors.New("journal entry not found")
)
