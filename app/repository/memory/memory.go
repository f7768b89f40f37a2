// Package memory keeps users, refresh tokens and journal entries in process
// memory behind the same method sets as the MySQL repositories. Tests use it
// where a scripted sqlmock conversation would obscure the behaviour under
// test.
package memory

import (
	"context"
	"database/sql"
	"sort"
	"sync"
	"time"

	"github.com/vibast-solutions/ms-go-journal/app/entity"
	"github.com/vibast-solutions/ms-go-journal/app/repository"

	"github.com/google/uuid"
)

type Store struct {
	mu            sync.Mutex
	users         map[uuid.UUID]*entity.User
	refreshTokens map[string]*entity.RefreshToken
	entries       map[uuid.UUID]*entity.JournalEntry
}

func NewStore() *Store {
	return &Store{
		users:         make(map[uuid.UUID]*entity.User),
		refreshTokens: make(map[string]*entity.RefreshToken),
		entries:       make(map[uuid.UUID]*entity.JournalEntry),
	}
}

func (s *Store) Users() *UserRepository {
	return &UserRepository{s: s}
}

func (s *Store) RefreshTokens() *RefreshTokenRepository {
	return &RefreshTokenRepository{s: s}
}

func (s *Store) JournalEntries() *JournalEntryRepository {
	return &JournalEntryRepository{s: s}
}

// User returns a copy of the stored user with the given email, or nil.
func (s *Store) User(email string) *entity.User {
	s.mu.Lock()
	defer s.mu.Unlock()

	if u := s.userByEmail(email); u != nil {
		cp := *u
		return &cp
	}
	return nil
}

// RefreshTokenCount returns the number of live refresh records of a user.
func (s *Store) RefreshTokenCount(userID uuid.UUID) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for _, t := range s.refreshTokens {
		if t.UserID == userID {
			n++
		}
	}
	return n
}

func (s *Store) userByEmail(email string) *entity.User {
	for _, u := range s.users {
		if u.Email == email {
			return u
		}
	}
	return nil
}

type UserRepository struct {
	s *Store
}

func (r *UserRepository) Create(_ context.Context, user *entity.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if r.s.userByEmail(user.Email) != nil {
		return repository.ErrDuplicateEmail
	}
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	cp := *user
	r.s.users[user.ID] = &cp
	return nil
}

func (r *UserRepository) FindByEmail(_ context.Context, email string) (*entity.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if u := r.s.userByEmail(email); u != nil {
		cp := *u
		return &cp, nil
	}
	return nil, nil
}

func (r *UserRepository) FindByResetToken(_ context.Context, digest string) (*entity.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, u := range r.s.users {
		if u.ResetToken.Valid && u.ResetToken.String == digest {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *UserRepository) SetResetToken(_ context.Context, id uuid.UUID, digest string, expiresAt, now time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if u, ok := r.s.users[id]; ok {
		u.ResetToken = sql.NullString{String: digest, Valid: true}
		u.ResetTokenExpiresAt = sql.NullTime{Time: expiresAt, Valid: true}
		u.UpdatedAt = now
	}
	return nil
}

func (r *UserRepository) CompleteReset(_ context.Context, id uuid.UUID, digest, passwordHash string, now time.Time) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	u, ok := r.s.users[id]
	if !ok || !u.ResetToken.Valid || u.ResetToken.String != digest || u.ResetTokenExpiresAt.Time.Before(now) {
		return false, nil
	}

	u.PasswordHash = passwordHash
	u.ResetToken = sql.NullString{}
	u.ResetTokenExpiresAt = sql.NullTime{}
	u.UpdatedAt = now

	for hash, t := range r.s.refreshTokens {
		if t.UserID == id {
			delete(r.s.refreshTokens, hash)
		}
	}
	return true, nil
}

func (r *UserRepository) DeleteByEmail(_ context.Context, email string) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	u := r.s.userByEmail(email)
	if u == nil {
		return 0, nil
	}
	delete(r.s.users, u.ID)
	for hash, t := range r.s.refreshTokens {
		if t.UserID == u.ID {
			delete(r.s.refreshTokens, hash)
		}
	}
	for id, e := range r.s.entries {
		if e.UserID == u.ID {
			delete(r.s.entries, id)
		}
	}
	return 1, nil
}

type RefreshTokenRepository struct {
	s *Store
}

func (r *RefreshTokenRepository) Create(_ context.Context, token *entity.RefreshToken) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	cp := *token
	r.s.refreshTokens[token.TokenHash] = &cp
	return nil
}

func (r *RefreshTokenRepository) Rotate(_ context.Context, userID uuid.UUID, oldHash string, now time.Time, next *entity.RefreshToken) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	t, ok := r.s.refreshTokens[oldHash]
	if !ok || t.UserID != userID || !t.ExpiresAt.After(now) {
		return false, nil
	}
	delete(r.s.refreshTokens, oldHash)

	cp := *next
	r.s.refreshTokens[next.TokenHash] = &cp
	return true, nil
}

func (r *RefreshTokenRepository) DeleteByHash(_ context.Context, tokenHash string, userID uuid.UUID) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if t, ok := r.s.refreshTokens[tokenHash]; ok && t.UserID == userID {
		delete(r.s.refreshTokens, tokenHash)
		return 1, nil
	}
	return 0, nil
}

func (r *RefreshTokenRepository) DeleteByUserID(_ context.Context, userID uuid.UUID) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var n int64
	for hash, t := range r.s.refreshTokens {
		if t.UserID == userID {
			delete(r.s.refreshTokens, hash)
			n++
		}
	}
	return n, nil
}

func (r *RefreshTokenRepository) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var n int64
	for hash, t := range r.s.refreshTokens {
		if !t.ExpiresAt.After(now) {
			delete(r.s.refreshTokens, hash)
			n++
		}
	}
	return n, nil
}

type JournalEntryRepository struct {
	s *Store
}

func (r *JournalEntryRepository) Create(_ context.Context, entry *entity.JournalEntry) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	cp := *entry
	r.s.entries[entry.ID] = &cp
	return nil
}

func (r *JournalEntryRepository) ListByUser(_ context.Context, userID uuid.UUID) ([]*entity.JournalEntry, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	entries := make([]*entity.JournalEntry, 0)
	for _, e := range r.s.entries {
		if e.UserID == userID {
			cp := *e
			entries = append(entries, &cp)
		}
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].CreatedAt.Equal(entries[j].CreatedAt) {
			return entries[i].ID.String() < entries[j].ID.String()
		}
		return entries[i].CreatedAt.After(entries[j].CreatedAt)
	})
	return entries, nil
}

func (r *JournalEntryRepository) FindForUser(_ context.Context, id, userID uuid.UUID) (*entity.JournalEntry, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if e, ok := r.s.entries[id]; ok && e.UserID == userID {
		cp := *e
		return &cp, nil
	}
	return nil, nil
}

func (r *JournalEntryRepository) Update(_ context.Context, entry *entity.JournalEntry) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	e, ok := r.s.entries[entry.ID]
	if !ok || e.UserID != entry.UserID {
		return 0, nil
	}
	cp := *entry
	r.s.entries[entry.ID] = &cp
	return 1, nil
}

func (r *JournalEntryRepository) Delete(_ context.Context, id, userID uuid.UUID) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if e, ok := r.s.entries[id]; ok && e.UserID == userID {
		delete(r.s.entries, id)
		return 1, nil
	}
	return 0, nil
}

func (r *JournalEntryRepository) DeleteAllForUser(_ context.Context, userID uuid.UUID) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var n int64
	for id, e := range r.s.entries {
		if e.UserID == userID {
			delete(r.s.entries, id)
			n++
		}
	}
	return n, nil
}
