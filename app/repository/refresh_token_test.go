package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/vibast-solutions/ms-go-journal/app/entity"
	"github.com/vibast-solutions/ms-go-journal/app/repository"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
)

const (
	insertRefreshTokenQuery = `(?s)INSERT INTO refresh_tokens \(id, user_id, token_hash, expires_at, created_at\)\s+VALUES \(\?, \?, \?, \?, \?\)`
	consumeRefreshToken     = `(?s)DELETE FROM refresh_tokens WHERE token_hash = \? AND user_id = \? AND expires_at > \?`
	deleteRefreshTokenQuery = `(?s)DELETE FROM refresh_tokens WHERE token_hash = \? AND user_id = \?$`
	deleteExpiredQuery      = `(?s)DELETE FROM refresh_tokens WHERE expires_at <= \?`
)

func TestRefreshTokenRepository_Create(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()

	repo := repository.NewRefreshTokenRepository(db)
	now := time.Now()
	token := &entity.RefreshToken{
		UserID:    uuid.New(),
		TokenHash: "hash",
		ExpiresAt: now.Add(time.Hour),
		CreatedAt: now,
	}

	mock.ExpectExec(insertRefreshTokenQuery).
		WithArgs(sqlmock.AnyArg(), token.UserID.String(), "hash", token.ExpiresAt, token.CreatedAt).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.Create(context.Background(), token); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if token.ID == uuid.Nil {
		t.Fatalf("expected generated id")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestRefreshTokenRepository_Rotate(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()

	repo := repository.NewRefreshTokenRepository(db)
	userID := uuid.New()
	now := time.Now()
	next := &entity.RefreshToken{
		ID:        uuid.New(),
		UserID:    userID,
		TokenHash: "new-hash",
		ExpiresAt: now.Add(time.Hour),
		CreatedAt: now,
	}

	mock.ExpectBegin()
	mock.ExpectExec(consumeRefreshToken).
		WithArgs("old-hash", userID.String(), now).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(insertRefreshTokenQuery).
		WithArgs(next.ID.String(), userID.String(), "new-hash", next.ExpiresAt, next.CreatedAt).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	rotated, err := repo.Rotate(context.Background(), userID, "old-hash", now, next)
	if err != nil {
		t.Fatalf("rotate failed: %v", err)
	}
	if !rotated {
		t.Fatalf("expected token to be rotated")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestRefreshTokenRepository_RotateUnknownToken(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()

	repo := repository.NewRefreshTokenRepository(db)
	userID := uuid.New()
	now := time.Now()

	mock.ExpectBegin()
	mock.ExpectExec(consumeRefreshToken).
		WithArgs("old-hash", userID.String(), now).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	rotated, err := repo.Rotate(context.Background(), userID, "old-hash", now, &entity.RefreshToken{UserID: userID})
	if err != nil {
		t.Fatalf("rotate failed: %v", err)
	}
	if rotated {
		t.Fatalf("expected rotation to be refused")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestRefreshTokenRepository_DeleteByHash(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()

	repo := repository.NewRefreshTokenRepository(db)
	userID := uuid.New()

	mock.ExpectExec(deleteRefreshTokenQuery).
		WithArgs("hash", userID.String()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	count, err := repo.DeleteByHash(context.Background(), "hash", userID)
	if err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 deleted row, got %d", count)
	}
}

func TestRefreshTokenRepository_DeleteByUserID(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()

	repo := repository.NewRefreshTokenRepository(db)
	userID := uuid.New()

	mock.ExpectExec(deleteUserTokensQuery).
		WithArgs(userID.String()).
		WillReturnResult(sqlmock.NewResult(0, 3))

	count, err := repo.DeleteByUserID(context.Background(), userID)
	if err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if count != 3 {
		t.Fatalf("expected 3 deleted rows, got %d", count)
	}
}

func TestRefreshTokenRepository_DeleteExpired(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()

	repo := repository.NewRefreshTokenRepository(db)
	now := time.Now()

	mock.ExpectExec(deleteExpiredQuery).
		WithArgs(now).
		WillReturnResult(sqlmock.NewResult(0, 4))

	count, err := repo.DeleteExpired(context.Background(), now)
	if err != nil {
		t.Fatalf("delete expired failed: %v", err)
	}
	if count != 4 {
		t.Fatalf("expected 4 deleted rows, got %d", count)
	}
}
