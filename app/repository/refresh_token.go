package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/vibast-solutions/ms-go-journal/app/entity"

	"github.com/google/uuid"
)

type RefreshTokenRepository struct {
	db *sql.DB
}

func NewRefreshTokenRepository(db *sql.DB) *RefreshTokenRepository {
	return &RefreshTokenRepository{db: db}
}

func (r *RefreshTokenRepository) Create(ctx context.Context, token *entity.RefreshToken) error {
	return insertRefreshToken(ctx, r.db, token)
}

// Rotate consumes the record matching oldHash and stores next in its place.
// It returns false when no unexpired record matched, in which case nothing
// is written.
func (r *RefreshTokenRepository) Rotate(ctx context.Context, userID uuid.UUID, oldHash string, now time.Time, next *entity.RefreshToken) (bool, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	query := `DELETE FROM refresh_tokens WHERE token_hash = ? AND user_id = ? AND expires_at > ?`
	result, err := tx.ExecContext(ctx, query, oldHash, userID.String(), now)
	if err != nil {
		return false, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	if affected == 0 {
		return false, nil
	}

	if err = insertRefreshToken(ctx, tx, next); err != nil {
		return false, err
	}

	if err = tx.Commit(); err != nil {
		return false, err
	}
	return true, nil
}

func (r *RefreshTokenRepository) DeleteByHash(ctx context.Context, tokenHash string, userID uuid.UUID) (int64, error) {
	query := `DELETE FROM refresh_tokens WHERE token_hash = ? AND user_id = ?`
	result, err := r.db.ExecContext(ctx, query, tokenHash, userID.String())
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func (r *RefreshTokenRepository) DeleteByUserID(ctx context.Context, userID uuid.UUID) (int64, error) {
	query := `DELETE FROM refresh_tokens WHERE user_id = ?`
	result, err := r.db.ExecContext(ctx, query, userID.String())
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func (r *RefreshTokenRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	query := `DELETE FROM refresh_tokens WHERE expires_at <= ?`
	result, err := r.db.ExecContext(ctx, query, now)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

func insertRefreshToken(ctx context.Context, db execer, token *entity.RefreshToken) error {
	if token.ID == uuid.Nil {
		token.ID = uuid.New()
	}

	query := `
		INSERT INTO refresh_tokens (id, user_id, token_hash, expires_at, created_at)
		VALUES (?, ?, ?, ?, ?)
	`
	_, err := db.ExecContext(ctx, query,
		token.ID.String(),
		token.UserID.String(),
		token.TokenHash,
		token.ExpiresAt,
		token.CreatedAt,
	)
	return err
}
