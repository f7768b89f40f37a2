package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/vibast-solutions/ms-go-journal/app/entity"

	"github.com/google/uuid"
)

const userColumns = `id, email, password_hash, reset_token, reset_token_expires_at, created_at, updated_at`

type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(ctx context.Context, user *entity.User) error {
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}

	query := `
		INSERT INTO users (id, email, password_hash, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
	`
	_, err := r.db.ExecContext(ctx, query,
		user.ID.String(),
		user.Email,
		user.PasswordHash,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if isDuplicateEntry(err) {
		return ErrDuplicateEmail
	}
	return err
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = ?`
	return r.findOne(ctx, query, email)
}

func (r *UserRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = ?`
	return r.findOne(ctx, query, id.String())
}

// FindByResetToken looks a user up by the stored digest of a reset code.
func (r *UserRepository) FindByResetToken(ctx context.Context, digest string) (*entity.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE reset_token = ?`
	return r.findOne(ctx, query, digest)
}

func (r *UserRepository) SetResetToken(ctx context.Context, id uuid.UUID, digest string, expiresAt, now time.Time) error {
	query := `
		UPDATE users SET
			reset_token = ?,
			reset_token_expires_at = ?,
			updated_at = ?
		WHERE id = ?
	`
	_, err := r.db.ExecContext(ctx, query, digest, expiresAt, now, id.String())
	return err
}

// CompleteReset stores the new password hash and clears the reset fields only
// if the given digest is still pending and unexpired, then revokes every
// refresh token of the user. It reports whether the reset was applied.
func (r *UserRepository) CompleteReset(ctx context.Context, id uuid.UUID, digest, passwordHash string, now time.Time) (bool, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	query := `
		UPDATE users SET
			password_hash = ?,
			reset_token = NULL,
			reset_token_expires_at = NULL,
			updated_at = ?
		WHERE id = ? AND reset_token = ? AND reset_token_expires_at >= ?
	`
	result, err := tx.ExecContext(ctx, query, passwordHash, now, id.String(), digest, now)
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

	if _, err = tx.ExecContext(ctx, `DELETE FROM refresh_tokens WHERE user_id = ?`, id.String()); err != nil {
		return false, err
	}

	if err = tx.Commit(); err != nil {
		return false, err
	}
	return true, nil
}

// DeleteByEmail removes an account. Entries and refresh tokens go with it
// through ON DELETE CASCADE.
func (r *UserRepository) DeleteByEmail(ctx context.Context, email string) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE email = ?`, email)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func (r *UserRepository) findOne(ctx context.Context, query string, args ...interface{}) (*entity.User, error) {
	row := r.db.QueryRowContext(ctx, query, args...)
	user, err := scanUser(row.Scan)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return user, nil
}

func scanUser(scan rowScanner) (*entity.User, error) {
	user := &entity.User{}
	if err := scan(
		&user.ID,
		&user.Email,
		&user.PasswordHash,
		&user.ResetToken,
		&user.ResetTokenExpiresAt,
		&user.CreatedAt,
		&user.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return user, nil
}
