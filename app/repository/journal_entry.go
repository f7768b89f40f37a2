package repository

import (
	"context"
	"database/sql"

	"github.com/vibast-solutions/ms-go-journal/app/entity"

	"github.com/google/uuid"
)

const journalEntryColumns = `id, user_id, work, struggle, intention, created_at, updated_at`

type JournalEntryRepository struct {
	db *sql.DB
}

func NewJournalEntryRepository(db *sql.DB) *JournalEntryRepository {
	return &JournalEntryRepository{db: db}
}

func (r *JournalEntryRepository) Create(ctx context.Context, entry *entity.JournalEntry) error {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}

	query := `
		INSERT INTO journal_entries (id, user_id, work, struggle, intention, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.ExecContext(ctx, query,
		entry.ID.String(),
		entry.UserID.String(),
		entry.Work,
		entry.Struggle,
		entry.Intention,
		entry.CreatedAt,
		entry.UpdatedAt,
	)
	if isMissingParent(err) {
		return ErrUnknownUser
	}
	return err
}

func (r *JournalEntryRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*entity.JournalEntry, error) {
	query := `
		SELECT ` + journalEntryColumns + `
		FROM journal_entries
		WHERE user_id = ?
		ORDER BY created_at DESC, id
	`
	rows, err := r.db.QueryContext(ctx, query, userID.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := make([]*entity.JournalEntry, 0)
	for rows.Next() {
		entry, err := scanJournalEntry(rows.Scan)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return entries, nil
}

// FindForUser returns nil when the entry does not exist or belongs to
// another user.
func (r *JournalEntryRepository) FindForUser(ctx context.Context, id, userID uuid.UUID) (*entity.JournalEntry, error) {
	query := `
		SELECT ` + journalEntryColumns + `
		FROM journal_entries
		WHERE id = ? AND user_id = ?
	`
	row := r.db.QueryRowContext(ctx, query, id.String(), userID.String())
	entry, err := scanJournalEntry(row.Scan)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return entry, nil
}

func (r *JournalEntryRepository) Update(ctx context.Context, entry *entity.JournalEntry) (int64, error) {
	query := `
		UPDATE journal_entries SET
			work = ?,
			struggle = ?,
			intention = ?,
			updated_at = ?
		WHERE id = ? AND user_id = ?
	`
	result, err := r.db.ExecContext(ctx, query,
		entry.Work,
		entry.Struggle,
		entry.Intention,
		entry.UpdatedAt,
		entry.ID.String(),
		entry.UserID.String(),
	)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func (r *JournalEntryRepository) Delete(ctx context.Context, id, userID uuid.UUID) (int64, error) {
	query := `DELETE FROM journal_entries WHERE id = ? AND user_id = ?`
	result, err := r.db.ExecContext(ctx, query, id.String(), userID.String())
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func (r *JournalEntryRepository) DeleteAllForUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	query := `DELETE FROM journal_entries WHERE user_id = ?`
	result, err := r.db.ExecContext(ctx, query, userID.String())
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func scanJournalEntry(scan rowScanner) (*entity.JournalEntry, error) {
	entry := &entity.JournalEntry{}
	if err := scan(
		&entry.ID,
		&entry.UserID,
		&entry.Work,
		&entry.Struggle,
		&entry.Intention,
		&entry.CreatedAt,
		&entry.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return entry, nil
}
