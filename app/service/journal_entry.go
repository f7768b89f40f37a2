package service

import (
	"context"
	"errors"
	"time"

	"github.com/vibast-solutions/ms-go-journal/app/dto"
	"github.com/vibast-solutions/ms-go-journal/app/entity"
	"github.com/vibast-solutions/ms-go-journal/app/metrics"
	"github.com/vibast-solutions/ms-go-journal/app/repository"

	"github.com/google/uuid"
)

type journalEntryRepository interface {
	Create(ctx context.Context, entry *entity.JournalEntry) error
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*entity.JournalEntry, error)
	FindForUser(ctx context.Context, id, userID uuid.UUID) (*entity.JournalEntry, error)
	Update(ctx context.Context, entry *entity.JournalEntry) (int64, error)
	Delete(ctx context.Context, id, userID uuid.UUID) (int64, error)
	DeleteAllForUser(ctx context.Context, userID uuid.UUID) (int64, error)
}

// JournalEntryService scopes every operation to the owning user. Entries of
// other users are reported as ErrEntryNotFound.
type JournalEntryService interface {
	Create(ctx context.Context, userID uuid.UUID, fields dto.JournalEntryFields) (*entity.JournalEntry, error)
	List(ctx context.Context, userID uuid.UUID) ([]*entity.JournalEntry, error)
	Get(ctx context.Context, userID, id uuid.UUID) (*entity.JournalEntry, error)
	Update(ctx context.Context, userID, id uuid.UUID, fields dto.JournalEntryFields) (*entity.JournalEntry, error)
	Delete(ctx context.Context, userID, id uuid.UUID) error
	DeleteAll(ctx context.Context, userID uuid.UUID) (int64, error)
}

type JournalEntryServiceOption func(*journalEntryService)

type journalEntryService struct {
	entryRepo journalEntryRepository
	now       func() time.Time
}

func NewJournalEntryService(entryRepo journalEntryRepository, opts ...JournalEntryServiceOption) JournalEntryService {
	svc := &journalEntryService{
		entryRepo: entryRepo,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

func WithEntryClock(now func() time.Time) JournalEntryServiceOption {
	return func(s *journalEntryService) {
		if now != nil {
			s.now = now
		}
	}
}

func (s *journalEntryService) Create(ctx context.Context, userID uuid.UUID, fields dto.JournalEntryFields) (*entity.JournalEntry, error) {
	now := s.now()
	entry := &entity.JournalEntry{
		ID:        uuid.New(),
		UserID:    userID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	applyFields(entry, fields)

	if err := s.entryRepo.Create(ctx, entry); err != nil {
		// The account was deleted while its access token is still valid.
		if errors.Is(err, repository.ErrUnknownUser) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	metrics.JournalEntryOperationsTotal.WithLabelValues("create").Inc()
	return entry, nil
}

func (s *journalEntryService) List(ctx context.Context, userID uuid.UUID) ([]*entity.JournalEntry, error) {
	entries, err := s.entryRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	metrics.JournalEntryOperationsTotal.WithLabelValues("list").Inc()
	return entries, nil
}

func (s *journalEntryService) Get(ctx context.Context, userID, id uuid.UUID) (*entity.JournalEntry, error) {
	entry, err := s.entryRepo.FindForUser(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	if entry == nil {
		return nil, ErrEntryNotFound
	}

	metrics.JournalEntryOperationsTotal.WithLabelValues("get").Inc()
	return entry, nil
}

func (s *journalEntryService) Update(ctx context.Context, userID, id uuid.UUID, fields dto.JournalEntryFields) (*entity.JournalEntry, error) {
	entry, err := s.entryRepo.FindForUser(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	if entry == nil {
		return nil, ErrEntryNotFound
	}

	applyFields(entry, fields)
	entry.UpdatedAt = s.now()

	affected, err := s.entryRepo.Update(ctx, entry)
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, ErrEntryNotFound
	}

	metrics.JournalEntryOperationsTotal.WithLabelValues("update").Inc()
	return entry, nil
}

func (s *journalEntryService) Delete(ctx context.Context, userID, id uuid.UUID) error {
	affected, err := s.entryRepo.Delete(ctx, id, userID)
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrEntryNotFound
	}

	metrics.JournalEntryOperationsTotal.WithLabelValues("delete").Inc()
	return nil
}

func (s *journalEntryService) DeleteAll(ctx context.Context, userID uuid.UUID) (int64, error) {
	count, err := s.entryRepo.DeleteAllForUser(ctx, userID)
	if err != nil {
		return 0, err
	}

	metrics.JournalEntryOperationsTotal.WithLabelValues("delete_all").Inc()
	return count, nil
}

func applyFields(entry *entity.JournalEntry, fields dto.JournalEntryFields) {
	if fields.Work != nil {
		entry.Work = *fields.Work
	}
	if fields.Struggle != nil {
		entry.Struggle = *fields.Struggle
	}
	if fields.Intention != nil {
		entry.Intention = *fields.Intention
	}
}
