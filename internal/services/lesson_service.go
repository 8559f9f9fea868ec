package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/andreaseirich/tutorflow-sub001/internal/models"
	"github.com/andreaseirich/tutorflow-sub001/internal/repository"
)

type contractReader interface {
	GetByID(ctx context.Context, tutorID, contractID int64) (*models.Contract, error)
}

// LessonService owns lesson CRUD and the conflict/status rules around
// it. Writes that depend on a conflict check run inside a transaction
// holding the tutor's advisory lock, so two concurrent writes for the
// same tutor cannot both pass the check.
type LessonService struct {
	db           *pgxpool.Pool
	lessonRepo   *repository.LessonRepository
	contractRepo contractReader
	conflicts    *ConflictService
}

func NewLessonService(
	db *pgxpool.Pool,
	lessonRepo *repository.LessonRepository,
	contractRepo contractReader,
	conflicts *ConflictService,
) *LessonService {
	return &LessonService{
		db:           db,
		lessonRepo:   lessonRepo,
		contractRepo: contractRepo,
		conflicts:    conflicts,
	}
}

type LessonInput struct {
	ContractID              int64
	StartsAt                time.Time
	DurationMinutes         int
	TravelTimeBeforeMinutes int
	TravelTimeAfterMinutes  int
	Notes                   *string
	// Strict rejects the write when any conflict is found instead of
	// annotating the saved lesson with the conflict list.
	Strict bool
}

func (s *LessonService) Create(ctx context.Context, tutorID int64, input LessonInput) (*models.Lesson, []Conflict, error) {
	if err := validateLessonInput(input); err != nil {
		return nil, nil, err
	}
	if _, err := s.contractRepo.GetByID(ctx, tutorID, input.ContractID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil, ErrContractNotFound
		}
		return nil, nil, err
	}

	lesson := &models.Lesson{
		TutorID:                 tutorID,
		ContractID:              input.ContractID,
		StartsAt:                input.StartsAt,
		DurationMinutes:         input.DurationMinutes,
		TravelTimeBeforeMinutes: input.TravelTimeBeforeMinutes,
		TravelTimeAfterMinutes:  input.TravelTimeAfterMinutes,
		Status:                  models.LessonStatusPlanned,
		Notes:                   input.Notes,
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, nil, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	if _, err := tx.Exec(ctx, "SELECT pg_advisory_xact_lock($1)", tutorID); err != nil {
		return nil, nil, err
	}

	conflicts, err := s.txConflictService(tx).CheckConflicts(ctx, lesson, false)
	if err != nil {
		return nil, nil, err
	}
	if input.Strict && len(conflicts) > 0 {
		return nil, conflicts, ErrConflict
	}

	if err := repository.NewLessonRepository(tx).Create(ctx, lesson); err != nil {
		return nil, nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, nil, err
	}
	return lesson, conflicts, nil
}

func (s *LessonService) Update(ctx context.Context, tutorID, lessonID int64, input LessonInput) (*models.Lesson, []Conflict, error) {
	if err := validateLessonInput(input); err != nil {
		return nil, nil, err
	}

	existing, err := s.lessonRepo.GetByID(ctx, tutorID, lessonID)
	if err != nil {
		return nil, nil, err
	}
	if _, err := s.contractRepo.GetByID(ctx, tutorID, input.ContractID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil, ErrContractNotFound
		}
		return nil, nil, err
	}

	updated := *existing
	updated.ContractID = input.ContractID
	updated.StartsAt = input.StartsAt
	updated.DurationMinutes = input.DurationMinutes
	updated.TravelTimeBeforeMinutes = input.TravelTimeBeforeMinutes
	updated.TravelTimeAfterMinutes = input.TravelTimeAfterMinutes
	updated.Notes = input.Notes

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, nil, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	if _, err := tx.Exec(ctx, "SELECT pg_advisory_xact_lock($1)", tutorID); err != nil {
		return nil, nil, err
	}

	conflicts, err := s.txConflictService(tx).CheckConflicts(ctx, &updated, true)
	if err != nil {
		return nil, nil, err
	}
	if input.Strict && len(conflicts) > 0 {
		return nil, conflicts, ErrConflict
	}

	if err := repository.NewLessonRepository(tx).Update(ctx, &updated); err != nil {
		return nil, nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, nil, err
	}
	return &updated, conflicts, nil
}

func (s *LessonService) Get(ctx context.Context, tutorID, lessonID int64) (*models.Lesson, error) {
	return s.lessonRepo.GetByID(ctx, tutorID, lessonID)
}

func (s *LessonService) List(ctx context.Context, tutorID int64, filter repository.LessonListFilter) ([]models.Lesson, int, error) {
	return s.lessonRepo.List(ctx, tutorID, filter)
}

func (s *LessonService) Delete(ctx context.Context, tutorID, lessonID int64) error {
	deleted, err := s.lessonRepo.Delete(ctx, tutorID, lessonID)
	if err != nil {
		return err
	}
	if !deleted {
		return pgx.ErrNoRows
	}
	return nil
}

// Conflicts re-runs conflict detection for a stored lesson.
func (s *LessonService) Conflicts(ctx context.Context, tutorID, lessonID int64) ([]Conflict, error) {
	lesson, err := s.lessonRepo.GetByID(ctx, tutorID, lessonID)
	if err != nil {
		return nil, err
	}
	return s.conflicts.CheckConflicts(ctx, lesson, true)
}

// UpdateStatus applies a manual status change. Paid and cancelled are
// terminal; payment happens through invoicing, so paid is only
// reachable from taught.
func (s *LessonService) UpdateStatus(ctx context.Context, tutorID, lessonID int64, requestedStatus string) (*models.Lesson, error) {
	lesson, err := s.lessonRepo.GetByID(ctx, tutorID, lessonID)
	if err != nil {
		return nil, err
	}

	nextStatus := strings.ToLower(strings.TrimSpace(requestedStatus))
	if !models.IsValidLessonStatus(nextStatus) {
		return nil, ErrInvalidStatus
	}
	if nextStatus == lesson.Status {
		return lesson, nil
	}
	if err := validateLessonTransition(lesson.Status, nextStatus); err != nil {
		return nil, err
	}

	updated, err := s.lessonRepo.UpdateStatusIfCurrent(ctx, tutorID, lessonID, lesson.Status, nextStatus)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrInvalidStateTransition
		}
		return nil, err
	}
	return updated, nil
}

func validateLessonInput(input LessonInput) error {
	if input.ContractID <= 0 || input.DurationMinutes <= 0 {
		return ErrInvalidInput
	}
	if input.TravelTimeBeforeMinutes < 0 || input.TravelTimeAfterMinutes < 0 {
		return ErrInvalidInput
	}
	if input.StartsAt.IsZero() {
		return ErrInvalidInput
	}
	return nil
}

func validateLessonTransition(current, next string) error {
	switch current {
	case models.LessonStatusPlanned:
		if next == models.LessonStatusTaught || next == models.LessonStatusCancelled {
			return nil
		}
	case models.LessonStatusTaught:
		if next == models.LessonStatusPaid || next == models.LessonStatusCancelled || next == models.LessonStatusPlanned {
			return nil
		}
	case models.LessonStatusPaid, models.LessonStatusCancelled:
		return ErrInvalidStateTransition
	}
	return ErrInvalidStateTransition
}

func (s *LessonService) txConflictService(tx pgx.Tx) *ConflictService {
	return NewConflictService(
		repository.NewLessonRepository(tx),
		repository.NewBlockedTimeRepository(tx),
		repository.NewContractRepository(tx),
	)
}
