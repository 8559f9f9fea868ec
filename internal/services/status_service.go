package services

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/andreaseirich/tutorflow-sub001/internal/models"
	"github.com/andreaseirich/tutorflow-sub001/internal/repository"
)

// StatusService batch-transitions planned lessons to taught once their
// end time has passed.
type StatusService struct {
	db *pgxpool.Pool
}

func NewStatusService(db *pgxpool.Pool) *StatusService {
	return &StatusService{db: db}
}

// UpdatePastLessonsToTaught marks every planned lesson whose end time
// (travel excluded) is strictly before now as taught, in a single
// transaction, and returns the number of updated lessons. now defaults
// to the current instant; tests pass a fixed value.
//
// Candidate rows are locked with SKIP LOCKED, so overlapping runs split
// the work between them and each qualifying lesson is updated exactly
// once. Paid and cancelled lessons are never selected. A write failure
// rolls back the whole batch.
func (s *StatusService) UpdatePastLessonsToTaught(ctx context.Context, now *time.Time) (int, error) {
	cutoff := time.Now()
	if now != nil {
		cutoff = *now
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	lessonRepo := repository.NewLessonRepository(tx)
	lessons, err := lessonRepo.ListPlannedForUpdate(ctx)
	if err != nil {
		return 0, err
	}

	ids := duePlannedLessonIDs(lessons, cutoff)
	if len(ids) > 0 {
		if _, err := lessonRepo.MarkTaught(ctx, ids); err != nil {
			return 0, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}
	return len(ids), nil
}

// duePlannedLessonIDs selects the planned lessons whose end time is
// strictly before now. A lesson still in progress at now stays planned.
func duePlannedLessonIDs(lessons []models.Lesson, now time.Time) []int64 {
	ids := make([]int64, 0, len(lessons))
	for i := range lessons {
		lesson := &lessons[i]
		if lesson.Status != models.LessonStatusPlanned {
			continue
		}
		if lesson.EndsAt().Before(now) {
			ids = append(ids, lesson.ID)
		}
	}
	return ids
}
