package repository

import (
	"context"
	"time"

	"github.com/andreaseirich/tutorflow-sub001/internal/models"
)

type BlockedTimeRepository struct {
	db DBTX
}

func NewBlockedTimeRepository(db DBTX) *BlockedTimeRepository {
	return &BlockedTimeRepository{db: db}
}

const blockedTimeColumns = `id, tutor_id, title, description, starts_at, ends_at, is_recurring, recurring_pattern, created_at, updated_at`

func scanBlockedTime(row interface{ Scan(dest ...any) error }, blocked *models.BlockedTime) error {
	return row.Scan(
		&blocked.ID,
		&blocked.TutorID,
		&blocked.Title,
		&blocked.Description,
		&blocked.StartsAt,
		&blocked.EndsAt,
		&blocked.IsRecurring,
		&blocked.RecurringPattern,
		&blocked.CreatedAt,
		&blocked.UpdatedAt,
	)
}

func (r *BlockedTimeRepository) Create(ctx context.Context, blocked *models.BlockedTime) error {
	query := `
		INSERT INTO blocked_times (tutor_id, title, description, starts_at, ends_at, is_recurring, recurring_pattern)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at
	`
	return r.db.QueryRow(
		ctx,
		query,
		blocked.TutorID,
		blocked.Title,
		blocked.Description,
		blocked.StartsAt,
		blocked.EndsAt,
		blocked.IsRecurring,
		blocked.RecurringPattern,
	).Scan(&blocked.ID, &blocked.CreatedAt, &blocked.UpdatedAt)
}

func (r *BlockedTimeRepository) GetByID(ctx context.Context, tutorID, blockedID int64) (*models.BlockedTime, error) {
	query := `
		SELECT ` + blockedTimeColumns + `
		FROM blocked_times
		WHERE id = $1 AND tutor_id = $2
	`
	var blocked models.BlockedTime
	if err := scanBlockedTime(r.db.QueryRow(ctx, query, blockedID, tutorID), &blocked); err != nil {
		return nil, err
	}
	return &blocked, nil
}

func (r *BlockedTimeRepository) ListByTutor(ctx context.Context, tutorID int64) ([]models.BlockedTime, error) {
	query := `
		SELECT ` + blockedTimeColumns + `
		FROM blocked_times
		WHERE tutor_id = $1
		ORDER BY starts_at ASC, id ASC
	`
	rows, err := r.db.Query(ctx, query, tutorID)
	if err != nil {
		return nil, err
	}
	return r.collect(rows)
}

// ListOverlapping returns the tutor's blocked times intersecting the
// half-open interval [start, end), ordered by start.
func (r *BlockedTimeRepository) ListOverlapping(ctx context.Context, tutorID int64, start, end time.Time) ([]models.BlockedTime, error) {
	query := `
		SELECT ` + blockedTimeColumns + `
		FROM blocked_times
		WHERE tutor_id = $1 AND starts_at < $3 AND ends_at > $2
		ORDER BY starts_at ASC, id ASC
	`
	rows, err := r.db.Query(ctx, query, tutorID, start, end)
	if err != nil {
		return nil, err
	}
	return r.collect(rows)
}

func (r *BlockedTimeRepository) collect(rows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
	Close()
}) ([]models.BlockedTime, error) {
	defer rows.Close()
	blocks := make([]models.BlockedTime, 0)
	for rows.Next() {
		var blocked models.BlockedTime
		if err := scanBlockedTime(rows, &blocked); err != nil {
			return nil, err
		}
		blocks = append(blocks, blocked)
	}
	return blocks, rows.Err()
}

func (r *BlockedTimeRepository) Update(ctx context.Context, blocked *models.BlockedTime) error {
	query := `
		UPDATE blocked_times
		SET title = $3, description = $4, starts_at = $5, ends_at = $6,
		    is_recurring = $7, recurring_pattern = $8, updated_at = NOW()
		WHERE id = $1 AND tutor_id = $2
		RETURNING updated_at
	`
	return r.db.QueryRow(
		ctx,
		query,
		blocked.ID,
		blocked.TutorID,
		blocked.Title,
		blocked.Description,
		blocked.StartsAt,
		blocked.EndsAt,
		blocked.IsRecurring,
		blocked.RecurringPattern,
	).Scan(&blocked.UpdatedAt)
}

func (r *BlockedTimeRepository) Delete(ctx context.Context, tutorID, blockedID int64) (bool, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM blocked_times WHERE id = $1 AND tutor_id = $2`, blockedID, tutorID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}
