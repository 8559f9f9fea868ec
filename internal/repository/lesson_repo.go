package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/andreaseirich/tutorflow-sub001/internal/models"
)

type LessonRepository struct {
	db DBTX
}

func NewLessonRepository(db DBTX) *LessonRepository {
	return &LessonRepository{db: db}
}

const lessonColumns = `id, tutor_id, contract_id, starts_at, duration_minutes, travel_time_before_minutes, travel_time_after_minutes, status, notes, created_at, updated_at`

func scanLesson(row interface{ Scan(dest ...any) error }, lesson *models.Lesson) error {
	return row.Scan(
		&lesson.ID,
		&lesson.TutorID,
		&lesson.ContractID,
		&lesson.StartsAt,
		&lesson.DurationMinutes,
		&lesson.TravelTimeBeforeMinutes,
		&lesson.TravelTimeAfterMinutes,
		&lesson.Status,
		&lesson.Notes,
		&lesson.CreatedAt,
		&lesson.UpdatedAt,
	)
}

func (r *LessonRepository) collect(rows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
	Close()
}) ([]models.Lesson, error) {
	defer rows.Close()
	lessons := make([]models.Lesson, 0)
	for rows.Next() {
		var lesson models.Lesson
		if err := scanLesson(rows, &lesson); err != nil {
			return nil, err
		}
		lessons = append(lessons, lesson)
	}
	return lessons, rows.Err()
}

func (r *LessonRepository) Create(ctx context.Context, lesson *models.Lesson) error {
	query := `
		INSERT INTO lessons (tutor_id, contract_id, starts_at, duration_minutes, travel_time_before_minutes, travel_time_after_minutes, status, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at
	`
	return r.db.QueryRow(
		ctx,
		query,
		lesson.TutorID,
		lesson.ContractID,
		lesson.StartsAt,
		lesson.DurationMinutes,
		lesson.TravelTimeBeforeMinutes,
		lesson.TravelTimeAfterMinutes,
		lesson.Status,
		lesson.Notes,
	).Scan(&lesson.ID, &lesson.CreatedAt, &lesson.UpdatedAt)
}

func (r *LessonRepository) GetByID(ctx context.Context, tutorID, lessonID int64) (*models.Lesson, error) {
	query := `
		SELECT ` + lessonColumns + `
		FROM lessons
		WHERE id = $1 AND tutor_id = $2
	`
	var lesson models.Lesson
	if err := scanLesson(r.db.QueryRow(ctx, query, lessonID, tutorID), &lesson); err != nil {
		return nil, err
	}
	return &lesson, nil
}

type LessonListFilter struct {
	ContractID int64
	Status     string
	From       *time.Time
	To         *time.Time
	Limit      int
	Offset     int
}

func (r *LessonRepository) List(ctx context.Context, tutorID int64, filter LessonListFilter) ([]models.Lesson, int, error) {
	args := []any{tutorID}
	whereParts := []string{"tutor_id = $1"}

	if filter.ContractID > 0 {
		args = append(args, filter.ContractID)
		whereParts = append(whereParts, fmt.Sprintf("contract_id = $%d", len(args)))
	}
	if status := strings.TrimSpace(filter.Status); status != "" {
		args = append(args, status)
		whereParts = append(whereParts, fmt.Sprintf("status = $%d", len(args)))
	}
	if filter.From != nil {
		args = append(args, *filter.From)
		whereParts = append(whereParts, fmt.Sprintf("starts_at >= $%d", len(args)))
	}
	if filter.To != nil {
		args = append(args, *filter.To)
		whereParts = append(whereParts, fmt.Sprintf("starts_at < $%d", len(args)))
	}

	where := strings.Join(whereParts, " AND ")

	var total int
	countQuery := "SELECT COUNT(*) FROM lessons WHERE " + where
	if err := r.db.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(`
		SELECT `+lessonColumns+`
		FROM lessons
		WHERE %s
		ORDER BY starts_at ASC, id ASC
		LIMIT $%d OFFSET $%d
	`, where, len(args)+1, len(args)+2)
	args = append(args, filter.Limit, filter.Offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	lessons, err := r.collect(rows)
	if err != nil {
		return nil, 0, err
	}
	return lessons, total, nil
}

// ListNearDay returns the tutor's lessons starting within one day either
// side of the given day, ordered by start time. This bounds the
// candidate set for overlap checks.
func (r *LessonRepository) ListNearDay(ctx context.Context, tutorID int64, day time.Time) ([]models.Lesson, error) {
	dayStart := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	windowStart := dayStart.AddDate(0, 0, -1)
	windowEnd := dayStart.AddDate(0, 0, 2)

	query := `
		SELECT ` + lessonColumns + `
		FROM lessons
		WHERE tutor_id = $1 AND starts_at >= $2 AND starts_at < $3
		ORDER BY starts_at ASC, id ASC
	`
	rows, err := r.db.Query(ctx, query, tutorID, windowStart, windowEnd)
	if err != nil {
		return nil, err
	}
	return r.collect(rows)
}

// ListByContractBetween returns the contract's non-cancelled lessons in
// [from, to), ordered by start time. Used for quota accounting.
func (r *LessonRepository) ListByContractBetween(ctx context.Context, contractID int64, from, to time.Time) ([]models.Lesson, error) {
	query := `
		SELECT ` + lessonColumns + `
		FROM lessons
		WHERE contract_id = $1 AND starts_at >= $2 AND starts_at < $3 AND status <> 'cancelled'
		ORDER BY starts_at ASC, id ASC
	`
	rows, err := r.db.Query(ctx, query, contractID, from, to)
	if err != nil {
		return nil, err
	}
	return r.collect(rows)
}

// ListPlannedForUpdate locks and returns all planned lessons. Rows held
// by a concurrent run are skipped, so overlapping batch runs partition
// the candidate set instead of blocking or double-updating. Must run
// inside a transaction.
func (r *LessonRepository) ListPlannedForUpdate(ctx context.Context) ([]models.Lesson, error) {
	query := `
		SELECT ` + lessonColumns + `
		FROM lessons
		WHERE status = 'planned'
		ORDER BY starts_at ASC, id ASC
		FOR UPDATE SKIP LOCKED
	`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	return r.collect(rows)
}

// MarkTaught transitions the given lessons to taught in one statement.
func (r *LessonRepository) MarkTaught(ctx context.Context, lessonIDs []int64) (int64, error) {
	if len(lessonIDs) == 0 {
		return 0, nil
	}
	tag, err := r.db.Exec(ctx, `
		UPDATE lessons
		SET status = 'taught', updated_at = NOW()
		WHERE id = ANY($1) AND status = 'planned'
	`, lessonIDs)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (r *LessonRepository) Update(ctx context.Context, lesson *models.Lesson) error {
	query := `
		UPDATE lessons
		SET contract_id = $3, starts_at = $4, duration_minutes = $5, travel_time_before_minutes = $6,
		    travel_time_after_minutes = $7, notes = $8, updated_at = NOW()
		WHERE id = $1 AND tutor_id = $2
		RETURNING status, updated_at
	`
	return r.db.QueryRow(
		ctx,
		query,
		lesson.ID,
		lesson.TutorID,
		lesson.ContractID,
		lesson.StartsAt,
		lesson.DurationMinutes,
		lesson.TravelTimeBeforeMinutes,
		lesson.TravelTimeAfterMinutes,
		lesson.Notes,
	).Scan(&lesson.Status, &lesson.UpdatedAt)
}

// UpdateStatusIfCurrent is a compare-and-swap on the status column;
// pgx.ErrNoRows means the lesson moved on concurrently.
func (r *LessonRepository) UpdateStatusIfCurrent(ctx context.Context, tutorID, lessonID int64, currentStatus, nextStatus string) (*models.Lesson, error) {
	query := `
		UPDATE lessons
		SET status = $4, updated_at = NOW()
		WHERE id = $1 AND tutor_id = $2 AND status = $3
		RETURNING ` + lessonColumns + `
	`
	var lesson models.Lesson
	if err := scanLesson(r.db.QueryRow(ctx, query, lessonID, tutorID, currentStatus, nextStatus), &lesson); err != nil {
		return nil, err
	}
	return &lesson, nil
}

func (r *LessonRepository) Delete(ctx context.Context, tutorID, lessonID int64) (bool, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM lessons WHERE id = $1 AND tutor_id = $2`, lessonID, tutorID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// LessonWithContract joins in the billing fields needed to price a
// lesson.
type LessonWithContract struct {
	models.Lesson
	HourlyRate          float64
	UnitDurationMinutes int
	StudentName         string
	Institute           *string
}

func (r *LessonRepository) collectWithContract(rows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
	Close()
}) ([]LessonWithContract, error) {
	defer rows.Close()
	lessons := make([]LessonWithContract, 0)
	for rows.Next() {
		var lesson LessonWithContract
		if err := rows.Scan(
			&lesson.ID,
			&lesson.TutorID,
			&lesson.ContractID,
			&lesson.StartsAt,
			&lesson.DurationMinutes,
			&lesson.TravelTimeBeforeMinutes,
			&lesson.TravelTimeAfterMinutes,
			&lesson.Status,
			&lesson.Notes,
			&lesson.CreatedAt,
			&lesson.UpdatedAt,
			&lesson.HourlyRate,
			&lesson.UnitDurationMinutes,
			&lesson.StudentName,
			&lesson.Institute,
		); err != nil {
			return nil, err
		}
		lessons = append(lessons, lesson)
	}
	return lessons, rows.Err()
}

const lessonWithContractSelect = `
	SELECT l.id, l.tutor_id, l.contract_id, l.starts_at, l.duration_minutes,
	       l.travel_time_before_minutes, l.travel_time_after_minutes, l.status, l.notes,
	       l.created_at, l.updated_at,
	       c.hourly_rate, c.unit_duration_minutes,
	       TRIM(s.first_name || ' ' || s.last_name), c.institute
	FROM lessons l
	JOIN contracts c ON c.id = l.contract_id
	JOIN students s ON s.id = c.student_id
`

func (r *LessonRepository) listBillable(ctx context.Context, tutorID int64, periodStart, periodEnd time.Time, contractID int64, forUpdate bool) ([]LessonWithContract, error) {
	args := []any{tutorID, periodStart, periodEnd.AddDate(0, 0, 1)}
	contractFilter := ""
	if contractID > 0 {
		args = append(args, contractID)
		contractFilter = fmt.Sprintf(" AND l.contract_id = $%d", len(args))
	}
	lock := ""
	if forUpdate {
		lock = "\n\t\tFOR UPDATE OF l"
	}

	query := lessonWithContractSelect + fmt.Sprintf(`
		WHERE l.tutor_id = $1
		  AND l.status = 'taught'
		  AND l.starts_at >= $2 AND l.starts_at < $3
		  AND NOT EXISTS (SELECT 1 FROM invoice_items i WHERE i.lesson_id = l.id)%s
		ORDER BY l.starts_at ASC, l.id ASC%s
	`, contractFilter, lock)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return r.collectWithContract(rows)
}

// ListBillable returns taught, not-yet-invoiced lessons in
// [periodStart, periodEnd]. Used for the pre-invoicing preview.
func (r *LessonRepository) ListBillable(ctx context.Context, tutorID int64, periodStart, periodEnd time.Time, contractID int64) ([]LessonWithContract, error) {
	return r.listBillable(ctx, tutorID, periodStart, periodEnd, contractID, false)
}

// ListBillableForUpdate is ListBillable with the rows locked for the
// invoicing transaction.
func (r *LessonRepository) ListBillableForUpdate(ctx context.Context, tutorID int64, periodStart, periodEnd time.Time, contractID int64) ([]LessonWithContract, error) {
	return r.listBillable(ctx, tutorID, periodStart, periodEnd, contractID, true)
}

// ListWithContractBetween returns the tutor's non-cancelled lessons in
// [from, to) with pricing fields, for the income reports.
func (r *LessonRepository) ListWithContractBetween(ctx context.Context, tutorID int64, from, to time.Time) ([]LessonWithContract, error) {
	query := lessonWithContractSelect + `
		WHERE l.tutor_id = $1 AND l.starts_at >= $2 AND l.starts_at < $3 AND l.status <> 'cancelled'
		ORDER BY l.starts_at ASC, l.id ASC
	`
	rows, err := r.db.Query(ctx, query, tutorID, from, to)
	if err != nil {
		return nil, err
	}
	return r.collectWithContract(rows)
}

// ListPreviousByStudent returns the student's most recent lessons before
// the given instant, newest first.
func (r *LessonRepository) ListPreviousByStudent(ctx context.Context, tutorID, studentID int64, before time.Time, limit int) ([]models.Lesson, error) {
	query := `
		SELECT ` + lessonColumns + `
		FROM lessons
		WHERE tutor_id = $1
		  AND contract_id IN (SELECT id FROM contracts WHERE student_id = $2)
		  AND starts_at < $3
		ORDER BY starts_at DESC
		LIMIT $4
	`
	rows, err := r.db.Query(ctx, query, tutorID, studentID, before, limit)
	if err != nil {
		return nil, err
	}
	return r.collect(rows)
}

// ResetStatusForInvoice flips all lessons billed by the invoice back to
// taught. Used when an invoice is deleted.
func (r *LessonRepository) ResetStatusForInvoice(ctx context.Context, invoiceID int64) (int64, error) {
	tag, err := r.db.Exec(ctx, `
		UPDATE lessons
		SET status = 'taught', updated_at = NOW()
		WHERE status = 'paid'
		  AND id IN (SELECT lesson_id FROM invoice_items WHERE invoice_id = $1)
	`, invoiceID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// MarkPaid transitions billed lessons to paid inside the invoicing
// transaction.
func (r *LessonRepository) MarkPaid(ctx context.Context, lessonIDs []int64) (int64, error) {
	if len(lessonIDs) == 0 {
		return 0, nil
	}
	tag, err := r.db.Exec(ctx, `
		UPDATE lessons
		SET status = 'paid', updated_at = NOW()
		WHERE id = ANY($1) AND status = 'taught'
	`, lessonIDs)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
