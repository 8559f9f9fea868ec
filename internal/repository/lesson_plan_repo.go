package repository

import (
	"context"

	"github.com/andreaseirich/tutorflow-sub001/internal/models"
)

type LessonPlanRepository struct {
	db DBTX
}

func NewLessonPlanRepository(db DBTX) *LessonPlanRepository {
	return &LessonPlanRepository{db: db}
}

const lessonPlanColumns = `id, tutor_id, student_id, lesson_id, topic, subject, content, grade_level, duration_minutes, llm_model, created_at, updated_at`

func scanLessonPlan(row interface{ Scan(dest ...any) error }, plan *models.LessonPlan) error {
	return row.Scan(
		&plan.ID,
		&plan.TutorID,
		&plan.StudentID,
		&plan.LessonID,
		&plan.Topic,
		&plan.Subject,
		&plan.Content,
		&plan.GradeLevel,
		&plan.DurationMinutes,
		&plan.LLMModel,
		&plan.CreatedAt,
		&plan.UpdatedAt,
	)
}

func (r *LessonPlanRepository) Create(ctx context.Context, plan *models.LessonPlan) error {
	query := `
		INSERT INTO lesson_plans (tutor_id, student_id, lesson_id, topic, subject, content, grade_level, duration_minutes, llm_model)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at, updated_at
	`
	return r.db.QueryRow(
		ctx,
		query,
		plan.TutorID,
		plan.StudentID,
		plan.LessonID,
		plan.Topic,
		plan.Subject,
		plan.Content,
		plan.GradeLevel,
		plan.DurationMinutes,
		plan.LLMModel,
	).Scan(&plan.ID, &plan.CreatedAt, &plan.UpdatedAt)
}

func (r *LessonPlanRepository) GetByID(ctx context.Context, tutorID, planID int64) (*models.LessonPlan, error) {
	query := `
		SELECT ` + lessonPlanColumns + `
		FROM lesson_plans
		WHERE id = $1 AND tutor_id = $2
	`
	var plan models.LessonPlan
	if err := scanLessonPlan(r.db.QueryRow(ctx, query, planID, tutorID), &plan); err != nil {
		return nil, err
	}
	return &plan, nil
}

func (r *LessonPlanRepository) ListByTutor(ctx context.Context, tutorID int64, studentID int64) ([]models.LessonPlan, error) {
	query := `
		SELECT ` + lessonPlanColumns + `
		FROM lesson_plans
		WHERE tutor_id = $1 AND ($2 = 0 OR student_id = $2)
		ORDER BY created_at DESC, id DESC
	`
	rows, err := r.db.Query(ctx, query, tutorID, studentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	plans := make([]models.LessonPlan, 0)
	for rows.Next() {
		var plan models.LessonPlan
		if err := scanLessonPlan(rows, &plan); err != nil {
			return nil, err
		}
		plans = append(plans, plan)
	}
	return plans, rows.Err()
}

func (r *LessonPlanRepository) Delete(ctx context.Context, tutorID, planID int64) (bool, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM lesson_plans WHERE id = $1 AND tutor_id = $2`, planID, tutorID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}
