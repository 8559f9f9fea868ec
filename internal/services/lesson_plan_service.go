package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog/log"

	"github.com/andreaseirich/tutorflow-sub001/internal/models"
)

type planStudentStore interface {
	GetByID(ctx context.Context, tutorID, studentID int64) (*models.Student, error)
}

type planLessonStore interface {
	GetByID(ctx context.Context, tutorID, lessonID int64) (*models.Lesson, error)
	ListPreviousByStudent(ctx context.Context, tutorID, studentID int64, before time.Time, limit int) ([]models.Lesson, error)
}

type planStore interface {
	Create(ctx context.Context, plan *models.LessonPlan) error
	GetByID(ctx context.Context, tutorID, planID int64) (*models.LessonPlan, error)
	ListByTutor(ctx context.Context, tutorID int64, studentID int64) ([]models.LessonPlan, error)
	Delete(ctx context.Context, tutorID, planID int64) (bool, error)
}

// LessonPlanService generates lesson plans with a language model and
// stores them. Student identity never reaches the model: prompts carry
// only grade, subject, topic, and note history.
type LessonPlanService struct {
	students planStudentStore
	lessons  planLessonStore
	plans    planStore
	llm      LLMClient
}

func NewLessonPlanService(
	students planStudentStore,
	lessons planLessonStore,
	plans planStore,
	llm LLMClient,
) *LessonPlanService {
	return &LessonPlanService{
		students: students,
		lessons:  lessons,
		plans:    plans,
		llm:      llm,
	}
}

type GeneratePlanInput struct {
	StudentID       int64
	LessonID        *int64
	Topic           string
	Subject         string
	DurationMinutes *int
}

const planSystemPrompt = "You are an experienced tutor. Create a structured, practical " +
	"lesson plan with timed phases, concrete exercises, and a short homework suggestion. " +
	"Answer in Markdown."

const previousLessonLimit = 5

func (s *LessonPlanService) Generate(ctx context.Context, tutorID int64, input GeneratePlanInput) (*models.LessonPlan, error) {
	if input.StudentID <= 0 || strings.TrimSpace(input.Topic) == "" {
		return nil, ErrInvalidInput
	}

	student, err := s.students.GetByID(ctx, tutorID, input.StudentID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrStudentNotFound
		}
		return nil, err
	}

	subject := strings.TrimSpace(input.Subject)
	if subject == "" && student.Subjects != nil {
		subject = strings.TrimSpace(*student.Subjects)
	}

	var lesson *models.Lesson
	if input.LessonID != nil {
		lesson, err = s.lessons.GetByID(ctx, tutorID, *input.LessonID)
		if err != nil {
			return nil, err
		}
	}

	before := time.Now()
	if lesson != nil {
		before = lesson.StartsAt
	}
	previous, err := s.lessons.ListPreviousByStudent(ctx, tutorID, input.StudentID, before, previousLessonLimit)
	if err != nil {
		return nil, err
	}

	studentContext, _ := SanitizeForPrompt(map[string]any{
		"full_name": student.FullName(),
		"grade":     stringValue(student.Grade),
		"school":    stringValue(student.School),
		"subjects":  stringValue(student.Subjects),
		"notes":     stringValue(student.Notes),
	}).(map[string]any)

	userPrompt := buildPlanPrompt(studentContext, lesson, previous, input, subject)

	content, err := s.llm.Complete(ctx, planSystemPrompt, userPrompt)
	if err != nil {
		log.Error().Err(err).Int64("student_id", input.StudentID).Msg("lesson plan generation failed")
		return nil, fmt.Errorf("%w: %s", ErrPlanGeneration, err)
	}

	model := s.llm.Model()
	plan := &models.LessonPlan{
		TutorID:         tutorID,
		StudentID:       input.StudentID,
		LessonID:        input.LessonID,
		Topic:           strings.TrimSpace(input.Topic),
		Subject:         subject,
		Content:         content,
		GradeLevel:      student.Grade,
		DurationMinutes: planDuration(input, lesson),
		LLMModel:        &model,
	}
	if err := s.plans.Create(ctx, plan); err != nil {
		return nil, err
	}
	return plan, nil
}

func (s *LessonPlanService) Get(ctx context.Context, tutorID, planID int64) (*models.LessonPlan, error) {
	return s.plans.GetByID(ctx, tutorID, planID)
}

func (s *LessonPlanService) List(ctx context.Context, tutorID, studentID int64) ([]models.LessonPlan, error) {
	return s.plans.ListByTutor(ctx, tutorID, studentID)
}

func (s *LessonPlanService) Delete(ctx context.Context, tutorID, planID int64) error {
	deleted, err := s.plans.Delete(ctx, tutorID, planID)
	if err != nil {
		return err
	}
	if !deleted {
		return pgx.ErrNoRows
	}
	return nil
}

// buildPlanPrompt assembles the user prompt from the sanitized student
// context. Name and contact fields arrive already redacted, so the
// prompt never carries student identity.
func buildPlanPrompt(student map[string]any, lesson *models.Lesson, previous []models.Lesson, input GeneratePlanInput, subject string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Topic: %s\n", strings.TrimSpace(input.Topic))
	if subject != "" {
		fmt.Fprintf(&b, "Subject: %s\n", subject)
	}
	if grade, _ := student["grade"].(string); grade != "" {
		fmt.Fprintf(&b, "Grade level: %s\n", grade)
	}
	if school, _ := student["school"].(string); school != "" {
		fmt.Fprintf(&b, "School type: %s\n", school)
	}
	if notes, _ := student["notes"].(string); notes != "" {
		fmt.Fprintf(&b, "Student notes: %s\n", notes)
	}
	if duration := planDuration(input, lesson); duration != nil {
		fmt.Fprintf(&b, "Lesson duration: %d minutes\n", *duration)
	}
	if lesson != nil {
		fmt.Fprintf(&b, "Lesson date: %s\n", lesson.StartsAt.Format("2006-01-02"))
		if lesson.Notes != nil && *lesson.Notes != "" {
			fmt.Fprintf(&b, "Lesson notes: %s\n", *lesson.Notes)
		}
	}

	if len(previous) > 0 {
		b.WriteString("\nPrevious lessons with the student:\n")
		for i := range previous {
			prev := &previous[i]
			fmt.Fprintf(&b, "- %s (%d min, %s)", prev.StartsAt.Format("2006-01-02"), prev.DurationMinutes, prev.Status)
			if prev.Notes != nil && *prev.Notes != "" {
				fmt.Fprintf(&b, ": %s", *prev.Notes)
			}
			b.WriteString("\n")
		}
	}

	b.WriteString("\nCreate a lesson plan for the student's next lesson.")
	return b.String()
}

func planDuration(input GeneratePlanInput, lesson *models.Lesson) *int {
	if input.DurationMinutes != nil {
		return input.DurationMinutes
	}
	if lesson != nil {
		duration := lesson.DurationMinutes
		return &duration
	}
	return nil
}

func stringValue(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
