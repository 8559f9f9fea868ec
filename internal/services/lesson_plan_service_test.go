package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/andreaseirich/tutorflow-sub001/internal/models"
)

type stubPlanStudentStore struct {
	student *models.Student
}

func (s *stubPlanStudentStore) GetByID(_ context.Context, _, _ int64) (*models.Student, error) {
	if s.student == nil {
		return nil, pgx.ErrNoRows
	}
	return s.student, nil
}

type stubPlanLessonStore struct {
	lesson   *models.Lesson
	previous []models.Lesson
}

func (s *stubPlanLessonStore) GetByID(_ context.Context, _, _ int64) (*models.Lesson, error) {
	if s.lesson == nil {
		return nil, pgx.ErrNoRows
	}
	return s.lesson, nil
}

func (s *stubPlanLessonStore) ListPreviousByStudent(_ context.Context, _, _ int64, _ time.Time, _ int) ([]models.Lesson, error) {
	return s.previous, nil
}

type stubPlanStore struct {
	created []*models.LessonPlan
}

func (s *stubPlanStore) Create(_ context.Context, plan *models.LessonPlan) error {
	plan.ID = int64(len(s.created) + 1)
	s.created = append(s.created, plan)
	return nil
}

func (s *stubPlanStore) GetByID(_ context.Context, _, planID int64) (*models.LessonPlan, error) {
	for _, plan := range s.created {
		if plan.ID == planID {
			return plan, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (s *stubPlanStore) ListByTutor(_ context.Context, _ int64, _ int64) ([]models.LessonPlan, error) {
	plans := make([]models.LessonPlan, 0, len(s.created))
	for _, plan := range s.created {
		plans = append(plans, *plan)
	}
	return plans, nil
}

func (s *stubPlanStore) Delete(_ context.Context, _, planID int64) (bool, error) {
	for i, plan := range s.created {
		if plan.ID == planID {
			s.created = append(s.created[:i], s.created[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

type capturingLLMClient struct {
	systemPrompt string
	userPrompt   string
	response     string
	err          error
}

func (c *capturingLLMClient) Complete(_ context.Context, systemPrompt, userPrompt string) (string, error) {
	c.systemPrompt = systemPrompt
	c.userPrompt = userPrompt
	if c.err != nil {
		return "", c.err
	}
	return c.response, nil
}

func (c *capturingLLMClient) Model() string {
	return "test-model"
}

func strPtr(s string) *string {
	return &s
}

func TestGeneratePlanKeepsPIIOutOfPrompt(t *testing.T) {
	students := &stubPlanStudentStore{student: &models.Student{
		ID:        5,
		TutorID:   1,
		FirstName: "Max",
		LastName:  "Mustermann",
		Email:     strPtr("max@example.com"),
		Phone:     strPtr("+49 151 1234567"),
		Grade:     strPtr("8"),
		Subjects:  strPtr("Math"),
	}}
	lessons := &stubPlanLessonStore{previous: []models.Lesson{
		{
			StartsAt:        time.Date(2026, time.September, 3, 15, 0, 0, 0, time.UTC),
			DurationMinutes: 60,
			Status:          models.LessonStatusTaught,
			Notes:           strPtr("struggled with fractions"),
		},
	}}
	plans := &stubPlanStore{}
	llm := &capturingLLMClient{response: "## Plan\n1. Fractions warm-up"}
	service := NewLessonPlanService(students, lessons, plans, llm)

	plan, err := service.Generate(context.Background(), 1, GeneratePlanInput{
		StudentID: 5,
		Topic:     "Fraction arithmetic",
	})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	for _, leaked := range []string{"Max", "Mustermann", "max@example.com", "1234567"} {
		if strings.Contains(llm.userPrompt, leaked) {
			t.Errorf("prompt leaks %q:\n%s", leaked, llm.userPrompt)
		}
	}
	if !strings.Contains(llm.userPrompt, "Fraction arithmetic") {
		t.Errorf("prompt missing topic:\n%s", llm.userPrompt)
	}
	if !strings.Contains(llm.userPrompt, "Grade level: 8") {
		t.Errorf("prompt missing grade level:\n%s", llm.userPrompt)
	}
	if !strings.Contains(llm.userPrompt, "struggled with fractions") {
		t.Errorf("prompt missing previous lesson notes:\n%s", llm.userPrompt)
	}

	if plan.Content != "## Plan\n1. Fractions warm-up" {
		t.Errorf("unexpected plan content: %q", plan.Content)
	}
	if plan.Subject != "Math" {
		t.Errorf("expected subject from student record, got %q", plan.Subject)
	}
	if plan.LLMModel == nil || *plan.LLMModel != "test-model" {
		t.Errorf("expected model recorded on plan")
	}
	if len(plans.created) != 1 {
		t.Errorf("expected plan persisted, got %d", len(plans.created))
	}
}

func TestGeneratePlanUnknownStudent(t *testing.T) {
	service := NewLessonPlanService(&stubPlanStudentStore{}, &stubPlanLessonStore{}, &stubPlanStore{}, &capturingLLMClient{})

	_, err := service.Generate(context.Background(), 1, GeneratePlanInput{StudentID: 99, Topic: "Anything"})
	if err != ErrStudentNotFound {
		t.Fatalf("expected ErrStudentNotFound, got %v", err)
	}
}

func TestGeneratePlanRequiresTopic(t *testing.T) {
	service := NewLessonPlanService(&stubPlanStudentStore{}, &stubPlanLessonStore{}, &stubPlanStore{}, &capturingLLMClient{})

	_, err := service.Generate(context.Background(), 1, GeneratePlanInput{StudentID: 5, Topic: "   "})
	if err != ErrInvalidInput {
		t.Fatalf("expected ErrInvalidInput for blank topic, got %v", err)
	}
}

func TestGeneratePlanWrapsLLMFailure(t *testing.T) {
	students := &stubPlanStudentStore{student: &models.Student{ID: 5, TutorID: 1, FirstName: "Max", LastName: "Mustermann"}}
	llm := &capturingLLMClient{err: context.DeadlineExceeded}
	plans := &stubPlanStore{}
	service := NewLessonPlanService(students, &stubPlanLessonStore{}, plans, llm)

	_, err := service.Generate(context.Background(), 1, GeneratePlanInput{StudentID: 5, Topic: "Algebra"})
	if err == nil {
		t.Fatalf("expected error when generation fails")
	}
	if len(plans.created) != 0 {
		t.Errorf("failed generation must not persist a plan")
	}
}

func TestMockLLMClientAlwaysAnswers(t *testing.T) {
	client := MockLLMClient{}
	content, err := client.Complete(context.Background(), "system", "user context")
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if !strings.Contains(content, "user context") {
		t.Errorf("mock response should echo request context, got %q", content)
	}
}
