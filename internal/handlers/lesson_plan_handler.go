package handlers

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"

	"github.com/andreaseirich/tutorflow-sub001/internal/models"
	"github.com/andreaseirich/tutorflow-sub001/internal/services"
)

type lessonPlanApplicationService interface {
	Generate(ctx context.Context, tutorID int64, input services.GeneratePlanInput) (*models.LessonPlan, error)
	Get(ctx context.Context, tutorID, planID int64) (*models.LessonPlan, error)
	List(ctx context.Context, tutorID, studentID int64) ([]models.LessonPlan, error)
	Delete(ctx context.Context, tutorID, planID int64) error
}

type LessonPlanHandler struct {
	service lessonPlanApplicationService
}

func NewLessonPlanHandler(service *services.LessonPlanService) *LessonPlanHandler {
	return &LessonPlanHandler{service: service}
}

type generatePlanRequest struct {
	StudentID       int64  `json:"student_id" validate:"required,gt=0"`
	LessonID        *int64 `json:"lesson_id"`
	Topic           string `json:"topic" validate:"required,min=2,max=500"`
	Subject         string `json:"subject"`
	DurationMinutes *int   `json:"duration_minutes" validate:"omitempty,gt=0"`
}

func (h *LessonPlanHandler) Generate(c *fiber.Ctx) error {
	tutorID, ok := requireTutor(c)
	if !ok {
		return nil
	}

	var req generatePlanRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if err := validate.Struct(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid lesson plan request"})
	}

	plan, err := h.service.Generate(c.Context(), tutorID, services.GeneratePlanInput{
		StudentID:       req.StudentID,
		LessonID:        req.LessonID,
		Topic:           req.Topic,
		Subject:         req.Subject,
		DurationMinutes: req.DurationMinutes,
	})
	if err != nil {
		return mapLessonPlanError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"lesson_plan": plan})
}

func (h *LessonPlanHandler) List(c *fiber.Ctx) error {
	tutorID, ok := requireTutor(c)
	if !ok {
		return nil
	}

	studentID := int64(c.QueryInt("student_id", 0))
	plans, err := h.service.List(c.Context(), tutorID, studentID)
	if err != nil {
		return mapLessonPlanError(c, err)
	}

	return c.JSON(fiber.Map{"lesson_plans": plans})
}

func (h *LessonPlanHandler) Get(c *fiber.Ctx) error {
	tutorID, ok := requireTutor(c)
	if !ok {
		return nil
	}

	planID, err := parseIDParam(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid lesson plan id"})
	}

	plan, err := h.service.Get(c.Context(), tutorID, planID)
	if err != nil {
		return mapLessonPlanError(c, err)
	}

	return c.JSON(fiber.Map{"lesson_plan": plan})
}

func (h *LessonPlanHandler) Delete(c *fiber.Ctx) error {
	tutorID, ok := requireTutor(c)
	if !ok {
		return nil
	}

	planID, err := parseIDParam(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid lesson plan id"})
	}

	if err := h.service.Delete(c.Context(), tutorID, planID); err != nil {
		return mapLessonPlanError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func mapLessonPlanError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrInvalidInput):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, services.ErrStudentNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Student not found"})
	case errors.Is(err, services.ErrPlanGeneration):
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": "Lesson plan generation failed"})
	case errors.Is(err, pgx.ErrNoRows):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Lesson plan not found"})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to process lesson plan request"})
	}
}
