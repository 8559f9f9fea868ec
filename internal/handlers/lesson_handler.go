package handlers

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog/log"

	"github.com/andreaseirich/tutorflow-sub001/internal/models"
	"github.com/andreaseirich/tutorflow-sub001/internal/repository"
	"github.com/andreaseirich/tutorflow-sub001/internal/services"
)

type lessonApplicationService interface {
	Create(ctx context.Context, tutorID int64, input services.LessonInput) (*models.Lesson, []services.Conflict, error)
	Update(ctx context.Context, tutorID, lessonID int64, input services.LessonInput) (*models.Lesson, []services.Conflict, error)
	Get(ctx context.Context, tutorID, lessonID int64) (*models.Lesson, error)
	List(ctx context.Context, tutorID int64, filter repository.LessonListFilter) ([]models.Lesson, int, error)
	Delete(ctx context.Context, tutorID, lessonID int64) error
	Conflicts(ctx context.Context, tutorID, lessonID int64) ([]services.Conflict, error)
	UpdateStatus(ctx context.Context, tutorID, lessonID int64, requestedStatus string) (*models.Lesson, error)
}

type statusUpdateService interface {
	UpdatePastLessonsToTaught(ctx context.Context, now *time.Time) (int, error)
}

type LessonHandler struct {
	service       lessonApplicationService
	statusService statusUpdateService
}

func NewLessonHandler(service *services.LessonService, statusService *services.StatusService) *LessonHandler {
	return &LessonHandler{service: service, statusService: statusService}
}

type lessonRequest struct {
	ContractID              int64   `json:"contract_id"`
	StartsAt                string  `json:"starts_at"`
	DurationMinutes         int     `json:"duration_minutes"`
	TravelTimeBeforeMinutes int     `json:"travel_time_before_minutes"`
	TravelTimeAfterMinutes  int     `json:"travel_time_after_minutes"`
	Notes                   *string `json:"notes"`
}

type updateLessonStatusRequest struct {
	Status string `json:"status"`
}

func (h *LessonHandler) parseLessonRequest(c *fiber.Ctx) (services.LessonInput, bool) {
	var req lessonRequest
	if err := c.BodyParser(&req); err != nil {
		_ = c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
		return services.LessonInput{}, false
	}

	startsAt, err := time.Parse(time.RFC3339, strings.TrimSpace(req.StartsAt))
	if err != nil {
		_ = c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "starts_at must be a valid RFC3339 timestamp"})
		return services.LessonInput{}, false
	}
	if req.DurationMinutes <= 0 {
		_ = c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "duration_minutes must be greater than 0"})
		return services.LessonInput{}, false
	}
	if req.TravelTimeBeforeMinutes < 0 || req.TravelTimeAfterMinutes < 0 {
		_ = c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "travel times must not be negative"})
		return services.LessonInput{}, false
	}

	return services.LessonInput{
		ContractID:              req.ContractID,
		StartsAt:                startsAt,
		DurationMinutes:         req.DurationMinutes,
		TravelTimeBeforeMinutes: req.TravelTimeBeforeMinutes,
		TravelTimeAfterMinutes:  req.TravelTimeAfterMinutes,
		Notes:                   req.Notes,
		Strict:                  c.QueryBool("strict", false),
	}, true
}

func (h *LessonHandler) Create(c *fiber.Ctx) error {
	tutorID, ok := requireTutor(c)
	if !ok {
		return nil
	}

	input, ok := h.parseLessonRequest(c)
	if !ok {
		return nil
	}

	lesson, conflicts, err := h.service.Create(c.Context(), tutorID, input)
	if err != nil {
		return mapLessonError(c, err, conflicts)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"lesson":    lesson,
		"conflicts": conflicts,
	})
}

func (h *LessonHandler) Update(c *fiber.Ctx) error {
	tutorID, ok := requireTutor(c)
	if !ok {
		return nil
	}

	lessonID, err := parseIDParam(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid lesson id"})
	}

	input, ok := h.parseLessonRequest(c)
	if !ok {
		return nil
	}

	lesson, conflicts, err := h.service.Update(c.Context(), tutorID, lessonID, input)
	if err != nil {
		return mapLessonError(c, err, conflicts)
	}

	return c.JSON(fiber.Map{
		"lesson":    lesson,
		"conflicts": conflicts,
	})
}

func (h *LessonHandler) List(c *fiber.Ctx) error {
	tutorID, ok := requireTutor(c)
	if !ok {
		return nil
	}

	// Past planned lessons flip to taught before the list is built, so
	// calendar views never show stale statuses.
	if _, err := h.statusService.UpdatePastLessonsToTaught(c.Context(), nil); err != nil {
		log.Warn().Err(err).Msg("status refresh before lesson list failed")
	}

	filter := repository.LessonListFilter{
		ContractID: int64(c.QueryInt("contract_id", 0)),
		Status:     strings.TrimSpace(c.Query("status")),
	}
	if filter.Status != "" && !models.IsValidLessonStatus(filter.Status) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid status filter"})
	}
	if from := strings.TrimSpace(c.Query("from")); from != "" {
		parsed, err := time.Parse(time.RFC3339, from)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "from must be a valid RFC3339 timestamp"})
		}
		filter.From = &parsed
	}
	if to := strings.TrimSpace(c.Query("to")); to != "" {
		parsed, err := time.Parse(time.RFC3339, to)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "to must be a valid RFC3339 timestamp"})
		}
		filter.To = &parsed
	}

	page, limit := parsePagination(c)
	filter.Limit = limit
	filter.Offset = (page - 1) * limit

	lessons, total, err := h.service.List(c.Context(), tutorID, filter)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to list lessons"})
	}

	return c.JSON(fiber.Map{
		"lessons":    lessons,
		"pagination": buildPaginationMeta(page, limit, total),
	})
}

func (h *LessonHandler) Get(c *fiber.Ctx) error {
	tutorID, ok := requireTutor(c)
	if !ok {
		return nil
	}

	lessonID, err := parseIDParam(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid lesson id"})
	}

	lesson, err := h.service.Get(c.Context(), tutorID, lessonID)
	if err != nil {
		return mapLessonError(c, err, nil)
	}

	return c.JSON(fiber.Map{"lesson": lesson})
}

func (h *LessonHandler) Delete(c *fiber.Ctx) error {
	tutorID, ok := requireTutor(c)
	if !ok {
		return nil
	}

	lessonID, err := parseIDParam(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid lesson id"})
	}

	if err := h.service.Delete(c.Context(), tutorID, lessonID); err != nil {
		return mapLessonError(c, err, nil)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// Conflicts returns the current conflict list for a stored lesson.
func (h *LessonHandler) Conflicts(c *fiber.Ctx) error {
	tutorID, ok := requireTutor(c)
	if !ok {
		return nil
	}

	lessonID, err := parseIDParam(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid lesson id"})
	}

	conflicts, err := h.service.Conflicts(c.Context(), tutorID, lessonID)
	if err != nil {
		return mapLessonError(c, err, nil)
	}

	return c.JSON(fiber.Map{"conflicts": conflicts})
}

func (h *LessonHandler) UpdateStatus(c *fiber.Ctx) error {
	tutorID, ok := requireTutor(c)
	if !ok {
		return nil
	}

	lessonID, err := parseIDParam(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid lesson id"})
	}

	var req updateLessonStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	lesson, err := h.service.UpdateStatus(c.Context(), tutorID, lessonID, req.Status)
	if err != nil {
		return mapLessonError(c, err, nil)
	}

	return c.JSON(fiber.Map{"lesson": lesson})
}

// UpdatePastToTaught triggers the batch status update on demand. The
// same job runs on a schedule; the endpoint exists for dashboards that
// want fresh statuses immediately.
func (h *LessonHandler) UpdatePastToTaught(c *fiber.Ctx) error {
	_, ok := requireTutor(c)
	if !ok {
		return nil
	}

	updated, err := h.statusService.UpdatePastLessonsToTaught(c.Context(), nil)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update lesson statuses"})
	}

	return c.JSON(fiber.Map{"updated": updated})
}

func mapLessonError(c *fiber.Ctx, err error, conflicts []services.Conflict) error {
	switch {
	case errors.Is(err, services.ErrConflict):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error":     "Lesson conflicts with existing schedule",
			"conflicts": conflicts,
		})
	case errors.Is(err, services.ErrInvalidInput), errors.Is(err, services.ErrInvalidStatus):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, services.ErrInvalidStateTransition):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, services.ErrContractNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Contract not found"})
	case errors.Is(err, pgx.ErrNoRows):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Lesson not found"})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to process lesson request"})
	}
}
