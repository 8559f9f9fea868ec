package handlers

import (
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"

	"github.com/andreaseirich/tutorflow-sub001/internal/models"
	"github.com/andreaseirich/tutorflow-sub001/internal/repository"
)

type BlockedTimeHandler struct {
	blockedTimeRepo *repository.BlockedTimeRepository
}

func NewBlockedTimeHandler(blockedTimeRepo *repository.BlockedTimeRepository) *BlockedTimeHandler {
	return &BlockedTimeHandler{blockedTimeRepo: blockedTimeRepo}
}

type blockedTimeRequest struct {
	Title            string  `json:"title" validate:"required,min=1,max=200"`
	StartsAt         string  `json:"starts_at" validate:"required"`
	EndsAt           string  `json:"ends_at" validate:"required"`
	IsRecurring      bool    `json:"is_recurring"`
	RecurringPattern *string `json:"recurring_pattern"`
	Description      *string `json:"description"`
}

func (h *BlockedTimeHandler) parseBlockedTimeRequest(c *fiber.Ctx, tutorID int64) (*models.BlockedTime, bool) {
	var req blockedTimeRequest
	if err := c.BodyParser(&req); err != nil {
		_ = c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
		return nil, false
	}
	if err := validate.Struct(&req); err != nil {
		_ = c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid blocked time data"})
		return nil, false
	}

	startsAt, err := time.Parse(time.RFC3339, strings.TrimSpace(req.StartsAt))
	if err != nil {
		_ = c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "starts_at must be a valid RFC3339 timestamp"})
		return nil, false
	}
	endsAt, err := time.Parse(time.RFC3339, strings.TrimSpace(req.EndsAt))
	if err != nil {
		_ = c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "ends_at must be a valid RFC3339 timestamp"})
		return nil, false
	}
	if !startsAt.Before(endsAt) {
		_ = c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "ends_at must be after starts_at"})
		return nil, false
	}

	return &models.BlockedTime{
		TutorID:          tutorID,
		Title:            strings.TrimSpace(req.Title),
		StartsAt:         startsAt,
		EndsAt:           endsAt,
		IsRecurring:      req.IsRecurring,
		RecurringPattern: req.RecurringPattern,
		Description:      req.Description,
	}, true
}

func (h *BlockedTimeHandler) Create(c *fiber.Ctx) error {
	tutorID, ok := requireTutor(c)
	if !ok {
		return nil
	}

	blocked, ok := h.parseBlockedTimeRequest(c, tutorID)
	if !ok {
		return nil
	}
	if err := h.blockedTimeRepo.Create(c.Context(), blocked); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create blocked time"})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"blocked_time": blocked})
}

func (h *BlockedTimeHandler) List(c *fiber.Ctx) error {
	tutorID, ok := requireTutor(c)
	if !ok {
		return nil
	}

	blocks, err := h.blockedTimeRepo.ListByTutor(c.Context(), tutorID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to list blocked times"})
	}

	return c.JSON(fiber.Map{"blocked_times": blocks})
}

func (h *BlockedTimeHandler) Get(c *fiber.Ctx) error {
	tutorID, ok := requireTutor(c)
	if !ok {
		return nil
	}

	blockedTimeID, err := parseIDParam(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid blocked time id"})
	}

	blocked, err := h.blockedTimeRepo.GetByID(c.Context(), tutorID, blockedTimeID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Blocked time not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch blocked time"})
	}

	return c.JSON(fiber.Map{"blocked_time": blocked})
}

func (h *BlockedTimeHandler) Update(c *fiber.Ctx) error {
	tutorID, ok := requireTutor(c)
	if !ok {
		return nil
	}

	blockedTimeID, err := parseIDParam(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid blocked time id"})
	}

	blocked, ok := h.parseBlockedTimeRequest(c, tutorID)
	if !ok {
		return nil
	}
	blocked.ID = blockedTimeID
	if err := h.blockedTimeRepo.Update(c.Context(), blocked); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Blocked time not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update blocked time"})
	}

	return c.JSON(fiber.Map{"blocked_time": blocked})
}

func (h *BlockedTimeHandler) Delete(c *fiber.Ctx) error {
	tutorID, ok := requireTutor(c)
	if !ok {
		return nil
	}

	blockedTimeID, err := parseIDParam(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid blocked time id"})
	}

	deleted, err := h.blockedTimeRepo.Delete(c.Context(), tutorID, blockedTimeID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to delete blocked time"})
	}
	if !deleted {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Blocked time not found"})
	}

	return c.SendStatus(fiber.StatusNoContent)
}
