package handlers

import (
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/andreaseirich/tutorflow-sub001/internal/models"
	"github.com/andreaseirich/tutorflow-sub001/internal/repository"
)

type ContractHandler struct {
	contractRepo *repository.ContractRepository
	studentRepo  *repository.StudentRepository
}

func NewContractHandler(contractRepo *repository.ContractRepository, studentRepo *repository.StudentRepository) *ContractHandler {
	return &ContractHandler{contractRepo: contractRepo, studentRepo: studentRepo}
}

type contractRequest struct {
	StudentID           int64   `json:"student_id" validate:"required,gt=0"`
	Institute           *string `json:"institute"`
	HourlyRate          float64 `json:"hourly_rate" validate:"required,gt=0"`
	UnitDurationMinutes int     `json:"unit_duration_minutes" validate:"required,gt=0"`
	StartDate           string  `json:"start_date" validate:"required"`
	EndDate             *string `json:"end_date"`
	IsActive            *bool   `json:"is_active"`
	Notes               *string `json:"notes"`
}

type monthlyPlanRequest struct {
	Year         int `json:"year" validate:"required,gte=2000,lte=2100"`
	Month        int `json:"month" validate:"required,gte=1,lte=12"`
	PlannedUnits int `json:"planned_units" validate:"gte=0"`
}

func (h *ContractHandler) parseContractRequest(c *fiber.Ctx, tutorID int64) (*models.Contract, error) {
	var req contractRequest
	if err := c.BodyParser(&req); err != nil {
		return nil, c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if err := validate.Struct(&req); err != nil {
		return nil, c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid contract data"})
	}

	startDate, err := time.Parse("2006-01-02", strings.TrimSpace(req.StartDate))
	if err != nil {
		return nil, c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "start_date must be YYYY-MM-DD"})
	}
	var endDate *time.Time
	if req.EndDate != nil && strings.TrimSpace(*req.EndDate) != "" {
		parsed, err := time.Parse("2006-01-02", strings.TrimSpace(*req.EndDate))
		if err != nil {
			return nil, c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "end_date must be YYYY-MM-DD"})
		}
		if parsed.Before(startDate) {
			return nil, c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "end_date must not be before start_date"})
		}
		endDate = &parsed
	}

	if _, err := h.studentRepo.GetByID(c.Context(), tutorID, req.StudentID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Student not found"})
		}
		return nil, c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch student"})
	}

	isActive := true
	if req.IsActive != nil {
		isActive = *req.IsActive
	}

	return &models.Contract{
		TutorID:             tutorID,
		StudentID:           req.StudentID,
		Institute:           req.Institute,
		HourlyRate:          req.HourlyRate,
		UnitDurationMinutes: req.UnitDurationMinutes,
		StartDate:           startDate,
		EndDate:             endDate,
		IsActive:            isActive,
		Notes:               req.Notes,
	}, nil
}

func (h *ContractHandler) Create(c *fiber.Ctx) error {
	tutorID, ok := requireTutor(c)
	if !ok {
		return nil
	}

	contract, err := h.parseContractRequest(c, tutorID)
	if contract == nil {
		return err
	}
	if err := h.contractRepo.Create(c.Context(), contract); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create contract"})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"contract": contract})
}

func (h *ContractHandler) List(c *fiber.Ctx) error {
	tutorID, ok := requireTutor(c)
	if !ok {
		return nil
	}

	contracts, err := h.contractRepo.ListByTutor(c.Context(), tutorID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to list contracts"})
	}

	return c.JSON(fiber.Map{"contracts": contracts})
}

func (h *ContractHandler) Get(c *fiber.Ctx) error {
	tutorID, ok := requireTutor(c)
	if !ok {
		return nil
	}

	contractID, err := parseIDParam(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid contract id"})
	}

	contract, err := h.contractRepo.GetByID(c.Context(), tutorID, contractID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Contract not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch contract"})
	}

	return c.JSON(fiber.Map{"contract": contract})
}

func (h *ContractHandler) Update(c *fiber.Ctx) error {
	tutorID, ok := requireTutor(c)
	if !ok {
		return nil
	}

	contractID, err := parseIDParam(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid contract id"})
	}

	contract, err := h.parseContractRequest(c, tutorID)
	if contract == nil {
		return err
	}
	contract.ID = contractID
	if err := h.contractRepo.Update(c.Context(), contract); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Contract not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update contract"})
	}

	return c.JSON(fiber.Map{"contract": contract})
}

func (h *ContractHandler) Delete(c *fiber.Ctx) error {
	tutorID, ok := requireTutor(c)
	if !ok {
		return nil
	}

	contractID, err := parseIDParam(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid contract id"})
	}

	deleted, err := h.contractRepo.Delete(c.Context(), tutorID, contractID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Contract still has lessons"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to delete contract"})
	}
	if !deleted {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Contract not found"})
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// UpsertMonthlyPlan sets the planned unit quota for one contract month.
func (h *ContractHandler) UpsertMonthlyPlan(c *fiber.Ctx) error {
	tutorID, ok := requireTutor(c)
	if !ok {
		return nil
	}

	contractID, err := parseIDParam(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid contract id"})
	}

	var req monthlyPlanRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if err := validate.Struct(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid monthly plan data"})
	}

	if _, err := h.contractRepo.GetByID(c.Context(), tutorID, contractID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Contract not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch contract"})
	}

	plan := &models.ContractMonthlyPlan{
		ContractID:   contractID,
		Year:         req.Year,
		Month:        req.Month,
		PlannedUnits: req.PlannedUnits,
	}
	if err := h.contractRepo.UpsertMonthlyPlan(c.Context(), plan); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to save monthly plan"})
	}

	return c.JSON(fiber.Map{"monthly_plan": plan})
}

func (h *ContractHandler) ListMonthlyPlans(c *fiber.Ctx) error {
	tutorID, ok := requireTutor(c)
	if !ok {
		return nil
	}

	contractID, err := parseIDParam(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid contract id"})
	}

	if _, err := h.contractRepo.GetByID(c.Context(), tutorID, contractID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Contract not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch contract"})
	}

	plans, err := h.contractRepo.ListMonthlyPlans(c.Context(), contractID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to list monthly plans"})
	}

	return c.JSON(fiber.Map{"monthly_plans": plans})
}
