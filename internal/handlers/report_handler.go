package handlers

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/andreaseirich/tutorflow-sub001/internal/services"
)

type reportApplicationService interface {
	MonthlyPlannedVsActual(ctx context.Context, tutorID int64, year, month int) (*services.MonthlyReport, error)
	MonthlyIncomeSummary(ctx context.Context, tutorID int64, year, month int) (*services.MonthlyIncome, error)
}

type ReportHandler struct {
	service reportApplicationService
}

func NewReportHandler(service *services.ReportService) *ReportHandler {
	return &ReportHandler{service: service}
}

func parseReportMonth(c *fiber.Ctx) (year, month int, ok bool) {
	now := time.Now()
	year = c.QueryInt("year", now.Year())
	month = c.QueryInt("month", int(now.Month()))
	if year < 2000 || year > 2100 || month < 1 || month > 12 {
		_ = c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid year or month"})
		return 0, 0, false
	}
	return year, month, true
}

func (h *ReportHandler) MonthlyPlannedVsActual(c *fiber.Ctx) error {
	tutorID, ok := requireTutor(c)
	if !ok {
		return nil
	}

	year, month, ok := parseReportMonth(c)
	if !ok {
		return nil
	}

	report, err := h.service.MonthlyPlannedVsActual(c.Context(), tutorID, year, month)
	if err != nil {
		return mapReportError(c, err)
	}

	return c.JSON(fiber.Map{"report": report})
}

func (h *ReportHandler) MonthlyIncome(c *fiber.Ctx) error {
	tutorID, ok := requireTutor(c)
	if !ok {
		return nil
	}

	year, month, ok := parseReportMonth(c)
	if !ok {
		return nil
	}

	income, err := h.service.MonthlyIncomeSummary(c.Context(), tutorID, year, month)
	if err != nil {
		return mapReportError(c, err)
	}

	return c.JSON(fiber.Map{"income": income})
}

func mapReportError(c *fiber.Ctx, err error) error {
	if errors.Is(err, services.ErrInvalidInput) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to build report"})
}
