package handlers

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"

	"github.com/andreaseirich/tutorflow-sub001/internal/models"
	"github.com/andreaseirich/tutorflow-sub001/internal/repository"
	"github.com/andreaseirich/tutorflow-sub001/internal/services"
)

type billingApplicationService interface {
	ListBillable(ctx context.Context, tutorID int64, input services.CreateInvoiceInput) ([]repository.LessonWithContract, error)
	CreateInvoice(ctx context.Context, tutorID int64, input services.CreateInvoiceInput) (*models.InvoiceDetail, error)
	DeleteInvoice(ctx context.Context, tutorID, invoiceID int64) (int64, error)
	GetInvoice(ctx context.Context, tutorID, invoiceID int64) (*models.InvoiceDetail, error)
	ListInvoices(ctx context.Context, tutorID int64) ([]models.Invoice, error)
	UpdateInvoiceStatus(ctx context.Context, tutorID, invoiceID int64, status string) (*models.Invoice, error)
}

type BillingHandler struct {
	service billingApplicationService
}

func NewBillingHandler(service *services.BillingService) *BillingHandler {
	return &BillingHandler{service: service}
}

type createInvoiceRequest struct {
	PeriodStart string `json:"period_start"`
	PeriodEnd   string `json:"period_end"`
	ContractID  int64  `json:"contract_id"`
}

type updateInvoiceStatusRequest struct {
	Status string `json:"status"`
}

func parseInvoicePeriod(c *fiber.Ctx, req *createInvoiceRequest) (services.CreateInvoiceInput, bool) {
	periodStart, err := time.Parse("2006-01-02", strings.TrimSpace(req.PeriodStart))
	if err != nil {
		_ = c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "period_start must be YYYY-MM-DD"})
		return services.CreateInvoiceInput{}, false
	}
	periodEnd, err := time.Parse("2006-01-02", strings.TrimSpace(req.PeriodEnd))
	if err != nil {
		_ = c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "period_end must be YYYY-MM-DD"})
		return services.CreateInvoiceInput{}, false
	}
	if periodEnd.Before(periodStart) {
		_ = c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "period_end must not be before period_start"})
		return services.CreateInvoiceInput{}, false
	}
	return services.CreateInvoiceInput{
		PeriodStart: periodStart,
		PeriodEnd:   periodEnd,
		ContractID:  req.ContractID,
	}, true
}

// ListBillable previews the lessons an invoice for the period would
// contain, without writing anything.
func (h *BillingHandler) ListBillable(c *fiber.Ctx) error {
	tutorID, ok := requireTutor(c)
	if !ok {
		return nil
	}

	req := createInvoiceRequest{
		PeriodStart: c.Query("period_start"),
		PeriodEnd:   c.Query("period_end"),
		ContractID:  int64(c.QueryInt("contract_id", 0)),
	}
	input, ok := parseInvoicePeriod(c, &req)
	if !ok {
		return nil
	}

	lessons, err := h.service.ListBillable(c.Context(), tutorID, input)
	if err != nil {
		return mapBillingError(c, err)
	}

	return c.JSON(fiber.Map{"billable_lessons": lessons})
}

func (h *BillingHandler) CreateInvoice(c *fiber.Ctx) error {
	tutorID, ok := requireTutor(c)
	if !ok {
		return nil
	}

	var req createInvoiceRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	input, ok := parseInvoicePeriod(c, &req)
	if !ok {
		return nil
	}

	detail, err := h.service.CreateInvoice(c.Context(), tutorID, input)
	if err != nil {
		return mapBillingError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"invoice": detail})
}

func (h *BillingHandler) ListInvoices(c *fiber.Ctx) error {
	tutorID, ok := requireTutor(c)
	if !ok {
		return nil
	}

	invoices, err := h.service.ListInvoices(c.Context(), tutorID)
	if err != nil {
		return mapBillingError(c, err)
	}

	return c.JSON(fiber.Map{"invoices": invoices})
}

func (h *BillingHandler) GetInvoice(c *fiber.Ctx) error {
	tutorID, ok := requireTutor(c)
	if !ok {
		return nil
	}

	invoiceID, err := parseIDParam(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid invoice id"})
	}

	detail, err := h.service.GetInvoice(c.Context(), tutorID, invoiceID)
	if err != nil {
		return mapBillingError(c, err)
	}

	return c.JSON(fiber.Map{"invoice": detail})
}

func (h *BillingHandler) UpdateInvoiceStatus(c *fiber.Ctx) error {
	tutorID, ok := requireTutor(c)
	if !ok {
		return nil
	}

	invoiceID, err := parseIDParam(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid invoice id"})
	}

	var req updateInvoiceStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	invoice, err := h.service.UpdateInvoiceStatus(c.Context(), tutorID, invoiceID, strings.ToLower(strings.TrimSpace(req.Status)))
	if err != nil {
		return mapBillingError(c, err)
	}

	return c.JSON(fiber.Map{"invoice": invoice})
}

// DeleteInvoice removes an invoice and releases its lessons for
// re-billing.
func (h *BillingHandler) DeleteInvoice(c *fiber.Ctx) error {
	tutorID, ok := requireTutor(c)
	if !ok {
		return nil
	}

	invoiceID, err := parseIDParam(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid invoice id"})
	}

	resetLessons, err := h.service.DeleteInvoice(c.Context(), tutorID, invoiceID)
	if err != nil {
		return mapBillingError(c, err)
	}

	return c.JSON(fiber.Map{"reset_lessons": resetLessons})
}

func mapBillingError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrInvalidInput), errors.Is(err, services.ErrInvalidStatus):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, services.ErrNoBillableLessons):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": "No billable lessons in period"})
	case errors.Is(err, pgx.ErrNoRows):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Invoice not found"})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to process billing request"})
	}
}
