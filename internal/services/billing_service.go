package services

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/andreaseirich/tutorflow-sub001/internal/models"
	"github.com/andreaseirich/tutorflow-sub001/internal/repository"
)

// BillingService turns taught lessons into invoices. A lesson is billed
// at most once; invoicing flips it taught→paid and deleting the invoice
// flips it back.
type BillingService struct {
	db          *pgxpool.Pool
	lessonRepo  *repository.LessonRepository
	invoiceRepo *repository.InvoiceRepository
}

func NewBillingService(
	db *pgxpool.Pool,
	lessonRepo *repository.LessonRepository,
	invoiceRepo *repository.InvoiceRepository,
) *BillingService {
	return &BillingService{
		db:          db,
		lessonRepo:  lessonRepo,
		invoiceRepo: invoiceRepo,
	}
}

type CreateInvoiceInput struct {
	PeriodStart time.Time
	PeriodEnd   time.Time
	ContractID  int64
}

func (s *BillingService) ListBillable(ctx context.Context, tutorID int64, input CreateInvoiceInput) ([]repository.LessonWithContract, error) {
	if input.PeriodEnd.Before(input.PeriodStart) {
		return nil, ErrInvalidInput
	}
	return s.lessonRepo.ListBillable(ctx, tutorID, input.PeriodStart, input.PeriodEnd, input.ContractID)
}

// CreateInvoice builds an invoice from every billable lesson in the
// period, all-or-nothing. Billable lessons are locked for the duration
// of the transaction so a concurrent invoicing run cannot bill the
// same lesson twice.
func (s *BillingService) CreateInvoice(ctx context.Context, tutorID int64, input CreateInvoiceInput) (*models.InvoiceDetail, error) {
	if input.PeriodEnd.Before(input.PeriodStart) {
		return nil, ErrInvalidInput
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	txLessonRepo := repository.NewLessonRepository(tx)
	txInvoiceRepo := repository.NewInvoiceRepository(tx)

	billable, err := txLessonRepo.ListBillableForUpdate(ctx, tutorID, input.PeriodStart, input.PeriodEnd, input.ContractID)
	if err != nil {
		return nil, err
	}
	if len(billable) == 0 {
		return nil, ErrNoBillableLessons
	}

	first := billable[0]
	payerName := first.StudentName
	if first.Institute != nil && strings.TrimSpace(*first.Institute) != "" {
		payerName = *first.Institute
	}
	contractID := input.ContractID
	if contractID == 0 {
		contractID = first.ContractID
	}

	invoice := &models.Invoice{
		TutorID:     tutorID,
		Number:      newInvoiceNumber(input.PeriodEnd),
		ContractID:  contractID,
		PayerName:   payerName,
		PeriodStart: input.PeriodStart,
		PeriodEnd:   input.PeriodEnd,
		Status:      models.InvoiceStatusDraft,
	}
	if err := txInvoiceRepo.Create(ctx, invoice); err != nil {
		return nil, err
	}

	items := make([]models.InvoiceItem, 0, len(billable))
	lessonIDs := make([]int64, 0, len(billable))
	total := 0.0
	for i := range billable {
		lesson := &billable[i]
		amount := lessonAmount(lesson.DurationMinutes, lesson.UnitDurationMinutes, lesson.HourlyRate)
		item := models.InvoiceItem{
			InvoiceID: invoice.ID,
			LessonID:  lesson.ID,
			Description: fmt.Sprintf(
				"Lesson %s - %s",
				lesson.StartsAt.Format("2006-01-02 15:04"),
				lesson.StudentName,
			),
			Date:            lesson.StartsAt,
			DurationMinutes: lesson.DurationMinutes,
			Amount:          amount,
		}
		if err := txInvoiceRepo.CreateItem(ctx, &item); err != nil {
			return nil, err
		}
		items = append(items, item)
		lessonIDs = append(lessonIDs, lesson.ID)
		total += amount
	}
	total = roundCents(total)

	if _, err := txLessonRepo.MarkPaid(ctx, lessonIDs); err != nil {
		return nil, err
	}
	if err := txInvoiceRepo.UpdateTotal(ctx, invoice.ID, total); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	invoice.TotalAmount = total
	return &models.InvoiceDetail{Invoice: *invoice, Items: items}, nil
}

// DeleteInvoice removes the invoice and resets its lessons to taught.
// Returns the number of reset lessons.
func (s *BillingService) DeleteInvoice(ctx context.Context, tutorID, invoiceID int64) (int64, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	txLessonRepo := repository.NewLessonRepository(tx)
	txInvoiceRepo := repository.NewInvoiceRepository(tx)

	if _, err := txInvoiceRepo.GetByID(ctx, tutorID, invoiceID); err != nil {
		return 0, err
	}
	reset, err := txLessonRepo.ResetStatusForInvoice(ctx, invoiceID)
	if err != nil {
		return 0, err
	}
	if _, err := txInvoiceRepo.Delete(ctx, tutorID, invoiceID); err != nil {
		return 0, err
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}
	return reset, nil
}

func (s *BillingService) GetInvoice(ctx context.Context, tutorID, invoiceID int64) (*models.InvoiceDetail, error) {
	invoice, err := s.invoiceRepo.GetByID(ctx, tutorID, invoiceID)
	if err != nil {
		return nil, err
	}
	items, err := s.invoiceRepo.ListItems(ctx, invoice.ID)
	if err != nil {
		return nil, err
	}
	return &models.InvoiceDetail{Invoice: *invoice, Items: items}, nil
}

func (s *BillingService) ListInvoices(ctx context.Context, tutorID int64) ([]models.Invoice, error) {
	return s.invoiceRepo.ListByTutor(ctx, tutorID)
}

func (s *BillingService) UpdateInvoiceStatus(ctx context.Context, tutorID, invoiceID int64, status string) (*models.Invoice, error) {
	switch status {
	case models.InvoiceStatusDraft, models.InvoiceStatusSent, models.InvoiceStatusPaid:
	default:
		return nil, ErrInvalidStatus
	}
	return s.invoiceRepo.UpdateStatus(ctx, tutorID, invoiceID, status)
}

// lessonAmount prices a lesson: duration divided by the contract's unit
// length, times the per-unit rate, rounded to cents. Unlike quota
// accounting this uses fractional units, so a 30-minute lesson on a
// 60-minute unit bills half a unit.
func lessonAmount(durationMinutes, unitDurationMinutes int, hourlyRate float64) float64 {
	if unitDurationMinutes <= 0 {
		return 0
	}
	units := float64(durationMinutes) / float64(unitDurationMinutes)
	return roundCents(units * hourlyRate)
}

func roundCents(amount float64) float64 {
	return math.Round(amount*100) / 100
}

func newInvoiceNumber(periodEnd time.Time) string {
	return fmt.Sprintf("INV-%s-%s", periodEnd.Format("200601"), strings.ToUpper(uuid.NewString()[:8]))
}
