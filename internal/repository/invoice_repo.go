package repository

import (
	"context"

	"github.com/andreaseirich/tutorflow-sub001/internal/models"
)

type InvoiceRepository struct {
	db DBTX
}

func NewInvoiceRepository(db DBTX) *InvoiceRepository {
	return &InvoiceRepository{db: db}
}

const invoiceColumns = `id, tutor_id, number, contract_id, payer_name, period_start, period_end, status, total_amount, created_at, updated_at`

func scanInvoice(row interface{ Scan(dest ...any) error }, invoice *models.Invoice) error {
	return row.Scan(
		&invoice.ID,
		&invoice.TutorID,
		&invoice.Number,
		&invoice.ContractID,
		&invoice.PayerName,
		&invoice.PeriodStart,
		&invoice.PeriodEnd,
		&invoice.Status,
		&invoice.TotalAmount,
		&invoice.CreatedAt,
		&invoice.UpdatedAt,
	)
}

func (r *InvoiceRepository) Create(ctx context.Context, invoice *models.Invoice) error {
	query := `
		INSERT INTO invoices (tutor_id, number, contract_id, payer_name, period_start, period_end, status, total_amount)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at
	`
	return r.db.QueryRow(
		ctx,
		query,
		invoice.TutorID,
		invoice.Number,
		invoice.ContractID,
		invoice.PayerName,
		invoice.PeriodStart,
		invoice.PeriodEnd,
		invoice.Status,
		invoice.TotalAmount,
	).Scan(&invoice.ID, &invoice.CreatedAt, &invoice.UpdatedAt)
}

func (r *InvoiceRepository) CreateItem(ctx context.Context, item *models.InvoiceItem) error {
	query := `
		INSERT INTO invoice_items (invoice_id, lesson_id, description, date, duration_minutes, amount)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`
	return r.db.QueryRow(
		ctx,
		query,
		item.InvoiceID,
		item.LessonID,
		item.Description,
		item.Date,
		item.DurationMinutes,
		item.Amount,
	).Scan(&item.ID, &item.CreatedAt)
}

func (r *InvoiceRepository) UpdateTotal(ctx context.Context, invoiceID int64, total float64) error {
	_, err := r.db.Exec(ctx, `
		UPDATE invoices SET total_amount = $2, updated_at = NOW() WHERE id = $1
	`, invoiceID, total)
	return err
}

func (r *InvoiceRepository) UpdateStatus(ctx context.Context, tutorID, invoiceID int64, status string) (*models.Invoice, error) {
	query := `
		UPDATE invoices
		SET status = $3, updated_at = NOW()
		WHERE id = $1 AND tutor_id = $2
		RETURNING ` + invoiceColumns + `
	`
	var invoice models.Invoice
	if err := scanInvoice(r.db.QueryRow(ctx, query, invoiceID, tutorID, status), &invoice); err != nil {
		return nil, err
	}
	return &invoice, nil
}

func (r *InvoiceRepository) GetByID(ctx context.Context, tutorID, invoiceID int64) (*models.Invoice, error) {
	query := `
		SELECT ` + invoiceColumns + `
		FROM invoices
		WHERE id = $1 AND tutor_id = $2
	`
	var invoice models.Invoice
	if err := scanInvoice(r.db.QueryRow(ctx, query, invoiceID, tutorID), &invoice); err != nil {
		return nil, err
	}
	return &invoice, nil
}

func (r *InvoiceRepository) ListByTutor(ctx context.Context, tutorID int64) ([]models.Invoice, error) {
	query := `
		SELECT ` + invoiceColumns + `
		FROM invoices
		WHERE tutor_id = $1
		ORDER BY period_start DESC, id DESC
	`
	rows, err := r.db.Query(ctx, query, tutorID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	invoices := make([]models.Invoice, 0)
	for rows.Next() {
		var invoice models.Invoice
		if err := scanInvoice(rows, &invoice); err != nil {
			return nil, err
		}
		invoices = append(invoices, invoice)
	}
	return invoices, rows.Err()
}

func (r *InvoiceRepository) ListItems(ctx context.Context, invoiceID int64) ([]models.InvoiceItem, error) {
	query := `
		SELECT id, invoice_id, lesson_id, description, date, duration_minutes, amount, created_at
		FROM invoice_items
		WHERE invoice_id = $1
		ORDER BY date ASC, id ASC
	`
	rows, err := r.db.Query(ctx, query, invoiceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]models.InvoiceItem, 0)
	for rows.Next() {
		var item models.InvoiceItem
		if err := rows.Scan(
			&item.ID,
			&item.InvoiceID,
			&item.LessonID,
			&item.Description,
			&item.Date,
			&item.DurationMinutes,
			&item.Amount,
			&item.CreatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (r *InvoiceRepository) Delete(ctx context.Context, tutorID, invoiceID int64) (bool, error) {
	if _, err := r.db.Exec(ctx, `DELETE FROM invoice_items WHERE invoice_id = $1`, invoiceID); err != nil {
		return false, err
	}
	tag, err := r.db.Exec(ctx, `DELETE FROM invoices WHERE id = $1 AND tutor_id = $2`, invoiceID, tutorID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}
