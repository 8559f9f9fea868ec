package models

import "time"

const (
	InvoiceStatusDraft = "draft"
	InvoiceStatusSent  = "sent"
	InvoiceStatusPaid  = "paid"
)

type Invoice struct {
	ID          int64     `json:"id"`
	TutorID     int64     `json:"tutor_id"`
	Number      string    `json:"number"`
	ContractID  int64     `json:"contract_id"`
	PayerName   string    `json:"payer_name"`
	PeriodStart time.Time `json:"period_start"`
	PeriodEnd   time.Time `json:"period_end"`
	Status      string    `json:"status"`
	TotalAmount float64   `json:"total_amount"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// InvoiceItem bills exactly one lesson; a lesson can appear on at most
// one invoice.
type InvoiceItem struct {
	ID              int64     `json:"id"`
	InvoiceID       int64     `json:"invoice_id"`
	LessonID        int64     `json:"lesson_id"`
	Description     string    `json:"description"`
	Date            time.Time `json:"date"`
	DurationMinutes int       `json:"duration_minutes"`
	Amount          float64   `json:"amount"`
	CreatedAt       time.Time `json:"created_at"`
}

type InvoiceDetail struct {
	Invoice
	Items []InvoiceItem `json:"items"`
}
