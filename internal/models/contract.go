package models

import "time"

type Contract struct {
	ID                  int64      `json:"id"`
	TutorID             int64      `json:"tutor_id"`
	StudentID           int64      `json:"student_id"`
	Institute           *string    `json:"institute"`
	HourlyRate          float64    `json:"hourly_rate"`
	UnitDurationMinutes int        `json:"unit_duration_minutes"`
	StartDate           time.Time  `json:"start_date"`
	EndDate             *time.Time `json:"end_date"`
	IsActive            bool       `json:"is_active"`
	Notes               *string    `json:"notes"`
	CreatedAt           time.Time  `json:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at"`
}

// ContractMonthlyPlan is the planned unit quota for one contract month.
// Unique per (contract, year, month).
type ContractMonthlyPlan struct {
	ID           int64     `json:"id"`
	ContractID   int64     `json:"contract_id"`
	Year         int       `json:"year"`
	Month        int       `json:"month"`
	PlannedUnits int       `json:"planned_units"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
