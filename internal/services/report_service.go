package services

import (
	"context"
	"time"

	"github.com/andreaseirich/tutorflow-sub001/internal/repository"
)

type reportLessonStore interface {
	ListWithContractBetween(ctx context.Context, tutorID int64, from, to time.Time) ([]repository.LessonWithContract, error)
}

type reportPlanStore interface {
	ListMonthlyPlansForMonth(ctx context.Context, tutorID int64, year, month int) ([]repository.MonthlyPlanWithRate, error)
}

// ReportService computes the monthly income figures shown on the
// dashboard. All amounts are derived, never stored.
type ReportService struct {
	lessons reportLessonStore
	plans   reportPlanStore
}

func NewReportService(lessons reportLessonStore, plans reportPlanStore) *ReportService {
	return &ReportService{lessons: lessons, plans: plans}
}

// ContractMonthReport compares one contract's planned quota against the
// lessons actually on the calendar for that month.
type ContractMonthReport struct {
	ContractID      int64   `json:"contract_id"`
	PlannedUnits    int     `json:"planned_units"`
	ActualUnits     int     `json:"actual_units"`
	DifferenceUnits int     `json:"difference_units"`
	PlannedAmount   float64 `json:"planned_amount"`
	ActualAmount    float64 `json:"actual_amount"`
	// DifferenceAmount is planned minus actual income; positive means
	// the month is under-booked.
	DifferenceAmount float64 `json:"difference_amount"`
}

// MonthlyReport is the planned-vs-actual view for one calendar month.
type MonthlyReport struct {
	Year                  int                   `json:"year"`
	Month                 int                   `json:"month"`
	Contracts             []ContractMonthReport `json:"contracts"`
	TotalPlannedAmount    float64               `json:"total_planned_amount"`
	TotalActualAmount     float64               `json:"total_actual_amount"`
	TotalDifferenceAmount float64               `json:"total_difference_amount"`
}

// MonthlyIncome summarizes income by lesson status for one month.
type MonthlyIncome struct {
	Year          int     `json:"year"`
	Month         int     `json:"month"`
	PaidAmount    float64 `json:"paid_amount"`
	TaughtAmount  float64 `json:"taught_amount"`
	PlannedAmount float64 `json:"planned_amount"`
	TotalAmount   float64 `json:"total_amount"`
	LessonCount   int     `json:"lesson_count"`
}

// MonthlyPlannedVsActual reports, per contract with a quota in the
// month, how the scheduled lessons compare against the plan. Actual
// units use the same ceil rounding as conflict detection; amounts use
// fractional units like invoicing.
func (s *ReportService) MonthlyPlannedVsActual(ctx context.Context, tutorID int64, year, month int) (*MonthlyReport, error) {
	if month < 1 || month > 12 {
		return nil, ErrInvalidInput
	}

	from := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, 0)

	plans, err := s.plans.ListMonthlyPlansForMonth(ctx, tutorID, year, month)
	if err != nil {
		return nil, err
	}
	lessons, err := s.lessons.ListWithContractBetween(ctx, tutorID, from, to)
	if err != nil {
		return nil, err
	}

	actualUnits := make(map[int64]int)
	actualAmount := make(map[int64]float64)
	for i := range lessons {
		lesson := &lessons[i]
		actualUnits[lesson.ContractID] += unitsFor(lesson.DurationMinutes, lesson.UnitDurationMinutes)
		actualAmount[lesson.ContractID] += lessonAmount(lesson.DurationMinutes, lesson.UnitDurationMinutes, lesson.HourlyRate)
	}

	report := &MonthlyReport{Year: year, Month: month, Contracts: make([]ContractMonthReport, 0, len(plans))}
	for i := range plans {
		plan := &plans[i]
		row := ContractMonthReport{
			ContractID:       plan.ContractID,
			PlannedUnits:     plan.PlannedUnits,
			ActualUnits:      actualUnits[plan.ContractID],
			DifferenceUnits:  plan.PlannedUnits - actualUnits[plan.ContractID],
			PlannedAmount:    roundCents(float64(plan.PlannedUnits) * plan.HourlyRate),
			ActualAmount:     roundCents(actualAmount[plan.ContractID]),
			DifferenceAmount: roundCents(float64(plan.PlannedUnits)*plan.HourlyRate - actualAmount[plan.ContractID]),
		}
		report.Contracts = append(report.Contracts, row)
		report.TotalPlannedAmount += row.PlannedAmount
		report.TotalActualAmount += row.ActualAmount
	}
	report.TotalPlannedAmount = roundCents(report.TotalPlannedAmount)
	report.TotalActualAmount = roundCents(report.TotalActualAmount)
	report.TotalDifferenceAmount = roundCents(report.TotalPlannedAmount - report.TotalActualAmount)
	return report, nil
}

// MonthlyIncomeSummary totals lesson income for the month, broken down
// by status. Cancelled lessons are excluded at the query level.
func (s *ReportService) MonthlyIncomeSummary(ctx context.Context, tutorID int64, year, month int) (*MonthlyIncome, error) {
	if month < 1 || month > 12 {
		return nil, ErrInvalidInput
	}

	from := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, 0)

	lessons, err := s.lessons.ListWithContractBetween(ctx, tutorID, from, to)
	if err != nil {
		return nil, err
	}

	income := &MonthlyIncome{Year: year, Month: month, LessonCount: len(lessons)}
	for i := range lessons {
		lesson := &lessons[i]
		amount := lessonAmount(lesson.DurationMinutes, lesson.UnitDurationMinutes, lesson.HourlyRate)
		switch lesson.Status {
		case "paid":
			income.PaidAmount += amount
		case "taught":
			income.TaughtAmount += amount
		default:
			income.PlannedAmount += amount
		}
	}
	income.PaidAmount = roundCents(income.PaidAmount)
	income.TaughtAmount = roundCents(income.TaughtAmount)
	income.PlannedAmount = roundCents(income.PlannedAmount)
	income.TotalAmount = roundCents(income.PaidAmount + income.TaughtAmount + income.PlannedAmount)
	return income, nil
}
