package services

import (
	"context"
	"testing"
	"time"

	"github.com/andreaseirich/tutorflow-sub001/internal/models"
	"github.com/andreaseirich/tutorflow-sub001/internal/repository"
)

type stubReportLessonStore struct {
	lessons []repository.LessonWithContract
}

func (s *stubReportLessonStore) ListWithContractBetween(_ context.Context, _ int64, _, _ time.Time) ([]repository.LessonWithContract, error) {
	return s.lessons, nil
}

type stubReportPlanStore struct {
	plans []repository.MonthlyPlanWithRate
}

func (s *stubReportPlanStore) ListMonthlyPlansForMonth(_ context.Context, _ int64, _, _ int) ([]repository.MonthlyPlanWithRate, error) {
	return s.plans, nil
}

func reportLesson(contractID int64, duration, unit int, rate float64, status string) repository.LessonWithContract {
	return repository.LessonWithContract{
		Lesson: models.Lesson{
			ContractID:      contractID,
			StartsAt:        time.Date(2026, time.September, 5, 10, 0, 0, 0, time.UTC),
			DurationMinutes: duration,
			Status:          status,
		},
		HourlyRate:          rate,
		UnitDurationMinutes: unit,
	}
}

func TestMonthlyPlannedVsActual(t *testing.T) {
	lessons := &stubReportLessonStore{lessons: []repository.LessonWithContract{
		reportLesson(1, 60, 60, 30, models.LessonStatusTaught),
		reportLesson(1, 90, 60, 30, models.LessonStatusPlanned),
		reportLesson(2, 45, 45, 25, models.LessonStatusPaid),
	}}
	plans := &stubReportPlanStore{plans: []repository.MonthlyPlanWithRate{
		{ContractMonthlyPlan: models.ContractMonthlyPlan{ContractID: 1, Year: 2026, Month: 9, PlannedUnits: 4}, HourlyRate: 30},
		{ContractMonthlyPlan: models.ContractMonthlyPlan{ContractID: 2, Year: 2026, Month: 9, PlannedUnits: 1}, HourlyRate: 25},
	}}
	service := NewReportService(lessons, plans)

	report, err := service.MonthlyPlannedVsActual(context.Background(), 1, 2026, 9)
	if err != nil {
		t.Fatalf("MonthlyPlannedVsActual: %v", err)
	}
	if len(report.Contracts) != 2 {
		t.Fatalf("expected 2 contract rows, got %d", len(report.Contracts))
	}

	first := report.Contracts[0]
	// Contract 1: 60 min is 1 unit, 90 min rounds up to 2 units; amounts
	// use fractional units (1.0 + 1.5 at rate 30 = 75).
	if first.ActualUnits != 3 {
		t.Errorf("contract 1 actual units = %d, want 3", first.ActualUnits)
	}
	if first.DifferenceUnits != 1 {
		t.Errorf("contract 1 difference units = %d, want 1", first.DifferenceUnits)
	}
	if first.PlannedAmount != 120 {
		t.Errorf("contract 1 planned amount = %.2f, want 120.00", first.PlannedAmount)
	}
	if first.ActualAmount != 75 {
		t.Errorf("contract 1 actual amount = %.2f, want 75.00", first.ActualAmount)
	}
	if first.DifferenceAmount != 45 {
		t.Errorf("contract 1 difference amount = %.2f, want 45.00", first.DifferenceAmount)
	}

	second := report.Contracts[1]
	// Contract 2 is exactly on plan; the difference must be 0.00.
	if second.DifferenceUnits != 0 || second.DifferenceAmount != 0 {
		t.Errorf("contract 2 differences = %d units, %.2f amount, want 0 and 0.00",
			second.DifferenceUnits, second.DifferenceAmount)
	}

	if report.TotalPlannedAmount != 145 {
		t.Errorf("total planned = %.2f, want 145.00", report.TotalPlannedAmount)
	}
	if report.TotalActualAmount != 100 {
		t.Errorf("total actual = %.2f, want 100.00", report.TotalActualAmount)
	}
	if report.TotalDifferenceAmount != 45 {
		t.Errorf("total difference = %.2f, want 45.00", report.TotalDifferenceAmount)
	}
}

func TestMonthlyPlannedVsActualRejectsBadMonth(t *testing.T) {
	service := NewReportService(&stubReportLessonStore{}, &stubReportPlanStore{})
	if _, err := service.MonthlyPlannedVsActual(context.Background(), 1, 2026, 13); err != ErrInvalidInput {
		t.Fatalf("expected ErrInvalidInput for month 13, got %v", err)
	}
}

func TestMonthlyIncomeSummary(t *testing.T) {
	lessons := &stubReportLessonStore{lessons: []repository.LessonWithContract{
		reportLesson(1, 60, 60, 30, models.LessonStatusPaid),
		reportLesson(1, 60, 60, 30, models.LessonStatusTaught),
		reportLesson(1, 60, 60, 30, models.LessonStatusPlanned),
		reportLesson(1, 30, 60, 30, models.LessonStatusPlanned),
	}}
	service := NewReportService(lessons, &stubReportPlanStore{})

	income, err := service.MonthlyIncomeSummary(context.Background(), 1, 2026, 9)
	if err != nil {
		t.Fatalf("MonthlyIncomeSummary: %v", err)
	}
	if income.PaidAmount != 30 {
		t.Errorf("paid = %.2f, want 30.00", income.PaidAmount)
	}
	if income.TaughtAmount != 30 {
		t.Errorf("taught = %.2f, want 30.00", income.TaughtAmount)
	}
	if income.PlannedAmount != 45 {
		t.Errorf("planned = %.2f, want 45.00", income.PlannedAmount)
	}
	if income.TotalAmount != 105 {
		t.Errorf("total = %.2f, want 105.00", income.TotalAmount)
	}
	if income.LessonCount != 4 {
		t.Errorf("lesson count = %d, want 4", income.LessonCount)
	}
}
