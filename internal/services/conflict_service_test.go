package services

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/andreaseirich/tutorflow-sub001/internal/models"
)

type stubConflictLessonStore struct {
	nearDay    []models.Lesson
	inMonth    []models.Lesson
	nearDayErr error
}

func (s *stubConflictLessonStore) ListNearDay(_ context.Context, _ int64, _ time.Time) ([]models.Lesson, error) {
	return s.nearDay, s.nearDayErr
}

func (s *stubConflictLessonStore) ListByContractBetween(_ context.Context, _ int64, _, _ time.Time) ([]models.Lesson, error) {
	return s.inMonth, nil
}

type stubConflictBlockedTimeStore struct {
	blocks []models.BlockedTime
}

func (s *stubConflictBlockedTimeStore) ListOverlapping(_ context.Context, _ int64, start, end time.Time) ([]models.BlockedTime, error) {
	overlapping := make([]models.BlockedTime, 0)
	for _, blocked := range s.blocks {
		if blocked.StartsAt.Before(end) && blocked.EndsAt.After(start) {
			overlapping = append(overlapping, blocked)
		}
	}
	return overlapping, nil
}

type stubConflictContractStore struct {
	contract *models.Contract
	plan     *models.ContractMonthlyPlan
}

func (s *stubConflictContractStore) GetByID(_ context.Context, _, _ int64) (*models.Contract, error) {
	if s.contract == nil {
		return nil, pgx.ErrNoRows
	}
	return s.contract, nil
}

func (s *stubConflictContractStore) GetMonthlyPlan(_ context.Context, _ int64, _, _ int) (*models.ContractMonthlyPlan, error) {
	if s.plan == nil {
		return nil, pgx.ErrNoRows
	}
	return s.plan, nil
}

func newConflictFixture(lessons *stubConflictLessonStore, blocks *stubConflictBlockedTimeStore, contracts *stubConflictContractStore) *ConflictService {
	if lessons == nil {
		lessons = &stubConflictLessonStore{}
	}
	if blocks == nil {
		blocks = &stubConflictBlockedTimeStore{}
	}
	if contracts == nil {
		contracts = &stubConflictContractStore{}
	}
	return NewConflictService(lessons, blocks, contracts)
}

func at(hour, min int) time.Time {
	return time.Date(2026, time.September, 10, hour, min, 0, 0, time.UTC)
}

func TestIntervalsOverlap(t *testing.T) {
	tests := []struct {
		name                       string
		start1, end1, start2, end2 time.Time
		want                       bool
	}{
		{"identical", at(9, 0), at(10, 0), at(9, 0), at(10, 0), true},
		{"partial overlap", at(9, 0), at(10, 0), at(9, 30), at(10, 30), true},
		{"contained", at(9, 0), at(12, 0), at(10, 0), at(11, 0), true},
		{"touching endpoints", at(9, 0), at(10, 0), at(10, 0), at(11, 0), false},
		{"disjoint", at(9, 0), at(10, 0), at(11, 0), at(12, 0), false},
		{"one minute overlap", at(9, 0), at(10, 1), at(10, 0), at(11, 0), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := intervalsOverlap(tt.start1, tt.end1, tt.start2, tt.end2); got != tt.want {
				t.Errorf("intervalsOverlap(%v, %v, %v, %v) = %v, want %v",
					tt.start1, tt.end1, tt.start2, tt.end2, got, tt.want)
			}
		})
	}
}

func TestCheckConflictsLessonOverlap(t *testing.T) {
	other := models.Lesson{
		ID:              7,
		TutorID:         1,
		ContractID:      2,
		StartsAt:        at(10, 0),
		DurationMinutes: 60,
		Status:          models.LessonStatusPlanned,
	}
	service := newConflictFixture(&stubConflictLessonStore{nearDay: []models.Lesson{other}}, nil, nil)

	lesson := &models.Lesson{
		TutorID:         1,
		ContractID:      3,
		StartsAt:        at(10, 30),
		DurationMinutes: 60,
		Status:          models.LessonStatusPlanned,
	}
	conflicts, err := service.CheckConflicts(context.Background(), lesson, false)
	if err != nil {
		t.Fatalf("CheckConflicts: %v", err)
	}
	if len(conflicts) != 1 {
		t.Fatalf("expected 1 conflict, got %d", len(conflicts))
	}
	if conflicts[0].Type != ConflictTypeLesson {
		t.Errorf("expected lesson conflict, got %s", conflicts[0].Type)
	}
	if conflicts[0].Lesson == nil || conflicts[0].Lesson.ID != 7 {
		t.Errorf("expected conflicting lesson 7 in payload")
	}
}

func TestCheckConflictsTravelBuffersCollide(t *testing.T) {
	// 09:00-10:00 lesson with 30 min travel after occupies until 10:30.
	other := models.Lesson{
		ID:                     5,
		TutorID:                1,
		StartsAt:               at(9, 0),
		DurationMinutes:        60,
		TravelTimeAfterMinutes: 30,
		Status:                 models.LessonStatusPlanned,
	}
	service := newConflictFixture(&stubConflictLessonStore{nearDay: []models.Lesson{other}}, nil, nil)

	// 10:45 start with 20 min travel before occupies from 10:25.
	lesson := &models.Lesson{
		TutorID:                 1,
		StartsAt:                at(10, 45),
		DurationMinutes:         60,
		TravelTimeBeforeMinutes: 20,
		Status:                  models.LessonStatusPlanned,
	}
	conflicts, err := service.CheckConflicts(context.Background(), lesson, false)
	if err != nil {
		t.Fatalf("CheckConflicts: %v", err)
	}
	if len(conflicts) != 1 {
		t.Fatalf("expected travel buffer collision, got %d conflicts", len(conflicts))
	}
}

func TestCheckConflictsNoOverlapBackToBack(t *testing.T) {
	other := models.Lesson{
		ID:              5,
		TutorID:         1,
		StartsAt:        at(9, 0),
		DurationMinutes: 60,
		Status:          models.LessonStatusPlanned,
	}
	service := newConflictFixture(&stubConflictLessonStore{nearDay: []models.Lesson{other}}, nil, nil)

	lesson := &models.Lesson{
		TutorID:         1,
		StartsAt:        at(10, 0),
		DurationMinutes: 60,
		Status:          models.LessonStatusPlanned,
	}
	conflicts, err := service.CheckConflicts(context.Background(), lesson, false)
	if err != nil {
		t.Fatalf("CheckConflicts: %v", err)
	}
	if len(conflicts) != 0 {
		t.Fatalf("back-to-back lessons must not conflict, got %d conflicts", len(conflicts))
	}
}

func TestCheckConflictsExcludeSelf(t *testing.T) {
	stored := models.Lesson{
		ID:              42,
		TutorID:         1,
		StartsAt:        at(10, 0),
		DurationMinutes: 60,
		Status:          models.LessonStatusPlanned,
	}
	service := newConflictFixture(&stubConflictLessonStore{nearDay: []models.Lesson{stored}}, nil, nil)

	// Checking the stored lesson against itself.
	lesson := stored
	conflicts, err := service.CheckConflicts(context.Background(), &lesson, true)
	if err != nil {
		t.Fatalf("CheckConflicts: %v", err)
	}
	if len(conflicts) != 0 {
		t.Fatalf("lesson must not conflict with its own stored row, got %d conflicts", len(conflicts))
	}

	// Without excludeSelf the stored row counts.
	conflicts, err = service.CheckConflicts(context.Background(), &lesson, false)
	if err != nil {
		t.Fatalf("CheckConflicts: %v", err)
	}
	if len(conflicts) != 1 {
		t.Fatalf("expected self overlap without exclusion, got %d conflicts", len(conflicts))
	}
}

func TestCheckConflictsBlockedTime(t *testing.T) {
	blocked := models.BlockedTime{
		ID:       3,
		TutorID:  1,
		Title:    "Doctor appointment",
		StartsAt: at(10, 59),
		EndsAt:   at(12, 0),
	}
	service := newConflictFixture(nil, &stubConflictBlockedTimeStore{blocks: []models.BlockedTime{blocked}}, nil)

	lesson := &models.Lesson{
		TutorID:         1,
		StartsAt:        at(10, 0),
		DurationMinutes: 60,
		Status:          models.LessonStatusPlanned,
	}
	conflicts, err := service.CheckConflicts(context.Background(), lesson, false)
	if err != nil {
		t.Fatalf("CheckConflicts: %v", err)
	}
	if len(conflicts) != 1 {
		t.Fatalf("expected blocked time conflict, got %d", len(conflicts))
	}
	if conflicts[0].Type != ConflictTypeBlockedTime {
		t.Errorf("expected blocked_time conflict, got %s", conflicts[0].Type)
	}
	if conflicts[0].BlockedTime == nil || conflicts[0].BlockedTime.ID != 3 {
		t.Errorf("expected blocked time 3 in payload")
	}
}

func TestCheckConflictsQuotaExceeded(t *testing.T) {
	contracts := &stubConflictContractStore{
		contract: &models.Contract{ID: 2, TutorID: 1, UnitDurationMinutes: 45, HourlyRate: 30},
		plan:     &models.ContractMonthlyPlan{ContractID: 2, Year: 2026, Month: 9, PlannedUnits: 2},
	}
	existing := models.Lesson{
		ID:              11,
		TutorID:         1,
		ContractID:      2,
		StartsAt:        at(8, 0).AddDate(0, 0, -3),
		DurationMinutes: 90,
		Status:          models.LessonStatusPlanned,
	}
	service := newConflictFixture(&stubConflictLessonStore{inMonth: []models.Lesson{existing}}, nil, contracts)

	// 90 min at 45 min units is 2 units; together with the existing 2
	// units the month holds 4 against a quota of 2.
	lesson := &models.Lesson{
		TutorID:         1,
		ContractID:      2,
		StartsAt:        at(14, 0),
		DurationMinutes: 90,
		Status:          models.LessonStatusPlanned,
	}
	conflicts, err := service.CheckConflicts(context.Background(), lesson, false)
	if err != nil {
		t.Fatalf("CheckConflicts: %v", err)
	}
	if len(conflicts) != 1 {
		t.Fatalf("expected quota conflict, got %d", len(conflicts))
	}
	quota := conflicts[0].Quota
	if quota == nil {
		t.Fatalf("expected quota payload")
	}
	if quota.ActualUnits != 4 || quota.PlannedUnits != 2 {
		t.Errorf("expected 4 actual vs 2 planned units, got %d vs %d", quota.ActualUnits, quota.PlannedUnits)
	}
}

func TestCheckConflictsQuotaExactlyFullIsFine(t *testing.T) {
	contracts := &stubConflictContractStore{
		contract: &models.Contract{ID: 2, TutorID: 1, UnitDurationMinutes: 45},
		plan:     &models.ContractMonthlyPlan{ContractID: 2, Year: 2026, Month: 9, PlannedUnits: 2},
	}
	service := newConflictFixture(&stubConflictLessonStore{}, nil, contracts)

	// A single 90 minute lesson is exactly the 2 planned units.
	lesson := &models.Lesson{
		TutorID:         1,
		ContractID:      2,
		StartsAt:        at(14, 0),
		DurationMinutes: 90,
		Status:          models.LessonStatusPlanned,
	}
	conflicts, err := service.CheckConflicts(context.Background(), lesson, false)
	if err != nil {
		t.Fatalf("CheckConflicts: %v", err)
	}
	if len(conflicts) != 0 {
		t.Fatalf("filling the quota exactly must not conflict, got %d conflicts", len(conflicts))
	}
}

func TestCheckConflictsQuotaIgnoresCancelled(t *testing.T) {
	contracts := &stubConflictContractStore{
		contract: &models.Contract{ID: 2, TutorID: 1, UnitDurationMinutes: 60},
		plan:     &models.ContractMonthlyPlan{ContractID: 2, Year: 2026, Month: 9, PlannedUnits: 1},
	}
	service := newConflictFixture(&stubConflictLessonStore{}, nil, contracts)

	lesson := &models.Lesson{
		TutorID:         1,
		ContractID:      2,
		StartsAt:        at(14, 0),
		DurationMinutes: 120,
		Status:          models.LessonStatusCancelled,
	}
	conflicts, err := service.CheckConflicts(context.Background(), lesson, false)
	if err != nil {
		t.Fatalf("CheckConflicts: %v", err)
	}
	if len(conflicts) != 0 {
		t.Fatalf("cancelled lesson must not trigger quota, got %d conflicts", len(conflicts))
	}
}

func TestCheckConflictsNoPlanMeansNoQuota(t *testing.T) {
	contracts := &stubConflictContractStore{
		contract: &models.Contract{ID: 2, TutorID: 1, UnitDurationMinutes: 60},
	}
	service := newConflictFixture(&stubConflictLessonStore{}, nil, contracts)

	lesson := &models.Lesson{
		TutorID:         1,
		ContractID:      2,
		StartsAt:        at(14, 0),
		DurationMinutes: 600,
		Status:          models.LessonStatusPlanned,
	}
	conflicts, err := service.CheckConflicts(context.Background(), lesson, false)
	if err != nil {
		t.Fatalf("CheckConflicts: %v", err)
	}
	if len(conflicts) != 0 {
		t.Fatalf("missing monthly plan must not trigger quota, got %d conflicts", len(conflicts))
	}
}

func TestCheckConflictsOrdering(t *testing.T) {
	other := models.Lesson{
		ID:              7,
		TutorID:         1,
		StartsAt:        at(10, 0),
		DurationMinutes: 60,
		Status:          models.LessonStatusPlanned,
	}
	blocked := models.BlockedTime{
		ID:       3,
		TutorID:  1,
		Title:    "Blocked",
		StartsAt: at(10, 0),
		EndsAt:   at(11, 0),
	}
	contracts := &stubConflictContractStore{
		contract: &models.Contract{ID: 2, TutorID: 1, UnitDurationMinutes: 60},
		plan:     &models.ContractMonthlyPlan{ContractID: 2, Year: 2026, Month: 9, PlannedUnits: 0},
	}
	service := newConflictFixture(
		&stubConflictLessonStore{nearDay: []models.Lesson{other}},
		&stubConflictBlockedTimeStore{blocks: []models.BlockedTime{blocked}},
		contracts,
	)

	lesson := &models.Lesson{
		TutorID:         1,
		ContractID:      2,
		StartsAt:        at(10, 30),
		DurationMinutes: 60,
		Status:          models.LessonStatusPlanned,
	}
	conflicts, err := service.CheckConflicts(context.Background(), lesson, false)
	if err != nil {
		t.Fatalf("CheckConflicts: %v", err)
	}
	if len(conflicts) != 2 {
		t.Fatalf("expected lesson and blocked time conflicts, got %d", len(conflicts))
	}
	if conflicts[0].Type != ConflictTypeLesson || conflicts[1].Type != ConflictTypeBlockedTime {
		t.Errorf("expected lesson conflicts before blocked time conflicts, got %s then %s",
			conflicts[0].Type, conflicts[1].Type)
	}
}

func TestUnitsFor(t *testing.T) {
	tests := []struct {
		duration, unit, want int
	}{
		{45, 45, 1},
		{46, 45, 2},
		{90, 45, 2},
		{90, 60, 2},
		{30, 60, 1},
		{60, 0, 0},
	}
	for _, tt := range tests {
		if got := unitsFor(tt.duration, tt.unit); got != tt.want {
			t.Errorf("unitsFor(%d, %d) = %d, want %d", tt.duration, tt.unit, got, tt.want)
		}
	}
}
