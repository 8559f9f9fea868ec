package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/andreaseirich/tutorflow-sub001/internal/models"
)

type ConflictType string

const (
	ConflictTypeLesson      ConflictType = "lesson"
	ConflictTypeBlockedTime ConflictType = "blocked_time"
	ConflictTypeQuota       ConflictType = "quota"
)

// QuotaStatus reports a contract month whose scheduled units exceed the
// planned quota.
type QuotaStatus struct {
	ContractID   int64 `json:"contract_id"`
	Year         int   `json:"year"`
	Month        int   `json:"month"`
	PlannedUnits int   `json:"planned_units"`
	ActualUnits  int   `json:"actual_units"`
}

// Conflict is one detected scheduling conflict. Type selects which of
// the payload fields is set.
type Conflict struct {
	Type        ConflictType        `json:"type"`
	Message     string              `json:"message"`
	Lesson      *models.Lesson      `json:"lesson,omitempty"`
	BlockedTime *models.BlockedTime `json:"blocked_time,omitempty"`
	Quota       *QuotaStatus        `json:"quota,omitempty"`
}

type conflictLessonStore interface {
	ListNearDay(ctx context.Context, tutorID int64, day time.Time) ([]models.Lesson, error)
	ListByContractBetween(ctx context.Context, contractID int64, from, to time.Time) ([]models.Lesson, error)
}

type conflictBlockedTimeStore interface {
	ListOverlapping(ctx context.Context, tutorID int64, start, end time.Time) ([]models.BlockedTime, error)
}

type conflictContractStore interface {
	GetByID(ctx context.Context, tutorID, contractID int64) (*models.Contract, error)
	GetMonthlyPlan(ctx context.Context, contractID int64, year, month int) (*models.ContractMonthlyPlan, error)
}

// ConflictService detects overlaps between a lesson and other lessons,
// blocked times, and contract monthly quotas. It performs no writes;
// callers that need check-then-write atomicity bind it to their own
// transaction.
type ConflictService struct {
	lessons      conflictLessonStore
	blockedTimes conflictBlockedTimeStore
	contracts    conflictContractStore
}

func NewConflictService(
	lessons conflictLessonStore,
	blockedTimes conflictBlockedTimeStore,
	contracts conflictContractStore,
) *ConflictService {
	return &ConflictService{
		lessons:      lessons,
		blockedTimes: blockedTimes,
		contracts:    contracts,
	}
}

// CheckConflicts returns all conflicts for the lesson: overlapping
// lessons first, then overlapping blocked times, then at most one quota
// conflict. excludeSelf skips the lesson's own stored row when checking
// an already-persisted lesson.
func (s *ConflictService) CheckConflicts(ctx context.Context, lesson *models.Lesson, excludeSelf bool) ([]Conflict, error) {
	conflicts := make([]Conflict, 0)

	start, end := lesson.OccupiedInterval()

	candidates, err := s.lessons.ListNearDay(ctx, lesson.TutorID, lesson.StartsAt)
	if err != nil {
		return nil, err
	}
	for i := range candidates {
		other := candidates[i]
		if excludeSelf && lesson.ID != 0 && other.ID == lesson.ID {
			continue
		}
		otherStart, otherEnd := other.OccupiedInterval()
		if intervalsOverlap(start, end, otherStart, otherEnd) {
			conflicts = append(conflicts, Conflict{
				Type:    ConflictTypeLesson,
				Message: fmt.Sprintf("Overlap with lesson at %s", other.StartsAt.Format("2006-01-02 15:04")),
				Lesson:  &other,
			})
		}
	}

	blocks, err := s.blockedTimes.ListOverlapping(ctx, lesson.TutorID, start, end)
	if err != nil {
		return nil, err
	}
	for i := range blocks {
		blocked := blocks[i]
		if intervalsOverlap(start, end, blocked.StartsAt, blocked.EndsAt) {
			conflicts = append(conflicts, Conflict{
				Type:        ConflictTypeBlockedTime,
				Message:     fmt.Sprintf("Overlap with blocked time: %s", blocked.Title),
				BlockedTime: &blocked,
			})
		}
	}

	quota, err := s.checkQuota(ctx, lesson)
	if err != nil {
		return nil, err
	}
	if quota != nil {
		conflicts = append(conflicts, Conflict{
			Type: ConflictTypeQuota,
			Message: fmt.Sprintf(
				"Contract quota exceeded for %02d/%d: %d units planned, %d scheduled",
				quota.Month, quota.Year, quota.PlannedUnits, quota.ActualUnits,
			),
			Quota: quota,
		})
	}

	return conflicts, nil
}

// HasConflicts is the boolean shorthand for CheckConflicts.
func (s *ConflictService) HasConflicts(ctx context.Context, lesson *models.Lesson, excludeSelf bool) (bool, error) {
	conflicts, err := s.CheckConflicts(ctx, lesson, excludeSelf)
	if err != nil {
		return false, err
	}
	return len(conflicts) > 0, nil
}

// checkQuota compares the ceil-rounded unit total of the contract's
// non-cancelled lessons in the target month against the monthly plan.
// A missing contract or plan means no quota can be exceeded.
func (s *ConflictService) checkQuota(ctx context.Context, lesson *models.Lesson) (*QuotaStatus, error) {
	contract, err := s.contracts.GetByID(ctx, lesson.TutorID, lesson.ContractID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	year := lesson.StartsAt.Year()
	month := int(lesson.StartsAt.Month())

	plan, err := s.contracts.GetMonthlyPlan(ctx, contract.ID, year, month)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	if plan.PlannedUnits <= 0 {
		return nil, nil
	}

	monthStart, monthEnd := monthBounds(lesson.StartsAt)
	others, err := s.lessons.ListByContractBetween(ctx, contract.ID, monthStart, monthEnd)
	if err != nil {
		return nil, err
	}

	actualUnits := 0
	if lesson.Status != models.LessonStatusCancelled {
		actualUnits += unitsFor(lesson.DurationMinutes, contract.UnitDurationMinutes)
	}
	for i := range others {
		// The target's stored row is always counted through the lesson
		// itself, never twice.
		if lesson.ID != 0 && others[i].ID == lesson.ID {
			continue
		}
		actualUnits += unitsFor(others[i].DurationMinutes, contract.UnitDurationMinutes)
	}

	if actualUnits <= plan.PlannedUnits {
		return nil, nil
	}
	return &QuotaStatus{
		ContractID:   contract.ID,
		Year:         year,
		Month:        month,
		PlannedUnits: plan.PlannedUnits,
		ActualUnits:  actualUnits,
	}, nil
}

// intervalsOverlap reports whether two half-open intervals share any
// instant: startA < endB && startB < endA.
func intervalsOverlap(start1, end1, start2, end2 time.Time) bool {
	return end1.After(start2) && start1.Before(end2)
}

// unitsFor rounds a lesson duration up to whole billing units: a
// 90-minute lesson against a 60-minute unit counts as 2.
func unitsFor(durationMinutes, unitDurationMinutes int) int {
	if unitDurationMinutes <= 0 {
		return 0
	}
	return (durationMinutes + unitDurationMinutes - 1) / unitDurationMinutes
}

func monthBounds(t time.Time) (time.Time, time.Time) {
	start := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
	return start, start.AddDate(0, 1, 0)
}
