package models

import "time"

const (
	LessonStatusPlanned   = "planned"
	LessonStatusTaught    = "taught"
	LessonStatusPaid      = "paid"
	LessonStatusCancelled = "cancelled"
)

type Lesson struct {
	ID                      int64     `json:"id"`
	TutorID                 int64     `json:"tutor_id"`
	ContractID              int64     `json:"contract_id"`
	StartsAt                time.Time `json:"starts_at"`
	DurationMinutes         int       `json:"duration_minutes"`
	TravelTimeBeforeMinutes int       `json:"travel_time_before_minutes"`
	TravelTimeAfterMinutes  int       `json:"travel_time_after_minutes"`
	Status                  string    `json:"status"`
	Notes                   *string   `json:"notes"`
	CreatedAt               time.Time `json:"created_at"`
	UpdatedAt               time.Time `json:"updated_at"`
}

// EndsAt is the scheduled end of the lesson itself. Travel time is
// excluded here: the lesson is over when teaching stops, not when the
// tutor gets home.
func (l *Lesson) EndsAt() time.Time {
	return l.StartsAt.Add(time.Duration(l.DurationMinutes) * time.Minute)
}

// TotalTimeMinutes is the full calendar footprint including travel.
func (l *Lesson) TotalTimeMinutes() int {
	return l.DurationMinutes + l.TravelTimeBeforeMinutes + l.TravelTimeAfterMinutes
}

// OccupiedInterval is the half-open [start, end) block the lesson takes
// on the tutor's calendar, travel buffers included.
func (l *Lesson) OccupiedInterval() (time.Time, time.Time) {
	start := l.StartsAt.Add(-time.Duration(l.TravelTimeBeforeMinutes) * time.Minute)
	end := l.EndsAt().Add(time.Duration(l.TravelTimeAfterMinutes) * time.Minute)
	return start, end
}

func IsValidLessonStatus(status string) bool {
	switch status {
	case LessonStatusPlanned, LessonStatusTaught, LessonStatusPaid, LessonStatusCancelled:
		return true
	}
	return false
}
