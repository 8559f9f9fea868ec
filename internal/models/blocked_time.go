package models

import "time"

// BlockedTime is a personal interval (university, another job, church)
// during which no lesson may be scheduled. Invariant: StartsAt < EndsAt.
type BlockedTime struct {
	ID               int64     `json:"id"`
	TutorID          int64     `json:"tutor_id"`
	Title            string    `json:"title"`
	Description      *string   `json:"description"`
	StartsAt         time.Time `json:"starts_at"`
	EndsAt           time.Time `json:"ends_at"`
	IsRecurring      bool      `json:"is_recurring"`
	RecurringPattern *string   `json:"recurring_pattern"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}
