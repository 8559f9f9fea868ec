package models

import (
	"strings"
	"time"
)

type Student struct {
	ID        int64     `json:"id"`
	TutorID   int64     `json:"tutor_id"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Email     *string   `json:"email"`
	Phone     *string   `json:"phone"`
	School    *string   `json:"school"`
	Grade     *string   `json:"grade"`
	Subjects  *string   `json:"subjects"`
	Notes     *string   `json:"notes"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (s *Student) FullName() string {
	return strings.TrimSpace(s.FirstName + " " + s.LastName)
}
