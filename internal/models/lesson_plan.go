package models

import "time"

// LessonPlan is an AI-generated lesson plan for a student, optionally
// tied to a concrete lesson.
type LessonPlan struct {
	ID              int64     `json:"id"`
	TutorID         int64     `json:"tutor_id"`
	StudentID       int64     `json:"student_id"`
	LessonID        *int64    `json:"lesson_id"`
	Topic           string    `json:"topic"`
	Subject         string    `json:"subject"`
	Content         string    `json:"content"`
	GradeLevel      *string   `json:"grade_level"`
	DurationMinutes *int      `json:"duration_minutes"`
	LLMModel        *string   `json:"llm_model"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}
