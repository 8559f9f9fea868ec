package services

import "errors"

var (
	ErrConflict               = errors.New("conflict")
	ErrInvalidStatus          = errors.New("invalid status")
	ErrInvalidStateTransition = errors.New("invalid state transition")
	ErrInvalidInput           = errors.New("invalid input")
	ErrContractNotFound       = errors.New("contract not found")
	ErrStudentNotFound        = errors.New("student not found")
	ErrNoBillableLessons      = errors.New("no billable lessons in period")
	ErrPlanGeneration         = errors.New("lesson plan generation failed")
)
