// Package apperr defines the error taxonomy of the approval workflow.
// Services wrap these sentinels with context; handlers map them to HTTP
// status codes with errors.Is.
package apperr

import "errors"

var (
	// ErrConflict: a pending inquiry already exists for the subject, or
	// the candidate is already a team member.
	ErrConflict = errors.New("conflict")
	// ErrNotFound: unknown inquiry id or user email.
	ErrNotFound = errors.New("not found")
	// ErrInvalidState: approve/reject on an inquiry that is not pending.
	ErrInvalidState = errors.New("invalid state")
	// ErrValidation: a required field is missing or malformed.
	ErrValidation = errors.New("validation failed")
)
