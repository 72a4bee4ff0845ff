package models

import (
	"errors"
	"fmt"
)

// Sentinel errors for common failure conditions
var (
	ErrNotFound       = errors.New("resource not found")
	ErrConflict       = errors.New("resource already exists")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrForbidden      = errors.New("forbidden")
	ErrBadRequest     = errors.New("bad request")
	ErrInternalServer = errors.New("internal server error")

	// Workflow errors
	ErrNotVerified   = errors.New("account is not verified")
	ErrInvalidStatus = errors.New("invalid status value")
	ErrStatusChanged = errors.New("status changed since last read")
)

// CascadeError reports a secondary write that failed after the primary
// status update was already committed. The system is left partially
// applied; callers log it distinctly instead of rolling back.
type CascadeError struct {
	Entity string
	ID     string
	Err    error
}

func (e *CascadeError) Error() string {
	return fmt.Sprintf("cascade update failed for %s %s: %v", e.Entity, e.ID, e.Err)
}

func (e *CascadeError) Unwrap() error {
	return e.Err
}
