package core

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when an operation references an unknown id.
	ErrNotFound = errors.New("not found")

	// ErrTypeInUse is returned when deleting a task type that is still
	// referenced by at least one imputation.
	ErrTypeInUse = errors.New("task type referenced by imputations")

	// ErrTaskInUse is returned when deleting a task that is still
	// referenced by at least one imputation.
	ErrTaskInUse = errors.New("task referenced by imputations")

	// ErrWeekLocked is returned when a non-approver writes to a locked week.
	ErrWeekLocked = errors.New("week is locked")

	// ErrForbidden is returned when the acting user lacks the required role.
	ErrForbidden = errors.New("approver role required")

	// ErrPermanentTask is returned when deactivating a permanent task.
	ErrPermanentTask = errors.New("permanent task cannot be deactivated")
)

// ValidationError reports a malformed field on a write. Malformed values
// are rejected at the boundary and never stored.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
