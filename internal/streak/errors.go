package streak

import (
	"errors"
	"fmt"
)

// ValidationError reports a start period that is inconsistent with the
// prior state. It is returned before any state is touched.
type ValidationError struct {
	// Code identifies the error category.
	Code ValidationErrorCode

	// Message is a human-readable description.
	Message string

	// StartPeriod is the requested start period.
	StartPeriod int

	// LastPeriod is the last period derived from the prior state.
	LastPeriod int
}

// ValidationErrorCode categorizes validation errors.
type ValidationErrorCode string

const (
	// ErrCodeStartPeriodInvalid indicates a non-positive start period, or a
	// start period other than 1 for a fresh state.
	ErrCodeStartPeriodInvalid ValidationErrorCode = "START_PERIOD_INVALID"

	// ErrCodeStartPeriodMismatch indicates a start period that neither
	// reprocesses nor extends the prior state's last period.
	ErrCodeStartPeriodMismatch ValidationErrorCode = "START_PERIOD_MISMATCH"
)

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s (start=%d, last=%d)", e.Code, e.Message, e.StartPeriod, e.LastPeriod)
}

// IsValidationError returns true if err is, or wraps, a ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// validateStartPeriod checks start against the prior last period.
// A zero start means the caller omitted it.
func validateStartPeriod(start, last int) error {
	switch {
	case start == 0:
		return nil
	case start < 0:
		return &ValidationError{
			Code:        ErrCodeStartPeriodInvalid,
			Message:     "start period must be positive",
			StartPeriod: start,
			LastPeriod:  last,
		}
	case last == 0 && start != 1:
		return &ValidationError{
			Code:        ErrCodeStartPeriodInvalid,
			Message:     "start period must be 1 for an empty state",
			StartPeriod: start,
			LastPeriod:  last,
		}
	case last > 0 && start != last && start != last+1:
		return &ValidationError{
			Code:        ErrCodeStartPeriodMismatch,
			Message:     fmt.Sprintf("start period must be %d (reprocess) or %d (extend)", last, last+1),
			StartPeriod: start,
			LastPeriod:  last,
		}
	}
	return nil
}
