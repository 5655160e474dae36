package todos

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates the todo id is unknown
	ErrNotFound = errors.New("not found")
)

// ValidationError reports a missing or malformed input field
type ValidationError struct {
	Field  string
	Reason string // empty means the field is missing
}

func (e *ValidationError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("%s required", e.Field)
	}
	return fmt.Sprintf("%s %s", e.Field, e.Reason)
}

// IsValidationError checks if an error is a ValidationError
func IsValidationError(err error) bool {
	var validationErr *ValidationError
	return errors.As(err, &validationErr)
}
