package service

import (
	"fmt"

	"github.com/Dan9191/stress-service/internal/repository"
)

// ErrNotFound is returned when a record does not exist for the user
var ErrNotFound = repository.ErrNotFound

// ValidationError reports a request that was rejected before any work was done
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// NewValidationError creates a validation error
func NewValidationError(message string) *ValidationError {
	return &ValidationError{Message: message}
}

// NewValidationErrorf creates a validation error with a formatted message
func NewValidationErrorf(format string, args ...interface{}) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}
