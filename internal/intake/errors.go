package intake

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned for operations on a lead that does not exist
	ErrNotFound = errors.New("lead not found")
	// ErrWrongStep is returned when the calculator flow is driven out of order
	ErrWrongStep = errors.New("calculator flow is not at this step")
)

// ValidationError reports input rejected before anything was written
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

func invalid(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// PersistenceError wraps a failed database write
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("failed to %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}
