package feature

import (
	"errors"
	"fmt"
)

// Common errors returned by the registry and scanner.
var (
	// ErrStepNotRegistered is returned when a discovered step file names a
	// function that was never registered.
	ErrStepNotRegistered = errors.New("step function not registered")

	// ErrTaskNotRegistered is returned when a discovered async-task file
	// names a function that was never registered.
	ErrTaskNotRegistered = errors.New("async task function not registered")

	// ErrHookNotRegistered is returned when an override file names an
	// error hook or initializer that was never registered.
	ErrHookNotRegistered = errors.New("hook function not registered")
)

// Error wraps a failure raised by a step. The original error is kept
// verbatim rather than copied or stringified, so that custom fields on
// domain errors (codes, validation maps) remain reachable through
// errors.As and through structural inspection.
type Error struct {
	// Message describes the failure.
	Message string

	// Original is the error the step returned, preserved as-is.
	Original error

	// Step is the descriptor that was active when the failure occurred.
	// Nil when the context initializer failed before any step ran.
	Step *StepDescriptor

	// ContextSnapshot captures the Context values at failure time.
	ContextSnapshot map[string]any

	// StatusCode is the HTTP status resolved from the original error,
	// defaulting to 500 when none was discoverable.
	StatusCode int
}

// WrapStepError builds an Error for a failure in the given step.
func WrapStepError(original error, step *StepDescriptor, fc *Context, status int) *Error {
	msg := "step failed"
	if step != nil {
		msg = fmt.Sprintf("step %d-%s failed", step.Order, step.Name)
	}
	var snapshot map[string]any
	if fc != nil {
		snapshot = fc.Snapshot()
	}
	return &Error{
		Message:         msg,
		Original:        original,
		Step:            step,
		ContextSnapshot: snapshot,
		StatusCode:      status,
	}
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Original != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Original)
	}
	return e.Message
}

// Unwrap exposes the original error to errors.Is and errors.As.
func (e *Error) Unwrap() error {
	return e.Original
}
