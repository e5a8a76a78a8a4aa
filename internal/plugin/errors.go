package plugin

import (
	"errors"
)

// PluginError is the base interface for all step errors. The executor uses it
// to attribute a failure to a step.
type PluginError interface {
	error
	StepID() string
	Unwrap() error
}

// ValidationError reports parameters rejected before any remote call.
type ValidationError struct {
	ID  string
	Err error
}

// NewValidationError creates a new ValidationError.
func NewValidationError(stepID string, err error) *ValidationError {
	return &ValidationError{ID: stepID, Err: err}
}

func (e *ValidationError) Error() string {
	if e.Err == nil {
		return "validation error in step " + e.ID
	}
	return "validation error in step " + e.ID + ": " + e.Err.Error()
}

// StepID returns the identifier of the step where the error occurred.
func (e *ValidationError) StepID() string { return e.ID }

// Unwrap returns the underlying validation error.
func (e *ValidationError) Unwrap() error { return e.Err }

// Is matches any ValidationError.
func (e *ValidationError) Is(target error) bool {
	_, ok := target.(*ValidationError)
	return ok
}

// ExecutionError reports a failed mutating call or a failed wait.
type ExecutionError struct {
	ID  string
	Err error
}

// NewExecutionError creates a new ExecutionError.
func NewExecutionError(stepID string, err error) *ExecutionError {
	return &ExecutionError{ID: stepID, Err: err}
}

func (e *ExecutionError) Error() string {
	if e.Err == nil {
		return "execution error in step " + e.ID
	}
	return "execution error in step " + e.ID + ": " + e.Err.Error()
}

// StepID returns the identifier of the step where the error occurred.
func (e *ExecutionError) StepID() string { return e.ID }

// Unwrap returns the underlying error.
func (e *ExecutionError) Unwrap() error { return e.Err }

// Is matches any ExecutionError.
func (e *ExecutionError) Is(target error) bool {
	_, ok := target.(*ExecutionError)
	return ok
}

// StateError reports that the observed state could not be read or is
// inconsistent, for example an ambiguous match or a missing resource when
// the state is modified.
type StateError struct {
	ID  string
	Err error
}

// NewStateError creates a new StateError.
func NewStateError(stepID string, err error) *StateError {
	return &StateError{ID: stepID, Err: err}
}

func (e *StateError) Error() string {
	if e.Err == nil {
		return "state error in step " + e.ID
	}
	return "state error in step " + e.ID + ": " + e.Err.Error()
}

// StepID returns the identifier of the step where the error occurred.
func (e *StateError) StepID() string { return e.ID }

// Unwrap returns the underlying error.
func (e *StateError) Unwrap() error { return e.Err }

// Is matches any StateError.
func (e *StateError) Is(target error) bool {
	_, ok := target.(*StateError)
	return ok
}

// AsPluginError extracts the step error wrapped in err, if any.
func AsPluginError(err error) (PluginError, bool) {
	var pluginErr PluginError
	if errors.As(err, &pluginErr) {
		return pluginErr, true
	}
	return nil, false
}
