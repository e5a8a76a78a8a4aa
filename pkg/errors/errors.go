// Package errors defines the error types shared by the playbook loader, the
// engine and the CLI, and classifies them into the kinds the CLI reports.
package errors

import (
	"errors"
	"fmt"
)

// Kind groups errors by who has to act on them.
type Kind int

const (
	// KindUnknown is any error not built by this package.
	KindUnknown Kind = iota
	// KindParse is a playbook that could not be read or decoded.
	KindParse
	// KindValidation is a playbook or parameter rejected before any remote call.
	KindValidation
	// KindModule is a step type with no usable module.
	KindModule
	// KindExecution is a failure while reconciling remote state.
	KindExecution
)

func (k Kind) String() string {
	switch k {
	case KindParse:
		return "parse"
	case KindValidation:
		return "validation"
	case KindModule:
		return "module"
	case KindExecution:
		return "execution"
	default:
		return "unknown"
	}
}

// KindOf returns the kind of the outermost error of this package found in
// err's chain.
func KindOf(err error) Kind {
	for err != nil {
		switch err.(type) {
		case *ParseError:
			return KindParse
		case *ValidationError:
			return KindValidation
		case *PluginError:
			return KindModule
		case *ExecutionError:
			return KindExecution
		}
		err = errors.Unwrap(err)
	}
	return KindUnknown
}

// IsConfiguration reports whether err is fixed by editing the playbook
// rather than by retrying.
func IsConfiguration(err error) bool {
	switch KindOf(err) {
	case KindParse, KindValidation, KindModule:
		return true
	default:
		return false
	}
}

// ParseError is a playbook decoding failure. Line is 0 when unknown.
type ParseError struct {
	Path    string
	Line    int
	Message string
	Err     error
}

// NewParseError wraps err with the playbook location.
func NewParseError(path string, line int, err error) error {
	return &ParseError{Path: path, Line: line, Message: message(err), Err: err}
}

func (e *ParseError) Error() string {
	switch {
	case e == nil:
		return ""
	case e.Line > 0:
		return fmt.Sprintf("parse error: %s:%d: %s", e.Path, e.Line, e.Message)
	default:
		return fmt.Sprintf("parse error: %s: %s", e.Path, e.Message)
	}
}

func (e *ParseError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// ValidationError is a playbook field that was rejected before any remote call.
type ValidationError struct {
	Field   string
	Message string
	Err     error
}

// NewValidationError builds a ValidationError for field. err may be nil.
func NewValidationError(field, msg string, err error) error {
	return &ValidationError{Field: field, Message: msg, Err: err}
}

func (e *ValidationError) Error() string {
	switch {
	case e == nil:
		return ""
	case e.Field != "":
		return fmt.Sprintf("validation error: %s: %s", e.Field, e.Message)
	default:
		return "validation error: " + e.Message
	}
}

func (e *ValidationError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// ExecutionError is a failure while reconciling a step. StepID is empty for
// failures of the run itself.
type ExecutionError struct {
	StepID string
	Err    error
}

// NewExecutionError wraps err with the step it failed in.
func NewExecutionError(stepID string, err error) error {
	return &ExecutionError{StepID: stepID, Err: err}
}

func (e *ExecutionError) Error() string {
	switch {
	case e == nil:
		return ""
	case e.StepID != "":
		return fmt.Sprintf("execution error on step %s: %v", e.StepID, e.Err)
	default:
		return fmt.Sprintf("execution error: %v", e.Err)
	}
}

func (e *ExecutionError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// PluginError is a module that could not be registered or resolved.
type PluginError struct {
	Plugin  string
	Message string
	Err     error
}

// NewPluginError wraps err with the module type it concerns.
func NewPluginError(moduleType string, err error) error {
	return &PluginError{Plugin: moduleType, Message: message(err), Err: err}
}

func (e *PluginError) Error() string {
	switch {
	case e == nil:
		return ""
	case e.Plugin != "":
		return fmt.Sprintf("module error [%s]: %s", e.Plugin, e.Message)
	default:
		return "module error: " + e.Message
	}
}

func (e *PluginError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func message(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

