package model

import (
	"time"
)

const (
	// StatusPending indicates a step has not started yet.
	StatusPending = "pending"
	// StatusRunning indicates a step is actively executing.
	StatusRunning = "running"
	// StatusSuccess marks a successful step execution.
	StatusSuccess = "success"
	// StatusSkipped indicates the step was already converged or disabled.
	StatusSkipped = "skipped"
	// StatusFailed marks a failure during step execution.
	StatusFailed = "failed"
	// StatusWouldCreate indicates dry-run would create a remote resource.
	StatusWouldCreate = "would_create"
	// StatusWouldUpdate indicates dry-run would update or delete a remote resource.
	StatusWouldUpdate = "would_update"
)

// StepResult captures the outcome of executing a single step. Changed is the
// only signal the invoking runtime relies on; Status is for humans.
type StepResult struct {
	StepID    string
	Status    string
	Changed   bool
	Message   string
	Data      any
	Error     error
	Duration  time.Duration
	Timestamp time.Time
}

// IsTerminal reports whether the status ends the step's lifecycle.
func (r StepResult) IsTerminal() bool {
	switch r.Status {
	case StatusSuccess, StatusSkipped, StatusFailed, StatusWouldCreate, StatusWouldUpdate:
		return true
	default:
		return false
	}
}
