package model

import "time"

// VerificationStatus classifies a step's remote resource relative to its desired state.
type VerificationStatus string

const (
	StatusSatisfied VerificationStatus = "satisfied"
	StatusMissing   VerificationStatus = "missing"
	StatusDrifted   VerificationStatus = "drifted"
	StatusBlocked   VerificationStatus = "blocked"
	StatusUnknown   VerificationStatus = "unknown"
)

// IsValid reports whether the status is one of the known values.
func (s VerificationStatus) IsValid() bool {
	switch s {
	case StatusSatisfied, StatusMissing, StatusDrifted, StatusBlocked, StatusUnknown:
		return true
	default:
		return false
	}
}

// VerificationResult is the read-only outcome of evaluating one step.
type VerificationResult struct {
	StepID    string
	Status    VerificationStatus
	Message   string
	Details   string
	Error     error
	Duration  time.Duration
	Timestamp time.Time
}

// VerificationSummary aggregates the verification of a whole playbook.
type VerificationSummary struct {
	TotalSteps int
	Satisfied  int
	Missing    int
	Drifted    int
	Blocked    int
	Unknown    int
	Duration   time.Duration
	Results    []*VerificationResult
}

// Add appends a result and bumps the matching counter.
func (s *VerificationSummary) Add(result *VerificationResult) {
	s.Results = append(s.Results, result)
	switch result.Status {
	case StatusSatisfied:
		s.Satisfied++
	case StatusMissing:
		s.Missing++
	case StatusDrifted:
		s.Drifted++
	case StatusBlocked:
		s.Blocked++
	default:
		s.Unknown++
	}
}

// AllSatisfied reports whether no step needs a change.
func (s *VerificationSummary) AllSatisfied() bool {
	return s.Satisfied == s.TotalSteps
}

// NeedsApply reports whether at least one step is not converged.
func (s *VerificationSummary) NeedsApply() bool {
	return s.Missing+s.Drifted+s.Blocked+s.Unknown > 0
}

// ExitCode maps the summary to the verify command's process exit status.
func (s *VerificationSummary) ExitCode() int {
	if s.NeedsApply() {
		return 1
	}
	return 0
}
