package model

// EvaluationResult contains the result of evaluating a step's observed remote
// state against its desired state. It is returned by Plugin.Evaluate() and
// passed to Plugin.Apply() when action is required.
type EvaluationResult struct {
	// StepID is the unique identifier of the evaluated step
	StepID string

	// CurrentState is Satisfied, Missing, Drifted, Blocked or Unknown
	CurrentState VerificationStatus

	// RequiresAction indicates whether Apply() should be called
	RequiresAction bool

	// Message explains what was found, or what a dry run would do
	Message string

	// Diff is an optional observed/desired preview for dry runs
	Diff string

	// InternalData is opaque data passed from Evaluate() to Apply(),
	// usually the reconcile plan computed from the GET responses
	InternalData any
}
