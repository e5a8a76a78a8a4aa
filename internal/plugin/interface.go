// Package plugin defines the contract every ovhkit module implements and the
// registry the engine resolves step types through.
package plugin

import (
	"context"

	"github.com/alexisbeaulieu97/ovhkit/internal/config"
	"github.com/alexisbeaulieu97/ovhkit/internal/model"
)

// Plugin reconciles one kind of OVHcloud resource.
//
// Implementations should:
//   - Return identity via PluginMetadata()
//   - Provide the parameter struct via Schema()
//   - Implement a read-only comparison of observed and desired state via Evaluate()
//   - Implement the mutating calls via Apply()
type Plugin interface {
	// PluginMetadata returns the module identity.
	PluginMetadata() PluginMetadata

	// Schema returns a zero value of the parameter struct decoded from the step.
	Schema() any

	// Evaluate issues only GET requests. It decodes and validates the step
	// parameters, reads the remote state and reports whether Apply is needed.
	// Returned errors are ValidationError, StateError or ExecutionError.
	Evaluate(ctx context.Context, step *config.Step) (*model.EvaluationResult, error)

	// Apply is called by the engine only when Evaluate reported
	// RequiresAction. evalResult carries the plan computed by Evaluate in
	// InternalData. Mutating calls are never retried.
	Apply(ctx context.Context, evalResult *model.EvaluationResult, step *config.Step) (*model.StepResult, error)
}
