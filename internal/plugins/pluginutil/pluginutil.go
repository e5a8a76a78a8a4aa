// Package pluginutil holds the glue shared by the resource modules: decoding
// parameters, fetching the API client and running reconcile plans.
package pluginutil

import (
	"context"
	"errors"
	"fmt"

	"github.com/alexisbeaulieu97/ovhkit/internal/config"
	"github.com/alexisbeaulieu97/ovhkit/internal/model"
	"github.com/alexisbeaulieu97/ovhkit/internal/ovhapi"
	"github.com/alexisbeaulieu97/ovhkit/internal/plugin"
	"github.com/alexisbeaulieu97/ovhkit/internal/reconcile"
)

// Validator is implemented by parameter structs with cross-field rules the
// struct tags cannot express.
type Validator interface {
	Validate() error
}

// PlanFunc reads the remote state with GET requests only and returns the
// calls needed to converge it.
type PlanFunc[P any] func(ctx context.Context, client *ovhapi.Client, params *P) (*reconcile.Plan, error)

// Metadata returns the metadata shared by every module at this version.
func Metadata(name, description string) plugin.PluginMetadata {
	return plugin.PluginMetadata{
		Name:        name,
		Version:     "1.0.0",
		APIVersion:  "1.x",
		Description: description,
	}
}

// Decode decodes and validates the step parameters into a fresh P.
func Decode[P any](step *config.Step) (*P, error) {
	params := new(P)
	if err := plugin.DecodeParams(step, params); err != nil {
		return nil, err
	}
	if v, ok := any(params).(Validator); ok {
		if err := v.Validate(); err != nil {
			return nil, plugin.NewValidationError(step.ID, err)
		}
	}
	return params, nil
}

// Client returns the API client carried by ctx.
func Client(ctx context.Context, stepID string) (*ovhapi.Client, error) {
	client, err := ovhapi.FromContext(ctx)
	if err != nil {
		return nil, plugin.NewExecutionError(stepID, err)
	}
	return client, nil
}

// Evaluate decodes the parameters, then runs plan against the remote API and
// turns its result into an evaluation.
func Evaluate[P any](ctx context.Context, step *config.Step, plan PlanFunc[P]) (*model.EvaluationResult, error) {
	params, err := Decode[P](step)
	if err != nil {
		return nil, err
	}
	client, err := Client(ctx, step.ID)
	if err != nil {
		return nil, err
	}

	p, err := plan(ctx, client, params)
	if err != nil {
		return nil, ReadError(step.ID, err)
	}
	return p.Evaluation(step.ID), nil
}

// Apply runs the plan stored in evalResult.
func Apply(ctx context.Context, evalResult *model.EvaluationResult, step *config.Step) (*model.StepResult, error) {
	p, ok := reconcile.PlanFrom(evalResult)
	if !ok {
		return nil, plugin.NewExecutionError(step.ID, fmt.Errorf("evaluation carries no plan"))
	}
	client, err := Client(ctx, step.ID)
	if err != nil {
		return nil, err
	}

	outcome, err := reconcile.Apply(ctx, client, p)
	if err != nil {
		return nil, plugin.NewExecutionError(step.ID, err)
	}
	return outcome.StepResult(step.ID), nil
}

// ReadError classifies an error raised while reading remote state. Errors
// that are already step errors pass through.
func ReadError(stepID string, err error) error {
	if err == nil {
		return nil
	}
	if _, ok := plugin.AsPluginError(err); ok {
		return err
	}

	var (
		ambiguous *reconcile.AmbiguousError
		missing   *reconcile.MissingForModifyError
	)
	if errors.As(err, &ambiguous) || errors.As(err, &missing) {
		return plugin.NewStateError(stepID, err)
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return plugin.NewExecutionError(stepID, err)
	}
	return plugin.NewStateError(stepID, err)
}

// Refuse builds the error a module returns when the observed state forbids
// the requested change, for example deleting a running instance.
func Refuse(format string, args ...any) error {
	return &RefusedError{msg: fmt.Sprintf(format, args...)}
}

// RefusedError is returned by Refuse.
type RefusedError struct {
	msg string
}

func (e *RefusedError) Error() string { return e.msg }
