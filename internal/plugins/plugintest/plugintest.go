// Package plugintest runs modules against the in-memory API the way the
// engine does, for module tests.
package plugintest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/alexisbeaulieu97/ovhkit/internal/config"
	"github.com/alexisbeaulieu97/ovhkit/internal/model"
	"github.com/alexisbeaulieu97/ovhkit/internal/ovhapi/ovhapitest"
	"github.com/alexisbeaulieu97/ovhkit/internal/plugin"
)

// Step builds a step of type typ carrying params.
func Step(t testing.TB, typ string, params map[string]any) *config.Step {
	t.Helper()
	step := &config.Step{ID: "under_test", Type: typ, Enabled: true}
	require.NoError(t, step.SetConfig(params))
	return step
}

// Run evaluates step and applies it when needed. A converged step yields a
// skipped result with the evaluation message.
func Run(ctx context.Context, p plugin.Plugin, step *config.Step) (*model.StepResult, error) {
	eval, err := p.Evaluate(ctx, step)
	if err != nil {
		return nil, err
	}
	if !eval.RequiresAction {
		return &model.StepResult{StepID: step.ID, Status: model.StatusSkipped, Message: eval.Message}, nil
	}
	return p.Apply(ctx, eval, step)
}

// MustRun is Run failing the test on error.
func MustRun(t testing.TB, fake *ovhapitest.Fake, p plugin.Plugin, step *config.Step) *model.StepResult {
	t.Helper()
	res, err := Run(fake.Context(context.Background()), p, step)
	require.NoError(t, err)
	return res
}

// Evaluate evaluates step against fake and asserts that no mutating call was issued.
func Evaluate(t testing.TB, fake *ovhapitest.Fake, p plugin.Plugin, step *config.Step) (*model.EvaluationResult, error) {
	t.Helper()
	before := len(fake.Mutations())
	eval, err := p.Evaluate(fake.Context(context.Background()), step)
	require.Len(t, fake.Mutations(), before, "Evaluate must only read")
	return eval, err
}
