package pluginutil

import (
	"context"
	"time"

	"github.com/alexisbeaulieu97/ovhkit/internal/model"
	"github.com/alexisbeaulieu97/ovhkit/internal/plugin"
	"github.com/alexisbeaulieu97/ovhkit/internal/reconcile"
)

// WaitParams are the poll settings of the wait modules. Sleep is in seconds.
type WaitParams struct {
	MaxRetry int  `yaml:"max_retry,omitempty" validate:"omitempty,min=1,max=100000"`
	Sleep    *int `yaml:"sleep,omitempty" validate:"omitempty,min=0,max=3600"`
}

// Poller applies the module defaults to unset fields.
func (w WaitParams) Poller(defaultRetry int, defaultSleep time.Duration) reconcile.Poller {
	p := reconcile.Poller{MaxRetry: defaultRetry, Sleep: defaultSleep}
	if w.MaxRetry > 0 {
		p.MaxRetry = w.MaxRetry
	}
	if w.Sleep != nil {
		p.Sleep = time.Duration(*w.Sleep) * time.Second
	}
	return p
}

// WaitEvaluation reports a wait step as satisfied when the remote operation
// already reached its terminal status. Otherwise Apply has to poll.
func WaitEvaluation(stepID string, done bool, status string, state any) *model.EvaluationResult {
	if done {
		return &model.EvaluationResult{
			StepID:       stepID,
			CurrentState: model.StatusSatisfied,
			Message:      status,
			InternalData: state,
		}
	}
	return &model.EvaluationResult{
		StepID:         stepID,
		CurrentState:   model.StatusDrifted,
		RequiresAction: true,
		Message:        "waiting: " + status,
		InternalData:   state,
	}
}

// Wait polls check until it reports a terminal status. evaluated is the
// status read by Evaluate, which counts as the first check. data returns the
// payload of the result once polling is over. A wait never reports changed.
func Wait(ctx context.Context, stepID string, poller reconcile.Poller, evaluated string, check reconcile.Check, data func() any) (*model.StepResult, error) {
	status, err := poller.Resume(ctx, 1, evaluated, check)
	if err != nil {
		return nil, plugin.NewExecutionError(stepID, err)
	}

	var payload any
	if data != nil {
		payload = data()
	}
	return reconcile.Outcome{Message: status, Data: payload}.StepResult(stepID), nil
}
