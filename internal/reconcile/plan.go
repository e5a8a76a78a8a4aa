package reconcile

import (
	"context"
	"strings"

	"github.com/alexisbeaulieu97/ovhkit/internal/model"
	"github.com/alexisbeaulieu97/ovhkit/internal/ovhapi"
)

// Call is one mutating request.
type Call struct {
	Method string
	Path   string
	Body   any
	// Summary describes the call for messages and dry-run output.
	Summary string
}

// Plan is the ordered set of mutations needed to converge a resource.
type Plan struct {
	Calls []Call
	// Commit calls run after Calls, only when at least one call ran.
	Commit []Call
	// Status is reported when Calls is not empty. Defaults to drifted.
	Status model.VerificationStatus
	// Converged is the message when nothing needs to change.
	Converged string
	// Applied is the message after the calls ran. Defaults to the summaries.
	Applied string
	Diff    string
	// Data is returned as the outcome payload when no call ran.
	Data any
}

// Add appends a mutating call.
func (p *Plan) Add(method, path string, body any, summary string) {
	p.Calls = append(p.Calls, Call{Method: method, Path: path, Body: body, Summary: summary})
}

// AddCommit appends a post-mutation call.
func (p *Plan) AddCommit(method, path string, body any, summary string) {
	p.Commit = append(p.Commit, Call{Method: method, Path: path, Body: body, Summary: summary})
}

// Empty reports whether the resource is already converged.
func (p *Plan) Empty() bool {
	return p == nil || len(p.Calls) == 0
}

// Describe joins the call summaries.
func (p *Plan) Describe() string {
	if p == nil {
		return ""
	}
	parts := make([]string, 0, len(p.Calls))
	for _, c := range p.Calls {
		if c.Summary != "" {
			parts = append(parts, c.Summary)
		}
	}
	return strings.Join(parts, "; ")
}

// Evaluation converts the plan into the engine's evaluation result. The
// plan travels to Apply in InternalData.
func (p *Plan) Evaluation(stepID string) *model.EvaluationResult {
	if p.Empty() {
		return &model.EvaluationResult{
			StepID:       stepID,
			CurrentState: model.StatusSatisfied,
			Message:      p.Converged,
			InternalData: p,
		}
	}

	status := p.Status
	if status == "" {
		status = model.StatusDrifted
	}
	return &model.EvaluationResult{
		StepID:         stepID,
		CurrentState:   status,
		RequiresAction: true,
		Message:        p.Describe(),
		Diff:           p.Diff,
		InternalData:   p,
	}
}

// Outcome is the result handed back to the caller.
type Outcome struct {
	Changed bool
	Message string
	Data    any
}

// StepResult converts the outcome into the engine result.
func (o Outcome) StepResult(stepID string) *model.StepResult {
	return &model.StepResult{
		StepID:  stepID,
		Status:  model.StatusSuccess,
		Changed: o.Changed,
		Message: o.Message,
		Data:    o.Data,
	}
}

// Apply issues the plan calls in order, then the commit calls. The first
// error aborts. Nothing is retried.
func Apply(ctx context.Context, client *ovhapi.Client, plan *Plan) (Outcome, error) {
	if plan.Empty() {
		var data any
		var message string
		if plan != nil {
			data, message = plan.Data, plan.Converged
		}
		return Outcome{Message: message, Data: data}, nil
	}

	var last any
	for _, call := range append(append([]Call(nil), plan.Calls...), plan.Commit...) {
		var out any
		if err := client.Call(ctx, call.Method, call.Path, call.Body, &out); err != nil {
			return Outcome{}, err
		}
		if out != nil {
			last = out
		}
	}

	message := plan.Applied
	if message == "" {
		message = plan.Describe()
	}
	return Outcome{Changed: true, Message: message, Data: last}, nil
}

// PlanFrom extracts the plan stored by Evaluation.
func PlanFrom(eval *model.EvaluationResult) (*Plan, bool) {
	if eval == nil {
		return nil, false
	}
	plan, ok := eval.InternalData.(*Plan)
	return plan, ok && plan != nil
}
