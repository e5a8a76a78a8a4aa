package servertaskwaitplugin

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/alexisbeaulieu97/ovhkit/internal/config"
	"github.com/alexisbeaulieu97/ovhkit/internal/model"
	"github.com/alexisbeaulieu97/ovhkit/internal/ovhapi"
	"github.com/alexisbeaulieu97/ovhkit/internal/plugin"
	"github.com/alexisbeaulieu97/ovhkit/internal/plugins/pluginutil"
)

const (
	moduleType = "dedicated_server_task_wait"

	defaultMaxRetry = 240
	defaultSleep    = 10 * time.Second
)

// failedStatuses end a task without success.
var failedStatuses = []string{"cancelled", "customerError", "ovhError"}

type params struct {
	ServiceName string `yaml:"service_name" validate:"required"`
	// Function selects the latest task of that kind when TaskID is unset.
	Function string `yaml:"function,omitempty" validate:"omitempty,alphanum"`
	TaskID   int64  `yaml:"task_id,omitempty" validate:"omitempty,min=1"`

	pluginutil.WaitParams `yaml:",inline"`
}

func (p *params) function() string {
	if p.Function == "" {
		return "reinstallServer"
	}
	return p.Function
}

type task struct {
	TaskID   int64  `json:"taskId"`
	Function string `json:"function"`
	Status   string `json:"status"`
	Comment  string `json:"comment,omitempty"`
}

type installStatus struct {
	Progress []struct {
		Comment string `json:"comment"`
		Status  string `json:"status"`
	} `json:"progress"`
}

type taskWaitPlugin struct{}

// New creates the dedicated_server_task_wait module.
func New() plugin.Plugin {
	return &taskWaitPlugin{}
}

func init() {
	plugin.MustRegister(moduleType, New())
}

func (p *taskWaitPlugin) PluginMetadata() plugin.PluginMetadata {
	meta := pluginutil.Metadata(moduleType, "Waits for the latest task of a dedicated server, such as an install or a hard reboot, to finish.")
	meta.Waits = true
	return meta
}

func (p *taskWaitPlugin) Schema() any {
	return params{}
}

func (p *taskWaitPlugin) Evaluate(ctx context.Context, step *config.Step) (*model.EvaluationResult, error) {
	cfg, err := pluginutil.Decode[params](step)
	if err != nil {
		return nil, err
	}
	client, err := pluginutil.Client(ctx, step.ID)
	if err != nil {
		return nil, err
	}

	w := &waiter{client: client, params: cfg}
	done, status, err := w.check(ctx, 1)
	if err != nil {
		return nil, pluginutil.ReadError(step.ID, err)
	}
	return pluginutil.WaitEvaluation(step.ID, done, status, w), nil
}

func (p *taskWaitPlugin) Apply(ctx context.Context, evalResult *model.EvaluationResult, step *config.Step) (*model.StepResult, error) {
	w, ok := evalResult.InternalData.(*waiter)
	if !ok {
		return nil, plugin.NewExecutionError(step.ID, fmt.Errorf("evaluation carries no task"))
	}
	poller := w.params.Poller(defaultMaxRetry, defaultSleep)
	return pluginutil.Wait(ctx, step.ID, poller, w.status, w.check, func() any { return w.last })
}

type waiter struct {
	client *ovhapi.Client
	params *params
	last   task
	status string
}

func (w *waiter) check(ctx context.Context, _ int) (bool, string, error) {
	t, err := w.latestTask(ctx)
	if err != nil {
		return false, "", err
	}
	w.last = t

	switch {
	case t.Status == "done":
		return true, fmt.Sprintf("%s task %d: done", t.Function, t.TaskID), nil
	case slices.Contains(failedStatuses, t.Status):
		status := fmt.Sprintf("%s task %d: %s", t.Function, t.TaskID, t.Status)
		if t.Comment != "" {
			status += " (" + t.Comment + ")"
		}
		return false, status, fmt.Errorf("%s", status)
	}

	status := fmt.Sprintf("%s task %d: %s", t.Function, t.TaskID, t.Status)
	if t.Function == "reinstallServer" {
		if comment := w.installProgress(ctx); comment != "" {
			status += ", " + comment
		}
	}
	w.status = status
	return false, status, nil
}

func (w *waiter) latestTask(ctx context.Context) (task, error) {
	p := w.params
	id := p.TaskID
	if id == 0 {
		var ids []int64
		if err := w.client.Get(ctx, ovhapi.Path("/dedicated/server/%s/task", p.ServiceName), ovhapi.Params{"function": p.function()}, &ids); err != nil {
			return task{}, err
		}
		if len(ids) == 0 {
			return task{}, fmt.Errorf("no %s task found on %s", p.function(), p.ServiceName)
		}
		id = slices.Max(ids)
	}

	var t task
	if err := w.client.Get(ctx, ovhapi.Path("/dedicated/server/%s/task/%s", p.ServiceName, fmt.Sprint(id)), nil, &t); err != nil {
		return task{}, err
	}
	return t, nil
}

// installProgress returns the comment of the install step being processed.
// A missing status only means the install has not started or is over.
func (w *waiter) installProgress(ctx context.Context) string {
	status, err := ovhapi.Lookup[installStatus](ctx, w.client, ovhapi.Path("/dedicated/server/%s/install/status", w.params.ServiceName), nil)
	if err != nil || !status.Found {
		return ""
	}
	for _, step := range status.Value.Progress {
		if step.Status == "doing" {
			return step.Comment
		}
	}
	return ""
}
