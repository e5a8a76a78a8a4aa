package cloudinstancewaitplugin

import (
	"context"
	"fmt"
	"time"

	"github.com/alexisbeaulieu97/ovhkit/internal/config"
	"github.com/alexisbeaulieu97/ovhkit/internal/model"
	"github.com/alexisbeaulieu97/ovhkit/internal/ovhapi"
	"github.com/alexisbeaulieu97/ovhkit/internal/plugin"
	"github.com/alexisbeaulieu97/ovhkit/internal/plugins/pluginutil"
)

const (
	moduleType = "cloud_instance_wait"

	defaultMaxRetry = 30
	defaultSleep    = 20 * time.Second
)

type params struct {
	ServiceName  string `yaml:"service_name" validate:"required"`
	InstanceID   string `yaml:"instance_id,omitempty" validate:"required_without=InstanceName"`
	InstanceName string `yaml:"instance_name,omitempty" validate:"excluded_with=InstanceID"`
	Region       string `yaml:"region,omitempty" validate:"required_with=InstanceName"`
	TargetStatus string `yaml:"target_status,omitempty" validate:"omitempty,uppercase"`

	pluginutil.WaitParams `yaml:",inline"`
}

func (p *params) ref() pluginutil.CloudRef {
	return pluginutil.CloudRef{ID: p.InstanceID, Name: p.InstanceName, Region: p.Region}
}

func (p *params) target() string {
	if p.TargetStatus == "" {
		return "ACTIVE"
	}
	return p.TargetStatus
}

type instance struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Status    string `json:"status"`
	IPAddress []struct {
		IP      string `json:"ip"`
		Type    string `json:"type"`
		Version int    `json:"version"`
	} `json:"ipAddresses,omitempty"`
}

type instanceWaitPlugin struct{}

// New creates the cloud_instance_wait module.
func New() plugin.Plugin {
	return &instanceWaitPlugin{}
}

func init() {
	plugin.MustRegister(moduleType, New())
}

func (p *instanceWaitPlugin) PluginMetadata() plugin.PluginMetadata {
	meta := pluginutil.Metadata(moduleType, "Waits for a public cloud instance, given by id or by name and region, to reach a status.")
	meta.Waits = true
	return meta
}

func (p *instanceWaitPlugin) Schema() any {
	return params{}
}

func (p *instanceWaitPlugin) Evaluate(ctx context.Context, step *config.Step) (*model.EvaluationResult, error) {
	cfg, err := pluginutil.Decode[params](step)
	if err != nil {
		return nil, err
	}
	client, err := pluginutil.Client(ctx, step.ID)
	if err != nil {
		return nil, err
	}

	id, err := pluginutil.ResolveCloudID(ctx, client, cfg.ServiceName, "instance", cfg.ref())
	if err != nil {
		return nil, pluginutil.ReadError(step.ID, err)
	}

	w := &waiter{client: client, params: cfg, id: id}
	done, status, err := w.check(ctx, 1)
	if err != nil {
		return nil, pluginutil.ReadError(step.ID, err)
	}
	return pluginutil.WaitEvaluation(step.ID, done, status, w), nil
}

func (p *instanceWaitPlugin) Apply(ctx context.Context, evalResult *model.EvaluationResult, step *config.Step) (*model.StepResult, error) {
	w, ok := evalResult.InternalData.(*waiter)
	if !ok {
		return nil, plugin.NewExecutionError(step.ID, fmt.Errorf("evaluation carries no instance"))
	}
	poller := w.params.Poller(defaultMaxRetry, defaultSleep)
	return pluginutil.Wait(ctx, step.ID, poller, w.status, w.check, func() any { return w.last })
}

type waiter struct {
	client *ovhapi.Client
	params *params
	id     string
	last   instance
	status string
}

func (w *waiter) check(ctx context.Context, _ int) (bool, string, error) {
	p := w.params
	var inst instance
	if err := w.client.Get(ctx, ovhapi.Path("/cloud/project/%s/instance/%s", p.ServiceName, w.id), nil, &inst); err != nil {
		return false, "", err
	}
	w.last = inst

	status := fmt.Sprintf("instance %s is %s", p.ref().Label(), inst.Status)
	w.status = status
	switch {
	case inst.Status == p.target():
		return true, status, nil
	case inst.Status == "ERROR":
		return false, status, fmt.Errorf("%s", status)
	}
	return false, status, nil
}
