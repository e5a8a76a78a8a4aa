package cloudinstancepowerplugin

import (
	"context"
	"fmt"
	"net/http"
	"slices"

	"github.com/alexisbeaulieu97/ovhkit/internal/config"
	"github.com/alexisbeaulieu97/ovhkit/internal/model"
	"github.com/alexisbeaulieu97/ovhkit/internal/ovhapi"
	"github.com/alexisbeaulieu97/ovhkit/internal/plugin"
	"github.com/alexisbeaulieu97/ovhkit/internal/plugins/pluginutil"
	"github.com/alexisbeaulieu97/ovhkit/internal/reconcile"
)

const moduleType = "cloud_instance_power"

// Stable instance statuses. Any other status is a transition.
const (
	statusActive           = "ACTIVE"
	statusShutoff          = "SHUTOFF"
	statusShelved          = "SHELVED"
	statusShelvedOffloaded = "SHELVED_OFFLOADED"
)

var shelvedStatuses = []string{statusShelved, statusShelvedOffloaded}

type params struct {
	ServiceName string `yaml:"service_name" validate:"required"`
	InstanceID  string `yaml:"instance_id" validate:"required"`
	// State is the power state to reach. rebooted always reboots.
	State      string `yaml:"state" validate:"required,oneof=on off shelved unshelved rebooted"`
	RebootType string `yaml:"reboot_type,omitempty" validate:"omitempty,oneof=soft hard"`
}

type instance struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Status string `json:"status"`
}

type powerPlugin struct{}

// New creates the cloud_instance_power module.
func New() plugin.Plugin {
	return &powerPlugin{}
}

func init() {
	plugin.MustRegister(moduleType, New())
}

func (p *powerPlugin) PluginMetadata() plugin.PluginMetadata {
	return pluginutil.Metadata(moduleType, "Starts, stops, shelves, unshelves or reboots a public cloud instance.")
}

func (p *powerPlugin) Schema() any {
	return params{}
}

func (p *powerPlugin) Evaluate(ctx context.Context, step *config.Step) (*model.EvaluationResult, error) {
	return pluginutil.Evaluate(ctx, step, plan)
}

func (p *powerPlugin) Apply(ctx context.Context, evalResult *model.EvaluationResult, step *config.Step) (*model.StepResult, error) {
	return pluginutil.Apply(ctx, evalResult, step)
}

func plan(ctx context.Context, client *ovhapi.Client, p *params) (*reconcile.Plan, error) {
	base := ovhapi.Path("/cloud/project/%s/instance/%s", p.ServiceName, p.InstanceID)

	var inst instance
	if err := client.Get(ctx, base, nil, &inst); err != nil {
		return nil, err
	}

	out := &reconcile.Plan{
		Converged: fmt.Sprintf("instance %s is already %s", p.InstanceID, inst.Status),
		Data:      inst,
	}
	shelved := slices.Contains(shelvedStatuses, inst.Status)

	var action string
	switch p.State {
	case "rebooted":
		rebootType := p.RebootType
		if rebootType == "" {
			rebootType = "soft"
		}
		out.Add(http.MethodPost, base+"/reboot", map[string]any{"type": rebootType},
			fmt.Sprintf("%s reboot instance %s", rebootType, p.InstanceID))
		out.Applied = fmt.Sprintf("instance %s rebooted", p.InstanceID)
		return out, nil
	case "on":
		switch {
		case inst.Status == statusActive:
		case inst.Status == statusShutoff:
			action = "start"
		case shelved:
			action = "unshelve"
		}
	case "off":
		if inst.Status == statusActive {
			action = "stop"
		}
	case "shelved":
		if !shelved {
			action = "shelve"
		}
	case "unshelved":
		if shelved {
			action = "unshelve"
		}
	}

	if action == "" {
		if !stable(inst.Status) {
			return nil, pluginutil.Refuse("instance %s is %s, wait for a stable status first", p.InstanceID, inst.Status)
		}
		return out, nil
	}
	if !stable(inst.Status) {
		return nil, pluginutil.Refuse("instance %s is %s, cannot %s it", p.InstanceID, inst.Status, action)
	}

	out.Add(http.MethodPost, base+"/"+action, nil, fmt.Sprintf("%s instance %s", action, p.InstanceID))
	out.Applied = fmt.Sprintf("instance %s: %s requested", p.InstanceID, action)
	return out, nil
}

func stable(status string) bool {
	switch status {
	case statusActive, statusShutoff, statusShelved, statusShelvedOffloaded:
		return true
	}
	return false
}
