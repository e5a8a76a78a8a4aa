package cloudinstanceinfoplugin

import (
	"context"
	"fmt"
	"strings"

	"github.com/alexisbeaulieu97/ovhkit/internal/config"
	"github.com/alexisbeaulieu97/ovhkit/internal/model"
	"github.com/alexisbeaulieu97/ovhkit/internal/ovhapi"
	"github.com/alexisbeaulieu97/ovhkit/internal/plugin"
	"github.com/alexisbeaulieu97/ovhkit/internal/plugins/pluginutil"
	"github.com/alexisbeaulieu97/ovhkit/internal/reconcile"
)

const moduleType = "cloud_instance_info"

type params struct {
	ServiceName  string `yaml:"service_name" validate:"required"`
	InstanceID   string `yaml:"instance_id,omitempty" validate:"required_without=InstanceName"`
	InstanceName string `yaml:"instance_name,omitempty" validate:"excluded_with=InstanceID"`
	Region       string `yaml:"region,omitempty" validate:"required_with=InstanceName"`
}

func (p *params) ref() pluginutil.CloudRef {
	return pluginutil.CloudRef{ID: p.InstanceID, Name: p.InstanceName, Region: p.Region}
}

type instance struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Region      string `json:"region"`
	Status      string `json:"status"`
	IPAddresses []struct {
		IP      string `json:"ip"`
		Type    string `json:"type"`
		Version int    `json:"version"`
	} `json:"ipAddresses,omitempty"`
}

func (i instance) publicIPs() []string {
	var out []string
	for _, a := range i.IPAddresses {
		if a.Type == "public" {
			out = append(out, a.IP)
		}
	}
	return out
}

type infoPlugin struct{}

// New creates the cloud_instance_info module.
func New() plugin.Plugin {
	return &infoPlugin{}
}

func init() {
	plugin.MustRegister(moduleType, New())
}

func (p *infoPlugin) PluginMetadata() plugin.PluginMetadata {
	return pluginutil.Metadata(moduleType, "Looks up a public cloud instance by id or by name and region. Never changes anything.")
}

func (p *infoPlugin) Schema() any {
	return params{}
}

func (p *infoPlugin) Evaluate(ctx context.Context, step *config.Step) (*model.EvaluationResult, error) {
	return pluginutil.Evaluate(ctx, step, plan)
}

func (p *infoPlugin) Apply(ctx context.Context, evalResult *model.EvaluationResult, step *config.Step) (*model.StepResult, error) {
	return pluginutil.Apply(ctx, evalResult, step)
}

// plan never carries calls: the lookup is the whole result.
func plan(ctx context.Context, client *ovhapi.Client, p *params) (*reconcile.Plan, error) {
	id, err := pluginutil.ResolveCloudID(ctx, client, p.ServiceName, "instance", p.ref())
	if err != nil {
		return nil, err
	}

	var inst instance
	if err := client.Get(ctx, ovhapi.Path("/cloud/project/%s/instance/%s", p.ServiceName, id), nil, &inst); err != nil {
		return nil, err
	}

	msg := fmt.Sprintf("instance %s in %s: id %s, %s", inst.Name, inst.Region, inst.ID, inst.Status)
	if ips := inst.publicIPs(); len(ips) > 0 {
		msg += ", " + strings.Join(ips, " ")
	}
	return &reconcile.Plan{Converged: msg, Data: inst}, nil
}
