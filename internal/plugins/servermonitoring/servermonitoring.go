package servermonitoringplugin

import (
	"context"
	"fmt"
	"net/http"

	"github.com/alexisbeaulieu97/ovhkit/internal/config"
	"github.com/alexisbeaulieu97/ovhkit/internal/model"
	"github.com/alexisbeaulieu97/ovhkit/internal/ovhapi"
	"github.com/alexisbeaulieu97/ovhkit/internal/plugin"
	"github.com/alexisbeaulieu97/ovhkit/internal/plugins/pluginutil"
	"github.com/alexisbeaulieu97/ovhkit/internal/reconcile"
)

const moduleType = "dedicated_server_monitoring"

type params struct {
	ServiceName string `yaml:"service_name" validate:"required"`
	State       string `yaml:"state,omitempty" validate:"omitempty,oneof=present absent"`
}

type monitoringPlugin struct{}

// New creates the dedicated_server_monitoring module.
func New() plugin.Plugin {
	return &monitoringPlugin{}
}

func init() {
	plugin.MustRegister(moduleType, New())
}

func (p *monitoringPlugin) PluginMetadata() plugin.PluginMetadata {
	return pluginutil.Metadata(moduleType, "Enables or disables OVHcloud monitoring of a dedicated server.")
}

func (p *monitoringPlugin) Schema() any {
	return params{}
}

func (p *monitoringPlugin) Evaluate(ctx context.Context, step *config.Step) (*model.EvaluationResult, error) {
	return pluginutil.Evaluate(ctx, step, plan)
}

func (p *monitoringPlugin) Apply(ctx context.Context, evalResult *model.EvaluationResult, step *config.Step) (*model.StepResult, error) {
	return pluginutil.Apply(ctx, evalResult, step)
}

func plan(ctx context.Context, client *ovhapi.Client, p *params) (*reconcile.Plan, error) {
	state, err := reconcile.ParseState(p.State, reconcile.Present)
	if err != nil {
		return nil, err
	}
	want := state == reconcile.Present

	path := ovhapi.Path("/dedicated/server/%s", p.ServiceName)
	var current struct {
		Monitoring bool `json:"monitoring"`
	}
	if err := client.Get(ctx, path, nil, &current); err != nil {
		return nil, err
	}

	out := &reconcile.Plan{
		Converged: fmt.Sprintf("monitoring is already %s on %s", state, p.ServiceName),
		Applied:   fmt.Sprintf("monitoring is now %s on %s", state, p.ServiceName),
		Diff:      reconcile.RenderDiff(map[string]any{"monitoring": current.Monitoring}, map[string]any{"monitoring": want}),
	}
	if current.Monitoring != want {
		out.Add(http.MethodPut, path, map[string]any{"monitoring": want},
			fmt.Sprintf("set monitoring of %s to %t", p.ServiceName, want))
	}
	return out, nil
}
