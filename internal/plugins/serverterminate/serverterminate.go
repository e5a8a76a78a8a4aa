package serverterminateplugin

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

const moduleType = "dedicated_server_terminate"

type params struct {
	ServiceName string `yaml:"service_name" validate:"required"`
}

type serviceInfos struct {
	Status string `json:"status"`
	Renew  struct {
		DeleteAtExpiration bool `json:"deleteAtExpiration"`
	} `json:"renew"`
}

// terminating reports whether the service is already expired or scheduled for deletion.
func (s serviceInfos) terminating() bool {
	return s.Status == "expired" || s.Renew.DeleteAtExpiration
}

type terminatePlugin struct{}

// New creates the dedicated_server_terminate module.
func New() plugin.Plugin {
	return &terminatePlugin{}
}

func init() {
	plugin.MustRegister(moduleType, New())
}

func (p *terminatePlugin) PluginMetadata() plugin.PluginMetadata {
	return pluginutil.Metadata(moduleType, "Requests the termination of a dedicated server. OVHcloud confirms it by email.")
}

func (p *terminatePlugin) Schema() any {
	return params{}
}

func (p *terminatePlugin) Evaluate(ctx context.Context, step *config.Step) (*model.EvaluationResult, error) {
	return pluginutil.Evaluate(ctx, step, plan)
}

func (p *terminatePlugin) Apply(ctx context.Context, evalResult *model.EvaluationResult, step *config.Step) (*model.StepResult, error) {
	return pluginutil.Apply(ctx, evalResult, step)
}

func plan(ctx context.Context, client *ovhapi.Client, p *params) (*reconcile.Plan, error) {
	var infos serviceInfos
	if err := client.Get(ctx, ovhapi.Path("/dedicated/server/%s/serviceInfos", p.ServiceName), nil, &infos); err != nil {
		return nil, err
	}

	out := &reconcile.Plan{
		Converged: fmt.Sprintf("%s is already terminating (status %s)", p.ServiceName, infos.Status),
		Applied:   fmt.Sprintf("termination of %s requested, confirm it with the email sent", p.ServiceName),
		Data:      infos,
	}
	if !infos.terminating() {
		out.Add(http.MethodPost, ovhapi.Path("/dedicated/server/%s/terminate", p.ServiceName), nil, "terminate "+p.ServiceName)
	}
	return out, nil
}
