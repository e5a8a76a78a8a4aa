package serverdisplaynameplugin

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

const moduleType = "dedicated_server_display_name"

type params struct {
	ServiceName string `yaml:"service_name" validate:"required"`
	DisplayName string `yaml:"display_name" validate:"required,max=255"`
}

type serviceResource struct {
	DisplayName string `json:"displayName"`
	Name        string `json:"name"`
}

type displayNamePlugin struct{}

// New creates the dedicated_server_display_name module.
func New() plugin.Plugin {
	return &displayNamePlugin{}
}

func init() {
	plugin.MustRegister(moduleType, New())
}

func (p *displayNamePlugin) PluginMetadata() plugin.PluginMetadata {
	return pluginutil.Metadata(moduleType, "Sets the display name of a dedicated server in the customer panel.")
}

func (p *displayNamePlugin) Schema() any {
	return params{}
}

func (p *displayNamePlugin) Evaluate(ctx context.Context, step *config.Step) (*model.EvaluationResult, error) {
	return pluginutil.Evaluate(ctx, step, plan)
}

func (p *displayNamePlugin) Apply(ctx context.Context, evalResult *model.EvaluationResult, step *config.Step) (*model.StepResult, error) {
	return pluginutil.Apply(ctx, evalResult, step)
}

func plan(ctx context.Context, client *ovhapi.Client, p *params) (*reconcile.Plan, error) {
	var info struct {
		ServiceID int64 `json:"serviceId"`
	}
	if err := client.Get(ctx, ovhapi.Path("/dedicated/server/%s/serviceInfos", p.ServiceName), nil, &info); err != nil {
		return nil, err
	}

	servicePath := ovhapi.Path("/service/%s", fmt.Sprint(info.ServiceID))
	var service struct {
		Resource serviceResource `json:"resource"`
	}
	if err := client.Get(ctx, servicePath, nil, &service); err != nil {
		return nil, err
	}

	out := &reconcile.Plan{
		Converged: fmt.Sprintf("display name of %s is already %s", p.ServiceName, p.DisplayName),
		Applied:   fmt.Sprintf("display name of %s set to %s", p.ServiceName, p.DisplayName),
		Diff: reconcile.RenderDiff(
			map[string]any{"displayName": service.Resource.DisplayName},
			map[string]any{"displayName": p.DisplayName}),
	}
	if service.Resource.DisplayName != p.DisplayName {
		body := map[string]any{"resource": serviceResource{DisplayName: p.DisplayName, Name: p.ServiceName}}
		out.Add(http.MethodPut, servicePath, body,
			fmt.Sprintf("rename %s from %q to %q", p.ServiceName, service.Resource.DisplayName, p.DisplayName))
	}
	return out, nil
}
