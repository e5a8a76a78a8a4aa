package dnszonerefreshplugin

import (
	"context"
	"net/http"

	"github.com/alexisbeaulieu97/ovhkit/internal/config"
	"github.com/alexisbeaulieu97/ovhkit/internal/model"
	"github.com/alexisbeaulieu97/ovhkit/internal/ovhapi"
	"github.com/alexisbeaulieu97/ovhkit/internal/plugin"
	"github.com/alexisbeaulieu97/ovhkit/internal/plugins/pluginutil"
	"github.com/alexisbeaulieu97/ovhkit/internal/reconcile"
)

const moduleType = "dns_zone_refresh"

type params struct {
	Domain string `yaml:"domain" validate:"required,fqdn"`
}

type zoneRefreshPlugin struct{}

// New creates the dns_zone_refresh module.
func New() plugin.Plugin {
	return &zoneRefreshPlugin{}
}

func init() {
	plugin.MustRegister(moduleType, New())
}

func (p *zoneRefreshPlugin) PluginMetadata() plugin.PluginMetadata {
	return pluginutil.Metadata(moduleType, "Reloads a DNS zone so pending record changes are served.")
}

func (p *zoneRefreshPlugin) Schema() any {
	return params{}
}

// Evaluate always asks for a refresh. The zone exposes no pending state to compare.
func (p *zoneRefreshPlugin) Evaluate(ctx context.Context, step *config.Step) (*model.EvaluationResult, error) {
	return pluginutil.Evaluate(ctx, step, func(ctx context.Context, client *ovhapi.Client, p *params) (*reconcile.Plan, error) {
		out := &reconcile.Plan{Applied: "zone " + p.Domain + " refreshed"}
		out.Add(http.MethodPost, ovhapi.Path("/domain/zone/%s/refresh", p.Domain), nil, "refresh zone "+p.Domain)
		return out, nil
	})
}

func (p *zoneRefreshPlugin) Apply(ctx context.Context, evalResult *model.EvaluationResult, step *config.Step) (*model.StepResult, error) {
	return pluginutil.Apply(ctx, evalResult, step)
}
