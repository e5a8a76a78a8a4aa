package cloudmonthlybillingplugin

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

const moduleType = "cloud_monthly_billing"

type params struct {
	ServiceName string `yaml:"service_name" validate:"required"`
	InstanceID  string `yaml:"instance_id" validate:"required"`
}

type instance struct {
	ID             string `json:"id"`
	MonthlyBilling *struct {
		Since  string `json:"since"`
		Status string `json:"status"`
	} `json:"monthlyBilling"`
}

type monthlyBillingPlugin struct{}

// New creates the cloud_monthly_billing module.
func New() plugin.Plugin {
	return &monthlyBillingPlugin{}
}

func init() {
	plugin.MustRegister(moduleType, New())
}

func (p *monthlyBillingPlugin) PluginMetadata() plugin.PluginMetadata {
	return pluginutil.Metadata(moduleType, "Switches a public cloud instance to monthly billing.")
}

func (p *monthlyBillingPlugin) Schema() any {
	return params{}
}

func (p *monthlyBillingPlugin) Evaluate(ctx context.Context, step *config.Step) (*model.EvaluationResult, error) {
	return pluginutil.Evaluate(ctx, step, plan)
}

func (p *monthlyBillingPlugin) Apply(ctx context.Context, evalResult *model.EvaluationResult, step *config.Step) (*model.StepResult, error) {
	return pluginutil.Apply(ctx, evalResult, step)
}

func plan(ctx context.Context, client *ovhapi.Client, p *params) (*reconcile.Plan, error) {
	base := ovhapi.Path("/cloud/project/%s/instance/%s", p.ServiceName, p.InstanceID)

	var inst instance
	if err := client.Get(ctx, base, nil, &inst); err != nil {
		return nil, err
	}

	out := &reconcile.Plan{
		Converged: fmt.Sprintf("monthly billing already enabled on instance %s", p.InstanceID),
		Applied:   fmt.Sprintf("monthly billing enabled on instance %s", p.InstanceID),
		Data:      inst.MonthlyBilling,
	}
	// A pending activation is already requested.
	if inst.MonthlyBilling != nil && (inst.MonthlyBilling.Status == "ok" || inst.MonthlyBilling.Status == "activationPending") {
		return out, nil
	}
	out.Add(http.MethodPost, base+"/activeMonthlyBilling", nil, "enable monthly billing on instance "+p.InstanceID)
	return out, nil
}
