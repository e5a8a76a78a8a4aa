package ipfirewallplugin

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

const moduleType = "ip_firewall"

type params struct {
	IP           string `yaml:"ip" validate:"required,ip_or_cidr"`
	IPOnFirewall string `yaml:"ip_on_firewall" validate:"required,ip"`
	Enabled      *bool  `yaml:"firewall_enabled,omitempty"`
	State        string `yaml:"state,omitempty" validate:"omitempty,oneof=present absent"`
}

func (p *params) enabled() bool {
	return p.Enabled == nil || *p.Enabled
}

type firewall struct {
	IPOnFirewall string `json:"ipOnFirewall"`
	Enabled      bool   `json:"enabled"`
	State        string `json:"state"`
}

type firewallPlugin struct{}

// New creates the ip_firewall module.
func New() plugin.Plugin {
	return &firewallPlugin{}
}

func init() {
	plugin.MustRegister(moduleType, New())
}

func (p *firewallPlugin) PluginMetadata() plugin.PluginMetadata {
	return pluginutil.Metadata(moduleType, "Creates, enables, disables or removes the network firewall of an IP.")
}

func (p *firewallPlugin) Schema() any {
	return params{}
}

func (p *firewallPlugin) Evaluate(ctx context.Context, step *config.Step) (*model.EvaluationResult, error) {
	return pluginutil.Evaluate(ctx, step, plan)
}

func (p *firewallPlugin) Apply(ctx context.Context, evalResult *model.EvaluationResult, step *config.Step) (*model.StepResult, error) {
	return pluginutil.Apply(ctx, evalResult, step)
}

func plan(ctx context.Context, client *ovhapi.Client, p *params) (*reconcile.Plan, error) {
	listPath := ovhapi.Path("/ip/%s/firewall", p.IP)
	entryPath := ovhapi.Path("/ip/%s/firewall/%s", p.IP, p.IPOnFirewall)

	var protected []string
	if err := client.Get(ctx, listPath, nil, &protected); err != nil {
		return nil, err
	}
	exists := slices.Contains(protected, p.IPOnFirewall)

	if p.State == string(reconcile.Absent) {
		out := &reconcile.Plan{
			Converged: fmt.Sprintf("no firewall on %s", p.IPOnFirewall),
			Applied:   fmt.Sprintf("firewall removed from %s", p.IPOnFirewall),
		}
		if exists {
			out.Add(http.MethodDelete, entryPath, nil, "remove firewall of "+p.IPOnFirewall)
		}
		return out, nil
	}

	want := p.enabled()
	out := &reconcile.Plan{
		Converged: fmt.Sprintf("firewall on %s already %s", p.IPOnFirewall, enabledWord(want)),
		Applied:   fmt.Sprintf("firewall applied on %s", p.IPOnFirewall),
	}

	if !exists {
		out.Status = model.StatusMissing
		out.Add(http.MethodPost, listPath, map[string]any{"ipOnFirewall": p.IPOnFirewall}, "create firewall on "+p.IPOnFirewall)
		// A new firewall starts disabled.
		if want {
			out.Add(http.MethodPut, entryPath, map[string]any{"enabled": true}, "enable firewall on "+p.IPOnFirewall)
		}
		return out, nil
	}

	var current firewall
	if err := client.Get(ctx, entryPath, nil, &current); err != nil {
		return nil, err
	}
	out.Data = current
	out.Diff = reconcile.RenderDiff(map[string]any{"enabled": current.Enabled}, map[string]any{"enabled": want})
	if current.Enabled != want {
		out.Add(http.MethodPut, entryPath, map[string]any{"enabled": want},
			fmt.Sprintf("%s firewall on %s", verb(want), p.IPOnFirewall))
	}
	return out, nil
}

func enabledWord(enabled bool) string {
	if enabled {
		return "enabled"
	}
	return "disabled"
}

func verb(enabled bool) string {
	if enabled {
		return "enable"
	}
	return "disable"
}
