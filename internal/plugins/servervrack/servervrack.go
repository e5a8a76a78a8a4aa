package servervrackplugin

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

const moduleType = "dedicated_server_vrack"

type params struct {
	ServiceName string `yaml:"service_name" validate:"required"`
	Vrack       string `yaml:"vrack" validate:"required"`
	State       string `yaml:"state,omitempty" validate:"omitempty,oneof=present absent"`
}

type interfaceDetails struct {
	DedicatedServer          string `json:"dedicatedServer"`
	DedicatedServerInterface string `json:"dedicatedServerInterface"`
}

type vrackPlugin struct{}

// New creates the dedicated_server_vrack module.
func New() plugin.Plugin {
	return &vrackPlugin{}
}

func init() {
	plugin.MustRegister(moduleType, New())
}

func (p *vrackPlugin) PluginMetadata() plugin.PluginMetadata {
	return pluginutil.Metadata(moduleType, "Adds a dedicated server to a vRack or removes it, on both network generations.")
}

func (p *vrackPlugin) Schema() any {
	return params{}
}

func (p *vrackPlugin) Evaluate(ctx context.Context, step *config.Step) (*model.EvaluationResult, error) {
	return pluginutil.Evaluate(ctx, step, plan)
}

func (p *vrackPlugin) Apply(ctx context.Context, evalResult *model.EvaluationResult, step *config.Step) (*model.StepResult, error) {
	return pluginutil.Apply(ctx, evalResult, step)
}

func plan(ctx context.Context, client *ovhapi.Client, p *params) (*reconcile.Plan, error) {
	state, err := reconcile.ParseState(p.State, reconcile.Present)
	if err != nil {
		return nil, err
	}

	ifaces, err := vrackInterfaces(ctx, client, p.ServiceName)
	if err != nil {
		return nil, err
	}
	// Servers on the old network generation expose no virtual interface.
	if len(ifaces) == 0 {
		return planOldGeneration(ctx, client, p, state)
	}
	if err := reconcile.RequireUnique("vrack interface of "+p.ServiceName, ifaces); err != nil {
		return nil, err
	}
	return planNewGeneration(ctx, client, p, state, ifaces[0])
}

// vrackInterfaces lists the vrack interfaces of the server. Servers with
// aggregated links only answer in vrack_aggregation mode.
func vrackInterfaces(ctx context.Context, client *ovhapi.Client, server string) ([]string, error) {
	path := ovhapi.Path("/dedicated/server/%s/virtualNetworkInterface", server)
	for _, mode := range []string{"vrack", "vrack_aggregation"} {
		var ifaces []string
		if err := client.Get(ctx, path, ovhapi.Params{"mode": mode}, &ifaces); err != nil {
			return nil, err
		}
		if len(ifaces) > 0 {
			return ifaces, nil
		}
	}
	return nil, nil
}

func planNewGeneration(ctx context.Context, client *ovhapi.Client, p *params, state reconcile.State, iface string) (*reconcile.Plan, error) {
	var details []interfaceDetails
	if err := client.Get(ctx, ovhapi.Path("/vrack/%s/dedicatedServerInterfaceDetails", p.Vrack), nil, &details); err != nil {
		return nil, err
	}
	registered := slices.ContainsFunc(details, func(d interfaceDetails) bool {
		return d.DedicatedServer == p.ServiceName
	})

	out := &reconcile.Plan{}
	switch {
	case state == reconcile.Present && registered:
		out.Converged = fmt.Sprintf("%s is already registered on new %s", p.ServiceName, p.Vrack)
	case state == reconcile.Present:
		out.Status = model.StatusMissing
		out.Applied = fmt.Sprintf("%s has been added to new %s", p.ServiceName, p.Vrack)
		out.Add(http.MethodPost, ovhapi.Path("/vrack/%s/dedicatedServerInterface", p.Vrack),
			map[string]any{"dedicatedServerInterface": iface},
			fmt.Sprintf("add %s to new %s", p.ServiceName, p.Vrack))
	case registered:
		out.Applied = fmt.Sprintf("%s has been deleted from new %s", p.ServiceName, p.Vrack)
		out.Add(http.MethodDelete, ovhapi.Path("/vrack/%s/dedicatedServerInterface/%s", p.Vrack, iface), nil,
			fmt.Sprintf("remove %s from new %s", p.ServiceName, p.Vrack))
	default:
		out.Converged = fmt.Sprintf("%s is not present on new %s, don't remove it", p.ServiceName, p.Vrack)
	}
	return out, nil
}

func planOldGeneration(ctx context.Context, client *ovhapi.Client, p *params, state reconcile.State) (*reconcile.Plan, error) {
	var servers []string
	if err := client.Get(ctx, ovhapi.Path("/vrack/%s/dedicatedServer", p.Vrack), nil, &servers); err != nil {
		return nil, err
	}
	registered := slices.Contains(servers, p.ServiceName)

	out := &reconcile.Plan{}
	switch {
	case state == reconcile.Present && registered:
		out.Converged = fmt.Sprintf("%s is already registered on old %s", p.ServiceName, p.Vrack)
	case state == reconcile.Present:
		out.Status = model.StatusMissing
		out.Applied = fmt.Sprintf("%s has been added to old %s", p.ServiceName, p.Vrack)
		out.Add(http.MethodPost, ovhapi.Path("/vrack/%s/dedicatedServer", p.Vrack),
			map[string]any{"dedicatedServer": p.ServiceName},
			fmt.Sprintf("add %s to old %s", p.ServiceName, p.Vrack))
	case registered:
		out.Applied = fmt.Sprintf("%s has been deleted from old %s", p.ServiceName, p.Vrack)
		out.Add(http.MethodDelete, ovhapi.Path("/vrack/%s/dedicatedServer/%s", p.Vrack, p.ServiceName), nil,
			fmt.Sprintf("remove %s from old %s", p.ServiceName, p.Vrack))
	default:
		out.Converged = fmt.Sprintf("%s is not present on old %s, don't remove it", p.ServiceName, p.Vrack)
	}
	return out, nil
}
