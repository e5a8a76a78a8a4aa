package cloudinstancenetworkplugin

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

const moduleType = "cloud_instance_network"

type params struct {
	ServiceName  string `yaml:"service_name" validate:"required"`
	InstanceID   string `yaml:"instance_id,omitempty" validate:"required_without=InstanceName"`
	InstanceName string `yaml:"instance_name,omitempty" validate:"excluded_with=InstanceID"`
	Region       string `yaml:"region,omitempty" validate:"required_with=InstanceName"`
	NetworkID    string `yaml:"network_id" validate:"required"`
	// IP pins the address of the interface in the network subnet.
	IP    string `yaml:"ip,omitempty" validate:"omitempty,ip"`
	State string `yaml:"state,omitempty" validate:"omitempty,oneof=present absent"`
}

func (p *params) instance() pluginutil.CloudRef {
	return pluginutil.CloudRef{ID: p.InstanceID, Name: p.InstanceName, Region: p.Region}
}

// iface is an entry of /cloud/project/{project}/instance/{id}/interface.
type iface struct {
	ID         string `json:"id"`
	NetworkID  string `json:"networkId"`
	MACAddress string `json:"macAddress,omitempty"`
	Type       string `json:"type,omitempty"`
	State      string `json:"state,omitempty"`
	FixedIPs   []struct {
		IP       string `json:"ip"`
		SubnetID string `json:"subnetId,omitempty"`
	} `json:"fixedIps,omitempty"`
}

func (i iface) ips() []string {
	out := make([]string, 0, len(i.FixedIPs))
	for _, f := range i.FixedIPs {
		out = append(out, f.IP)
	}
	return out
}

type networkPlugin struct{}

// New creates the cloud_instance_network module.
func New() plugin.Plugin {
	return &networkPlugin{}
}

func init() {
	plugin.MustRegister(moduleType, New())
}

func (p *networkPlugin) PluginMetadata() plugin.PluginMetadata {
	return pluginutil.Metadata(moduleType, "Adds or removes the interface of a public cloud instance on a private network.")
}

func (p *networkPlugin) Schema() any {
	return params{}
}

func (p *networkPlugin) Evaluate(ctx context.Context, step *config.Step) (*model.EvaluationResult, error) {
	return pluginutil.Evaluate(ctx, step, plan)
}

func (p *networkPlugin) Apply(ctx context.Context, evalResult *model.EvaluationResult, step *config.Step) (*model.StepResult, error) {
	return pluginutil.Apply(ctx, evalResult, step)
}

func plan(ctx context.Context, client *ovhapi.Client, p *params) (*reconcile.Plan, error) {
	instanceID, err := pluginutil.ResolveCloudID(ctx, client, p.ServiceName, "instance", p.instance())
	if err != nil {
		return nil, err
	}
	listPath := ovhapi.Path("/cloud/project/%s/instance/%s/interface", p.ServiceName, instanceID)

	var ifaces []iface
	if err := client.Get(ctx, listPath, nil, &ifaces); err != nil {
		return nil, err
	}
	var matches []iface
	for _, i := range ifaces {
		if i.NetworkID == p.NetworkID {
			matches = append(matches, i)
		}
	}
	key := fmt.Sprintf("interface of %s on network %s", p.instance().Label(), p.NetworkID)
	if err := reconcile.RequireUnique(key, matches); err != nil {
		return nil, err
	}

	if p.State == string(reconcile.Absent) {
		out := &reconcile.Plan{
			Converged: key + " does not exist",
			Applied:   key + " removed",
		}
		if len(matches) == 1 {
			out.Data = matches[0]
			out.Add(http.MethodDelete, ovhapi.Path("/cloud/project/%s/instance/%s/interface/%s", p.ServiceName, instanceID, matches[0].ID), nil,
				fmt.Sprintf("remove %s (%s)", key, matches[0].ID))
		}
		return out, nil
	}

	out := &reconcile.Plan{
		Status:    model.StatusMissing,
		Converged: key + " already exists",
		Applied:   key + " added",
	}
	if len(matches) == 1 {
		current := matches[0]
		if p.IP != "" && !slices.Contains(current.ips(), p.IP) {
			return nil, pluginutil.Refuse("%s has addresses %v instead of %s, remove it first", key, current.ips(), p.IP)
		}
		out.Data = current
		return out, nil
	}

	body := map[string]any{"networkId": p.NetworkID}
	if p.IP != "" {
		body["ip"] = p.IP
	}
	out.Add(http.MethodPost, listPath, body, "add "+key)
	return out, nil
}
