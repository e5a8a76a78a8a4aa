package cloudinstanceplugin

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/alexisbeaulieu97/ovhkit/internal/config"
	"github.com/alexisbeaulieu97/ovhkit/internal/model"
	"github.com/alexisbeaulieu97/ovhkit/internal/ovhapi"
	"github.com/alexisbeaulieu97/ovhkit/internal/plugin"
	"github.com/alexisbeaulieu97/ovhkit/internal/plugins/pluginutil"
	"github.com/alexisbeaulieu97/ovhkit/internal/reconcile"
)

const moduleType = "cloud_instance"

type network struct {
	NetworkID string `yaml:"network_id" json:"networkId" validate:"required"`
	IP        string `yaml:"ip,omitempty" json:"ip,omitempty" validate:"omitempty,ip"`
}

type params struct {
	ServiceName    string    `yaml:"service_name" validate:"required"`
	Name           string    `yaml:"name" validate:"required"`
	Region         string    `yaml:"region" validate:"required"`
	FlavorID       string    `yaml:"flavor_id,omitempty"`
	ImageID        string    `yaml:"image_id,omitempty"`
	SSHKeyID       string    `yaml:"ssh_key_id,omitempty"`
	Networks       []network `yaml:"networks,omitempty" validate:"dive"`
	MonthlyBilling bool      `yaml:"monthly_billing,omitempty"`
	UserData       string    `yaml:"user_data,omitempty"`
	ForceDelete    bool      `yaml:"force_delete,omitempty"`
	State          string    `yaml:"state,omitempty" validate:"omitempty,oneof=present absent"`
}

func (p *params) Validate() error {
	if p.State != string(reconcile.Absent) && (p.FlavorID == "" || p.ImageID == "") {
		return errors.New("state present requires flavor_id and image_id")
	}
	return nil
}

type instance struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Region string `json:"region"`
	Status string `json:"status"`
}

type instancePlugin struct{}

// New creates the cloud_instance module.
func New() plugin.Plugin {
	return &instancePlugin{}
}

func init() {
	plugin.MustRegister(moduleType, New())
}

func (p *instancePlugin) PluginMetadata() plugin.PluginMetadata {
	return pluginutil.Metadata(moduleType, "Creates or deletes a public cloud instance identified by name and region.")
}

func (p *instancePlugin) Schema() any {
	return params{}
}

func (p *instancePlugin) Evaluate(ctx context.Context, step *config.Step) (*model.EvaluationResult, error) {
	return pluginutil.Evaluate(ctx, step, plan)
}

func (p *instancePlugin) Apply(ctx context.Context, evalResult *model.EvaluationResult, step *config.Step) (*model.StepResult, error) {
	return pluginutil.Apply(ctx, evalResult, step)
}

func plan(ctx context.Context, client *ovhapi.Client, p *params) (*reconcile.Plan, error) {
	listPath := ovhapi.Path("/cloud/project/%s/instance", p.ServiceName)

	var instances []instance
	if err := client.Get(ctx, listPath, ovhapi.Params{"region": p.Region}, &instances); err != nil {
		return nil, err
	}
	var matches []instance
	for _, i := range instances {
		if i.Name == p.Name && i.Region == p.Region {
			matches = append(matches, i)
		}
	}
	key := fmt.Sprintf("instance %s in %s", p.Name, p.Region)
	if err := reconcile.RequireUnique(key, matches); err != nil {
		return nil, err
	}

	if p.State == string(reconcile.Absent) {
		out := &reconcile.Plan{
			Converged: key + " does not exist",
			Applied:   key + " deleted",
		}
		if len(matches) == 0 {
			return out, nil
		}
		current := matches[0]
		if current.Status == "ACTIVE" && !p.ForceDelete {
			return nil, pluginutil.Refuse("%s (%s) is ACTIVE, stop it or set force_delete to delete it", key, current.ID)
		}
		out.Data = current
		out.Add(http.MethodDelete, ovhapi.Path("/cloud/project/%s/instance/%s", p.ServiceName, current.ID), nil,
			fmt.Sprintf("delete %s (%s)", key, current.ID))
		return out, nil
	}

	out := &reconcile.Plan{
		Status:    model.StatusMissing,
		Converged: key + " already exists",
		Applied:   key + " created",
	}
	if len(matches) == 1 {
		out.Data = matches[0]
		return out, nil
	}

	body := map[string]any{
		"name":           p.Name,
		"region":         p.Region,
		"flavorId":       p.FlavorID,
		"imageId":        p.ImageID,
		"monthlyBilling": p.MonthlyBilling,
	}
	if p.SSHKeyID != "" {
		body["sshKeyId"] = p.SSHKeyID
	}
	if len(p.Networks) > 0 {
		body["networks"] = p.Networks
	}
	if p.UserData != "" {
		body["userData"] = p.UserData
	}
	out.Add(http.MethodPost, listPath, body, "create "+key)
	return out, nil
}
