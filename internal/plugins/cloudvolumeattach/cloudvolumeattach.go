package cloudvolumeattachplugin

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

const moduleType = "cloud_volume_attachment"

type params struct {
	ServiceName  string `yaml:"service_name" validate:"required"`
	VolumeID     string `yaml:"volume_id,omitempty" validate:"required_without=VolumeName"`
	VolumeName   string `yaml:"volume_name,omitempty" validate:"excluded_with=VolumeID"`
	InstanceID   string `yaml:"instance_id,omitempty" validate:"required_without=InstanceName"`
	InstanceName string `yaml:"instance_name,omitempty" validate:"excluded_with=InstanceID"`
	// Region locates the volume and the instance given by name.
	Region string `yaml:"region,omitempty" validate:"required_with=VolumeName InstanceName"`
	State  string `yaml:"state,omitempty" validate:"omitempty,oneof=present absent"`
}

func (p *params) volume() pluginutil.CloudRef {
	return pluginutil.CloudRef{ID: p.VolumeID, Name: p.VolumeName, Region: p.Region}
}

func (p *params) instance() pluginutil.CloudRef {
	return pluginutil.CloudRef{ID: p.InstanceID, Name: p.InstanceName, Region: p.Region}
}

type volume struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Status     string   `json:"status"`
	AttachedTo []string `json:"attachedTo"`
}

type attachPlugin struct{}

// New creates the cloud_volume_attachment module.
func New() plugin.Plugin {
	return &attachPlugin{}
}

func init() {
	plugin.MustRegister(moduleType, New())
}

func (p *attachPlugin) PluginMetadata() plugin.PluginMetadata {
	return pluginutil.Metadata(moduleType, "Attaches or detaches a block storage volume to a public cloud instance, each given by id or by name and region.")
}

func (p *attachPlugin) Schema() any {
	return params{}
}

func (p *attachPlugin) Evaluate(ctx context.Context, step *config.Step) (*model.EvaluationResult, error) {
	return pluginutil.Evaluate(ctx, step, plan)
}

func (p *attachPlugin) Apply(ctx context.Context, evalResult *model.EvaluationResult, step *config.Step) (*model.StepResult, error) {
	return pluginutil.Apply(ctx, evalResult, step)
}

func plan(ctx context.Context, client *ovhapi.Client, p *params) (*reconcile.Plan, error) {
	volumeID, err := pluginutil.ResolveCloudID(ctx, client, p.ServiceName, "volume", p.volume())
	if err != nil {
		return nil, err
	}
	instanceID, err := pluginutil.ResolveCloudID(ctx, client, p.ServiceName, "instance", p.instance())
	if err != nil {
		return nil, err
	}

	base := ovhapi.Path("/cloud/project/%s/volume/%s", p.ServiceName, volumeID)
	var vol volume
	if err := client.Get(ctx, base, nil, &vol); err != nil {
		return nil, err
	}
	attached := slices.Contains(vol.AttachedTo, instanceID)
	body := map[string]any{"instanceId": instanceID}
	volumeLabel, instanceLabel := p.volume().Label(), p.instance().Label()

	if p.State == string(reconcile.Absent) {
		out := &reconcile.Plan{
			Converged: fmt.Sprintf("volume %s is not attached to %s", volumeLabel, instanceLabel),
			Applied:   fmt.Sprintf("volume %s detached from %s", volumeLabel, instanceLabel),
			Data:      vol,
		}
		if attached {
			out.Add(http.MethodPost, base+"/detach", body, fmt.Sprintf("detach volume %s from %s", volumeLabel, instanceLabel))
		}
		return out, nil
	}

	out := &reconcile.Plan{
		Converged: fmt.Sprintf("volume %s is already attached to %s", volumeLabel, instanceLabel),
		Applied:   fmt.Sprintf("volume %s attached to %s", volumeLabel, instanceLabel),
		Data:      vol,
	}
	if attached {
		return out, nil
	}
	if len(vol.AttachedTo) > 0 {
		return nil, pluginutil.Refuse("volume %s is attached to %s, detach it first", volumeLabel, vol.AttachedTo[0])
	}
	out.Add(http.MethodPost, base+"/attach", body, fmt.Sprintf("attach volume %s to %s", volumeLabel, instanceLabel))
	return out, nil
}
