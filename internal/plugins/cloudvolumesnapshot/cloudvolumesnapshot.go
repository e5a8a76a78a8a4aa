package cloudvolumesnapshotplugin

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

const moduleType = "cloud_volume_snapshot"

type params struct {
	ServiceName string `yaml:"service_name" validate:"required"`
	VolumeID    string `yaml:"volume_id,omitempty" validate:"required_without=VolumeName"`
	VolumeName  string `yaml:"volume_name,omitempty" validate:"excluded_with=VolumeID"`
	Region      string `yaml:"region,omitempty" validate:"required_with=VolumeName"`
	Name        string `yaml:"name" validate:"required"`
	Description string `yaml:"description,omitempty"`
	State       string `yaml:"state,omitempty" validate:"omitempty,oneof=present absent"`
}

func (p *params) volume() pluginutil.CloudRef {
	return pluginutil.CloudRef{ID: p.VolumeID, Name: p.VolumeName, Region: p.Region}
}

// snapshot is an entry of /cloud/project/{project}/volume/snapshot.
type snapshot struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	VolumeID    string `json:"volumeId"`
	Region      string `json:"region"`
	Size        int    `json:"size"`
	Status      string `json:"status"`
}

type snapshotPlugin struct{}

// New creates the cloud_volume_snapshot module.
func New() plugin.Plugin {
	return &snapshotPlugin{}
}

func init() {
	plugin.MustRegister(moduleType, New())
}

func (p *snapshotPlugin) PluginMetadata() plugin.PluginMetadata {
	return pluginutil.Metadata(moduleType, "Takes or deletes a named snapshot of a block storage volume.")
}

func (p *snapshotPlugin) Schema() any {
	return params{}
}

func (p *snapshotPlugin) Evaluate(ctx context.Context, step *config.Step) (*model.EvaluationResult, error) {
	return pluginutil.Evaluate(ctx, step, plan)
}

func (p *snapshotPlugin) Apply(ctx context.Context, evalResult *model.EvaluationResult, step *config.Step) (*model.StepResult, error) {
	return pluginutil.Apply(ctx, evalResult, step)
}

func plan(ctx context.Context, client *ovhapi.Client, p *params) (*reconcile.Plan, error) {
	volumeID, err := pluginutil.ResolveCloudID(ctx, client, p.ServiceName, "volume", p.volume())
	if err != nil {
		return nil, err
	}

	var snapshots []snapshot
	if err := client.Get(ctx, ovhapi.Path("/cloud/project/%s/volume/snapshot", p.ServiceName), nil, &snapshots); err != nil {
		return nil, err
	}
	var matches []snapshot
	for _, s := range snapshots {
		if s.VolumeID == volumeID && s.Name == p.Name {
			matches = append(matches, s)
		}
	}
	key := fmt.Sprintf("snapshot %s of volume %s", p.Name, p.volume().Label())
	if err := reconcile.RequireUnique(key, matches); err != nil {
		return nil, err
	}

	if p.State == string(reconcile.Absent) {
		out := &reconcile.Plan{
			Converged: key + " does not exist",
			Applied:   key + " deleted",
		}
		if len(matches) == 1 {
			out.Data = matches[0]
			out.Add(http.MethodDelete, ovhapi.Path("/cloud/project/%s/volume/snapshot/%s", p.ServiceName, matches[0].ID), nil,
				fmt.Sprintf("delete %s (%s)", key, matches[0].ID))
		}
		return out, nil
	}

	out := &reconcile.Plan{
		Status:    model.StatusMissing,
		Converged: key + " already exists",
		Applied:   key + " requested",
	}
	if len(matches) == 1 {
		out.Data = matches[0]
		return out, nil
	}

	body := map[string]any{"name": p.Name}
	if p.Description != "" {
		body["description"] = p.Description
	}
	out.Add(http.MethodPost, ovhapi.Path("/cloud/project/%s/volume/%s/snapshot", p.ServiceName, volumeID), body, "take "+key)
	return out, nil
}
