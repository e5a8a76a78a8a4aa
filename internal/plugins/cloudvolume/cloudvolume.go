package cloudvolumeplugin

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

const moduleType = "cloud_volume"

type params struct {
	ServiceName string `yaml:"service_name" validate:"required"`
	Region      string `yaml:"region" validate:"required"`
	Name        string `yaml:"name" validate:"required"`
	// Size is in GB.
	Size        int    `yaml:"size,omitempty" validate:"omitempty,min=10"`
	VolumeType  string `yaml:"volume_type,omitempty" validate:"omitempty,oneof=classic high-speed high-speed-gen2"`
	Description string `yaml:"description,omitempty"`
	ImageID     string `yaml:"image_id,omitempty"`
	SnapshotID  string `yaml:"snapshot_id,omitempty" validate:"excluded_with=ImageID"`
	State       string `yaml:"state,omitempty" validate:"omitempty,oneof=present absent"`
}

func (p *params) Validate() error {
	if p.State != string(reconcile.Absent) && p.Size == 0 {
		return errors.New("state present requires size")
	}
	return nil
}

type volume struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Region     string   `json:"region"`
	Size       int      `json:"size"`
	Type       string   `json:"type"`
	Status     string   `json:"status"`
	AttachedTo []string `json:"attachedTo"`
}

type volumePlugin struct{}

// New creates the cloud_volume module.
func New() plugin.Plugin {
	return &volumePlugin{}
}

func init() {
	plugin.MustRegister(moduleType, New())
}

func (p *volumePlugin) PluginMetadata() plugin.PluginMetadata {
	return pluginutil.Metadata(moduleType, "Creates, grows or deletes a block storage volume identified by name and region.")
}

func (p *volumePlugin) Schema() any {
	return params{}
}

func (p *volumePlugin) Evaluate(ctx context.Context, step *config.Step) (*model.EvaluationResult, error) {
	return pluginutil.Evaluate(ctx, step, plan)
}

func (p *volumePlugin) Apply(ctx context.Context, evalResult *model.EvaluationResult, step *config.Step) (*model.StepResult, error) {
	return pluginutil.Apply(ctx, evalResult, step)
}

func plan(ctx context.Context, client *ovhapi.Client, p *params) (*reconcile.Plan, error) {
	listPath := ovhapi.Path("/cloud/project/%s/volume", p.ServiceName)

	var volumes []volume
	if err := client.Get(ctx, listPath, ovhapi.Params{"region": p.Region}, &volumes); err != nil {
		return nil, err
	}
	var matches []volume
	for _, v := range volumes {
		if v.Name == p.Name && v.Region == p.Region {
			matches = append(matches, v)
		}
	}
	key := fmt.Sprintf("volume %s in %s", p.Name, p.Region)
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
			out.Add(http.MethodDelete, ovhapi.Path("/cloud/project/%s/volume/%s", p.ServiceName, matches[0].ID), nil,
				fmt.Sprintf("delete %s (%s)", key, matches[0].ID))
		}
		return out, nil
	}

	if len(matches) == 0 {
		body := map[string]any{
			"name":   p.Name,
			"region": p.Region,
			"size":   p.Size,
		}
		for field, value := range map[string]string{
			"type":        p.VolumeType,
			"description": p.Description,
			"imageId":     p.ImageID,
			"snapshotId":  p.SnapshotID,
		} {
			if value != "" {
				body[field] = value
			}
		}
		out := &reconcile.Plan{
			Status:  model.StatusMissing,
			Applied: fmt.Sprintf("%s created with %d GB", key, p.Size),
		}
		out.Add(http.MethodPost, listPath, body, fmt.Sprintf("create %s (%d GB)", key, p.Size))
		return out, nil
	}

	current := matches[0]
	if p.Size < current.Size {
		return nil, pluginutil.Refuse("%s is %d GB and cannot shrink to %d GB", key, current.Size, p.Size)
	}
	if p.VolumeType != "" && p.VolumeType != current.Type {
		return nil, pluginutil.Refuse("%s is of type %s, the type of a volume cannot change", key, current.Type)
	}

	out := &reconcile.Plan{
		Converged: fmt.Sprintf("%s already exists with %d GB", key, current.Size),
		Applied:   fmt.Sprintf("%s grown to %d GB", key, p.Size),
		Diff:      reconcile.RenderDiff(map[string]any{"size": current.Size}, map[string]any{"size": p.Size}),
		Data:      current,
	}
	if p.Size > current.Size {
		out.Add(http.MethodPost, ovhapi.Path("/cloud/project/%s/volume/%s/upsize", p.ServiceName, current.ID),
			map[string]any{"size": p.Size}, fmt.Sprintf("grow %s from %d to %d GB", key, current.Size, p.Size))
	}
	return out, nil
}
