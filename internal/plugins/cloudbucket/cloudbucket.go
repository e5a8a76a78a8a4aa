package cloudbucketplugin

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

const (
	moduleType = "cloud_bucket"

	// objectPage is the largest object listing the API returns at once.
	objectPage = 1000
)

type params struct {
	ServiceName string `yaml:"service_name" validate:"required"`
	Region      string `yaml:"region" validate:"required"`
	Name        string `yaml:"name" validate:"required,min=3,max=63"`
	// Force deletes the objects of a non-empty bucket before the bucket.
	Force bool   `yaml:"force,omitempty"`
	State string `yaml:"state,omitempty" validate:"omitempty,oneof=present absent"`
}

type container struct {
	Name         string `json:"name"`
	ObjectsCount int    `json:"objectsCount"`
	ObjectsSize  int64  `json:"objectsSize"`
}

type containerDetails struct {
	Name         string `json:"name"`
	ObjectsCount int    `json:"objectsCount"`
	Objects      []struct {
		Key  string `json:"key"`
		Size int64  `json:"size"`
	} `json:"objects"`
}

type bucketPlugin struct{}

// New creates the cloud_bucket module.
func New() plugin.Plugin {
	return &bucketPlugin{}
}

func init() {
	plugin.MustRegister(moduleType, New())
}

func (p *bucketPlugin) PluginMetadata() plugin.PluginMetadata {
	return pluginutil.Metadata(moduleType, "Creates or deletes an S3 object storage bucket in a public cloud region.")
}

func (p *bucketPlugin) Schema() any {
	return params{}
}

func (p *bucketPlugin) Evaluate(ctx context.Context, step *config.Step) (*model.EvaluationResult, error) {
	return pluginutil.Evaluate(ctx, step, plan)
}

func (p *bucketPlugin) Apply(ctx context.Context, evalResult *model.EvaluationResult, step *config.Step) (*model.StepResult, error) {
	return pluginutil.Apply(ctx, evalResult, step)
}

func plan(ctx context.Context, client *ovhapi.Client, p *params) (*reconcile.Plan, error) {
	listPath := ovhapi.Path("/cloud/project/%s/region/%s/storage", p.ServiceName, p.Region)
	bucketPath := ovhapi.Path("/cloud/project/%s/region/%s/storage/%s", p.ServiceName, p.Region, p.Name)
	key := fmt.Sprintf("bucket %s in %s", p.Name, p.Region)

	var containers []container
	if err := client.Get(ctx, listPath, nil, &containers); err != nil {
		return nil, err
	}
	exists := false
	for _, c := range containers {
		if c.Name == p.Name {
			exists = true
			break
		}
	}

	if p.State != string(reconcile.Absent) {
		out := &reconcile.Plan{
			Status:    model.StatusMissing,
			Converged: key + " already exists",
			Applied:   key + " created",
		}
		if !exists {
			out.Add(http.MethodPost, listPath, map[string]any{"name": p.Name}, "create "+key)
		}
		return out, nil
	}

	out := &reconcile.Plan{
		Converged: key + " does not exist",
		Applied:   key + " deleted",
	}
	if !exists {
		return out, nil
	}

	var details containerDetails
	if err := client.Get(ctx, bucketPath, ovhapi.Params{"limit": objectPage}, &details); err != nil {
		return nil, err
	}
	if details.ObjectsCount > 0 && !p.Force {
		return nil, pluginutil.Refuse("%s holds %d objects, set force to delete them", key, details.ObjectsCount)
	}
	if details.ObjectsCount > len(details.Objects) {
		return nil, pluginutil.Refuse("%s holds %d objects, more than the %d a single run deletes", key, details.ObjectsCount, objectPage)
	}

	for _, obj := range details.Objects {
		objectPath := ovhapi.Path("/cloud/project/%s/region/%s/storage/%s/object/%s", p.ServiceName, p.Region, p.Name, obj.Key)
		out.Add(http.MethodDelete, objectPath, nil,
			fmt.Sprintf("delete object %s from %s", obj.Key, key))
	}
	out.Add(http.MethodDelete, bucketPath, nil, "delete "+key)
	out.Data = details
	return out, nil
}
