package cloudsshkeyplugin

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/alexisbeaulieu97/ovhkit/internal/config"
	"github.com/alexisbeaulieu97/ovhkit/internal/model"
	"github.com/alexisbeaulieu97/ovhkit/internal/ovhapi"
	"github.com/alexisbeaulieu97/ovhkit/internal/plugin"
	"github.com/alexisbeaulieu97/ovhkit/internal/plugins/pluginutil"
	"github.com/alexisbeaulieu97/ovhkit/internal/reconcile"
)

const moduleType = "cloud_ssh_key"

type params struct {
	ServiceName string `yaml:"service_name" validate:"required"`
	Name        string `yaml:"name" validate:"required"`
	PublicKey   string `yaml:"public_key,omitempty" validate:"required_unless=State absent"`
	Region      string `yaml:"region,omitempty"`
	State       string `yaml:"state,omitempty" validate:"omitempty,oneof=present absent"`
}

type sshKey struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	PublicKey string   `json:"publicKey"`
	Regions   []string `json:"regions"`
}

type sshKeyPlugin struct{}

// New creates the cloud_ssh_key module.
func New() plugin.Plugin {
	return &sshKeyPlugin{}
}

func init() {
	plugin.MustRegister(moduleType, New())
}

func (p *sshKeyPlugin) PluginMetadata() plugin.PluginMetadata {
	return pluginutil.Metadata(moduleType, "Registers or removes an SSH public key on a public cloud project.")
}

func (p *sshKeyPlugin) Schema() any {
	return params{}
}

func (p *sshKeyPlugin) Evaluate(ctx context.Context, step *config.Step) (*model.EvaluationResult, error) {
	return pluginutil.Evaluate(ctx, step, plan)
}

func (p *sshKeyPlugin) Apply(ctx context.Context, evalResult *model.EvaluationResult, step *config.Step) (*model.StepResult, error) {
	return pluginutil.Apply(ctx, evalResult, step)
}

func plan(ctx context.Context, client *ovhapi.Client, p *params) (*reconcile.Plan, error) {
	listPath := ovhapi.Path("/cloud/project/%s/sshkey", p.ServiceName)
	key := fmt.Sprintf("ssh key %s", p.Name)

	var keys []sshKey
	if err := client.Get(ctx, listPath, nil, &keys); err != nil {
		return nil, err
	}
	var matches []sshKey
	for _, k := range keys {
		if k.Name == p.Name {
			matches = append(matches, k)
		}
	}
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
			out.Add(http.MethodDelete, ovhapi.Path("/cloud/project/%s/sshkey/%s", p.ServiceName, matches[0].ID), nil, "delete "+key)
		}
		return out, nil
	}

	out := &reconcile.Plan{
		Converged: key + " already registered",
		Applied:   key + " registered",
	}
	body := map[string]any{"name": p.Name, "publicKey": strings.TrimSpace(p.PublicKey)}
	if p.Region != "" {
		body["region"] = p.Region
	}

	if len(matches) == 0 {
		out.Status = model.StatusMissing
		out.Add(http.MethodPost, listPath, body, "register "+key)
		return out, nil
	}

	current := matches[0]
	out.Data = current
	if sameKey(current.PublicKey, p.PublicKey) {
		return out, nil
	}
	// Keys are immutable, a new content means a new key.
	out.Diff = reconcile.RenderDiff(map[string]any{"publicKey": current.PublicKey}, map[string]any{"publicKey": body["publicKey"]})
	out.Applied = key + " replaced"
	out.Add(http.MethodDelete, ovhapi.Path("/cloud/project/%s/sshkey/%s", p.ServiceName, current.ID), nil, "delete outdated "+key)
	out.Add(http.MethodPost, listPath, body, "register "+key)
	return out, nil
}

// sameKey compares the type and material of two keys, ignoring comments.
func sameKey(a, b string) bool {
	fa, fb := strings.Fields(a), strings.Fields(b)
	if len(fa) < 2 || len(fb) < 2 {
		return strings.TrimSpace(a) == strings.TrimSpace(b)
	}
	return fa[0] == fb[0] && fa[1] == fb[1]
}
