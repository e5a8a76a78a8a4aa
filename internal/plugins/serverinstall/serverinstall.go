package serverinstallplugin

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

const moduleType = "dedicated_server_install"

type params struct {
	ServiceName     string `yaml:"service_name" validate:"required"`
	Hostname        string `yaml:"hostname" validate:"required,hostname_rfc1123"`
	Template        string `yaml:"template" validate:"required"`
	SSHKeyName      string `yaml:"ssh_key_name,omitempty"`
	SoftRaidDevices *int   `yaml:"soft_raid_devices,omitempty" validate:"omitempty,min=1"`
	Language        string `yaml:"language,omitempty" validate:"omitempty,len=2"`
}

type compatibleTemplates struct {
	OVH      []string `json:"ovh"`
	Personal []string `json:"personal"`
}

func (c compatibleTemplates) has(name string) bool {
	return slices.Contains(c.OVH, name) || slices.Contains(c.Personal, name)
}

type installPlugin struct{}

// New creates the dedicated_server_install module.
func New() plugin.Plugin {
	return &installPlugin{}
}

func init() {
	plugin.MustRegister(moduleType, New())
}

func (p *installPlugin) PluginMetadata() plugin.PluginMetadata {
	return pluginutil.Metadata(moduleType, "Starts the installation of an OS template on a dedicated server.")
}

func (p *installPlugin) Schema() any {
	return params{}
}

func (p *installPlugin) Evaluate(ctx context.Context, step *config.Step) (*model.EvaluationResult, error) {
	return pluginutil.Evaluate(ctx, step, plan)
}

func (p *installPlugin) Apply(ctx context.Context, evalResult *model.EvaluationResult, step *config.Step) (*model.StepResult, error) {
	return pluginutil.Apply(ctx, evalResult, step)
}

func plan(ctx context.Context, client *ovhapi.Client, p *params) (*reconcile.Plan, error) {
	var templates compatibleTemplates
	if err := client.Get(ctx, ovhapi.Path("/dedicated/server/%s/install/compatibleTemplates", p.ServiceName), nil, &templates); err != nil {
		return nil, err
	}
	if !templates.has(p.Template) {
		return nil, pluginutil.Refuse("%s doesn't exist in compatible templates of %s", p.Template, p.ServiceName)
	}

	if p.SSHKeyName != "" {
		key, err := ovhapi.Lookup[map[string]any](ctx, client, ovhapi.Path("/me/sshKey/%s", p.SSHKeyName), nil)
		if err != nil {
			return nil, err
		}
		if !key.Found {
			return nil, pluginutil.Refuse("ssh key %s is not registered on the account", p.SSHKeyName)
		}
	}

	// The status route answers 404 when no installation is running.
	running, err := ovhapi.Lookup[map[string]any](ctx, client, ovhapi.Path("/dedicated/server/%s/install/status", p.ServiceName), nil)
	if err != nil {
		return nil, err
	}

	out := &reconcile.Plan{
		Converged: fmt.Sprintf("an installation is already in progress on %s", p.ServiceName),
		Applied:   fmt.Sprintf("installation in progress on %s as %s with template %s", p.ServiceName, p.Hostname, p.Template),
		Data:      running.Value,
	}
	if running.Found {
		return out, nil
	}

	language := p.Language
	if language == "" {
		language = "en"
	}
	details := map[string]any{
		"language":       language,
		"customHostname": p.Hostname,
	}
	if p.SSHKeyName != "" {
		details["sshKeyName"] = p.SSHKeyName
	}
	if p.SoftRaidDevices != nil {
		details["softRaidDevices"] = *p.SoftRaidDevices
	}
	out.Add(http.MethodPost, ovhapi.Path("/dedicated/server/%s/install/start", p.ServiceName),
		map[string]any{"templateName": p.Template, "details": details},
		fmt.Sprintf("install %s on %s", p.Template, p.ServiceName))
	return out, nil
}
