package installtemplateplugin

import (
	"context"
	"errors"
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

const moduleType = "installation_template"

type params struct {
	// Template is the path of the YAML template description.
	Template string `yaml:"template,omitempty" validate:"required_without=Name"`
	// Name identifies the template to delete without a description file.
	Name        string `yaml:"name,omitempty"`
	State       string `yaml:"state,omitempty" validate:"omitempty,oneof=present absent"`
	ServiceName string `yaml:"service_name,omitempty"`
}

func (p *params) Validate() error {
	if p.State != string(reconcile.Absent) && p.Template == "" {
		return errors.New("state present requires template")
	}
	return nil
}

type raidProfile struct {
	Controllers []struct {
		Disks []struct {
			Names []string `json:"names"`
		} `json:"disks"`
	} `json:"controllers"`
}

type templatePlugin struct{}

// New creates the installation_template module.
func New() plugin.Plugin {
	return &templatePlugin{}
}

func init() {
	plugin.MustRegister(moduleType, New())
}

func (p *templatePlugin) PluginMetadata() plugin.PluginMetadata {
	return pluginutil.Metadata(moduleType, "Creates or deletes a personal installation template with its partition scheme. A relative template path is read from the playbook directory.")
}

func (p *templatePlugin) Schema() any {
	return params{}
}

func (p *templatePlugin) Evaluate(ctx context.Context, step *config.Step) (*model.EvaluationResult, error) {
	cfg, err := pluginutil.Decode[params](step)
	if err != nil {
		return nil, err
	}

	// The description file is read before any call so a broken file never
	// reaches the API.
	var tpl *templateFile
	if cfg.Template != "" {
		if tpl, err = loadTemplate(config.ResolvePath(ctx, cfg.Template)); err != nil {
			return nil, plugin.NewValidationError(step.ID, err)
		}
		if tpl.IsHardwareRaid && cfg.ServiceName == "" {
			return nil, plugin.NewValidationError(step.ID, errors.New("a hardware RAID template requires service_name"))
		}
	}

	client, err := pluginutil.Client(ctx, step.ID)
	if err != nil {
		return nil, err
	}
	out, err := plan(ctx, client, cfg, tpl)
	if err != nil {
		return nil, pluginutil.ReadError(step.ID, err)
	}
	return out.Evaluation(step.ID), nil
}

func (p *templatePlugin) Apply(ctx context.Context, evalResult *model.EvaluationResult, step *config.Step) (*model.StepResult, error) {
	return pluginutil.Apply(ctx, evalResult, step)
}

func plan(ctx context.Context, client *ovhapi.Client, p *params, tpl *templateFile) (*reconcile.Plan, error) {
	name := p.Name
	if tpl != nil {
		name = tpl.TemplateName
	}

	var existing []string
	if err := client.Get(ctx, "/me/installationTemplate", nil, &existing); err != nil {
		return nil, err
	}
	exists := slices.Contains(existing, name)

	if p.State == string(reconcile.Absent) {
		out := &reconcile.Plan{
			Converged: fmt.Sprintf("template %s does not exist", name),
			Applied:   fmt.Sprintf("template %s deleted", name),
		}
		if exists {
			out.Add(http.MethodDelete, ovhapi.Path("/me/installationTemplate/%s", name), nil, "delete template "+name)
		}
		return out, nil
	}

	out := &reconcile.Plan{
		Status:    model.StatusMissing,
		Converged: fmt.Sprintf("template %s already exists", name),
		Applied:   fmt.Sprintf("template %s created", name),
	}
	if exists {
		return out, nil
	}

	base := ovhapi.Path("/me/installationTemplate/%s", name)
	scheme := ovhapi.Path("/me/installationTemplate/%s/partitionScheme/%s", name, tpl.PartitionScheme)

	out.Add(http.MethodPost, "/me/installationTemplate", map[string]any{
		"baseTemplateName": tpl.BaseTemplateName,
		"defaultLanguage":  tpl.DefaultLanguage,
		"name":             name,
	}, "create template "+name+" from "+tpl.BaseTemplateName)

	out.Add(http.MethodPut, base, map[string]any{
		"customization": map[string]any{
			"customHostname":               tpl.CustomHostname,
			"postInstallationScriptLink":   tpl.PostInstallationScriptLink,
			"postInstallationScriptReturn": tpl.PostInstallationScriptReturn,
			"sshKeyName":                   tpl.SSHKeyName,
			"useDistributionKernel":        tpl.UseDistributionKernel,
		},
		"defaultLanguage": tpl.DefaultLanguage,
		"templateName":    name,
	}, "customize template "+name)

	out.Add(http.MethodPost, base+"/partitionScheme", map[string]any{
		"name":     tpl.PartitionScheme,
		"priority": tpl.PartitionSchemePriority,
	}, "add partition scheme "+tpl.PartitionScheme)

	if tpl.IsHardwareRaid {
		disks, err := hardwareRaidDisks(ctx, client, p.ServiceName, tpl.RaidMode)
		if err != nil {
			return nil, err
		}
		out.Add(http.MethodPost, scheme+"/hardwareRaid", map[string]any{
			"disks": disks,
			"mode":  tpl.RaidMode,
			"name":  tpl.PartitionScheme,
			"step":  1,
		}, "configure "+tpl.RaidMode+" hardware RAID")
	}

	for _, part := range tpl.Partitions {
		out.Add(http.MethodPost, scheme+"/partition", part, "add partition "+part.Mountpoint)
	}

	out.Add(http.MethodPost, base+"/checkIntegrity", nil, "check integrity of "+name)
	return out, nil
}

func hardwareRaidDisks(ctx context.Context, client *ovhapi.Client, server, mode string) ([]string, error) {
	var profile raidProfile
	if err := client.Get(ctx, ovhapi.Path("/dedicated/server/%s/install/hardwareRaidProfile", server), nil, &profile); err != nil {
		return nil, err
	}
	if len(profile.Controllers) != 1 {
		return nil, pluginutil.Refuse("%s has %d RAID controllers, only a single controller is supported", server, len(profile.Controllers))
	}
	if len(profile.Controllers[0].Disks) == 0 {
		return nil, pluginutil.Refuse("RAID controller of %s reports no disk", server)
	}
	return raidDisks(mode, profile.Controllers[0].Disks[0].Names)
}
