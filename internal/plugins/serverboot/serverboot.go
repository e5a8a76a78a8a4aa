package serverbootplugin

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

const moduleType = "dedicated_server_boot"

// bootIDs maps boot names to the netboot ids of /dedicated/server/{name}/boot.
var bootIDs = map[string]int{
	"harddisk":        1,
	"rescue":          1122,
	"rescue-customer": 46371,
}

type params struct {
	ServiceName string `yaml:"service_name" validate:"required"`
	Boot        string `yaml:"boot" validate:"required,oneof=harddisk rescue rescue-customer"`
	ForceReboot bool   `yaml:"force_reboot,omitempty"`
}

type server struct {
	Name       string `json:"name"`
	BootID     int    `json:"bootId"`
	Monitoring bool   `json:"monitoring"`
	State      string `json:"state"`
}

type bootPlugin struct{}

// New creates the dedicated_server_boot module.
func New() plugin.Plugin {
	return &bootPlugin{}
}

func init() {
	plugin.MustRegister(moduleType, New())
}

func (p *bootPlugin) PluginMetadata() plugin.PluginMetadata {
	return pluginutil.Metadata(moduleType, "Selects the boot mode of a dedicated server, optionally forcing a reboot.")
}

func (p *bootPlugin) Schema() any {
	return params{}
}

func (p *bootPlugin) Evaluate(ctx context.Context, step *config.Step) (*model.EvaluationResult, error) {
	return pluginutil.Evaluate(ctx, step, plan)
}

func (p *bootPlugin) Apply(ctx context.Context, evalResult *model.EvaluationResult, step *config.Step) (*model.StepResult, error) {
	return pluginutil.Apply(ctx, evalResult, step)
}

func plan(ctx context.Context, client *ovhapi.Client, p *params) (*reconcile.Plan, error) {
	path := ovhapi.Path("/dedicated/server/%s", p.ServiceName)

	var current server
	if err := client.Get(ctx, path, nil, &current); err != nil {
		return nil, err
	}

	want := bootIDs[p.Boot]
	out := &reconcile.Plan{
		Converged: fmt.Sprintf("%s already boots on %s", p.ServiceName, p.Boot),
		Applied:   fmt.Sprintf("%s is now set to boot on %s", p.ServiceName, p.Boot),
		Diff:      reconcile.RenderDiff(map[string]any{"bootId": current.BootID}, map[string]any{"bootId": want}),
		Data:      current,
	}
	if current.BootID != want {
		out.Add(http.MethodPut, path, map[string]any{"bootId": want},
			fmt.Sprintf("set boot of %s to %s (%d)", p.ServiceName, p.Boot, want))
	}
	// A forced reboot is an action of its own and always reports changed.
	if p.ForceReboot {
		out.Add(http.MethodPost, path+"/reboot", nil, "reboot "+p.ServiceName)
		out.Applied = fmt.Sprintf("%s is now forced to reboot on %s", p.ServiceName, p.Boot)
	}
	return out, nil
}
