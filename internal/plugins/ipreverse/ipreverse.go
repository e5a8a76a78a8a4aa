package ipreverseplugin

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"

	"github.com/alexisbeaulieu97/ovhkit/internal/config"
	"github.com/alexisbeaulieu97/ovhkit/internal/model"
	"github.com/alexisbeaulieu97/ovhkit/internal/ovhapi"
	"github.com/alexisbeaulieu97/ovhkit/internal/plugin"
	"github.com/alexisbeaulieu97/ovhkit/internal/plugins/pluginutil"
	"github.com/alexisbeaulieu97/ovhkit/internal/reconcile"
)

const moduleType = "ip_reverse"

type params struct {
	// IP is the address or block the reverse belongs to.
	IP string `yaml:"ip" validate:"required,ip_or_cidr"`
	// IPReverse is the address inside the block. Defaults to IP.
	IPReverse string `yaml:"ip_reverse,omitempty" validate:"omitempty,ip"`
	Reverse   string `yaml:"reverse,omitempty"`
	State     string `yaml:"state,omitempty" validate:"omitempty,oneof=present absent"`
}

func (p *params) Validate() error {
	if p.IPReverse == "" {
		addr, err := singleAddress(p.IP)
		if err != nil {
			return err
		}
		p.IPReverse = addr
	}
	if p.State != string(reconcile.Absent) && p.Reverse == "" {
		return errors.New("state present requires reverse")
	}
	return nil
}

// singleAddress returns the address of a bare IP or of a block holding a single address.
func singleAddress(value string) (string, error) {
	if ip := net.ParseIP(value); ip != nil {
		return ip.String(), nil
	}
	ip, block, err := net.ParseCIDR(value)
	if err != nil {
		return "", err
	}
	if ones, bits := block.Mask.Size(); ones != bits {
		return "", fmt.Errorf("ip_reverse is required for block %s", value)
	}
	return ip.String(), nil
}

type reverseEntry struct {
	IPReverse string `json:"ipReverse"`
	Reverse   string `json:"reverse"`
}

type reversePlugin struct{}

// New creates the ip_reverse module.
func New() plugin.Plugin {
	return &reversePlugin{}
}

func init() {
	plugin.MustRegister(moduleType, New())
}

func (p *reversePlugin) PluginMetadata() plugin.PluginMetadata {
	return pluginutil.Metadata(moduleType, "Manages the reverse DNS of an IP address.")
}

func (p *reversePlugin) Schema() any {
	return params{}
}

func (p *reversePlugin) Evaluate(ctx context.Context, step *config.Step) (*model.EvaluationResult, error) {
	return pluginutil.Evaluate(ctx, step, plan)
}

func (p *reversePlugin) Apply(ctx context.Context, evalResult *model.EvaluationResult, step *config.Step) (*model.StepResult, error) {
	return pluginutil.Apply(ctx, evalResult, step)
}

func plan(ctx context.Context, client *ovhapi.Client, p *params) (*reconcile.Plan, error) {
	entryPath := ovhapi.Path("/ip/%s/reverse/%s", p.IP, p.IPReverse)
	current, err := ovhapi.Lookup[reverseEntry](ctx, client, entryPath, nil)
	if err != nil {
		return nil, err
	}

	if p.State == string(reconcile.Absent) {
		out := &reconcile.Plan{
			Converged: fmt.Sprintf("%s has no reverse", p.IPReverse),
			Applied:   fmt.Sprintf("reverse of %s removed", p.IPReverse),
		}
		if current.Found {
			out.Add(http.MethodDelete, entryPath, nil, "delete reverse "+current.Value.Reverse+" of "+p.IPReverse)
		}
		return out, nil
	}

	out := &reconcile.Plan{
		Converged: fmt.Sprintf("reverse %s to %s already set", p.IPReverse, p.Reverse),
		Applied:   fmt.Sprintf("reverse %s to %s set", p.IPReverse, p.Reverse),
		Diff:      reconcile.RenderDiff(map[string]any{"reverse": current.Value.Reverse}, map[string]any{"reverse": p.Reverse}),
		Data:      current.Value,
	}
	if !current.Found {
		out.Status = model.StatusMissing
	}
	if !current.Found || !sameName(current.Value.Reverse, p.Reverse) {
		out.Add(http.MethodPost, ovhapi.Path("/ip/%s/reverse", p.IP),
			map[string]any{"ipReverse": p.IPReverse, "reverse": p.Reverse},
			fmt.Sprintf("set reverse of %s to %s", p.IPReverse, p.Reverse))
	}
	return out, nil
}

// sameName compares host names ignoring the trailing dot the API appends.
func sameName(a, b string) bool {
	return strings.EqualFold(strings.TrimSuffix(a, "."), strings.TrimSuffix(b, "."))
}
