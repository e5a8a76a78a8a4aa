package ipfirewallruleplugin

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

const moduleType = "ip_firewall_rule"

type params struct {
	IP              string     `yaml:"ip" validate:"required,ip_or_cidr"`
	IPOnFirewall    string     `yaml:"ip_on_firewall" validate:"required,ip"`
	Sequence        *int       `yaml:"sequence" validate:"required,min=0,max=19"`
	Action          string     `yaml:"action,omitempty" validate:"omitempty,oneof=permit deny"`
	Protocol        string     `yaml:"protocol,omitempty" validate:"omitempty,oneof=ah esp gre icmp ipv4 tcp udp"`
	DestinationPort *int       `yaml:"destination_port,omitempty" validate:"omitempty,min=0,max=65535"`
	Source          string     `yaml:"source,omitempty" validate:"omitempty,ip_or_cidr"`
	SourcePort      *int       `yaml:"source_port,omitempty" validate:"omitempty,min=0,max=65535"`
	TCPOption       *tcpOption `yaml:"tcp_option,omitempty"`
	State           string     `yaml:"state,omitempty" validate:"omitempty,oneof=present absent"`
}

type tcpOption struct {
	Fragments *bool  `yaml:"fragments,omitempty" json:"fragments,omitempty"`
	Option    string `yaml:"option,omitempty" json:"option,omitempty" validate:"omitempty,oneof=established syn"`
}

func (p *params) Validate() error {
	if p.State != string(reconcile.Absent) && (p.Action == "" || p.Protocol == "") {
		return errors.New("state present requires action and protocol")
	}
	return nil
}

func (p *params) body() map[string]any {
	body := map[string]any{
		"sequence": *p.Sequence,
		"action":   p.Action,
		"protocol": p.Protocol,
	}
	if p.DestinationPort != nil {
		body["destinationPort"] = *p.DestinationPort
	}
	if p.Source != "" {
		body["source"] = p.Source
	}
	if p.SourcePort != nil {
		body["sourcePort"] = *p.SourcePort
	}
	if p.TCPOption != nil && (p.TCPOption.Fragments != nil || p.TCPOption.Option != "") {
		body["tcpOption"] = p.TCPOption
	}
	return body
}

type rule struct {
	Sequence int    `json:"sequence"`
	Action   string `json:"action"`
	Protocol string `json:"protocol"`
	State    string `json:"state"`
}

type rulePlugin struct{}

// New creates the ip_firewall_rule module.
func New() plugin.Plugin {
	return &rulePlugin{}
}

func init() {
	plugin.MustRegister(moduleType, New())
}

func (p *rulePlugin) PluginMetadata() plugin.PluginMetadata {
	return pluginutil.Metadata(moduleType, "Adds or removes a rule, by sequence, on the network firewall of an IP.")
}

func (p *rulePlugin) Schema() any {
	return params{}
}

func (p *rulePlugin) Evaluate(ctx context.Context, step *config.Step) (*model.EvaluationResult, error) {
	return pluginutil.Evaluate(ctx, step, plan)
}

func (p *rulePlugin) Apply(ctx context.Context, evalResult *model.EvaluationResult, step *config.Step) (*model.StepResult, error) {
	return pluginutil.Apply(ctx, evalResult, step)
}

func plan(ctx context.Context, client *ovhapi.Client, p *params) (*reconcile.Plan, error) {
	var protected []string
	if err := client.Get(ctx, ovhapi.Path("/ip/%s/firewall", p.IP), nil, &protected); err != nil {
		return nil, err
	}
	if !slices.Contains(protected, p.IPOnFirewall) {
		return nil, pluginutil.Refuse("a firewall must be created on %s before managing its rules", p.IPOnFirewall)
	}

	rulesPath := ovhapi.Path("/ip/%s/firewall/%s/rule", p.IP, p.IPOnFirewall)
	var sequences []int
	if err := client.Get(ctx, rulesPath, nil, &sequences); err != nil {
		return nil, err
	}
	seq := *p.Sequence
	rulePath := fmt.Sprintf("%s/%d", rulesPath, seq)
	exists := slices.Contains(sequences, seq)

	if p.State == string(reconcile.Absent) {
		out := &reconcile.Plan{
			Converged: fmt.Sprintf("no rule %d on %s", seq, p.IPOnFirewall),
			Applied:   fmt.Sprintf("rule %d deleted on %s", seq, p.IPOnFirewall),
		}
		if exists {
			out.Add(http.MethodDelete, rulePath, nil, fmt.Sprintf("delete rule %d", seq))
		}
		return out, nil
	}

	out := &reconcile.Plan{
		Status:    model.StatusMissing,
		Converged: fmt.Sprintf("rule %d already applied on %s", seq, p.IPOnFirewall),
		Applied:   fmt.Sprintf("rule %d is applied on %s", seq, p.IPOnFirewall),
	}
	if !exists {
		out.Add(http.MethodPost, rulesPath, p.body(), fmt.Sprintf("add rule %d: %s %s", seq, p.Action, p.Protocol))
		return out, nil
	}

	// Rules cannot be updated. An existing sequence is accepted only when it
	// already carries the requested action and protocol.
	var current rule
	if err := client.Get(ctx, rulePath, nil, &current); err != nil {
		return nil, err
	}
	out.Data = current
	if current.Action != p.Action || current.Protocol != p.Protocol {
		return nil, pluginutil.Refuse("rule with sequence %d already exists (%s %s), delete it before reusing this sequence",
			seq, current.Action, current.Protocol)
	}
	return out, nil
}
