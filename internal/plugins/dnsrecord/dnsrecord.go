package dnsrecordplugin

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"slices"
	"strings"

	"github.com/alexisbeaulieu97/ovhkit/internal/config"
	"github.com/alexisbeaulieu97/ovhkit/internal/model"
	"github.com/alexisbeaulieu97/ovhkit/internal/ovhapi"
	"github.com/alexisbeaulieu97/ovhkit/internal/plugin"
	"github.com/alexisbeaulieu97/ovhkit/internal/plugins/pluginutil"
	"github.com/alexisbeaulieu97/ovhkit/internal/reconcile"
)

const moduleType = "dns_record"

type params struct {
	Domain     string   `yaml:"domain" validate:"required,fqdn"`
	Name       string   `yaml:"name,omitempty"`
	Value      string   `yaml:"value,omitempty"`
	Values     []string `yaml:"values,omitempty" validate:"omitempty,dive,required"`
	RecordType string   `yaml:"record_type,omitempty" validate:"omitempty,oneof=A AAAA CAA CNAME DKIM DMARC DNAME LOC MX NAPTR NS PTR SPF SRV SSHFP TLSA TXT"`
	RecordTTL  *int     `yaml:"record_ttl,omitempty" validate:"omitempty,min=0"`
	Append     bool     `yaml:"append,omitempty"`
	State      string   `yaml:"state,omitempty" validate:"omitempty,oneof=present absent modified"`
}

func (p *params) Validate() error {
	if p.RecordType == "" {
		p.RecordType = "A"
	}
	if p.Value != "" && len(p.Values) > 0 {
		return errors.New("value and values are mutually exclusive")
	}

	state, _ := reconcile.ParseState(p.State, reconcile.Present, reconcile.Present, reconcile.Absent, reconcile.Modified)
	if state != reconcile.Absent && len(p.targets()) == 0 {
		return fmt.Errorf("state %s requires value or values", state)
	}
	if state == reconcile.Modified && len(p.targets()) != 1 {
		return errors.New("state modified takes a single value")
	}

	for _, v := range p.targets() {
		ip := net.ParseIP(v)
		switch p.RecordType {
		case "A":
			if ip == nil || ip.To4() == nil {
				return fmt.Errorf("%q is not an IPv4 address, required by type A", v)
			}
		case "AAAA":
			if ip == nil || ip.To4() != nil {
				return fmt.Errorf("%q is not an IPv6 address, required by type AAAA", v)
			}
		case "TXT":
			if ip != nil {
				return fmt.Errorf("%q is an IP address, use type A or AAAA instead of TXT", v)
			}
		}
	}
	return nil
}

func (p *params) state() reconcile.State {
	state, _ := reconcile.ParseState(p.State, reconcile.Present, reconcile.Present, reconcile.Absent, reconcile.Modified)
	return state
}

func (p *params) targets() []string {
	if p.Value != "" {
		return []string{p.Value}
	}
	return p.Values
}

func (p *params) fqdn() string {
	if p.Name == "" {
		return p.Domain
	}
	return p.Name + "." + p.Domain
}

func (p *params) key() string {
	return fmt.Sprintf("%s %s", p.fqdn(), p.RecordType)
}

// record is a zone entry as returned by /domain/zone/{zone}/record/{id}.
type record struct {
	ID        int64  `json:"id"`
	Zone      string `json:"zone,omitempty"`
	SubDomain string `json:"subDomain"`
	FieldType string `json:"fieldType"`
	Target    string `json:"target"`
	TTL       int    `json:"ttl"`
}

type dnsRecordPlugin struct{}

// New creates the dns_record module.
func New() plugin.Plugin {
	return &dnsRecordPlugin{}
}

func init() {
	plugin.MustRegister(moduleType, New())
}

func (p *dnsRecordPlugin) PluginMetadata() plugin.PluginMetadata {
	return pluginutil.Metadata(moduleType, "Manages the records of a DNS zone for one subdomain and field type.")
}

func (p *dnsRecordPlugin) Schema() any {
	return params{}
}

func (p *dnsRecordPlugin) Evaluate(ctx context.Context, step *config.Step) (*model.EvaluationResult, error) {
	return pluginutil.Evaluate(ctx, step, plan)
}

func (p *dnsRecordPlugin) Apply(ctx context.Context, evalResult *model.EvaluationResult, step *config.Step) (*model.StepResult, error) {
	return pluginutil.Apply(ctx, evalResult, step)
}

func plan(ctx context.Context, client *ovhapi.Client, p *params) (*reconcile.Plan, error) {
	records, err := fetchRecords(ctx, client, p)
	if err != nil {
		return nil, err
	}

	var out *reconcile.Plan
	switch p.state() {
	case reconcile.Absent:
		out = planAbsent(p, records)
	case reconcile.Modified:
		out, err = planModified(p, records)
	default:
		out, err = planPresent(p, records)
	}
	if err != nil {
		return nil, err
	}

	out.Data = records
	out.AddCommit(http.MethodPost, ovhapi.Path("/domain/zone/%s/refresh", p.Domain), nil, "refresh zone "+p.Domain)
	return out, nil
}

func fetchRecords(ctx context.Context, client *ovhapi.Client, p *params) ([]record, error) {
	var ids []int64
	query := ovhapi.Params{"fieldType": p.RecordType, "subDomain": p.Name}
	if err := client.Get(ctx, ovhapi.Path("/domain/zone/%s/record", p.Domain), query, &ids); err != nil {
		return nil, err
	}

	records := make([]record, 0, len(ids))
	for _, id := range ids {
		var rec record
		path := ovhapi.Path("/domain/zone/%s/record/%s", p.Domain, fmt.Sprint(id))
		if err := client.Get(ctx, path, nil, &rec); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}

func planPresent(p *params, records []record) (*reconcile.Plan, error) {
	out := &reconcile.Plan{
		Converged: fmt.Sprintf("%s already targets %s", p.key(), strings.Join(p.targets(), ", ")),
		Diff:      reconcile.RenderDiff(targetView(records), map[string]any{"targets": p.targets()}),
	}
	if len(records) == 0 {
		out.Status = model.StatusMissing
	}

	observed := make([]string, 0, len(records))
	for _, r := range records {
		observed = append(observed, r.Target)
	}
	create, remove := reconcile.SetDiff(observed, p.targets(), p.Append)

	// A single value replacing the only record is an in-place update.
	if len(p.targets()) == 1 && !p.Append && len(create) == 1 && len(records) > 0 {
		if err := reconcile.RequireUnique(p.key(), records); err != nil {
			return nil, err
		}
		body := map[string]any{"target": create[0]}
		if p.RecordTTL != nil {
			body["ttl"] = *p.RecordTTL
		}
		out.Add(http.MethodPut, recordPath(p.Domain, records[0].ID), body,
			fmt.Sprintf("update %s from %s to %s", p.key(), records[0].Target, create[0]))
		return out, nil
	}

	for _, target := range create {
		body := map[string]any{
			"fieldType": p.RecordType,
			"subDomain": p.Name,
			"target":    target,
		}
		if p.RecordTTL != nil {
			body["ttl"] = *p.RecordTTL
		}
		out.Add(http.MethodPost, ovhapi.Path("/domain/zone/%s/record", p.Domain), body,
			fmt.Sprintf("create %s -> %s", p.key(), target))
	}

	for _, r := range records {
		if slices.Contains(remove, r.Target) {
			out.Add(http.MethodDelete, recordPath(p.Domain, r.ID), nil,
				fmt.Sprintf("delete %s -> %s", p.key(), r.Target))
			continue
		}
		if p.RecordTTL != nil && r.TTL != *p.RecordTTL && slices.Contains(p.targets(), r.Target) {
			out.Add(http.MethodPut, recordPath(p.Domain, r.ID), map[string]any{"ttl": *p.RecordTTL},
				fmt.Sprintf("set ttl of %s -> %s to %d", p.key(), r.Target, *p.RecordTTL))
		}
	}
	return out, nil
}

func planAbsent(p *params, records []record) *reconcile.Plan {
	out := &reconcile.Plan{Converged: fmt.Sprintf("%s has no matching record", p.key())}
	for _, r := range records {
		if len(p.targets()) > 0 && !slices.Contains(p.targets(), r.Target) {
			continue
		}
		out.Add(http.MethodDelete, recordPath(p.Domain, r.ID), nil,
			fmt.Sprintf("delete %s -> %s", p.key(), r.Target))
	}
	return out
}

func planModified(p *params, records []record) (*reconcile.Plan, error) {
	if len(records) == 0 {
		return nil, &reconcile.MissingForModifyError{Resource: "record " + p.key()}
	}
	if err := reconcile.RequireUnique(p.key(), records); err != nil {
		return nil, err
	}

	current := records[0]
	desired := map[string]any{"target": p.targets()[0]}
	if p.RecordTTL != nil {
		desired["ttl"] = *p.RecordTTL
	}
	changed := reconcile.FieldDiff(map[string]any{"target": current.Target, "ttl": current.TTL}, desired)

	out := &reconcile.Plan{
		Converged: fmt.Sprintf("%s already targets %s", p.key(), current.Target),
		Diff:      reconcile.RenderDiff(map[string]any{"target": current.Target, "ttl": current.TTL}, desired),
	}
	if len(changed) > 0 {
		out.Add(http.MethodPut, recordPath(p.Domain, current.ID), changed,
			fmt.Sprintf("modify %s: %s", p.key(), strings.Join(reconcile.SortedKeys(changed), ", ")))
	}
	return out, nil
}

func recordPath(domain string, id int64) string {
	return ovhapi.Path("/domain/zone/%s/record/%s", domain, fmt.Sprint(id))
}

func targetView(records []record) map[string]any {
	targets := make([]string, 0, len(records))
	for _, r := range records {
		targets = append(targets, r.Target)
	}
	return map[string]any{"targets": targets}
}
