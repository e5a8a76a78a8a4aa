package mailboxplugin

import (
	"context"
	"errors"
	"fmt"
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

const moduleType = "mailbox"

type params struct {
	Domain      string `yaml:"domain" validate:"required,fqdn"`
	Account     string `yaml:"account" validate:"required"`
	Password    string `yaml:"password,omitempty" validate:"omitempty,min=9,max=30"`
	Description string `yaml:"description,omitempty"`
	Size        int64  `yaml:"size,omitempty" validate:"omitempty,min=1"`
	State       string `yaml:"state,omitempty" validate:"omitempty,oneof=present absent"`
}

func (p *params) Validate() error {
	if strings.Contains(p.Account, "@") {
		return errors.New("account is the local part only, without @domain")
	}
	return nil
}

func (p *params) address() string {
	return p.Account + "@" + p.Domain
}

type account struct {
	AccountName string `json:"accountName"`
	Description string `json:"description"`
	Size        int64  `json:"size"`
}

type mailboxPlugin struct{}

// New creates the mailbox module.
func New() plugin.Plugin {
	return &mailboxPlugin{}
}

func init() {
	plugin.MustRegister(moduleType, New())
}

func (p *mailboxPlugin) PluginMetadata() plugin.PluginMetadata {
	return pluginutil.Metadata(moduleType, "Creates, updates or deletes an email account of a hosted domain.")
}

func (p *mailboxPlugin) Schema() any {
	return params{}
}

func (p *mailboxPlugin) Evaluate(ctx context.Context, step *config.Step) (*model.EvaluationResult, error) {
	return pluginutil.Evaluate(ctx, step, plan)
}

func (p *mailboxPlugin) Apply(ctx context.Context, evalResult *model.EvaluationResult, step *config.Step) (*model.StepResult, error) {
	return pluginutil.Apply(ctx, evalResult, step)
}

func plan(ctx context.Context, client *ovhapi.Client, p *params) (*reconcile.Plan, error) {
	listPath := ovhapi.Path("/email/domain/%s/account", p.Domain)
	accountPath := ovhapi.Path("/email/domain/%s/account/%s", p.Domain, p.Account)

	var accounts []string
	if err := client.Get(ctx, listPath, nil, &accounts); err != nil {
		return nil, err
	}
	exists := slices.Contains(accounts, p.Account)

	if p.State == string(reconcile.Absent) {
		out := &reconcile.Plan{
			Converged: fmt.Sprintf("%s does not exist", p.address()),
			Applied:   fmt.Sprintf("%s successfully deleted", p.address()),
		}
		if exists {
			out.Add(http.MethodDelete, accountPath, nil, "delete "+p.address())
		}
		return out, nil
	}

	if !exists {
		if p.Password == "" {
			return nil, pluginutil.Refuse("%s does not exist and password is required to create it", p.address())
		}
		out := &reconcile.Plan{
			Status:  model.StatusMissing,
			Applied: fmt.Sprintf("%s successfully created", p.address()),
		}
		body := map[string]any{"accountName": p.Account, "password": p.Password}
		if p.Description != "" {
			body["description"] = p.Description
		}
		if p.Size > 0 {
			body["size"] = p.Size
		}
		out.Add(http.MethodPost, listPath, body, "create "+p.address())
		return out, nil
	}

	var current account
	if err := client.Get(ctx, accountPath, nil, &current); err != nil {
		return nil, err
	}

	desired := map[string]any{}
	if p.Description != "" {
		desired["description"] = p.Description
	}
	if p.Size > 0 {
		desired["size"] = p.Size
	}
	observed := map[string]any{"description": current.Description, "size": current.Size}
	changed := reconcile.FieldDiff(observed, desired)

	out := &reconcile.Plan{
		Converged: fmt.Sprintf("%s already exists", p.address()),
		Applied:   fmt.Sprintf("%s successfully updated", p.address()),
		Diff:      reconcile.RenderDiff(observed, desired),
		Data:      current,
	}
	if len(changed) > 0 {
		out.Add(http.MethodPut, accountPath, changed,
			fmt.Sprintf("update %s of %s", strings.Join(reconcile.SortedKeys(changed), ", "), p.address()))
	}
	return out, nil
}
