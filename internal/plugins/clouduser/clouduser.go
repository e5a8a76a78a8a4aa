package clouduserplugin

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

const moduleType = "cloud_user"

type params struct {
	ServiceName string `yaml:"service_name" validate:"required"`
	// Description identifies the user, the API names users itself.
	Description string   `yaml:"description,omitempty"`
	Role        string   `yaml:"role,omitempty"`
	Roles       []string `yaml:"roles,omitempty" validate:"omitempty,dive,required"`
	UserID      int64    `yaml:"user_id,omitempty" validate:"omitempty,min=1"`
	State       string   `yaml:"state,omitempty" validate:"omitempty,oneof=present absent"`
}

func (p *params) Validate() error {
	if p.State == string(reconcile.Absent) {
		if p.UserID == 0 && p.Description == "" {
			return errors.New("state absent requires user_id or description")
		}
		return nil
	}
	if p.Description == "" {
		return errors.New("state present requires description")
	}
	if p.Role != "" && len(p.Roles) > 0 {
		return errors.New("role and roles are mutually exclusive")
	}
	return nil
}

type user struct {
	ID          int64  `json:"id"`
	Username    string `json:"username"`
	Description string `json:"description"`
	Status      string `json:"status"`
	// Password is only returned on creation.
	Password string `json:"password,omitempty"`
}

type userPlugin struct{}

// New creates the cloud_user module.
func New() plugin.Plugin {
	return &userPlugin{}
}

func init() {
	plugin.MustRegister(moduleType, New())
}

func (p *userPlugin) PluginMetadata() plugin.PluginMetadata {
	return pluginutil.Metadata(moduleType, "Creates or deletes a public cloud project user.")
}

func (p *userPlugin) Schema() any {
	return params{}
}

func (p *userPlugin) Evaluate(ctx context.Context, step *config.Step) (*model.EvaluationResult, error) {
	return pluginutil.Evaluate(ctx, step, plan)
}

func (p *userPlugin) Apply(ctx context.Context, evalResult *model.EvaluationResult, step *config.Step) (*model.StepResult, error) {
	return pluginutil.Apply(ctx, evalResult, step)
}

func plan(ctx context.Context, client *ovhapi.Client, p *params) (*reconcile.Plan, error) {
	listPath := ovhapi.Path("/cloud/project/%s/user", p.ServiceName)

	var users []user
	if err := client.Get(ctx, listPath, nil, &users); err != nil {
		return nil, err
	}

	var (
		matches []user
		key     string
	)
	if p.UserID != 0 {
		key = fmt.Sprintf("user %d", p.UserID)
		for _, u := range users {
			if u.ID == p.UserID {
				matches = append(matches, u)
			}
		}
	} else {
		key = fmt.Sprintf("user %q", p.Description)
		for _, u := range users {
			if u.Description == p.Description {
				matches = append(matches, u)
			}
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
			u := matches[0]
			out.Data = u
			out.Add(http.MethodDelete, ovhapi.Path("/cloud/project/%s/user/%s", p.ServiceName, fmt.Sprint(u.ID)), nil,
				fmt.Sprintf("delete %s (%s)", key, u.Username))
		}
		return out, nil
	}

	out := &reconcile.Plan{
		Status:    model.StatusMissing,
		Converged: key + " already exists",
		Applied:   key + " created",
	}
	if len(matches) == 1 {
		out.Data = matches[0]
		return out, nil
	}
	if p.UserID != 0 {
		return nil, pluginutil.Refuse("%s does not exist and user ids cannot be chosen", key)
	}

	body := map[string]any{"description": p.Description}
	if p.Role != "" {
		body["role"] = p.Role
	}
	if len(p.Roles) > 0 {
		body["roles"] = p.Roles
	}
	out.Add(http.MethodPost, listPath, body, "create "+key)
	return out, nil
}
