package engine

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/alexisbeaulieu97/ovhkit/internal/config"
	"github.com/alexisbeaulieu97/ovhkit/internal/model"
	"github.com/alexisbeaulieu97/ovhkit/internal/ovhapi"
	"github.com/alexisbeaulieu97/ovhkit/internal/plugin"
)

const fakeType = "dns_zone_refresh"

func step(id string, deps ...string) config.Step {
	return config.Step{ID: id, Type: fakeType, Enabled: true, DependsOn: deps}
}

// fakeModule converges a step on its first Apply.
type fakeModule struct {
	mu        sync.Mutex
	converged map[string]bool
	missing   map[string]bool
	applied   []string
	evaluated []string
	failStep  string
	stateErr  string
	delay     time.Duration
	sawClient bool
}

func newFakeModule() *fakeModule {
	return &fakeModule{converged: map[string]bool{}, missing: map[string]bool{}}
}

func registerFake(t *testing.T, m *fakeModule) {
	t.Helper()
	plugin.ResetRegistry()
	t.Cleanup(plugin.ResetRegistry)
	require.NoError(t, plugin.RegisterPlugin(fakeType, m))
}

func (m *fakeModule) PluginMetadata() plugin.PluginMetadata {
	return plugin.PluginMetadata{Name: fakeType, Version: "1.0.0", APIVersion: "1.x"}
}

func (m *fakeModule) Schema() any { return nil }

func (m *fakeModule) Evaluate(ctx context.Context, step *config.Step) (*model.EvaluationResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.evaluated = append(m.evaluated, step.ID)
	if _, err := ovhapi.FromContext(ctx); err == nil {
		m.sawClient = true
	}

	if m.stateErr == step.ID {
		return nil, plugin.NewStateError(step.ID, errors.New("2 records match"))
	}
	if m.converged[step.ID] {
		return &model.EvaluationResult{StepID: step.ID, CurrentState: model.StatusSatisfied, Message: "up to date"}, nil
	}
	status := model.StatusDrifted
	if m.missing[step.ID] {
		status = model.StatusMissing
	}
	return &model.EvaluationResult{StepID: step.ID, CurrentState: status, RequiresAction: true, Message: "refresh zone", Diff: "-a\n+b\n"}, nil
}

func (m *fakeModule) Apply(ctx context.Context, _ *model.EvaluationResult, step *config.Step) (*model.StepResult, error) {
	if m.delay > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(m.delay):
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.applied = append(m.applied, step.ID)
	if m.failStep == step.ID {
		return nil, errors.New("POST [fake] /domain/zone/example.com/refresh: internal error")
	}
	m.converged[step.ID] = true
	return &model.StepResult{StepID: step.ID, Status: model.StatusSuccess, Changed: true, Message: "zone refreshed"}, nil
}

func (m *fakeModule) appliedSteps() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.applied...)
}
