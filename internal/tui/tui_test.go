package tui

import (
	"errors"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/require"

	"github.com/alexisbeaulieu97/ovhkit/internal/config"
	"github.com/alexisbeaulieu97/ovhkit/internal/engine"
	"github.com/alexisbeaulieu97/ovhkit/internal/model"
)

func testModel(dryRun bool) Model {
	cfg := &config.Config{
		Name: "Rescue boot",
		Steps: []config.Step{
			{ID: "boot", Label: "Rescue mode", Type: "dedicated_server_boot"},
			{ID: "wait", Type: "dedicated_server_task_wait"},
		},
	}
	plan := &engine.ExecutionPlan{Levels: []engine.ExecutionLevel{{StepIDs: []string{"boot"}}, {StepIDs: []string{"wait"}}}}
	return NewModel(cfg, plan, dryRun)
}

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	return next.(Model), cmd
}

func TestNewModel(t *testing.T) {
	m := testModel(false)
	require.Equal(t, 2, m.TotalSteps())
	require.Zero(t, m.CompletedSteps())
	require.Equal(t, []string{"boot", "wait"}, m.order)
	require.Equal(t, model.StatusPending, m.steps["boot"].Status)
	require.NotNil(t, m.Init())
}

func TestUpdate_TracksResults(t *testing.T) {
	m := testModel(false)

	m, _ = update(t, m, StepStartMsg{ID: "boot", Time: time.Now()})
	require.Equal(t, model.StatusRunning, m.steps["boot"].Status)

	done := StepCompleteMsg{Result: model.StepResult{StepID: "boot", Status: model.StatusSuccess, Changed: true, Message: "boot set to rescue"}}
	m, _ = update(t, m, done)
	m, _ = update(t, m, done)
	require.Equal(t, 1, m.CompletedSteps())
	require.Equal(t, 1, m.changed)

	m, _ = update(t, m, StepCompleteMsg{Result: model.StepResult{StepID: "wait", Status: model.StatusFailed, Message: "ovhError"}})
	require.Equal(t, 1, m.failed)
	require.Equal(t, 2, m.CompletedSteps())
	require.False(t, m.IsFinished())

	m, cmd := update(t, m, RunFinishedMsg{Err: errors.New("execution error on step wait")})
	require.True(t, m.IsFinished())
	require.Error(t, m.Err())
	require.NotNil(t, cmd)
}

func TestUpdate_CtrlCCancels(t *testing.T) {
	m, cmd := update(t, testModel(false), tea.KeyMsg{Type: tea.KeyCtrlC})
	require.True(t, m.Cancelled())
	require.True(t, m.IsFinished())
	require.NotNil(t, cmd)
}

func TestUpdate_IgnoresAnonymousResult(t *testing.T) {
	m, _ := update(t, testModel(false), StepCompleteMsg{})
	require.Zero(t, m.CompletedSteps())
}

func TestView(t *testing.T) {
	m := testModel(true)
	m, _ = update(t, m, StepCompleteMsg{Result: model.StepResult{StepID: "boot", Status: model.StatusWouldUpdate, Message: "set bootId 1 -> 1122"}})
	m, _ = update(t, m, RunFinishedMsg{})

	view := m.View()
	require.Contains(t, view, "Rescue boot (dry run)")
	require.Contains(t, view, "dedicated_server_boot")
	require.Contains(t, view, "Rescue mode (boot)")
	require.Contains(t, view, "set bootId 1 -> 1122")
	require.Contains(t, view, "1/2")
}

func TestStatusIcon(t *testing.T) {
	t.Parallel()
	for _, status := range []string{model.StatusSuccess, model.StatusRunning, model.StatusFailed, model.StatusSkipped, model.StatusWouldCreate, model.StatusWouldUpdate, model.StatusPending} {
		require.NotEmpty(t, StatusIcon(status))
	}
}

func TestUpdate_SpinnerStopsWhenFinished(t *testing.T) {
	m := testModel(false)
	m, _ = update(t, m, StepStartMsg{ID: "wait", Time: time.Now()})

	m, cmd := update(t, m, m.spinner.Tick())
	require.NotNil(t, cmd)
	require.Contains(t, m.View(), m.spinner.View()+" wait")

	m, _ = update(t, m, RunFinishedMsg{})
	_, cmd = update(t, m, m.spinner.Tick())
	require.Nil(t, cmd)
}
