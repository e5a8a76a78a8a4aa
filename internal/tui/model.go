// Package tui renders a live view of a playbook run with bubbletea.
package tui

import (
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/alexisbeaulieu97/ovhkit/internal/config"
	"github.com/alexisbeaulieu97/ovhkit/internal/engine"
	"github.com/alexisbeaulieu97/ovhkit/internal/model"
)

// StepStartMsg indicates a step has started executing.
type StepStartMsg struct {
	ID   string
	Time time.Time
}

// StepCompleteMsg reports that a step has finished.
type StepCompleteMsg struct {
	Result model.StepResult
}

// RunFinishedMsg is sent once the engine returns.
type RunFinishedMsg struct {
	Err error
}

// Model is the bubbletea state of the apply view.
type Model struct {
	cfg       *config.Config
	plan      *engine.ExecutionPlan
	steps     map[string]model.StepResult
	types     map[string]string
	labels    map[string]string
	spinner   spinner.Model
	order     []string
	total     int
	completed int
	changed   int
	failed    int
	dryRun    bool
	finished  bool
	cancelled bool
	err       error
}

// NewModel constructs the view for cfg and its plan.
func NewModel(cfg *config.Config, plan *engine.ExecutionPlan, dryRun bool) Model {
	m := Model{
		cfg:    cfg,
		plan:   plan,
		steps:  make(map[string]model.StepResult),
		types:  make(map[string]string),
		labels: make(map[string]string),
		dryRun: dryRun,
	}
	m.spinner = spinner.New(spinner.WithSpinner(spinner.MiniDot), spinner.WithStyle(runningStyle))

	if cfg != nil {
		for _, step := range cfg.Steps {
			m.types[step.ID] = step.Type
			m.labels[step.ID] = step.Label
		}
	}

	if plan != nil {
		for _, level := range plan.Levels {
			for _, id := range level.StepIDs {
				m.ensureStep(id)
			}
		}
	}

	return m
}

// Init starts the spinner of running steps.
func (m Model) Init() tea.Cmd {
	return m.spinner.Tick
}

// TotalSteps returns the number of steps tracked by the model.
func (m Model) TotalSteps() int {
	return m.total
}

// CompletedSteps returns the number of finished steps.
func (m Model) CompletedSteps() int {
	return m.completed
}

// IsFinished reports whether the run has ended.
func (m Model) IsFinished() bool {
	return m.finished
}

// Cancelled reports whether the user interrupted the run.
func (m Model) Cancelled() bool {
	return m.cancelled
}

// Err returns the engine error, if any.
func (m Model) Err() error {
	return m.err
}

func (m *Model) ensureStep(id string) {
	if id == "" {
		return
	}
	if _, exists := m.steps[id]; !exists {
		m.steps[id] = model.StepResult{StepID: id, Status: model.StatusPending}
		m.order = append(m.order, id)
		m.total++
	}
}
