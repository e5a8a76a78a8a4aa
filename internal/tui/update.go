package tui

import (
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/alexisbeaulieu97/ovhkit/internal/model"
)

// Update handles bubbletea messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case spinner.TickMsg:
		if m.finished {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case StepStartMsg:
		m.ensureStep(msg.ID)
		step := m.steps[msg.ID]
		step.Status = model.StatusRunning
		m.steps[msg.ID] = step
		return m, nil
	case StepCompleteMsg:
		id := msg.Result.StepID
		if id == "" {
			return m, nil
		}
		m.ensureStep(id)
		if !m.steps[id].IsTerminal() {
			m.completed++
			if msg.Result.Changed {
				m.changed++
			}
			if msg.Result.Status == model.StatusFailed {
				m.failed++
			}
		}
		m.steps[id] = msg.Result
		return m, nil
	case RunFinishedMsg:
		m.finished = true
		m.err = msg.Err
		return m, tea.Quit
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.String() == "q" {
			m.cancelled = true
			m.finished = true
			return m, tea.Quit
		}
	}

	return m, nil
}
