package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/alexisbeaulieu97/ovhkit/internal/model"
	"github.com/alexisbeaulieu97/ovhkit/internal/tui/components"
)

// View renders the current state of the model.
func (m Model) View() string {
	var sections []string

	heading := m.title()
	if m.dryRun {
		heading += " (dry run)"
	}
	sections = append(sections, titleStyle.Render("ovhkit · "+heading))

	sections = append(sections, sectionStyle.Render("Progress"), components.NewProgress(m.total).View(m.completed))

	entries := components.NewStepList(m.order, m.steps, m.types).Entries()
	if len(entries) > 0 {
		sections = append(sections, sectionStyle.Render("Steps"), m.renderStepEntries(entries))
	}

	summary := components.NewSummary(components.SummaryData{
		Total:     m.total,
		Completed: m.completed,
		Changed:   m.changed,
		Failed:    m.failed,
		DryRun:    m.dryRun,
		Finished:  m.finished,
		Cancelled: m.cancelled,
	}).View()
	if strings.TrimSpace(summary) != "" {
		sections = append(sections, sectionStyle.Render("Summary"), summaryStyle.Render(summary))
	}

	if m.err != nil {
		sections = append(sections, failureStyle.Render(m.err.Error()))
	}

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m Model) renderStepEntries(entries []components.StepEntry) string {
	lines := make([]string, 0, len(entries))
	for _, entry := range entries {
		res := entry.Result
		name := entry.ID
		if label := m.labels[entry.ID]; label != "" {
			name = label + " (" + entry.ID + ")"
		}
		icon := StatusIcon(res.Status)
		if res.Status == model.StatusRunning {
			icon = m.spinner.View()
		}
		line := fmt.Sprintf(" %s %s", icon, name)
		if entry.Type != "" {
			line += typeStyle.Render(" [" + entry.Type + "]")
		}
		if res.Changed {
			line += changedStyle.Render(" changed")
		}
		if msg := strings.TrimSpace(res.Message); msg != "" {
			line += ": " + msg
		}
		if res.Duration > 0 {
			line += fmt.Sprintf(" (%s)", res.Duration.Truncate(10*time.Millisecond))
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

func (m Model) title() string {
	if m.cfg != nil && strings.TrimSpace(m.cfg.Name) != "" {
		return m.cfg.Name
	}
	return "Run"
}

// StatusIcon returns the glyph representing a step status.
func StatusIcon(status string) string {
	switch status {
	case model.StatusSuccess:
		return successStyle.Render("✓")
	case model.StatusRunning:
		return runningStyle.Render("⏳")
	case model.StatusFailed:
		return failureStyle.Render("✗")
	case model.StatusSkipped:
		return skippedStyle.Render("⊘")
	case model.StatusWouldCreate:
		return pendingStyle.Render("✱")
	case model.StatusWouldUpdate:
		return pendingStyle.Render("↻")
	default:
		return pendingStyle.Render("…")
	}
}
