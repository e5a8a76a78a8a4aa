package tui

import "github.com/charmbracelet/lipgloss"

var (
	brand = lipgloss.AdaptiveColor{Light: "#000e9c", Dark: "#4d8dff"}

	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(brand)
	sectionStyle = lipgloss.NewStyle().Bold(true).Foreground(brand).MarginTop(1)
	summaryStyle = lipgloss.NewStyle().MarginTop(1)
	typeStyle    = lipgloss.NewStyle().Faint(true)

	// Step states.
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	changedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	runningStyle = lipgloss.NewStyle().Foreground(brand)
	failureStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	skippedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	pendingStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)
