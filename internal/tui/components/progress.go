package components

import (
	"fmt"
	"math"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"
)

// Progress renders how many steps of the playbook have finished.
type Progress struct {
	bar   progress.Model
	total int
}

// NewProgress creates a progress component for the given total.
func NewProgress(total int) Progress {
	bar := progress.New(progress.WithDefaultGradient(), progress.WithoutPercentage())
	bar.Width = 30
	return Progress{bar: bar, total: total}
}

// Ratio returns the completed fraction, capped at 1.
func (p Progress) Ratio(completed int) float64 {
	if p.total <= 0 {
		return 0
	}
	return math.Min(1.0, float64(completed)/float64(p.total))
}

// View renders the bar for the provided completion count.
func (p Progress) View(completed int) string {
	label := lipgloss.NewStyle().Bold(true).Render(fmt.Sprintf("%d/%d", completed, p.total))
	return lipgloss.JoinHorizontal(lipgloss.Left, label, " ", p.bar.ViewAs(p.Ratio(completed)))
}
