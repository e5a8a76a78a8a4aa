package components

import (
	"fmt"
	"strings"
)

// SummaryData aggregates counts for rendering summaries.
type SummaryData struct {
	Total     int
	Completed int
	Changed   int
	Failed    int
	DryRun    bool
	Finished  bool
	Cancelled bool
}

// Summary renders a textual run summary.
type Summary struct {
	data SummaryData
}

// NewSummary creates a new Summary component.
func NewSummary(data SummaryData) Summary {
	return Summary{data: data}
}

// View renders the summary.
func (s Summary) View() string {
	d := s.data
	if d.Total == 0 && !d.Cancelled {
		return ""
	}

	var lines []string
	if d.Total > 0 {
		lines = append(lines, fmt.Sprintf("Steps: %d/%d completed, %d changed, %d failed", d.Completed, d.Total, d.Changed, d.Failed))
	}

	switch {
	case d.Cancelled:
		lines = append(lines, "Run cancelled")
	case !d.Finished:
	case d.Failed > 0:
		lines = append(lines, "Run finished with failures")
	case d.DryRun:
		lines = append(lines, "Dry run finished, no change was made")
	case d.Completed == d.Total:
		lines = append(lines, "Run finished successfully")
	default:
		lines = append(lines, "Run finished with pending steps")
	}

	return strings.Join(lines, "\n")
}
