package components

import (
	"github.com/alexisbeaulieu97/ovhkit/internal/model"
)

// StepEntry is one row of the step list.
type StepEntry struct {
	ID     string
	Type   string
	Result model.StepResult
}

// StepList keeps steps in plan order.
type StepList struct {
	entries []StepEntry
}

// NewStepList constructs a step list component. types maps step IDs to module types.
func NewStepList(order []string, steps map[string]model.StepResult, types map[string]string) StepList {
	entries := make([]StepEntry, 0, len(order))
	for _, id := range order {
		entries = append(entries, StepEntry{ID: id, Type: types[id], Result: steps[id]})
	}
	return StepList{entries: entries}
}

// Entries returns the ordered step entries.
func (s StepList) Entries() []StepEntry {
	return append([]StepEntry(nil), s.entries...)
}

// Count returns how many entries have the given status.
func (s StepList) Count(status string) int {
	n := 0
	for _, e := range s.entries {
		if e.Result.Status == status {
			n++
		}
	}
	return n
}
