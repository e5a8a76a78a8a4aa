package engine

import (
	"fmt"
	"strings"
)

// ExecutionPlan lists the steps of a playbook grouped by dependency level.
type ExecutionPlan struct {
	Levels []ExecutionLevel
}

// ExecutionLevel is a set of steps that can run concurrently.
type ExecutionLevel struct {
	StepIDs []string
}

// GeneratePlan converts a DAG into an execution plan grouped by level.
func GeneratePlan(graph *Graph) (*ExecutionPlan, error) {
	if graph == nil {
		return nil, fmt.Errorf("graph cannot be nil")
	}

	levels := make([]ExecutionLevel, 0, len(graph.Levels))
	for _, ids := range graph.Levels {
		levels = append(levels, ExecutionLevel{StepIDs: append([]string(nil), ids...)})
	}
	return &ExecutionPlan{Levels: levels}, nil
}

// StepCount returns the number of steps in the plan.
func (p *ExecutionPlan) StepCount() int {
	if p == nil {
		return 0
	}
	n := 0
	for _, level := range p.Levels {
		n += len(level.StepIDs)
	}
	return n
}

// String renders a human readable summary of the plan.
func (p *ExecutionPlan) String() string {
	if p == nil {
		return ""
	}

	var b strings.Builder
	for i, level := range p.Levels {
		fmt.Fprintf(&b, "Level %d (%d steps): %s\n", i, len(level.StepIDs), strings.Join(level.StepIDs, ", "))
	}
	return b.String()
}
