package engine

import (
	"fmt"

	"github.com/alexisbeaulieu97/ovhkit/internal/config"
	ovherrors "github.com/alexisbeaulieu97/ovhkit/pkg/errors"
)

// BuildDAG constructs the execution graph of the enabled steps. Dependencies
// on disabled steps are dropped.
func BuildDAG(steps []config.Step) (*Graph, error) {
	graph := NewGraph()
	disabled := make(map[string]bool)

	for i := range steps {
		step := &steps[i]
		if !step.Enabled {
			disabled[step.ID] = true
			continue
		}
		if _, err := graph.AddNode(step); err != nil {
			return nil, err
		}
	}

	for _, step := range steps {
		if !step.Enabled {
			continue
		}
		for _, dependency := range step.DependsOn {
			if disabled[dependency] {
				continue
			}
			if _, ok := graph.Nodes[dependency]; !ok {
				return nil, ovherrors.NewValidationError("steps", fmt.Sprintf("step %q depends on unknown step %q", step.ID, dependency), nil)
			}
			if err := graph.AddEdge(dependency, step.ID); err != nil {
				return nil, err
			}
		}
	}

	if err := graph.TopologicalSort(); err != nil {
		return nil, err
	}
	return graph, nil
}
