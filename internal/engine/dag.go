package engine

import (
	"fmt"
	"sort"

	"github.com/alexisbeaulieu97/ovhkit/internal/config"
	ovherrors "github.com/alexisbeaulieu97/ovhkit/pkg/errors"
)

// Node is one enabled step in the execution DAG.
type Node struct {
	ID         string
	Step       *config.Step
	DependsOn  []*Node
	Dependents []*Node
}

// Graph holds the DAG and its topological levels.
type Graph struct {
	Nodes  map[string]*Node
	Levels [][]string
}

// NewGraph creates an empty graph.
func NewGraph() *Graph {
	return &Graph{Nodes: make(map[string]*Node)}
}

// AddNode inserts a step as a vertex in the graph.
func (g *Graph) AddNode(step *config.Step) (*Node, error) {
	if step == nil {
		return nil, ovherrors.NewExecutionError("", fmt.Errorf("step cannot be nil"))
	}
	if g.Nodes == nil {
		g.Nodes = make(map[string]*Node)
	}
	if _, exists := g.Nodes[step.ID]; exists {
		return nil, ovherrors.NewValidationError("steps", fmt.Sprintf("duplicate step id %q", step.ID), nil)
	}

	node := &Node{ID: step.ID, Step: step}
	g.Nodes[step.ID] = node
	return node, nil
}

// AddEdge records that to depends on from.
func (g *Graph) AddEdge(from, to string) error {
	source, ok := g.Nodes[from]
	if !ok {
		return ovherrors.NewValidationError("steps", fmt.Sprintf("unknown dependency %q", from), nil)
	}
	target, ok := g.Nodes[to]
	if !ok {
		return ovherrors.NewValidationError("steps", fmt.Sprintf("unknown dependency target %q", to), nil)
	}

	source.Dependents = append(source.Dependents, target)
	target.DependsOn = append(target.DependsOn, source)
	return nil
}

// TopologicalSort groups nodes into levels with Kahn's algorithm. Steps in
// the same level have no dependency on each other. IDs are sorted within a
// level so the order is stable.
func (g *Graph) TopologicalSort() error {
	remaining := make(map[string]int, len(g.Nodes))
	var ready []string
	for id, node := range g.Nodes {
		remaining[id] = len(node.DependsOn)
		if len(node.DependsOn) == 0 {
			ready = append(ready, id)
		}
	}

	var levels [][]string
	processed := 0
	for len(ready) > 0 {
		sort.Strings(ready)
		levels = append(levels, ready)
		processed += len(ready)

		var next []string
		for _, id := range ready {
			for _, dependent := range g.Nodes[id].Dependents {
				remaining[dependent.ID]--
				if remaining[dependent.ID] == 0 {
					next = append(next, dependent.ID)
				}
			}
		}
		ready = next
	}

	if processed != len(g.Nodes) {
		return ovherrors.NewValidationError("steps", "cycle detected while sorting graph", nil)
	}

	g.Levels = levels
	return nil
}

// Order returns every step ID, level by level.
func (g *Graph) Order() []string {
	var out []string
	for _, level := range g.Levels {
		out = append(out, level...)
	}
	return out
}
