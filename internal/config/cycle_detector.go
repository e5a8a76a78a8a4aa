package config

import (
	"slices"
	"sort"
)

// detectCycle returns the step ids forming a dependency cycle, first id
// repeated at the end, or nil when the enabled steps form a DAG.
func detectCycle(steps []Step) []string {
	graph := make(map[string][]string, len(steps))
	for _, step := range steps {
		if step.Enabled {
			graph[step.ID] = nil
		}
	}
	for _, step := range steps {
		if !step.Enabled {
			continue
		}
		for _, dep := range step.DependsOn {
			if _, ok := graph[dep]; ok {
				graph[step.ID] = append(graph[step.ID], dep)
			}
		}
	}

	const (
		unseen = iota
		onStack
		done
	)
	state := make(map[string]int, len(graph))
	var stack, cycle []string

	var visit func(id string) bool
	visit = func(id string) bool {
		state[id] = onStack
		stack = append(stack, id)
		for _, dep := range graph[id] {
			switch state[dep] {
			case onStack:
				start := slices.Index(stack, dep)
				cycle = append(slices.Clone(stack[start:]), dep)
				return true
			case unseen:
				if visit(dep) {
					return true
				}
			}
		}
		stack = stack[:len(stack)-1]
		state[id] = done
		return false
	}

	ids := make([]string, 0, len(graph))
	for id := range graph {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		if state[id] == unseen && visit(id) {
			return cycle
		}
	}
	return nil
}
