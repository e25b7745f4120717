package plugin

import (
	"fmt"
	"strings"
)

// CycleError reports an unbreakable dependency cycle within one phase.
// Cycle lists the plugin names along the cycle, first repeated last.
type CycleError struct {
	Phase Phase
	Cycle []string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("plugin: dependency cycle in %s: %s", e.Phase, strings.Join(e.Cycle, " -> "))
}

// Order returns the plugins of one phase in execution order: dependencies
// inferred from produces/consumes plus explicit Dependencies, topologically
// sorted with Kahn's algorithm, ties broken by position in the input
// (registration order). Dependency names not present in the input —
// cross-phase references — are ignored.
func Order(phase Phase, plugins []Plugin) ([]Plugin, error) {
	if len(plugins) == 0 {
		return nil, nil
	}

	index := make(map[string]int, len(plugins))
	for i, p := range plugins {
		index[p.Metadata().Name] = i
	}

	producers := make(map[string][]int)
	for i, p := range plugins {
		for _, e := range p.Metadata().Produces {
			producers[e] = append(producers[e], i)
		}
	}

	// deps[b] is the set of plugin indices that must run before b.
	deps := make([]map[int]bool, len(plugins))
	for b, p := range plugins {
		deps[b] = make(map[int]bool)
		md := p.Metadata()
		for _, e := range md.Consumes {
			for _, a := range producers[e] {
				if a != b {
					deps[b][a] = true
				}
			}
		}
		for _, name := range md.Dependencies {
			if a, ok := index[name]; ok && a != b {
				deps[b][a] = true
			}
		}
	}

	indegree := make([]int, len(plugins))
	dependents := make([][]int, len(plugins))
	for b := range deps {
		indegree[b] = len(deps[b])
		for a := range deps[b] {
			dependents[a] = append(dependents[a], b)
		}
	}

	// Kahn with a ready list kept in input order for the deterministic
	// tie-break.
	var ready []int
	for i := range plugins {
		if indegree[i] == 0 {
			ready = append(ready, i)
		}
	}

	ordered := make([]Plugin, 0, len(plugins))
	done := make([]bool, len(plugins))
	for len(ready) > 0 {
		next := ready[0]
		for _, i := range ready[1:] {
			if i < next {
				next = i
			}
		}
		for k, i := range ready {
			if i == next {
				ready = append(ready[:k], ready[k+1:]...)
				break
			}
		}
		done[next] = true
		ordered = append(ordered, plugins[next])
		for _, b := range dependents[next] {
			indegree[b]--
			if indegree[b] == 0 {
				ready = append(ready, b)
			}
		}
	}

	if len(ordered) < len(plugins) {
		return nil, &CycleError{Phase: phase, Cycle: findCycle(plugins, deps, done)}
	}
	return ordered, nil
}

// findCycle walks dependency edges among the unsorted remainder until a
// name repeats, yielding ["A", "B", "A"]-style output.
func findCycle(plugins []Plugin, deps []map[int]bool, done []bool) []string {
	start := -1
	for i := range plugins {
		if !done[i] {
			start = i
			break
		}
	}
	if start < 0 {
		return nil
	}

	seenAt := map[int]int{}
	var path []int
	cur := start
	for {
		if at, seen := seenAt[cur]; seen {
			loop := append(append([]int(nil), path[at:]...), cur)
			names := make([]string, len(loop))
			for i, idx := range loop {
				names[i] = plugins[idx].Metadata().Name
			}
			return names
		}
		seenAt[cur] = len(path)
		path = append(path, cur)
		advanced := false
		for a := range deps[cur] {
			if !done[a] {
				cur = a
				advanced = true
				break
			}
		}
		if !advanced {
			return nil
		}
	}
}
