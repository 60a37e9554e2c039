package algorithms

import (
	"errors"
	"fmt"
	"strings"
)

// ErrCycle is returned when an ordering is requested for a cyclic graph
var ErrCycle = errors.New("graph contains cycles")

// Sources returns the nodes with in-degree 0, in insertion order
func Sources(g *Digraph) []string {
	ready := make([]string, 0)
	for _, nodeID := range g.order {
		if g.InDegree(nodeID) == 0 {
			ready = append(ready, nodeID)
		}
	}
	return ready
}

// TopologicalSort returns nodes in topological order using Kahn's algorithm.
// Ties are broken by insertion order. The ordering ensures that for every
// directed edge u->v, u comes before v.
func TopologicalSort(g *Digraph) ([]string, error) {
	if cycle := FindCycle(g); cycle != nil {
		return nil, fmt.Errorf("%w: %s", ErrCycle, cycle)
	}

	inDegree := make(map[string]int, g.Len())
	for _, nodeID := range g.order {
		inDegree[nodeID] = g.InDegree(nodeID)
	}

	queue := Sources(g)
	sorted := make([]string, 0, g.Len())

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		sorted = append(sorted, current)

		for _, next := range g.Successors(current) {
			inDegree[next]--
			if inDegree[next] == 0 {
				queue = append(queue, next)
			}
		}
	}

	if len(sorted) != g.Len() {
		return nil, fmt.Errorf("%w: unexpected cycle detected during sort", ErrCycle)
	}
	return sorted, nil
}

// String renders the cycle as "a -> b -> a"
func (c Cycle) String() string {
	if len(c) == 0 {
		return ""
	}
	return strings.Join(append(append([]string{}, c...), c[0]), " -> ")
}
