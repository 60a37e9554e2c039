package algorithms

import (
	"slices"
)

// Cycle represents a detected cycle as a sequence of node IDs.
// The first node is repeated implicitly: the last node has an edge back to it.
type Cycle []string

// FindCycle returns the first cycle reachable in node insertion order,
// or nil if the graph is acyclic.
//
// Algorithm: depth-first search with three colors:
//   - WHITE (0): Unvisited node
//   - GRAY (1): Currently visiting (node is in the recursion stack)
//   - BLACK (2): Finished visiting (all descendants have been explored)
//
// Reaching a GRAY node is a back edge, which closes a cycle.
func FindCycle(g *Digraph) Cycle {
	const (
		WHITE = 0
		GRAY  = 1
		BLACK = 2
	)

	color := make(map[string]int, g.Len())
	stack := make([]string, 0)

	var visit func(nodeID string) Cycle
	visit = func(nodeID string) Cycle {
		color[nodeID] = GRAY
		stack = append(stack, nodeID)

		for _, next := range g.Successors(nodeID) {
			switch color[next] {
			case GRAY:
				start := slices.Index(stack, next)
				return slices.Clone(stack[start:])
			case WHITE:
				if c := visit(next); c != nil {
					return c
				}
			}
		}

		stack = stack[:len(stack)-1]
		color[nodeID] = BLACK
		return nil
	}

	// DFS from each unvisited node to cover disconnected components
	for _, nodeID := range g.order {
		if color[nodeID] == WHITE {
			if c := visit(nodeID); c != nil {
				return c
			}
		}
	}
	return nil
}
