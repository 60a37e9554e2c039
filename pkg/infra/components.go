package infra

import (
	"strconv"

	"github.com/dd0wney/cluso-patchplan/pkg/algorithms"
)

// Components maps node IDs to their incompatibility component ID
type Components map[string]int

// IncompatibleComponents partitions the nodes into connected components of
// the undirected subgraph formed by INCOMPATIBLE edges only. Two nodes share
// a component iff a path of INCOMPATIBLE edges joins them; every other node
// is a singleton. IDs are assigned in node declaration order.
func IncompatibleComponents(g *Graph, edges []Edge) Components {
	undirected := algorithms.NewDigraph()
	for _, id := range g.order {
		undirected.AddNode(id)
	}
	for _, edge := range edges {
		if edge.Compatibility == Incompatible {
			undirected.AddEdge(edge.Source, edge.Target)
		}
	}

	result := algorithms.ConnectedComponents(undirected)
	return Components(result.NodeComponent)
}

// Key returns the grouping key for a node: its component ID, or the node's
// own ID when it is not part of the mapping.
func (c Components) Key(id string) string {
	if comp, ok := c[id]; ok {
		return strconv.Itoa(comp)
	}
	return id
}

// Group buckets the given node IDs by component key, keeping input order
// within each bucket. The returned keys are in first-seen order.
func (c Components) Group(ids []string) (keys []string, groups map[string][]string) {
	groups = make(map[string][]string)
	for _, id := range ids {
		key := c.Key(id)
		if _, seen := groups[key]; !seen {
			keys = append(keys, key)
		}
		groups[key] = append(groups[key], id)
	}
	return keys, groups
}
