package infra

import (
	"errors"
	"fmt"
	"slices"

	"github.com/dd0wney/cluso-patchplan/pkg/algorithms"
)

var (
	// ErrDuplicateNode is returned when two nodes share an ID
	ErrDuplicateNode = errors.New("duplicate node id")
	// ErrUnknownEndpoint is returned when an edge references a missing node
	ErrUnknownEndpoint = errors.New("edge references unknown node")
)

// Graph is the dependency graph of one scenario together with the mutable
// per-node health and version state. A Graph is owned by at most one
// simulation engine at a time; use Clone to give each run its own copy.
type Graph struct {
	order []string
	nodes map[string]*Node
	edges []Edge
	topo  *algorithms.Digraph
}

// BuildGraph constructs the graph for a scenario. Node values are copied,
// so simulating against the graph never mutates the scenario.
func BuildGraph(scenario *Scenario) (*Graph, error) {
	g := &Graph{
		order: make([]string, 0, len(scenario.Nodes)),
		nodes: make(map[string]*Node, len(scenario.Nodes)),
		edges: slices.Clone(scenario.Edges),
		topo:  algorithms.NewDigraph(),
	}

	for i := range scenario.Nodes {
		node := scenario.Nodes[i]
		if _, exists := g.nodes[node.ID]; exists {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateNode, node.ID)
		}
		g.order = append(g.order, node.ID)
		g.nodes[node.ID] = &node
		g.topo.AddNode(node.ID)
	}

	for _, edge := range scenario.Edges {
		for _, id := range []string{edge.Source, edge.Target} {
			if _, ok := g.nodes[id]; !ok {
				return nil, fmt.Errorf("%w: %s (edge %s -> %s)", ErrUnknownEndpoint, id, edge.Source, edge.Target)
			}
		}
		g.topo.AddEdge(edge.Source, edge.Target)
	}

	return g, nil
}

// Node returns the node with the given ID
func (g *Graph) Node(id string) (*Node, bool) {
	n, ok := g.nodes[id]
	return n, ok
}

// NodeIDs returns all node IDs in declaration order
func (g *Graph) NodeIDs() []string {
	return slices.Clone(g.order)
}

// Nodes returns all nodes in declaration order
func (g *Graph) Nodes() []*Node {
	nodes := make([]*Node, 0, len(g.order))
	for _, id := range g.order {
		nodes = append(nodes, g.nodes[id])
	}
	return nodes
}

// PatchableIDs returns the IDs of patchable nodes in declaration order
func (g *Graph) PatchableIDs() []string {
	ids := make([]string, 0, len(g.order))
	for _, id := range g.order {
		if g.nodes[id].Patchable {
			ids = append(ids, id)
		}
	}
	return ids
}

// Edges returns the scenario edges in declaration order
func (g *Graph) Edges() []Edge {
	return g.edges
}

// Len returns the number of nodes
func (g *Graph) Len() int {
	return len(g.order)
}

// InDegree returns the number of distinct nodes with an edge into id
func (g *Graph) InDegree(id string) int {
	return g.topo.InDegree(id)
}

// OutDegree returns the number of distinct nodes id has an edge to
func (g *Graph) OutDegree(id string) int {
	return g.topo.OutDegree(id)
}

// Health returns a snapshot of every node's health
func (g *Graph) Health() map[string]HealthState {
	snapshot := make(map[string]HealthState, len(g.order))
	for _, id := range g.order {
		snapshot[id] = g.nodes[id].Health
	}
	return snapshot
}

// Versions returns a snapshot of every node's version
func (g *Graph) Versions() map[string]string {
	snapshot := make(map[string]string, len(g.order))
	for _, id := range g.order {
		snapshot[id] = g.nodes[id].Version
	}
	return snapshot
}

// Clone returns a deep copy with independent node state
func (g *Graph) Clone() *Graph {
	c := &Graph{
		order: slices.Clone(g.order),
		nodes: make(map[string]*Node, len(g.nodes)),
		edges: slices.Clone(g.edges),
		topo:  g.topo.Clone(),
	}
	for id, n := range g.nodes {
		node := *n
		c.nodes[id] = &node
	}
	return c
}
