package algorithms

import (
	"slices"
)

// Digraph is a directed graph keyed by string node IDs.
// Parallel edges collapse into one; node insertion order is preserved so
// every traversal over the graph is deterministic.
type Digraph struct {
	order []string
	out   map[string]map[string]struct{}
	in    map[string]map[string]struct{}
}

// NewDigraph creates an empty directed graph
func NewDigraph() *Digraph {
	return &Digraph{
		order: make([]string, 0),
		out:   make(map[string]map[string]struct{}),
		in:    make(map[string]map[string]struct{}),
	}
}

// AddNode adds a node if it does not exist yet
func (g *Digraph) AddNode(id string) {
	if _, ok := g.out[id]; ok {
		return
	}
	g.order = append(g.order, id)
	g.out[id] = make(map[string]struct{})
	g.in[id] = make(map[string]struct{})
}

// AddEdge adds a directed edge from -> to, creating missing endpoints
func (g *Digraph) AddEdge(from, to string) {
	g.AddNode(from)
	g.AddNode(to)
	g.out[from][to] = struct{}{}
	g.in[to][from] = struct{}{}
}

// HasNode reports whether id is part of the graph
func (g *Digraph) HasNode(id string) bool {
	_, ok := g.out[id]
	return ok
}

// Len returns the number of nodes
func (g *Digraph) Len() int {
	return len(g.order)
}

// Successors returns the sorted targets of id's outgoing edges
func (g *Digraph) Successors(id string) []string {
	return sortedKeys(g.out[id])
}

// Predecessors returns the sorted sources of id's incoming edges
func (g *Digraph) Predecessors(id string) []string {
	return sortedKeys(g.in[id])
}

// InDegree returns the number of distinct predecessors of id
func (g *Digraph) InDegree(id string) int {
	return len(g.in[id])
}

// OutDegree returns the number of distinct successors of id
func (g *Digraph) OutDegree(id string) int {
	return len(g.out[id])
}

// RemoveNode deletes id and every edge touching it
func (g *Digraph) RemoveNode(id string) {
	if !g.HasNode(id) {
		return
	}
	for to := range g.out[id] {
		delete(g.in[to], id)
	}
	for from := range g.in[id] {
		delete(g.out[from], id)
	}
	delete(g.out, id)
	delete(g.in, id)
	g.order = slices.DeleteFunc(g.order, func(n string) bool { return n == id })
}

// Clone returns an independent copy of the graph
func (g *Digraph) Clone() *Digraph {
	c := NewDigraph()
	for _, id := range g.order {
		c.AddNode(id)
	}
	for _, from := range g.order {
		for to := range g.out[from] {
			c.AddEdge(from, to)
		}
	}
	return c
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
