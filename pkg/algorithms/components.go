package algorithms

import (
	"container/list"
)

// Component is one weakly connected component
type Component struct {
	ID    int
	Nodes []string
	Size  int
}

// ComponentResult contains the components of a graph
type ComponentResult struct {
	Components    []*Component
	NodeComponent map[string]int // Node ID -> Component ID
}

// ConnectedComponents finds the weakly connected components of the graph.
// Edge direction is ignored. Component IDs are assigned in node insertion
// order, so the labelling is stable for a given graph.
func ConnectedComponents(g *Digraph) *ComponentResult {
	visited := make(map[string]bool, g.Len())
	nodeComponent := make(map[string]int, g.Len())
	components := make([]*Component, 0)
	componentID := 0

	// BFS to find each component
	for _, startNode := range g.order {
		if visited[startNode] {
			continue
		}

		component := &Component{
			ID:    componentID,
			Nodes: make([]string, 0),
		}

		queue := list.New()
		queue.PushBack(startNode)
		visited[startNode] = true

		for queue.Len() > 0 {
			nodeID, ok := queue.Remove(queue.Front()).(string)
			if !ok {
				continue
			}
			component.Nodes = append(component.Nodes, nodeID)
			nodeComponent[nodeID] = componentID

			for _, next := range g.Successors(nodeID) {
				if !visited[next] {
					visited[next] = true
					queue.PushBack(next)
				}
			}
			for _, prev := range g.Predecessors(nodeID) {
				if !visited[prev] {
					visited[prev] = true
					queue.PushBack(prev)
				}
			}
		}

		component.Size = len(component.Nodes)
		components = append(components, component)
		componentID++
	}

	return &ComponentResult{
		Components:    components,
		NodeComponent: nodeComponent,
	}
}
