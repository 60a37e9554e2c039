package planner

import (
	"fmt"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dd0wney/cluso-patchplan/pkg/infra"
)

type nodeOpt func(*infra.Node)

func svc(name string) nodeOpt { return func(n *infra.Node) { n.Service = name } }
func crit(c int) nodeOpt      { return func(n *infra.Node) { n.Criticality = c } }
func sev(s float64) nodeOpt   { return func(n *infra.Node) { n.Patch.Severity = s } }
func minUp(m int) nodeOpt     { return func(n *infra.Node) { n.MinUp = infra.IntPtr(m) } }
func unpatchable() nodeOpt    { return func(n *infra.Node) { n.Patchable = false } }

func node(id string, opts ...nodeOpt) infra.Node {
	n := infra.NewNode(id, infra.ServiceInstance)
	for _, opt := range opts {
		opt(&n)
	}
	return n
}

func edge(src, dst string, c infra.Compatibility) infra.Edge {
	return infra.Edge{Source: src, Target: dst, Compatibility: c}
}

func scenario(nodes []infra.Node, edges ...infra.Edge) *infra.Scenario {
	return &infra.Scenario{Name: "test", MinUpDefault: 0, Nodes: nodes, Edges: edges}
}

func mustGraph(t *testing.T, sc *infra.Scenario) *infra.Graph {
	t.Helper()
	g, err := infra.BuildGraph(sc)
	require.NoError(t, err)
	return g
}

func generate(t *testing.T, s Strategy, sc *infra.Scenario) *infra.Plan {
	t.Helper()
	plan, err := s.Generate(sc, mustGraph(t, sc))
	require.NoError(t, err)
	return plan
}

func stepNodes(plan *infra.Plan) [][]string {
	out := make([][]string, 0, len(plan.Steps))
	for _, step := range plan.Steps {
		out = append(out, step.NodeIDs)
	}
	return out
}

func stepIDs(plan *infra.Plan) []string {
	out := make([]string, 0, len(plan.Steps))
	for _, step := range plan.Steps {
		out = append(out, step.StepID)
	}
	return out
}

// randomScenario builds a reproducible scenario of n nodes spread over a few
// services, with random compatibility edges pointing from higher to lower
// node index.
func randomScenario(n int, seed uint64) *infra.Scenario {
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	compat := []infra.Compatibility{infra.Compatible, infra.Degraded, infra.Incompatible}

	nodes := make([]infra.Node, 0, n)
	for i := 0; i < n; i++ {
		nd := infra.NewNode(fmt.Sprintf("n%02d", i), infra.ServiceInstance)
		nd.Service = fmt.Sprintf("svc-%d", rng.IntN(3))
		nd.Criticality = 1 + rng.IntN(5)
		nd.Patch.Severity = float64(rng.IntN(11))
		nd.Patch.DurationSeconds = rng.IntN(120)
		nd.Patchable = rng.IntN(6) != 0
		nodes = append(nodes, nd)
	}

	edges := make([]infra.Edge, 0)
	for i := 1; i < n; i++ {
		if rng.IntN(2) == 0 {
			continue
		}
		j := rng.IntN(i)
		edges = append(edges, edge(nodes[i].ID, nodes[j].ID, compat[rng.IntN(len(compat))]))
	}

	return &infra.Scenario{Name: "random", Seed: int64(seed), Nodes: nodes, Edges: edges}
}
