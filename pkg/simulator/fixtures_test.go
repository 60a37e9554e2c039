package simulator

import (
	"fmt"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dd0wney/cluso-patchplan/pkg/infra"
)

type nodeOpt func(*infra.Node)

func svc(name string) nodeOpt    { return func(n *infra.Node) { n.Service = name } }
func crit(c int) nodeOpt         { return func(n *infra.Node) { n.Criticality = c } }
func sev(s float64) nodeOpt      { return func(n *infra.Node) { n.Patch.Severity = s } }
func dur(d int) nodeOpt          { return func(n *infra.Node) { n.Patch.DurationSeconds = d } }
func reboot() nodeOpt            { return func(n *infra.Node) { n.Patch.RequiresReboot = true } }
func restart() nodeOpt           { return func(n *infra.Node) { n.Patch.RequiresRestart = true } }
func failProb(p float64) nodeOpt { return func(n *infra.Node) { n.Patch.FailureProbability = p } }
func noRollback() nodeOpt        { return func(n *infra.Node) { n.Patch.RollbackSupported = false } }
func minUp(m int) nodeOpt        { return func(n *infra.Node) { n.MinUp = infra.IntPtr(m) } }

func host(id string, opts ...nodeOpt) infra.Node {
	n := infra.NewNode(id, infra.Host)
	for _, opt := range opts {
		opt(&n)
	}
	return n
}

func patchStep(id string, nodes ...string) infra.Step {
	return infra.Step{StepID: id, Action: infra.ActionPatch, NodeIDs: nodes, Metadata: map[string]any{}}
}

func pauseStep(id string, seconds int, guardrail bool) infra.Step {
	meta := map[string]any{}
	if guardrail {
		meta[infra.MetaGuardrail] = true
	}
	return infra.Step{StepID: id, Action: infra.ActionPause, PauseSeconds: seconds, NodeIDs: []string{}, Metadata: meta}
}

func planOf(steps ...infra.Step) *infra.Plan {
	return &infra.Plan{Strategy: "manual", Steps: steps, Metadata: map[string]any{}}
}

func mustGraph(t *testing.T, sc *infra.Scenario) *infra.Graph {
	t.Helper()
	g, err := infra.BuildGraph(sc)
	require.NoError(t, err)
	return g
}

func newEngine(t *testing.T, sc *infra.Scenario, opts ...Option) *Engine {
	t.Helper()
	g, err := infra.BuildGraph(sc)
	require.NoError(t, err)
	return NewEngine(sc, g, opts...)
}

func eventKinds(events []Event) []string {
	kinds := make([]string, 0, len(events))
	for _, ev := range events {
		kinds = append(kinds, ev.Event)
	}
	return kinds
}

// randomScenario builds a reproducible scenario with no availability floor,
// so any plan over it runs to completion.
func randomScenario(n int, seed uint64) *infra.Scenario {
	rng := rand.New(rand.NewPCG(seed, seed+1))
	compat := []infra.Compatibility{infra.Compatible, infra.Degraded, infra.Incompatible}

	nodes := make([]infra.Node, 0, n)
	for i := 0; i < n; i++ {
		nd := infra.NewNode(fmt.Sprintf("n%02d", i), infra.ServiceInstance)
		nd.Service = fmt.Sprintf("svc-%d", rng.IntN(3))
		nd.Criticality = 1 + rng.IntN(5)
		nd.Patch.Severity = float64(rng.IntN(11))
		nd.Patch.DurationSeconds = rng.IntN(120)
		nd.Patch.RequiresReboot = rng.IntN(2) == 0
		nd.Patch.FailureProbability = rng.Float64() / 2
		nd.Patch.RollbackSupported = rng.IntN(3) != 0
		nodes = append(nodes, nd)
	}

	edges := make([]infra.Edge, 0)
	for i := 1; i < n; i++ {
		j := rng.IntN(i)
		edges = append(edges, infra.Edge{
			Source:        nodes[i].ID,
			Target:        nodes[j].ID,
			Compatibility: compat[rng.IntN(len(compat))],
		})
	}

	return &infra.Scenario{
		Name:                           "random",
		Seed:                           int64(seed),
		IncompatibleMaxDurationSeconds: 30,
		MinUpDefault:                   0,
		Nodes:                          nodes,
		Edges:                          edges,
	}
}
