package planner

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dd0wney/cluso-patchplan/pkg/infra"
)

// TestNew tests registry lookups
func TestNew(t *testing.T) {
	for _, name := range Names() {
		s, err := New(name, Options{})
		require.NoError(t, err, name)
		assert.Equal(t, name, s.Name())
	}

	_, err := New("yolo", Options{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownStrategy))
	assert.Contains(t, err.Error(), "yolo")
}

// TestBigBang tests that every patchable node lands in a single step
func TestBigBang(t *testing.T) {
	sc := scenario([]infra.Node{
		node("a"),
		node("b"),
		node("c", unpatchable()),
	})

	plan := generate(t, BigBang{}, sc)
	require.Len(t, plan.Steps, 1)
	step := plan.Steps[0]
	assert.Equal(t, "patch-1", step.StepID)
	assert.Equal(t, infra.ActionPatch, step.Action)
	assert.Equal(t, []string{"a", "b"}, step.NodeIDs)
	assert.Equal(t, BigBangName, step.Strategy)
	assert.Equal(t, BigBangName, plan.Strategy)
}

// TestBigBang_Empty tests that an empty scenario still yields one step
func TestBigBang_Empty(t *testing.T) {
	plan := generate(t, BigBang{}, scenario(nil))
	require.Len(t, plan.Steps, 1)
	assert.Empty(t, plan.Steps[0].NodeIDs)
	assert.NotNil(t, plan.Steps[0].NodeIDs)
}

// TestRolling tests one step per incompatibility component
func TestRolling(t *testing.T) {
	tests := []struct {
		name     string
		nodes    []infra.Node
		edges    []infra.Edge
		expected [][]string
	}{
		{
			name:     "singletons in declaration order",
			nodes:    []infra.Node{node("c"), node("a", crit(5)), node("b")},
			expected: [][]string{{"c"}, {"a"}, {"b"}},
		},
		{
			name: "incompatible pair shares a batch",
			nodes: []infra.Node{
				node("edge-a", svc("edge")),
				node("control-1", svc("control"), crit(4)),
				node("edge-b", svc("edge")),
			},
			edges: []infra.Edge{
				edge("edge-a", "control-1", infra.Incompatible),
			},
			expected: [][]string{{"control-1", "edge-a"}, {"edge-b"}},
		},
		{
			name:  "degraded edges do not group",
			nodes: []infra.Node{node("a"), node("b")},
			edges: []infra.Edge{
				edge("a", "b", infra.Degraded),
			},
			expected: [][]string{{"a"}, {"b"}},
		},
		{
			name:     "no patchable nodes",
			nodes:    []infra.Node{node("a", unpatchable())},
			expected: [][]string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan := generate(t, Rolling{}, scenario(tt.nodes, tt.edges...))
			assert.Equal(t, tt.expected, stepNodes(plan))
			for _, step := range plan.Steps {
				assert.Equal(t, infra.ActionPatch, step.Action)
				assert.Equal(t, RollingName, step.Strategy)
			}
		})
	}
}

// TestRolling_StepIDs tests sequential per-action numbering
func TestRolling_StepIDs(t *testing.T) {
	plan := generate(t, Rolling{}, scenario([]infra.Node{node("a"), node("b"), node("c")}))
	assert.Equal(t, []string{"patch-1", "patch-2", "patch-3"}, stepIDs(plan))
}

// TestNewBatchRolling tests batch size normalization
func TestNewBatchRolling(t *testing.T) {
	tests := []struct {
		in, expected int
	}{
		{0, DefaultBatchSize},
		{-3, 1},
		{1, 1},
		{5, 5},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, NewBatchRolling(tt.in).BatchSize, "input %d", tt.in)
	}

	s, err := New(BatchRollingName, Options{BatchSize: 3})
	require.NoError(t, err)
	assert.Equal(t, 3, s.(BatchRolling).BatchSize)
}

// TestBatchRolling tests merging of consecutive groups
func TestBatchRolling(t *testing.T) {
	tests := []struct {
		name     string
		size     int
		nodes    []infra.Node
		edges    []infra.Edge
		expected [][]string
	}{
		{
			name:     "pairs",
			size:     2,
			nodes:    []infra.Node{node("n1"), node("n2"), node("n3"), node("n4"), node("n5")},
			expected: [][]string{{"n1", "n2"}, {"n3", "n4"}, {"n5"}},
		},
		{
			name:  "oversized group is never split",
			size:  2,
			nodes: []infra.Node{node("a"), node("b"), node("c"), node("d")},
			edges: []infra.Edge{
				edge("a", "b", infra.Incompatible),
				edge("c", "b", infra.Incompatible),
			},
			expected: [][]string{{"a", "b", "c"}, {"d"}},
		},
		{
			name:  "group starts a fresh batch when it would overflow",
			size:  3,
			nodes: []infra.Node{node("a"), node("b"), node("c"), node("d")},
			edges: []infra.Edge{
				edge("b", "c", infra.Incompatible),
				edge("c", "d", infra.Incompatible),
			},
			expected: [][]string{{"a"}, {"b", "c", "d"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan := generate(t, NewBatchRolling(tt.size), scenario(tt.nodes, tt.edges...))
			assert.Equal(t, tt.expected, stepNodes(plan))
			assert.Equal(t, tt.size, plan.Metadata["batch_size"])
		})
	}
}

// TestMergeGroups tests the packing helper directly
func TestMergeGroups(t *testing.T) {
	groups := [][]string{{"a"}, {"b", "c"}, {"d"}, {"e", "f", "g"}, {"h"}}
	assert.Equal(t,
		[][]string{{"a", "b", "c"}, {"d"}, {"e", "f", "g"}, {"h"}},
		mergeGroups(groups, 3))
	assert.Empty(t, mergeGroups(nil, 3))
}

// TestCanary tests canary selection, the guardrail pause, and the remainder
func TestCanary(t *testing.T) {
	sc := scenario([]infra.Node{
		node("w1", svc("web"), crit(3)),
		node("w2", svc("web"), crit(1)),
		node("d1", svc("db"), crit(5)),
		node("d2", svc("db"), crit(5), sev(9)),
	})

	plan := generate(t, Canary{}, sc)
	require.Len(t, plan.Steps, 3)
	assert.Equal(t, []string{"patch_canary-1", "pause-canary", "patch-1"}, stepIDs(plan))

	canary := plan.Steps[0]
	assert.Equal(t, infra.ActionPatchCanary, canary.Action)
	assert.Equal(t, []string{"d1", "w2"}, canary.NodeIDs)

	pause := plan.Steps[1]
	assert.Equal(t, infra.ActionPause, pause.Action)
	assert.Equal(t, CanaryPauseSeconds, pause.PauseSeconds)
	assert.Equal(t, "canary", pause.Metadata[infra.MetaGuardrail])
	assert.True(t, pause.IsGuardrail())
	assert.Empty(t, pause.NodeIDs)

	rest := plan.Steps[2]
	assert.Equal(t, infra.ActionPatch, rest.Action)
	assert.Equal(t, []string{"d2", "w1"}, rest.NodeIDs)

	assert.Equal(t, 2, plan.Metadata["canaries"])
}

// TestCanary_IncompatibleGroup tests that a canary never splits its component
func TestCanary_IncompatibleGroup(t *testing.T) {
	sc := scenario([]infra.Node{
		node("w1", svc("web"), crit(1)),
		node("w2", svc("web"), crit(3)),
		node("d1", svc("db")),
	}, edge("w1", "d1", infra.Incompatible))

	plan := generate(t, Canary{}, sc)
	require.Len(t, plan.Steps, 2)
	assert.Equal(t, []string{"w1", "d1", "w2"}, plan.Steps[0].NodeIDs)
	assert.Equal(t, "pause-canary", plan.Steps[1].StepID)
}

// TestCanary_Empty tests that nothing is emitted without patchable nodes
func TestCanary_Empty(t *testing.T) {
	plan := generate(t, Canary{}, scenario([]infra.Node{node("a", unpatchable())}))
	assert.Empty(t, plan.Steps)
	assert.Equal(t, 0, plan.Metadata["canaries"])
}

// TestBlueGreen tests the build and switch steps
func TestBlueGreen(t *testing.T) {
	plan := generate(t, BlueGreen{}, scenario([]infra.Node{node("a"), node("b"), node("x", unpatchable())}))
	require.Len(t, plan.Steps, 2)

	build, sw := plan.Steps[0], plan.Steps[1]
	assert.Equal(t, "bluegreen-build", build.StepID)
	assert.Equal(t, infra.ActionBlueGreenBuild, build.Action)
	assert.Equal(t, true, build.Metadata[infra.MetaExtraCapacity])
	assert.Equal(t, []string{"a", "b"}, build.NodeIDs)

	assert.Equal(t, "bluegreen-switch", sw.StepID)
	assert.Equal(t, infra.ActionBlueGreenSwitch, sw.Action)
	assert.Equal(t, []string{"a", "b"}, sw.NodeIDs)
}

// TestDepGreedy_DependencyOrder tests that dependencies are patched before dependents
func TestDepGreedy_DependencyOrder(t *testing.T) {
	sc := scenario([]infra.Node{
		node("web", crit(5), sev(10)),
		node("api", crit(3), sev(5)),
		node("db", crit(1), sev(1)),
	},
		edge("web", "api", infra.Compatible),
		edge("api", "db", infra.Compatible),
	)

	plan := generate(t, DependencyAwareGreedy{}, sc)
	assert.Equal(t, [][]string{{"db"}, {"api"}, {"web"}}, stepNodes(plan))
	assert.Equal(t, []string{"patch-1", "patch-2", "patch-3"}, stepIDs(plan))
}

// TestDepGreedy_RiskTieBreak tests that the riskiest ready group goes first
func TestDepGreedy_RiskTieBreak(t *testing.T) {
	sc := scenario([]infra.Node{
		node("low", sev(1)),
		node("high", sev(9)),
	})

	plan := generate(t, DependencyAwareGreedy{}, sc)
	assert.Equal(t, [][]string{{"high"}, {"low"}}, stepNodes(plan))
}

// TestDepGreedy_IncompatibleGroup tests that incompatible nodes share a step
func TestDepGreedy_IncompatibleGroup(t *testing.T) {
	sc := scenario([]infra.Node{
		node("b"),
		node("a"),
		node("c"),
	},
		edge("a", "b", infra.Incompatible),
		edge("c", "a", infra.Compatible),
	)

	plan := generate(t, DependencyAwareGreedy{}, sc)
	assert.Equal(t, [][]string{{"a", "b"}, {"c"}}, stepNodes(plan))
}

// TestDepGreedy_Cycle tests cycle detection
func TestDepGreedy_Cycle(t *testing.T) {
	sc := scenario([]infra.Node{node("a"), node("b"), node("c")},
		edge("a", "b", infra.Compatible),
		edge("b", "a", infra.Degraded),
	)

	_, err := DependencyAwareGreedy{}.Generate(sc, mustGraph(t, sc))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDependencyCycle))
	assert.Contains(t, err.Error(), "[a]")
	assert.Contains(t, err.Error(), "[b]")
}

// TestDependencyOrder tests the dependency-first group order and cycle reporting
func TestDependencyOrder(t *testing.T) {
	sc := scenario([]infra.Node{
		node("web"),
		node("api"),
		node("db"),
		node("cache", unpatchable()),
	},
		edge("web", "api", infra.Compatible),
		edge("api", "db", infra.Compatible),
		edge("api", "cache", infra.Compatible),
	)

	order, err := DependencyOrder(sc, mustGraph(t, sc))
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"db"}, {"api"}, {"web"}}, order)

	cyclic := scenario([]infra.Node{node("a"), node("b")},
		edge("a", "b", infra.Compatible),
		edge("b", "a", infra.Compatible),
	)
	_, err = DependencyOrder(cyclic, mustGraph(t, cyclic))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDependencyCycle))
	assert.Contains(t, err.Error(), "[a]")
}

// TestHybrid tests sub-strategy selection and cooldowns
func TestHybrid(t *testing.T) {
	sc := scenario([]infra.Node{
		node("web", svc("web"), sev(1)),
		node("api", svc("api"), crit(5), sev(9), minUp(1)),
	})

	plan := generate(t, HybridRiskAware{}, sc)
	assert.Equal(t, []string{
		"group-1-bluegreen-build",
		"group-1-bluegreen-switch",
		"group-1-cooldown",
		"group-2-rolling",
		"group-2-cooldown",
	}, stepIDs(plan))

	assert.Equal(t, []string{"api"}, plan.Steps[0].NodeIDs)
	assert.Equal(t, infra.ActionBlueGreenBuild, plan.Steps[0].Action)
	assert.Equal(t, infra.ActionBlueGreenSwitch, plan.Steps[1].Action)
	assert.Equal(t, []string{"web"}, plan.Steps[3].NodeIDs)
	assert.Equal(t, infra.ActionPatch, plan.Steps[3].Action)

	for _, i := range []int{2, 4} {
		cooldown := plan.Steps[i]
		assert.Equal(t, infra.ActionPause, cooldown.Action)
		assert.Equal(t, HybridCooldownSeconds, cooldown.PauseSeconds)
		assert.Equal(t, "cooldown", cooldown.Metadata[infra.MetaGuardrail])
	}
}

// TestHybrid_RiskUsesDegree tests that topology raises a group's risk
func TestHybrid_RiskUsesDegree(t *testing.T) {
	sc := scenario([]infra.Node{
		node("leaf", sev(4)),
		node("hub", sev(2)),
		node("s1", sev(0)),
		node("s2", sev(0)),
	},
		edge("s1", "hub", infra.Compatible),
		edge("s2", "hub", infra.Compatible),
	)

	plan := generate(t, HybridRiskAware{}, sc)
	// hub: 2 × 1 × 3 = 6 beats leaf: 4 × 1 × 1 = 4; zero-risk ties by ID
	assert.Equal(t, []string{"hub"}, plan.Steps[0].NodeIDs)
	assert.Equal(t, []string{"leaf"}, plan.Steps[2].NodeIDs)
	assert.Equal(t, []string{"s1"}, plan.Steps[4].NodeIDs)
	assert.Equal(t, []string{"s2"}, plan.Steps[6].NodeIDs)
}

// TestStrategiesDoNotMutateGraph tests that planning is side-effect free
func TestStrategiesDoNotMutateGraph(t *testing.T) {
	sc := randomScenario(10, 42)
	g := mustGraph(t, sc)
	health := g.Health()
	versions := g.Versions()

	for _, name := range Names() {
		_, err := Generate(name, Options{}, sc, g)
		if errors.Is(err, ErrDependencyCycle) {
			continue
		}
		require.NoError(t, err, name)
		assert.Equal(t, health, g.Health(), name)
		assert.Equal(t, versions, g.Versions(), name)
	}
}
