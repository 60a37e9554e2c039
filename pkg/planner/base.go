package planner

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/dd0wney/cluso-patchplan/pkg/constraints"
	"github.com/dd0wney/cluso-patchplan/pkg/infra"
)

// stepBuilder assigns "<action>-<n>" IDs with one counter per action
type stepBuilder struct {
	strategy string
	counters map[infra.Action]int
	steps    []infra.Step
}

func newStepBuilder(strategy string) *stepBuilder {
	return &stepBuilder{
		strategy: strategy,
		counters: make(map[infra.Action]int),
		steps:    make([]infra.Step, 0),
	}
}

// batch appends one step per batch, numbering them per action
func (b *stepBuilder) batch(action infra.Action, batches ...[]string) {
	for _, nodes := range batches {
		b.counters[action]++
		b.named(fmt.Sprintf("%s-%d", action, b.counters[action]), action, nodes, nil)
	}
}

// named appends a step with an explicit ID
func (b *stepBuilder) named(id string, action infra.Action, nodes []string, meta map[string]any) {
	if meta == nil {
		meta = make(map[string]any)
	}
	if nodes == nil {
		nodes = []string{}
	}
	b.steps = append(b.steps, infra.Step{
		StepID:   id,
		Action:   action,
		NodeIDs:  slices.Clone(nodes),
		Strategy: b.strategy,
		Metadata: meta,
	})
}

// pause appends a pause step
func (b *stepBuilder) pause(id string, seconds int, meta map[string]any) {
	b.named(id, infra.ActionPause, nil, meta)
	b.steps[len(b.steps)-1].PauseSeconds = seconds
}

func (b *stepBuilder) plan(meta map[string]any) *infra.Plan {
	if meta == nil {
		meta = make(map[string]any)
	}
	return &infra.Plan{
		Strategy: b.strategy,
		Steps:    b.steps,
		Metadata: meta,
	}
}

// byPriority sorts IDs by (-criticality, -severity, id): most critical and
// most severe first.
func byPriority(g *infra.Graph, ids []string) []string {
	sorted := slices.Clone(ids)
	slices.SortStableFunc(sorted, func(a, b string) int {
		na, _ := g.Node(a)
		nb, _ := g.Node(b)
		if c := cmp.Compare(nb.Criticality, na.Criticality); c != 0 {
			return c
		}
		if c := cmp.Compare(nb.Patch.Severity, na.Patch.Severity); c != 0 {
			return c
		}
		return cmp.Compare(a, b)
	})
	return sorted
}

// byLeastRisk sorts IDs by (criticality, severity, id): least critical first
func byLeastRisk(g *infra.Graph, ids []string) []string {
	sorted := slices.Clone(ids)
	slices.SortStableFunc(sorted, func(a, b string) int {
		na, _ := g.Node(a)
		nb, _ := g.Node(b)
		if c := cmp.Compare(na.Criticality, nb.Criticality); c != 0 {
			return c
		}
		if c := cmp.Compare(na.Patch.Severity, nb.Patch.Severity); c != 0 {
			return c
		}
		return cmp.Compare(a, b)
	})
	return sorted
}

// riskScores computes severity × criticality × (1 + in_degree + out_degree)
// for each node, using the full scenario topology.
func riskScores(g *infra.Graph, ids []string) map[string]float64 {
	scores := make(map[string]float64, len(ids))
	for _, id := range ids {
		node, _ := g.Node(id)
		exposure := 1.0 + float64(g.InDegree(id)) + float64(g.OutDegree(id))
		scores[id] = node.Patch.Severity * float64(node.Criticality) * exposure
	}
	return scores
}

// maxRisk returns the highest score among members
func maxRisk(scores map[string]float64, members []string) float64 {
	best := 0.0
	for i, id := range members {
		if i == 0 || scores[id] > best {
			best = scores[id]
		}
	}
	return best
}

// minUpForGroup returns the strictest min_up among members; 0 for an empty group
func minUpForGroup(scenario *infra.Scenario, g *infra.Graph, members []string) int {
	if len(members) == 0 {
		return 0
	}
	return constraints.MinUpForService(g, scenario, members)
}

// incompatibilityBatches groups the sorted IDs by incompatibility component
// and returns the groups ordered by component key string. Member order
// within a group follows ids.
func incompatibilityBatches(scenario *infra.Scenario, g *infra.Graph, ids []string) [][]string {
	comps := infra.IncompatibleComponents(g, scenario.Edges)
	keys, groups := comps.Group(ids)
	slices.Sort(keys)

	batches := make([][]string, 0, len(keys))
	for _, key := range keys {
		batches = append(batches, groups[key])
	}
	return batches
}
