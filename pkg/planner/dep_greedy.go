package planner

import (
	"cmp"
	"errors"
	"fmt"
	"slices"

	"github.com/dd0wney/cluso-patchplan/pkg/algorithms"
	"github.com/dd0wney/cluso-patchplan/pkg/infra"
)

// DependencyAwareGreedy patches dependencies before their dependents.
//
// Nodes are grouped by incompatibility component. A scenario edge A -> B
// (A depends on B) makes B's group a prerequisite of A's group. Among the
// groups whose prerequisites are done, the riskiest goes next.
type DependencyAwareGreedy struct{}

// Name returns the registry name
func (DependencyAwareGreedy) Name() string { return DepGreedyName }

// Generate emits one patch step per group in dependency order
func (s DependencyAwareGreedy) Generate(scenario *infra.Scenario, g *infra.Graph) (*infra.Plan, error) {
	deps, groups := dependencyGroups(scenario, g)

	scores := riskScores(g, g.PatchableIDs())
	groupRisk := make(map[string]float64, len(groups))
	for key, members := range groups {
		groupRisk[key] = maxRisk(scores, members)
	}

	b := newStepBuilder(s.Name())
	for deps.Len() > 0 {
		ready := algorithms.Sources(deps)
		if len(ready) == 0 {
			return nil, cycleError(deps, groups)
		}
		slices.SortFunc(ready, func(x, y string) int {
			if c := cmp.Compare(groupRisk[y], groupRisk[x]); c != 0 {
				return c
			}
			return cmp.Compare(x, y)
		})

		chosen := ready[0]
		batch := slices.Clone(groups[chosen])
		slices.Sort(batch)
		b.batch(infra.ActionPatch, batch)
		deps.RemoveNode(chosen)
	}

	return b.plan(nil), nil
}

// DependencyOrder returns the patch groups ordered so that every group comes
// after the groups it depends on. Members of each group are sorted.
func DependencyOrder(scenario *infra.Scenario, g *infra.Graph) ([][]string, error) {
	deps, groups := dependencyGroups(scenario, g)
	order, err := algorithms.TopologicalSort(deps)
	if errors.Is(err, algorithms.ErrCycle) {
		return nil, cycleError(deps, groups)
	}
	if err != nil {
		return nil, err
	}

	out := make([][]string, 0, len(order))
	for _, key := range order {
		members := slices.Clone(groups[key])
		slices.Sort(members)
		out = append(out, members)
	}
	return out, nil
}

// dependencyGroups groups the patchable nodes by incompatibility component.
// A scenario edge A -> B adds the edge group(B) -> group(A) to the returned
// digraph.
func dependencyGroups(scenario *infra.Scenario, g *infra.Graph) (*algorithms.Digraph, map[string][]string) {
	comps := infra.IncompatibleComponents(g, scenario.Edges)
	keys, groups := comps.Group(g.PatchableIDs())

	lookup := make(map[string]string)
	for key, members := range groups {
		for _, id := range members {
			lookup[id] = key
		}
	}

	deps := algorithms.NewDigraph()
	for _, key := range keys {
		deps.AddNode(key)
	}
	for _, edge := range scenario.Edges {
		srcGroup, srcOK := lookup[edge.Source]
		tgtGroup, tgtOK := lookup[edge.Target]
		if !srcOK || !tgtOK || srcGroup == tgtGroup {
			continue
		}
		deps.AddEdge(tgtGroup, srcGroup)
	}
	return deps, groups
}

func cycleError(deps *algorithms.Digraph, groups map[string][]string) error {
	return fmt.Errorf("%w: %s", ErrDependencyCycle, describeCycle(algorithms.FindCycle(deps), groups))
}

// describeCycle renders a cycle of group keys using their member node IDs
func describeCycle(cycle algorithms.Cycle, groups map[string][]string) string {
	named := make(algorithms.Cycle, 0, len(cycle))
	for _, key := range cycle {
		members := slices.Clone(groups[key])
		slices.Sort(members)
		named = append(named, fmt.Sprintf("%v", members))
	}
	return named.String()
}
