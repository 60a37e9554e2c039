package planner

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/dd0wney/cluso-patchplan/pkg/infra"
)

// HybridCooldownSeconds is the guardrail pause after every group
const HybridCooldownSeconds = 30

// HybridRiskAware patches the riskiest incompatibility groups first and picks
// a sub-strategy per group: blue/green when the service could not tolerate
// the whole group being down, an in-place patch otherwise.
type HybridRiskAware struct{}

// Name returns the registry name
func (HybridRiskAware) Name() string { return HybridName }

// Generate builds per-group steps followed by cooldown pauses
func (s HybridRiskAware) Generate(scenario *infra.Scenario, g *infra.Graph) (*infra.Plan, error) {
	patchable := g.PatchableIDs()
	scores := riskScores(g, patchable)
	comps := infra.IncompatibleComponents(g, scenario.Edges)
	keys, groups := comps.Group(patchable)

	ordered := make([][]string, 0, len(keys))
	for _, key := range keys {
		ordered = append(ordered, groups[key])
	}
	slices.SortStableFunc(ordered, func(x, y []string) int {
		if c := cmp.Compare(maxRisk(scores, y), maxRisk(scores, x)); c != 0 {
			return c
		}
		return cmp.Compare(slices.Min(x), slices.Min(y))
	})

	b := newStepBuilder(s.Name())
	for i, members := range ordered {
		idx := i + 1
		if minUpForGroup(scenario, g, members) >= len(members) {
			b.named(fmt.Sprintf("group-%d-bluegreen-build", idx), infra.ActionBlueGreenBuild, members, nil)
			b.named(fmt.Sprintf("group-%d-bluegreen-switch", idx), infra.ActionBlueGreenSwitch, members, nil)
		} else {
			b.named(fmt.Sprintf("group-%d-rolling", idx), infra.ActionPatch, members, nil)
		}
		b.pause(fmt.Sprintf("group-%d-cooldown", idx), HybridCooldownSeconds, map[string]any{infra.MetaGuardrail: "cooldown"})
	}

	return b.plan(nil), nil
}
