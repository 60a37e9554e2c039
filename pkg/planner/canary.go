package planner

import (
	"github.com/dd0wney/cluso-patchplan/pkg/constraints"
	"github.com/dd0wney/cluso-patchplan/pkg/infra"
)

// CanaryPauseSeconds is the observation window after the canary batch
const CanaryPauseSeconds = 60

// Canary patches one representative per service first, waits, then patches
// everything else in one batch.
//
// The representative is the service's least critical unclaimed node. If that
// node shares an incompatibility component with others, the whole component
// becomes the canary so it is never split.
type Canary struct{}

// Name returns the registry name
func (Canary) Name() string { return CanaryName }

// Generate builds canary, guardrail pause, and remainder steps
func (s Canary) Generate(scenario *infra.Scenario, g *infra.Graph) (*infra.Plan, error) {
	patchable := g.PatchableIDs()
	comps := infra.IncompatibleComponents(g, scenario.Edges)
	_, groups := comps.Group(patchable)

	byService := make(map[string][]string)
	for _, id := range patchable {
		node, _ := g.Node(id)
		byService[node.ServiceName()] = append(byService[node.ServiceName()], id)
	}

	claimed := make(map[string]bool)
	canaries := make([]string, 0)
	for _, service := range constraints.SortedServices(byService) {
		for _, id := range byLeastRisk(g, byService[service]) {
			if claimed[id] {
				continue
			}
			pick := []string{id}
			if group := groups[comps.Key(id)]; len(group) > 1 {
				pick = group
			}
			for _, member := range pick {
				if !claimed[member] {
					claimed[member] = true
					canaries = append(canaries, member)
				}
			}
			break
		}
	}

	remaining := make([]string, 0, len(patchable))
	for _, id := range byPriority(g, patchable) {
		if !claimed[id] {
			remaining = append(remaining, id)
		}
	}

	b := newStepBuilder(s.Name())
	if len(canaries) > 0 {
		b.batch(infra.ActionPatchCanary, canaries)
		b.pause("pause-canary", CanaryPauseSeconds, map[string]any{infra.MetaGuardrail: "canary"})
	}
	if len(remaining) > 0 {
		b.batch(infra.ActionPatch, remaining)
	}
	return b.plan(map[string]any{"canaries": len(canaries)}), nil
}
