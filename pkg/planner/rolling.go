package planner

import (
	"github.com/dd0wney/cluso-patchplan/pkg/infra"
)

// Rolling patches one incompatibility component per step.
// Singleton components are single-node batches; larger components go
// together so incompatible mixed-version time stays near zero.
type Rolling struct{}

// Name returns the registry name
func (Rolling) Name() string { return RollingName }

// Generate builds one patch step per incompatibility component
func (s Rolling) Generate(scenario *infra.Scenario, g *infra.Graph) (*infra.Plan, error) {
	ids := byPriority(g, g.PatchableIDs())

	b := newStepBuilder(s.Name())
	b.batch(infra.ActionPatch, incompatibilityBatches(scenario, g, ids)...)
	return b.plan(nil), nil
}
