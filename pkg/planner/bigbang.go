package planner

import (
	"github.com/dd0wney/cluso-patchplan/pkg/infra"
)

// BigBang patches every patchable node in a single step.
// It ignores availability entirely; the engine's gate decides whether that is safe.
type BigBang struct{}

// Name returns the registry name
func (BigBang) Name() string { return BigBangName }

// Generate builds the single-step plan
func (s BigBang) Generate(_ *infra.Scenario, g *infra.Graph) (*infra.Plan, error) {
	b := newStepBuilder(s.Name())
	b.batch(infra.ActionPatch, g.PatchableIDs())
	return b.plan(nil), nil
}
