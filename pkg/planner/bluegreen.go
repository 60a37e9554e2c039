package planner

import (
	"github.com/dd0wney/cluso-patchplan/pkg/infra"
)

// BlueGreen provisions a parallel patched environment and switches over to
// it. No node is taken down, so there is no downtime.
type BlueGreen struct{}

// Name returns the registry name
func (BlueGreen) Name() string { return BlueGreenName }

// Generate builds the build and switch steps
func (s BlueGreen) Generate(_ *infra.Scenario, g *infra.Graph) (*infra.Plan, error) {
	ids := g.PatchableIDs()

	b := newStepBuilder(s.Name())
	b.named("bluegreen-build", infra.ActionBlueGreenBuild, ids, map[string]any{infra.MetaExtraCapacity: true})
	b.named("bluegreen-switch", infra.ActionBlueGreenSwitch, ids, nil)
	return b.plan(nil), nil
}
