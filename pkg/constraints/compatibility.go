package constraints

import (
	"github.com/dd0wney/cluso-patchplan/pkg/infra"
)

// IncompatibleMixedVersionEdges reports INCOMPATIBLE edges whose endpoints
// currently run different versions, in edge order.
func IncompatibleMixedVersionEdges(g *infra.Graph, edges []infra.Edge) [][2]string {
	mixed := make([][2]string, 0)
	for _, edge := range edges {
		if edge.Compatibility != infra.Incompatible {
			continue
		}
		src, srcOK := g.Node(edge.Source)
		tgt, tgtOK := g.Node(edge.Target)
		if !srcOK || !tgtOK {
			continue
		}
		if src.Version != tgt.Version {
			mixed = append(mixed, edge.Key())
		}
	}
	return mixed
}

// MixedVersionConstraint flags INCOMPATIBLE edges running mixed versions
type MixedVersionConstraint struct{}

// Name returns the constraint name
func (MixedVersionConstraint) Name() string {
	return "incompatible-mixed-version"
}

// Validate ignores down; it only inspects current versions
func (c MixedVersionConstraint) Validate(g *infra.Graph, _ *infra.Scenario, _ []string) []Violation {
	violations := make([]Violation, 0)
	for _, pair := range IncompatibleMixedVersionEdges(g, g.Edges()) {
		violations = append(violations, Violation{
			Type:       MixedVersionViolation,
			Severity:   Warning,
			Constraint: c.Name(),
			Source:     pair[0],
			Target:     pair[1],
		})
	}
	return violations
}
