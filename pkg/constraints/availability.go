package constraints

import (
	"slices"

	"github.com/dd0wney/cluso-patchplan/pkg/infra"
)

// ServiceGroups groups every node, patchable or not, by service name.
// Members keep declaration order.
func ServiceGroups(g *infra.Graph) map[string][]string {
	groups := make(map[string][]string)
	for _, node := range g.Nodes() {
		service := node.ServiceName()
		groups[service] = append(groups[service], node.ID)
	}
	return groups
}

// SortedServices returns the service names of groups in lexical order
func SortedServices(groups map[string][]string) []string {
	names := make([]string, 0, len(groups))
	for name := range groups {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// MinUpForService returns the strictest min_up among the given nodes,
// falling back to the scenario default for nodes without one.
func MinUpForService(g *infra.Graph, scenario *infra.Scenario, nodeIDs []string) int {
	if len(nodeIDs) == 0 {
		return scenario.MinUpDefault
	}
	minUp := 0
	for i, id := range nodeIDs {
		value := scenario.MinUpDefault
		if node, ok := g.Node(id); ok && node.MinUp != nil {
			value = *node.MinUp
		}
		if i == 0 || value > minUp {
			minUp = value
		}
	}
	return minUp
}

// HealthyCount counts members that are currently HEALTHY and not listed in down
func HealthyCount(g *infra.Graph, nodeIDs []string, down map[string]bool) int {
	healthy := 0
	for _, id := range nodeIDs {
		if down[id] {
			continue
		}
		if node, ok := g.Node(id); ok && node.Health == infra.Healthy {
			healthy++
		}
	}
	return healthy
}

// AvailabilityViolations returns one violation per service whose healthy
// count would drop below its min_up if down were taken out of service.
// Nodes already DOWN or FAILED count as unavailable. Services are visited in
// lexical order.
func AvailabilityViolations(g *infra.Graph, scenario *infra.Scenario, down []string) []Violation {
	downSet := make(map[string]bool, len(down))
	for _, id := range down {
		downSet[id] = true
	}

	groups := ServiceGroups(g)
	violations := make([]Violation, 0)
	for _, service := range SortedServices(groups) {
		members := groups[service]
		minUp := MinUpForService(g, scenario, members)
		healthy := HealthyCount(g, members, downSet)
		if healthy < minUp {
			violations = append(violations, Violation{
				Type:       AvailabilityViolation,
				Severity:   Error,
				Constraint: "availability",
				Service:    service,
				Healthy:    healthy,
				MinUp:      minUp,
			})
		}
	}
	return violations
}

// AvailabilityOK reports whether down can be taken out of service without
// breaching any service's min_up, with the violations rendered as strings.
func AvailabilityOK(g *infra.Graph, scenario *infra.Scenario, down []string) (bool, []string) {
	violations := AvailabilityViolations(g, scenario, down)
	messages := make([]string, 0, len(violations))
	for _, v := range violations {
		messages = append(messages, v.String())
	}
	return len(violations) == 0, messages
}

// AvailabilityConstraint adapts the availability check to the Constraint interface
type AvailabilityConstraint struct{}

// Name returns the constraint name
func (AvailabilityConstraint) Name() string {
	return "availability"
}

// Validate checks min_up for every service
func (AvailabilityConstraint) Validate(g *infra.Graph, scenario *infra.Scenario, down []string) []Violation {
	return AvailabilityViolations(g, scenario, down)
}
