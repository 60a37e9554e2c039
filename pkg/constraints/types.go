package constraints

import (
	"fmt"

	"github.com/dd0wney/cluso-patchplan/pkg/infra"
)

// Severity indicates the importance of a violation
type Severity int

const (
	Info Severity = iota
	Warning
	Error
)

func (s Severity) String() string {
	switch s {
	case Info:
		return "Info"
	case Warning:
		return "Warning"
	case Error:
		return "Error"
	default:
		return "Unknown"
	}
}

// ViolationType categorizes the type of constraint violation
type ViolationType int

const (
	AvailabilityViolation ViolationType = iota
	MixedVersionViolation
)

func (vt ViolationType) String() string {
	switch vt {
	case AvailabilityViolation:
		return "AvailabilityViolation"
	case MixedVersionViolation:
		return "MixedVersionViolation"
	default:
		return "Unknown"
	}
}

// Violation represents a constraint violation
type Violation struct {
	Type       ViolationType
	Severity   Severity
	Constraint string

	// Availability violations
	Service string
	Healthy int
	MinUp   int

	// Mixed-version violations
	Source string
	Target string
}

// String renders the violation in the "service=<s> healthy=<h> min_up=<m>" form
// for availability, and "<source>-><target>" for mixed versions.
func (v Violation) String() string {
	switch v.Type {
	case AvailabilityViolation:
		return fmt.Sprintf("service=%s healthy=%d min_up=%d", v.Service, v.Healthy, v.MinUp)
	case MixedVersionViolation:
		return fmt.Sprintf("incompatible mixed versions %s->%s", v.Source, v.Target)
	default:
		return v.Constraint
	}
}

// Constraint is the interface that all constraint types must implement.
// down lists nodes that are about to be taken out of service; constraints
// that only look at current state ignore it.
type Constraint interface {
	// Validate checks the constraint against the graph
	// Returns a list of violations (empty if valid)
	Validate(g *infra.Graph, scenario *infra.Scenario, down []string) []Violation

	// Name returns a human-readable name for the constraint
	Name() string
}
