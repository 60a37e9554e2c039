package constraints

import (
	"github.com/dd0wney/cluso-patchplan/pkg/infra"
)

// ValidationResult contains the results of validating a graph against constraints
type ValidationResult struct {
	Valid      bool        // True if no violations found
	Violations []Violation // List of all violations
}

// GetViolationsBySeverity returns violations filtered by severity level
func (vr *ValidationResult) GetViolationsBySeverity(severity Severity) []Violation {
	filtered := make([]Violation, 0)
	for _, v := range vr.Violations {
		if v.Severity == severity {
			filtered = append(filtered, v)
		}
	}
	return filtered
}

// GetViolationsByType returns violations filtered by type
func (vr *ValidationResult) GetViolationsByType(violationType ViolationType) []Violation {
	filtered := make([]Violation, 0)
	for _, v := range vr.Violations {
		if v.Type == violationType {
			filtered = append(filtered, v)
		}
	}
	return filtered
}

// Strings renders every violation
func (vr *ValidationResult) Strings() []string {
	out := make([]string, 0, len(vr.Violations))
	for _, v := range vr.Violations {
		out = append(out, v.String())
	}
	return out
}

// Validator manages a set of constraints and validates graphs against them
type Validator struct {
	constraints []Constraint
}

// NewValidator creates a new empty validator
func NewValidator() *Validator {
	return &Validator{
		constraints: make([]Constraint, 0),
	}
}

// NewStateValidator returns a validator with the availability and
// incompatible-mixed-version constraints registered.
func NewStateValidator() *Validator {
	v := NewValidator()
	v.AddConstraint(AvailabilityConstraint{})
	v.AddConstraint(MixedVersionConstraint{})
	return v
}

// AddConstraint adds a constraint to the validator
func (v *Validator) AddConstraint(constraint Constraint) {
	v.constraints = append(v.constraints, constraint)
}

// Validate runs all constraints against the graph and returns the results
func (v *Validator) Validate(g *infra.Graph, scenario *infra.Scenario, down []string) *ValidationResult {
	result := &ValidationResult{
		Valid:      true,
		Violations: make([]Violation, 0),
	}

	for _, constraint := range v.constraints {
		violations := constraint.Validate(g, scenario, down)
		if len(violations) > 0 {
			result.Valid = false
			result.Violations = append(result.Violations, violations...)
		}
	}

	return result
}

// GetConstraints returns all constraints in the validator
func (v *Validator) GetConstraints() []Constraint {
	return v.constraints
}
