package simulator

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dd0wney/cluso-patchplan/pkg/constraints"
)

// Sentinel errors
var (
	ErrAvailabilityViolation = errors.New("availability constraint violated")
	ErrUnknownAction         = errors.New("unknown step action")
	ErrUnknownNode           = errors.New("step references unknown node")
)

// AvailabilityError reports the services that would have dropped below
// min_up had the step gone ahead. No state was changed for that step.
type AvailabilityError struct {
	StepID     string
	Violations []constraints.Violation
}

// Error implements the error interface.
func (e *AvailabilityError) Error() string {
	parts := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		parts = append(parts, v.String())
	}
	return fmt.Sprintf("availability constraint violated before step %s: [%s]", e.StepID, strings.Join(parts, ", "))
}

// Unwrap returns ErrAvailabilityViolation for errors.Is support.
func (e *AvailabilityError) Unwrap() error {
	return ErrAvailabilityViolation
}

// Services returns the names of the services in violation
func (e *AvailabilityError) Services() []string {
	names := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		names = append(names, v.Service)
	}
	return names
}

// StepError wraps a malformed-plan error with the step it came from.
type StepError struct {
	StepID string
	Action string
	NodeID string
	Cause  error
}

// Error implements the error interface.
func (e *StepError) Error() string {
	if e.NodeID != "" {
		return fmt.Sprintf("step %s (%s) node %s: %v", e.StepID, e.Action, e.NodeID, e.Cause)
	}
	return fmt.Sprintf("step %s (%s): %v", e.StepID, e.Action, e.Cause)
}

// Unwrap returns the underlying cause for error chain support.
func (e *StepError) Unwrap() error {
	return e.Cause
}
