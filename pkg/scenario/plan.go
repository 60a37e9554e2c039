package scenario

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/dd0wney/cluso-patchplan/pkg/infra"
)

// ErrInvalidPlan is returned when a plan file cannot be decoded
var ErrInvalidPlan = errors.New("invalid plan")

// LoadPlan reads a plan previously written as plan.json. Step contents are
// not checked against any scenario here; the engine rejects unknown
// actions and node ids before it runs.
func LoadPlan(path string) (*infra.Plan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read plan: %w", err)
	}

	var plan infra.Plan
	if err := json.Unmarshal(data, &plan); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrInvalidPlan, path, err)
	}
	if plan.Strategy == "" {
		return nil, fmt.Errorf("%w: %s: missing strategy", ErrInvalidPlan, path)
	}
	for i, step := range plan.Steps {
		if step.StepID == "" {
			return nil, fmt.Errorf("%w: %s: steps[%d] has no step_id", ErrInvalidPlan, path, i)
		}
	}
	return &plan, nil
}
