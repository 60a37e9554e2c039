package infra

import "reflect"

// Action is the kind of a plan step
type Action string

const (
	ActionPatch           Action = "patch"
	ActionPatchCanary     Action = "patch_canary"
	ActionPause           Action = "pause"
	ActionBlueGreenBuild  Action = "bluegreen_build"
	ActionBlueGreenSwitch Action = "bluegreen_switch"
)

// IsPatch reports whether the action takes nodes through a patch cycle
func (a Action) IsPatch() bool {
	return a == ActionPatch || a == ActionPatchCanary
}

// Step metadata keys
const (
	MetaGuardrail     = "guardrail"
	MetaExtraCapacity = "extra_capacity"
)

// Step is one declarative action of a plan
type Step struct {
	StepID       string         `json:"step_id"`
	Action       Action         `json:"action"`
	NodeIDs      []string       `json:"node_ids"`
	PauseSeconds int            `json:"pause_seconds"`
	Strategy     string         `json:"strategy,omitempty"`
	Metadata     map[string]any `json:"metadata"`
}

// IsGuardrail reports whether the step is a guardrail pause. Zero numbers,
// empty strings and empty collections do not mark a guardrail.
func (s Step) IsGuardrail() bool {
	v, ok := s.Metadata[MetaGuardrail]
	if !ok || v == nil {
		return false
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Bool:
		return rv.Bool()
	case reflect.String, reflect.Slice, reflect.Map, reflect.Array:
		return rv.Len() > 0
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int() != 0
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return rv.Uint() != 0
	case reflect.Float32, reflect.Float64:
		return rv.Float() != 0
	default:
		return true
	}
}

// Plan is the ordered output of a strategy
type Plan struct {
	Strategy string         `json:"strategy"`
	Steps    []Step         `json:"steps"`
	Metadata map[string]any `json:"metadata"`
}

// NodeIDs returns every node referenced by the plan's steps, first occurrence order
func (p *Plan) NodeIDs() []string {
	seen := make(map[string]bool)
	ids := make([]string, 0)
	for _, step := range p.Steps {
		for _, id := range step.NodeIDs {
			if !seen[id] {
				seen[id] = true
				ids = append(ids, id)
			}
		}
	}
	return ids
}
