package simulator

// Event kinds
const (
	EventPause             = "pause"
	EventBlueGreenBuild    = "bluegreen_build"
	EventBlueGreenSwitch   = "bluegreen_switch"
	EventPatched           = "patched"
	EventRollback          = "rollback"
	EventPatchFailed       = "patch_failed"
	EventPatchStepComplete = "patch_step_complete"
)

// Event is one entry of the append-only simulation log. Time is the
// simulated clock in seconds when the event was recorded.
type Event struct {
	Time     int      `json:"time"`
	Event    string   `json:"event"`
	StepID   string   `json:"step_id"`
	NodeIDs  []string `json:"node_ids,omitempty"`
	NodeID   string   `json:"node_id,omitempty"`
	Duration *int     `json:"duration,omitempty"`
}

func durationPtr(d int) *int {
	return &d
}
