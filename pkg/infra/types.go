package infra

// NodeType classifies a node in the dependency graph
type NodeType string

const (
	Host            NodeType = "HOST"
	ServiceInstance NodeType = "SERVICE_INSTANCE"
	Database        NodeType = "DATABASE"
)

// HealthState is the runtime health of a node during simulation
type HealthState string

const (
	Healthy HealthState = "HEALTHY"
	Down    HealthState = "DOWN"
	Failed  HealthState = "FAILED"
)

// Compatibility describes how two nodes cope with running different versions
type Compatibility string

const (
	Compatible   Compatibility = "COMPATIBLE"
	Degraded     Compatibility = "DEGRADED"
	Incompatible Compatibility = "INCOMPATIBLE"
)

// Well-known version labels
const (
	VersionOld = "v_old"
	VersionNew = "v_new"
)

// PatchSpec describes the patch to be applied to a node
type PatchSpec struct {
	DurationSeconds    int     `json:"patch_duration_seconds" yaml:"patch_duration_seconds"`
	RequiresRestart    bool    `json:"requires_restart" yaml:"requires_restart"`
	RequiresReboot     bool    `json:"requires_reboot" yaml:"requires_reboot"`
	FailureProbability float64 `json:"failure_probability" yaml:"failure_probability"`
	RollbackSupported  bool    `json:"rollback_supported" yaml:"rollback_supported"`
	Severity           float64 `json:"severity" yaml:"severity"`
}

// TakesNodeDown reports whether applying the patch makes the node unavailable
func (p PatchSpec) TakesNodeDown() bool {
	return p.RequiresRestart || p.RequiresReboot
}

// DefaultPatchSpec returns the patch used when a node declares none
func DefaultPatchSpec() PatchSpec {
	return PatchSpec{RollbackSupported: true}
}

// Node is a host, service instance or database.
// Health and Version are runtime state; everything else is fixed at load time.
type Node struct {
	ID          string      `json:"id"`
	Type        NodeType    `json:"type"`
	Service     string      `json:"service,omitempty"`
	Criticality int         `json:"criticality"`
	Redundancy  int         `json:"redundancy"`
	MinUp       *int        `json:"min_up,omitempty"`
	Patchable   bool        `json:"patchable"`
	Group       string      `json:"group,omitempty"`
	Version     string      `json:"version"`
	Health      HealthState `json:"health"`
	Patch       PatchSpec   `json:"patch"`
}

// ServiceName returns the availability group of the node, defaulting to its own ID
func (n *Node) ServiceName() string {
	if n.Service != "" {
		return n.Service
	}
	return n.ID
}

// RiskWeight is the per-second exposure contribution of an unpatched node
func (n *Node) RiskWeight() float64 {
	return float64(n.Criticality) * n.Patch.Severity
}

// Edge is a directed dependency between two nodes
type Edge struct {
	Source                  string        `json:"source"`
	Target                  string        `json:"target"`
	Compatibility           Compatibility `json:"compatibility"`
	MixedMaxDurationSeconds *int          `json:"mixed_max_duration_seconds,omitempty"`
}

// Key identifies the edge by its endpoints
func (e Edge) Key() [2]string {
	return [2]string{e.Source, e.Target}
}

// MixedBudget returns how long the endpoints may run different versions
// before it counts as a violation.
func (e Edge) MixedBudget(scenarioDefault int) int {
	if e.MixedMaxDurationSeconds != nil {
		return *e.MixedMaxDurationSeconds
	}
	return scenarioDefault
}

// Scenario is the immutable policy envelope for one what-if run
type Scenario struct {
	Name                           string         `json:"name"`
	Seed                           int64          `json:"seed"`
	IncompatibleMaxDurationSeconds int            `json:"incompatible_max_duration_seconds"`
	MinUpDefault                   int            `json:"min_up_default"`
	Nodes                          []Node         `json:"nodes"`
	Edges                          []Edge         `json:"edges"`
	Metadata                       map[string]any `json:"metadata,omitempty"`
}

// NewNode returns a node with the loader defaults applied
func NewNode(id string, nodeType NodeType) Node {
	return Node{
		ID:          id,
		Type:        nodeType,
		Criticality: 1,
		Redundancy:  1,
		Patchable:   true,
		Version:     VersionOld,
		Health:      Healthy,
		Patch:       DefaultPatchSpec(),
	}
}

// IntPtr is a helper for optional integer fields
func IntPtr(v int) *int {
	return &v
}
