package scenario

import (
	"github.com/dd0wney/cluso-patchplan/pkg/infra"
	"github.com/dd0wney/cluso-patchplan/pkg/validation"
)

// The document types mirror the YAML layout. Optional fields with a
// non-zero default are pointers so an absent key can be told apart from
// an explicit zero.

type patchDoc struct {
	DurationSeconds    int     `yaml:"patch_duration_seconds"`
	RequiresRestart    bool    `yaml:"requires_restart"`
	RequiresReboot     bool    `yaml:"requires_reboot"`
	FailureProbability float64 `yaml:"failure_probability"`
	RollbackSupported  *bool   `yaml:"rollback_supported"`
	Severity           float64 `yaml:"severity"`
}

const (
	minCriticality = 1
	maxCriticality = 5
	maxSeverity    = 10.0
)

func (p *patchDoc) check(cv *validation.ConfigValidator, field string) {
	if p == nil {
		return
	}
	cv.NonNegative(field+".patch_duration_seconds", p.DurationSeconds).
		RangeFloat(field+".failure_probability", p.FailureProbability, 0, 1).
		RangeFloat(field+".severity", p.Severity, 0, maxSeverity)
}

func (p *patchDoc) spec() infra.PatchSpec {
	spec := infra.DefaultPatchSpec()
	if p == nil {
		return spec
	}
	spec.DurationSeconds = p.DurationSeconds
	spec.RequiresRestart = p.RequiresRestart
	spec.RequiresReboot = p.RequiresReboot
	spec.FailureProbability = p.FailureProbability
	spec.Severity = p.Severity
	if p.RollbackSupported != nil {
		spec.RollbackSupported = *p.RollbackSupported
	}
	return spec
}

type nodeDoc struct {
	ID          string    `yaml:"id" validate:"required,identifier"`
	Type        string    `yaml:"type" validate:"required,oneof=HOST SERVICE_INSTANCE DATABASE"`
	Service     string    `yaml:"service"`
	Criticality *int      `yaml:"criticality"`
	Redundancy  *int      `yaml:"redundancy"`
	MinUp       *int      `yaml:"min_up" validate:"omitempty,gte=0"`
	Patchable   *bool     `yaml:"patchable"`
	Group       string    `yaml:"group"`
	Version     string    `yaml:"version"`
	Health      string    `yaml:"health" validate:"omitempty,oneof=HEALTHY DOWN FAILED"`
	Patch       *patchDoc `yaml:"patch"`
}

func (d *nodeDoc) check(cv *validation.ConfigValidator, field string) {
	if d.Criticality != nil {
		cv.RangeInt(field+".criticality", *d.Criticality, minCriticality, maxCriticality)
	}
	if d.Redundancy != nil {
		cv.MinInt(field+".redundancy", *d.Redundancy, 1)
	}
	d.Patch.check(cv, field+".patch")
}

func (d *nodeDoc) node(shared map[string]patchDoc) infra.Node {
	n := infra.NewNode(d.ID, infra.NodeType(d.Type))
	n.Service = d.Service
	n.Group = d.Group
	n.MinUp = d.MinUp
	if d.Criticality != nil {
		n.Criticality = *d.Criticality
	}
	if d.Redundancy != nil {
		n.Redundancy = *d.Redundancy
	}
	if d.Patchable != nil {
		n.Patchable = *d.Patchable
	}
	if d.Version != "" {
		n.Version = d.Version
	}
	if d.Health != "" {
		n.Health = infra.HealthState(d.Health)
	}

	// An inline patch wins over the shared patches section
	patch := d.Patch
	if patch == nil {
		if p, ok := shared[d.ID]; ok {
			patch = &p
		}
	}
	n.Patch = patch.spec()
	return n
}

type edgeDoc struct {
	Source                  string `yaml:"source" validate:"required"`
	Target                  string `yaml:"target" validate:"required"`
	Compatibility           string `yaml:"compatibility" validate:"omitempty,oneof=COMPATIBLE DEGRADED INCOMPATIBLE"`
	MixedMaxDurationSeconds *int   `yaml:"mixed_max_duration_seconds" validate:"omitempty,gte=0"`
}

func (d *edgeDoc) edge() infra.Edge {
	e := infra.Edge{
		Source:                  d.Source,
		Target:                  d.Target,
		Compatibility:           infra.Compatible,
		MixedMaxDurationSeconds: d.MixedMaxDurationSeconds,
	}
	if d.Compatibility != "" {
		e.Compatibility = infra.Compatibility(d.Compatibility)
	}
	return e
}

type document struct {
	Name                           string              `yaml:"name"`
	Seed                           int64               `yaml:"seed"`
	IncompatibleMaxDurationSeconds int                 `yaml:"incompatible_max_duration_seconds" validate:"gte=0"`
	MinUpDefault                   *int                `yaml:"min_up_default" validate:"omitempty,gte=0"`
	Nodes                          []nodeDoc           `yaml:"nodes" validate:"required,dive"`
	Edges                          []edgeDoc           `yaml:"edges" validate:"dive"`
	Patches                        map[string]patchDoc `yaml:"patches"`
	Metadata                       map[string]any      `yaml:"metadata"`
}
