package constraints

import (
	"testing"

	"github.com/dd0wney/cluso-patchplan/pkg/infra"
)

func twoNodeScenario(compat infra.Compatibility) *infra.Scenario {
	return &infra.Scenario{
		Nodes: []infra.Node{
			infra.NewNode("edge", infra.ServiceInstance),
			infra.NewNode("control", infra.ServiceInstance),
		},
		Edges: []infra.Edge{{Source: "edge", Target: "control", Compatibility: compat}},
	}
}

func setVersions(t *testing.T, g *infra.Graph, versions map[string]string) {
	t.Helper()
	for id, v := range versions {
		n, ok := g.Node(id)
		if !ok {
			t.Fatalf("unknown node %s", id)
		}
		n.Version = v
	}
}

func TestIncompatibleMixedVersionEdges(t *testing.T) {
	tests := []struct {
		name     string
		compat   infra.Compatibility
		versions map[string]string
		want     int
	}{
		{"incompatible mixed", infra.Incompatible, map[string]string{"edge": infra.VersionNew}, 1},
		{"incompatible same version", infra.Incompatible, map[string]string{"edge": infra.VersionNew, "control": infra.VersionNew}, 0},
		{"compatible mixed", infra.Compatible, map[string]string{"edge": infra.VersionNew}, 0},
		{"degraded mixed", infra.Degraded, map[string]string{"edge": infra.VersionNew}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sc := twoNodeScenario(tt.compat)
			g := setupGraph(t, sc)
			setVersions(t, g, tt.versions)

			mixed := IncompatibleMixedVersionEdges(g, sc.Edges)
			if len(mixed) != tt.want {
				t.Fatalf("got %d mixed edges, want %d", len(mixed), tt.want)
			}
			if tt.want == 1 && mixed[0] != [2]string{"edge", "control"} {
				t.Errorf("mixed[0] = %v", mixed[0])
			}
		})
	}
}

func TestStateValidator(t *testing.T) {
	sc := twoNodeScenario(infra.Incompatible)
	sc.MinUpDefault = 1
	g := setupGraph(t, sc)
	setVersions(t, g, map[string]string{"control": infra.VersionNew})
	n, _ := g.Node("edge")
	n.Health = infra.Failed

	result := NewStateValidator().Validate(g, sc, nil)

	if result.Valid {
		t.Fatal("expected invalid state")
	}
	if got := len(result.GetViolationsByType(AvailabilityViolation)); got != 1 {
		t.Errorf("availability violations = %d, want 1", got)
	}
	if got := len(result.GetViolationsBySeverity(Warning)); got != 1 {
		t.Errorf("warnings = %d, want 1", got)
	}
	strs := result.Strings()
	if strs[0] != "service=edge healthy=0 min_up=1" {
		t.Errorf("Strings()[0] = %q", strs[0])
	}
	if strs[1] != "incompatible mixed versions edge->control" {
		t.Errorf("Strings()[1] = %q", strs[1])
	}
}

func TestStateValidator_CleanState(t *testing.T) {
	sc := twoNodeScenario(infra.Incompatible)
	g := setupGraph(t, sc)

	result := NewStateValidator().Validate(g, sc, nil)
	if !result.Valid {
		t.Errorf("expected valid state, got %v", result.Strings())
	}
}
