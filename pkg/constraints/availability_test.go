package constraints

import (
	"slices"
	"strings"
	"testing"

	"github.com/dd0wney/cluso-patchplan/pkg/infra"
)

func serviceNode(id, service string, minUp *int) infra.Node {
	n := infra.NewNode(id, infra.ServiceInstance)
	n.Service = service
	n.MinUp = minUp
	return n
}

func setupGraph(t *testing.T, sc *infra.Scenario) *infra.Graph {
	t.Helper()
	g, err := infra.BuildGraph(sc)
	if err != nil {
		t.Fatalf("BuildGraph failed: %v", err)
	}
	return g
}

// TestServiceGroups_ClustersByService tests grouping by service name
func TestServiceGroups_ClustersByService(t *testing.T) {
	sc := &infra.Scenario{
		Name: "grouping",
		Nodes: []infra.Node{
			serviceNode("api-1", "api", nil),
			serviceNode("api-2", "api", nil),
			serviceNode("db-1", "db", nil),
			serviceNode("lonely", "", nil),
		},
	}
	g := setupGraph(t, sc)
	// Non-patchable nodes still count toward their service
	n, _ := g.Node("db-1")
	n.Patchable = false

	groups := ServiceGroups(g)

	if !slices.Equal(groups["api"], []string{"api-1", "api-2"}) {
		t.Errorf("api group = %v", groups["api"])
	}
	if !slices.Equal(groups["db"], []string{"db-1"}) {
		t.Errorf("db group = %v", groups["db"])
	}
	if !slices.Equal(groups["lonely"], []string{"lonely"}) {
		t.Errorf("nodes without service should group under their own id, got %v", groups["lonely"])
	}
	if !slices.Equal(SortedServices(groups), []string{"api", "db", "lonely"}) {
		t.Errorf("SortedServices() = %v", SortedServices(groups))
	}
}

// TestMinUpForService tests the strictest-wins rule and default fallback
func TestMinUpForService(t *testing.T) {
	tests := []struct {
		name       string
		defaultMin int
		nodes      []infra.Node
		want       int
	}{
		{
			name:       "node specific values take the max",
			defaultMin: 1,
			nodes: []infra.Node{
				serviceNode("api-1", "api", infra.IntPtr(3)),
				serviceNode("api-2", "api", infra.IntPtr(2)),
			},
			want: 3,
		},
		{
			name:       "default when unspecified",
			defaultMin: 2,
			nodes:      []infra.Node{serviceNode("api-1", "api", nil)},
			want:       2,
		},
		{
			name:       "default participates in the max",
			defaultMin: 2,
			nodes: []infra.Node{
				serviceNode("api-1", "api", infra.IntPtr(1)),
				serviceNode("api-2", "api", nil),
			},
			want: 2,
		},
		{
			name:       "explicit zero is honoured",
			defaultMin: 0,
			nodes:      []infra.Node{serviceNode("api-1", "api", infra.IntPtr(0))},
			want:       0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sc := &infra.Scenario{MinUpDefault: tt.defaultMin, Nodes: tt.nodes}
			g := setupGraph(t, sc)

			ids := make([]string, 0, len(tt.nodes))
			for _, n := range tt.nodes {
				ids = append(ids, n.ID)
			}
			if got := MinUpForService(g, sc, ids); got != tt.want {
				t.Errorf("MinUpForService() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestMinUpForService_EmptySetUsesDefault(t *testing.T) {
	sc := &infra.Scenario{MinUpDefault: 4}
	g := setupGraph(t, sc)
	if got := MinUpForService(g, sc, nil); got != 4 {
		t.Errorf("MinUpForService(empty) = %d, want 4", got)
	}
}

// TestAvailabilityOK_SufficientHealthyNodes tests a passing check
func TestAvailabilityOK_SufficientHealthyNodes(t *testing.T) {
	sc := &infra.Scenario{
		MinUpDefault: 2,
		Nodes: []infra.Node{
			serviceNode("api-1", "api", infra.IntPtr(2)),
			serviceNode("api-2", "api", infra.IntPtr(2)),
			serviceNode("api-3", "api", infra.IntPtr(2)),
		},
	}
	g := setupGraph(t, sc)

	ok, violations := AvailabilityOK(g, sc, []string{"api-1"})
	if !ok {
		t.Errorf("expected ok, got violations %v", violations)
	}
	if len(violations) != 0 {
		t.Errorf("expected no violations, got %v", violations)
	}
}

// TestAvailabilityOK_InsufficientHealthyNodes tests the violation message
func TestAvailabilityOK_InsufficientHealthyNodes(t *testing.T) {
	sc := &infra.Scenario{
		MinUpDefault: 2,
		Nodes: []infra.Node{
			serviceNode("api-1", "api", infra.IntPtr(2)),
			serviceNode("api-2", "api", infra.IntPtr(2)),
		},
	}
	g := setupGraph(t, sc)

	ok, violations := AvailabilityOK(g, sc, []string{"api-1", "api-2"})
	if ok {
		t.Fatal("expected availability check to fail")
	}
	if len(violations) != 1 {
		t.Fatalf("expected 1 violation, got %v", violations)
	}
	if violations[0] != "service=api healthy=0 min_up=2" {
		t.Errorf("violation = %q", violations[0])
	}
}

// TestAvailabilityOK_CountsAlreadyFailedNodes tests that FAILED nodes reduce the healthy count
func TestAvailabilityOK_CountsAlreadyFailedNodes(t *testing.T) {
	sc := &infra.Scenario{
		MinUpDefault: 1,
		Nodes: []infra.Node{
			serviceNode("api-1", "api", infra.IntPtr(1)),
			serviceNode("api-2", "api", infra.IntPtr(1)),
		},
	}
	g := setupGraph(t, sc)
	n, _ := g.Node("api-1")
	n.Health = infra.Failed

	ok, violations := AvailabilityOK(g, sc, []string{"api-2"})
	if ok {
		t.Fatal("expected availability check to fail with one node already FAILED")
	}
	if !strings.Contains(violations[0], "healthy=0") {
		t.Errorf("violation = %q", violations[0])
	}
}

// TestAvailabilityOK_ReportsEveryService tests that all breached services are listed in order
func TestAvailabilityOK_ReportsEveryService(t *testing.T) {
	sc := &infra.Scenario{
		MinUpDefault: 1,
		Nodes: []infra.Node{
			serviceNode("web-1", "web", nil),
			serviceNode("api-1", "api", nil),
			serviceNode("db-1", "db", nil),
		},
	}
	g := setupGraph(t, sc)

	_, violations := AvailabilityOK(g, sc, []string{"web-1", "api-1"})
	want := []string{
		"service=api healthy=0 min_up=1",
		"service=web healthy=0 min_up=1",
	}
	if !slices.Equal(violations, want) {
		t.Errorf("violations = %v, want %v", violations, want)
	}
}
