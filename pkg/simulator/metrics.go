package simulator

import (
	"slices"
	"strconv"

	"github.com/dd0wney/cluso-patchplan/pkg/constraints"
	"github.com/dd0wney/cluso-patchplan/pkg/infra"
)

// MetricsState accumulates time-weighted metrics while a plan runs. It is
// owned by a single run.
type MetricsState struct {
	TimeSeconds               int
	TotalDowntime             map[string]int
	MaxContinuousDowntime     map[string]int
	Exposure                  float64
	MixedVersionTime          int
	DegradedIntervals         int
	IncompatibilityViolations int
	RollbackCount             int
	PlanAbortCount            int
	GuardrailPauses           int
	NodeUnavailability        int

	currentDowntime map[string]int
	edgeMixedTime   map[[2]string]int
	edgeViolated    map[[2]string]bool
}

// NewMetricsState returns a zeroed accumulator
func NewMetricsState() *MetricsState {
	return &MetricsState{
		TotalDowntime:         make(map[string]int),
		MaxContinuousDowntime: make(map[string]int),
		currentDowntime:       make(map[string]int),
		edgeMixedTime:         make(map[[2]string]int),
		edgeViolated:          make(map[[2]string]bool),
	}
}

// Advance moves the clock forward by duration and integrates exposure and
// mixed-version time over the interval, assuming the current versions hold
// for all of it. It returns the number of incompatible edges that crossed
// their budget during this interval. Non-positive durations are ignored.
func (m *MetricsState) Advance(g *infra.Graph, scenario *infra.Scenario, duration int) int {
	if duration <= 0 {
		return 0
	}

	m.TimeSeconds += duration
	m.updateExposure(g, duration)
	return m.updateMixedVersions(g, scenario, duration)
}

func (m *MetricsState) updateExposure(g *infra.Graph, duration int) {
	exposure := 0.0
	for _, node := range g.Nodes() {
		if node.Version != infra.VersionNew {
			exposure += node.RiskWeight()
		}
	}
	m.Exposure += exposure * float64(duration)
}

func (m *MetricsState) updateMixedVersions(g *infra.Graph, scenario *infra.Scenario, duration int) int {
	degraded := false
	crossed := 0
	for _, edge := range g.Edges() {
		src, _ := g.Node(edge.Source)
		dst, _ := g.Node(edge.Target)
		if src.Version == dst.Version {
			continue
		}

		switch edge.Compatibility {
		case infra.Degraded:
			m.MixedVersionTime += duration
			degraded = true
		case infra.Incompatible:
			m.MixedVersionTime += duration
			key := edge.Key()
			m.edgeMixedTime[key] += duration
			if m.edgeMixedTime[key] > edge.MixedBudget(scenario.IncompatibleMaxDurationSeconds) && !m.edgeViolated[key] {
				m.edgeViolated[key] = true
				m.IncompatibilityViolations++
				crossed++
			}
		}
	}

	if degraded {
		m.DegradedIntervals++
	}
	return crossed
}

// ApplyDowntime charges duration to every service whose healthy count,
// excluding down, is below its min_up, and resets the continuous-downtime
// run of every other service.
func (m *MetricsState) ApplyDowntime(g *infra.Graph, scenario *infra.Scenario, down []string, duration int) {
	if duration <= 0 {
		return
	}

	downSet := make(map[string]bool, len(down))
	for _, id := range down {
		downSet[id] = true
	}

	for service, members := range constraints.ServiceGroups(g) {
		minUp := constraints.MinUpForService(g, scenario, members)
		if constraints.HealthyCount(g, members, downSet) < minUp {
			m.TotalDowntime[service] += duration
			m.currentDowntime[service] += duration
			m.MaxContinuousDowntime[service] = max(m.MaxContinuousDowntime[service], m.currentDowntime[service])
		} else {
			m.currentDowntime[service] = 0
		}
	}
}

// Finalize aggregates the accumulator into the flat result metrics
func (m *MetricsState) Finalize() Metrics {
	total := make(map[string]int, len(m.TotalDowntime))
	overall := 0
	for service, seconds := range m.TotalDowntime {
		total[service] = seconds
		overall += seconds
	}

	maxContinuous := make(map[string]int, len(m.MaxContinuousDowntime))
	maxOverall := 0
	for service, seconds := range m.MaxContinuousDowntime {
		maxContinuous[service] = seconds
		maxOverall = max(maxOverall, seconds)
	}

	return Metrics{
		TimeToFullPatch:                     m.TimeSeconds,
		ExposureWindowWeighted:              m.Exposure,
		MixedVersionTimeSeconds:             m.MixedVersionTime,
		NumberOfDegradedIntervals:           m.DegradedIntervals,
		NumberOfIncompatibilityViolations:   m.IncompatibilityViolations,
		RollbackCount:                       m.RollbackCount,
		PlanAbortCount:                      m.PlanAbortCount,
		NumberOfGuardrailPauses:             m.GuardrailPauses,
		NodeUnavailabilitySeconds:           m.NodeUnavailability,
		TotalDowntimeSeconds:                total,
		TotalDowntimeSecondsOverall:         overall,
		MaxContinuousDowntimeSeconds:        maxContinuous,
		MaxContinuousDowntimeSecondsOverall: maxOverall,
	}
}

// Metrics is the finalized metrics mapping of one run. The JSON field names
// are consumed by reporting tools and must not change.
type Metrics struct {
	TimeToFullPatch                     int            `json:"time_to_full_patch"`
	ExposureWindowWeighted              float64        `json:"exposure_window_weighted"`
	MixedVersionTimeSeconds             int            `json:"mixed_version_time_seconds"`
	NumberOfDegradedIntervals           int            `json:"number_of_degraded_intervals"`
	NumberOfIncompatibilityViolations   int            `json:"number_of_incompatibility_violations"`
	RollbackCount                       int            `json:"rollback_count"`
	PlanAbortCount                      int            `json:"plan_abort_count"`
	NumberOfGuardrailPauses             int            `json:"number_of_guardrail_pauses"`
	NodeUnavailabilitySeconds           int            `json:"node_unavailability_seconds"`
	TotalDowntimeSeconds                map[string]int `json:"total_downtime_seconds"`
	TotalDowntimeSecondsOverall         int            `json:"total_downtime_seconds_overall"`
	MaxContinuousDowntimeSeconds        map[string]int `json:"max_continuous_downtime_seconds"`
	MaxContinuousDowntimeSecondsOverall int            `json:"max_continuous_downtime_seconds_overall"`
}

// MetricKeys lists the metric names in reporting order
var MetricKeys = []string{
	"time_to_full_patch",
	"exposure_window_weighted",
	"mixed_version_time_seconds",
	"number_of_degraded_intervals",
	"number_of_incompatibility_violations",
	"rollback_count",
	"plan_abort_count",
	"number_of_guardrail_pauses",
	"node_unavailability_seconds",
	"total_downtime_seconds",
	"total_downtime_seconds_overall",
	"max_continuous_downtime_seconds",
	"max_continuous_downtime_seconds_overall",
}

// FlatMetric is a single scalar row of a flattened Metrics value
type FlatMetric struct {
	Name  string
	Value string
}

// Flatten renders the metrics as scalar rows in MetricKeys order. Per-service
// maps expand to "<key>.<service>" rows sorted by service.
func (m Metrics) Flatten() []FlatMetric {
	itoa := strconv.Itoa
	scalars := map[string]string{
		"time_to_full_patch":                      itoa(m.TimeToFullPatch),
		"exposure_window_weighted":                strconv.FormatFloat(m.ExposureWindowWeighted, 'f', -1, 64),
		"mixed_version_time_seconds":              itoa(m.MixedVersionTimeSeconds),
		"number_of_degraded_intervals":            itoa(m.NumberOfDegradedIntervals),
		"number_of_incompatibility_violations":    itoa(m.NumberOfIncompatibilityViolations),
		"rollback_count":                          itoa(m.RollbackCount),
		"plan_abort_count":                        itoa(m.PlanAbortCount),
		"number_of_guardrail_pauses":              itoa(m.NumberOfGuardrailPauses),
		"node_unavailability_seconds":             itoa(m.NodeUnavailabilitySeconds),
		"total_downtime_seconds_overall":          itoa(m.TotalDowntimeSecondsOverall),
		"max_continuous_downtime_seconds_overall": itoa(m.MaxContinuousDowntimeSecondsOverall),
	}
	nested := map[string]map[string]int{
		"total_downtime_seconds":          m.TotalDowntimeSeconds,
		"max_continuous_downtime_seconds": m.MaxContinuousDowntimeSeconds,
	}

	rows := make([]FlatMetric, 0, len(MetricKeys))
	for _, key := range MetricKeys {
		if values, ok := nested[key]; ok {
			services := make([]string, 0, len(values))
			for service := range values {
				services = append(services, service)
			}
			slices.Sort(services)
			for _, service := range services {
				rows = append(rows, FlatMetric{Name: key + "." + service, Value: itoa(values[service])})
			}
			continue
		}
		rows = append(rows, FlatMetric{Name: key, Value: scalars[key]})
	}
	return rows
}
