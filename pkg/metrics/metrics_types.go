package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Registry holds all metrics for the planner and simulator
type Registry struct {
	// Planner Metrics
	PlansTotal        *prometheus.CounterVec
	PlanDuration      *prometheus.HistogramVec
	PlanStepsPerPlan  *prometheus.HistogramVec
	PlanCycleFailures prometheus.Counter

	// Simulation Metrics
	RunsTotal                 *prometheus.CounterVec
	RunDuration               *prometheus.HistogramVec
	StepsTotal                *prometheus.CounterVec
	NodeOutcomesTotal         *prometheus.CounterVec
	SimulatedSeconds          *prometheus.HistogramVec
	AvailabilityViolations    *prometheus.CounterVec
	IncompatibilityViolations *prometheus.CounterVec
	GuardrailPausesTotal      *prometheus.CounterVec

	// Outcome Metrics, last value per strategy
	ExposureWeighted      *prometheus.GaugeVec
	DowntimeSeconds       *prometheus.GaugeVec
	MixedVersionSeconds   *prometheus.GaugeVec
	TimeToFullPatch       *prometheus.GaugeVec
	ComparisonsInFlight   prometheus.Gauge
	ComparisonFailedTotal *prometheus.CounterVec

	registry *prometheus.Registry
}

// NewRegistry creates a new metrics registry with all metrics initialized
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()

	r := &Registry{
		registry: reg,
	}

	r.initPlannerMetrics()
	r.initSimulationMetrics()
	r.initOutcomeMetrics()

	return r
}
