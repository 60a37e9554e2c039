package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initSimulationMetrics() {
	r.RunsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "patchplan_simulation_runs_total",
			Help: "Total number of simulation runs",
		},
		[]string{"strategy", "status"},
	)

	r.RunDuration = promauto.With(r.registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "patchplan_simulation_run_duration_seconds",
			Help:    "Wall-clock duration of a simulation run in seconds",
			Buckets: []float64{0.0001, 0.001, 0.01, 0.1, 1.0, 10.0},
		},
		[]string{"strategy"},
	)

	r.StepsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "patchplan_simulation_steps_total",
			Help: "Total number of plan steps executed",
		},
		[]string{"strategy", "action"},
	)

	r.NodeOutcomesTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "patchplan_node_outcomes_total",
			Help: "Per-node patch outcomes (patched, rollback, patch_failed)",
		},
		[]string{"strategy", "outcome"},
	)

	r.SimulatedSeconds = promauto.With(r.registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "patchplan_simulated_seconds",
			Help:    "Simulated time to full patch in seconds",
			Buckets: []float64{60, 300, 900, 1800, 3600, 7200, 14400, 86400},
		},
		[]string{"strategy"},
	)

	r.AvailabilityViolations = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "patchplan_availability_violations_total",
			Help: "Total number of runs aborted by the availability gate",
		},
		[]string{"strategy"},
	)

	r.IncompatibilityViolations = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "patchplan_incompatibility_violations_total",
			Help: "Incompatible edges that stayed mixed past their budget",
		},
		[]string{"strategy"},
	)

	r.GuardrailPausesTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "patchplan_guardrail_pauses_total",
			Help: "Total number of guardrail pauses executed",
		},
		[]string{"strategy"},
	)
}
