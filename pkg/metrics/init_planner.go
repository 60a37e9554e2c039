package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initPlannerMetrics() {
	r.PlansTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "patchplan_plans_total",
			Help: "Total number of plans generated",
		},
		[]string{"strategy", "status"},
	)

	r.PlanDuration = promauto.With(r.registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "patchplan_plan_duration_seconds",
			Help:    "Plan generation duration in seconds",
			Buckets: []float64{0.0001, 0.001, 0.01, 0.1, 1.0},
		},
		[]string{"strategy"},
	)

	r.PlanStepsPerPlan = promauto.With(r.registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "patchplan_plan_steps",
			Help:    "Number of steps per generated plan",
			Buckets: []float64{1, 2, 5, 10, 25, 50, 100},
		},
		[]string{"strategy"},
	)

	r.PlanCycleFailures = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "patchplan_plan_dependency_cycles_total",
			Help: "Total number of plans rejected because of a dependency cycle",
		},
	)
}
