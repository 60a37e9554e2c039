package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initOutcomeMetrics() {
	r.ExposureWeighted = promauto.With(r.registry).NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "patchplan_exposure_window_weighted",
			Help: "Criticality and severity weighted exposure of the last run",
		},
		[]string{"strategy"},
	)

	r.DowntimeSeconds = promauto.With(r.registry).NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "patchplan_downtime_seconds",
			Help: "Total service downtime of the last run in seconds",
		},
		[]string{"strategy"},
	)

	r.MixedVersionSeconds = promauto.With(r.registry).NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "patchplan_mixed_version_seconds",
			Help: "Degraded or incompatible mixed-version time of the last run",
		},
		[]string{"strategy"},
	)

	r.TimeToFullPatch = promauto.With(r.registry).NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "patchplan_time_to_full_patch_seconds",
			Help: "Simulated time to full patch of the last run",
		},
		[]string{"strategy"},
	)

	r.ComparisonsInFlight = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "patchplan_comparison_runs_in_flight",
			Help: "Number of strategy runs currently executing in a comparison",
		},
	)

	r.ComparisonFailedTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "patchplan_comparison_failures_total",
			Help: "Strategies that failed during a comparison",
		},
		[]string{"strategy", "reason"},
	)
}
