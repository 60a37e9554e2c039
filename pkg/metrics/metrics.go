package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Run statuses
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// RecordPlan records a plan generation attempt
func (r *Registry) RecordPlan(strategy, status string, duration time.Duration, steps int) {
	r.PlansTotal.WithLabelValues(strategy, status).Inc()
	r.PlanDuration.WithLabelValues(strategy).Observe(duration.Seconds())
	if status == StatusSuccess {
		r.PlanStepsPerPlan.WithLabelValues(strategy).Observe(float64(steps))
	}
}

// RecordDependencyCycle records a plan rejected for a dependency cycle
func (r *Registry) RecordDependencyCycle() {
	r.PlanCycleFailures.Inc()
}

// RecordRun records a finished or aborted simulation run
func (r *Registry) RecordRun(strategy, status string, duration time.Duration, simulatedSeconds int) {
	r.RunsTotal.WithLabelValues(strategy, status).Inc()
	r.RunDuration.WithLabelValues(strategy).Observe(duration.Seconds())
	if status == StatusSuccess {
		r.SimulatedSeconds.WithLabelValues(strategy).Observe(float64(simulatedSeconds))
	}
}

// RecordStep records one executed plan step
func (r *Registry) RecordStep(strategy, action string) {
	r.StepsTotal.WithLabelValues(strategy, action).Inc()
}

// RecordNodeOutcome records the outcome of patching a single node
func (r *Registry) RecordNodeOutcome(strategy, outcome string) {
	r.NodeOutcomesTotal.WithLabelValues(strategy, outcome).Inc()
}

// RecordAvailabilityViolation records a run aborted by the availability gate
func (r *Registry) RecordAvailabilityViolation(strategy string) {
	r.AvailabilityViolations.WithLabelValues(strategy).Inc()
}

// RecordIncompatibilityViolation records an incompatible edge exceeding its budget
func (r *Registry) RecordIncompatibilityViolation(strategy string) {
	r.IncompatibilityViolations.WithLabelValues(strategy).Inc()
}

// RecordGuardrailPause records a guardrail pause
func (r *Registry) RecordGuardrailPause(strategy string) {
	r.GuardrailPausesTotal.WithLabelValues(strategy).Inc()
}

// UpdateOutcome sets the per-strategy gauges from a finished run
func (r *Registry) UpdateOutcome(strategy string, exposure float64, downtime, mixed, timeToFullPatch int) {
	r.ExposureWeighted.WithLabelValues(strategy).Set(exposure)
	r.DowntimeSeconds.WithLabelValues(strategy).Set(float64(downtime))
	r.MixedVersionSeconds.WithLabelValues(strategy).Set(float64(mixed))
	r.TimeToFullPatch.WithLabelValues(strategy).Set(float64(timeToFullPatch))
}

// ComparisonStarted marks one comparison run as in flight
func (r *Registry) ComparisonStarted() {
	r.ComparisonsInFlight.Inc()
}

// ComparisonFinished marks one comparison run as done
func (r *Registry) ComparisonFinished() {
	r.ComparisonsInFlight.Dec()
}

// RecordComparisonFailure records a strategy that failed inside a comparison
func (r *Registry) RecordComparisonFailure(strategy, reason string) {
	r.ComparisonFailedTotal.WithLabelValues(strategy, reason).Inc()
}

// WriteTextfile writes every registered metric to path in the Prometheus
// text exposition format, for node_exporter's textfile collector.
func (r *Registry) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("failed to write metrics textfile: %w", err)
	}
	return nil
}
