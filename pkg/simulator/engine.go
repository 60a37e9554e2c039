// Package simulator replays a rollout plan against a scenario graph as a
// deterministic discrete-event simulation.
//
// The engine owns the graph it is given: patch steps flip node health and
// version in place. Callers that want to keep the original state pass
// Graph.Clone(). A run is single-threaded and consumes one seeded random
// stream in plan order, so identical (scenario, plan, seed) inputs always
// produce identical events and metrics.
package simulator

import (
	"errors"
	"math/rand/v2"
	"time"

	"github.com/dd0wney/cluso-patchplan/pkg/constraints"
	"github.com/dd0wney/cluso-patchplan/pkg/infra"
	"github.com/dd0wney/cluso-patchplan/pkg/logging"
	"github.com/dd0wney/cluso-patchplan/pkg/metrics"
)

// pcgStream is the fixed PCG increment; the seed only chooses the state
const pcgStream = 0x9e3779b97f4a7c15

// SimulationResult is the outcome of one completed run
type SimulationResult struct {
	Plan    *infra.Plan `json:"plan"`
	Events  []Event     `json:"events"`
	Metrics Metrics     `json:"metrics"`
}

// Option configures an Engine
type Option func(*Engine)

// WithLogger sets the engine logger. The default discards everything.
func WithLogger(logger logging.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithMetrics records run statistics into a Prometheus registry
func WithMetrics(registry *metrics.Registry) Option {
	return func(e *Engine) {
		e.metrics = registry
	}
}

// Engine executes plans against a scenario graph
type Engine struct {
	scenario *infra.Scenario
	graph    *infra.Graph
	logger   logging.Logger
	metrics  *metrics.Registry
}

// NewEngine returns an engine bound to scenario and g
func NewEngine(scenario *infra.Scenario, g *infra.Graph, opts ...Option) *Engine {
	e := &Engine{
		scenario: scenario,
		graph:    g,
		logger:   logging.NewNopLogger(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Graph returns the graph the engine mutates
func (e *Engine) Graph() *infra.Graph {
	return e.graph
}

// Run executes plan with the scenario seed
func (e *Engine) Run(plan *infra.Plan) (*SimulationResult, error) {
	return e.RunWithSeed(plan, e.scenario.Seed)
}

// RunWithSeed executes plan with an explicit seed.
//
// The plan is checked for unknown actions and node IDs before anything runs.
// An availability violation stops the run at the offending step and returns
// an *AvailabilityError; steps before it have already been applied to the
// graph.
func (e *Engine) RunWithSeed(plan *infra.Plan, seed int64) (*SimulationResult, error) {
	start := time.Now()
	log := e.logger.With(
		logging.Scenario(e.scenario.Name),
		logging.Strategy(plan.Strategy),
		logging.Seed(seed),
	)

	if err := e.validatePlan(plan); err != nil {
		log.Error("plan rejected", logging.Error(err))
		e.recordRun(plan.Strategy, metrics.StatusError, start, 0)
		return nil, err
	}

	r := &run{
		engine: e,
		log:    log,
		rng:    rand.New(rand.NewPCG(uint64(seed), pcgStream)),
		state:  NewMetricsState(),
		events: make([]Event, 0, 2*len(plan.Steps)),
		plan:   plan,
	}

	for _, step := range plan.Steps {
		log.Debug("executing step",
			logging.StepID(step.StepID),
			logging.Action(string(step.Action)),
			logging.SimTime(r.state.TimeSeconds),
			logging.Count(len(step.NodeIDs)),
		)
		if err := r.execute(step); err != nil {
			var availErr *AvailabilityError
			if errors.As(err, &availErr) && e.metrics != nil {
				e.metrics.RecordAvailabilityViolation(plan.Strategy)
			}
			log.Error("simulation aborted", logging.StepID(step.StepID), logging.Error(err))
			e.recordRun(plan.Strategy, metrics.StatusError, start, r.state.TimeSeconds)
			return nil, err
		}
		if e.metrics != nil {
			e.metrics.RecordStep(plan.Strategy, string(step.Action))
		}
	}

	result := &SimulationResult{
		Plan:    plan,
		Events:  r.events,
		Metrics: r.state.Finalize(),
	}

	log.Info("simulation complete",
		logging.Int("time_to_full_patch", result.Metrics.TimeToFullPatch),
		logging.Float64("exposure_window_weighted", result.Metrics.ExposureWindowWeighted),
		logging.Int("rollback_count", result.Metrics.RollbackCount),
		logging.Int("total_downtime_seconds_overall", result.Metrics.TotalDowntimeSecondsOverall),
		logging.Latency(time.Since(start)),
	)
	e.recordRun(plan.Strategy, metrics.StatusSuccess, start, result.Metrics.TimeToFullPatch)
	if e.metrics != nil {
		e.metrics.UpdateOutcome(plan.Strategy,
			result.Metrics.ExposureWindowWeighted,
			result.Metrics.TotalDowntimeSecondsOverall,
			result.Metrics.MixedVersionTimeSeconds,
			result.Metrics.TimeToFullPatch,
		)
	}
	return result, nil
}

// validatePlan rejects unknown actions and node IDs
func (e *Engine) validatePlan(plan *infra.Plan) error {
	for _, step := range plan.Steps {
		switch step.Action {
		case infra.ActionPause:
			continue
		case infra.ActionPatch, infra.ActionPatchCanary, infra.ActionBlueGreenBuild, infra.ActionBlueGreenSwitch:
		default:
			return &StepError{StepID: step.StepID, Action: string(step.Action), Cause: ErrUnknownAction}
		}
		for _, id := range step.NodeIDs {
			if _, ok := e.graph.Node(id); !ok {
				return &StepError{StepID: step.StepID, Action: string(step.Action), NodeID: id, Cause: ErrUnknownNode}
			}
		}
	}
	return nil
}

func (e *Engine) recordRun(strategy, status string, start time.Time, simulated int) {
	if e.metrics != nil {
		e.metrics.RecordRun(strategy, status, time.Since(start), simulated)
	}
}

// run is the mutable state of one RunWithSeed call
type run struct {
	engine *Engine
	log    logging.Logger
	rng    *rand.Rand
	state  *MetricsState
	events []Event
	plan   *infra.Plan
}

func (r *run) execute(step infra.Step) error {
	switch step.Action {
	case infra.ActionPause:
		r.pause(step)
	case infra.ActionBlueGreenBuild:
		r.blueGreenBuild(step)
	case infra.ActionBlueGreenSwitch:
		r.blueGreenSwitch(step)
	case infra.ActionPatch, infra.ActionPatchCanary:
		return r.patch(step)
	default:
		return &StepError{StepID: step.StepID, Action: string(step.Action), Cause: ErrUnknownAction}
	}
	return nil
}

func (r *run) advance(duration int) {
	crossed := r.state.Advance(r.engine.graph, r.engine.scenario, duration)
	if r.engine.metrics == nil {
		return
	}
	for range crossed {
		r.engine.metrics.RecordIncompatibilityViolation(r.plan.Strategy)
	}
}

func (r *run) emit(ev Event) {
	ev.Time = r.state.TimeSeconds
	r.events = append(r.events, ev)
}

func (r *run) pause(step infra.Step) {
	if step.IsGuardrail() {
		r.state.GuardrailPauses++
		if r.engine.metrics != nil {
			r.engine.metrics.RecordGuardrailPause(r.plan.Strategy)
		}
	}
	r.advance(step.PauseSeconds)
	r.emit(Event{Event: EventPause, StepID: step.StepID, Duration: durationPtr(step.PauseSeconds)})
}

func (r *run) blueGreenBuild(step infra.Step) {
	duration := r.maxDuration(step.NodeIDs)
	r.advance(duration)
	r.emit(Event{Event: EventBlueGreenBuild, StepID: step.StepID, NodeIDs: step.NodeIDs, Duration: durationPtr(duration)})
}

func (r *run) blueGreenSwitch(step infra.Step) {
	for _, id := range step.NodeIDs {
		node, _ := r.engine.graph.Node(id)
		node.Version = infra.VersionNew
	}
	r.emit(Event{Event: EventBlueGreenSwitch, StepID: step.StepID, NodeIDs: step.NodeIDs, Duration: durationPtr(0)})
}

// patch takes the restart/reboot subset of the step's nodes down for the
// step's duration, then draws one outcome per listed node.
func (r *run) patch(step infra.Step) error {
	g := r.engine.graph
	scenario := r.engine.scenario

	down := make([]string, 0, len(step.NodeIDs))
	for _, id := range step.NodeIDs {
		node, _ := g.Node(id)
		if node.Patch.TakesNodeDown() {
			down = append(down, id)
		}
	}

	if violations := constraints.AvailabilityViolations(g, scenario, down); len(violations) > 0 {
		return &AvailabilityError{StepID: step.StepID, Violations: violations}
	}

	for _, id := range down {
		node, _ := g.Node(id)
		node.Health = infra.Down
	}

	duration := r.maxDuration(step.NodeIDs)
	r.state.NodeUnavailability += len(down) * duration
	r.state.ApplyDowntime(g, scenario, down, duration)
	r.advance(duration)

	for _, id := range down {
		node, _ := g.Node(id)
		node.Health = infra.Healthy
	}

	for _, id := range step.NodeIDs {
		node, _ := g.Node(id)
		outcome := EventPatched
		if r.rng.Float64() < node.Patch.FailureProbability {
			if node.Patch.RollbackSupported {
				outcome = EventRollback
				r.state.RollbackCount++
				node.Version = infra.VersionOld
			} else {
				outcome = EventPatchFailed
				node.Health = infra.Failed
			}
			r.log.Warn("patch failed", logging.StepID(step.StepID), logging.NodeID(id), logging.String("outcome", outcome))
		} else {
			node.Version = infra.VersionNew
		}
		r.emit(Event{Event: outcome, StepID: step.StepID, NodeID: id})
		if r.engine.metrics != nil {
			r.engine.metrics.RecordNodeOutcome(r.plan.Strategy, outcome)
		}
	}

	r.emit(Event{Event: EventPatchStepComplete, StepID: step.StepID, NodeIDs: step.NodeIDs, Duration: durationPtr(duration)})
	return nil
}

// maxDuration returns the longest patch duration among ids, 0 when empty
func (r *run) maxDuration(ids []string) int {
	longest := 0
	for _, id := range ids {
		node, _ := r.engine.graph.Node(id)
		longest = max(longest, node.Patch.DurationSeconds)
	}
	return longest
}
