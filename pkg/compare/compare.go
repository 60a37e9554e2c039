// Package compare runs several rollout strategies against the same scenario
// and collects their results side by side.
package compare

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dd0wney/cluso-patchplan/pkg/infra"
	"github.com/dd0wney/cluso-patchplan/pkg/logging"
	"github.com/dd0wney/cluso-patchplan/pkg/metrics"
	"github.com/dd0wney/cluso-patchplan/pkg/planner"
	"github.com/dd0wney/cluso-patchplan/pkg/simulator"
)

// Failure reasons recorded for strategies that did not produce a result
const (
	ReasonPlan         = "plan"
	ReasonAvailability = "availability"
	ReasonSimulation   = "simulation"
	ReasonCanceled     = "canceled"
)

// Request describes one comparison
type Request struct {
	Scenario   *infra.Scenario
	Graph      *infra.Graph
	Strategies []string
	Options    planner.Options
	// Seed overrides the scenario seed when set
	Seed *int64
}

// Result is the outcome of one strategy. Exactly one of Simulation and Err
// is set.
type Result struct {
	Strategy   string
	Plan       *infra.Plan
	Simulation *simulator.SimulationResult
	// Graph is the strategy's private copy of the request graph, left in
	// the state the simulation finished in
	Graph    *infra.Graph
	Err      error
	Duration time.Duration
}

// OK reports whether the strategy ran to completion
func (r Result) OK() bool {
	return r.Err == nil && r.Simulation != nil
}

// Reason classifies Err for reporting and metrics
func (r Result) Reason() string {
	var availErr *simulator.AvailabilityError
	switch {
	case r.Err == nil:
		return ""
	case errors.Is(r.Err, context.Canceled), errors.Is(r.Err, context.DeadlineExceeded):
		return ReasonCanceled
	case errors.As(r.Err, &availErr):
		return ReasonAvailability
	case r.Plan == nil:
		return ReasonPlan
	default:
		return ReasonSimulation
	}
}

// Option configures a Runner
type Option func(*Runner)

// WithLogger sets the logger used for the comparison and passed to each engine
func WithLogger(logger logging.Logger) Option {
	return func(r *Runner) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithMetrics records planning, simulation and comparison metrics
func WithMetrics(registry *metrics.Registry) Option {
	return func(r *Runner) {
		r.metrics = registry
	}
}

// WithParallelism bounds how many strategies run at once. Values below one
// mean one.
func WithParallelism(n int) Option {
	return func(r *Runner) {
		r.parallelism = max(n, 1)
	}
}

// Runner executes comparisons
type Runner struct {
	logger      logging.Logger
	metrics     *metrics.Registry
	parallelism int
}

// NewRunner returns a runner that runs one strategy at a time unless
// WithParallelism says otherwise.
func NewRunner(opts ...Option) *Runner {
	r := &Runner{
		logger:      logging.NewNopLogger(),
		parallelism: 1,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run plans and simulates every requested strategy, each against its own
// clone of the request graph. A failing strategy is recorded in its Result
// and never stops the others. Results come back in request order.
//
// Cancelling ctx stops strategies that have not started yet; a simulation
// that is already running always completes.
func (r *Runner) Run(ctx context.Context, req Request) []Result {
	results := make([]Result, len(req.Strategies))
	log := r.logger.With(logging.Component("compare"), logging.Scenario(req.Scenario.Name))

	timer := logging.StartTimer(log, "comparison finished", logging.Count(len(req.Strategies)))

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(r.parallelism)
	for i, name := range req.Strategies {
		g.Go(func() error {
			if err := gCtx.Err(); err != nil {
				results[i] = Result{Strategy: name, Err: err}
				return nil
			}
			results[i] = r.runOne(req, name, log)
			return nil
		})
	}
	// Workers never return errors; failures live in results
	_ = g.Wait()

	failed := 0
	for _, res := range results {
		if res.OK() {
			continue
		}
		failed++
		log.Warn("strategy failed",
			logging.Strategy(res.Strategy),
			logging.String("reason", res.Reason()),
			logging.Error(res.Err),
		)
		if r.metrics != nil {
			r.metrics.RecordComparisonFailure(res.Strategy, res.Reason())
		}
	}
	if failed > 0 && failed == len(results) {
		timer.EndError(fmt.Errorf("all %d strategies failed", failed))
		return results
	}
	timer.End(logging.Int("failed", failed))
	return results
}

func (r *Runner) runOne(req Request, name string, log logging.Logger) Result {
	if r.metrics != nil {
		r.metrics.ComparisonStarted()
		defer r.metrics.ComparisonFinished()
	}

	start := time.Now()
	g := req.Graph.Clone()
	res := Result{Strategy: name, Graph: g}

	plan, err := planner.Generate(name, req.Options, req.Scenario, g)
	if r.metrics != nil {
		status := metrics.StatusSuccess
		steps := 0
		if err != nil {
			status = metrics.StatusError
			if errors.Is(err, planner.ErrDependencyCycle) {
				r.metrics.RecordDependencyCycle()
			}
		} else {
			steps = len(plan.Steps)
		}
		r.metrics.RecordPlan(name, status, time.Since(start), steps)
	}
	if err != nil {
		res.Err = err
		res.Duration = time.Since(start)
		return res
	}
	res.Plan = plan

	opts := []simulator.Option{simulator.WithLogger(log)}
	if r.metrics != nil {
		opts = append(opts, simulator.WithMetrics(r.metrics))
	}
	engine := simulator.NewEngine(req.Scenario, g, opts...)

	seed := req.Scenario.Seed
	if req.Seed != nil {
		seed = *req.Seed
	}
	res.Simulation, res.Err = engine.RunWithSeed(plan, seed)
	res.Duration = time.Since(start)
	return res
}

// Successful returns the results that completed, in their original order
func Successful(results []Result) []Result {
	ok := make([]Result, 0, len(results))
	for _, res := range results {
		if res.OK() {
			ok = append(ok, res)
		}
	}
	return ok
}
