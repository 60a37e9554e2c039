// Package planner turns a scenario graph into an ordered rollout plan.
//
// Every strategy is a pure function of the scenario and graph: it reads node
// attributes and topology but never mutates health or version state, so a
// strategy may be invoked any number of times before a simulation starts.
package planner

import (
	"errors"
	"fmt"

	"github.com/dd0wney/cluso-patchplan/pkg/infra"
)

var (
	// ErrUnknownStrategy is returned by New for unregistered names
	ErrUnknownStrategy = errors.New("unknown strategy")
	// ErrDependencyCycle is returned when dependency ordering is impossible
	ErrDependencyCycle = errors.New("dependency cycle detected; cannot build dependency-aware plan")
)

// Strategy names
const (
	BigBangName      = "bigbang"
	RollingName      = "rolling"
	BatchRollingName = "batch_rolling"
	CanaryName       = "canary"
	BlueGreenName    = "bluegreen"
	DepGreedyName    = "dep_greedy"
	HybridName       = "hybrid"
)

// DefaultBatchSize is the batch size used by batch_rolling when none is given
const DefaultBatchSize = 2

// Strategy generates a plan for a scenario
type Strategy interface {
	// Name returns the registry name of the strategy
	Name() string
	// Generate builds the plan. It must not mutate the graph.
	Generate(scenario *infra.Scenario, g *infra.Graph) (*infra.Plan, error)
}

// Options tunes strategies that take parameters
type Options struct {
	BatchSize int
}

type factory func(opts Options) Strategy

var registry = map[string]factory{
	BigBangName:      func(Options) Strategy { return BigBang{} },
	RollingName:      func(Options) Strategy { return Rolling{} },
	BatchRollingName: func(o Options) Strategy { return NewBatchRolling(o.BatchSize) },
	CanaryName:       func(Options) Strategy { return Canary{} },
	BlueGreenName:    func(Options) Strategy { return BlueGreen{} },
	DepGreedyName:    func(Options) Strategy { return DependencyAwareGreedy{} },
	HybridName:       func(Options) Strategy { return HybridRiskAware{} },
}

// Names returns every registered strategy in canonical comparison order
func Names() []string {
	return []string{
		BigBangName,
		RollingName,
		BatchRollingName,
		CanaryName,
		BlueGreenName,
		DepGreedyName,
		HybridName,
	}
}

// New returns the strategy registered under name
func New(name string, opts Options) (Strategy, error) {
	f, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q (available: %v)", ErrUnknownStrategy, name, Names())
	}
	return f(opts), nil
}

// Generate is shorthand for New followed by Strategy.Generate
func Generate(name string, opts Options, scenario *infra.Scenario, g *infra.Graph) (*infra.Plan, error) {
	s, err := New(name, opts)
	if err != nil {
		return nil, err
	}
	return s.Generate(scenario, g)
}
