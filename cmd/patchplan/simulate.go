package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dd0wney/cluso-patchplan/pkg/compare"
	"github.com/dd0wney/cluso-patchplan/pkg/infra"
	"github.com/dd0wney/cluso-patchplan/pkg/logging"
	"github.com/dd0wney/cluso-patchplan/pkg/planner"
	"github.com/dd0wney/cluso-patchplan/pkg/report"
	"github.com/dd0wney/cluso-patchplan/pkg/scenario"
	"github.com/dd0wney/cluso-patchplan/pkg/simulator"
)

func newSimulateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Plan and simulate one strategy, then write the report files",
		Example: `  patchplan simulate --scenario scenarios/ecommerce.yaml --strategy rolling --out results/rolling
  patchplan simulate --scenario scenarios/ecommerce.yaml --plan results/rolling/plan.json --out results/replay`,
		Args: cobra.NoArgs,
		RunE: runSimulate,
	}

	f := cmd.Flags()
	f.String("scenario", "", "scenario YAML file")
	f.String("strategy", "", "strategy name, see 'patchplan strategies'")
	f.String("plan", "", "replay this plan.json instead of generating a plan")
	f.String("out", "", "output directory")
	f.Int64("seed", 0, "override the scenario seed")
	f.Int("batch-size", planner.DefaultBatchSize, "nodes per batch for batch_rolling")
	f.Bool("compress-events", false, "write a snappy-compressed events.jsonl.sz")
	return cmd
}

func runSimulate(cmd *cobra.Command, _ []string) (err error) {
	s, err := newSession(cmd)
	if err != nil {
		return err
	}
	defer s.finish(&err)

	sc, g, err := loadScenario(s.cfg.Scenario)
	if err != nil {
		return err
	}
	log := s.logger.With(logging.Scenario(sc.Name), logging.Seed(s.seed(sc)))

	var (
		result *simulator.SimulationResult
		final  *infra.Graph
	)
	if s.cfg.Plan != "" {
		result, final, err = s.replay(sc, g, log)
	} else {
		result, final, err = s.generate(cmd.Context(), sc, g, log)
	}
	if err != nil {
		return err
	}

	writer := report.NewWriter(s.cfg.Out,
		report.WithCompressedEvents(s.cfg.CompressEvents),
		report.WithLogger(log),
	)
	manifest, err := writer.Write(sc, final, result, s.seed(sc))
	if err != nil {
		return err
	}

	m := result.Metrics
	fmt.Fprintf(cmd.OutOrStdout(), "%s/%s: %d steps, time_to_full_patch=%d, exposure=%s, downtime=%d\n",
		sc.Name, result.Plan.Strategy, len(result.Plan.Steps),
		m.TimeToFullPatch, report.FormatNumber(m.ExposureWindowWeighted), m.TotalDowntimeSecondsOverall)
	fmt.Fprintf(cmd.OutOrStdout(), "wrote %d files to %s (run %s)\n", len(manifest.Files), writer.Dir(), manifest.RunID)
	for _, v := range manifest.FinalStateViolations {
		fmt.Fprintf(cmd.OutOrStdout(), "final state: %s\n", v)
	}
	return nil
}

// generate plans and simulates the configured strategy on a copy of g
func (s *session) generate(ctx context.Context, sc *infra.Scenario, g *infra.Graph, log logging.Logger) (*simulator.SimulationResult, *infra.Graph, error) {
	runner := compare.NewRunner(compare.WithLogger(log), compare.WithMetrics(s.metrics))
	res := runner.Run(ctx, compare.Request{
		Scenario:   sc,
		Graph:      g,
		Strategies: []string{s.cfg.Strategy},
		Options:    planner.Options{BatchSize: s.cfg.BatchSize},
		Seed:       s.cfg.Seed,
	})[0]
	if res.Err != nil {
		return nil, nil, fmt.Errorf("%s: %w", res.Strategy, res.Err)
	}
	return res.Simulation, res.Graph, nil
}

// replay simulates a plan loaded from disk against g
func (s *session) replay(sc *infra.Scenario, g *infra.Graph, log logging.Logger) (*simulator.SimulationResult, *infra.Graph, error) {
	plan, err := scenario.LoadPlan(s.cfg.Plan)
	if err != nil {
		return nil, nil, err
	}
	log.Info("replaying plan", logging.Path(s.cfg.Plan), logging.Strategy(plan.Strategy), logging.Count(len(plan.Steps)))

	engine := simulator.NewEngine(sc, g, simulator.WithLogger(log), simulator.WithMetrics(s.metrics))
	result, err := engine.RunWithSeed(plan, s.seed(sc))
	if err != nil {
		return nil, nil, fmt.Errorf("replay %s: %w", s.cfg.Plan, err)
	}
	return result, g, nil
}
