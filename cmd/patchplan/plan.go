package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/dd0wney/cluso-patchplan/pkg/logging"
	"github.com/dd0wney/cluso-patchplan/pkg/metrics"
	"github.com/dd0wney/cluso-patchplan/pkg/planner"
	"github.com/dd0wney/cluso-patchplan/pkg/report"
)

func newPlanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Generate a plan without simulating it",
		Long: `Generate a plan for one strategy and print it as JSON. With --out the plan
is written to that file instead; it can be replayed with 'simulate --plan'.`,
		Example: "  patchplan plan --scenario scenarios/payments.yaml --strategy hybrid --out hybrid.json",
		Args:    cobra.NoArgs,
		RunE:    runPlan,
	}

	f := cmd.Flags()
	f.String("scenario", "", "scenario YAML file")
	f.String("strategy", "", "strategy name, see 'patchplan strategies'")
	f.String("out", "", "write the plan to this file instead of stdout")
	f.Int("batch-size", planner.DefaultBatchSize, "nodes per batch for batch_rolling")
	return cmd
}

func runPlan(cmd *cobra.Command, _ []string) (err error) {
	s, err := newSession(cmd)
	if err != nil {
		return err
	}
	defer s.finish(&err)

	sc, g, err := loadScenario(s.cfg.Scenario)
	if err != nil {
		return err
	}
	log := s.logger.With(logging.Scenario(sc.Name), logging.Strategy(s.cfg.Strategy))

	start := time.Now()
	plan, err := planner.Generate(s.cfg.Strategy, planner.Options{BatchSize: s.cfg.BatchSize}, sc, g)
	if err != nil {
		if errors.Is(err, planner.ErrDependencyCycle) {
			s.metrics.RecordDependencyCycle()
		}
		s.metrics.RecordPlan(s.cfg.Strategy, metrics.StatusError, time.Since(start), 0)
		return fmt.Errorf("%s: %w", s.cfg.Strategy, err)
	}
	s.metrics.RecordPlan(s.cfg.Strategy, metrics.StatusSuccess, time.Since(start), len(plan.Steps))
	log.Info("plan generated", logging.Count(len(plan.Steps)), logging.Latency(time.Since(start)))

	var out io.Writer = cmd.OutOrStdout()
	if s.cfg.Out != "" {
		f, err := os.Create(s.cfg.Out)
		if err != nil {
			return fmt.Errorf("create plan file: %w", err)
		}
		defer f.Close()
		out = f
	}
	if err := report.WritePlan(out, plan); err != nil {
		return err
	}
	if s.cfg.Out != "" {
		fmt.Fprintf(cmd.OutOrStdout(), "wrote %d steps to %s\n", len(plan.Steps), s.cfg.Out)
	}
	return nil
}
