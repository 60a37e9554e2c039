package main

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/dd0wney/cluso-patchplan/pkg/compare"
	"github.com/dd0wney/cluso-patchplan/pkg/logging"
	"github.com/dd0wney/cluso-patchplan/pkg/planner"
	"github.com/dd0wney/cluso-patchplan/pkg/report"
)

func newCompareCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compare",
		Short: "Run several strategies on one scenario and compare their metrics",
		Long: `Run every strategy (or those given with --strategies) on the same scenario
and print a table of key metrics. A strategy that fails to plan or violates
availability is reported in the table and does not stop the others.`,
		Example: `  patchplan compare --scenario scenarios/ecommerce.yaml
  patchplan compare --scenario scenarios/ecommerce.yaml --strategies rolling,canary --out results`,
		Args: cobra.NoArgs,
		RunE: runCompare,
	}

	f := cmd.Flags()
	f.String("scenario", "", "scenario YAML file")
	f.StringSlice("strategies", nil, "strategies to compare (default all)")
	f.String("out", "", "also write comparison.md and comparison.json to this directory")
	f.Int64("seed", 0, "override the scenario seed")
	f.Int("batch-size", planner.DefaultBatchSize, "nodes per batch for batch_rolling")
	f.Int("parallelism", 0, "strategies simulated at once (default GOMAXPROCS)")
	return cmd
}

func runCompare(cmd *cobra.Command, _ []string) (err error) {
	s, err := newSession(cmd)
	if err != nil {
		return err
	}
	defer s.finish(&err)

	sc, g, err := loadScenario(s.cfg.Scenario)
	if err != nil {
		return err
	}
	log := s.logger.With(logging.Scenario(sc.Name))

	runner := compare.NewRunner(
		compare.WithLogger(log),
		compare.WithMetrics(s.metrics),
		compare.WithParallelism(s.cfg.Parallelism),
	)
	results := runner.Run(cmd.Context(), compare.Request{
		Scenario:   sc,
		Graph:      g,
		Strategies: s.cfg.Strategies,
		Options:    planner.Options{BatchSize: s.cfg.BatchSize},
		Seed:       s.cfg.Seed,
	})
	if err := cmd.Context().Err(); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s (seed %d)\n", sc.Name, s.seed(sc))
	fmt.Fprintln(out, report.ComparisonTable(results))
	for _, res := range results {
		if !res.OK() {
			fmt.Fprintf(out, "%s failed (%s): %v\n", res.Strategy, res.Reason(), res.Err)
		}
	}

	if s.cfg.Out != "" {
		if err := writeComparison(s.cfg.Out, sc.Name, s.seed(sc), results); err != nil {
			return err
		}
		fmt.Fprintf(out, "wrote %s and %s to %s\n", report.ComparisonMarkdownFile, report.ComparisonJSONFile, s.cfg.Out)
	}

	if len(compare.Successful(results)) == 0 {
		return fmt.Errorf("all %d strategies failed", len(results))
	}
	return nil
}

func writeComparison(dir, scenarioName string, seed int64, results []compare.Result) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	files := map[string]func(io.Writer) error{
		report.ComparisonMarkdownFile: func(w io.Writer) error {
			return report.WriteComparisonMarkdown(w, scenarioName, results)
		},
		report.ComparisonJSONFile: func(w io.Writer) error {
			return report.WriteComparisonJSON(w, scenarioName, seed, results)
		},
	}
	for name, render := range files {
		var buf bytes.Buffer
		if err := render(&buf); err != nil {
			return fmt.Errorf("render %s: %w", name, err)
		}
		if err := os.WriteFile(filepath.Join(dir, name), buf.Bytes(), 0o644); err != nil {
			return fmt.Errorf("write %s: %w", name, err)
		}
	}
	return nil
}
