package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dd0wney/cluso-patchplan/pkg/config"
	"github.com/dd0wney/cluso-patchplan/pkg/infra"
	"github.com/dd0wney/cluso-patchplan/pkg/logging"
	"github.com/dd0wney/cluso-patchplan/pkg/metrics"
	"github.com/dd0wney/cluso-patchplan/pkg/scenario"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "patchplan",
		Short: "What-if planner and simulator for patch rollouts",
		Long: `patchplan generates patch rollout plans for a dependency graph of hosts,
service instances and databases, simulates them against availability and
version-compatibility constraints, and reports risk and downtime metrics.

Settings come from flags, PATCHPLAN_* environment variables and an optional
YAML config file, in that order of precedence.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := root.PersistentFlags()
	pf.String("config", "", "YAML config file")
	pf.String("log-level", "info", "log level: debug, info, warn, error")
	pf.String("log-format", string(logging.FormatText), "log format: text or json")
	pf.String("metrics-file", "", "write Prometheus metrics in text format to this file")

	root.AddCommand(
		newSimulateCmd(),
		newPlanCmd(),
		newCompareCmd(),
		newValidateCmd(),
		newStrategiesCmd(),
		newVersionCmd(),
	)
	return root
}

// session is the resolved configuration and shared services of one command
type session struct {
	cfg     *config.Config
	logger  logging.Logger
	metrics *metrics.Registry
}

// newSession merges flags, environment and config file for cmd and checks
// the result against what the command needs.
func newSession(cmd *cobra.Command) (*session, error) {
	v := config.New()
	if err := config.BindFlags(v, cmd.Flags()); err != nil {
		return nil, err
	}
	configFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(v, configFile)
	if err != nil {
		return nil, err
	}
	if err := cfg.ValidateFor(cmd.Name()); err != nil {
		return nil, err
	}

	logger := cfg.Logger().With(logging.Component("cli"), logging.String("command", cmd.Name()))
	return &session{
		cfg:     cfg,
		logger:  logger,
		metrics: metrics.NewRegistry(),
	}, nil
}

// close flushes the metrics textfile when one was requested
func (s *session) close() error {
	if s.cfg.MetricsFile == "" {
		return nil
	}
	if err := s.metrics.WriteTextfile(s.cfg.MetricsFile); err != nil {
		return err
	}
	s.logger.Debug("metrics written", logging.Path(s.cfg.MetricsFile))
	return nil
}

// finish closes the session and keeps the command error first
func (s *session) finish(err *error) {
	*err = errors.Join(*err, s.close())
}

// seed returns the --seed override or the scenario seed
func (s *session) seed(sc *infra.Scenario) int64 {
	if s.cfg.Seed != nil {
		return *s.cfg.Seed
	}
	return sc.Seed
}

func loadScenario(path string) (*infra.Scenario, *infra.Graph, error) {
	sc, err := scenario.Load(path)
	if err != nil {
		return nil, nil, err
	}
	g, err := infra.BuildGraph(sc)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", path, err)
	}
	return sc, g, nil
}
