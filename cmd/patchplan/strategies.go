package main

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/dd0wney/cluso-patchplan/pkg/planner"
)

var strategyDescriptions = map[string]string{
	planner.BigBangName:      "patch every node in one step",
	planner.RollingName:      "one incompatibility component per step",
	planner.BatchRollingName: "fixed-size batches of components (--batch-size)",
	planner.CanaryName:       "one canary per service, a pause, then everything else",
	planner.BlueGreenName:    "build a patched parallel environment and switch over",
	planner.DepGreedyName:    "dependencies before dependents, riskiest ready group first",
	planner.HybridName:       "riskiest groups first, blue/green where downtime is not tolerated",
}

func newStrategiesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "strategies",
		Short: "List the available strategies",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			for _, name := range planner.Names() {
				fmt.Fprintf(cmd.OutOrStdout(), "%-14s %s\n", name, strategyDescriptions[name])
			}
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "patchplan %s (%s %s/%s)\n", version, runtime.Version(), runtime.GOOS, runtime.GOARCH)
		},
	}
}
