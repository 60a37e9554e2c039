package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dd0wney/cluso-patchplan/pkg/constraints"
	"github.com/dd0wney/cluso-patchplan/pkg/logging"
	"github.com/dd0wney/cluso-patchplan/pkg/planner"
)

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate SCENARIO...",
		Short: "Check scenario files and report constraints the initial state already breaks",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runValidate,
	}
}

func runValidate(cmd *cobra.Command, args []string) (err error) {
	s, err := newSession(cmd)
	if err != nil {
		return err
	}
	defer s.finish(&err)

	out := cmd.OutOrStdout()
	validator := constraints.NewStateValidator()
	var errs []error
	for _, path := range args {
		sc, g, err := loadScenario(path)
		if err != nil {
			errs = append(errs, err)
			fmt.Fprintf(out, "%s: invalid\n", path)
			continue
		}

		initial := validator.Validate(g, sc, nil)
		fmt.Fprintf(out, "%s: ok (%s: %d nodes, %d edges, %d patchable)\n",
			path, sc.Name, g.Len(), len(g.Edges()), len(g.PatchableIDs()))
		for _, v := range initial.Strings() {
			fmt.Fprintf(out, "  initial state: %s\n", v)
		}
		if !initial.Valid {
			s.logger.Warn("initial state violates constraints",
				logging.Path(path), logging.Strings("violations", initial.Strings()))
		}

		// A cycle only blocks dep_greedy
		if _, err := planner.DependencyOrder(sc, g); err != nil {
			fmt.Fprintf(out, "  dependency order: %v\n", err)
			s.logger.Warn("scenario has no dependency order",
				logging.Path(path), logging.Error(err))
		}
	}
	return errors.Join(errs...)
}
