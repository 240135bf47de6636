package main

import (
	"fmt"

	"github.com/claude/coachengine/internal/formula"
	"github.com/spf13/cobra"
)

func newOneRepMaxCmd() *cobra.Command {
	var weight float64
	var reps int
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "onerm",
		Short: "Estimate a one-rep max from a submaximal set",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			est := formula.EstimateOneRepMax(weight, reps)
			if asJSON {
				return writeJSON(cmd, est)
			}
			if est.Value == 0 {
				_, err := fmt.Fprintf(cmd.OutOrStdout(), "no estimate (%s)\n", est.Method)
				return err
			}
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "%.1f kg (%s)\n", est.Value, est.Method)
			return err
		},
	}

	cmd.Flags().Float64Var(&weight, "weight", 0, "Load lifted in kg")
	cmd.Flags().IntVar(&reps, "reps", 0, "Repetitions performed")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Render JSON output")
	_ = cmd.MarkFlagRequired("weight")
	_ = cmd.MarkFlagRequired("reps")

	return cmd
}
