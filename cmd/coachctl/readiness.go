package main

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/claude/coachengine/internal/models"
	"github.com/claude/coachengine/internal/readiness"
	"github.com/spf13/cobra"
)

func newReadinessCmd() *cobra.Command {
	var c models.CheckIn
	var previous float64
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "readiness",
		Short: "Score a daily check-in",
		Long:  "Scores a check-in. With --previous the score is smoothed against yesterday's readiness; without it the raw score is reported.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c.Date = time.Now().UTC()

			var state models.ReadinessState
			if cmd.Flags().Changed("previous") {
				state = readiness.Update(models.ReadinessState{Score: previous}, c)
			} else {
				state = readiness.Start(c)
			}

			if asJSON {
				return writeJSON(cmd, state)
			}
			var flags []string
			for name, on := range state.Flags {
				if on {
					flags = append(flags, name)
				}
			}
			sort.Strings(flags)
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "%.1f %s %s\n", state.Score, state.FatigueState, strings.Join(flags, ","))
			return err
		},
	}

	cmd.Flags().Float64Var(&c.SleepQuality, "sleep-quality", 0, "Sleep quality 0-10")
	cmd.Flags().Float64Var(&c.SleepDurationHours, "sleep-hours", 0, "Hours slept")
	cmd.Flags().Float64Var(&c.PerceivedStress, "stress", 0, "Perceived stress 0-10")
	cmd.Flags().Float64Var(&c.MuscleSoreness, "soreness", 0, "Muscle soreness 0-10")
	cmd.Flags().Float64Var(&c.EnergyLevel, "energy", 0, "Energy level 0-10")
	cmd.Flags().Float64Var(&previous, "previous", 0, "Previous readiness score")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Render JSON output")

	return cmd
}
