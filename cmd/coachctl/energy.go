package main

import (
	"encoding/json"
	"fmt"

	"github.com/claude/coachengine/internal/bioenergetics"
	"github.com/claude/coachengine/internal/fitimport"
	"github.com/claude/coachengine/internal/models"
	"github.com/spf13/cobra"
)

func newEnergyCmd() *cobra.Command {
	var duration float64
	var effort float64
	var weight float64
	var setsPath string
	var fitPath string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "energy",
		Short: "Estimate session energy, macros and hydration",
		Long:  "Estimates a session from --duration and --effort. Sets from --sets (JSON) or a FIT activity (--fit) with power data switch the estimate to mechanical work.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var sets []models.RecordedSet
			if setsPath != "" {
				data, err := readInput(cmd, setsPath)
				if err != nil {
					return err
				}
				if err := json.Unmarshal(data, &sets); err != nil {
					return fmt.Errorf("parse sets: %w", err)
				}
			}
			if fitPath != "" {
				activity, err := fitimport.ReadFile(fitPath)
				if err != nil {
					return err
				}
				sets = append(sets, activity.Sets...)
				if !cmd.Flags().Changed("duration") {
					duration = activity.DurationMinutes
				}
			}

			r := bioenergetics.Estimate(models.Profile{WeightKg: weight}, sets, duration, effort)
			if asJSON {
				return writeJSON(cmd, r)
			}
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "%d kcal  carbs %d g  protein %d g  water %d ml  (%s)\n",
				r.KcalTotal, r.CarbsG, r.ProteinG, r.WaterMl, r.Source)
			return err
		},
	}

	cmd.Flags().Float64Var(&duration, "duration", 0, "Session duration in minutes")
	cmd.Flags().Float64Var(&effort, "effort", 0, "Session RPE, 0-10")
	cmd.Flags().Float64Var(&weight, "weight", 0, "Body weight in kg (default 70)")
	cmd.Flags().StringVar(&setsPath, "sets", "", "Recorded sets JSON file (- for stdin)")
	cmd.Flags().StringVar(&fitPath, "fit", "", "FIT activity file with power data")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Render JSON output")
	_ = cmd.MarkFlagRequired("effort")

	return cmd
}
