package main

import (
	"fmt"
	"strings"

	"github.com/claude/coachengine/internal/models"
	"github.com/claude/coachengine/internal/schedule"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func newScheduleCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Work with weekly schedules",
	}
	cmd.AddCommand(newScheduleValidateCmd())
	return cmd
}

func newScheduleValidateCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "validate <schedule.yaml>",
		Short: "Check a weekly schedule for conflicts and print tags and warnings",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readInput(cmd, args[0])
			if err != nil {
				return err
			}
			var s models.AthleteSchedule
			if err := yaml.Unmarshal(data, &s); err != nil {
				return fmt.Errorf("parse schedule: %w", err)
			}
			if err := s.Validate(); err != nil {
				return err
			}

			warnings := schedule.ValidateAndTag(&s)
			if warnings == nil {
				warnings = []models.ConstraintWarning{}
			}
			if asJSON {
				return writeJSON(cmd, map[string]any{"schedule": s, "warnings": warnings})
			}

			out := cmd.OutOrStdout()
			for _, slot := range s.TimeMatrix {
				if len(slot.Tags) == 0 {
					continue
				}
				fmt.Fprintf(out, "%-20s %s\n", slot.Key(), strings.Join(slot.Tags.Sorted(), ", "))
			}
			if len(warnings) == 0 {
				_, err := fmt.Fprintln(out, "no warnings")
				return err
			}
			for _, w := range warnings {
				fmt.Fprintf(out, "%s: %s\n", w.Code, w.Message)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Render JSON output")

	return cmd
}
