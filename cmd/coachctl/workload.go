package main

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/claude/coachengine/internal/models"
	"github.com/claude/coachengine/internal/workload"
	"github.com/spf13/cobra"
)

func newWorkloadCmd() *cobra.Command {
	var logPath string
	var today string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "workload",
		Short: "Compute the acute:chronic workload ratio of a load log",
		Long:  "Reads a JSON array of {date, duration_minutes, perceived_effort} entries and reports the 7-day:28-day workload ratio.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			data, err := readInput(cmd, logPath)
			if err != nil {
				return err
			}
			var history []models.LoadLogEntry
			if err := json.Unmarshal(data, &history); err != nil {
				return fmt.Errorf("parse load log: %w", err)
			}

			day := time.Now().UTC()
			if today != "" {
				day, err = time.Parse(models.DateLayout, today)
				if err != nil {
					return fmt.Errorf("parse --today: %w", err)
				}
			}

			a := workload.Assess(history, day)
			if asJSON {
				return writeJSON(cmd, a)
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "ratio %.2f  acute %d  chronic %d  %s\n",
				a.Ratio, a.AcuteLoad, a.ChronicLoad, a.Status)
			return err
		},
	}

	cmd.Flags().StringVar(&logPath, "log", "-", "Load log JSON file (- for stdin)")
	cmd.Flags().StringVar(&today, "today", "", "Reference day YYYY-MM-DD (default: today)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Render JSON output")

	return cmd
}
