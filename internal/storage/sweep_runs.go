package storage

import (
	"context"
	"fmt"

	"github.com/claude/coachengine/internal/models"
)

// InsertSweepRun creates a journal entry for a starting sweep and returns its ID.
func (db *DB) InsertSweepRun(ctx context.Context, run models.SweepRun) (int64, error) {
	var id int64
	err := db.Pool.QueryRow(ctx,
		`INSERT INTO sweep_runs (started_at, status, athletes, failed, emitted, pruned, duration_ms, error_message)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		 RETURNING id`,
		run.StartedAt, run.Status, run.Athletes, run.Failed, run.Emitted, run.Pruned,
		run.DurationMs, run.ErrorMessage,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("inserting sweep run: %w", err)
	}
	return id, nil
}

// UpdateSweepRun records the outcome of a sweep (typically from "running" to "success").
func (db *DB) UpdateSweepRun(ctx context.Context, id int64, run models.SweepRun) error {
	_, err := db.Pool.Exec(ctx,
		`UPDATE sweep_runs SET
		 status = $2, athletes = $3, failed = $4, emitted = $5, pruned = $6,
		 duration_ms = $7, error_message = $8
		 WHERE id = $1`,
		id, run.Status, run.Athletes, run.Failed, run.Emitted, run.Pruned,
		run.DurationMs, run.ErrorMessage,
	)
	if err != nil {
		return fmt.Errorf("updating sweep run %d: %w", id, err)
	}
	return nil
}

// QuerySweepRuns returns the most recent sweep runs.
func (db *DB) QuerySweepRuns(ctx context.Context, limit int) ([]models.SweepRun, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := db.Pool.Query(ctx,
		`SELECT id, started_at, status, athletes, failed, emitted, pruned, duration_ms, error_message
		 FROM sweep_runs
		 ORDER BY started_at DESC
		 LIMIT $1`,
		limit)
	if err != nil {
		return nil, fmt.Errorf("querying sweep runs: %w", err)
	}
	defer rows.Close()

	var result []models.SweepRun
	for rows.Next() {
		var r models.SweepRun
		if err := rows.Scan(&r.ID, &r.StartedAt, &r.Status, &r.Athletes, &r.Failed,
			&r.Emitted, &r.Pruned, &r.DurationMs, &r.ErrorMessage); err != nil {
			return nil, fmt.Errorf("scanning sweep run: %w", err)
		}
		result = append(result, r)
	}
	return result, rows.Err()
}
