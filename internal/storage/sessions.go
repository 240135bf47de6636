package storage

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/claude/coachengine/internal/coaching"
	"github.com/claude/coachengine/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// InsertSession stores a session's load log entry and its sets atomically.
func (db *DB) InsertSession(ctx context.Context, s coaching.Session) error {
	return db.inTx(ctx, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx,
			`INSERT INTO training_sessions (id, athlete_id, session_date, duration_minutes, perceived_effort)
			 VALUES ($1, $2, $3, $4, $5)`,
			s.ID, s.AthleteID, s.Entry.Date, s.Entry.DurationMinutes, s.Entry.PerceivedEffort)
		if err != nil {
			return fmt.Errorf("inserting session: %w", err)
		}
		if len(s.Sets) == 0 {
			return nil
		}
		query, args := setsInsert(s.ID, s.Sets)
		if _, err := tx.Exec(ctx, query, args...); err != nil {
			return fmt.Errorf("inserting session sets: %w", err)
		}
		return nil
	})
}

// setsInsert builds a multi-row insert for a session's sets.
func setsInsert(sessionID uuid.UUID, sets []models.RecordedSet) (string, []any) {
	const cols = 7
	args := make([]any, 0, len(sets)*cols)
	valueStrings := make([]string, 0, len(sets))
	for i, set := range sets {
		base := i * cols
		valueStrings = append(valueStrings, fmt.Sprintf(
			"($%d,$%d,$%d,$%d,$%d,$%d,$%d)",
			base+1, base+2, base+3, base+4, base+5, base+6, base+7,
		))
		var metricType models.MetricType
		var primary, secondary float64
		if set.Metric != nil {
			metricType = set.Metric.Type()
			primary, secondary = set.Metric.Values()
		}
		args = append(args, sessionID, i, set.ExerciseName, string(metricType), primary, secondary, set.PerceivedEffort)
	}
	query := `INSERT INTO session_sets (session_id, position, exercise_name, metric_type, primary_value, secondary_value, perceived_effort) VALUES ` +
		strings.Join(valueStrings, ",")
	return query, args
}

// LoadLogsSince returns an athlete's load log entries dated on or after since.
func (db *DB) LoadLogsSince(ctx context.Context, athleteID string, since time.Time) ([]models.LoadLogEntry, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT session_date, duration_minutes, perceived_effort
		 FROM training_sessions
		 WHERE athlete_id = $1 AND session_date >= $2
		 ORDER BY session_date`,
		athleteID, since)
	if err != nil {
		return nil, fmt.Errorf("querying load logs: %w", err)
	}
	defer rows.Close()

	var out []models.LoadLogEntry
	for rows.Next() {
		var e models.LoadLogEntry
		if err := rows.Scan(&e.Date, &e.DurationMinutes, &e.PerceivedEffort); err != nil {
			return nil, fmt.Errorf("scanning load log: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// SaveSessionReport stores the energy report for a session. A report is
// written once; repeats are ignored.
func (db *DB) SaveSessionReport(ctx context.Context, athleteID string, sessionID uuid.UUID, r models.BioenergeticReport) error {
	_, err := db.Pool.Exec(ctx,
		`INSERT INTO session_reports (session_id, athlete_id, kcal_total, carbs_g, protein_g, water_ml, source)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 ON CONFLICT (session_id) DO NOTHING`,
		sessionID, athleteID, r.KcalTotal, r.CarbsG, r.ProteinG, r.WaterMl, string(r.Source))
	if err != nil {
		return fmt.Errorf("inserting session report: %w", err)
	}
	return nil
}

// ActiveAthletes lists athletes with at least one session on or after since.
func (db *DB) ActiveAthletes(ctx context.Context, since time.Time) ([]string, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT DISTINCT athlete_id FROM training_sessions WHERE session_date >= $1 ORDER BY athlete_id`,
		since)
	if err != nil {
		return nil, fmt.Errorf("querying active athletes: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning athlete id: %w", err)
		}
		out = append(out, id)
	}
	return out, rows.Err()
}
