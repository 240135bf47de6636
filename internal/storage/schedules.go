package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/claude/coachengine/internal/models"
	"github.com/jackc/pgx/v5"
)

// UpdateSchedule replaces the athlete's schedule with what fn returns. fn
// sees the stored schedule (nil if none) and runs under a per-athlete lock,
// so tag merging and validation see a consistent previous state.
func (db *DB) UpdateSchedule(ctx context.Context, athleteID string, fn func(prev *models.AthleteSchedule) (*models.AthleteSchedule, error)) (*models.AthleteSchedule, error) {
	var next *models.AthleteSchedule
	err := db.inTx(ctx, func(tx pgx.Tx) error {
		if err := lockAthlete(ctx, tx, "schedule", athleteID); err != nil {
			return err
		}
		prev, err := getSchedule(ctx, tx, athleteID)
		if err != nil && !errors.Is(err, models.ErrNotFound) {
			return err
		}
		next, err = fn(prev)
		if err != nil {
			return err
		}
		next.AthleteID = athleteID

		_, err = tx.Exec(ctx,
			`INSERT INTO athlete_schedules (athlete_id, mandate, updated_at) VALUES ($1, $2, NOW())
			 ON CONFLICT (athlete_id) DO UPDATE SET mandate = EXCLUDED.mandate, updated_at = NOW()`,
			athleteID, string(next.Mandate))
		if err != nil {
			return fmt.Errorf("upserting schedule: %w", err)
		}
		if _, err := tx.Exec(ctx, `DELETE FROM schedule_slots WHERE athlete_id = $1`, athleteID); err != nil {
			return fmt.Errorf("clearing schedule slots: %w", err)
		}
		if len(next.TimeMatrix) == 0 {
			return nil
		}
		query, args := slotsInsert(athleteID, next.TimeMatrix)
		if _, err := tx.Exec(ctx, query, args...); err != nil {
			return fmt.Errorf("inserting schedule slots: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return next, nil
}

// GetSchedule returns the athlete's stored schedule or models.ErrNotFound.
func (db *DB) GetSchedule(ctx context.Context, athleteID string) (*models.AthleteSchedule, error) {
	return getSchedule(ctx, db.Pool, athleteID)
}

func getSchedule(ctx context.Context, q querier, athleteID string) (*models.AthleteSchedule, error) {
	s := &models.AthleteSchedule{AthleteID: athleteID}
	var mandate string
	err := q.QueryRow(ctx, `SELECT mandate FROM athlete_schedules WHERE athlete_id = $1`, athleteID).Scan(&mandate)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying schedule: %w", err)
	}
	s.Mandate = models.Mandate(mandate)

	rows, err := q.Query(ctx,
		`SELECT day_of_week, time_of_day, status, location, energy_level, external_load, tags
		 FROM schedule_slots WHERE athlete_id = $1 ORDER BY position`,
		athleteID)
	if err != nil {
		return nil, fmt.Errorf("querying schedule slots: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			day, tod, status string
			slot             models.TimeSlot
			tags             []string
		)
		if err := rows.Scan(&day, &tod, &status, &slot.Location, &slot.EnergyLevel, &slot.ExternalLoad, &tags); err != nil {
			return nil, fmt.Errorf("scanning schedule slot: %w", err)
		}
		slot.Day = models.Day(day)
		slot.TimeOfDay = models.TimeOfDay(tod)
		slot.Status = models.SlotStatus(status)
		slot.Tags = models.NewTagSet(tags...)
		s.TimeMatrix = append(s.TimeMatrix, slot)
	}
	return s, rows.Err()
}

// slotsInsert builds a multi-row insert for a schedule's slots, preserving
// matrix order in position.
func slotsInsert(athleteID string, slots []models.TimeSlot) (string, []any) {
	const cols = 9
	args := make([]any, 0, len(slots)*cols)
	valueStrings := make([]string, 0, len(slots))
	for i, s := range slots {
		base := i * cols
		valueStrings = append(valueStrings, fmt.Sprintf(
			"($%d,$%d,$%d,$%d,$%d,$%d,$%d,$%d,$%d)",
			base+1, base+2, base+3, base+4, base+5, base+6, base+7, base+8, base+9,
		))
		args = append(args, athleteID, string(s.Day), string(s.TimeOfDay), i, string(s.Status),
			s.Location, s.EnergyLevel, s.ExternalLoad, s.Tags.Sorted())
	}
	query := `INSERT INTO schedule_slots (athlete_id, day_of_week, time_of_day, position, status, location, energy_level, external_load, tags) VALUES ` +
		strings.Join(valueStrings, ",")
	return query, args
}
