package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/claude/coachengine/internal/models"
	"github.com/jackc/pgx/v5"
)

// UpdateReadiness applies fn to the stored readiness under a per-athlete
// advisory lock, so concurrent check-ins never lose an update. The row lock
// alone would not cover an athlete's first check-in.
func (db *DB) UpdateReadiness(ctx context.Context, athleteID string, fn func(prev *models.ReadinessState) (models.ReadinessState, error)) (models.ReadinessState, error) {
	var next models.ReadinessState
	err := db.inTx(ctx, func(tx pgx.Tx) error {
		if err := lockAthlete(ctx, tx, "readiness", athleteID); err != nil {
			return err
		}
		prev, err := getReadiness(ctx, tx, athleteID, true)
		if err != nil && !errors.Is(err, models.ErrNotFound) {
			return err
		}
		next, err = fn(prev)
		if err != nil {
			return err
		}
		flags := next.Flags
		if flags == nil {
			flags = map[string]bool{}
		}
		_, err = tx.Exec(ctx,
			`INSERT INTO readiness_states (athlete_id, readiness_score, fatigue_state, flags, as_of, updated_at)
			 VALUES ($1, $2, $3, $4, $5, NOW())
			 ON CONFLICT (athlete_id) DO UPDATE SET
				readiness_score = EXCLUDED.readiness_score,
				fatigue_state = EXCLUDED.fatigue_state,
				flags = EXCLUDED.flags,
				as_of = EXCLUDED.as_of,
				updated_at = NOW()`,
			athleteID, next.Score, string(next.FatigueState), flags, next.AsOf)
		if err != nil {
			return fmt.Errorf("upserting readiness: %w", err)
		}
		return nil
	})
	if err != nil {
		return models.ReadinessState{}, err
	}
	return next, nil
}

// GetReadiness returns the athlete's stored readiness or models.ErrNotFound.
func (db *DB) GetReadiness(ctx context.Context, athleteID string) (*models.ReadinessState, error) {
	return getReadiness(ctx, db.Pool, athleteID, false)
}

// querier is satisfied by both the pool and a transaction.
type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func getReadiness(ctx context.Context, q querier, athleteID string, forUpdate bool) (*models.ReadinessState, error) {
	query := `SELECT readiness_score, fatigue_state, flags, as_of FROM readiness_states WHERE athlete_id = $1`
	if forUpdate {
		query += ` FOR UPDATE`
	}
	var st models.ReadinessState
	var fatigue string
	err := q.QueryRow(ctx, query, athleteID).Scan(&st.Score, &fatigue, &st.Flags, &st.AsOf)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying readiness: %w", err)
	}
	st.FatigueState = models.FatigueState(fatigue)
	return &st, nil
}
