package storage

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/claude/coachengine/internal/insights"
	"github.com/claude/coachengine/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const feedColumns = `id, athlete_id, type, title, message, priority, payload, completed, read, created_at`

// EmitFeedItems serializes feed emission per athlete: decide reads history
// and the accepted items are inserted in the same transaction, all or none.
func (db *DB) EmitFeedItems(ctx context.Context, athleteID string, decide func(ctx context.Context, h insights.History) ([]models.FeedItem, error)) ([]models.FeedItem, error) {
	var items []models.FeedItem
	err := db.inTx(ctx, func(tx pgx.Tx) error {
		if err := lockAthlete(ctx, tx, "feed", athleteID); err != nil {
			return err
		}
		var err error
		items, err = decide(ctx, txHistory{tx: tx})
		if err != nil {
			return err
		}
		if len(items) == 0 {
			return nil
		}
		query, args := feedInsert(items)
		if _, err := tx.Exec(ctx, query, args...); err != nil {
			return fmt.Errorf("inserting feed items: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return items, nil
}

// txHistory answers deduplication lookups inside the emitting transaction.
type txHistory struct {
	tx pgx.Tx
}

func (h txHistory) FindEvents(ctx context.Context, key insights.Key, createdSince time.Time) ([]models.FeedItem, error) {
	rows, err := h.tx.Query(ctx,
		`SELECT `+feedColumns+` FROM feed_items
		 WHERE athlete_id = $1 AND type = $2 AND title = $3
		   AND (NOT completed OR created_at >= $4)
		 ORDER BY created_at DESC
		 LIMIT 1`,
		key.AthleteID, key.Type, key.Title, createdSince)
	if err != nil {
		return nil, fmt.Errorf("querying feed history: %w", err)
	}
	return scanFeedItems(rows)
}

func feedInsert(items []models.FeedItem) (string, []any) {
	const cols = 10
	args := make([]any, 0, len(items)*cols)
	valueStrings := make([]string, 0, len(items))
	for i, it := range items {
		base := i * cols
		valueStrings = append(valueStrings, fmt.Sprintf(
			"($%d,$%d,$%d,$%d,$%d,$%d,$%d,$%d,$%d,$%d)",
			base+1, base+2, base+3, base+4, base+5, base+6, base+7, base+8, base+9, base+10,
		))
		args = append(args, it.ID, it.AthleteID, it.Type, it.Title, it.Message, string(it.Priority),
			it.Payload, it.Completed, it.Read, it.CreatedAt)
	}
	return `INSERT INTO feed_items (` + feedColumns + `) VALUES ` + strings.Join(valueStrings, ","), args
}

// ListFeed returns the athlete's feed items, newest first.
func (db *DB) ListFeed(ctx context.Context, athleteID string, limit int) ([]models.FeedItem, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT `+feedColumns+` FROM feed_items
		 WHERE athlete_id = $1
		 ORDER BY created_at DESC
		 LIMIT $2`,
		athleteID, limit)
	if err != nil {
		return nil, fmt.Errorf("querying feed: %w", err)
	}
	return scanFeedItems(rows)
}

// CompleteFeedItem marks an item completed and read.
func (db *DB) CompleteFeedItem(ctx context.Context, athleteID string, id uuid.UUID) error {
	tag, err := db.Pool.Exec(ctx,
		`UPDATE feed_items SET completed = TRUE, read = TRUE WHERE id = $1 AND athlete_id = $2`,
		id, athleteID)
	if err != nil {
		return fmt.Errorf("completing feed item: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

func scanFeedItems(rows pgx.Rows) ([]models.FeedItem, error) {
	defer rows.Close()

	items := []models.FeedItem{}
	for rows.Next() {
		var it models.FeedItem
		var priority string
		if err := rows.Scan(&it.ID, &it.AthleteID, &it.Type, &it.Title, &it.Message, &priority,
			&it.Payload, &it.Completed, &it.Read, &it.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning feed item: %w", err)
		}
		it.Priority = models.Priority(priority)
		items = append(items, it)
	}
	return items, rows.Err()
}
