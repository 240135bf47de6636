// Package insights turns engine outputs into candidate notifications and
// decides which candidates become new feed items.
package insights

import (
	"context"
	"log/slog"
	"time"

	"github.com/claude/coachengine/internal/models"
	"github.com/google/uuid"
)

// DefaultWindow is how long any feed item, completed or not, blocks an
// identical one.
const DefaultWindow = 24 * time.Hour

// Key is the identity of an insight for deduplication.
type Key struct {
	AthleteID string
	Type      string
	Title     string
}

// History answers the lookup the engine needs: items with the given key that
// are still open or were created at or after createdSince.
type History interface {
	FindEvents(ctx context.Context, key Key, createdSince time.Time) ([]models.FeedItem, error)
}

// Deduplicator filters candidate insights against an athlete's feed history.
// A candidate is dropped when an item with the same (athlete, type, title) is
// still open, or was created within the window even if completed since.
type Deduplicator struct {
	window time.Duration
	now    func() time.Time
	newID  func() uuid.UUID
	log    *slog.Logger
}

// NewDeduplicator returns a deduplicator with the given window. A
// non-positive window uses DefaultWindow.
func NewDeduplicator(window time.Duration, log *slog.Logger) *Deduplicator {
	if window <= 0 {
		window = DefaultWindow
	}
	if log == nil {
		log = slog.Default()
	}
	return &Deduplicator{window: window, now: time.Now, newID: uuid.New, log: log}
}

// FilterNew returns a feed item for every candidate that is net-new. Each
// candidate is evaluated on its own: a history failure drops that candidate,
// is logged, and evaluation continues with the rest. Identical candidates in
// the same batch collapse to the first.
func (d *Deduplicator) FilterNew(ctx context.Context, athleteID string, candidates []models.InsightEvent, history History) []models.FeedItem {
	now := d.now().UTC()
	since := now.Add(-d.window)
	seen := make(map[Key]struct{}, len(candidates))

	var out []models.FeedItem
	for _, c := range candidates {
		key := Key{AthleteID: athleteID, Type: c.Type, Title: c.Title}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}

		blocked, err := d.blocked(ctx, key, since, history)
		if err != nil {
			d.log.Error("insight history lookup failed",
				"athlete_id", athleteID, "type", c.Type, "title", c.Title, "error", err)
			continue
		}
		if blocked {
			continue
		}
		out = append(out, models.FeedItem{
			ID:        d.newID(),
			AthleteID: athleteID,
			Type:      c.Type,
			Title:     c.Title,
			Message:   c.Message,
			Priority:  c.Priority,
			Payload:   c.Payload,
			CreatedAt: now,
		})
	}
	return out
}

func (d *Deduplicator) blocked(ctx context.Context, key Key, since time.Time, history History) (bool, error) {
	items, err := history.FindEvents(ctx, key, since)
	if err != nil {
		return false, err
	}
	for _, it := range items {
		if !it.Completed || !it.CreatedAt.Before(since) {
			return true, nil
		}
	}
	return false, nil
}
