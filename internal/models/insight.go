package models

import (
	"time"

	"github.com/google/uuid"
)

// Priority orders feed items for display.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// InsightEvent is a candidate notification. It becomes a FeedItem only when
// the deduplication engine accepts it.
type InsightEvent struct {
	Type     string         `json:"type"`
	Title    string         `json:"title"`
	Message  string         `json:"message"`
	Priority Priority       `json:"priority"`
	Payload  map[string]any `json:"payload,omitempty"`
}

// FeedItem is a persisted insight shown to the athlete.
type FeedItem struct {
	ID        uuid.UUID      `json:"id"`
	AthleteID string         `json:"athlete_id"`
	Type      string         `json:"type"`
	Title     string         `json:"title"`
	Message   string         `json:"message"`
	Priority  Priority       `json:"priority"`
	Payload   map[string]any `json:"payload,omitempty"`
	Completed bool           `json:"completed"`
	Read      bool           `json:"read"`
	CreatedAt time.Time      `json:"created_at"`
}
