package coaching

import (
	"context"
	"time"

	"github.com/claude/coachengine/internal/insights"
	"github.com/claude/coachengine/internal/models"
	"github.com/google/uuid"
)

// Session is a completed training session as stored.
type Session struct {
	ID        uuid.UUID
	AthleteID string
	Entry     models.LoadLogEntry
	Sets      []models.RecordedSet
}

// Store is the persistence the coaching service needs. Implementations must
// serialize the Update* callbacks and EmitFeedItems per athlete.
type Store interface {
	// InsertSession stores the session's load log entry and sets.
	InsertSession(ctx context.Context, s Session) error
	// LoadLogsSince returns the athlete's entries dated on or after since.
	LoadLogsSince(ctx context.Context, athleteID string, since time.Time) ([]models.LoadLogEntry, error)
	// SaveSessionReport attaches an energy report to a stored session.
	SaveSessionReport(ctx context.Context, athleteID string, sessionID uuid.UUID, r models.BioenergeticReport) error

	// UpdateReadiness runs fn with the stored state (nil if none) under a
	// per-athlete lock and stores what it returns.
	UpdateReadiness(ctx context.Context, athleteID string, fn func(prev *models.ReadinessState) (models.ReadinessState, error)) (models.ReadinessState, error)
	// GetReadiness returns models.ErrNotFound when the athlete never checked in.
	GetReadiness(ctx context.Context, athleteID string) (*models.ReadinessState, error)

	// UpdateSchedule runs fn with the stored schedule (nil if none) under a
	// per-athlete lock and replaces it with what fn returns.
	UpdateSchedule(ctx context.Context, athleteID string, fn func(prev *models.AthleteSchedule) (*models.AthleteSchedule, error)) (*models.AthleteSchedule, error)
	// GetSchedule returns models.ErrNotFound when no schedule is stored.
	GetSchedule(ctx context.Context, athleteID string) (*models.AthleteSchedule, error)

	// EmitFeedItems lets decide query the athlete's feed history and inserts
	// what it returns, all inside one per-athlete critical section.
	EmitFeedItems(ctx context.Context, athleteID string, decide func(ctx context.Context, h insights.History) ([]models.FeedItem, error)) ([]models.FeedItem, error)
	// ListFeed returns the athlete's feed, newest first.
	ListFeed(ctx context.Context, athleteID string, limit int) ([]models.FeedItem, error)
	// CompleteFeedItem marks an item completed and read. It returns
	// models.ErrNotFound when the item does not belong to the athlete.
	CompleteFeedItem(ctx context.Context, athleteID string, id uuid.UUID) error

	// ActiveAthletes lists athletes with a load log entry on or after since.
	ActiveAthletes(ctx context.Context, since time.Time) ([]string, error)
}

// ResultCache memoizes derived results. Failures are never fatal.
type ResultCache interface {
	Get(ctx context.Context, athleteID, kind string, input, out any) (bool, error)
	Put(ctx context.Context, athleteID, kind string, input, value any) error
}
