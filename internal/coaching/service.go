// Package coaching wires the engines to persistence: it records sessions,
// check-ins and schedule edits, runs the matching engines and emits the
// resulting insights through the deduplication engine.
package coaching

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/claude/coachengine/internal/bioenergetics"
	"github.com/claude/coachengine/internal/cache"
	"github.com/claude/coachengine/internal/insights"
	"github.com/claude/coachengine/internal/models"
	"github.com/claude/coachengine/internal/readiness"
	"github.com/claude/coachengine/internal/schedule"
	"github.com/claude/coachengine/internal/workload"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Service is the coaching host around the engines.
type Service struct {
	store Store
	cache ResultCache
	dedup *insights.Deduplicator
	log   *slog.Logger
	now   func() time.Time
}

// NewService creates a service. cache may be nil. dedupWindow <= 0 uses the
// default 24h window.
func NewService(store Store, rc ResultCache, dedupWindow time.Duration, log *slog.Logger) *Service {
	return &Service{
		store: store,
		cache: rc,
		dedup: insights.NewDeduplicator(dedupWindow, log),
		log:   log,
		now:   time.Now,
	}
}

// SessionInput describes a completed session.
type SessionInput struct {
	Date            time.Time
	DurationMinutes float64
	PerceivedEffort float64
	Profile         models.Profile
	Sets            []models.RecordedSet
}

// SessionResult is what completing a session produced.
type SessionResult struct {
	SessionID uuid.UUID                 `json:"session_id"`
	Workload  models.WorkloadAssessment `json:"workload"`
	Energy    models.BioenergeticReport `json:"energy"`
	Insights  []models.FeedItem         `json:"insights"`
}

// CompleteSession stores the session, runs the workload and energy engines
// concurrently, persists the energy report and emits new insights.
func (s *Service) CompleteSession(ctx context.Context, athleteID string, in SessionInput) (*SessionResult, error) {
	if athleteID == "" {
		return nil, &models.ValidationError{Field: "athlete_id", Reason: "required"}
	}
	if in.Date.IsZero() {
		in.Date = s.now().UTC()
	}
	sess := Session{
		ID:        uuid.New(),
		AthleteID: athleteID,
		Entry: models.LoadLogEntry{
			Date:            in.Date,
			DurationMinutes: models.NonNegative(in.DurationMinutes),
			PerceivedEffort: models.NonNegative(in.PerceivedEffort),
		},
		Sets: in.Sets,
	}
	if err := s.store.InsertSession(ctx, sess); err != nil {
		return nil, fmt.Errorf("storing session: %w", err)
	}

	res := &SessionResult{SessionID: sess.ID}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a, err := s.Workload(gctx, athleteID)
		if err != nil {
			return err
		}
		res.Workload = a
		return nil
	})
	g.Go(func() error {
		res.Energy = s.energy(gctx, athleteID, in)
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if err := s.store.SaveSessionReport(ctx, athleteID, sess.ID, res.Energy); err != nil {
		return nil, fmt.Errorf("storing session report: %w", err)
	}

	candidates := insights.Collect(ctx, s.log,
		insights.Step{Name: "workload", Run: func(context.Context) ([]models.InsightEvent, error) {
			return insights.FromWorkload(res.Workload), nil
		}},
		insights.Step{Name: "energy", Run: func(context.Context) ([]models.InsightEvent, error) {
			return insights.FromEnergy(res.Energy), nil
		}},
		insights.Step{Name: "readiness", Run: func(ctx context.Context) ([]models.InsightEvent, error) {
			return s.readinessInsights(ctx, athleteID)
		}},
	)
	res.Insights = s.emit(ctx, athleteID, candidates)
	return res, nil
}

// Workload assesses the athlete's ACWR as of now.
func (s *Service) Workload(ctx context.Context, athleteID string) (models.WorkloadAssessment, error) {
	today := s.now().UTC()
	since := today.AddDate(0, 0, -(workload.ChronicDays - 1)).Truncate(24 * time.Hour)
	history, err := s.store.LoadLogsSince(ctx, athleteID, since)
	if err != nil {
		return models.WorkloadAssessment{}, fmt.Errorf("querying load logs: %w", err)
	}

	key := struct {
		Today   string                `json:"today"`
		History []models.LoadLogEntry `json:"history"`
	}{Today: today.Format(models.DateLayout), History: history}

	var a models.WorkloadAssessment
	if s.cacheGet(ctx, athleteID, cache.KindWorkload, key, &a) {
		return a, nil
	}
	a = workload.Assess(history, today)
	s.cachePut(ctx, athleteID, cache.KindWorkload, key, a)
	return a, nil
}

func (s *Service) energy(ctx context.Context, athleteID string, in SessionInput) models.BioenergeticReport {
	key := struct {
		Profile  models.Profile       `json:"profile"`
		Sets     []models.RecordedSet `json:"sets"`
		Duration float64              `json:"duration_minutes"`
		Effort   float64              `json:"perceived_effort"`
	}{in.Profile, in.Sets, in.DurationMinutes, in.PerceivedEffort}

	var r models.BioenergeticReport
	if s.cacheGet(ctx, athleteID, cache.KindEnergy, key, &r) {
		return r
	}
	r = bioenergetics.Estimate(in.Profile, in.Sets, in.DurationMinutes, in.PerceivedEffort)
	s.cachePut(ctx, athleteID, cache.KindEnergy, key, r)
	return r
}

// CheckInResult is the updated readiness and any new insights.
type CheckInResult struct {
	Readiness models.ReadinessState `json:"readiness"`
	Insights  []models.FeedItem     `json:"insights"`
}

// CheckIn applies a daily check-in to the athlete's readiness. The first
// check-in is stored unsmoothed.
func (s *Service) CheckIn(ctx context.Context, athleteID string, c models.CheckIn) (*CheckInResult, error) {
	if athleteID == "" {
		return nil, &models.ValidationError{Field: "athlete_id", Reason: "required"}
	}
	if c.Date.IsZero() {
		c.Date = s.now().UTC()
	}
	state, err := s.store.UpdateReadiness(ctx, athleteID, func(prev *models.ReadinessState) (models.ReadinessState, error) {
		if prev == nil {
			return readiness.Start(c), nil
		}
		return readiness.Update(*prev, c), nil
	})
	if err != nil {
		return nil, fmt.Errorf("updating readiness: %w", err)
	}
	return &CheckInResult{
		Readiness: state,
		Insights:  s.emit(ctx, athleteID, insights.FromReadiness(state)),
	}, nil
}

// Readiness returns the stored readiness state.
func (s *Service) Readiness(ctx context.Context, athleteID string) (*models.ReadinessState, error) {
	return s.store.GetReadiness(ctx, athleteID)
}

func (s *Service) readinessInsights(ctx context.Context, athleteID string) ([]models.InsightEvent, error) {
	st, err := s.store.GetReadiness(ctx, athleteID)
	if errors.Is(err, models.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return insights.FromReadiness(*st), nil
}

// ScheduleResult is the stored schedule after validation.
type ScheduleResult struct {
	Schedule *models.AthleteSchedule   `json:"schedule"`
	Warnings []models.ConstraintWarning `json:"warnings"`
	Insights []models.FeedItem         `json:"insights"`
}

// UpdateSchedule replaces the athlete's weekly matrix. Tags already stored for
// a (day, time of day) carry over, so tags never disappear across edits.
func (s *Service) UpdateSchedule(ctx context.Context, athleteID string, next *models.AthleteSchedule) (*ScheduleResult, error) {
	if athleteID == "" {
		return nil, &models.ValidationError{Field: "athlete_id", Reason: "required"}
	}
	if next == nil {
		return nil, &models.ValidationError{Field: "time_matrix", Reason: "required"}
	}
	next.AthleteID = athleteID
	if err := next.Validate(); err != nil {
		return nil, err
	}

	var warnings []models.ConstraintWarning
	stored, err := s.store.UpdateSchedule(ctx, athleteID, func(prev *models.AthleteSchedule) (*models.AthleteSchedule, error) {
		if prev != nil {
			for i := range next.TimeMatrix {
				if old := prev.Slot(next.TimeMatrix[i].Key()); old != nil {
					next.TimeMatrix[i].Tags.Union(old.Tags)
				}
			}
		}
		warnings = schedule.ValidateAndTag(next)
		return next, nil
	})
	if err != nil {
		return nil, fmt.Errorf("updating schedule: %w", err)
	}
	if warnings == nil {
		warnings = []models.ConstraintWarning{}
	}
	return &ScheduleResult{
		Schedule: stored,
		Warnings: warnings,
		Insights: s.emit(ctx, athleteID, insights.FromScheduleWarnings(warnings)),
	}, nil
}

// Schedule returns the stored schedule.
func (s *Service) Schedule(ctx context.Context, athleteID string) (*models.AthleteSchedule, error) {
	return s.store.GetSchedule(ctx, athleteID)
}

// Feed lists the athlete's feed, newest first.
func (s *Service) Feed(ctx context.Context, athleteID string, limit int) ([]models.FeedItem, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return s.store.ListFeed(ctx, athleteID, limit)
}

// CompleteFeedItem marks a feed item completed and read.
func (s *Service) CompleteFeedItem(ctx context.Context, athleteID string, id uuid.UUID) error {
	return s.store.CompleteFeedItem(ctx, athleteID, id)
}

// RefreshWorkload recomputes the athlete's ACWR and emits workload insights.
func (s *Service) RefreshWorkload(ctx context.Context, athleteID string) (models.WorkloadAssessment, []models.FeedItem, error) {
	a, err := s.Workload(ctx, athleteID)
	if err != nil {
		return a, nil, err
	}
	return a, s.emit(ctx, athleteID, insights.FromWorkload(a)), nil
}

// ActiveAthletes lists athletes with load inside the chronic window.
func (s *Service) ActiveAthletes(ctx context.Context) ([]string, error) {
	since := s.now().UTC().AddDate(0, 0, -(workload.ChronicDays - 1)).Truncate(24 * time.Hour)
	return s.store.ActiveAthletes(ctx, since)
}

// emit runs candidates through deduplication and persists the survivors in
// one batch. A failed emission is logged; the caller's write already succeeded.
func (s *Service) emit(ctx context.Context, athleteID string, candidates []models.InsightEvent) []models.FeedItem {
	if len(candidates) == 0 {
		return []models.FeedItem{}
	}
	items, err := s.store.EmitFeedItems(ctx, athleteID, func(ctx context.Context, h insights.History) ([]models.FeedItem, error) {
		return s.dedup.FilterNew(ctx, athleteID, candidates, h), nil
	})
	if err != nil {
		s.log.Error("emitting insights failed", "athlete_id", athleteID, "candidates", len(candidates), "error", err)
		return []models.FeedItem{}
	}
	if items == nil {
		items = []models.FeedItem{}
	}
	return items
}

func (s *Service) cacheGet(ctx context.Context, athleteID, kind string, key, out any) bool {
	if s.cache == nil {
		return false
	}
	hit, err := s.cache.Get(ctx, athleteID, kind, key, out)
	if err != nil {
		s.log.Warn("cache read failed", "kind", kind, "athlete_id", athleteID, "error", err)
		return false
	}
	return hit
}

func (s *Service) cachePut(ctx context.Context, athleteID, kind string, key, value any) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Put(ctx, athleteID, kind, key, value); err != nil {
		s.log.Warn("cache write failed", "kind", kind, "athlete_id", athleteID, "error", err)
	}
}
