// Package sweep periodically recomputes workload for every recently active
// athlete so risk insights appear even on days without a new session.
package sweep

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/claude/coachengine/internal/models"
	"github.com/robfig/cron"
	"golang.org/x/sync/errgroup"
)

// DefaultSpec runs the sweep daily at 04:30 (seconds field first).
const DefaultSpec = "0 30 4 * * *"

// cacheTTL is how long cached results are kept before a sweep prunes them.
const cacheTTL = 7 * 24 * time.Hour

// Coach is the part of the coaching service the sweep drives.
type Coach interface {
	ActiveAthletes(ctx context.Context) ([]string, error)
	RefreshWorkload(ctx context.Context, athleteID string) (models.WorkloadAssessment, []models.FeedItem, error)
}

// Pruner drops stale cached results.
type Pruner interface {
	Prune(ctx context.Context, cutoff time.Time) (int64, error)
}

// Journal records sweep runs.
type Journal interface {
	InsertSweepRun(ctx context.Context, run models.SweepRun) (int64, error)
	UpdateSweepRun(ctx context.Context, id int64, run models.SweepRun) error
}

// Summary reports what one sweep did.
type Summary struct {
	Athletes int
	Failed   int
	Emitted  int
	Pruned   int64
}

// Sweeper runs the workload sweep on a cron schedule.
type Sweeper struct {
	coach       Coach
	pruner      Pruner
	journal     Journal
	log         *slog.Logger
	concurrency int

	mu   sync.Mutex
	cron *cron.Cron
}

// New creates a sweeper. pruner may be nil.
func New(coach Coach, pruner Pruner, log *slog.Logger) *Sweeper {
	return &Sweeper{coach: coach, pruner: pruner, log: log, concurrency: 4}
}

// SetJournal makes every RunOnce leave a sweep_runs entry.
func (s *Sweeper) SetJournal(j Journal) {
	s.journal = j
}

// ValidateSpec reports whether spec is a schedule the sweeper accepts.
func ValidateSpec(spec string) error {
	if _, err := cron.Parse(spec); err != nil {
		return fmt.Errorf("invalid sweep spec %q: %w", spec, err)
	}
	return nil
}

// Start schedules RunOnce according to spec.
func (s *Sweeper) Start(spec string) error {
	c := cron.New()
	err := c.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
		defer cancel()
		s.RunOnce(ctx)
	})
	if err != nil {
		return fmt.Errorf("scheduling sweep: %w", err)
	}

	s.mu.Lock()
	s.cron = c
	s.mu.Unlock()

	c.Start()
	s.log.Info("workload sweep scheduled", "spec", spec)
	return nil
}

// Stop halts the schedule. A sweep already running finishes on its own.
func (s *Sweeper) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cron != nil {
		s.cron.Stop()
		s.cron = nil
	}
}

// RunOnce refreshes every active athlete. One athlete failing does not stop
// the others.
func (s *Sweeper) RunOnce(ctx context.Context) Summary {
	start := time.Now()
	var sum Summary
	runID := s.journalStart(ctx, start)

	ids, err := s.coach.ActiveAthletes(ctx)
	if err != nil {
		s.log.Error("sweep: listing athletes failed", "error", err)
		s.journalFinish(ctx, runID, start, sum, err)
		return sum
	}
	sum.Athletes = len(ids)

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for _, id := range ids {
		g.Go(func() error {
			a, items, err := s.coach.RefreshWorkload(gctx, id)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				sum.Failed++
				s.log.Error("sweep: workload refresh failed", "athlete_id", id, "error", err)
				return nil
			}
			sum.Emitted += len(items)
			if len(items) > 0 {
				s.log.Info("sweep: insights emitted", "athlete_id", id, "status", a.Status, "ratio", a.Ratio, "count", len(items))
			}
			return nil
		})
	}
	_ = g.Wait()

	if s.pruner != nil {
		n, err := s.pruner.Prune(ctx, time.Now().Add(-cacheTTL))
		if err != nil {
			s.log.Warn("sweep: cache prune failed", "error", err)
		}
		sum.Pruned = n
	}

	s.log.Info("sweep complete",
		"athletes", sum.Athletes,
		"failed", sum.Failed,
		"emitted", sum.Emitted,
		"pruned", sum.Pruned,
		"duration", time.Since(start).String(),
	)
	s.journalFinish(ctx, runID, start, sum, nil)
	return sum
}

func (s *Sweeper) journalStart(ctx context.Context, start time.Time) int64 {
	if s.journal == nil {
		return 0
	}
	id, err := s.journal.InsertSweepRun(ctx, models.SweepRun{StartedAt: start, Status: models.SweepRunning})
	if err != nil {
		s.log.Warn("sweep: journal insert failed", "error", err)
		return 0
	}
	return id
}

func (s *Sweeper) journalFinish(ctx context.Context, id int64, start time.Time, sum Summary, runErr error) {
	if s.journal == nil || id == 0 {
		return
	}
	ms := int(time.Since(start).Milliseconds())
	run := models.SweepRun{
		StartedAt:  start,
		Status:     models.SweepSuccess,
		Athletes:   sum.Athletes,
		Failed:     sum.Failed,
		Emitted:    sum.Emitted,
		Pruned:     sum.Pruned,
		DurationMs: &ms,
	}
	switch {
	case runErr != nil:
		msg := runErr.Error()
		run.Status, run.ErrorMessage = models.SweepError, &msg
	case sum.Failed > 0:
		run.Status = models.SweepPartial
	}
	if err := s.journal.UpdateSweepRun(ctx, id, run); err != nil {
		s.log.Warn("sweep: journal update failed", "run_id", id, "error", err)
	}
}
