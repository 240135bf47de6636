package server

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/claude/coachengine/internal/coaching"
	"github.com/claude/coachengine/internal/models"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// Coach is the coaching service as seen by the HTTP handlers.
type Coach interface {
	CompleteSession(ctx context.Context, athleteID string, in coaching.SessionInput) (*coaching.SessionResult, error)
	Workload(ctx context.Context, athleteID string) (models.WorkloadAssessment, error)
	CheckIn(ctx context.Context, athleteID string, c models.CheckIn) (*coaching.CheckInResult, error)
	Readiness(ctx context.Context, athleteID string) (*models.ReadinessState, error)
	UpdateSchedule(ctx context.Context, athleteID string, next *models.AthleteSchedule) (*coaching.ScheduleResult, error)
	Schedule(ctx context.Context, athleteID string) (*models.AthleteSchedule, error)
	Feed(ctx context.Context, athleteID string, limit int) ([]models.FeedItem, error)
	CompleteFeedItem(ctx context.Context, athleteID string, id uuid.UUID) error
}

var _ Coach = (*coaching.Service)(nil)

// SweepRuns lists the workload sweep journal.
type SweepRuns interface {
	QuerySweepRuns(ctx context.Context, limit int) ([]models.SweepRun, error)
}

// Server holds dependencies for HTTP handlers.
type Server struct {
	coach  Coach
	runs   SweepRuns
	log    *slog.Logger
	apiKey string
	router chi.Router
}

// New creates a new Server with all routes configured.
func New(coach Coach, apiKey string, log *slog.Logger) *Server {
	s := &Server{
		coach:  coach,
		log:    log,
		apiKey: apiKey,
		router: chi.NewRouter(),
	}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	s.router.Use(RequestLogging(s.log))
	s.router.Use(CORS)

	s.router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	s.router.Route("/api/v1", func(r chi.Router) {
		r.Use(APIKeyAuth(s.apiKey))

		r.Route("/athletes/{athleteID}", func(r chi.Router) {
			r.Post("/sessions", s.handleCompleteSession)
			r.Post("/sessions/fit", s.handleCompleteFITSession)
			r.Get("/workload", s.handleWorkload)
			r.Post("/checkins", s.handleCheckIn)
			r.Get("/readiness", s.handleReadiness)
			r.Put("/schedule", s.handleUpdateSchedule)
			r.Get("/schedule", s.handleSchedule)
			r.Get("/feed", s.handleFeed)
			r.Post("/feed/{itemID}/complete", s.handleCompleteFeedItem)
		})

		r.Post("/tools/one-rep-max", s.handleOneRepMax)
		r.Get("/sweeps", s.handleSweepRuns)
	})
}

// SetSweepRuns enables the sweep journal endpoint.
func (s *Server) SetSweepRuns(runs SweepRuns) {
	s.runs = runs
}

// Mount attaches an extra handler under pattern behind the API key, e.g. the
// MCP endpoint.
func (s *Server) Mount(pattern string, h http.Handler) {
	s.router.With(APIKeyAuth(s.apiKey)).Handle(pattern, h)
}
