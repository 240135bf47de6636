package mcp

import (
	"context"
	"log/slog"
	"time"

	"github.com/claude/coachengine/internal/coaching"
	"github.com/claude/coachengine/internal/models"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

type contextKey int

const athleteIDKey contextKey = iota

// AthleteIDFromContext extracts the athlete ID injected by the transport layer.
func AthleteIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(athleteIDKey).(string); ok {
		return id
	}
	return ""
}

// WithAthleteID returns a context with the given athlete ID.
func WithAthleteID(ctx context.Context, athleteID string) context.Context {
	return context.WithValue(ctx, athleteIDKey, athleteID)
}

// Coach is the read side of the coaching service the tools query.
type Coach interface {
	Workload(ctx context.Context, athleteID string) (models.WorkloadAssessment, error)
	Readiness(ctx context.Context, athleteID string) (*models.ReadinessState, error)
	Feed(ctx context.Context, athleteID string, limit int) ([]models.FeedItem, error)
}

var _ Coach = (*coaching.Service)(nil)

// New creates an MCP server with all tools and resources registered.
func New(coach Coach, version string, log *slog.Logger) *server.MCPServer {
	s := server.NewMCPServer("CoachEngine", version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
		server.WithInstructions("CoachEngine training analytics. Assess workload, estimate one-rep maxes and session energy, check weekly schedules for conflicts, and read an athlete's readiness and insight feed. Athlete-scoped tools use the athlete_id argument or the X-Athlete-ID header."),
	)

	h := &handlers{coach: coach, log: log, now: time.Now}

	s.AddTools(
		server.ServerTool{Tool: toolAssessWorkload, Handler: h.assessWorkload},
		server.ServerTool{Tool: toolEstimateOneRepMax, Handler: h.estimateOneRepMax},
		server.ServerTool{Tool: toolEstimateSessionEnergy, Handler: h.estimateSessionEnergy},
		server.ServerTool{Tool: toolValidateSchedule, Handler: h.validateSchedule},
		server.ServerTool{Tool: toolGetReadiness, Handler: h.getReadiness},
		server.ServerTool{Tool: toolGetInsightFeed, Handler: h.getInsightFeed},
	)

	s.AddResources(
		server.ServerResource{Resource: resFormulaCatalog, Handler: h.formulaCatalog},
	)

	return s
}

// handlers holds dependencies for MCP tool/resource handlers.
type handlers struct {
	coach Coach
	log   *slog.Logger
	now   func() time.Time
}

var resFormulaCatalog = mcp.NewResource(
	"coach://formula_catalog",
	"Formula Catalog",
	mcp.WithResourceDescription("One-rep-max strategy table and MET, carbohydrate, protein and hydration factors by perceived effort"),
	mcp.WithMIMEType("application/json"),
)
