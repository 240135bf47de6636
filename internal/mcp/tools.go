package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/claude/coachengine/internal/bioenergetics"
	"github.com/claude/coachengine/internal/formula"
	"github.com/claude/coachengine/internal/models"
	"github.com/claude/coachengine/internal/schedule"
	"github.com/claude/coachengine/internal/workload"
	"github.com/mark3labs/mcp-go/mcp"
)

// --- Tool definitions ---

var toolAssessWorkload = mcp.NewTool("assess_workload",
	mcp.WithDescription("Acute:chronic workload ratio (7-day vs 28-day mean daily load) with a status of Undertraining, Optimal, Overreaching, Danger or Inactive. Pass a load history to assess it directly, otherwise the athlete's stored sessions are used."),
	mcp.WithString("athlete_id", mcp.Description("Athlete to assess. Defaults to the athlete of the connection.")),
	mcp.WithArray("history", mcp.Description("Optional load log: objects with date (YYYY-MM-DD or ISO 8601), duration_minutes and perceived_effort."), mcp.Items(map[string]any{"type": "object"})),
	mcp.WithString("today", mcp.Description("Reference day for an explicit history (YYYY-MM-DD). Defaults to today.")),
)

var toolEstimateOneRepMax = mcp.NewTool("estimate_one_rep_max",
	mcp.WithDescription("Estimate a one-rep max from a submaximal set. Uses Epley for 2-5 reps, Brzycki for 6-10 and Wathan for 11-30; rounds to the nearest 0.5."),
	mcp.WithNumber("weight", mcp.Required(), mcp.Description("Load lifted in kg")),
	mcp.WithNumber("reps", mcp.Required(), mcp.Description("Repetitions performed")),
)

var toolEstimateSessionEnergy = mcp.NewTool("estimate_session_energy",
	mcp.WithDescription("Estimate energy expenditure, carbohydrate and protein replacement and water for a session. Uses mechanical work when any set is PowerTime, otherwise METs from perceived effort."),
	mcp.WithNumber("duration_minutes", mcp.Required(), mcp.Description("Session duration in minutes")),
	mcp.WithNumber("perceived_effort", mcp.Required(), mcp.Description("Session RPE, 0-10")),
	mcp.WithNumber("weight_kg", mcp.Description("Athlete body weight. Defaults to 70 kg.")),
	mcp.WithArray("sets", mcp.Description("Recorded sets: exercise_name, metric_type (LoadReps, BodyweightReps, IsometricTime, PaceDistance, PowerTime), primary_value, secondary_value, perceived_effort."), mcp.Items(map[string]any{"type": "object"})),
)

var toolValidateSchedule = mcp.NewTool("validate_schedule",
	mcp.WithDescription("Check a weekly schedule for interference with demanding external sessions, CNS overload and home-equipment limits. Returns the tagged schedule and warnings. Nothing is stored."),
	mcp.WithObject("schedule", mcp.Required(), mcp.Description("Schedule with mandate and time_matrix slots (day_of_week, time_of_day, status, location, external_load, tags)")),
)

var toolGetReadiness = mcp.NewTool("get_readiness",
	mcp.WithDescription("Current readiness score (0-100), fatigue state and flags from the athlete's daily check-ins."),
	mcp.WithString("athlete_id", mcp.Description("Athlete to query. Defaults to the athlete of the connection.")),
)

var toolGetInsightFeed = mcp.NewTool("get_insight_feed",
	mcp.WithDescription("The athlete's insight feed, newest first: workload risk, recovery, fueling and schedule constraint notices."),
	mcp.WithString("athlete_id", mcp.Description("Athlete to query. Defaults to the athlete of the connection.")),
	mcp.WithNumber("limit", mcp.Description("Maximum items. Defaults to 50.")),
)

// --- Tool handlers ---

func (h *handlers) assessWorkload(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args struct {
		History []models.LoadLogEntry `json:"history"`
		Today   string                `json:"today"`
	}
	if err := bindArgs(req, &args); err != nil {
		return mcp.NewToolResultError("invalid arguments: " + err.Error()), nil
	}

	if len(args.History) > 0 {
		today := h.now().UTC()
		if args.Today != "" {
			t, err := time.Parse(models.DateLayout, args.Today)
			if err != nil {
				return mcp.NewToolResultError("invalid today: " + err.Error()), nil
			}
			today = t
		}
		return jsonResult(workload.Assess(args.History, today))
	}

	athleteID, ok := athleteFrom(ctx, req)
	if !ok {
		return mcp.NewToolResultError("athlete_id or history is required"), nil
	}
	a, err := h.coach.Workload(ctx, athleteID)
	if err != nil {
		h.log.Error("mcp assess_workload", "athlete_id", athleteID, "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	return jsonResult(a)
}

func (h *handlers) estimateOneRepMax(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args struct {
		Weight models.FlexFloat `json:"weight"`
		Reps   models.FlexFloat `json:"reps"`
	}
	if err := bindArgs(req, &args); err != nil {
		return mcp.NewToolResultError("invalid arguments: " + err.Error()), nil
	}
	return jsonResult(formula.EstimateOneRepMax(float64(args.Weight), int(args.Reps)))
}

func (h *handlers) estimateSessionEnergy(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args struct {
		DurationMinutes models.FlexFloat     `json:"duration_minutes"`
		PerceivedEffort models.FlexFloat     `json:"perceived_effort"`
		WeightKg        models.FlexFloat     `json:"weight_kg"`
		Sets            []models.RecordedSet `json:"sets"`
	}
	if err := bindArgs(req, &args); err != nil {
		return mcp.NewToolResultError("invalid arguments: " + err.Error()), nil
	}
	report := bioenergetics.Estimate(
		models.Profile{WeightKg: float64(args.WeightKg)},
		args.Sets,
		float64(args.DurationMinutes),
		float64(args.PerceivedEffort),
	)
	return jsonResult(report)
}

func (h *handlers) validateSchedule(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args struct {
		Schedule *models.AthleteSchedule `json:"schedule"`
	}
	if err := bindArgs(req, &args); err != nil {
		return mcp.NewToolResultError("invalid arguments: " + err.Error()), nil
	}
	if args.Schedule == nil {
		return mcp.NewToolResultError("schedule parameter is required"), nil
	}
	if err := args.Schedule.Validate(); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	warnings := schedule.ValidateAndTag(args.Schedule)
	if warnings == nil {
		warnings = []models.ConstraintWarning{}
	}
	return jsonResult(map[string]any{
		"schedule": args.Schedule,
		"warnings": warnings,
	})
}

func (h *handlers) getReadiness(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	athleteID, ok := athleteFrom(ctx, req)
	if !ok {
		return mcp.NewToolResultError("athlete_id is required"), nil
	}
	state, err := h.coach.Readiness(ctx, athleteID)
	if errors.Is(err, models.ErrNotFound) {
		return mcp.NewToolResultError("no check-ins recorded for " + athleteID), nil
	}
	if err != nil {
		h.log.Error("mcp get_readiness", "athlete_id", athleteID, "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	return jsonResult(state)
}

func (h *handlers) getInsightFeed(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	athleteID, ok := athleteFrom(ctx, req)
	if !ok {
		return mcp.NewToolResultError("athlete_id is required"), nil
	}
	items, err := h.coach.Feed(ctx, athleteID, req.GetInt("limit", 50))
	if err != nil {
		h.log.Error("mcp get_insight_feed", "athlete_id", athleteID, "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	if items == nil {
		items = []models.FeedItem{}
	}
	return jsonResult(items)
}

// athleteFrom prefers the athlete_id argument over the connection's athlete.
func athleteFrom(ctx context.Context, req mcp.CallToolRequest) (string, bool) {
	if id := req.GetString("athlete_id", ""); id != "" {
		return id, true
	}
	id := AthleteIDFromContext(ctx)
	return id, id != ""
}

// bindArgs decodes the tool arguments through JSON so the models' lenient
// decoders apply.
func bindArgs(req mcp.CallToolRequest, v any) error {
	data, err := json.Marshal(req.GetArguments())
	if err != nil {
		return fmt.Errorf("encoding arguments: %w", err)
	}
	return json.Unmarshal(data, v)
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	result, err := mcp.NewToolResultJSON(v)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}
