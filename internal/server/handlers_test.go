package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/claude/coachengine/internal/coaching"
	"github.com/claude/coachengine/internal/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testKey = "test-key"

type fakeCoach struct {
	session   coaching.SessionInput
	athlete   string
	checkIn   models.CheckIn
	schedule  *models.AthleteSchedule
	feedLimit int
	completed uuid.UUID
	err       error
}

func (f *fakeCoach) CompleteSession(_ context.Context, athleteID string, in coaching.SessionInput) (*coaching.SessionResult, error) {
	f.athlete, f.session = athleteID, in
	if f.err != nil {
		return nil, f.err
	}
	return &coaching.SessionResult{
		SessionID: uuid.MustParse("6f1c1c7e-3d4b-4d7a-9a55-6e1f8f0d2a10"),
		Workload:  models.WorkloadAssessment{Ratio: 1.1, AcuteLoad: 300, ChronicLoad: 270, Status: models.WorkloadOptimal},
		Energy:    models.BioenergeticReport{KcalTotal: 720, Source: models.SourceMETsEstimator},
		Insights:  []models.FeedItem{},
	}, nil
}

func (f *fakeCoach) Workload(_ context.Context, athleteID string) (models.WorkloadAssessment, error) {
	f.athlete = athleteID
	return models.WorkloadAssessment{Status: models.WorkloadInactive}, f.err
}

func (f *fakeCoach) CheckIn(_ context.Context, athleteID string, c models.CheckIn) (*coaching.CheckInResult, error) {
	f.athlete, f.checkIn = athleteID, c
	if f.err != nil {
		return nil, f.err
	}
	return &coaching.CheckInResult{Readiness: models.ReadinessState{Score: 80, FatigueState: models.FatigueNormal}, Insights: []models.FeedItem{}}, nil
}

func (f *fakeCoach) Readiness(_ context.Context, athleteID string) (*models.ReadinessState, error) {
	f.athlete = athleteID
	if f.err != nil {
		return nil, f.err
	}
	return &models.ReadinessState{Score: 64.2, FatigueState: models.FatigueNormal}, nil
}

func (f *fakeCoach) UpdateSchedule(_ context.Context, athleteID string, next *models.AthleteSchedule) (*coaching.ScheduleResult, error) {
	f.athlete, f.schedule = athleteID, next
	if f.err != nil {
		return nil, f.err
	}
	if err := next.Validate(); err != nil {
		return nil, err
	}
	return &coaching.ScheduleResult{Schedule: next, Warnings: []models.ConstraintWarning{}, Insights: []models.FeedItem{}}, nil
}

func (f *fakeCoach) Schedule(_ context.Context, athleteID string) (*models.AthleteSchedule, error) {
	f.athlete = athleteID
	if f.err != nil {
		return nil, f.err
	}
	return &models.AthleteSchedule{AthleteID: athleteID, Mandate: models.MandateHybrid}, nil
}

func (f *fakeCoach) Feed(_ context.Context, athleteID string, limit int) ([]models.FeedItem, error) {
	f.athlete, f.feedLimit = athleteID, limit
	return nil, f.err
}

func (f *fakeCoach) CompleteFeedItem(_ context.Context, athleteID string, id uuid.UUID) error {
	f.athlete, f.completed = athleteID, id
	return f.err
}

func newTestServer(coach Coach) (*Server, *bytes.Buffer) {
	var buf bytes.Buffer
	return New(coach, testKey, slog.New(slog.NewTextHandler(&buf, nil))), &buf
}

func do(t *testing.T, s *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("X-API-Key", testKey)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&out))
	return out
}

// TestCompleteSessionParsesLooseNumbers verifies string numbers and the date reach the service.
func TestCompleteSessionParsesLooseNumbers(t *testing.T) {
	coach := &fakeCoach{}
	s, _ := newTestServer(coach)

	rec := do(t, s, http.MethodPost, "/api/v1/athletes/ath-1/sessions", `{
		"date": "2026-03-02",
		"duration_minutes": "60",
		"perceived_effort": 7,
		"profile": {"weight_kg": "80,5"},
		"sets": [{"exercise_name": "Squat", "metric_type": "LoadReps", "primary_value": 100, "secondary_value": "5", "perceived_effort": 8}]
	}`)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "ath-1", coach.athlete)
	assert.Equal(t, time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC), coach.session.Date)
	assert.Equal(t, 60.0, coach.session.DurationMinutes)
	assert.Equal(t, 80.5, coach.session.Profile.WeightKg)
	require.Len(t, coach.session.Sets, 1)
	assert.Equal(t, models.LoadReps{WeightKg: 100, Reps: 5}, coach.session.Sets[0].Metric)

	body := decode(t, rec)
	assert.Equal(t, "6f1c1c7e-3d4b-4d7a-9a55-6e1f8f0d2a10", body["session_id"])
	assert.Equal(t, "Optimal", body["workload"].(map[string]any)["status"])
}

// TestCompleteSessionUnknownMetric maps an unknown metric type to 422 with the field name.
func TestCompleteSessionUnknownMetric(t *testing.T) {
	s, _ := newTestServer(&fakeCoach{})

	rec := do(t, s, http.MethodPost, "/api/v1/athletes/ath-1/sessions",
		`{"duration_minutes": 30, "perceived_effort": 5, "sets": [{"metric_type": "Calories", "primary_value": 1, "secondary_value": 1}]}`)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "metric_type", decode(t, rec)["field"])
}

// TestCompleteSessionBadJSON rejects an unreadable body with 400.
func TestCompleteSessionBadJSON(t *testing.T) {
	s, _ := newTestServer(&fakeCoach{})

	rec := do(t, s, http.MethodPost, "/api/v1/athletes/ath-1/sessions", `{not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// TestCompleteFITSessionRejectsGarbage returns 400 when the body is not a FIT file.
func TestCompleteFITSessionRejectsGarbage(t *testing.T) {
	coach := &fakeCoach{}
	s, _ := newTestServer(coach)

	rec := do(t, s, http.MethodPost, "/api/v1/athletes/ath-1/sessions/fit?perceived_effort=6", "definitely not a fit file")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, coach.athlete)
}

// TestCheckIn passes the decoded check-in through and returns the new state.
func TestCheckIn(t *testing.T) {
	coach := &fakeCoach{}
	s, _ := newTestServer(coach)

	rec := do(t, s, http.MethodPost, "/api/v1/athletes/ath-2/checkins",
		`{"sleep_quality": "8", "sleep_duration_hours": 7.5, "perceived_stress": 3, "muscle_soreness": 2, "energy_level": 9}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 8.0, coach.checkIn.SleepQuality)
	assert.Equal(t, 80.0, decode(t, rec)["readiness"].(map[string]any)["readiness_score"])
}

// TestReadinessNotFound maps a missing state to 404.
func TestReadinessNotFound(t *testing.T) {
	s, _ := newTestServer(&fakeCoach{err: models.ErrNotFound})

	rec := do(t, s, http.MethodGet, "/api/v1/athletes/ath-3/readiness", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

// TestUpdateScheduleInvariant maps a locked slot without external load to 422.
func TestUpdateScheduleInvariant(t *testing.T) {
	s, _ := newTestServer(&fakeCoach{})

	rec := do(t, s, http.MethodPut, "/api/v1/athletes/ath-4/schedule",
		`{"mandate": "HYBRID", "time_matrix": [{"day_of_week": "Tuesday", "time_of_day": "Evening", "status": "ExternalLocked"}]}`)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "external_load", decode(t, rec)["field"])
}

// TestUpdateSchedule accepts a valid matrix.
func TestUpdateSchedule(t *testing.T) {
	coach := &fakeCoach{}
	s, _ := newTestServer(coach)

	rec := do(t, s, http.MethodPut, "/api/v1/athletes/ath-4/schedule",
		`{"mandate": "HYBRID", "time_matrix": [{"day_of_week": "Monday", "time_of_day": "Morning", "status": "Available", "tags": ["A"]}]}`)

	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, coach.schedule)
	assert.True(t, coach.schedule.TimeMatrix[0].Tags.Has("A"))
	assert.Equal(t, []any{}, decode(t, rec)["warnings"])
}

// TestFeedLimit forwards the limit and returns an empty list rather than null.
func TestFeedLimit(t *testing.T) {
	coach := &fakeCoach{}
	s, _ := newTestServer(coach)

	rec := do(t, s, http.MethodGet, "/api/v1/athletes/ath-5/feed?limit=10", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 10, coach.feedLimit)
	assert.Equal(t, "[]\n", rec.Body.String())

	rec = do(t, s, http.MethodGet, "/api/v1/athletes/ath-5/feed?limit=ten", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// TestCompleteFeedItem parses the item id and maps unknown items to 404.
func TestCompleteFeedItem(t *testing.T) {
	coach := &fakeCoach{}
	s, _ := newTestServer(coach)
	id := uuid.New()

	rec := do(t, s, http.MethodPost, "/api/v1/athletes/ath-6/feed/"+id.String()+"/complete", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, id, coach.completed)

	rec = do(t, s, http.MethodPost, "/api/v1/athletes/ath-6/feed/not-a-uuid/complete", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	coach.err = models.ErrNotFound
	rec = do(t, s, http.MethodPost, "/api/v1/athletes/ath-6/feed/"+id.String()+"/complete", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

// TestInternalErrorHidden logs the cause and returns a generic 500.
func TestInternalErrorHidden(t *testing.T) {
	s, logs := newTestServer(&fakeCoach{err: errors.New("connection reset")})

	rec := do(t, s, http.MethodGet, "/api/v1/athletes/ath-7/workload", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "internal error", decode(t, rec)["error"])
	assert.Contains(t, logs.String(), "connection reset")
}

// TestOneRepMaxTool estimates from loose JSON numbers.
func TestOneRepMaxTool(t *testing.T) {
	s, _ := newTestServer(&fakeCoach{})

	rec := do(t, s, http.MethodPost, "/api/v1/tools/one-rep-max", `{"weight": "100", "reps": 5}`)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, 116.5, body["value"])
	assert.Equal(t, "Epley", body["method"])
}

// TestMount serves an extra handler behind the API key.
func TestMount(t *testing.T) {
	s, _ := newTestServer(&fakeCoach{})
	s.Mount("/mcp", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	rec := do(t, s, http.MethodPost, "/mcp", "{}")
	assert.Equal(t, http.StatusTeapot, rec.Code)

	req := httptest.NewRequest(http.MethodPost, "/mcp", nil)
	rec = httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

type fakeRuns struct{ limit int }

func (f *fakeRuns) QuerySweepRuns(_ context.Context, limit int) ([]models.SweepRun, error) {
	f.limit = limit
	return []models.SweepRun{{ID: 3, Status: models.SweepSuccess, Athletes: 12}}, nil
}

// TestSweepRuns lists the journal once it is configured.
func TestSweepRuns(t *testing.T) {
	s, _ := newTestServer(&fakeCoach{})

	rec := do(t, s, http.MethodGet, "/api/v1/sweeps", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	runs := &fakeRuns{}
	s.SetSweepRuns(runs)
	rec = do(t, s, http.MethodGet, "/api/v1/sweeps?limit=5", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 5, runs.limit)

	var got []models.SweepRun
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
	require.Len(t, got, 1)
	assert.Equal(t, 12, got[0].Athletes)
}
