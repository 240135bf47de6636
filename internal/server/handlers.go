package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/claude/coachengine/internal/coaching"
	"github.com/claude/coachengine/internal/fitimport"
	"github.com/claude/coachengine/internal/formula"
	"github.com/claude/coachengine/internal/models"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// maxFITUpload bounds the body of a FIT session upload.
const maxFITUpload = 32 << 20

// sessionRequest is the wire shape of a completed session. Numbers may arrive
// as strings.
type sessionRequest struct {
	Date            any                  `json:"date"`
	DurationMinutes models.FlexFloat     `json:"duration_minutes"`
	PerceivedEffort models.FlexFloat     `json:"perceived_effort"`
	Profile         profileRequest       `json:"profile"`
	Sets            []models.RecordedSet `json:"sets"`
}

type profileRequest struct {
	WeightKg models.FlexFloat `json:"weight_kg"`
}

type oneRepMaxRequest struct {
	Weight models.FlexFloat `json:"weight"`
	Reps   models.FlexFloat `json:"reps"`
}

func (s *Server) handleCompleteSession(w http.ResponseWriter, r *http.Request) {
	var req sessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, decodeError(err))
		return
	}

	date, _ := req.Date.(string)
	result, err := s.coach.CompleteSession(r.Context(), chi.URLParam(r, "athleteID"), coaching.SessionInput{
		Date:            models.ParseLoadDate(date),
		DurationMinutes: float64(req.DurationMinutes),
		PerceivedEffort: float64(req.PerceivedEffort),
		Profile:         models.Profile{WeightKg: float64(req.Profile.WeightKg)},
		Sets:            req.Sets,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, result)
}

// handleCompleteFITSession takes a raw FIT activity as the body. The session's
// perceived effort and athlete weight come from query parameters.
func (s *Server) handleCompleteFITSession(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	effort := models.CoerceFloat(q.Get("perceived_effort"))
	weight := models.CoerceFloat(q.Get("weight_kg"))

	activity, err := fitimport.Read(http.MaxBytesReader(w, r.Body, maxFITUpload))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	result, err := s.coach.CompleteSession(r.Context(), chi.URLParam(r, "athleteID"), coaching.SessionInput{
		Date:            activity.Start,
		DurationMinutes: activity.DurationMinutes,
		PerceivedEffort: effort,
		Profile:         models.Profile{WeightKg: weight},
		Sets:            activity.Sets,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, result)
}

func (s *Server) handleWorkload(w http.ResponseWriter, r *http.Request) {
	a, err := s.coach.Workload(r.Context(), chi.URLParam(r, "athleteID"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (s *Server) handleCheckIn(w http.ResponseWriter, r *http.Request) {
	var c models.CheckIn
	if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
		s.writeError(w, decodeError(err))
		return
	}

	result, err := s.coach.CheckIn(r.Context(), chi.URLParam(r, "athleteID"), c)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleReadiness(w http.ResponseWriter, r *http.Request) {
	state, err := s.coach.Readiness(r.Context(), chi.URLParam(r, "athleteID"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

func (s *Server) handleUpdateSchedule(w http.ResponseWriter, r *http.Request) {
	var next models.AthleteSchedule
	if err := json.NewDecoder(r.Body).Decode(&next); err != nil {
		s.writeError(w, decodeError(err))
		return
	}

	result, err := s.coach.UpdateSchedule(r.Context(), chi.URLParam(r, "athleteID"), &next)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleSchedule(w http.ResponseWriter, r *http.Request) {
	sched, err := s.coach.Schedule(r.Context(), chi.URLParam(r, "athleteID"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sched)
}

func (s *Server) handleFeed(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid limit"})
			return
		}
		limit = n
	}

	items, err := s.coach.Feed(r.Context(), chi.URLParam(r, "athleteID"), limit)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if items == nil {
		items = []models.FeedItem{}
	}
	writeJSON(w, http.StatusOK, items)
}

func (s *Server) handleCompleteFeedItem(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "itemID"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid feed item ID"})
		return
	}

	if err := s.coach.CompleteFeedItem(r.Context(), chi.URLParam(r, "athleteID"), id); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "completed"})
}

func (s *Server) handleOneRepMax(w http.ResponseWriter, r *http.Request) {
	var req oneRepMaxRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, decodeError(err))
		return
	}
	writeJSON(w, http.StatusOK, formula.EstimateOneRepMax(float64(req.Weight), int(req.Reps)))
}

func (s *Server) handleSweepRuns(w http.ResponseWriter, r *http.Request) {
	if s.runs == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "sweep journal not configured"})
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	runs, err := s.runs.QuerySweepRuns(r.Context(), limit)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if runs == nil {
		runs = []models.SweepRun{}
	}
	writeJSON(w, http.StatusOK, runs)
}

// badRequest marks errors caused by an unreadable request body.
type badRequest struct{ err error }

func (e badRequest) Error() string { return "invalid JSON: " + e.err.Error() }

func decodeError(err error) error {
	var verr *models.ValidationError
	if errors.As(err, &verr) {
		return err
	}
	return badRequest{err: err}
}

// writeError maps service errors to HTTP statuses: invariant violations are
// 422, missing records 404 and everything else 500.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	var verr *models.ValidationError
	var bad badRequest
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": verr.Error(), "field": verr.Field})
	case errors.As(err, &bad):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": bad.Error()})
	case errors.Is(err, models.ErrNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
	default:
		s.log.Error("request failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
