package insights

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/claude/coachengine/internal/models"
	"github.com/claude/coachengine/internal/schedule"
)

// Insight types.
const (
	TypeWorkloadRisk       = "workload_risk"
	TypeWorkloadLow        = "workload_low"
	TypeDeloadRecommended  = "deload_recommended"
	TypeRecoveryImpaired   = "recovery_impaired"
	TypeAdaptationWindow   = "adaptation_window"
	TypeSessionFueling     = "session_fueling"
	TypeScheduleConstraint = "schedule_constraint"
)

// FromWorkload raises an insight for any status outside the optimal band.
func FromWorkload(a models.WorkloadAssessment) []models.InsightEvent {
	payload := map[string]any{
		"ratio":        a.Ratio,
		"acute_load":   a.AcuteLoad,
		"chronic_load": a.ChronicLoad,
		"status":       string(a.Status),
	}
	var ev models.InsightEvent
	switch a.Status {
	case models.WorkloadDanger:
		ev = models.InsightEvent{
			Type:     TypeWorkloadRisk,
			Title:    "Workload spike: injury risk",
			Message:  fmt.Sprintf("Your acute:chronic workload ratio is %.2f. Reduce volume for the next few days.", a.Ratio),
			Priority: models.PriorityHigh,
		}
	case models.WorkloadOverreaching:
		ev = models.InsightEvent{
			Type:     TypeWorkloadRisk,
			Title:    "Workload climbing fast",
			Message:  fmt.Sprintf("Your acute:chronic workload ratio is %.2f. Hold load steady this week.", a.Ratio),
			Priority: models.PriorityMedium,
		}
	case models.WorkloadUndertraining:
		ev = models.InsightEvent{
			Type:     TypeWorkloadLow,
			Title:    "Training load is dropping",
			Message:  fmt.Sprintf("Your acute:chronic workload ratio is %.2f. Fitness may start to decline.", a.Ratio),
			Priority: models.PriorityLow,
		}
	default:
		return nil
	}
	ev.Payload = payload
	return []models.InsightEvent{ev}
}

// FromReadiness raises one insight per readiness flag this package knows about.
func FromReadiness(s models.ReadinessState) []models.InsightEvent {
	payload := map[string]any{
		"readiness_score": s.Score,
		"fatigue_state":   string(s.FatigueState),
	}
	var out []models.InsightEvent
	if s.Flag(models.FlagNeedsDeload) {
		out = append(out, models.InsightEvent{
			Type:     TypeDeloadRecommended,
			Title:    "Deload recommended",
			Message:  fmt.Sprintf("Readiness is %.1f. Plan a lighter week.", s.Score),
			Priority: models.PriorityHigh,
			Payload:  payload,
		})
	}
	if s.Flag(models.FlagRecoveryImpaired) {
		out = append(out, models.InsightEvent{
			Type:     TypeRecoveryImpaired,
			Title:    "Poor sleep is limiting recovery",
			Message:  "Sleep quality was low. Keep intensity moderate today.",
			Priority: models.PriorityMedium,
			Payload:  payload,
		})
	}
	if s.Flag(models.FlagAdaptationWindowOpen) {
		out = append(out, models.InsightEvent{
			Type:     TypeAdaptationWindow,
			Title:    "Good day to push",
			Message:  fmt.Sprintf("Readiness is %.1f. A hard session today should adapt well.", s.Score),
			Priority: models.PriorityLow,
			Payload:  payload,
		})
	}
	return out
}

// FromEnergy turns a session's energy estimate into a refuelling reminder.
func FromEnergy(r models.BioenergeticReport) []models.InsightEvent {
	if r.KcalTotal <= 0 {
		return nil
	}
	return []models.InsightEvent{{
		Type:  TypeSessionFueling,
		Title: "Refuel after your session",
		Message: fmt.Sprintf("About %d kcal spent. Aim for %d g carbs, %d g protein and %d ml water.",
			r.KcalTotal, r.CarbsG, r.ProteinG, r.WaterMl),
		Priority: models.PriorityLow,
		Payload: map[string]any{
			"kcal_total": r.KcalTotal,
			"carbs_g":    r.CarbsG,
			"protein_g":  r.ProteinG,
			"water_ml":   r.WaterMl,
			"source":     string(r.Source),
		},
	}}
}

// FromScheduleWarnings raises one insight per warning code. Several warnings
// with the same code are merged, keeping days in first-seen order.
func FromScheduleWarnings(ws []models.ConstraintWarning) []models.InsightEvent {
	var order []string
	merged := make(map[string]*models.ConstraintWarning)
	for _, w := range ws {
		m, ok := merged[w.Code]
		if !ok {
			cp := models.ConstraintWarning{Code: w.Code, Message: w.Message}
			cp.AffectedDays = append(cp.AffectedDays, w.AffectedDays...)
			merged[w.Code] = &cp
			order = append(order, w.Code)
			continue
		}
		m.Message += "; " + w.Message
		for _, d := range w.AffectedDays {
			if !contains(m.AffectedDays, d) {
				m.AffectedDays = append(m.AffectedDays, d)
			}
		}
	}

	out := make([]models.InsightEvent, 0, len(order))
	for _, code := range order {
		w := merged[code]
		out = append(out, models.InsightEvent{
			Type:     TypeScheduleConstraint,
			Title:    code,
			Message:  w.Message,
			Priority: schedulePriority(code),
			Payload: map[string]any{
				"code":          code,
				"affected_days": w.AffectedDays,
			},
		})
	}
	return out
}

func schedulePriority(code string) models.Priority {
	switch code {
	case schedule.CodeCNSProtection:
		return models.PriorityHigh
	case schedule.CodeInterference:
		return models.PriorityMedium
	default:
		return models.PriorityLow
	}
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

// Step is one insight-generation step.
type Step struct {
	Name string
	Run  func(ctx context.Context) ([]models.InsightEvent, error)
}

// Collect runs every step and concatenates their candidates. A failing step
// is logged and skipped; the others still contribute.
func Collect(ctx context.Context, log *slog.Logger, steps ...Step) []models.InsightEvent {
	var out []models.InsightEvent
	for _, s := range steps {
		events, err := s.Run(ctx)
		if err != nil {
			log.Error("insight step failed", "step", s.Name, "error", err)
			continue
		}
		out = append(out, events...)
	}
	return out
}
