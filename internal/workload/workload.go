// Package workload computes the acute:chronic workload ratio (ACWR) over an
// athlete's load log.
package workload

import (
	"math"
	"time"

	"github.com/claude/coachengine/internal/models"
)

const (
	// AcuteDays and ChronicDays size the rolling windows.
	AcuteDays   = 7
	ChronicDays = 28

	// restartRatio is reported when load resumes after a fully idle chronic window.
	restartRatio = 2.0
)

// Status thresholds, upper bound inclusive.
const (
	undertrainingMax = 0.80
	optimalMax       = 1.30
	overreachingMax  = 1.50
)

// Assess computes the ACWR for the 28 calendar days ending on today.
// Entries are bucketed by UTC calendar date; entries outside the window or
// with a zero date are ignored. It never fails: empty history yields Inactive.
func Assess(history []models.LoadLogEntry, today time.Time) models.WorkloadAssessment {
	daily := DailyLoads(history, today)

	var acuteSum, chronicSum float64
	for i, load := range daily {
		chronicSum += load
		if i >= ChronicDays-AcuteDays {
			acuteSum += load
		}
	}
	acute := acuteSum / AcuteDays
	chronic := chronicSum / ChronicDays

	var ratio float64
	switch {
	case chronic > 0:
		ratio = round2(acute / chronic)
	case acute > 0:
		ratio = restartRatio
	}

	return models.WorkloadAssessment{
		Ratio:       ratio,
		AcuteLoad:   int(math.Round(acute)),
		ChronicLoad: int(math.Round(chronic)),
		Status:      Classify(ratio),
	}
}

// DailyLoads returns 28 per-day load totals, oldest first, ending on today.
// Days without sessions are 0.
func DailyLoads(history []models.LoadLogEntry, today time.Time) []float64 {
	end := dayOf(today)
	start := end.AddDate(0, 0, -(ChronicDays - 1))

	daily := make([]float64, ChronicDays)
	for _, e := range history {
		if e.Date.IsZero() {
			continue
		}
		d := dayOf(e.Date)
		if d.Before(start) || d.After(end) {
			continue
		}
		idx := int(d.Sub(start).Hours() / 24)
		daily[idx] += e.Load()
	}
	return daily
}

// Classify maps a ratio onto a workload status. A ratio of exactly 0 means
// no recent load at all.
func Classify(ratio float64) models.WorkloadStatus {
	switch {
	case ratio <= 0:
		return models.WorkloadInactive
	case ratio <= undertrainingMax:
		return models.WorkloadUndertraining
	case ratio <= optimalMax:
		return models.WorkloadOptimal
	case ratio <= overreachingMax:
		return models.WorkloadOverreaching
	default:
		return models.WorkloadDanger
	}
}

// dayOf truncates t to midnight UTC of its UTC calendar date.
func dayOf(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
