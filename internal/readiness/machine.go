// Package readiness maintains an athlete's daily readiness score, fatigue
// band and flags from subjective check-ins.
//
// Update is pure. Callers persisting the result must serialize the
// read-modify-write of the previous state per athlete.
package readiness

import (
	"math"

	"github.com/claude/coachengine/internal/models"
)

// Score weights; they sum to 100.
const (
	weightSleepQuality  = 30
	weightSleepDuration = 20
	weightStress        = 20
	weightSoreness      = 15
	weightEnergy        = 15

	targetSleepHours = 9

	// smoothing is the share of today's raw score in the final score.
	smoothing = 0.7
)

// Band and flag thresholds.
const (
	freshMin       = 80
	normalMin      = 60
	accumulatedMin = 40

	deloadBelow          = 40
	adaptationAbove      = 70
	impairedSleepQuality = 4
)

// RawScore is the unsmoothed 0-100 weighted score for a check-in. Scales are
// clamped to 0-10 and sleep duration is capped at 9 hours.
func RawScore(c models.CheckIn) float64 {
	sleepQuality := scale10(c.SleepQuality)
	sleepDuration := math.Min(models.NonNegative(c.SleepDurationHours)/targetSleepHours, 1)
	stress := scale10(c.PerceivedStress)
	soreness := scale10(c.MuscleSoreness)
	energy := scale10(c.EnergyLevel)

	return sleepQuality/10*weightSleepQuality +
		sleepDuration*weightSleepDuration +
		(10-stress)/10*weightStress +
		(10-soreness)/10*weightSoreness +
		energy/10*weightEnergy
}

// Update smooths today's raw score against the previous score and derives
// the fatigue band and flags. Flags set on previous that this machine does
// not own are carried forward unchanged.
func Update(previous models.ReadinessState, c models.CheckIn) models.ReadinessState {
	score := round1(RawScore(c)*smoothing + clampScore(previous.Score)*(1-smoothing))
	return build(score, previous.Flags, c)
}

// Start builds the first state for an athlete who has no history yet. The raw
// score is used as is.
func Start(c models.CheckIn) models.ReadinessState {
	return build(round1(RawScore(c)), nil, c)
}

func build(score float64, carried map[string]bool, c models.CheckIn) models.ReadinessState {
	flags := make(map[string]bool, len(carried)+3)
	for k, v := range carried {
		flags[k] = v
	}
	flags[models.FlagNeedsDeload] = score < deloadBelow
	flags[models.FlagAdaptationWindowOpen] = score > adaptationAbove
	flags[models.FlagRecoveryImpaired] = scale10(c.SleepQuality) < impairedSleepQuality

	return models.ReadinessState{
		Score:        score,
		FatigueState: Band(score),
		Flags:        flags,
		AsOf:         c.Date,
	}
}

// Band maps a score to its fatigue state.
func Band(score float64) models.FatigueState {
	switch {
	case score >= freshMin:
		return models.FatigueFresh
	case score >= normalMin:
		return models.FatigueNormal
	case score >= accumulatedMin:
		return models.FatigueAccumulated
	default:
		return models.FatigueExhausted
	}
}

func scale10(v float64) float64 {
	return math.Min(models.NonNegative(v), 10)
}

func clampScore(v float64) float64 {
	return math.Min(models.NonNegative(v), 100)
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
