package formula

import "github.com/claude/coachengine/internal/models"

// KcalPerKJ converts mechanical work to metabolic energy. The 1:1 ratio is a
// deliberate approximation; no efficiency factor is applied.
const KcalPerKJ = 1.0

// DefaultWeightKg replaces a missing or non-positive body weight.
const DefaultWeightKg = 70.0

// KcalPerGramCarb is the energy density used to turn carb kcal into grams.
const KcalPerGramCarb = 4.0

type tier struct {
	above float64 // strict lower bound on effort
	value float64
}

// metTiers is checked top down: the first tier whose bound effort exceeds wins.
var metTiers = []tier{
	{above: 8, value: 11},
	{above: 6, value: 9},
	{above: 4, value: 6},
}

const restingMET = 3.5

// MET returns the metabolic equivalent for a session of the given effort.
func MET(effort float64) float64 {
	for _, t := range metTiers {
		if effort > t.above {
			return t.value
		}
	}
	return restingMET
}

// METKcal returns MET × weight × hours.
func METKcal(met, weightKg, durationMin float64) float64 {
	return met * weightKg * (durationMin / 60)
}

// CarbShare returns the fraction of session energy to replace with carbohydrate.
func CarbShare(effort float64) float64 {
	switch {
	case effort >= 8:
		return 0.8
	case effort >= 6:
		return 0.6
	case effort <= 4:
		return 0.3
	default:
		return 0.5
	}
}

// ProteinPerKg returns grams of protein per kg of body weight after a session.
func ProteinPerKg(effort float64) float64 {
	if effort > 7 {
		return 0.35
	}
	return 0.25
}

// WaterPerHour returns millilitres of water per hour of training.
func WaterPerHour(effort float64) float64 {
	if effort > 7 {
		return 800
	}
	return 500
}

// WorkKJ sums mechanical work over every PowerTime set. ok is false when no
// set carries power data.
func WorkKJ(sets []models.RecordedSet) (kj float64, ok bool) {
	for _, s := range sets {
		if p, isPower := s.Metric.(models.PowerTime); isPower {
			kj += p.Work()
			ok = true
		}
	}
	return kj, ok
}

// EffectiveWeight clamps non-positive weights to DefaultWeightKg.
func EffectiveWeight(weightKg float64) float64 {
	weightKg = models.NonNegative(weightKg)
	if weightKg <= 0 {
		return DefaultWeightKg
	}
	return weightKg
}
