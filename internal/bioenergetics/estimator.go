// Package bioenergetics estimates the energy cost of a completed session and
// the carbohydrate, protein and water needed to recover from it.
package bioenergetics

import (
	"github.com/claude/coachengine/internal/formula"
	"github.com/claude/coachengine/internal/models"
)

// Estimate picks the wattmeter path when any set carries power data and the
// METs path otherwise. Inputs are clamped, never rejected; a missing body
// weight falls back to 70 kg.
func Estimate(profile models.Profile, sets []models.RecordedSet, durationMin, effort float64) models.BioenergeticReport {
	weight := formula.EffectiveWeight(profile.WeightKg)
	durationMin = models.NonNegative(durationMin)
	effort = models.NonNegative(effort)

	var kcal float64
	source := models.SourceMETsEstimator
	if kj, ok := formula.WorkKJ(sets); ok {
		kcal = kj * formula.KcalPerKJ
		source = models.SourceWattmeter
	} else {
		kcal = formula.METKcal(formula.MET(effort), weight, durationMin)
	}

	carbsG := kcal * formula.CarbShare(effort) / formula.KcalPerGramCarb
	proteinG := weight * formula.ProteinPerKg(effort)
	waterMl := durationMin / 60 * formula.WaterPerHour(effort)

	return models.BioenergeticReport{
		KcalTotal: int(kcal),
		CarbsG:    int(carbsG),
		ProteinG:  int(proteinG),
		WaterMl:   int(waterMl),
		Source:    source,
	}
}
