package models

import (
	"encoding/json"
	"time"
)

// FatigueState is the readiness band derived from the score.
type FatigueState string

const (
	FatigueFresh       FatigueState = "Fresh"
	FatigueNormal      FatigueState = "Normal"
	FatigueAccumulated FatigueState = "Accumulated"
	FatigueExhausted   FatigueState = "Exhausted"
)

// Readiness flag names.
const (
	FlagNeedsDeload          = "needs_deload"
	FlagAdaptationWindowOpen = "adaptation_window_open"
	FlagRecoveryImpaired     = "recovery_impaired"
)

// CheckIn is the athlete's daily subjective report. Scales are 0-10 except
// SleepDurationHours.
type CheckIn struct {
	Date               time.Time `json:"date"`
	SleepQuality       float64   `json:"sleep_quality"`
	SleepDurationHours float64   `json:"sleep_duration_hours"`
	PerceivedStress    float64   `json:"perceived_stress"`
	MuscleSoreness     float64   `json:"muscle_soreness"`
	EnergyLevel        float64   `json:"energy_level"`
}

// ReadinessState is the athlete's persisted readiness after the latest check-in.
type ReadinessState struct {
	Score        float64         `json:"readiness_score"`
	FatigueState FatigueState    `json:"fatigue_state"`
	Flags        map[string]bool `json:"flags"`
	AsOf         time.Time       `json:"as_of"`
}

// Flag returns the named flag, false when unset.
func (s ReadinessState) Flag(name string) bool {
	return s.Flags[name]
}

// UnmarshalJSON accepts numbers as strings and treats unreadable values as 0.
// A missing or unparsable date is left zero for the caller to default.
func (c *CheckIn) UnmarshalJSON(data []byte) error {
	var raw struct {
		Date               any       `json:"date"`
		SleepQuality       FlexFloat `json:"sleep_quality"`
		SleepDurationHours FlexFloat `json:"sleep_duration_hours"`
		PerceivedStress    FlexFloat `json:"perceived_stress"`
		MuscleSoreness     FlexFloat `json:"muscle_soreness"`
		EnergyLevel        FlexFloat `json:"energy_level"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	date, _ := raw.Date.(string)
	*c = CheckIn{
		Date:               ParseLoadDate(date),
		SleepQuality:       float64(raw.SleepQuality),
		SleepDurationHours: float64(raw.SleepDurationHours),
		PerceivedStress:    float64(raw.PerceivedStress),
		MuscleSoreness:     float64(raw.MuscleSoreness),
		EnergyLevel:        float64(raw.EnergyLevel),
	}
	return nil
}
