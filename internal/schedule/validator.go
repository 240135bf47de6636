// Package schedule validates an athlete's weekly time matrix against
// physiological and logistical constraints and tags the affected slots.
//
// Tags only accumulate: a run never removes a tag, so running the validator
// twice on the same schedule leaves it unchanged and returns the same warnings.
// The validator mutates the schedule it is given; callers must not run it
// concurrently on the same schedule.
package schedule

import (
	"fmt"
	"sort"
	"strings"

	"github.com/claude/coachengine/internal/models"
)

// Warning codes.
const (
	CodeInterference  = "INTERFERENCE_ALERT"
	CodeCNSProtection = "CNS_PROTECTION"
	CodeLogistics     = "LOGISTICS_LIMIT"
)

// Slot tags.
const (
	TagRestrictedLegVolume = "RESTRICTED_LEG_VOLUME"
	TagVolumeCap           = "FORCE_VOLUME_CAP_2_SESSIONS"
	TagNoDeadlift          = "NO_DEADLIFT"
)

const (
	// highIntensityEffort is the external effort from which the preceding slot
	// is protected.
	highIntensityEffort = 7
	// externalMinutesCap is the weekly external volume above which a
	// PPG_ONLY athlete's own sessions are capped.
	externalMinutesCap = 600
)

// sportSpecificMarkers identify external loads that interfere regardless of effort.
var sportSpecificMarkers = []string{"pps", "match"}

// ValidateAndTag sorts the time matrix into canonical weekly order, applies
// the interference, CNS protection and logistics rules in that order, tags
// slots in place and returns the warnings raised.
func ValidateAndTag(s *models.AthleteSchedule) []models.ConstraintWarning {
	if s == nil {
		return nil
	}
	SortCanonical(s.TimeMatrix)
	for i := range s.TimeMatrix {
		if s.TimeMatrix[i].Tags == nil {
			s.TimeMatrix[i].Tags = models.TagSet{}
		}
	}

	var warnings []models.ConstraintWarning
	warnings = append(warnings, interference(s)...)
	warnings = append(warnings, cnsProtection(s)...)
	warnings = append(warnings, logistics(s)...)
	return warnings
}

// SortCanonical orders slots Monday to Sunday, Morning to Evening. Slots with
// unknown days or times sort last in their original relative order.
func SortCanonical(slots []models.TimeSlot) {
	sort.SliceStable(slots, func(i, j int) bool {
		return ordinal(slots[i]) < ordinal(slots[j])
	})
}

func ordinal(s models.TimeSlot) int {
	d, t := s.Day.Index(), s.TimeOfDay.Index()
	if d < 0 || t < 0 {
		return len(models.Week) * len(models.DayParts)
	}
	return d*len(models.DayParts) + t
}

// interference protects the slot right before a demanding external session
// on the same day. One warning per protected slot.
func interference(s *models.AthleteSchedule) []models.ConstraintWarning {
	var warnings []models.ConstraintWarning
	for i := range s.TimeMatrix {
		slot := &s.TimeMatrix[i]
		if slot.Status != models.SlotExternalLocked || !isDemanding(slot.ExternalLoad) {
			continue
		}
		prevIdx := slot.TimeOfDay.Index() - 1
		if prevIdx < 0 {
			continue
		}
		prev := s.Slot(models.SlotKey{Day: slot.Day, TimeOfDay: models.DayParts[prevIdx]})
		if prev == nil {
			continue
		}
		prev.Tags.Add(TagRestrictedLegVolume)
		warnings = append(warnings, models.ConstraintWarning{
			Code: CodeInterference,
			Message: fmt.Sprintf("%s %s precedes %s; leg volume restricted",
				prev.Day, prev.TimeOfDay, describe(slot.ExternalLoad)),
			AffectedDays: []string{string(slot.Day)},
		})
	}
	return warnings
}

func isDemanding(load *models.ExternalLoad) bool {
	if load == nil {
		return false
	}
	if load.EstimatedEffort >= highIntensityEffort {
		return true
	}
	activity := strings.ToLower(load.ActivityType)
	for _, marker := range sportSpecificMarkers {
		if strings.Contains(activity, marker) {
			return true
		}
	}
	return false
}

func describe(load *models.ExternalLoad) string {
	if load.ActivityType == "" {
		return fmt.Sprintf("external session (effort %g)", load.EstimatedEffort)
	}
	return fmt.Sprintf("%s (effort %g)", load.ActivityType, load.EstimatedEffort)
}

// cnsProtection caps PPG_ONLY athletes whose external weekly volume exceeds
// ten hours.
func cnsProtection(s *models.AthleteSchedule) []models.ConstraintWarning {
	if s.Mandate != models.MandatePPGOnly {
		return nil
	}
	var total float64
	var days []string
	for _, slot := range s.TimeMatrix {
		if slot.Status != models.SlotExternalLocked || slot.ExternalLoad == nil {
			continue
		}
		total += models.NonNegative(slot.ExternalLoad.DurationMinutes)
		days = appendDistinct(days, string(slot.Day))
	}
	if total <= externalMinutesCap {
		return nil
	}
	for i := range s.TimeMatrix {
		if s.TimeMatrix[i].Status == models.SlotAvailable {
			s.TimeMatrix[i].Tags.Add(TagVolumeCap)
		}
	}
	return []models.ConstraintWarning{{
		Code:         CodeCNSProtection,
		Message:      fmt.Sprintf("external load totals %.0f min this week (limit %d); capping to 2 sessions", total, externalMinutesCap),
		AffectedDays: days,
	}}
}

// logistics rules out deadlifts at home and reports the affected days once.
func logistics(s *models.AthleteSchedule) []models.ConstraintWarning {
	var days []string
	for i := range s.TimeMatrix {
		slot := &s.TimeMatrix[i]
		if !slot.IsHome() {
			continue
		}
		slot.Tags.Add(TagNoDeadlift)
		days = appendDistinct(days, string(slot.Day))
	}
	if len(days) == 0 {
		return nil
	}
	return []models.ConstraintWarning{{
		Code:         CodeLogistics,
		Message:      "no deadlift equipment at home on " + strings.Join(days, ", "),
		AffectedDays: days,
	}}
}

func appendDistinct(list []string, v string) []string {
	for _, existing := range list {
		if existing == v {
			return list
		}
	}
	return append(list, v)
}
