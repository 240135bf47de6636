package models

import (
	"encoding/json"
	"strings"
	"time"
)

// DateLayout is the calendar-day format used for keys and query parameters.
const DateLayout = "2006-01-02"

// Accepted date layouts for load log entries, most specific first.
var loadDateLayouts = []string{time.RFC3339, "2006-01-02 15:04:05", DateLayout}

// LoadLogEntry is one completed training session as seen by the load monitor.
// Entries are immutable facts; the monitor windows over them.
type LoadLogEntry struct {
	Date            time.Time `json:"date"`
	DurationMinutes float64   `json:"duration_minutes"`
	PerceivedEffort float64   `json:"perceived_effort"`
}

// Load returns duration × perceived effort, with both factors clamped to
// non-negative values.
func (e LoadLogEntry) Load() float64 {
	return NonNegative(e.DurationMinutes) * NonNegative(e.PerceivedEffort)
}

// UnmarshalJSON decodes leniently: numbers may be strings, and an unparsable
// date leaves Date zero so the entry falls outside every window.
func (e *LoadLogEntry) UnmarshalJSON(data []byte) error {
	var raw struct {
		Date            any       `json:"date"`
		DurationMinutes FlexFloat `json:"duration_minutes"`
		PerceivedEffort FlexFloat `json:"perceived_effort"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	date, _ := raw.Date.(string)
	e.Date = ParseLoadDate(date)
	e.DurationMinutes = float64(raw.DurationMinutes)
	e.PerceivedEffort = float64(raw.PerceivedEffort)
	return nil
}

// ParseLoadDate parses an RFC3339 timestamp, a "2006-01-02 15:04:05" local
// timestamp or a bare date. It returns the zero time when nothing matches.
func ParseLoadDate(s string) time.Time {
	s = strings.TrimSpace(s)
	for _, layout := range loadDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
