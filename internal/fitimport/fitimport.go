// Package fitimport converts Garmin FIT activity files into PowerTime sets so
// sessions recorded on a power meter take the wattmeter energy path.
package fitimport

import (
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"time"

	"github.com/claude/coachengine/internal/models"
	"github.com/tormoder/fit"
)

// maxSampleGap is the longest gap between records that still counts as
// continuous riding.
const maxSampleGap = 5 * time.Second

// Activity is what a FIT file contributes to a session.
type Activity struct {
	Start           time.Time
	DurationMinutes float64
	Sport           string
	Sets            []models.RecordedSet
}

// ReadFile decodes the activity FIT file at path.
func ReadFile(path string) (*Activity, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open FIT file: %w", err)
	}
	defer f.Close()
	return Read(f)
}

// Read decodes an activity FIT stream.
func Read(r io.Reader) (*Activity, error) {
	decoded, err := fit.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("decode FIT file: %w", err)
	}
	activity, err := decoded.Activity()
	if err != nil {
		return nil, fmt.Errorf("activity FIT expected: %w", err)
	}
	return FromActivity(activity), nil
}

// FromActivity extracts session timing and power sets from a decoded activity.
func FromActivity(a *fit.ActivityFile) *Activity {
	out := &Activity{}
	if a == nil {
		return out
	}
	if len(a.Sessions) > 0 && a.Sessions[0] != nil {
		s := a.Sessions[0]
		out.Start = validTime(s.StartTime)
		out.DurationMinutes = models.NonNegative(s.GetTotalTimerTimeScaled()) / 60
		out.Sport = fmt.Sprint(s.Sport)
	}
	out.Sets = lapSets(a.Laps)
	if len(out.Sets) == 0 {
		if set, ok := recordSet(a.Records); ok {
			out.Sets = []models.RecordedSet{set}
		}
	}
	if out.DurationMinutes == 0 {
		for _, s := range out.Sets {
			_, sec := s.Metric.Values()
			out.DurationMinutes += sec / 60
		}
	}
	return out
}

// lapSets returns one PowerTime set per lap that has a valid average power.
func lapSets(laps []*fit.LapMsg) []models.RecordedSet {
	var out []models.RecordedSet
	for i, lap := range laps {
		if lap == nil || lap.AvgPower == math.MaxUint16 || lap.AvgPower == 0 {
			continue
		}
		seconds := models.NonNegative(lap.GetTotalTimerTimeScaled())
		if seconds == 0 {
			seconds = models.NonNegative(lap.GetTotalElapsedTimeScaled())
		}
		if seconds == 0 {
			continue
		}
		out = append(out, models.RecordedSet{
			ExerciseName: fmt.Sprintf("Lap %d", i+1),
			Metric:       models.PowerTime{Watts: float64(lap.AvgPower), Seconds: seconds},
		})
	}
	return out
}

// recordSet integrates per-record power over time into a single set. Each
// sample's power is held until the next sample; gaps longer than
// maxSampleGap are treated as pauses.
func recordSet(records []*fit.RecordMsg) (models.RecordedSet, bool) {
	type sample struct {
		ts    time.Time
		watts float64
	}
	var samples []sample
	for _, rec := range records {
		if rec == nil || rec.Power == math.MaxUint16 {
			continue
		}
		ts := validTime(rec.Timestamp)
		if ts.IsZero() {
			continue
		}
		samples = append(samples, sample{ts: ts, watts: float64(rec.Power)})
	}
	if len(samples) == 0 {
		return models.RecordedSet{}, false
	}
	sort.Slice(samples, func(i, j int) bool { return samples[i].ts.Before(samples[j].ts) })

	var joules, seconds float64
	for i := 1; i < len(samples); i++ {
		delta := samples[i].ts.Sub(samples[i-1].ts)
		if delta <= 0 || delta > maxSampleGap {
			continue
		}
		joules += samples[i-1].watts * delta.Seconds()
		seconds += delta.Seconds()
	}
	if seconds == 0 {
		// A single usable sample stands for one second.
		joules, seconds = samples[0].watts, 1
	}
	return models.RecordedSet{
		ExerciseName: "Ride",
		Metric:       models.PowerTime{Watts: joules / seconds, Seconds: seconds},
	}, true
}

func validTime(t time.Time) time.Time {
	if t.IsZero() || fit.IsBaseTime(t) {
		return time.Time{}
	}
	return t
}
