package models

import (
	"encoding/json"
	"strings"
)

// MetricType discriminates how a recorded set's two values are interpreted.
type MetricType string

const (
	MetricLoadReps       MetricType = "LoadReps"
	MetricBodyweightReps MetricType = "BodyweightReps"
	MetricIsometricTime  MetricType = "IsometricTime"
	MetricPaceDistance   MetricType = "PaceDistance"
	MetricPowerTime      MetricType = "PowerTime"
)

// Metric is the measured payload of a set. The concrete type is the
// discriminant; Values reports it back in (primary, secondary) wire order.
type Metric interface {
	Type() MetricType
	Values() (primary, secondary float64)
}

// LoadReps is an external-load set: primary = kg, secondary = reps.
type LoadReps struct {
	WeightKg float64
	Reps     float64
}

// BodyweightReps: primary = added kg (0 for pure bodyweight), secondary = reps.
type BodyweightReps struct {
	AddedKg float64
	Reps    float64
}

// IsometricTime: primary = added kg, secondary = hold seconds.
type IsometricTime struct {
	AddedKg float64
	Seconds float64
}

// PaceDistance: primary = meters, secondary = seconds.
type PaceDistance struct {
	Meters  float64
	Seconds float64
}

// PowerTime: primary = watts, secondary = seconds.
type PowerTime struct {
	Watts   float64
	Seconds float64
}

func (m LoadReps) Type() MetricType { return MetricLoadReps }
func (m LoadReps) Values() (float64, float64) { return m.WeightKg, m.Reps }
func (m BodyweightReps) Type() MetricType { return MetricBodyweightReps }
func (m BodyweightReps) Values() (float64, float64) { return m.AddedKg, m.Reps }
func (m IsometricTime) Type() MetricType { return MetricIsometricTime }
func (m IsometricTime) Values() (float64, float64) { return m.AddedKg, m.Seconds }
func (m PaceDistance) Type() MetricType { return MetricPaceDistance }
func (m PaceDistance) Values() (float64, float64) { return m.Meters, m.Seconds }
func (m PowerTime) Type() MetricType { return MetricPowerTime }
func (m PowerTime) Values() (float64, float64) { return m.Watts, m.Seconds }

// Work returns mechanical work in kilojoules (watts × seconds / 1000).
func (m PowerTime) Work() float64 {
	return NonNegative(m.Watts) * NonNegative(m.Seconds) / 1000
}

// RecordedSet is one set of a completed session.
type RecordedSet struct {
	ExerciseName    string
	Metric          Metric
	PerceivedEffort float64
}

// NewRecordedSet builds a set from its wire form. An unknown metric type is an
// invariant violation; the numeric values themselves are coerced, not rejected.
func NewRecordedSet(exercise string, metricType MetricType, primary, secondary, effort float64) (RecordedSet, error) {
	primary, secondary = NonNegative(primary), NonNegative(secondary)
	var m Metric
	switch MetricType(strings.TrimSpace(string(metricType))) {
	case MetricLoadReps:
		m = LoadReps{WeightKg: primary, Reps: secondary}
	case MetricBodyweightReps:
		m = BodyweightReps{AddedKg: primary, Reps: secondary}
	case MetricIsometricTime:
		m = IsometricTime{AddedKg: primary, Seconds: secondary}
	case MetricPaceDistance:
		m = PaceDistance{Meters: primary, Seconds: secondary}
	case MetricPowerTime:
		m = PowerTime{Watts: primary, Seconds: secondary}
	default:
		return RecordedSet{}, invalid("metric_type", "unknown metric type %q", metricType)
	}
	return RecordedSet{
		ExerciseName:    strings.TrimSpace(exercise),
		Metric:          m,
		PerceivedEffort: NonNegative(effort),
	}, nil
}

// recordedSetWire is the JSON shape shared with the host API.
type recordedSetWire struct {
	ExerciseName    string     `json:"exercise_name"`
	MetricType      MetricType `json:"metric_type"`
	PrimaryValue    FlexFloat  `json:"primary_value"`
	SecondaryValue  FlexFloat  `json:"secondary_value"`
	PerceivedEffort FlexFloat  `json:"perceived_effort"`
}

func (s RecordedSet) MarshalJSON() ([]byte, error) {
	w := recordedSetWire{ExerciseName: s.ExerciseName, PerceivedEffort: FlexFloat(s.PerceivedEffort)}
	if s.Metric != nil {
		p, sec := s.Metric.Values()
		w.MetricType = s.Metric.Type()
		w.PrimaryValue, w.SecondaryValue = FlexFloat(p), FlexFloat(sec)
	}
	return json.Marshal(w)
}

func (s *RecordedSet) UnmarshalJSON(data []byte) error {
	var w recordedSetWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	built, err := NewRecordedSet(w.ExerciseName, w.MetricType, float64(w.PrimaryValue), float64(w.SecondaryValue), float64(w.PerceivedEffort))
	if err != nil {
		return err
	}
	*s = built
	return nil
}

// Profile holds the athlete attributes the estimators need.
type Profile struct {
	WeightKg float64 `json:"weight_kg"`
}
