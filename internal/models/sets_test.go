package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestNewRecordedSetUnknownType rejects a metric type outside the enum.
func TestNewRecordedSetUnknownType(t *testing.T) {
	_, err := NewRecordedSet("Squat", "Calories", 10, 10, 5)
	assert.ErrorContains(t, err, "metric_type")
}

// TestNewRecordedSetCoercesValues clamps negative numbers instead of failing.
func TestNewRecordedSetCoercesValues(t *testing.T) {
	s, err := NewRecordedSet(" Row ", MetricPowerTime, -200, 600, -1)
	require.NoError(t, err)
	assert.Equal(t, "Row", s.ExerciseName)
	assert.Equal(t, PowerTime{Watts: 0, Seconds: 600}, s.Metric)
	assert.Zero(t, s.PerceivedEffort)
}

// TestRecordedSetJSONAcceptsStrings reads numeric strings and decimal commas.
func TestRecordedSetJSONAcceptsStrings(t *testing.T) {
	var s RecordedSet
	err := json.Unmarshal([]byte(`{"exercise_name":"Bench","metric_type":"LoadReps","primary_value":"82,5","secondary_value":5,"perceived_effort":null}`), &s)
	require.NoError(t, err)
	assert.Equal(t, LoadReps{WeightKg: 82.5, Reps: 5}, s.Metric)

	data, err := json.Marshal(s)
	require.NoError(t, err)
	assert.JSONEq(t, `{"exercise_name":"Bench","metric_type":"LoadReps","primary_value":82.5,"secondary_value":5,"perceived_effort":0}`, string(data))
}

// TestPowerTimeWork converts watts and seconds to kilojoules.
func TestPowerTimeWork(t *testing.T) {
	assert.InDelta(t, 180.0, PowerTime{Watts: 200, Seconds: 900}.Work(), 1e-9)
}

// TestCoerceFloat covers the accepted loose inputs.
func TestCoerceFloat(t *testing.T) {
	assert.Equal(t, 7.5, CoerceFloat("7,5"))
	assert.Equal(t, 3.0, CoerceFloat(3))
	assert.Equal(t, 0.0, CoerceFloat("abc"))
	assert.Equal(t, 0.0, CoerceFloat(-4.0))
	assert.Equal(t, 0.0, CoerceFloat(true))
	assert.Equal(t, 0.0, CoerceFloat(nil))
}

// TestLoadLogEntryLenient decodes strings and leaves bad dates zero.
func TestLoadLogEntryLenient(t *testing.T) {
	var entries []LoadLogEntry
	err := json.Unmarshal([]byte(`[
		{"date":"2026-03-02","duration_minutes":"60","perceived_effort":7},
		{"date":"2026-03-03 18:30:00","duration_minutes":45,"perceived_effort":"x"},
		{"date":12345,"duration_minutes":30,"perceived_effort":5}
	]`), &entries)
	require.NoError(t, err)
	require.Len(t, entries, 3)

	assert.Equal(t, time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC), entries[0].Date)
	assert.Equal(t, 420.0, entries[0].Load())
	assert.Equal(t, 18, entries[1].Date.Hour())
	assert.Zero(t, entries[1].Load())
	assert.True(t, entries[2].Date.IsZero())
	assert.Equal(t, 150.0, entries[2].Load())
}

// TestCheckInLenient accepts numeric strings in a check-in.
func TestCheckInLenient(t *testing.T) {
	var c CheckIn
	require.NoError(t, json.Unmarshal([]byte(`{"date":"2026-03-02T07:00:00Z","sleep_quality":"8","sleep_duration_hours":7.5,"perceived_stress":"bad","muscle_soreness":2,"energy_level":9}`), &c))
	assert.Equal(t, 8.0, c.SleepQuality)
	assert.Equal(t, 7.5, c.SleepDurationHours)
	assert.Zero(t, c.PerceivedStress)
	assert.Equal(t, 2026, c.Date.Year())
}
