package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func executeCLI(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()

	root := newRootCmd()
	stdout := &bytes.Buffer{}
	root.SetOut(stdout)
	root.SetErr(&bytes.Buffer{})
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(args)

	err := root.Execute()
	return stdout.String(), err
}

func TestOneRepMax(t *testing.T) {
	stdout, err := executeCLI(t, "", "onerm", "--weight", "100", "--reps", "5")
	require.NoError(t, err)
	assert.Equal(t, "116.5 kg (Epley)\n", stdout)
}

func TestOneRepMaxOutOfRange(t *testing.T) {
	stdout, err := executeCLI(t, "", "onerm", "--weight", "40", "--reps", "31")
	require.NoError(t, err)
	assert.Equal(t, "no estimate (Out of Range)\n", stdout)
}

func TestOneRepMaxRequiresFlags(t *testing.T) {
	_, err := executeCLI(t, "", "onerm", "--weight", "100")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `required flag(s) "reps" not set`)
}

func TestWorkloadFromStdin(t *testing.T) {
	log := `[{"date": "2026-03-09", "duration_minutes": 60, "perceived_effort": "7"}]`
	stdout, err := executeCLI(t, log, "workload", "--today", "2026-03-10")
	require.NoError(t, err)
	assert.Equal(t, "ratio 4.00  acute 60  chronic 15  Danger\n", stdout)
}

func TestWorkloadJSONOutput(t *testing.T) {
	stdout, err := executeCLI(t, "[]", "workload", "--json")
	require.NoError(t, err)
	assert.True(t, json.Valid([]byte(stdout)))
	assert.Contains(t, stdout, `"status": "Inactive"`)
}

func TestEnergyMETs(t *testing.T) {
	stdout, err := executeCLI(t, "", "energy", "--duration", "60", "--effort", "7", "--weight", "80")
	require.NoError(t, err)
	assert.Equal(t, "720 kcal  carbs 108 g  protein 20 g  water 500 ml  (METsEstimator)\n", stdout)
}

func TestEnergyPowerSets(t *testing.T) {
	sets := `[{"exercise_name": "Ride", "metric_type": "PowerTime", "primary_value": 200, "secondary_value": 1800}]`
	stdout, err := executeCLI(t, sets, "energy", "--duration", "30", "--effort", "6", "--sets", "-", "--json")
	require.NoError(t, err)
	assert.Contains(t, stdout, `"kcal_total": 360`)
	assert.Contains(t, stdout, `"source": "Wattmeter"`)
}

func TestReadinessFirstCheckIn(t *testing.T) {
	stdout, err := executeCLI(t, "", "readiness",
		"--sleep-quality", "8", "--sleep-hours", "9", "--stress", "2", "--soreness", "2", "--energy", "8")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(stdout, "84.0 Fresh adaptation_window_open"), stdout)
}

func TestReadinessSmoothed(t *testing.T) {
	stdout, err := executeCLI(t, "", "readiness",
		"--sleep-quality", "8", "--sleep-hours", "9", "--stress", "2", "--soreness", "2", "--energy", "8",
		"--previous", "50")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(stdout, "73.8 Normal adaptation_window_open"), stdout)
}

const scheduleYAML = `
athlete_id: ath-1
mandate: HYBRID
time_matrix:
  - day_of_week: Tuesday
    time_of_day: Noon
    status: Available
  - day_of_week: Tuesday
    time_of_day: Evening
    status: ExternalLocked
    external_load:
      activity_type: Rugby
      estimated_effort: 8
      duration_minutes: 90
`

func TestScheduleValidate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "schedule.yaml")
	require.NoError(t, os.WriteFile(path, []byte(scheduleYAML), 0o644))

	stdout, err := executeCLI(t, "", "schedule", "validate", path)
	require.NoError(t, err)
	assert.Contains(t, stdout, "Tuesday Noon")
	assert.Contains(t, stdout, "RESTRICTED_LEG_VOLUME")
	assert.Contains(t, stdout, "INTERFERENCE_ALERT:")
}

func TestScheduleValidateRejectsInvalid(t *testing.T) {
	bad := "time_matrix:\n  - day_of_week: Monday\n    time_of_day: Evening\n    status: ExternalLocked\n"
	_, err := executeCLI(t, bad, "schedule", "validate", "-")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "external_load")
}
