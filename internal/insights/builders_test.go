package insights

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/claude/coachengine/internal/models"
	"github.com/claude/coachengine/internal/schedule"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestFromWorkload maps each status to its insight, if any.
func TestFromWorkload(t *testing.T) {
	t.Parallel()

	tests := []struct {
		status   models.WorkloadStatus
		wantType string
		wantPrio models.Priority
	}{
		{models.WorkloadDanger, TypeWorkloadRisk, models.PriorityHigh},
		{models.WorkloadOverreaching, TypeWorkloadRisk, models.PriorityMedium},
		{models.WorkloadUndertraining, TypeWorkloadLow, models.PriorityLow},
		{models.WorkloadOptimal, "", ""},
		{models.WorkloadInactive, "", ""},
	}
	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			got := FromWorkload(models.WorkloadAssessment{Ratio: 1.2, Status: tt.status})
			if tt.wantType == "" {
				assert.Empty(t, got)
				return
			}
			require.Len(t, got, 1)
			assert.Equal(t, tt.wantType, got[0].Type)
			assert.Equal(t, tt.wantPrio, got[0].Priority)
			assert.Equal(t, string(tt.status), got[0].Payload["status"])
		})
	}
}

// TestFromReadiness raises one insight per set flag.
func TestFromReadiness(t *testing.T) {
	t.Parallel()

	got := FromReadiness(models.ReadinessState{
		Score: 31.2,
		Flags: map[string]bool{
			models.FlagNeedsDeload:          true,
			models.FlagRecoveryImpaired:     true,
			models.FlagAdaptationWindowOpen: false,
		},
	})
	require.Len(t, got, 2)
	assert.Equal(t, TypeDeloadRecommended, got[0].Type)
	assert.Equal(t, TypeRecoveryImpaired, got[1].Type)

	assert.Empty(t, FromReadiness(models.ReadinessState{Score: 65}))
}

// TestFromEnergy skips empty reports.
func TestFromEnergy(t *testing.T) {
	t.Parallel()

	assert.Empty(t, FromEnergy(models.BioenergeticReport{}))
	got := FromEnergy(models.BioenergeticReport{KcalTotal: 360, CarbsG: 72, Source: models.SourceWattmeter})
	require.Len(t, got, 1)
	assert.Equal(t, TypeSessionFueling, got[0].Type)
	assert.Equal(t, 360, got[0].Payload["kcal_total"])
}

// TestFromScheduleWarningsMergesByCode verifies one insight per code with days unioned.
func TestFromScheduleWarningsMergesByCode(t *testing.T) {
	t.Parallel()

	got := FromScheduleWarnings([]models.ConstraintWarning{
		{Code: schedule.CodeInterference, Message: "a", AffectedDays: []string{"Monday"}},
		{Code: schedule.CodeInterference, Message: "b", AffectedDays: []string{"Thursday"}},
		{Code: schedule.CodeInterference, Message: "c", AffectedDays: []string{"Monday"}},
		{Code: schedule.CodeLogistics, Message: "d", AffectedDays: []string{"Tuesday"}},
	})
	require.Len(t, got, 2)
	assert.Equal(t, schedule.CodeInterference, got[0].Title)
	assert.Equal(t, "a; b; c", got[0].Message)
	assert.Equal(t, []string{"Monday", "Thursday"}, got[0].Payload["affected_days"])
	assert.Equal(t, models.PriorityMedium, got[0].Priority)
	assert.Equal(t, schedule.CodeLogistics, got[1].Title)
	assert.Equal(t, models.PriorityLow, got[1].Priority)
}

// TestCollectIsolatesFailingStep verifies sibling steps still contribute.
func TestCollectIsolatesFailingStep(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := slog.New(slog.NewTextHandler(&buf, nil))
	got := Collect(context.Background(), log,
		Step{Name: "broken", Run: func(context.Context) ([]models.InsightEvent, error) {
			return nil, errors.New("boom")
		}},
		Step{Name: "energy", Run: func(context.Context) ([]models.InsightEvent, error) {
			return FromEnergy(models.BioenergeticReport{KcalTotal: 100}), nil
		}},
	)
	require.Len(t, got, 1)
	assert.Contains(t, buf.String(), "step=broken")
}
