package storage

import (
	"strings"
	"testing"
	"time"

	"github.com/claude/coachengine/internal/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestSetsInsertPlaceholders verifies one placeholder group per set and the
// metric flattened back to primary/secondary.
func TestSetsInsertPlaceholders(t *testing.T) {
	t.Parallel()

	id := uuid.New()
	query, args := setsInsert(id, []models.RecordedSet{
		{ExerciseName: "Squat", Metric: models.LoadReps{WeightKg: 120, Reps: 5}, PerceivedEffort: 8},
		{ExerciseName: "Ride", Metric: models.PowerTime{Watts: 250, Seconds: 600}},
	})

	assert.True(t, strings.HasSuffix(query, "($1,$2,$3,$4,$5,$6,$7),($8,$9,$10,$11,$12,$13,$14)"))
	require.Len(t, args, 14)
	assert.Equal(t, []any{id, 0, "Squat", "LoadReps", 120.0, 5.0, 8.0}, args[:7])
	assert.Equal(t, []any{id, 1, "Ride", "PowerTime", 250.0, 600.0, 0.0}, args[7:])
}

// TestSlotsInsertKeepsOrderAndSortsTags verifies positions follow the matrix
// and tags are written sorted.
func TestSlotsInsertKeepsOrderAndSortsTags(t *testing.T) {
	t.Parallel()

	load := &models.ExternalLoad{ActivityType: "Match", EstimatedEffort: 9, DurationMinutes: 90}
	query, args := slotsInsert("ath-1", []models.TimeSlot{
		{Day: models.Monday, TimeOfDay: models.Morning, Status: models.SlotAvailable, Tags: models.NewTagSet("NO_DEADLIFT", "RESTRICTED_LEG_VOLUME")},
		{Day: models.Monday, TimeOfDay: models.Noon, Status: models.SlotExternalLocked, ExternalLoad: load, Tags: models.TagSet{}},
	})

	assert.Contains(t, query, "($10,$11,$12,$13,$14,$15,$16,$17,$18)")
	require.Len(t, args, 18)
	assert.Equal(t, 0, args[3])
	assert.Equal(t, []string{"NO_DEADLIFT", "RESTRICTED_LEG_VOLUME"}, args[8])
	assert.Equal(t, 1, args[12])
	assert.Equal(t, load, args[16])
	assert.Equal(t, []string{}, args[17])
}

// TestFeedInsertColumns verifies feed items map onto the shared column list.
func TestFeedInsertColumns(t *testing.T) {
	t.Parallel()

	created := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	it := models.FeedItem{
		ID: uuid.New(), AthleteID: "ath-1", Type: "workload_risk", Title: "Workload spike: injury risk",
		Message: "m", Priority: models.PriorityHigh, CreatedAt: created,
	}
	query, args := feedInsert([]models.FeedItem{it})

	assert.True(t, strings.HasPrefix(query, "INSERT INTO feed_items ("+feedColumns+") VALUES "))
	require.Len(t, args, strings.Count(feedColumns, ",")+1)
	assert.Equal(t, "high", args[5])
	assert.Equal(t, false, args[7])
	assert.Equal(t, created, args[9])
}
