package insights

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/claude/coachengine/internal/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memoryHistory is a feed that the tests append accepted items to.
type memoryHistory struct {
	mu    sync.Mutex
	items []models.FeedItem
	fail  map[string]error
}

func (h *memoryHistory) FindEvents(_ context.Context, key Key, createdSince time.Time) ([]models.FeedItem, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if err := h.fail[key.Title]; err != nil {
		return nil, err
	}
	var out []models.FeedItem
	for _, it := range h.items {
		if it.AthleteID != key.AthleteID || it.Type != key.Type || it.Title != key.Title {
			continue
		}
		if !it.Completed || !it.CreatedAt.Before(createdSince) {
			out = append(out, it)
		}
	}
	return out, nil
}

func (h *memoryHistory) add(items ...models.FeedItem) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.items = append(h.items, items...)
}

func (h *memoryHistory) complete(id uuid.UUID) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for i := range h.items {
		if h.items[i].ID == id {
			h.items[i].Completed = true
			h.items[i].Read = true
		}
	}
}

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func newTestDedup(c *clock, buf *bytes.Buffer) *Deduplicator {
	d := NewDeduplicator(0, slog.New(slog.NewTextHandler(buf, nil)))
	d.now = c.now
	return d
}

var start = time.Date(2026, 5, 4, 9, 0, 0, 0, time.UTC)

func spike() models.InsightEvent {
	return models.InsightEvent{Type: TypeWorkloadRisk, Title: "Workload spike: injury risk", Priority: models.PriorityHigh}
}

// TestFilterNewAssignsFreshState verifies survivors get a unique id and an
// open, unread state.
func TestFilterNewAssignsFreshState(t *testing.T) {
	c := &clock{t: start}
	d := newTestDedup(c, &bytes.Buffer{})

	got := d.FilterNew(context.Background(), "ath-1", []models.InsightEvent{
		spike(),
		{Type: TypeSessionFueling, Title: "Refuel after your session"},
	}, &memoryHistory{})

	require.Len(t, got, 2)
	assert.NotEqual(t, got[0].ID, got[1].ID)
	for _, it := range got {
		assert.Equal(t, "ath-1", it.AthleteID)
		assert.False(t, it.Completed)
		assert.False(t, it.Read)
		assert.Equal(t, start, it.CreatedAt)
	}
}

// TestCompletedWithinWindowStillBlocks submits the same candidate twice within
// 24h, completing the first in between: exactly one survives overall.
func TestCompletedWithinWindowStillBlocks(t *testing.T) {
	c := &clock{t: start}
	d := newTestDedup(c, &bytes.Buffer{})
	h := &memoryHistory{}
	ctx := context.Background()

	first := d.FilterNew(ctx, "ath-1", []models.InsightEvent{spike()}, h)
	require.Len(t, first, 1)
	h.add(first...)
	h.complete(first[0].ID)

	c.t = start.Add(20 * time.Hour)
	second := d.FilterNew(ctx, "ath-1", []models.InsightEvent{spike()}, h)
	assert.Empty(t, second)
}

// TestOpenItemBlocksForever verifies an uncompleted item blocks past the window.
func TestOpenItemBlocksForever(t *testing.T) {
	c := &clock{t: start}
	d := newTestDedup(c, &bytes.Buffer{})
	h := &memoryHistory{}
	ctx := context.Background()

	h.add(d.FilterNew(ctx, "ath-1", []models.InsightEvent{spike()}, h)...)

	c.t = start.Add(10 * 24 * time.Hour)
	assert.Empty(t, d.FilterNew(ctx, "ath-1", []models.InsightEvent{spike()}, h))
}

// TestCompletedAfterWindowAllowsNew verifies a completed item older than the
// window no longer blocks.
func TestCompletedAfterWindowAllowsNew(t *testing.T) {
	c := &clock{t: start}
	d := newTestDedup(c, &bytes.Buffer{})
	h := &memoryHistory{}
	ctx := context.Background()

	first := d.FilterNew(ctx, "ath-1", []models.InsightEvent{spike()}, h)
	h.add(first...)
	h.complete(first[0].ID)

	c.t = start.Add(25 * time.Hour)
	assert.Len(t, d.FilterNew(ctx, "ath-1", []models.InsightEvent{spike()}, h), 1)
}

// TestIdentityIncludesAthleteTypeTitle verifies other athletes, types and
// titles are not blocked.
func TestIdentityIncludesAthleteTypeTitle(t *testing.T) {
	c := &clock{t: start}
	d := newTestDedup(c, &bytes.Buffer{})
	h := &memoryHistory{}
	ctx := context.Background()

	h.add(d.FilterNew(ctx, "ath-1", []models.InsightEvent{spike()}, h)...)

	assert.Len(t, d.FilterNew(ctx, "ath-2", []models.InsightEvent{spike()}, h), 1)
	other := spike()
	other.Title = "Workload climbing fast"
	assert.Len(t, d.FilterNew(ctx, "ath-1", []models.InsightEvent{other}, h), 1)
	other = spike()
	other.Type = TypeWorkloadLow
	assert.Len(t, d.FilterNew(ctx, "ath-1", []models.InsightEvent{other}, h), 1)
}

// TestDuplicateCandidatesInBatch keeps only the first of identical candidates.
func TestDuplicateCandidatesInBatch(t *testing.T) {
	c := &clock{t: start}
	d := newTestDedup(c, &bytes.Buffer{})

	a, b := spike(), spike()
	a.Message, b.Message = "first", "second"
	got := d.FilterNew(context.Background(), "ath-1", []models.InsightEvent{a, b}, &memoryHistory{})
	require.Len(t, got, 1)
	assert.Equal(t, "first", got[0].Message)
}

// TestLookupFailureIsolated verifies one failing lookup drops only its candidate
// and is logged.
func TestLookupFailureIsolated(t *testing.T) {
	c := &clock{t: start}
	var buf bytes.Buffer
	d := newTestDedup(c, &buf)
	h := &memoryHistory{fail: map[string]error{"Workload spike: injury risk": errors.New("connection reset")}}

	got := d.FilterNew(context.Background(), "ath-1", []models.InsightEvent{
		spike(),
		{Type: TypeSessionFueling, Title: "Refuel after your session"},
	}, h)

	require.Len(t, got, 1)
	assert.Equal(t, TypeSessionFueling, got[0].Type)
	assert.Contains(t, buf.String(), "insight history lookup failed")
	assert.Contains(t, buf.String(), "connection reset")
}

// TestNewDeduplicatorDefaults checks the window fallback.
func TestNewDeduplicatorDefaults(t *testing.T) {
	d := NewDeduplicator(-time.Hour, nil)
	assert.Equal(t, DefaultWindow, d.window)
	assert.NotNil(t, d.log)
}
