package ledger_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wastetwin/internal/events"
	"wastetwin/internal/ledger"
	"wastetwin/internal/logging"
	"wastetwin/internal/queue"
)

func openLedger(t *testing.T, maxRows int) *ledger.Ledger {
	t.Helper()
	l, err := ledger.Open(context.Background(), maxRows, logging.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = l.Close() })
	return l
}

func finished(id, category string, status queue.Status) queue.Item {
	created := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	item := queue.NewItem(id, category, created)
	item.MarkProcessing(created.Add(time.Second))
	if status == queue.StatusFailed {
		item.SetFailed(created.Add(2*time.Second), "boom")
		return item
	}
	item.MarkCompleted(created.Add(3*time.Second), map[string]float64{"copper": 12.5, "gold": 0.01}, 0.81)
	return item
}

func TestRecordAndGet(t *testing.T) {
	l := openLedger(t, 0)
	ctx := context.Background()

	item := finished("laptops_1_aa", "laptops", queue.StatusCompleted)
	require.NoError(t, l.Record(ctx, item))

	got, ok, err := l.Get(ctx, item.ID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, queue.StatusCompleted, got.Status)
	assert.Equal(t, "laptops", got.Category)
	assert.InDelta(t, 12.5, got.MaterialsRecovered["copper"], 1e-9)
	assert.InDelta(t, 0.81, got.RecoveryEfficiency, 1e-9)
	assert.Equal(t, 100.0, got.Progress)
	require.NotNil(t, got.CompletedAt)
	assert.True(t, got.CompletedAt.Equal(*item.CompletedAt))

	_, ok, err = l.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRecordRejectsNonTerminal(t *testing.T) {
	l := openLedger(t, 0)
	item := queue.NewItem("cables_1_aa", "cables", time.Now())
	assert.Error(t, l.Record(context.Background(), item))
}

func TestRecordIsIdempotent(t *testing.T) {
	l := openLedger(t, 0)
	ctx := context.Background()
	item := finished("cables_1_aa", "cables", queue.StatusCompleted)
	require.NoError(t, l.Record(ctx, item))
	require.NoError(t, l.Record(ctx, item))

	n, err := l.Count(ctx, ledger.Filter{})
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestListFiltersAndPages(t *testing.T) {
	l := openLedger(t, 0)
	ctx := context.Background()
	for i := 1; i <= 5; i++ {
		require.NoError(t, l.Record(ctx, finished(fmt.Sprintf("laptops_%d", i), "laptops", queue.StatusCompleted)))
	}
	require.NoError(t, l.Record(ctx, finished("cables_6", "cables", queue.StatusCompleted)))
	require.NoError(t, l.Record(ctx, finished("cables_7", "cables", queue.StatusFailed)))

	all, err := l.List(ctx, ledger.Filter{})
	require.NoError(t, err)
	require.Len(t, all, 7)
	assert.Equal(t, "cables_7", all[0].ID, "newest first")

	laptops, err := l.List(ctx, ledger.Filter{Category: "laptops", Limit: 2, Offset: 1})
	require.NoError(t, err)
	require.Len(t, laptops, 2)
	assert.Equal(t, "laptops_4", laptops[0].ID)
	assert.Equal(t, "laptops_3", laptops[1].ID)

	failed, err := l.List(ctx, ledger.Filter{Status: queue.StatusFailed})
	require.NoError(t, err)
	require.Len(t, failed, 1)
	assert.Equal(t, "boom", failed[0].ErrorMessage)

	n, err := l.Count(ctx, ledger.Filter{Category: "cables"})
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestPruneKeepsNewestRows(t *testing.T) {
	l := openLedger(t, 3)
	ctx := context.Background()
	for i := 1; i <= 6; i++ {
		require.NoError(t, l.Record(ctx, finished(fmt.Sprintf("tvs_%d", i), "tvs", queue.StatusCompleted)))
	}
	items, err := l.List(ctx, ledger.Filter{})
	require.NoError(t, err)
	require.Len(t, items, 3)
	assert.Equal(t, "tvs_6", items[0].ID)
	assert.Equal(t, "tvs_4", items[2].ID)
}

func TestAppendRecordsOnlyFinishedEvents(t *testing.T) {
	l := openLedger(t, 0)
	hub := events.NewHub(16, 4)
	hub.AddSink(l)

	done := finished("phones_1", "phones", queue.StatusCompleted)
	hub.Publish(events.Event{Kind: events.KindProcessingStarted, Item: &done})
	hub.Publish(events.Event{Kind: events.KindProcessingCompleted, Item: &done})
	hub.Publish(events.Event{Kind: events.KindQueueChanged})

	n, err := l.Count(context.Background(), ledger.Filter{})
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestAppendIsWrittenInBackground(t *testing.T) {
	l := openLedger(t, 0)
	for i := 1; i <= 5; i++ {
		item := finished(fmt.Sprintf("mouse_%d", i), "mouse", queue.StatusCompleted)
		l.Append(events.Event{Kind: events.KindProcessingCompleted, Item: &item})
	}
	require.Eventually(t, func() bool { return l.Pending() == 0 }, 2*time.Second, 5*time.Millisecond)

	items, err := l.List(context.Background(), ledger.Filter{})
	require.NoError(t, err)
	require.Len(t, items, 5)
	assert.Equal(t, "mouse_5", items[0].ID)
}
