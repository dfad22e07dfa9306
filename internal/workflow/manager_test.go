package workflow

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wastetwin/internal/catalog"
	"wastetwin/internal/events"
	"wastetwin/internal/queue"
	"wastetwin/internal/recovery"
	"wastetwin/internal/stats"
)

func TestEnqueueAppendsInFIFOOrder(t *testing.T) {
	m := newTestManager(t, 3)
	sub := m.Subscribe(16)

	first := requireEnqueue(t, m, "cables", 2)
	second := requireEnqueue(t, m, "mouse", 3)

	snap := m.Stats()
	require.Equal(t, 5, snap.QueueLength)
	want := append(append([]string(nil), first...), second...)
	for i, item := range snap.Queue {
		assert.Equal(t, want[i], item.ID)
		assert.Equal(t, queue.StatusQueued, item.Status)
		assert.Zero(t, item.Progress)
	}
	assert.Equal(t, stats.StatusReady, snap.Status)

	evts := drain(t, sub)
	require.Len(t, evts, 2)
	assert.Equal(t, events.KindQueueChanged, evts[0].Kind)
	assert.Len(t, evts[0].Queue, 2)
	assert.Equal(t, 5, evts[1].QueueLength)
}

func TestEnqueueRejectsInvalidQuantity(t *testing.T) {
	m := newTestManager(t, 3)
	for _, qty := range []int{0, -1} {
		ids, err := m.Enqueue("cables", qty)
		assert.Nil(t, ids)
		assert.True(t, errors.Is(err, queue.ErrInvalidQuantity))
	}
	assert.Zero(t, m.Stats().QueueLength)
}

func TestEnqueueRejectsQuantityAboveLimit(t *testing.T) {
	m := newTestManager(t, 3)
	require.Equal(t, DefaultMaxEnqueue, m.MaxEnqueue())

	for _, qty := range []int{DefaultMaxEnqueue + 1, math.MaxInt} {
		ids, err := m.Enqueue("cables", qty)
		assert.Nil(t, ids)
		assert.ErrorIs(t, err, queue.ErrInvalidQuantity)
	}
	assert.Zero(t, m.QueueLength())

	ids, err := m.Enqueue("cables", DefaultMaxEnqueue)
	require.NoError(t, err)
	assert.Len(t, ids, DefaultMaxEnqueue)
	assert.Equal(t, DefaultMaxEnqueue, m.QueueLength())
}

func TestEnqueueUsesConfiguredLimit(t *testing.T) {
	m := NewManager(catalog.Default(), Options{MaxEnqueue: 2}, nil)
	t.Cleanup(m.Stop)

	_, err := m.Enqueue("mouse", 3)
	assert.ErrorIs(t, err, queue.ErrInvalidQuantity)
	_, err = m.Enqueue("mouse", 2)
	require.NoError(t, err)
	assert.Equal(t, 2, m.QueueLength())
}

func TestEnqueueRejectsUnknownCategory(t *testing.T) {
	m := newTestManager(t, 3)
	_, err := m.Enqueue("toaster", 1)
	assert.True(t, errors.Is(err, catalog.ErrUnknownCategory))
	assert.Zero(t, m.Stats().QueueLength)
}

func TestProcessNextOnEmptyQueue(t *testing.T) {
	m := newTestManager(t, 3)
	sub := m.Subscribe(4)
	_, err := m.ProcessNext()
	assert.True(t, errors.Is(err, queue.ErrQueueEmpty))
	assert.Empty(t, drain(t, sub))
	assert.Equal(t, stats.StatusIdle, m.Status())
}

func TestConcurrencyCapRejectsExtraItem(t *testing.T) {
	const capacity = 3
	m := newTestManager(t, capacity)
	g := newGate()
	m.stepHook = g.hook
	requireEnqueue(t, m, "gpu", capacity+1)

	for range capacity {
		item, err := m.ProcessNext()
		require.NoError(t, err)
		assert.Equal(t, queue.StatusProcessing, item.Status)
		assert.NotNil(t, item.StartedAt)
	}
	_, err := m.ProcessNext()
	assert.True(t, errors.Is(err, ErrConcurrencyLimit))

	snap := m.Stats()
	assert.Equal(t, 1, snap.QueueLength, "rejected item stays queued")
	assert.Equal(t, capacity, snap.ActiveCount)
	assert.Equal(t, stats.StatusProcessing, snap.Status)

	g.open()
	m.Wait()
	assert.Zero(t, m.Stats().ActiveCount)
}

func TestCompletedItemRecoversCategoryMaterials(t *testing.T) {
	m := newTestManager(t, 3)
	requireEnqueue(t, m, "laptop", 1)
	_, err := m.ProcessNext()
	require.NoError(t, err)
	m.Wait()

	history := m.History(0)
	require.Len(t, history, 1)
	item := history[0]
	spec, _ := m.Catalog().Lookup("laptop")

	assert.Equal(t, queue.StatusCompleted, item.Status)
	assert.Equal(t, 100.0, item.Progress)
	require.NotNil(t, item.CompletedAt)
	assert.GreaterOrEqual(t, item.TotalRecovered(), 0.0)
	assert.Len(t, item.MaterialsRecovered, len(spec.Materials))
	for material := range item.MaterialsRecovered {
		assert.True(t, spec.HasMaterial(material), material)
	}
	assert.GreaterOrEqual(t, item.RecoveryEfficiency, 0.7)
	assert.LessOrEqual(t, item.RecoveryEfficiency, 0.95)
}

func TestMaterialTotalsAreAdditive(t *testing.T) {
	m := newTestManager(t, 3)
	requireEnqueue(t, m, "cpu", 2)

	_, err := m.ProcessNext()
	require.NoError(t, err)
	m.Wait()
	before := m.Stats().MaterialTotals

	_, err = m.ProcessNext()
	require.NoError(t, err)
	m.Wait()
	after := m.Stats()

	latest := after.Recent[0]
	for material, qty := range after.MaterialTotals {
		assert.InDelta(t, before[material]+latest.MaterialsRecovered[material], qty, 1e-4, material)
	}
}

func TestItemsAreConserved(t *testing.T) {
	m := newTestManager(t, 2)
	g := newGate()
	m.stepHook = g.hook
	requireEnqueue(t, m, "mouse", 4)
	requireEnqueue(t, m, "webcam", 1)

	_, err := m.ProcessNext()
	require.NoError(t, err)
	_, err = m.ProcessNext()
	require.NoError(t, err)

	snap := m.Stats()
	assert.Equal(t, 5, snap.QueueLength+snap.ActiveCount+snap.TotalCompleted)

	g.open()
	m.Wait()
	snap = m.Stats()
	assert.Equal(t, 5, snap.QueueLength+snap.ActiveCount+snap.TotalCompleted)
	assert.Equal(t, 2, snap.TotalCompleted)
}

func TestCablesScenario(t *testing.T) {
	m := newTestManager(t, 3)
	requireEnqueue(t, m, "cables", 2)
	admitted := m.ProcessAvailable()
	require.Len(t, admitted, 2)
	m.Wait()

	snap := m.Stats()
	assert.Equal(t, 2, snap.TotalCompleted)
	assert.Equal(t, 2, snap.CompletedToday)
	assert.Equal(t, stats.StatusIdle, snap.Status)
	assert.Equal(t, 2, snap.CategoryBreakdown["cables"].Count)
	for material, qty := range snap.MaterialTotals {
		switch material {
		case "copper", "plastic", "rubber":
			// 2 items x U[10,100] x 0.92 x U[0.8,1.2]
			assert.GreaterOrEqual(t, qty, 2*10*0.92*0.8-1e-3, material)
			assert.LessOrEqual(t, qty, 2*100*0.92*1.2+1e-3, material)
		default:
			assert.Zero(t, qty, material)
		}
	}
}

func TestSingleSlotScenario(t *testing.T) {
	m := newTestManager(t, 3)
	require.NoError(t, m.SetMaxConcurrent(1))
	assert.Error(t, m.SetMaxConcurrent(0))
	g := newGate()
	m.stepHook = g.hook
	requireEnqueue(t, m, "mouse", 3)

	_, err := m.ProcessNext()
	require.NoError(t, err)
	_, err = m.ProcessNext()
	require.ErrorIs(t, err, ErrConcurrencyLimit)

	g.open()
	m.Wait()
	_, err = m.ProcessNext()
	require.NoError(t, err)
	m.Wait()
	assert.Equal(t, 2, m.Stats().TotalCompleted)
	assert.Equal(t, 1, m.Stats().QueueLength)
}

func TestEventOrderPerItem(t *testing.T) {
	m := newTestManager(t, 3)
	sub := m.Subscribe(128)
	ids := requireEnqueue(t, m, "headset", 1)
	_, err := m.ProcessNext()
	require.NoError(t, err)
	m.Wait()

	evts := drain(t, sub)
	require.Len(t, evts, 1+1+recovery.DefaultTotalSteps+1)
	assert.Equal(t, events.KindQueueChanged, evts[0].Kind)
	assert.Equal(t, events.KindProcessingStarted, evts[1].Kind)
	assert.Equal(t, ids[0], evts[1].ItemID())

	last := 0.0
	for i, evt := range evts[2 : len(evts)-1] {
		require.Equal(t, events.KindProgressTick, evt.Kind)
		assert.Equal(t, i+1, evt.Step)
		assert.GreaterOrEqual(t, evt.Item.Progress, last)
		last = evt.Item.Progress
	}
	assert.Equal(t, 100.0, last)

	done := evts[len(evts)-1]
	assert.Equal(t, events.KindProcessingCompleted, done.Kind)
	require.NotNil(t, done.Item)
	assert.NotEmpty(t, done.Item.MaterialsRecovered)
	assert.Equal(t, stats.StatusIdle, done.Status)

	for i := 1; i < len(evts); i++ {
		assert.Greater(t, evts[i].Sequence, evts[i-1].Sequence)
	}
}

func TestPanickingUnitIsReleasedAndMarkedFailed(t *testing.T) {
	m := newTestManager(t, 3)
	sub := m.Subscribe(128)
	m.stepHook = func(_ string, step int) {
		if step == 5 {
			panic("actuator jammed")
		}
	}
	requireEnqueue(t, m, "battery", 1)
	_, err := m.ProcessNext()
	require.NoError(t, err)
	m.Wait()

	snap := m.Stats()
	assert.Zero(t, snap.ActiveCount)
	assert.Zero(t, snap.TotalCompleted)
	assert.Equal(t, 1, snap.FailedCount)
	require.Len(t, snap.Failed, 1)
	assert.Equal(t, queue.StatusFailed, snap.Failed[0].Status)
	assert.Contains(t, snap.Failed[0].ErrorMessage, "actuator jammed")
	for material, qty := range snap.MaterialTotals {
		assert.Zero(t, qty, material)
	}

	evts := drain(t, sub)
	require.NotEmpty(t, evts)
	last := evts[len(evts)-1]
	assert.Equal(t, events.KindProcessingFailed, last.Kind)
	assert.Contains(t, last.Error, "actuator jammed")

	// the slot is free again
	requireEnqueue(t, m, "mouse", 1)
	m.stepHook = nil
	_, err = m.ProcessNext()
	require.NoError(t, err)
	m.Wait()
	assert.Equal(t, 1, m.Stats().TotalCompleted)
}

func TestStatsReturnsCopies(t *testing.T) {
	m := newTestManager(t, 3)
	requireEnqueue(t, m, "ram", 1)
	snap := m.Stats()
	snap.Queue[0].ID = "mutated"
	snap.MaterialTotals["gold"] = 1000

	again := m.Stats()
	assert.NotEqual(t, "mutated", again.Queue[0].ID)
	assert.Zero(t, again.MaterialTotals["gold"])
}
