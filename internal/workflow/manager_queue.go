package workflow

import (
	"fmt"

	"wastetwin/internal/events"
	"wastetwin/internal/logging"
	"wastetwin/internal/queue"
)

// Enqueue appends quantity queued items of category in call order and returns
// their ids. The call is all or nothing. Quantity must lie in
// [1, MaxEnqueue].
func (m *Manager) Enqueue(category string, quantity int) ([]string, error) {
	spec, err := m.catalog.Require(category)
	if err != nil {
		return nil, err
	}
	if quantity < 1 {
		return nil, fmt.Errorf("%w: got %d", queue.ErrInvalidQuantity, quantity)
	}
	if quantity > m.maxEnqueue {
		return nil, fmt.Errorf("%w: got %d, at most %d per request", queue.ErrInvalidQuantity, quantity, m.maxEnqueue)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	items := make([]queue.Item, quantity)
	ids := make([]string, quantity)
	for i := range items {
		ids[i] = m.ids.Next(spec.ID)
		items[i] = queue.NewItem(ids[i], spec.ID, now)
	}
	m.queue.Enqueue(items...)
	m.publishLocked(events.Event{Kind: events.KindQueueChanged, Queue: m.queue.Snapshot()})

	m.logger.Info("items enqueued",
		logging.String(logging.FieldCategory, spec.ID),
		logging.Int("quantity", quantity),
		logging.Int("queue_length", m.queue.Len()),
		logging.String(logging.FieldEventType, "items_enqueued"),
	)
	return ids, nil
}

// QueueLength reports how many items are waiting.
func (m *Manager) QueueLength() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.queue.Len()
}

// MaxEnqueue returns the per-call quantity limit.
func (m *Manager) MaxEnqueue() int {
	return m.maxEnqueue
}

// ProcessNext admits the earliest queued item. It returns queue.ErrQueueEmpty
// when nothing waits and ErrConcurrencyLimit when the active set is full; both
// leave state untouched. On success the unit of work is already running and a
// copy of the admitted item is returned.
func (m *Manager) ProcessNext() (queue.Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.admitLocked()
}

// ProcessAvailable admits items until the queue is empty or the cap is
// reached, returning the admitted items.
func (m *Manager) ProcessAvailable() []queue.Item {
	m.mu.Lock()
	defer m.mu.Unlock()
	var admitted []queue.Item
	for {
		item, err := m.admitLocked()
		if err != nil {
			return admitted
		}
		admitted = append(admitted, item)
	}
}

func (m *Manager) admitLocked() (queue.Item, error) {
	if m.queue.Len() == 0 {
		return queue.Item{}, queue.ErrQueueEmpty
	}
	if len(m.active) >= m.maxConcurrent {
		return queue.Item{}, ErrConcurrencyLimit
	}
	item, err := m.queue.Dequeue()
	if err != nil {
		return queue.Item{}, err
	}
	spec, err := m.catalog.Require(item.Category)
	if err != nil {
		item.SetFailed(m.now(), err.Error())
		m.agg.RecordFailed(item)
		m.publishLocked(events.Event{Kind: events.KindProcessingFailed, Item: &item, Error: err.Error()})
		return queue.Item{}, err
	}

	item.MarkProcessing(m.now())
	tracked := item
	m.active[item.ID] = &tracked
	m.activeOrder = append(m.activeOrder, item.ID)

	snapshot := tracked.Clone()
	m.publishLocked(events.Event{Kind: events.KindProcessingStarted, Item: &snapshot})

	logger := m.itemLogger(item)
	logger.Info("processing started",
		logging.Int("active", len(m.active)),
		logging.Int("max_concurrent", m.maxConcurrent),
		logging.String(logging.FieldEventType, "processing_started"),
	)

	m.units.Add(1)
	go m.runUnit(item.ID, spec, logger)
	return snapshot, nil
}

// removeActiveLocked drops id from the active set. Callers must hold m.mu.
func (m *Manager) removeActiveLocked(id string) (*queue.Item, bool) {
	item, ok := m.active[id]
	if !ok {
		return nil, false
	}
	delete(m.active, id)
	for i, activeID := range m.activeOrder {
		if activeID == id {
			m.activeOrder = append(m.activeOrder[:i], m.activeOrder[i+1:]...)
			break
		}
	}
	return item, true
}

func (m *Manager) activeSnapshotLocked() []queue.Item {
	out := make([]queue.Item, 0, len(m.activeOrder))
	for _, id := range m.activeOrder {
		if item, ok := m.active[id]; ok {
			out = append(out, item.Clone())
		}
	}
	return out
}
