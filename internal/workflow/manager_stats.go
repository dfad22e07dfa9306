package workflow

import (
	"wastetwin/internal/queue"
	"wastetwin/internal/stats"
)

// Stats returns a consistent snapshot of the facility. All slices and maps are
// copies.
func (m *Manager) Stats() stats.Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.agg.Snapshot(stats.Input{
		Queued: m.queue.Snapshot(),
		Active: m.activeSnapshotLocked(),
		Now:    m.now(),
	})
}

// Status returns the current facility status.
func (m *Manager) Status() stats.SystemStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	return stats.DeriveStatus(m.queue.Len(), len(m.active))
}

// History returns up to limit completed items, newest first.
func (m *Manager) History(limit int) []queue.Item {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.agg.History(limit)
}
