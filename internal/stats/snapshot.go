package stats

import (
	"sort"
	"time"

	"wastetwin/internal/queue"
)

// SystemStatus is the facility-wide state derived from queue and active counts.
type SystemStatus string

const (
	StatusIdle       SystemStatus = "idle"
	StatusReady      SystemStatus = "ready"
	StatusProcessing SystemStatus = "processing"
)

// DeriveStatus maps counts to a SystemStatus. Any active item means
// processing; otherwise a non-empty queue means ready.
func DeriveStatus(queued, active int) SystemStatus {
	switch {
	case active > 0:
		return StatusProcessing
	case queued > 0:
		return StatusReady
	default:
		return StatusIdle
	}
}

// Snapshot is a point-in-time copy of the facility state.
type Snapshot struct {
	GeneratedAt       time.Time
	QueueLength       int
	ActiveCount       int
	CompletedToday    int
	TotalCompleted    int
	FailedCount       int
	MaterialTotals    map[string]float64
	CategoryBreakdown map[string]CategoryStats
	Status            SystemStatus
	Queue             []queue.Item
	Active            []queue.Item
	Recent            []queue.Item
	Failed            []queue.Item
}

// MaterialRank is one row of TopMaterials.
type MaterialRank struct {
	Material string
	Quantity float64
}

// TopMaterials returns the n materials with the largest totals, largest
// first. Ties sort by name.
func (s Snapshot) TopMaterials(n int) []MaterialRank {
	out := make([]MaterialRank, 0, len(s.MaterialTotals))
	for material, qty := range s.MaterialTotals {
		out = append(out, MaterialRank{Material: material, Quantity: qty})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Quantity != out[j].Quantity {
			return out[i].Quantity > out[j].Quantity
		}
		return out[i].Material < out[j].Material
	})
	if n > 0 && n < len(out) {
		out = out[:n]
	}
	return out
}

// ActiveIDs lists the ids of items currently processing.
func (s Snapshot) ActiveIDs() []string {
	ids := make([]string, len(s.Active))
	for i, item := range s.Active {
		ids[i] = item.ID
	}
	return ids
}
