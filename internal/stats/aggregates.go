package stats

import (
	"maps"
	"time"

	"wastetwin/internal/catalog"
	"wastetwin/internal/queue"
	"wastetwin/internal/recovery"
)

const (
	// DefaultHistoryLimit caps the completed-item history.
	DefaultHistoryLimit = 500
	// DefaultFailedLimit caps the failed-item list.
	DefaultFailedLimit = 100
	// RecentLimit is the number of completed items included in a snapshot.
	RecentLimit = 10

	dayLayout = "2006-01-02"
)

// CategoryStats is the running breakdown for one category.
type CategoryStats struct {
	Count     int
	Materials map[string]float64
}

// Aggregates holds the running totals owned by the workflow manager.
type Aggregates struct {
	materialTotals map[string]float64
	breakdown      map[string]*CategoryStats
	completedByDay map[string]int
	totalCompleted int

	history      []queue.Item
	historyLimit int

	failed      []queue.Item
	failedLimit int
	failedCount int
}

// NewAggregates seeds totals with every catalog material and breakdown entries
// for every category, all at zero.
func NewAggregates(cat *catalog.Catalog, historyLimit, failedLimit int) *Aggregates {
	if historyLimit <= 0 {
		historyLimit = DefaultHistoryLimit
	}
	if failedLimit <= 0 {
		failedLimit = DefaultFailedLimit
	}
	a := &Aggregates{
		materialTotals: make(map[string]float64),
		breakdown:      make(map[string]*CategoryStats),
		completedByDay: make(map[string]int),
		historyLimit:   historyLimit,
		failedLimit:    failedLimit,
	}
	for _, material := range cat.Materials() {
		a.materialTotals[material] = 0
	}
	for id, spec := range cat.List() {
		entry := &CategoryStats{Materials: make(map[string]float64, len(spec.Materials))}
		for _, material := range spec.Materials {
			entry.Materials[material] = 0
		}
		a.breakdown[id] = entry
	}
	return a
}

// RecordCompleted folds a completed item into every aggregate in one step.
func (a *Aggregates) RecordCompleted(item queue.Item) {
	for material, qty := range item.MaterialsRecovered {
		a.materialTotals[material] += qty
	}
	entry, ok := a.breakdown[item.Category]
	if !ok {
		entry = &CategoryStats{Materials: make(map[string]float64)}
		a.breakdown[item.Category] = entry
	}
	entry.Count++
	for material, qty := range item.MaterialsRecovered {
		entry.Materials[material] += qty
	}
	a.completedByDay[item.CreatedAt.Local().Format(dayLayout)]++
	a.totalCompleted++

	a.history = append(a.history, item.Clone())
	if over := len(a.history) - a.historyLimit; over > 0 {
		a.history = append([]queue.Item(nil), a.history[over:]...)
	}
}

// RecordFailed keeps a failed item in the bounded failed list.
func (a *Aggregates) RecordFailed(item queue.Item) {
	a.failedCount++
	a.failed = append(a.failed, item.Clone())
	if over := len(a.failed) - a.failedLimit; over > 0 {
		a.failed = append([]queue.Item(nil), a.failed[over:]...)
	}
}

// MaterialTotal returns the cumulative quantity for material.
func (a *Aggregates) MaterialTotal(material string) (float64, bool) {
	qty, ok := a.materialTotals[material]
	return qty, ok
}

// TotalCompleted reports how many items completed since startup.
func (a *Aggregates) TotalCompleted() int {
	return a.totalCompleted
}

// History returns up to limit completed items, newest first. A non-positive
// limit returns the whole retained history.
func (a *Aggregates) History(limit int) []queue.Item {
	n := len(a.history)
	if limit <= 0 || limit > n {
		limit = n
	}
	out := make([]queue.Item, 0, limit)
	for i := n - 1; i >= n-limit; i-- {
		out = append(out, a.history[i].Clone())
	}
	return out
}

// Input is the live state a snapshot is derived from alongside the aggregates.
type Input struct {
	Queued []queue.Item
	Active []queue.Item
	Now    time.Time
}

// Snapshot derives a consistent view. The caller must hold the lock that
// guards both the aggregates and the live state in in.
func (a *Aggregates) Snapshot(in Input) Snapshot {
	now := in.Now
	if now.IsZero() {
		now = time.Now()
	}
	totals := make(map[string]float64, len(a.materialTotals))
	for material, qty := range a.materialTotals {
		totals[material] = recovery.Round4(qty)
	}
	breakdown := make(map[string]CategoryStats, len(a.breakdown))
	for id, entry := range a.breakdown {
		materials := maps.Clone(entry.Materials)
		for material, qty := range materials {
			materials[material] = recovery.Round4(qty)
		}
		breakdown[id] = CategoryStats{Count: entry.Count, Materials: materials}
	}
	failed := make([]queue.Item, len(a.failed))
	for i, item := range a.failed {
		failed[i] = item.Clone()
	}

	return Snapshot{
		GeneratedAt:       now,
		QueueLength:       len(in.Queued),
		ActiveCount:       len(in.Active),
		CompletedToday:    a.completedByDay[now.Local().Format(dayLayout)],
		TotalCompleted:    a.totalCompleted,
		FailedCount:       a.failedCount,
		MaterialTotals:    totals,
		CategoryBreakdown: breakdown,
		Status:            DeriveStatus(len(in.Queued), len(in.Active)),
		Queue:             cloneItems(in.Queued),
		Active:            cloneItems(in.Active),
		Recent:            a.History(RecentLimit),
		Failed:            failed,
	}
}

func cloneItems(items []queue.Item) []queue.Item {
	out := make([]queue.Item, len(items))
	for i, item := range items {
		out[i] = item.Clone()
	}
	return out
}
