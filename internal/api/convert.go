package api

import (
	"time"

	"wastetwin/internal/catalog"
	"wastetwin/internal/events"
	"wastetwin/internal/queue"
	"wastetwin/internal/stats"
)

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(dateTimeFormat)
}

// ParseTime parses a timestamp produced by this package. Empty strings yield
// the zero time.
func ParseTime(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	return time.Parse(dateTimeFormat, value)
}

// FromItem converts an item to its API representation.
func FromItem(item queue.Item) Item {
	dto := Item{
		ID:           item.ID,
		Category:     item.Category,
		Status:       string(item.Status),
		Progress:     item.Progress,
		CreatedAt:    formatTime(item.CreatedAt),
		ErrorMessage: item.ErrorMessage,
	}
	if item.StartedAt != nil {
		dto.StartedAt = formatTime(*item.StartedAt)
		dto.ElapsedSeconds = item.Elapsed().Seconds()
	}
	if item.CompletedAt != nil {
		dto.CompletedAt = formatTime(*item.CompletedAt)
	}
	if item.Status == queue.StatusCompleted {
		if len(item.MaterialsRecovered) > 0 {
			dto.MaterialsRecovered = make(map[string]float64, len(item.MaterialsRecovered))
			for k, v := range item.MaterialsRecovered {
				dto.MaterialsRecovered[k] = v
			}
		}
		eff := item.RecoveryEfficiency
		dto.RecoveryEfficiency = &eff
	}
	return dto
}

// FromItems converts a slice of items. The result is never nil.
func FromItems(items []queue.Item) []Item {
	out := make([]Item, 0, len(items))
	for _, item := range items {
		out = append(out, FromItem(item))
	}
	return out
}

// FromSnapshot converts a stats snapshot.
func FromSnapshot(snap stats.Snapshot, maxConcurrent int) Stats {
	breakdown := make(map[string]CategoryBreakdown, len(snap.CategoryBreakdown))
	for id, cs := range snap.CategoryBreakdown {
		materials := make(map[string]float64, len(cs.Materials))
		for k, v := range cs.Materials {
			materials[k] = v
		}
		breakdown[id] = CategoryBreakdown{Count: cs.Count, Materials: materials}
	}
	totals := make(map[string]float64, len(snap.MaterialTotals))
	for k, v := range snap.MaterialTotals {
		totals[k] = v
	}
	return Stats{
		GeneratedAt:       formatTime(snap.GeneratedAt),
		Status:            string(snap.Status),
		QueueLength:       snap.QueueLength,
		ActiveCount:       snap.ActiveCount,
		MaxConcurrent:     maxConcurrent,
		CompletedToday:    snap.CompletedToday,
		TotalCompleted:    snap.TotalCompleted,
		FailedCount:       snap.FailedCount,
		MaterialTotals:    totals,
		CategoryBreakdown: breakdown,
		Queue:             FromItems(snap.Queue),
		Active:            FromItems(snap.Active),
		Recent:            FromItems(snap.Recent),
		Failed:            FromItems(snap.Failed),
	}
}

// FromCategory converts a catalog entry.
func FromCategory(spec catalog.CategorySpec) Category {
	return Category{
		ID:              spec.ID,
		Materials:       append([]string(nil), spec.Materials...),
		DurationSeconds: spec.DurationSeconds,
		RecoveryRate:    spec.RecoveryRate,
		Hazard:          string(spec.Hazard),
	}
}

// FromCategories converts catalog entries, keeping their order.
func FromCategories(specs []catalog.CategorySpec) []Category {
	out := make([]Category, 0, len(specs))
	for _, spec := range specs {
		out = append(out, FromCategory(spec))
	}
	return out
}

// FromComposition converts a composition lookup.
func FromComposition(c catalog.Composition) Composition {
	parts := make([]CompositionPart, 0, len(c.Parts))
	for _, p := range c.Parts {
		parts = append(parts, CompositionPart{Material: p.Material, Percent: p.Percent, Hazard: p.Hazard})
	}
	return Composition{Category: c.Category, Parts: parts, HazardScore: c.HazardScore}
}

// FromEvent converts a hub event.
func FromEvent(evt events.Event) Event {
	dto := Event{
		Sequence:    evt.Sequence,
		Type:        string(evt.Kind),
		Timestamp:   formatTime(evt.Timestamp),
		ItemID:      evt.ItemID(),
		QueueLength: evt.QueueLength,
		ActiveCount: evt.ActiveCount,
		Status:      string(evt.Status),
		Step:        evt.Step,
		Error:       evt.Error,
	}
	if evt.Item != nil {
		item := FromItem(*evt.Item)
		dto.Item = &item
	}
	if evt.Kind == events.KindQueueChanged {
		dto.Queue = FromItems(evt.Queue)
	}
	return dto
}

// FromEvents converts a slice of events. The result is never nil.
func FromEvents(evts []events.Event) []Event {
	out := make([]Event, 0, len(evts))
	for _, evt := range evts {
		out = append(out, FromEvent(evt))
	}
	return out
}
