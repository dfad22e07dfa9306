package queue

import (
	"maps"
	"strings"
	"time"
)

// Status represents the lifecycle of a recovery item.
type Status string

const (
	StatusQueued     Status = "queued"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

var allStatuses = []Status{
	StatusQueued,
	StatusProcessing,
	StatusCompleted,
	StatusFailed,
}

// AllStatuses returns the ordered list of known statuses.
func AllStatuses() []Status {
	cp := make([]Status, len(allStatuses))
	copy(cp, allStatuses)
	return cp
}

// ParseStatus converts a string into a known Status.
func ParseStatus(value string) (Status, bool) {
	normalized := Status(strings.ToLower(strings.TrimSpace(value)))
	for _, status := range allStatuses {
		if status == normalized {
			return status, true
		}
	}
	return "", false
}

// IsTerminal reports whether no further transition can happen.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Item is one discarded device moving through the facility.
type Item struct {
	ID                 string
	Category           string
	Status             Status
	CreatedAt          time.Time
	StartedAt          *time.Time
	CompletedAt        *time.Time
	Progress           float64
	MaterialsRecovered map[string]float64
	RecoveryEfficiency float64
	ErrorMessage       string
}

// NewItem returns a queued item with zero progress.
func NewItem(id, category string, createdAt time.Time) Item {
	return Item{
		ID:        id,
		Category:  category,
		Status:    StatusQueued,
		CreatedAt: createdAt,
	}
}

// Clone returns a deep copy safe to hand to callers outside the owning lock.
func (i Item) Clone() Item {
	if i.StartedAt != nil {
		started := *i.StartedAt
		i.StartedAt = &started
	}
	if i.CompletedAt != nil {
		completed := *i.CompletedAt
		i.CompletedAt = &completed
	}
	if i.MaterialsRecovered != nil {
		i.MaterialsRecovered = maps.Clone(i.MaterialsRecovered)
	}
	return i
}

// MarkProcessing records the start of the unit of work.
func (i *Item) MarkProcessing(now time.Time) {
	i.Status = StatusProcessing
	i.StartedAt = &now
	i.Progress = 0
}

// SetProgress advances progress, clamped to [0, 100]. Progress never moves
// backwards.
func (i *Item) SetProgress(percent float64) {
	if percent > 100 {
		percent = 100
	}
	if percent < i.Progress {
		return
	}
	i.Progress = percent
}

// MarkCompleted stores the recovery result and fixes progress at 100.
func (i *Item) MarkCompleted(now time.Time, materials map[string]float64, efficiency float64) {
	i.Status = StatusCompleted
	i.CompletedAt = &now
	i.Progress = 100
	i.MaterialsRecovered = maps.Clone(materials)
	i.RecoveryEfficiency = efficiency
}

// SetFailed marks the item as failed with the given error message.
func (i *Item) SetFailed(now time.Time, message string) {
	i.Status = StatusFailed
	i.CompletedAt = &now
	i.ErrorMessage = message
}

// Elapsed returns the processing time, or zero when the item has not finished.
func (i Item) Elapsed() time.Duration {
	if i.StartedAt == nil || i.CompletedAt == nil {
		return 0
	}
	return i.CompletedAt.Sub(*i.StartedAt)
}

// TotalRecovered sums the recovered quantities.
func (i Item) TotalRecovered() float64 {
	total := 0.0
	for _, qty := range i.MaterialsRecovered {
		total += qty
	}
	return total
}
