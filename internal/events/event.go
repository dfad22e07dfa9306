package events

import (
	"time"

	"wastetwin/internal/queue"
	"wastetwin/internal/stats"
)

// Kind names an event type.
type Kind string

const (
	KindQueueChanged        Kind = "queue_changed"
	KindProcessingStarted   Kind = "processing_started"
	KindProgressTick        Kind = "progress_tick"
	KindProcessingCompleted Kind = "processing_completed"
	KindProcessingFailed    Kind = "processing_failed"
)

var allKinds = []Kind{
	KindQueueChanged,
	KindProcessingStarted,
	KindProgressTick,
	KindProcessingCompleted,
	KindProcessingFailed,
}

// ParseKind converts a string into a known Kind.
func ParseKind(value string) (Kind, bool) {
	for _, kind := range allKinds {
		if string(kind) == value {
			return kind, true
		}
	}
	return "", false
}

// Event is a single facility transition.
type Event struct {
	Sequence    uint64
	Kind        Kind
	Timestamp   time.Time
	Item        *queue.Item
	Queue       []queue.Item
	QueueLength int
	ActiveCount int
	Status      stats.SystemStatus
	Step        int
	Error       string
}

// ItemID returns the id of the item the event refers to, if any.
func (e Event) ItemID() string {
	if e.Item == nil {
		return ""
	}
	return e.Item.ID
}

func (e Event) clone() Event {
	if e.Item != nil {
		item := e.Item.Clone()
		e.Item = &item
	}
	if e.Queue != nil {
		q := make([]queue.Item, len(e.Queue))
		for i, item := range e.Queue {
			q[i] = item.Clone()
		}
		e.Queue = q
	}
	return e
}
