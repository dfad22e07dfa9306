package notifications

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"wastetwin/internal/events"
	"wastetwin/internal/logging"
	"wastetwin/internal/stats"
)

const watcherBacklog = 32

// WatchOptions selects which milestones are sent.
type WatchOptions struct {
	Started  bool
	Drained  bool
	Failures bool
}

// Watcher converts hub events into notices.
type Watcher struct {
	svc     Service
	opts    WatchOptions
	logger  *slog.Logger
	backlog chan queued

	mu        sync.Mutex
	running   bool
	startedAt time.Time
	period    DrainSummary
}

type queued struct {
	kind   string
	notice Notice
}

// NewWatcher builds a watcher that delivers through svc. Call Run to start
// delivery.
func NewWatcher(svc Service, opts WatchOptions, logger *slog.Logger) *Watcher {
	if svc == nil {
		svc = noopService{}
	}
	return &Watcher{
		svc:     svc,
		opts:    opts,
		logger:  logging.NewComponentLogger(logger, "notifications"),
		backlog: make(chan queued, watcherBacklog),
	}
}

// Append implements events.Sink. It never blocks; notices that do not fit in
// the backlog are dropped with a warning.
func (w *Watcher) Append(evt events.Event) {
	w.mu.Lock()
	defer w.mu.Unlock()

	switch evt.Kind {
	case events.KindProcessingCompleted:
		w.period.Completed++
		if evt.Item != nil {
			w.period.RecoveredKg += evt.Item.TotalRecovered()
		}
	case events.KindProcessingFailed:
		w.period.Failed++
		if w.opts.Failures && evt.Item != nil {
			w.enqueueLocked("item_failed", ItemFailed(*evt.Item, evt.Error))
		}
	}

	switch {
	case evt.Status == stats.StatusProcessing && !w.running:
		w.running = true
		w.startedAt = evt.Timestamp
		w.period = DrainSummary{}
		if w.opts.Started {
			w.enqueueLocked("facility_started", FacilityStarted(evt.QueueLength+evt.ActiveCount))
		}
	case evt.Status == stats.StatusIdle && w.running:
		w.running = false
		if w.opts.Drained {
			summary := w.period
			summary.Duration = evt.Timestamp.Sub(w.startedAt)
			w.enqueueLocked("queue_drained", QueueDrained(summary))
		}
	}
}

func (w *Watcher) enqueueLocked(kind string, n Notice) {
	select {
	case w.backlog <- queued{kind: kind, notice: n}:
	default:
		logging.WarnWithContext(w.logger, "notification backlog full", "notification_dropped",
			logging.String("notification", kind),
			logging.String(logging.FieldImpact, "notification not sent"),
			logging.String(logging.FieldErrorHint, "check ntfy reachability"),
		)
	}
}

// Run delivers queued notices until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case job := <-w.backlog:
			if err := w.svc.Send(ctx, job.notice); err != nil {
				logging.WarnWithContext(w.logger, "notification failed", "notification_failed",
					logging.String("notification", job.kind),
					logging.Error(err),
					logging.String(logging.FieldImpact, "notification not delivered"),
					logging.String(logging.FieldErrorHint, "check notifications.ntfy_topic"),
				)
			}
		}
	}
}
