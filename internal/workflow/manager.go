package workflow

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"wastetwin/internal/catalog"
	"wastetwin/internal/config"
	"wastetwin/internal/events"
	"wastetwin/internal/logging"
	"wastetwin/internal/queue"
	"wastetwin/internal/recovery"
	"wastetwin/internal/stats"
)

const (
	// DefaultMaxConcurrent is the admission cap when none is configured.
	DefaultMaxConcurrent = 3
	// DefaultMaxEnqueue bounds the quantity of a single Enqueue call.
	DefaultMaxEnqueue = 50
)

// Options configures a Manager.
type Options struct {
	MaxConcurrent int
	MaxEnqueue    int
	HistoryLimit  int
	FailedLimit   int
	PollInterval  time.Duration
	Simulator     *recovery.Simulator
	Hub           *events.Hub
}

// Manager owns the queue, the active set and the aggregates.
type Manager struct {
	catalog      *catalog.Catalog
	sim          *recovery.Simulator
	hub          *events.Hub
	logger       *slog.Logger
	pollInterval time.Duration
	maxEnqueue   int
	ids          queue.IDGenerator

	now      func() time.Time
	stepHook func(itemID string, step int)

	mu            sync.Mutex
	queue         *queue.Queue
	active        map[string]*queue.Item
	activeOrder   []string
	agg           *stats.Aggregates
	maxConcurrent int
	status        stats.SystemStatus
	units         sync.WaitGroup

	runMu    sync.Mutex
	running  bool
	cancel   context.CancelFunc
	driverWG sync.WaitGroup
}

// NewManager constructs a manager over cat.
func NewManager(cat *catalog.Catalog, opts Options, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = logging.NewNop()
	}
	if opts.MaxConcurrent <= 0 {
		opts.MaxConcurrent = DefaultMaxConcurrent
	}
	if opts.MaxEnqueue <= 0 {
		opts.MaxEnqueue = DefaultMaxEnqueue
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = 10 * time.Second
	}
	if opts.Simulator == nil {
		opts.Simulator = recovery.NewSimulator(recovery.Options{})
	}
	if opts.Hub == nil {
		opts.Hub = events.NewHub(0, 0)
	}
	return &Manager{
		catalog:       cat,
		sim:           opts.Simulator,
		hub:           opts.Hub,
		logger:        logging.NewComponentLogger(logger, "workflow"),
		pollInterval:  opts.PollInterval,
		maxEnqueue:    opts.MaxEnqueue,
		now:           time.Now,
		queue:         queue.New(),
		active:        make(map[string]*queue.Item),
		agg:           stats.NewAggregates(cat, opts.HistoryLimit, opts.FailedLimit),
		maxConcurrent: opts.MaxConcurrent,
		status:        stats.StatusIdle,
	}
}

// NewManagerFromConfig wires a manager from configuration.
func NewManagerFromConfig(cfg *config.Config, cat *catalog.Catalog, hub *events.Hub, logger *slog.Logger) (*Manager, error) {
	if cfg == nil {
		return nil, errors.New("workflow: config is required")
	}
	if cat == nil {
		return nil, errors.New("workflow: catalog is required")
	}
	maxDelay := cfg.MaxStepDelay()
	if maxDelay == 0 {
		maxDelay = -1
	}
	sim := recovery.NewSimulator(recovery.Options{
		Seed:         cfg.Engine.Seed,
		TotalSteps:   cfg.Engine.TotalSteps,
		MaxStepDelay: maxDelay,
	})
	return NewManager(cat, Options{
		MaxConcurrent: cfg.Engine.MaxConcurrent,
		MaxEnqueue:    cfg.Engine.MaxEnqueue,
		HistoryLimit:  cfg.Engine.HistoryLimit,
		FailedLimit:   cfg.Engine.FailedLimit,
		PollInterval:  cfg.PollInterval(),
		Simulator:     sim,
		Hub:           hub,
	}, logger), nil
}

// Catalog returns the category catalog.
func (m *Manager) Catalog() *catalog.Catalog {
	return m.catalog
}

// Events returns the hub every transition is published on.
func (m *Manager) Events() *events.Hub {
	return m.hub
}

// Subscribe registers a channel subscriber on the event hub.
func (m *Manager) Subscribe(buffer int) *events.Subscription {
	return m.hub.Subscribe(buffer)
}

// MaxConcurrent returns the current admission cap.
func (m *Manager) MaxConcurrent() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.maxConcurrent
}

// SetMaxConcurrent changes the cap for future admissions. Running units are
// unaffected even when the new cap is below the active count.
func (m *Manager) SetMaxConcurrent(n int) error {
	if n < 1 {
		return errors.New("max concurrent must be at least 1")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.maxConcurrent = n
	m.logger.Info("concurrency cap changed", logging.Int("max_concurrent", n))
	return nil
}

// publishLocked stamps counts and status on evt and publishes it. Callers must
// hold m.mu.
func (m *Manager) publishLocked(evt events.Event) {
	evt.QueueLength = m.queue.Len()
	evt.ActiveCount = len(m.active)
	evt.Status = stats.DeriveStatus(evt.QueueLength, evt.ActiveCount)
	if evt.Timestamp.IsZero() {
		evt.Timestamp = m.now().UTC()
	}
	if evt.Status != m.status {
		m.logger.Info("facility status changed",
			logging.String("from", string(m.status)),
			logging.String("to", string(evt.Status)),
			logging.String(logging.FieldEventType, "status_changed"),
		)
		m.status = evt.Status
	}
	m.hub.Publish(evt)
}

func (m *Manager) itemLogger(item queue.Item) *slog.Logger {
	return m.logger.With(logging.Item(item.ID, item.Category)...)
}
