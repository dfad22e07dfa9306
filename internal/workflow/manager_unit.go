package workflow

import (
	"fmt"
	"log/slog"
	"time"

	"wastetwin/internal/catalog"
	"wastetwin/internal/events"
	"wastetwin/internal/logging"
)

// runUnit simulates one item. It never holds m.mu while sleeping.
func (m *Manager) runUnit(id string, spec catalog.CategorySpec, logger *slog.Logger) {
	defer m.units.Done()
	completed := false
	defer func() {
		if r := recover(); r != nil {
			m.failUnit(id, fmt.Sprintf("unit of work aborted: %v", r), logger)
			return
		}
		if !completed {
			m.failUnit(id, "unit of work exited before completion", logger)
		}
	}()

	steps := m.sim.TotalSteps()
	delay := m.sim.StepDelay(spec)
	sampler := logging.NewProgressSampler(25)
	for step := 1; step <= steps; step++ {
		if delay > 0 {
			time.Sleep(delay)
		}
		if m.stepHook != nil {
			m.stepHook(id, step)
		}
		progress := m.advance(id, step)
		if sampler.ShouldLog(progress) {
			logger.Debug("processing progress", logging.Float64("progress", progress), logging.Int("step", step))
		}
	}

	materials := m.sim.Recover(spec)
	efficiency := m.sim.Efficiency()
	m.complete(id, materials, efficiency, logger)
	completed = true
}

func (m *Manager) advance(id string, step int) float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	item, ok := m.active[id]
	if !ok {
		return 0
	}
	item.SetProgress(m.sim.Progress(step))
	snapshot := item.Clone()
	m.publishLocked(events.Event{Kind: events.KindProgressTick, Item: &snapshot, Step: step})
	return snapshot.Progress
}

// complete commits the result and every aggregate in one locked step.
func (m *Manager) complete(id string, materials map[string]float64, efficiency float64, logger *slog.Logger) {
	m.mu.Lock()
	defer m.mu.Unlock()
	item, ok := m.removeActiveLocked(id)
	if !ok {
		return
	}
	item.MarkCompleted(m.now(), materials, efficiency)
	m.agg.RecordCompleted(*item)
	snapshot := item.Clone()
	m.publishLocked(events.Event{Kind: events.KindProcessingCompleted, Item: &snapshot})

	logger.Info("processing completed",
		logging.Duration("elapsed", snapshot.Elapsed()),
		logging.Kilograms("recovered_kg", snapshot.TotalRecovered()),
		logging.Float64("efficiency", efficiency),
		logging.Materials(snapshot.MaterialsRecovered),
		logging.String(logging.FieldEventType, "processing_completed"),
	)
}

func (m *Manager) failUnit(id, message string, logger *slog.Logger) {
	m.mu.Lock()
	defer m.mu.Unlock()
	item, ok := m.removeActiveLocked(id)
	if !ok {
		return
	}
	item.SetFailed(m.now(), message)
	m.agg.RecordFailed(*item)
	snapshot := item.Clone()
	m.publishLocked(events.Event{Kind: events.KindProcessingFailed, Item: &snapshot, Error: message})

	logging.ErrorWithContext(logger, "processing failed", "processing_failed",
		logging.String("error", message),
		logging.String(logging.FieldErrorHint, "item released from active set; aggregates untouched"),
	)
}
