package workflow

import (
	"context"
	"errors"
	"time"

	"wastetwin/internal/logging"
)

// Start begins background processing: every poll interval the driver admits
// queued items until the queue is empty or the cap is reached.
func (m *Manager) Start(ctx context.Context) error {
	m.runMu.Lock()
	defer m.runMu.Unlock()
	if m.running {
		return errors.New("workflow already running")
	}
	runCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.running = true
	m.driverWG.Add(1)
	go m.drive(runCtx)

	m.logger.Info("background driver started",
		logging.Duration("poll_interval", m.pollInterval),
		logging.String(logging.FieldEventType, "driver_started"),
	)
	return nil
}

// Stop halts the driver and waits for in-flight units to finish.
func (m *Manager) Stop() {
	m.runMu.Lock()
	cancel := m.cancel
	wasRunning := m.running
	m.running = false
	m.cancel = nil
	m.runMu.Unlock()

	if wasRunning {
		cancel()
		m.driverWG.Wait()
		m.logger.Info("background driver stopped", logging.String(logging.FieldEventType, "driver_stopped"))
	}
	m.Wait()
}

// Running reports whether the background driver is active.
func (m *Manager) Running() bool {
	m.runMu.Lock()
	defer m.runMu.Unlock()
	return m.running
}

// Wait blocks until every admitted unit has finished. Admissions racing with
// Wait from an idle state may be missed; stop the driver first.
func (m *Manager) Wait() {
	m.units.Wait()
}

func (m *Manager) drive(ctx context.Context) {
	defer m.driverWG.Done()
	ticker := time.NewTicker(m.pollInterval)
	defer ticker.Stop()

	for {
		if admitted := m.ProcessAvailable(); len(admitted) > 0 {
			m.logger.Debug("driver admitted items", logging.Int("count", len(admitted)))
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
