package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync/atomic"

	"github.com/gofrs/flock"

	"wastetwin/internal/chat"
	"wastetwin/internal/config"
	"wastetwin/internal/ledger"
	"wastetwin/internal/logging"
	"wastetwin/internal/notifications"
	"wastetwin/internal/workflow"
)

// Daemon coordinates the background processing services and enforces
// single-instance execution.
type Daemon struct {
	cfg      *config.Config
	logger   *slog.Logger
	workflow *workflow.Manager
	ledger   *ledger.Ledger
	chat     *chat.Responder
	notifier notifications.Service

	lockPath string
	lock     *flock.Flock
	api      *apiServer

	running atomic.Bool
	ctx     context.Context
	cancel  context.CancelFunc
}

// Status represents daemon runtime information.
type Status struct {
	Running       bool
	PID           int
	LockFilePath  string
	AutoProcess   bool
	DriverRunning bool
	Subscribers   int
}

// New constructs a daemon with initialized dependencies.
func New(cfg *config.Config, wf *workflow.Manager, led *ledger.Ledger, notifier notifications.Service, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil || wf == nil || led == nil {
		return nil, errors.New("daemon requires config, workflow manager, and ledger")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	if notifier == nil {
		notifier = notifications.NewService(nil)
	}

	lockPath := cfg.LockPath()
	d := &Daemon{
		cfg:      cfg,
		logger:   logging.NewComponentLogger(logger, "daemon"),
		workflow: wf,
		ledger:   led,
		chat:     chat.NewResponder(wf),
		notifier: notifier,
		lockPath: lockPath,
		lock:     flock.New(lockPath),
	}
	d.api = newAPIServer(cfg.Paths.APIBind, d, logger)
	return d, nil
}

// Start acquires the daemon lock, starts the API server and, when
// auto-processing is enabled, the workflow driver.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another wastetwin daemon instance is already running")
	}

	d.ctx, d.cancel = context.WithCancel(ctx)
	if err := d.api.start(d.ctx); err != nil {
		d.abortStart()
		return err
	}
	if d.cfg.Workflow.AutoProcess {
		if err := d.workflow.Start(d.ctx); err != nil {
			d.api.stop()
			d.abortStart()
			return fmt.Errorf("start workflow: %w", err)
		}
	}

	d.running.Store(true)
	d.logger.Info("wastetwin daemon started",
		logging.String("lock", d.lockPath),
		logging.String("api", d.api.address()),
		logging.Bool("auto_process", d.cfg.Workflow.AutoProcess),
	)
	return nil
}

func (d *Daemon) abortStart() {
	_ = d.lock.Unlock()
	d.cancel()
	d.ctx = nil
	d.cancel = nil
}

// Stop stops background processing, waits for in-flight items and releases
// the daemon lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}

	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.api.stop()
	d.workflow.Stop()
	if err := d.lock.Unlock(); err != nil {
		logging.WarnWithContext(d.logger, "failed to release daemon lock", "lock_release_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "next start may report another instance"),
			logging.String(logging.FieldErrorHint, "remove "+d.lockPath+" if no daemon is running"),
		)
	}
	d.ctx = nil
	d.running.Store(false)
	d.logger.Info("wastetwin daemon stopped")
}

// Close releases resources held by the daemon.
func (d *Daemon) Close() error {
	d.Stop()
	if d.ledger != nil {
		return d.ledger.Close()
	}
	return nil
}

// Address reports the bound API address, or "" before Start.
func (d *Daemon) Address() string {
	return d.api.address()
}

// TestNotification triggers a test notification using the current configuration.
func (d *Daemon) TestNotification(ctx context.Context) (bool, string, error) {
	if !d.cfg.NotificationsEnabled() {
		return false, "ntfy topic not configured", nil
	}
	if err := d.notifier.Send(ctx, notifications.TestNotice()); err != nil {
		return false, "failed to send notification", err
	}
	return true, "test notification sent", nil
}

// Status returns the current daemon status.
func (d *Daemon) Status() Status {
	return Status{
		Running:       d.running.Load(),
		PID:           os.Getpid(),
		LockFilePath:  d.lockPath,
		AutoProcess:   d.cfg.Workflow.AutoProcess,
		DriverRunning: d.workflow.Running(),
		Subscribers:   d.workflow.Events().Subscribers(),
	}
}
