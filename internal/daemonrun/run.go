// Package daemonrun assembles the facility daemon from configuration and runs
// it until the process is signalled.
package daemonrun

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/signal"
	"strings"
	"syscall"

	"wastetwin/internal/catalog"
	"wastetwin/internal/config"
	"wastetwin/internal/daemon"
	"wastetwin/internal/daemonctl"
	"wastetwin/internal/events"
	"wastetwin/internal/ledger"
	"wastetwin/internal/logging"
	"wastetwin/internal/notifications"
	"wastetwin/internal/preflight"
	"wastetwin/internal/workflow"
)

// Options configures daemon process runtime behavior.
type Options struct {
	LogLevel string
	APIBind  string
	// Ready, when set, receives the bound API address once the daemon serves.
	Ready func(addr string)
}

// Run starts the wastetwin daemon runtime loop.
func Run(cmdCtx context.Context, cfg *config.Config, opts Options) error {
	if cfg == nil {
		return errors.New("config is required")
	}
	if level := strings.TrimSpace(opts.LogLevel); level != "" {
		cfg.Logging.Level = level
	}
	if bind := strings.TrimSpace(opts.APIBind); bind != "" {
		cfg.Paths.APIBind = bind
	}

	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := cfg.EnsureDirectories(); err != nil {
		return err
	}
	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	logPreflight(signalCtx, logger, cfg)

	if err := daemonctl.WritePID(cfg.PIDPath()); err != nil {
		return err
	}
	defer daemonctl.RemovePID(cfg.PIDPath())

	cat, err := catalog.Load(cfg.Paths.CatalogPath)
	if err != nil {
		return fmt.Errorf("load catalog: %w", err)
	}

	hub := events.NewHub(cfg.Events.BufferSize, cfg.Events.SubscriberBuffer)
	defer hub.Close()

	led, err := ledger.Open(signalCtx, 0, logger)
	if err != nil {
		return fmt.Errorf("open ledger: %w", err)
	}
	hub.AddSink(led)

	notifier := notifications.NewService(cfg)
	if notifications.Enabled(notifier) {
		watcher := notifications.NewWatcher(notifier, notifications.WatchOptions{
			Started:  cfg.Notifications.Queue,
			Drained:  cfg.Notifications.Queue,
			Failures: cfg.Notifications.Failures,
		}, logger)
		hub.AddSink(watcher)
		go watcher.Run(signalCtx)
	}

	manager, err := workflow.NewManagerFromConfig(cfg, cat, hub, logger)
	if err != nil {
		_ = led.Close()
		return fmt.Errorf("create workflow manager: %w", err)
	}

	d, err := daemon.New(cfg, manager, led, notifier, logger)
	if err != nil {
		_ = led.Close()
		return fmt.Errorf("create daemon: %w", err)
	}
	defer d.Close()

	if n := cfg.Workflow.SeedOnStart; n > 0 {
		if _, err := manager.Seed(n); err != nil {
			logging.WarnWithContext(logger, "startup seeding failed", "seed_failed",
				logging.Error(err),
				logging.String(logging.FieldImpact, "queue starts partially seeded"),
			)
		}
	}

	if err := d.Start(signalCtx); err != nil {
		logging.ErrorWithContext(logger, "daemon start failed", "daemon_start_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check paths.api_bind and for another running daemon"),
		)
		return err
	}

	if opts.Ready != nil {
		opts.Ready(d.Address())
	}

	<-signalCtx.Done()
	logger.Info("wastetwin daemon shutting down")
	return nil
}

func logPreflight(ctx context.Context, logger *slog.Logger, cfg *config.Config) {
	for _, result := range preflight.Failed(preflight.RunAll(ctx, cfg)) {
		logging.WarnWithContext(logger, "preflight check failed", "preflight_failed",
			logging.String("check", result.Name),
			logging.String("detail", result.Detail),
			logging.String(logging.FieldImpact, "daemon may run degraded"),
		)
	}
}
