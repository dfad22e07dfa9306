package daemonctl

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"golang.org/x/sys/unix"

	"wastetwin/internal/apiclient"
	"wastetwin/internal/config"
)

// ErrDaemonNotRunning indicates no daemon answered on the API.
var ErrDaemonNotRunning = errors.New("daemon not running")

type StopResult struct {
	PID        int
	ForcedKill bool
}

// WaitForShutdown polls until nothing answers on the API.
func WaitForShutdown(ctx context.Context, client StatusClient, timeout time.Duration) error {
	err := pollUntil(ctx, timeout, func() (bool, error) {
		_, err := client.Status(ctx)
		return apiclient.IsAPIUnavailable(err), nil
	})
	if errors.Is(err, errPollTimeout) {
		return errors.New("daemon did not stop: still answering")
	}
	return err
}

// StopAndTerminate sends SIGTERM to the daemon and SIGKILLs it if it still
// answers after grace. The pid comes from the status endpoint, falling back
// to the pid file.
func StopAndTerminate(ctx context.Context, client StatusClient, cfg *config.Config, grace time.Duration) (StopResult, error) {
	status, err := client.Status(ctx)
	if apiclient.IsAPIUnavailable(err) {
		return StopResult{}, ErrDaemonNotRunning
	}
	if err != nil {
		return StopResult{}, err
	}
	pid := status.PID
	if pid <= 0 {
		if pid, err = ReadPID(cfg.PIDPath()); err != nil {
			return StopResult{}, err
		}
		if pid <= 0 {
			return StopResult{}, errors.New("daemon did not report a pid")
		}
	}
	if err := signalProcess(pid, unix.SIGTERM); err != nil {
		return StopResult{}, err
	}

	result := StopResult{PID: pid}
	err = WaitForShutdown(ctx, client, grace)
	if err == nil || ctx.Err() != nil {
		return result, ctx.Err()
	}
	killed, err := ForceKillProcess(cfg.PIDPath(), cfg.LockPath(), pid)
	if err != nil {
		return result, fmt.Errorf("force stop daemon: %w", err)
	}
	result.PID, result.ForcedKill = killed, true
	return result, nil
}

// ForceKillProcess SIGKILLs the daemon and removes its pid and lock files,
// which a killed process cannot clean up itself.
func ForceKillProcess(pidPath, lockPath string, fallbackPID int) (int, error) {
	pid, err := ReadPID(pidPath)
	if err != nil {
		return 0, err
	}
	if pid == 0 {
		pid = fallbackPID
	}
	if pid <= 0 {
		return 0, fmt.Errorf("no daemon pid known (pid file: %s)", pidPath)
	}
	if err := signalProcess(pid, unix.SIGKILL); err != nil {
		return 0, err
	}
	for _, path := range []string{pidPath, lockPath} {
		if path == "" {
			continue
		}
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return pid, fmt.Errorf("remove %s: %w", path, err)
		}
	}
	return pid, nil
}

func signalProcess(pid int, sig unix.Signal) error {
	if pid == os.Getpid() {
		return fmt.Errorf("refusing to signal current process (pid %d)", pid)
	}
	if err := unix.Kill(pid, sig); err != nil {
		return fmt.Errorf("signal daemon process %d: %w", pid, err)
	}
	return nil
}
