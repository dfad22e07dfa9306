package daemonctl

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"syscall"
	"time"

	"wastetwin/internal/api"
	"wastetwin/internal/apiclient"
)

// StatusClient is the part of the API client needed to probe the daemon.
type StatusClient interface {
	Status(ctx context.Context) (api.DaemonStatus, error)
}

// LaunchOptions are forwarded to `wastetwin daemon`.
type LaunchOptions struct {
	ConfigPath string
	APIBind    string
	// OutputPath receives the daemon's stdout and stderr. Empty discards them.
	OutputPath string
}

func (o LaunchOptions) args() []string {
	args := []string{"daemon"}
	if v := strings.TrimSpace(o.ConfigPath); v != "" {
		args = append(args, "--config", v)
	}
	if v := strings.TrimSpace(o.APIBind); v != "" {
		args = append(args, "--bind", v)
	}
	return args
}

type StartState string

const (
	StartStateStarted        StartState = "started"
	StartStateAlreadyRunning StartState = "already_running"
)

type StartResult struct {
	State StartState
	PID   int
}

// Launch starts a detached daemon process in its own session and does not
// wait for it.
func Launch(executable string, opts LaunchOptions) error {
	if strings.TrimSpace(executable) == "" {
		return errors.New("launch daemon: executable path is empty")
	}
	proc := exec.Command(executable, opts.args()...)
	proc.SysProcAttr = &syscall.SysProcAttr{Setsid: true}
	if path := strings.TrimSpace(opts.OutputPath); path != "" {
		out, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("open daemon output %q: %w", path, err)
		}
		defer out.Close()
		proc.Stdout, proc.Stderr = out, out
	}
	if err := proc.Start(); err != nil {
		return fmt.Errorf("launch daemon: %w", err)
	}
	return proc.Process.Release()
}

// WaitForAPI polls until the daemon reports running.
func WaitForAPI(ctx context.Context, client StatusClient, timeout time.Duration) (api.DaemonStatus, error) {
	var status api.DaemonStatus
	err := pollUntil(ctx, timeout, func() (bool, error) {
		s, err := client.Status(ctx)
		switch {
		case err != nil:
			return false, err
		case !s.Running:
			return false, errors.New("daemon not accepting work yet")
		}
		status = s
		return true, nil
	})
	if err != nil {
		return api.DaemonStatus{}, fmt.Errorf("daemon failed to start: %w", err)
	}
	return status, nil
}

// EnsureStarted launches the daemon unless one already answers, then waits
// for its API.
func EnsureStarted(ctx context.Context, client StatusClient, executable string, opts LaunchOptions, timeout time.Duration) (StartResult, error) {
	status, err := client.Status(ctx)
	switch {
	case err == nil && status.Running:
		return StartResult{State: StartStateAlreadyRunning, PID: status.PID}, nil
	case err != nil && !apiclient.IsAPIUnavailable(err):
		return StartResult{}, err
	}

	if err := Launch(executable, opts); err != nil {
		return StartResult{}, err
	}
	status, err = WaitForAPI(ctx, client, timeout)
	if err != nil {
		return StartResult{}, err
	}
	return StartResult{State: StartStateStarted, PID: status.PID}, nil
}
