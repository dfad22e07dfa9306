package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"wastetwin/internal/apiclient"
	"wastetwin/internal/daemonctl"
)

const (
	startWaitTimeout = 10 * time.Second
	stopGracePeriod  = 10 * time.Second
)

func newDaemonControlCommands(ctx *commandContext) []*cobra.Command {
	start := &cobra.Command{
		Use:   "start",
		Short: "Start the daemon in the background",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			bind, err := ctx.apiBind()
			if err != nil {
				return err
			}
			client, err := apiclient.New(bind)
			if err != nil {
				return err
			}
			exe, err := os.Executable()
			if err != nil {
				return fmt.Errorf("resolve executable: %w", err)
			}
			result, err := daemonctl.EnsureStarted(cmd.Context(), client, exe, daemonctl.LaunchOptions{
				ConfigPath: ctx.configPath(),
				APIBind:    ctx.apiOverride(),
				OutputPath: filepath.Join(cfg.Paths.LogDir, "daemon.out"),
			}, startWaitTimeout)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			switch result.State {
			case daemonctl.StartStateAlreadyRunning:
				fmt.Fprintf(out, "Daemon already running (pid %d)\n", result.PID)
			default:
				fmt.Fprintf(out, "Daemon started (pid %d) on %s\n", result.PID, bind)
			}
			return nil
		},
	}

	stop := &cobra.Command{
		Use:   "stop",
		Short: "Stop the background daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			bind, err := ctx.apiBind()
			if err != nil {
				return err
			}
			client, err := apiclient.New(bind)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			result, err := daemonctl.StopAndTerminate(cmd.Context(), client, cfg, stopGracePeriod)
			if errors.Is(err, daemonctl.ErrDaemonNotRunning) {
				fmt.Fprintln(out, "Daemon is not running")
				return nil
			}
			if err != nil {
				return err
			}
			if result.ForcedKill {
				fmt.Fprintf(out, "Daemon did not stop in time; killed pid %d\n", result.PID)
				return nil
			}
			fmt.Fprintf(out, "Daemon stopped (pid %d)\n", result.PID)
			return nil
		},
	}

	status := &cobra.Command{
		Use:   "status",
		Short: "Show daemon status",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *apiclient.Client) error {
				status, err := client.Status(cmd.Context())
				if err != nil {
					return err
				}
				rows := [][]string{
					{"Running", yesNo(status.Running)},
					{"PID", fmt.Sprint(status.PID)},
					{"Lock file", status.LockFilePath},
					{"Auto process", yesNo(status.AutoProcess)},
					{"Driver running", yesNo(status.DriverRunning)},
					{"Max concurrent", fmt.Sprint(status.MaxConcurrent)},
					{"Notifications", yesNo(status.Notifications)},
					{"Stream subscribers", fmt.Sprint(status.Subscribers)},
					{"Ledger rows", fmt.Sprint(status.LedgerRows)},
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Daemon", "Value"}, rows, []columnAlignment{alignLeft, alignRight}))
				return nil
			})
		},
	}

	return []*cobra.Command{start, stop, status}
}
