package main

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"wastetwin/internal/apiclient"
	"wastetwin/internal/preflight"
)

func newCheckCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Run preflight checks and probe the daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			results := preflight.RunAll(cmd.Context(), cfg)
			results = append(results, probeDaemon(cmd, ctx))

			rows := make([][]string, 0, len(results))
			for _, r := range results {
				rows = append(rows, []string{r.Name, passLabel(r.Passed), r.Detail})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Check", "Result", "Detail"}, rows, nil))

			if failed := preflight.Failed(results); len(failed) > 0 {
				return errors.New(strconv.Itoa(len(failed)) + " check(s) failed")
			}
			return nil
		},
	}
}

func probeDaemon(cmd *cobra.Command, ctx *commandContext) preflight.Result {
	result := preflight.Result{Name: "Daemon API"}
	bind, err := ctx.apiBind()
	if err != nil {
		result.Detail = err.Error()
		return result
	}
	client, err := apiclient.New(bind)
	if err != nil {
		result.Detail = err.Error()
		return result
	}
	status, err := client.Status(cmd.Context())
	if err != nil {
		result.Detail = wrapClientError(err, bind).Error()
		return result
	}
	result.Passed = true
	result.Detail = fmt.Sprintf("pid %d at %s, driver running: %s, ledger rows: %d",
		status.PID, bind, yesNo(status.DriverRunning), status.LedgerRows)
	return result
}

func passLabel(passed bool) string {
	if passed {
		return "ok"
	}
	return "FAIL"
}
