package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"wastetwin/internal/daemonrun"
)

func newDaemonCommand(ctx *commandContext) *cobra.Command {
	var logLevel string
	var bind string
	cmd := &cobra.Command{
		Use:   "daemon",
		Short: "Run the facility daemon in the foreground",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			return daemonrun.Run(cmd.Context(), cfg, daemonrun.Options{
				LogLevel: logLevel,
				APIBind:  bind,
				Ready: func(addr string) {
					fmt.Fprintf(out, "wastetwin daemon listening on %s\n", addr)
				},
			})
		},
	}
	cmd.Flags().StringVar(&logLevel, "log-level", "", "Override logging.level")
	cmd.Flags().StringVar(&bind, "bind", "", "Override paths.api_bind")
	return cmd
}
