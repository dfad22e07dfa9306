package main

import (
	"github.com/spf13/cobra"
)

const (
	groupFacility = "facility"
	groupDaemon   = "daemon"
	groupOffline  = "offline"
)

func newRootCommand() *cobra.Command {
	flags := &rootFlags{}
	ctx := newCommandContext(flags)

	rootCmd := &cobra.Command{
		Use:   "wastetwin",
		Short: "Material-recovery facility simulator",
		Long: "wastetwin simulates a material-recovery facility. The daemon owns the\n" +
			"queue and processing engine; the other commands talk to it over HTTP,\n" +
			"except simulate and config which run locally.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if shouldSkipConfig(cmd) {
				return nil
			}
			_, err := ctx.ensureConfig()
			return err
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	rootCmd.PersistentFlags().StringVar(&flags.api, "api", "", "Daemon API address (defaults to paths.api_bind)")
	rootCmd.PersistentFlags().StringVarP(&flags.config, "config", "c", "", "Configuration file path")

	rootCmd.AddGroup(
		&cobra.Group{ID: groupFacility, Title: "Facility commands:"},
		&cobra.Group{ID: groupDaemon, Title: "Daemon commands:"},
		&cobra.Group{ID: groupOffline, Title: "Offline commands:"},
	)
	addGrouped(rootCmd, groupFacility,
		newEnqueueCommand(ctx),
		newProcessCommand(ctx),
		newConcurrencyCommand(ctx),
		newStatsCommand(ctx),
		newCategoriesCommand(ctx),
		newCompositionCommand(ctx),
		newHistoryCommand(ctx),
		newEventsCommand(ctx),
		newChatCommand(ctx),
	)
	addGrouped(rootCmd, groupDaemon, newDaemonCommand(ctx))
	addGrouped(rootCmd, groupDaemon, newDaemonControlCommands(ctx)...)
	addGrouped(rootCmd, groupDaemon, newCheckCommand(ctx), newNotifyCommand(ctx))
	addGrouped(rootCmd, groupOffline, newSimulateCommand(ctx), newConfigCommand(ctx))
	return rootCmd
}

func addGrouped(parent *cobra.Command, group string, cmds ...*cobra.Command) {
	for _, cmd := range cmds {
		cmd.GroupID = group
		parent.AddCommand(cmd)
	}
}
