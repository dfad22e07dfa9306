package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"wastetwin/internal/apiclient"
)

func newEnqueueCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "enqueue <category> [quantity]",
		Short: "Add items of a category to the queue",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			quantity := 1
			if len(args) == 2 {
				n, err := strconv.Atoi(strings.TrimSpace(args[1]))
				if err != nil {
					return fmt.Errorf("invalid quantity %q", args[1])
				}
				quantity = n
			}
			return ctx.withClient(func(client *apiclient.Client) error {
				resp, err := client.Enqueue(cmd.Context(), strings.TrimSpace(args[0]), quantity)
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd, resp)
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Queued %d item(s); queue length %d\n", len(resp.IDs), resp.QueueLength)
				for _, id := range resp.IDs {
					fmt.Fprintf(out, "  %s\n", id)
				}
				return nil
			})
		},
	}
	addJSONFlag(cmd, &asJSON)
	return cmd
}

func newProcessCommand(ctx *commandContext) *cobra.Command {
	var all bool
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "process",
		Short: "Start processing the next queued item",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *apiclient.Client) error {
				resp, err := client.Process(cmd.Context(), all)
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd, resp)
				}
				out := cmd.OutOrStdout()
				if len(resp.Started) == 0 {
					msg := resp.Message
					if msg == "" {
						msg = "Nothing started"
					}
					fmt.Fprintln(out, msg)
					return nil
				}
				for _, item := range resp.Started {
					fmt.Fprintf(out, "Started %s (%s)\n", item.ID, item.Category)
				}
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "Admit as many items as the concurrency cap allows")
	addJSONFlag(cmd, &asJSON)
	return cmd
}

func newConcurrencyCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "concurrency [n]",
		Short: "Show or change the concurrency cap",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *apiclient.Client) error {
				if len(args) == 0 {
					stats, err := client.Stats(cmd.Context())
					if err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "Max concurrent: %d\n", stats.MaxConcurrent)
					return nil
				}
				n, err := strconv.Atoi(strings.TrimSpace(args[0]))
				if err != nil || n < 1 {
					return fmt.Errorf("invalid concurrency %q: must be a positive integer", args[0])
				}
				resp, err := client.SetMaxConcurrent(cmd.Context(), n)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Max concurrent set to %d\n", resp.MaxConcurrent)
				return nil
			})
		},
	}
}

func newStatsCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show facility statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *apiclient.Client) error {
				stats, err := client.Stats(cmd.Context())
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd, stats)
				}
				out := cmd.OutOrStdout()
				renderStats(out, stats, shouldColorize(out))
				return nil
			})
		},
	}
	addJSONFlag(cmd, &asJSON)
	return cmd
}

func newChatCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "chat <message>",
		Short: "Ask the facility assistant a question",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			message := strings.TrimSpace(strings.Join(args, " "))
			return ctx.withClient(func(client *apiclient.Client) error {
				reply, err := client.Chat(cmd.Context(), message)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), reply)
				return nil
			})
		},
	}
}

func newNotifyCommand(ctx *commandContext) *cobra.Command {
	notifyCmd := &cobra.Command{
		Use:   "notify",
		Short: "Notification utilities",
	}
	notifyCmd.AddCommand(&cobra.Command{
		Use:   "test",
		Short: "Send a test notification through the daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *apiclient.Client) error {
				msg, err := client.TestNotification(cmd.Context())
				if err != nil {
					return err
				}
				if msg == "" {
					msg = "Test notification sent"
				}
				fmt.Fprintln(cmd.OutOrStdout(), msg)
				return nil
			})
		},
	})
	return notifyCmd
}
