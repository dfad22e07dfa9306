package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"wastetwin/internal/api"
	"wastetwin/internal/apiclient"
)

func newEventsCommand(ctx *commandContext) *cobra.Command {
	var query apiclient.EventsQuery
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "events",
		Short: "Show facility events",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *apiclient.Client) error {
				return streamEvents(cmd, client, query, asJSON)
			})
		},
	}
	cmd.Flags().Uint64Var(&query.Since, "since", 0, "Only events after this sequence number")
	cmd.Flags().IntVarP(&query.Limit, "limit", "n", 0, "Maximum events per page")
	cmd.Flags().BoolVarP(&query.Follow, "follow", "f", false, "Keep waiting for new events")
	cmd.Flags().BoolVar(&query.Tail, "tail", false, "Start from the most recent events")
	cmd.Flags().StringSliceVar(&query.Types, "type", nil, "Only events of these types")
	cmd.Flags().StringVar(&query.ItemID, "item", "", "Only events for this item")
	addJSONFlag(cmd, &asJSON)
	return cmd
}

func streamEvents(cmd *cobra.Command, client *apiclient.Client, query apiclient.EventsQuery, asJSON bool) error {
	runCtx := cmd.Context()
	out := cmd.OutOrStdout()
	follow := query.Follow
	query.Follow = false

	for {
		page, err := client.Events(runCtx, query)
		if err != nil {
			if errors.Is(err, context.Canceled) || runCtx.Err() != nil {
				return nil
			}
			return err
		}
		for _, evt := range page.Events {
			if asJSON {
				if err := writeJSON(cmd, evt); err != nil {
					return err
				}
				continue
			}
			printEvent(out, evt)
		}
		if page.Next > query.Since {
			query.Since = page.Next
		}
		query.Tail = false
		if !follow {
			return nil
		}
		query.Follow = true
	}
}

func printEvent(out io.Writer, evt api.Event) {
	line := fmt.Sprintf("#%d %s %-20s", evt.Sequence, formatTimestamp(evt.Timestamp), evt.Type)
	if evt.ItemID != "" {
		line += " " + evt.ItemID
	}
	switch evt.Type {
	case "progress_tick":
		if evt.Item != nil {
			line += " " + formatPercent(evt.Item.Progress)
		}
	case "processing_failed":
		line += " error=" + evt.Error
	}
	fmt.Fprintf(out, "%s (queue=%d active=%d %s)\n", line, evt.QueueLength, evt.ActiveCount, evt.Status)
}
