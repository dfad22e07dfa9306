package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"wastetwin/internal/apiclient"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var query apiclient.ProcessedQuery
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List finished items, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *apiclient.Client) error {
				page, err := client.Processed(cmd.Context(), query)
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd, page)
				}
				out := cmd.OutOrStdout()
				if len(page.Items) == 0 {
					fmt.Fprintln(out, "No finished items")
					return nil
				}
				colorize := shouldColorize(out)
				rows := make([][]string, 0, len(page.Items))
				for _, item := range page.Items {
					efficiency := "-"
					if item.RecoveryEfficiency != nil {
						efficiency = formatPercent(*item.RecoveryEfficiency * 100)
					}
					var recovered float64
					for _, qty := range item.MaterialsRecovered {
						recovered += qty
					}
					rows = append(rows, []string{
						item.ID,
						item.Category,
						colorStatus(item.Status, colorize),
						formatTimestamp(item.CompletedAt),
						efficiency,
						formatKg(recovered),
					})
				}
				shown := fmt.Sprintf("%d-%d of %d", page.Offset+1, page.Offset+len(page.Items), page.Total)
				fmt.Fprintln(out, renderTableWithFooter(
					[]string{"ID", "Category", "Status", "Finished", "Efficiency", "Recovered"},
					rows,
					[]string{"Showing " + shown},
					[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignRight},
				))
				if next := page.Offset + len(page.Items); next < page.Total {
					fmt.Fprintf(out, "More items available: --offset %s\n", strconv.Itoa(next))
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&query.Category, "category", "", "Only items of this category")
	cmd.Flags().StringVar(&query.Status, "status", "", "Only items with this status (completed or failed)")
	cmd.Flags().IntVarP(&query.Limit, "limit", "n", 0, "Maximum items to show (default 50)")
	cmd.Flags().IntVar(&query.Offset, "offset", 0, "Skip this many newer items")
	addJSONFlag(cmd, &asJSON)
	return cmd
}
