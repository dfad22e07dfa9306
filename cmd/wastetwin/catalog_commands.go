package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"wastetwin/internal/apiclient"
)

func newCategoriesCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "categories",
		Short: "List device categories",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *apiclient.Client) error {
				categories, err := client.Categories(cmd.Context())
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd, categories)
				}
				rows := make([][]string, 0, len(categories))
				for _, c := range categories {
					rows = append(rows, []string{
						c.ID,
						strings.Join(c.Materials, ", "),
						strconv.Itoa(c.DurationSeconds) + "s",
						strconv.FormatFloat(c.RecoveryRate*100, 'f', 0, 64) + "%",
						label(c.Hazard),
					})
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable(
					[]string{"Category", "Materials", "Duration", "Recovery", "Hazard"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight, alignLeft},
				))
				return nil
			})
		},
	}
	addJSONFlag(cmd, &asJSON)
	return cmd
}

func newCompositionCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "composition <category>",
		Short: "Show the material composition of a category",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *apiclient.Client) error {
				comp, err := client.Composition(cmd.Context(), strings.TrimSpace(args[0]))
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd, comp)
				}
				rows := make([][]string, 0, len(comp.Parts))
				for _, part := range comp.Parts {
					rows = append(rows, []string{part.Material, strconv.Itoa(part.Percent) + "%", strconv.Itoa(part.Hazard)})
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "%s composition\n", label(comp.Category))
				fmt.Fprintln(out, renderTableWithFooter(
					[]string{"Material", "Share", "Hazard"},
					rows,
					[]string{"Hazard score", "", strconv.FormatFloat(comp.HazardScore, 'f', 1, 64)},
					[]columnAlignment{alignLeft, alignRight, alignRight},
				))
				return nil
			})
		},
	}
	addJSONFlag(cmd, &asJSON)
	return cmd
}
