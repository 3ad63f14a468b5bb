package cli

import (
	"context"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

func newListCommand(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the datasets a server offers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), g.timeout)
			defer cancel()

			tables, err := fetchTables(ctx, g)
			if err != nil {
				return err
			}

			tw := tablewriter.NewWriter(cmd.OutOrStdout())
			tw.SetAutoFormatHeaders(false)
			tw.SetAlignment(tablewriter.ALIGN_LEFT)
			tw.SetHeader([]string{"Key", "Group", "Label", "Columns"})
			for _, t := range tables {
				tw.Append([]string{t.Key, t.Group, t.Label, strconv.Itoa(len(t.Columns))})
			}
			tw.Render()
			return nil
		},
	}
}
