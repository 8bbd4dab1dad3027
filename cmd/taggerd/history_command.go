package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent interrogations recorded by the daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := ctx.client().History(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if jsonOut {
				return writeJSON(cmd, resp)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, renderSectionHeader("Interrogation History", shouldColorize(out)))
			if len(resp.Entries) == 0 {
				fmt.Fprintln(out, "No interrogations recorded")
				return nil
			}

			rows := make([][]string, 0, len(resp.Entries))
			for _, e := range resp.Entries {
				rows = append(rows, []string{
					strconv.FormatInt(e.ID, 10),
					e.Queue,
					e.Name,
					e.Model,
					strconv.Itoa(e.TagCount),
					e.TopTag,
					fmt.Sprintf("%.4f", e.TopScore),
					e.CreatedAt,
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"ID", "Queue", "Name", "Model", "Tags", "Top Tag", "Score", "Recorded"},
				rows,
				[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignRight, alignLeft, alignRight, alignLeft},
			))
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "Maximum entries to show (server default when 0)")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Print the raw JSON response")
	return cmd
}
