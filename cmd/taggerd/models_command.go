package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newModelsCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "models",
		Short: "List the models known to a running daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := ctx.client().Interrogators(cmd.Context())
			if err != nil {
				return err
			}
			if jsonOut {
				return writeJSON(cmd, resp)
			}

			out := cmd.OutOrStdout()
			if len(resp.Models) == 0 {
				fmt.Fprintln(out, "No models available")
				return nil
			}

			rows := make([][]string, 0, len(resp.Models))
			for _, name := range resp.Models {
				rows = append(rows, []string{name, displayName(name)})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Model", "Display Name"},
				rows,
				[]columnAlignment{alignLeft, alignLeft},
			))
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Print the raw JSON response")
	return cmd
}

func newUnloadCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "unload",
		Short: "Ask the daemon to release loaded model sessions",
		RunE: func(cmd *cobra.Command, args []string) error {
			message, err := ctx.client().Unload(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), message)
			return nil
		},
	}
}
