package main

import (
	"github.com/spf13/cobra"
)

func newRootCommand() *cobra.Command {
	var addressFlag string
	var configFlag string
	var authFlag string

	ctx := newCommandContext(&addressFlag, &configFlag, &authFlag)

	rootCmd := &cobra.Command{
		Use:           "taggerd",
		Short:         "Image tagging daemon and client",
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

	rootCmd.PersistentFlags().StringVar(&addressFlag, "address", "", "Address of a running taggerd API (host:port)")
	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "Configuration file path")
	rootCmd.PersistentFlags().StringVar(&authFlag, "auth", "", "Basic auth credentials as user:password")

	rootCmd.AddCommand(newServeCommand(ctx))
	rootCmd.AddCommand(newTagCommand(ctx))
	rootCmd.AddCommand(newModelsCommand(ctx))
	rootCmd.AddCommand(newUnloadCommand(ctx))
	rootCmd.AddCommand(newHistoryCommand(ctx))
	rootCmd.AddCommand(newConfigCommand())

	return rootCmd
}
