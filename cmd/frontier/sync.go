package main

import (
	"github.com/spf13/cobra"
)

func newSyncCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Pull missing daily prices for every known ticker from the provider",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			container, err := opts.wire(ctx, cmd, cfg)
			if err != nil {
				return err
			}
			defer container.Close()

			report, err := container.HistoricalSyncService.SyncAll(ctx)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), report)
		},
	}
}
