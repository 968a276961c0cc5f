package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

func newAssetsCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "assets",
		Short: "Manage portfolio version assets",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "set <version> T1 [T2 ...]",
		Short: "Replace the assets of a portfolio version",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseVersionID(args[0])
			if err != nil {
				return err
			}

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

			tickers, err := container.AssetRepo.SetTickers(ctx, id, args[1:])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), map[string]interface{}{
				"portfolio_version_id": id,
				"tickers":              tickers,
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "list <version>",
		Short: "Print the assets of a portfolio version",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseVersionID(args[0])
			if err != nil {
				return err
			}

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

			tickers, err := container.AssetRepo.ListTickers(ctx, id)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), map[string]interface{}{
				"portfolio_version_id": id,
				"tickers":              tickers,
			})
		},
	})

	return cmd
}

func parseVersionID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid portfolio version id %q", s)
	}
	return id, nil
}
