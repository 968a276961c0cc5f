package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aristath/frontier/internal/modules/universe"
)

func newImportCSVCmd(opts *rootOptions) *cobra.Command {
	var ticker string

	cmd := &cobra.Command{
		Use:   "import-csv --ticker T file.csv",
		Short: "Load daily closes from a Date,Close CSV file into the history database",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ticker = strings.ToUpper(strings.TrimSpace(ticker))
			if err := universe.ValidateTicker(ticker); err != nil {
				return err
			}

			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("failed to open %s: %w", args[0], err)
			}
			defer f.Close()

			prices, err := universe.ParsePriceCSV(f)
			if err != nil {
				return fmt.Errorf("failed to parse %s: %w", args[0], err)
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

			if err := container.AssetRepo.EnsureAsset(ctx, ticker); err != nil {
				return err
			}
			imported, rejected, err := container.HistoricalSyncService.ImportPrices(ctx, ticker, prices, "csv")
			if err != nil {
				return err
			}

			return printJSON(cmd.OutOrStdout(), map[string]interface{}{
				"ticker":   ticker,
				"imported": imported,
				"rejected": rejected,
			})
		},
	}

	cmd.Flags().StringVar(&ticker, "ticker", "", "ticker the prices belong to")
	_ = cmd.MarkFlagRequired("ticker")
	return cmd
}
