package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aristath/frontier/internal/config"
	"github.com/aristath/frontier/internal/modules/optimization"
)

func newOptimizeCmd(opts *rootOptions) *cobra.Command {
	var runFile string

	cmd := &cobra.Command{
		Use:   "optimize",
		Short: "Compute the efficient frontier described by a run file",
		RunE: func(cmd *cobra.Command, args []string) error {
			run, err := config.LoadRun(runFile)
			if err != nil {
				return err
			}

			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			if err := run.Apply(cfg); err != nil {
				return err
			}

			ctx := cmd.Context()
			container, err := opts.wire(ctx, cmd, cfg)
			if err != nil {
				return err
			}
			defer container.Close()

			if len(run.Tickers) > 0 {
				if _, err := container.AssetRepo.SetTickers(ctx, run.PortfolioVersionID, run.Tickers); err != nil {
					return err
				}
			}

			req, err := optimization.ParseRequest(run.PortfolioVersionID, run.DateFrom, run.DateTo)
			if err != nil {
				return err
			}

			resp, err := container.OptimizerService.Optimize(ctx, req)
			if err != nil {
				return err
			}

			if run.Output == "" {
				if err := printJSON(cmd.OutOrStdout(), resp); err != nil {
					return err
				}
			} else {
				f, err := os.Create(run.Output)
				if err != nil {
					return fmt.Errorf("failed to create output: %w", err)
				}
				defer f.Close()
				if err := printJSON(f, resp); err != nil {
					return fmt.Errorf("failed to write output: %w", err)
				}
			}

			if run.Chart != "" {
				img, err := optimization.RenderIndexChart(resp)
				if err != nil {
					return err
				}
				if err := os.WriteFile(run.Chart, img, 0644); err != nil {
					return fmt.Errorf("failed to write chart: %w", err)
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&runFile, "config", "run.yaml", "run definition file")
	return cmd
}
