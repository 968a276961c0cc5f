package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/aristath/frontier/internal/config"
	"github.com/aristath/frontier/internal/di"
	"github.com/aristath/frontier/pkg/logger"
)

type rootOptions struct {
	dataDir  string
	logLevel string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "frontier",
		Short:         "Mean-variance efficient frontier engine",
		SilenceUsage: true,
	}
	cmd.PersistentFlags().StringVar(&opts.dataDir, "data-dir", "", "database directory (overrides FRONTIER_DATA_DIR)")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "log level (overrides LOG_LEVEL)")

	cmd.AddCommand(
		newOptimizeCmd(opts),
		newImportCSVCmd(opts),
		newSyncCmd(opts),
		newAssetsCmd(opts),
	)
	return cmd
}

// loadConfig reads the environment and applies command-line overrides
func (o *rootOptions) loadConfig() (*config.Config, error) {
	if o.dataDir != "" {
		if err := os.Setenv("FRONTIER_DATA_DIR", o.dataDir); err != nil {
			return nil, err
		}
	}
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if o.logLevel != "" {
		cfg.LogLevel = o.logLevel
	}
	return cfg, nil
}

func (o *rootOptions) logger(cfg *config.Config, cmd *cobra.Command) zerolog.Logger {
	return logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: true,
		Output: cmd.ErrOrStderr(),
	})
}

// wire builds the container for one command. The caller closes it.
func (o *rootOptions) wire(ctx context.Context, cmd *cobra.Command, cfg *config.Config) (*di.Container, error) {
	container, _, err := di.Wire(ctx, cfg, o.logger(cfg, cmd))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize: %w", err)
	}
	return container, nil
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
