// Package main is the entry point for the frontier HTTP service.
//
// Startup sequence:
//  1. Load configuration from environment variables (.env file)
//  2. Initialize logging
//  3. Wire databases, repositories, services and jobs
//  4. Start the HTTP server and the job scheduler
//  5. Wait for SIGINT/SIGTERM and shut down gracefully
package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/aristath/frontier/internal/config"
	"github.com/aristath/frontier/internal/di"
	"github.com/aristath/frontier/internal/server"
	"github.com/aristath/frontier/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fallbackLog := logger.New(logger.Config{
			Level:  "info",
			Pretty: true,
		})
		fallbackLog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.DevMode,
	})
	logger.SetGlobalLogger(log)

	log.Info().
		Str("data_dir", cfg.DataDir).
		Str("price_source", cfg.PriceSource).
		Msg("Starting frontier")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	container, jobs, err := di.Wire(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to wire dependencies")
	}
	// Closing flushes WAL checkpoints
	defer func() {
		if err := container.Close(); err != nil {
			log.Error().Err(err).Msg("Failed to close databases")
		}
	}()

	srv := server.New(server.Config{
		Log:       log,
		Port:      cfg.Port,
		DevMode:   cfg.DevMode,
		DataDir:   cfg.DataDir,
		Container: container,
		Jobs:      jobs,
	})

	container.Scheduler.Start()

	serverErr := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	log.Info().Int("port", cfg.Port).Msg("Server started successfully")

	select {
	case <-ctx.Done():
		log.Info().Msg("Shutting down server...")
	case err := <-serverErr:
		log.Error().Err(err).Msg("HTTP server failed")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	// Waits for running jobs before the databases close
	container.Scheduler.Stop()

	log.Info().Msg("Server stopped")
}
