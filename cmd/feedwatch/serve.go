package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jpalmerr/feedwatch"
	"github.com/jpalmerr/feedwatch/config"
	"github.com/spf13/cobra"
)

const (
	shutdownTimeout = 10 * time.Second
)

// newLogger creates a JSON logger for CLI use.
func newLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
}

// serveCmd starts the feedwatch monitor.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the feed monitor",
	Long: `Start the feedwatch monitor.

The monitor will:
  - Load configuration from the specified YAML file
  - Start polling all configured provider feeds
  - Print detected changes to stdout
  - Serve the live event stream and dashboard on the configured port

The monitor runs until interrupted (Ctrl+C) or receives SIGTERM.

Example:
  feedwatch serve -c config.yaml
  feedwatch serve --config /etc/feedwatch/config.yaml`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringP("config", "c", "", "path to config file (required)")
	_ = serveCmd.MarkFlagRequired("config")
}

func runServe(cmd *cobra.Command, args []string) error {
	logger := newLogger()

	configFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(configFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger.Info("config loaded",
		"providers", len(cfg.Providers),
	)
	logger.Info("starting monitor",
		"port", cfg.Port,
		"stagger_delay", cfg.StaggerDelay.Duration().String(),
	)

	// convert config to SDK providers
	providers := config.BuildProviders(cfg)
	if len(providers) == 0 {
		return fmt.Errorf("no providers configured")
	}

	// create the monitor with options
	opts := []feedwatch.Option{
		feedwatch.WithProviders(providers...),
		feedwatch.WithPort(cfg.Port),
		feedwatch.WithStaggerDelay(cfg.StaggerDelay.Duration()),
		feedwatch.WithMaxConcurrentFetches(cfg.MaxConcurrentFetches),
		feedwatch.WithConsoleOutput(os.Stdout),
		feedwatch.WithLogger(logger),
	}
	if cfg.Title != "" {
		opts = append(opts, feedwatch.WithTitle(cfg.Title))
	}

	m, err := feedwatch.New(opts...)
	if err != nil {
		return fmt.Errorf("failed to create monitor: %w", err)
	}

	// set up context with signal handling - cancel on SIGINT/SIGTERM
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// start monitor - blocks until context cancelled
	errChan := make(chan error, 1)
	go func() {
		errChan <- m.Start(ctx)
	}()

	// wait for monitor to finish
	select {
	case err := <-errChan:
		if err != nil {
			return fmt.Errorf("monitor error: %w", err)
		}
		logger.Info("shutdown complete")
		return nil

	case <-ctx.Done():
		// signal received, wait for graceful shutdown with timeout
		select {
		case err := <-errChan:
			if err != nil {
				return fmt.Errorf("monitor error: %w", err)
			}
			logger.Info("shutdown complete")
			return nil
		case <-time.After(shutdownTimeout):
			logger.Warn("shutdown timed out",
				"timeout", shutdownTimeout.String(),
				"action", "forcing exit",
			)
			return nil
		}
	}
}
