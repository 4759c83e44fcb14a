package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/jpalmerr/boardclient"
	"github.com/jpalmerr/boardclient/config"
)

const (
	shutdownTimeout = 10 * time.Second
)

// newLogger creates a JSON logger for CLI use.
func newLogger(level slog.Level) *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the dashboard server",
	Long: `Start the board client dashboard.

The client will:
  - Load configuration from the specified YAML file
  - Load the board of the initial server, retrying until it answers
  - Serve the dashboard UI on the configured port

The client runs until interrupted (Ctrl+C) or receives SIGTERM.

Example:
  boardclient serve -c config.yaml
  boardclient serve --config /etc/boardclient/config.yaml --debug`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringP("config", "c", "", "path to config file (required)")
	serveCmd.Flags().Bool("debug", false, "log every board fetch")
	_ = serveCmd.MarkFlagRequired("config")
}

func runServe(cmd *cobra.Command, args []string) error {
	level := slog.LevelInfo
	if debug, _ := cmd.Flags().GetBool("debug"); debug {
		level = slog.LevelDebug
	}
	logger := newLogger(level)

	configFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(configFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger.Info("config loaded",
		"servers", len(cfg.Servers),
		"grids", len(cfg.Grids),
	)

	opts, err := config.BuildOptions(cfg)
	if err != nil {
		return fmt.Errorf("failed to build servers: %w", err)
	}
	opts = append(opts, boardclient.WithLogger(logger))

	bc, err := boardclient.New(opts...)
	if err != nil {
		return fmt.Errorf("failed to create board client: %w", err)
	}

	logger.Info("starting server",
		"port", bc.Port(),
		"retry_delay", cfg.RetryDelay.Duration().String(),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errChan := make(chan error, 1)
	go func() {
		errChan <- bc.Start(ctx)
	}()

	select {
	case err := <-errChan:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		logger.Info("shutdown complete")
		return nil

	case <-ctx.Done():
		select {
		case err := <-errChan:
			if err != nil {
				return fmt.Errorf("server error: %w", err)
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
