package main

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/jpalmerr/sensorboard"
	"github.com/jpalmerr/sensorboard/config"
	"github.com/spf13/cobra"
)

const (
	shutdownTimeout = 10 * time.Second
)

// serveCmd starts the SensorBoard dashboard server.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the dashboard server",
	Long: `Start the SensorBoard dashboard server.

The server will:
  - Load configuration from the specified YAML file, or run the reference
    plant catalog with defaults when no file is given
  - Connect the configured MQTT and Kafka sinks
  - Advance the simulation every tick interval
  - Serve the dashboard UI, REST API and /metrics on the configured port

The server runs until interrupted (Ctrl+C) or receives SIGTERM.

Example:
  sensorboard serve
  sensorboard serve -c config.yaml
  sensorboard serve --config /etc/sensorboard/config.yaml --log-level debug`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringP("config", "c", "", "path to config file (optional)")
}

func runServe(cmd *cobra.Command, args []string) error {
	logger, err := newLogger(cmd)
	if err != nil {
		return err
	}

	cfg, err := loadServeConfig(cmd)
	if err != nil {
		return err
	}

	sensors, err := config.BuildSensors(cfg)
	if err != nil {
		return fmt.Errorf("failed to build sensors: %w", err)
	}

	logger.Info("config loaded",
		"sensors", len(sensors),
		"grids", len(cfg.Grids),
		"mqtt", cfg.Sinks.MQTT != nil,
		"kafka", cfg.Sinks.Kafka != nil,
	)

	sinks, err := config.BuildSinks(cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to build sinks: %w", err)
	}

	opts := append(config.BoardOptions(cfg, sensors, sinks), sensorboard.WithLogger(logger))
	board, err := sensorboard.New(opts...)
	if err != nil {
		for _, s := range sinks {
			_ = s.Close()
		}
		return fmt.Errorf("failed to create SensorBoard: %w", err)
	}
	defer func() {
		if err := board.Close(); err != nil {
			logger.Warn("sink close failed", "error", err.Error())
		}
	}()

	// set up context with signal handling - cancel on SIGINT/SIGTERM
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return runUntilShutdown(ctx, board, logger)
}

// loadServeConfig loads the --config file, or returns defaults when none is given.
func loadServeConfig(cmd *cobra.Command) (*config.Config, error) {
	configFile, _ := cmd.Flags().GetString("config")
	if configFile == "" {
		return config.Parse(nil)
	}

	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

// runUntilShutdown starts the board and waits for it to stop, bounding the
// graceful shutdown once ctx is cancelled.
func runUntilShutdown(ctx context.Context, board *sensorboard.Board, logger *slog.Logger) error {
	errChan := make(chan error, 1)
	go func() {
		errChan <- board.Start(ctx)
	}()

	select {
	case err := <-errChan:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		logger.Info("shutdown complete")
		return nil

	case <-ctx.Done():
		// signal received, wait for graceful shutdown with timeout
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
