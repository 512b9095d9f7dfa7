// Package main is the entry point for the sensorboard CLI.
//
// SensorBoard can be run either as a library (SDK) or as a standalone binary
// with YAML configuration. This CLI provides the standalone binary approach.
//
// Usage:
//
//	sensorboard serve [-c config.yaml]        # Start the dashboard
//	sensorboard validate -c config.yaml       # Validate configuration
//	sensorboard snapshot --url http://host:80 # Print a running board's state
//	sensorboard version                       # Show version info
package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/lmittmann/tint"
	"github.com/spf13/cobra"
)

// Version information - set by GoReleaser at build time via ldflags.
// Example: go build -ldflags "-X main.version=1.0.0"
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// rootCmd is the base command when called without subcommands.
var rootCmd = &cobra.Command{
	Use:   "sensorboard",
	Short: "A simulated industrial sensor dashboard",
	Long: `SensorBoard simulates industrial sensors and serves a live dashboard.

Each sensor follows a damped random walk around its nominal value, keeps a
four-hour rolling history, and raises an alert when it leaves its
calibration range. Readings stream to the browser via Server-Sent Events
and can be published to MQTT or Kafka.

Quick start:
  1. Run: sensorboard serve
  2. Open http://localhost:8080 in your browser

With a config file:
  sensorboard serve -c sensorboard.yaml

Example config:
  port: 8080
  tick_interval: 4s
  sensors:
    - id: flow
      name: Flow
      unit: L/min
      nominal: 180
      minimum: 120
      maximum: 240`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		// Cobra already prints the error, just exit with code 1
		os.Exit(1)
	}
}

func main() {
	Execute()
}

// versionCmd prints version information.
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  `Print the version, commit hash, and build date of this sensorboard binary.`,
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "sensorboard %s\n", version)
		fmt.Fprintf(out, "  commit: %s\n", commit)
		fmt.Fprintf(out, "  built:  %s\n", date)
	},
}

func init() {
	rootCmd.PersistentFlags().String("log-level", "info", "log level: debug, info, warn or error")
	rootCmd.PersistentFlags().String("log-format", "json", "log format: json or text")
	rootCmd.AddCommand(versionCmd)
}

// newLogger creates a logger on stderr at the level named by --log-level.
// --log-format text selects a colourised handler for interactive use.
func newLogger(cmd *cobra.Command) (*slog.Logger, error) {
	name, _ := cmd.Flags().GetString("log-level")
	format, _ := cmd.Flags().GetString("log-format")

	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToLower(name))); err != nil {
		return nil, fmt.Errorf("invalid --log-level %q: must be debug, info, warn or error", name)
	}

	switch format {
	case "json":
		return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
			Level: level,
		})), nil
	case "text":
		return slog.New(tint.NewHandler(os.Stderr, &tint.Options{
			Level:      level,
			TimeFormat: time.Kitchen,
		})), nil
	default:
		return nil, fmt.Errorf("invalid --log-format %q: must be json or text", format)
	}
}
