package main

import (
	"fmt"

	"github.com/jpalmerr/sensorboard/config"
	"github.com/spf13/cobra"
)

// validateCmd validates a config file without starting the server.
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a config file",
	Long: `Validate a SensorBoard configuration file without starting the server.

This command parses the YAML, expands environment variables, validates all
fields and expands every grid, so duplicate generated ids are reported too.
It does not connect to any sink. It's useful for CI/CD pipelines or
pre-deployment checks.

Exit codes:
  0 - Config is valid
  1 - Config is invalid (error details printed to stderr)

Example:
  sensorboard validate -c config.yaml
  sensorboard validate --config /etc/sensorboard/config.yaml`,
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().StringP("config", "c", "", "path to config file (required)")
	_ = validateCmd.MarkFlagRequired("config")
}

func runValidate(cmd *cobra.Command, args []string) error {
	configFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(configFile)
	if err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	sensors, err := config.BuildSensors(cfg)
	if err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	seen := make(map[string]bool, len(sensors))
	for _, s := range sensors {
		if seen[s.ID()] {
			return fmt.Errorf("invalid config: duplicate sensor id %q", s.ID())
		}
		seen[s.ID()] = true
	}

	direct := len(cfg.Sensors)
	fromGrids := len(sensors) - direct

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Config is valid!\n")
	fmt.Fprintf(out, "  Port:          %d\n", cfg.Port)
	fmt.Fprintf(out, "  Tick interval: %s\n", cfg.TickInterval.Duration())
	fmt.Fprintf(out, "  Step size:     %d\n", cfg.StepSize)
	if len(sensors) == 0 {
		fmt.Fprintf(out, "  Sensors:       reference catalog\n")
	} else {
		fmt.Fprintf(out, "  Sensors:       %d direct + %d from grids = %d total\n",
			direct, fromGrids, len(sensors))
	}
	fmt.Fprintf(out, "  Sinks:         %s\n", sinkSummary(cfg))

	return nil
}

// sinkSummary lists the configured sink kinds.
func sinkSummary(cfg *config.Config) string {
	switch {
	case cfg.Sinks.MQTT != nil && cfg.Sinks.Kafka != nil:
		return "mqtt, kafka"
	case cfg.Sinks.MQTT != nil:
		return "mqtt"
	case cfg.Sinks.Kafka != nil:
		return "kafka"
	default:
		return "none"
	}
}
