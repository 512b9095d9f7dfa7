package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jpalmerr/sensorboard"
	"github.com/lmittmann/tint"
)

func main() {
	logger := slog.New(tint.NewHandler(os.Stderr, nil))

	// grid API: 2 presses × 2 sides = 4 bearing sensors from one declaration
	bearings, err := sensorboard.NewSensorGrid("Bearing temperature",
		sensorboard.WithIDTemplate("bearing-{{.press}}-{{.side}}"),
		sensorboard.WithLocationTemplate("Press {{.press}}"),
		sensorboard.WithDimensions(map[string][]string{
			"press": {"A-14", "A-15"},
			"side":  {"drive", "idle"},
		}),
		sensorboard.WithGridBounds(55, 30, 80),
		sensorboard.WithGridUnit("°C"),
	)
	if err != nil {
		slog.Error("failed to create sensor grid", "error", err)
		os.Exit(1)
	}

	// plus one hand-declared sensor
	flow, err := sensorboard.NewSensor("flow", "Flow", 180, 120, 240,
		sensorboard.WithUnit("L/min"),
		sensorboard.WithLocation("Feed section"),
	)
	if err != nil {
		slog.Error("failed to create sensor", "error", err)
		os.Exit(1)
	}

	board, err := sensorboard.New(
		sensorboard.WithTitle("SensorBoard Demo"),
		sensorboard.WithSensors(bearings...),
		sensorboard.WithSensor(flow),
		sensorboard.WithTickInterval(2*time.Second),
		sensorboard.WithPort(8080),
		sensorboard.WithLogger(logger),
		sensorboard.WithSink(newAlertSink(os.Stdout)),
		sensorboard.WithTickCallback(func(tick sensorboard.TickResult) {
			if tick.Trigger == "manual" {
				logger.Info("manual step", "seq", tick.Seq, "steps", tick.Steps)
			}
		}),
	)
	if err != nil {
		slog.Error("failed to create sensorboard", "error", err)
		os.Exit(1)
	}
	defer board.Close()

	fmt.Println()
	fmt.Println("  ╔═══════════════════════════════════════════════════════╗")
	fmt.Println("  ║                                                       ║")
	fmt.Println("  ║   SensorBoard Demo                                    ║")
	fmt.Println("  ║                                                       ║")
	fmt.Println("  ║   Open http://localhost:8080 in your browser          ║")
	fmt.Println("  ║                                                       ║")
	fmt.Println("  ║   Sensors:                                            ║")
	fmt.Println("  ║   • 4 bearings (2 presses × 2 sides via Grid)         ║")
	fmt.Println("  ║   • 1 flow meter                                      ║")
	fmt.Println("  ║                                                       ║")
	fmt.Println("  ║   Press Ctrl+C to stop                                ║")
	fmt.Println("  ║                                                       ║")
	fmt.Println("  ╚═══════════════════════════════════════════════════════╝")
	fmt.Println()

	// set up context with signal handling for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := board.Start(ctx); err != nil {
		slog.Error("sensorboard error", "error", err)
		os.Exit(1)
	}
}
