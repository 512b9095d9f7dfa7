package sensorboard

import (
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// boardConfig holds mutable state during Board construction.
type boardConfig struct {
	title         string
	sensors       []Sensor
	tickInterval  time.Duration
	stepSize      int
	port          int
	seed          *uint64
	logger        *slog.Logger
	tickCallbacks []func(TickResult)
	sinks         []Sink
}

// Option is a function that configures a [Board] instance during construction.
//
// Option implements the functional options pattern, allowing optional
// configuration to be passed to [New] in a type-safe, extensible way.
// Options return an error if validation fails.
//
// Built-in options: [WithSensor], [WithSensors], [WithTickInterval],
// [WithStepSize], [WithPort], [WithTitle], [WithSeed], [WithLogger],
// [WithTickCallback], [WithSink].
type Option func(*boardConfig) error

// WithSensor adds a single [Sensor] to the catalog.
//
// Can be called multiple times. Catalog order is the order sensors are
// added and is preserved in every listing. If no sensors are configured,
// the board runs [DefaultSensors].
//
// Example:
//
//	board, err := sensorboard.New(
//	    sensorboard.WithSensor(temp),
//	    sensorboard.WithSensor(flow),
//	)
func WithSensor(s Sensor) Option {
	return func(cfg *boardConfig) error {
		cfg.sensors = append(cfg.sensors, s)
		return nil
	}
}

// WithSensors adds multiple [Sensor] values to the catalog.
//
// Equivalent to calling [WithSensor] for each one. Combines naturally with
// [NewSensorGrid]:
//
//	flows, err := sensorboard.NewSensorGrid("Flow", ...)
//	board, err := sensorboard.New(sensorboard.WithSensors(flows...))
func WithSensors(sensors ...Sensor) Option {
	return func(cfg *boardConfig) error {
		cfg.sensors = append(cfg.sensors, sensors...)
		return nil
	}
}

// WithTickInterval sets how often the simulation advances by one reading.
//
// Defaults to 4 seconds if not specified.
//
// Returns an error if the duration is zero or negative.
func WithTickInterval(d time.Duration) Option {
	return func(cfg *boardConfig) error {
		if d <= 0 {
			return errors.New("tick interval must be positive")
		}
		cfg.tickInterval = d
		return nil
	}
}

// WithStepSize sets how many readings a manual step advances.
//
// Defaults to 5. Returns an error if n is outside 1..240, the history size.
func WithStepSize(n int) Option {
	return func(cfg *boardConfig) error {
		if n < 1 || n > maxStepSize {
			return fmt.Errorf("step size must be between 1 and %d, got %d", maxStepSize, n)
		}
		cfg.stepSize = n
		return nil
	}
}

// WithPort sets the HTTP port for the dashboard server.
//
// The dashboard UI and API will be available at http://localhost:<port>.
// Defaults to 8080 if not specified.
//
// Returns an error if the port is outside the valid range (1-65535).
func WithPort(port int) Option {
	return func(cfg *boardConfig) error {
		if port < 1 || port > 65535 {
			return errors.New("port must be between 1 and 65535")
		}
		cfg.port = port
		return nil
	}
}

// WithTitle sets the dashboard title displayed in the browser tab and header.
//
// If not specified, defaults to "SensorBoard".
func WithTitle(title string) Option {
	return func(cfg *boardConfig) error {
		cfg.title = title
		return nil
	}
}

// WithSeed makes the simulation reproducible: two boards with the same
// catalog and seed produce the same readings for the same sequence of
// advances. Without a seed the walk is randomly seeded.
func WithSeed(seed uint64) Option {
	return func(cfg *boardConfig) error {
		cfg.seed = &seed
		return nil
	}
}

// WithLogger sets a custom [slog.Logger] for the Board instance.
//
// If not specified, [slog.Default] is used.
//
// Returns an error if the logger is nil.
func WithLogger(logger *slog.Logger) Option {
	return func(cfg *boardConfig) error {
		if logger == nil {
			return errors.New("logger cannot be nil")
		}
		cfg.logger = logger
		return nil
	}
}

// WithTickCallback registers a function to be called after every tick.
//
// The callback receives a [TickResult] holding every sensor after the
// advance. Timer ticks carry Trigger "timer"; manual steps carry "manual".
//
// Multiple callbacks may be registered; they execute in registration order.
//
// IMPORTANT: Callbacks must be non-blocking. They are invoked synchronously
// from a single goroutine, and a blocking callback delays processing of
// subsequent ticks. Panics within callbacks are recovered and logged with a
// correlation id; they do not stop the board.
//
// Example:
//
//	board, err := sensorboard.New(
//	    sensorboard.WithTickCallback(func(tick sensorboard.TickResult) {
//	        for _, s := range tick.Alerts() {
//	            log.Printf("ALERT: %s is %s at %.2f", s.Name, s.Status, s.Value)
//	        }
//	    }),
//	)
//
// Nil callbacks are silently ignored.
func WithTickCallback(cb func(TickResult)) Option {
	return func(cfg *boardConfig) error {
		if cb == nil {
			return nil
		}
		cfg.tickCallbacks = append(cfg.tickCallbacks, cb)
		return nil
	}
}

// WithSink registers a telemetry [Sink] that receives every tick.
//
// Built-in sinks are created with [NewMQTTSink] and [NewKafkaSink]; any
// type implementing [Sink] works. Sink names must be unique within a board.
//
// Returns an error if the sink is nil.
func WithSink(s Sink) Option {
	return func(cfg *boardConfig) error {
		if s == nil {
			return errors.New("sink cannot be nil")
		}
		cfg.sinks = append(cfg.sinks, s)
		return nil
	}
}
