package sensorboard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jpalmerr/sensorboard/dashboard"
	"github.com/jpalmerr/sensorboard/internal/metrics"
	"github.com/jpalmerr/sensorboard/internal/server"
	"github.com/jpalmerr/sensorboard/internal/sink"
	"github.com/jpalmerr/sensorboard/internal/store"
	"github.com/jpalmerr/sensorboard/internal/ticker"
)

const (
	defaultTickInterval = ticker.DefaultInterval
	defaultStepSize     = 5
	defaultPort         = 8080
	maxStepSize         = store.HistorySize

	// sinkPublishTimeout bounds one tick's fan-out to all sinks.
	sinkPublishTimeout = 5 * time.Second
)

var (
	// ErrNotRunning is returned by [Board.Step] before [Board.Start].
	ErrNotRunning = ticker.ErrNotRunning

	// ErrStopped is returned by [Board.Step] after Start has returned.
	ErrStopped = ticker.ErrStopped
)

// Board is the main orchestrator for the sensor simulation and dashboard.
//
// Board owns the sensor catalog and its rolling histories, advances the
// simulation on a fixed interval, publishes every tick to the configured
// sinks and callbacks, and serves a real-time dashboard via HTTP. It is
// created using [New] with functional options and started with [Board.Start].
//
// The read API ([Board.Sensors], [Board.History], [Board.Alerts] and friends)
// works as soon as New returns; the histories are seeded with a full window
// of readings at construction.
//
// The typical lifecycle is:
//
//	board, err := sensorboard.New(sensorboard.WithSensors(sensors...))
//	if err != nil {
//	    slog.Error("failed to create sensorboard", "error", err)
//	    os.Exit(1)
//	}
//	defer board.Close()
//
//	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
//	defer cancel()
//
//	board.Start(ctx) // blocks until context cancelled
type Board struct {
	id            string
	title         string
	sensors       []Sensor
	tickInterval  time.Duration
	stepSize      int
	port          int
	logger        *slog.Logger
	tickCallbacks []func(TickResult)
	sinks         sink.Multi

	hub *store.Hub

	mu        sync.Mutex
	running   bool
	scheduler *ticker.Scheduler
}

// New creates a new [Board] instance with the given options.
//
// If no sensors are configured the board runs [DefaultSensors]. Other
// options have sensible defaults:
//   - Tick interval: 4 seconds
//   - Step size: 5 readings
//   - Port: 8080
//
// Returns an error if two sensors share an id, two sinks share a name, or any
// option is invalid.
//
// Example:
//
//	board, err := sensorboard.New(
//	    sensorboard.WithSensor(temp),
//	    sensorboard.WithTickInterval(2 * time.Second),
//	    sensorboard.WithPort(9090),
//	)
func New(opts ...Option) (*Board, error) {
	cfg := &boardConfig{
		tickInterval: defaultTickInterval,
		stepSize:     defaultStepSize,
		port:         defaultPort,
	}

	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}

	sensors := cfg.sensors
	if len(sensors) == 0 {
		sensors = DefaultSensors()
	}

	seen := make(map[string]bool, len(sensors))
	for _, s := range sensors {
		if seen[s.id] {
			return nil, fmt.Errorf("duplicate sensor id: %q", s.id)
		}
		seen[s.id] = true
	}

	sinkNames := make(map[string]bool, len(cfg.sinks))
	for _, s := range cfg.sinks {
		if sinkNames[s.Name()] {
			return nil, fmt.Errorf("duplicate sink name: %q", s.Name())
		}
		sinkNames[s.Name()] = true
	}

	catalog := make([]store.Sensor, len(sensors))
	for i, s := range sensors {
		catalog[i] = s.toStore()
	}

	var storeOpts []store.Option
	if cfg.seed != nil {
		storeOpts = append(storeOpts, store.WithSeed(*cfg.seed))
	}
	signals, err := store.New(catalog, storeOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to build sensor store: %w", err)
	}

	logger := cfg.logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Board{
		id:            uuid.NewString(),
		title:         cfg.title,
		sensors:       append([]Sensor(nil), sensors...),
		tickInterval:  cfg.tickInterval,
		stepSize:      cfg.stepSize,
		port:          cfg.port,
		logger:        logger,
		tickCallbacks: cfg.tickCallbacks,
		sinks:         toInternalSinks(cfg.sinks),
		hub:           store.NewHub(signals),
	}, nil
}

// Start begins advancing the simulation and serving the dashboard.
//
// Start is a blocking call that runs until the provided context is cancelled.
// During execution:
//
//   - The simulation advances one reading every tick interval
//   - Manual steps from [Board.Step] or POST /api/step run on the same loop
//   - Each tick is recorded in Prometheus metrics, published to every sink,
//     and passed to every tick callback
//   - The dashboard is available at http://localhost:<port>
//
// Start may be called again after it returns; the simulation resumes from
// where it stopped. Calling Start while it is already running returns an error.
//
// Returns nil on graceful shutdown. Returns an error if the HTTP server fails to start.
func (b *Board) Start(ctx context.Context) error {
	b.logger.Info("sensorboard starting", "board_id", b.id, "sensor_count", len(b.sensors))
	b.logger.Info("simulation configured", "tick_interval", b.tickInterval.String(), "step_size", b.stepSize)
	b.logger.Info("dashboard available", "url", fmt.Sprintf("http://localhost:%d", b.port))

	// check if context already cancelled
	if ctx.Err() != nil {
		return nil
	}

	scheduler := ticker.NewScheduler(b.hub, b.tickInterval, b.logger)

	b.mu.Lock()
	if b.running {
		b.mu.Unlock()
		return errors.New("board is already running")
	}
	b.running = true
	b.scheduler = scheduler
	b.mu.Unlock()

	defer func() {
		b.mu.Lock()
		b.running = false
		b.mu.Unlock()
	}()

	m := metrics.New()
	m.SetStates(b.hub.States())

	scheduler.Start(ctx)

	// track the results consumer goroutine to ensure clean shutdown
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		b.consume(scheduler.Results(), m)
	}()

	// cleanup function ensures scheduler is stopped and all results are processed
	cleanup := func() {
		scheduler.Stop() // closes results channel
		wg.Wait()
	}

	httpServer := server.NewServer(b.hub, b.port, dashboard.Assets, b.title, b.logger,
		server.WithStep(func(ctx context.Context) (store.Tick, error) {
			return scheduler.Step(ctx, b.stepSize)
		}),
		server.WithMetrics(m),
	)
	if err := httpServer.Start(ctx); err != nil {
		cleanup()
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}

	<-ctx.Done()
	cleanup()
	b.logger.Info("sensorboard stopped", "board_id", b.id)
	return nil
}

// consume handles every scheduler result until the channel closes.
func (b *Board) consume(results <-chan ticker.Result, m *metrics.Metrics) {
	previous := make(map[string]store.Status, len(b.sensors))
	for _, st := range b.hub.States() {
		previous[st.ID] = st.Status
	}

	for result := range results {
		m.ObserveTick(string(result.Trigger), result.Tick.Steps, result.Duration, result.Tick.States)

		if len(b.sinks) > 0 {
			b.publish(result.Tick, m)
		}

		if len(b.tickCallbacks) > 0 {
			publicResult := tickFromStore(result.Tick, string(result.Trigger), result.Duration)
			for _, cb := range b.tickCallbacks {
				invokeCallbackSafe(cb, publicResult, b.logger)
			}
		}

		b.logTransitions(result.Tick.States, previous)

		b.logger.Debug("tick completed",
			"seq", result.Tick.Seq,
			"trigger", result.Trigger,
			"steps", result.Tick.Steps,
			"duration_ms", result.Duration.Milliseconds(),
		)
	}
}

// publish fans a tick out to every sink and records failures.
func (b *Board) publish(tick store.Tick, m *metrics.Metrics) {
	ctx, cancel := context.WithTimeout(context.Background(), sinkPublishTimeout)
	defer cancel()

	err := b.sinks.Publish(ctx, tick)
	if err == nil {
		return
	}
	for _, name := range sink.FailedSinks(err) {
		m.SinkError(name)
	}
	b.logger.Warn("sink publish failed", "seq", tick.Seq, "error", err.Error())
}

// logTransitions logs sensors entering or leaving an alert status and
// updates previous in place.
func (b *Board) logTransitions(states []store.SensorState, previous map[string]store.Status) {
	for _, st := range states {
		was := previous[st.ID]
		previous[st.ID] = st.Status

		wasAlert := was == store.StatusLow || was == store.StatusHigh
		isAlert := st.IsAlert()
		switch {
		case isAlert && !wasAlert:
			b.logger.Warn("sensor out of range",
				"sensor", st.ID,
				"status", st.Status,
				"value", st.CurrentValue,
				"minimum", st.Minimum,
				"maximum", st.Maximum,
			)
		case !isAlert && wasAlert:
			b.logger.Info("sensor back in range",
				"sensor", st.ID,
				"status", st.Status,
				"value", st.CurrentValue,
			)
		}
	}
}

// Step advances the simulation by the configured step size and returns the
// resulting tick.
//
// The burst runs on the board's simulation loop, so it never interleaves
// with a timer tick. Step blocks until the burst completes or ctx is done.
//
// Returns [ErrNotRunning] before [Board.Start] and [ErrStopped] once Start
// has returned.
func (b *Board) Step(ctx context.Context) (TickResult, error) {
	b.mu.Lock()
	scheduler := b.scheduler
	b.mu.Unlock()

	if scheduler == nil {
		return TickResult{}, ErrNotRunning
	}

	start := time.Now()
	tick, err := scheduler.Step(ctx, b.stepSize)
	if err != nil {
		return TickResult{}, err
	}
	return tickFromStore(tick, string(ticker.TriggerManual), time.Since(start)), nil
}

// Close releases every sink registered with [WithSink].
//
// Call Close once the board will not be started again. Errors from
// individual sinks are joined.
func (b *Board) Close() error {
	return b.sinks.Close()
}

// Sensors returns a copy of the configured catalog, in catalog order.
//
// Each [Sensor] in the slice is immutable.
func (b *Board) Sensors() []Sensor {
	cp := make([]Sensor, len(b.sensors))
	copy(cp, b.sensors)
	return cp
}

// Snapshot returns the current value and status of every sensor, in catalog order.
func (b *Board) Snapshot() []SensorSnapshot {
	return snapshotsFromStore(b.hub.States())
}

// History returns the full rolling window of readings for id, oldest first.
//
// An unknown id yields an empty slice, never an error.
func (b *Board) History(id string) []Reading {
	return readingsFromStore(b.hub.History(id))
}

// RecentHistory returns the newest n readings for id, oldest first.
//
// An unknown id or n below 1 yields an empty slice; n above the window size
// yields the full window.
func (b *Board) RecentHistory(id string, n int) []Reading {
	return readingsFromStore(b.hub.RecentHistory(id, n))
}

// Alerts returns the sensors currently low or high, in catalog order.
func (b *Board) Alerts() []SensorSnapshot {
	var out []SensorSnapshot
	for _, s := range b.Snapshot() {
		if s.Status.IsAlert() {
			out = append(out, s)
		}
	}
	return out
}

// Summary returns the status counts and current state of every sensor.
func (b *Board) Summary() Summary {
	return summaryFromStore(b.hub.Summary())
}

// ID returns the board's instance id, attached to its lifecycle log lines.
func (b *Board) ID() string {
	return b.id
}

// Port returns the configured HTTP port for the dashboard server.
func (b *Board) Port() int {
	return b.port
}

// TickInterval returns the configured interval between timer ticks.
func (b *Board) TickInterval() time.Duration {
	return b.tickInterval
}

// StepSize returns the number of readings a manual step advances.
func (b *Board) StepSize() int {
	return b.stepSize
}

// invokeCallbackSafe calls a tick callback with panic recovery.
// Panics are logged with a correlation id and stack trace but do not propagate.
func invokeCallbackSafe(cb func(TickResult), result TickResult, logger *slog.Logger) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("tick callback panicked",
				"correlation_id", uuid.NewString(),
				"panic", r,
				"seq", result.Seq,
				"trigger", result.Trigger,
				"stack", string(debug.Stack()),
			)
		}
	}()
	cb(result)
}
