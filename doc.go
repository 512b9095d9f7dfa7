// Package sensorboard provides an embeddable dashboard of simulated
// industrial sensors with rolling histories and out-of-range alerts.
//
// SensorBoard is designed as an SDK-first library. Each sensor follows a
// damped random walk around its nominal value, keeps the last 240 readings
// (four hours at one-minute sampling), and is classified as normal, caution,
// low or high against its calibration bounds. Types are immutable and
// configuration is composed via the functional options pattern.
//
// # Quick Start
//
// Start the reference plant catalog with graceful shutdown:
//
//	board, _ := sensorboard.New()
//	defer board.Close()
//
//	// Set up graceful shutdown on SIGINT/SIGTERM
//	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
//	defer stop()
//
//	board.Start(ctx) // blocks until context is cancelled
//
// # Configuration
//
// Sensors and the board are configured with options:
//
//	temp, err := sensorboard.NewSensor("temp-line", "Line temperature", 62, 40, 85,
//	    sensorboard.WithUnit("°C"),
//	    sensorboard.WithLocation("Shop 1"),
//	)
//
//	board, err := sensorboard.New(
//	    sensorboard.WithSensor(temp),
//	    sensorboard.WithTickInterval(2 * time.Second),
//	    sensorboard.WithStepSize(10),
//	    sensorboard.WithPort(9090),
//	)
//
// Families of similar sensors can be generated with [NewSensorGrid].
//
// # Telemetry
//
// Every tick can be forwarded to external systems. [NewMQTTSink] publishes
// one JSON message per sensor on <prefix>/<sensor-id>; [NewKafkaSink] writes
// one record per sensor keyed by sensor id. Register sinks with [WithSink],
// or observe ticks in-process with [WithTickCallback].
//
// # Architecture
//
// SensorBoard consists of several internal packages (under internal/):
//
//   - internal/store: Sensor catalog, history ring buffers and the random walk
//   - internal/ticker: The single simulation loop serving timer ticks and manual steps
//   - internal/server: HTTP server with REST API and Server-Sent Events
//   - internal/metrics: Prometheus gauges and counters served on /metrics
//   - internal/sink: MQTT and Kafka telemetry publishers
//   - internal/client: HTTP client used by the snapshot command
//   - dashboard: Embedded web UI assets
//
// The internal packages are not part of the public API and may change
// without notice.
package sensorboard
