// Package server provides the HTTP server for the SensorBoard dashboard and API.
//
// This package is internal to SensorBoard and handles all HTTP concerns:
//
//   - Dashboard serving: Serves the embedded HTML/CSS/JS dashboard at "/"
//   - REST API: sensors, per-sensor detail and history, alerts, summary
//   - Manual stepping: POST "/api/step" advances the simulation in a burst
//   - Server-Sent Events: one event per tick at "/api/sse"
//   - Operations: Prometheus metrics at "/metrics" and a liveness probe at "/healthz"
//
// Routing uses gorilla/mux; panics are recovered and CORS is handled by
// gorilla/handlers. The server supports graceful shutdown via context
// cancellation, with a 5-second timeout for in-flight requests.
//
// Users of the sensorboard library should not need to interact with this
// package directly. The server is started automatically by [sensorboard.Board.Start].
package server
