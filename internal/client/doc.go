// Package client fetches state from a running SensorBoard over HTTP.
//
// This package is internal to SensorBoard and backs the snapshot command.
// It wraps a pooled [net/http] client with per-request timeouts and a 1MB
// response body limit, and decodes the board's JSON API into store types.
package client
