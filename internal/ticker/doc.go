// Package ticker drives the simulation clock for SensorBoard.
//
// This package is internal to SensorBoard. A [Scheduler] owns the single
// goroutine that advances the simulation: it fires on a fixed interval and
// also serves manual burst requests on that same goroutine, so timer ticks
// and steps never interleave. Each completed advance is emitted as a
// [Result] on a channel that the caller drains.
//
// Users of the sensorboard library should not need to interact with this
// package directly. Configuration is done through the main sensorboard package.
package ticker
