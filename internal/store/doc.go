// Package store provides the simulation core and its concurrent wrapper.
//
// This package is internal to SensorBoard. It owns the sensor catalog, the
// rolling per-sensor history and the damped random walk that drives it.
//
// The main components are:
//
//   - [SignalStore]: single-threaded owner of sensors and histories
//   - [History]: fixed-capacity FIFO of [Reading] values
//   - [Hub]: mutex-guarded SignalStore with pub/sub fan-out of [Tick] values
//   - [Perturb] and [Sensor.Classify]: the signal and threshold functions
//
// SignalStore performs no locking. Hosts that touch it from more than one
// goroutine go through [Hub], which serializes every call. Subscribers receive
// ticks via channels with non-blocking sends (slow subscribers miss ticks
// rather than stall the simulation).
package store
