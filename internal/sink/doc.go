// Package sink publishes simulation ticks to external telemetry systems.
//
// This package is internal to SensorBoard. Every tick is flattened into one
// [Message] per sensor and handed to each configured [Sink]:
//
//   - [MQTTSink]: one JSON message per sensor on <prefix>/<sensor-id>
//   - [KafkaSink]: one record per sensor keyed by sensor id
//   - [Multi]: fans a tick out to several sinks and joins their errors
//
// Users of the sensorboard library should not need to interact with this
// package directly. Configuration is done through the main sensorboard package.
package sink
