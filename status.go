package sensorboard

import "time"

// Status is the classification of a sensor's current value.
//
// Status is a string type holding one of five predefined values:
// [StatusNormal], [StatusCaution], [StatusLow], [StatusHigh], or
// [StatusUnknown]. Using a string type allows for easy JSON serialization
// and human-readable logging while maintaining type safety through the
// defined constants.
type Status string

const (
	// StatusNormal indicates the value is comfortably inside the calibration range.
	StatusNormal Status = "normal"

	// StatusCaution indicates the value is within 10% of the nominal-to-bound
	// distance from the minimum or maximum.
	StatusCaution Status = "caution"

	// StatusLow indicates the value is below the sensor's minimum.
	StatusLow Status = "low"

	// StatusHigh indicates the value is above the sensor's maximum.
	StatusHigh Status = "high"

	// StatusUnknown is used for sensors that have not reported a value.
	StatusUnknown Status = "unknown"
)

// String returns the string representation of the status.
// This implements the fmt.Stringer interface.
func (s Status) String() string {
	return string(s)
}

// IsAlert reports whether the status is out of range (low or high).
func (s Status) IsAlert() bool {
	return s == StatusLow || s == StatusHigh
}

// Colour returns the dashboard colour for the status as a hex string.
func (s Status) Colour() string {
	switch s {
	case StatusNormal:
		return "#1b8733"
	case StatusCaution:
		return "#e5a200"
	case StatusLow:
		return "#006dd6"
	case StatusHigh:
		return "#c23030"
	default:
		return "#5a5a5a"
	}
}

// Reading is one timestamped value from a sensor's history.
type Reading struct {
	Timestamp time.Time
	Value     float64
}

// SensorSnapshot is a sensor's metadata and classified value at one instant.
//
// SensorSnapshot is a value copy; modifying it does not affect the board.
type SensorSnapshot struct {
	ID       string
	Name     string
	Unit     string
	Location string
	Nominal  float64
	Minimum  float64
	Maximum  float64

	// Value is the current simulated value, rounded to two decimals.
	Value float64

	// Status is the classification of Value.
	Status Status

	// UpdatedAt is the timestamp of the newest reading.
	UpdatedAt time.Time
}

// TickResult describes the catalog after a timer tick or a manual step.
type TickResult struct {
	// Seq counts completed advances since the board started.
	Seq uint64

	// Steps is the number of advances in this tick: 1 for timer ticks,
	// the configured step size for manual steps.
	Steps int

	// Trigger is "timer" or "manual".
	Trigger string

	// At is when the tick completed.
	At time.Time

	// Duration is the time spent advancing the simulation.
	Duration time.Duration

	// Sensors holds every sensor after the tick, in catalog order.
	Sensors []SensorSnapshot
}

// Alerts returns the sensors in the tick that are low or high.
func (t TickResult) Alerts() []SensorSnapshot {
	var out []SensorSnapshot
	for _, s := range t.Sensors {
		if s.Status.IsAlert() {
			out = append(out, s)
		}
	}
	return out
}

// Summary aggregates the status of the whole catalog.
type Summary struct {
	Total   int
	Counts  map[Status]int
	Alerts  int
	Sensors []SensorSnapshot
}
