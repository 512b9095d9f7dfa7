package store

import (
	"errors"
	"fmt"
	"time"
)

// Status is the derived classification of a sensor's current value.
type Status string

const (
	StatusNormal  Status = "normal"
	StatusCaution Status = "caution"
	StatusLow     Status = "low"
	StatusHigh    Status = "high"
)

// cautionBand is the fraction of the nominal-to-bound distance that counts
// as near-threshold on either side.
const cautionBand = 0.1

// Sensor is a measurement source with calibration bounds and a current value.
//
// Identity and bounds never change after construction. CurrentValue is
// written only by [SignalStore.Advance] and seeding.
type Sensor struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Unit     string  `json:"unit"`
	Location string  `json:"location"`
	Nominal  float64 `json:"nominal"`
	Minimum  float64 `json:"minimum"`
	Maximum  float64 `json:"maximum"`

	CurrentValue float64 `json:"value"`
}

// Validate checks identity fields and the minimum < nominal < maximum invariant.
func (s Sensor) Validate() error {
	if s.ID == "" {
		return errors.New("sensor id cannot be empty")
	}
	if !(s.Minimum < s.Nominal && s.Nominal < s.Maximum) {
		return fmt.Errorf("sensor %q: bounds must satisfy minimum < nominal < maximum, got %g < %g < %g",
			s.ID, s.Minimum, s.Nominal, s.Maximum)
	}
	return nil
}

// Range returns maximum - minimum.
func (s Sensor) Range() float64 {
	return s.Maximum - s.Minimum
}

// Classify maps a value onto a [Status] using the sensor's thresholds.
//
// Hard bounds are checked before the caution band, so values outside
// [minimum, maximum] are always low or high.
func (s Sensor) Classify(value float64) Status {
	switch {
	case value < s.Minimum:
		return StatusLow
	case value > s.Maximum:
		return StatusHigh
	case value < s.Minimum+(s.Nominal-s.Minimum)*cautionBand:
		return StatusCaution
	case value > s.Maximum-(s.Maximum-s.Nominal)*cautionBand:
		return StatusCaution
	default:
		return StatusNormal
	}
}

// Status classifies the current value. It is recomputed on every call.
func (s Sensor) Status() Status {
	return s.Classify(s.CurrentValue)
}

// IsAlert reports whether the sensor is currently outside its hard bounds.
func (s Sensor) IsAlert() bool {
	st := s.Status()
	return st == StatusLow || st == StatusHigh
}

// Reading is a single timestamped value in a sensor's history.
type Reading struct {
	Timestamp time.Time `json:"timestamp"`
	Value     float64   `json:"value"`
}

// SensorState is the wire representation of a sensor at one instant,
// used by the REST API, SSE stream and telemetry sinks.
type SensorState struct {
	Sensor
	Status    Status    `json:"status"`
	UpdatedAt time.Time `json:"updated_at"`
}
