package sensorboard

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/jpalmerr/sensorboard/internal/store"
)

// invalidIDChars cannot appear in ids: ids are used as URL path segments and
// as the last MQTT topic level.
const invalidIDChars = "/#+ \t\r\n"

// Sensor describes a simulated measurement source.
//
// Sensor is immutable after creation via [NewSensor]. All fields are private
// with getter methods, ensuring the sensor cannot be modified after
// construction. The simulated value lives in the running [Board], not here.
//
// Sensors are configured using the functional options pattern with
// [SensorOption] functions such as [WithUnit] and [WithLocation].
type Sensor struct {
	id       string
	name     string
	unit     string
	location string
	nominal  float64
	minimum  float64
	maximum  float64
}

// ID returns the sensor's unique identifier, used in API paths and topics.
func (s Sensor) ID() string {
	return s.id
}

// Name returns the sensor's display name.
func (s Sensor) Name() string {
	return s.name
}

// Unit returns the measurement unit label, e.g. "°C". May be empty.
func (s Sensor) Unit() string {
	return s.unit
}

// Location returns where the sensor is installed. May be empty.
func (s Sensor) Location() string {
	return s.location
}

// Nominal returns the expected steady-state value the walk reverts toward.
func (s Sensor) Nominal() float64 {
	return s.nominal
}

// Minimum returns the lower alert threshold.
func (s Sensor) Minimum() float64 {
	return s.minimum
}

// Maximum returns the upper alert threshold.
func (s Sensor) Maximum() float64 {
	return s.maximum
}

// Classify maps value onto a [Status] using this sensor's thresholds.
func (s Sensor) Classify(value float64) Status {
	return Status(s.toStore().Classify(value))
}

// NewSensor creates a [Sensor] with the given identity and calibration.
//
// The id must be non-empty and unique within a board; it appears in API
// paths, MQTT topics and Kafka keys. The name is the display label.
// Bounds must be finite and satisfy minimum < nominal < maximum.
//
// Example:
//
//	temp, err := sensorboard.NewSensor("temp-line", "Line temperature", 62, 40, 85,
//	    sensorboard.WithUnit("°C"),
//	    sensorboard.WithLocation("Shop 1"),
//	)
func NewSensor(id, name string, nominal, minimum, maximum float64, opts ...SensorOption) (Sensor, error) {
	if id == "" {
		return Sensor{}, errors.New("sensor id cannot be empty")
	}
	if strings.ContainsAny(id, invalidIDChars) {
		return Sensor{}, fmt.Errorf("sensor id %q must not contain '/', '#', '+' or whitespace", id)
	}
	if name == "" {
		return Sensor{}, errors.New("sensor name cannot be empty")
	}
	for _, v := range []float64{nominal, minimum, maximum} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return Sensor{}, fmt.Errorf("sensor %q: bounds must be finite", id)
		}
	}
	if !(minimum < nominal && nominal < maximum) {
		return Sensor{}, fmt.Errorf("sensor %q: bounds must satisfy minimum < nominal < maximum, got %g < %g < %g",
			id, minimum, nominal, maximum)
	}

	cfg := &sensorConfig{}
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return Sensor{}, fmt.Errorf("sensor %q: %w", id, err)
		}
	}

	return Sensor{
		id:       id,
		name:     name,
		unit:     cfg.unit,
		location: cfg.location,
		nominal:  nominal,
		minimum:  minimum,
		maximum:  maximum,
	}, nil
}

// DefaultSensors returns the reference plant catalog: line temperature,
// humidity, cooling-loop pressure, press vibration and feed flow.
func DefaultSensors() []Sensor {
	catalog := store.DefaultCatalog()
	out := make([]Sensor, len(catalog))
	for i, s := range catalog {
		out[i] = sensorFromStore(s)
	}
	return out
}

func (s Sensor) toStore() store.Sensor {
	return store.Sensor{
		ID:       s.id,
		Name:     s.name,
		Unit:     s.unit,
		Location: s.location,
		Nominal:  s.nominal,
		Minimum:  s.minimum,
		Maximum:  s.maximum,
	}
}

func sensorFromStore(s store.Sensor) Sensor {
	return Sensor{
		id:       s.ID,
		name:     s.Name,
		unit:     s.Unit,
		location: s.Location,
		nominal:  s.Nominal,
		minimum:  s.Minimum,
		maximum:  s.Maximum,
	}
}
