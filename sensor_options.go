package sensorboard

import (
	"errors"
	"strings"
)

// sensorConfig holds mutable state during sensor construction.
type sensorConfig struct {
	unit     string
	location string
}

// SensorOption is a function that configures a [Sensor] during construction.
//
// Options return an error if validation fails.
type SensorOption func(*sensorConfig) error

// WithUnit sets the measurement unit label shown next to values, e.g. "kPa".
func WithUnit(unit string) SensorOption {
	return func(cfg *sensorConfig) error {
		cfg.unit = strings.TrimSpace(unit)
		return nil
	}
}

// WithLocation sets where the sensor is installed, e.g. "Cooling loop".
//
// Returns an error if the location is blank.
func WithLocation(location string) SensorOption {
	return func(cfg *sensorConfig) error {
		location = strings.TrimSpace(location)
		if location == "" {
			return errors.New("location cannot be blank")
		}
		cfg.location = location
		return nil
	}
}
