package sensorboard

import (
	"errors"
	"fmt"
	"strings"
)

// gridConfig holds configuration during sensor grid construction.
type gridConfig struct {
	idTemplate       string
	locationTemplate string
	dimensions       map[string][]string
	unit             string
	nominal          float64
	minimum          float64
	maximum          float64
	boundsSet        bool
}

// GridOption configures sensor grid generation.
// GridOption implements the functional options pattern for [NewSensorGrid].
type GridOption func(*gridConfig) error

// WithIDTemplate sets the template for generated sensor ids.
// The template uses Go's text/template syntax with dimension keys as variables.
//
// Example:
//
//	WithIDTemplate("flow-{{.line}}")
//
// Returns an error if the template string is empty.
func WithIDTemplate(tmpl string) GridOption {
	return func(cfg *gridConfig) error {
		if strings.TrimSpace(tmpl) == "" {
			return errors.New("id template required")
		}
		cfg.idTemplate = tmpl
		return nil
	}
}

// WithLocationTemplate sets the template for generated sensor locations.
//
// Returns an error if the template string is empty.
func WithLocationTemplate(tmpl string) GridOption {
	return func(cfg *gridConfig) error {
		if strings.TrimSpace(tmpl) == "" {
			return errors.New("location template cannot be empty")
		}
		cfg.locationTemplate = tmpl
		return nil
	}
}

// WithDimensions sets the dimension values for cartesian product expansion.
// Each key in the map becomes a template variable, and the cartesian product
// of all values generates the sensor combinations.
//
// Example:
//
//	WithDimensions(map[string][]string{
//	    "line": {"1", "2", "3"},
//	})
//
// Returns an error if the map is empty, any dimension has no values,
// or any value is an empty string.
func WithDimensions(dims map[string][]string) GridOption {
	return func(cfg *gridConfig) error {
		if len(dims) == 0 {
			return errors.New("at least one dimension required")
		}
		for k, vals := range dims {
			if len(vals) == 0 {
				return fmt.Errorf("dimension '%s' has no values", k)
			}
			for i, v := range vals {
				if v == "" {
					return fmt.Errorf("dimension '%s' contains empty value at index %d", k, i)
				}
			}
		}
		cfg.dimensions = dims
		return nil
	}
}

// WithGridUnit sets the unit label for all generated sensors.
func WithGridUnit(unit string) GridOption {
	return func(cfg *gridConfig) error {
		cfg.unit = unit
		return nil
	}
}

// WithGridBounds sets the calibration shared by all generated sensors.
//
// Returns an error unless minimum < nominal < maximum.
func WithGridBounds(nominal, minimum, maximum float64) GridOption {
	return func(cfg *gridConfig) error {
		if !(minimum < nominal && nominal < maximum) {
			return fmt.Errorf("grid bounds must satisfy minimum < nominal < maximum, got %g < %g < %g",
				minimum, nominal, maximum)
		}
		cfg.nominal = nominal
		cfg.minimum = minimum
		cfg.maximum = maximum
		cfg.boundsSet = true
		return nil
	}
}
