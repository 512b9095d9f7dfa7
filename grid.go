package sensorboard

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"text/template"
)

// NewSensorGrid creates multiple sensors from an id template and dimensions
// using cartesian product expansion.
//
// The id and location templates use Go's text/template syntax with dimension
// keys as variables. Missing template keys cause an error (fail-fast).
// Every generated sensor shares the bounds from [WithGridBounds] and the unit
// from [WithGridUnit].
//
// Each sensor name includes dimension values in the format
// "Base Name (val1/val2)" (values from alphabetically sorted keys).
//
// Example:
//
//	sensors, err := NewSensorGrid("Bearing temperature",
//	    WithIDTemplate("bearing-{{.press}}-{{.side}}"),
//	    WithLocationTemplate("Press {{.press}}"),
//	    WithDimensions(map[string][]string{
//	        "press": {"A-14", "A-15"},
//	        "side":  {"drive", "idle"},
//	    }),
//	    WithGridBounds(55, 30, 80),
//	    WithGridUnit("°C"),
//	)
//	// Returns 4 sensors, usable with WithSensors(sensors...)
func NewSensorGrid(baseName string, opts ...GridOption) ([]Sensor, error) {
	if strings.TrimSpace(baseName) == "" {
		return nil, errors.New("base name cannot be empty")
	}

	cfg := &gridConfig{}
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}

	if cfg.idTemplate == "" {
		return nil, errors.New("id template required")
	}
	if len(cfg.dimensions) == 0 {
		return nil, errors.New("at least one dimension required")
	}
	if !cfg.boundsSet {
		return nil, errors.New("grid bounds required")
	}

	// parse templates with missingkey=error for fail-fast behaviour
	idTmpl, err := template.New("id").Option("missingkey=error").Parse(cfg.idTemplate)
	if err != nil {
		return nil, fmt.Errorf("invalid id template: %w", err)
	}
	var locTmpl *template.Template
	if cfg.locationTemplate != "" {
		locTmpl, err = template.New("location").Option("missingkey=error").Parse(cfg.locationTemplate)
		if err != nil {
			return nil, fmt.Errorf("invalid location template: %w", err)
		}
	}

	combinations := cartesianProduct(cfg.dimensions)
	if len(combinations) == 0 {
		return nil, nil
	}

	sensors := make([]Sensor, 0, len(combinations))
	seen := make(map[string]bool, len(combinations))
	for _, combo := range combinations {
		id, err := executeTemplate(idTmpl, combo)
		if err != nil {
			return nil, fmt.Errorf("id template execution failed: %w", err)
		}
		if seen[id] {
			return nil, fmt.Errorf("id template produced duplicate id %q", id)
		}
		seen[id] = true

		name := formatSensorName(baseName, combo)

		var sensorOpts []SensorOption
		if cfg.unit != "" {
			sensorOpts = append(sensorOpts, WithUnit(cfg.unit))
		}
		if locTmpl != nil {
			location, err := executeTemplate(locTmpl, combo)
			if err != nil {
				return nil, fmt.Errorf("location template execution failed: %w", err)
			}
			sensorOpts = append(sensorOpts, WithLocation(location))
		}

		s, err := NewSensor(id, name, cfg.nominal, cfg.minimum, cfg.maximum, sensorOpts...)
		if err != nil {
			return nil, fmt.Errorf("failed to create sensor '%s': %w", name, err)
		}
		sensors = append(sensors, s)
	}

	return sensors, nil
}

// cartesianProduct generates all combinations of dimension values.
// Keys are sorted alphabetically for deterministic output.
// Values maintain their original slice order.
//
// Example:
//
//	Input:  {"x": ["a","b"], "y": ["1","2"]}
//	Output: [{"x":"a","y":"1"}, {"x":"a","y":"2"}, {"x":"b","y":"1"}, {"x":"b","y":"2"}]
func cartesianProduct(dims map[string][]string) []map[string]string {
	if len(dims) == 0 {
		return nil
	}

	keys := sortedKeys(dims)

	for _, k := range keys {
		if len(dims[k]) == 0 {
			return nil
		}
	}

	total := 1
	for _, k := range keys {
		total *= len(dims[k])
	}
	result := make([]map[string]string, 0, total)

	indices := make([]int, len(keys))
	for {
		combo := make(map[string]string, len(keys))
		for i, k := range keys {
			combo[k] = dims[k][indices[i]]
		}
		result = append(result, combo)

		// increment indices (rightmost first)
		for i := len(keys) - 1; i >= 0; i-- {
			indices[i]++
			if indices[i] < len(dims[keys[i]]) {
				break
			}
			indices[i] = 0
			if i == 0 {
				return result
			}
		}
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// executeTemplate renders the template with the given data.
func executeTemplate(tmpl *template.Template, data map[string]string) (string, error) {
	var buf strings.Builder
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// formatSensorName creates a name in the format "Base (v1/v2)".
// Values are ordered by sorted keys for consistent naming.
func formatSensorName(baseName string, combo map[string]string) string {
	keys := sortedKeys(combo)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = combo[k]
	}
	return fmt.Sprintf("%s (%s)", baseName, strings.Join(parts, "/"))
}
