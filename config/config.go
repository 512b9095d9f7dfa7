// Package config provides YAML configuration parsing for SensorBoard.
//
// This package enables running SensorBoard as a standalone binary with a
// configuration file, as an alternative to the programmatic SDK approach.
//
// Example configuration:
//
//	title: Plant 3
//	port: 8080
//	tick_interval: 4s
//	step_size: 5
//
//	sensors:
//	  - id: temp-line
//	    name: Line temperature
//	    unit: °C
//	    location: Shop 1
//	    nominal: 62
//	    minimum: 40
//	    maximum: 85
//
//	grids:
//	  - name: Bearing temperature
//	    id_template: "bearing-{{.press}}"
//	    location_template: "Press {{.press}}"
//	    unit: °C
//	    nominal: 55
//	    minimum: 30
//	    maximum: 80
//	    dimensions:
//	      press: [A-14, A-15]
//
//	sinks:
//	  mqtt:
//	    broker: ${MQTT_BROKER:-tcp://localhost:1883}
//	    topic_prefix: plant3
//	  kafka:
//	    brokers: [localhost:9092]
//	    topic: sensor-readings
//
// When neither sensors nor grids are given the reference plant catalog is used.
package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"
	"text/template"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	defaultPort         = 8080
	defaultTickInterval = 4 * time.Second
	defaultStepSize     = 5

	// minTickInterval keeps a config file from spinning the simulation loop.
	minTickInterval = 100 * time.Millisecond

	// maxStepSize is the history window size.
	maxStepSize = 240
)

// Config is the root configuration structure for SensorBoard.
//
// It maps directly to the YAML configuration file structure.
// Use [Load] or [Parse] to create a Config from YAML.
type Config struct {
	// Title is the dashboard title. Defaults to "SensorBoard" if not set.
	Title string `yaml:"title"`

	// Port is the HTTP server port. Defaults to 8080.
	Port int `yaml:"port"`

	// TickInterval is the time between simulated readings.
	// Accepts duration strings like "4s", "500ms". Defaults to 4s.
	TickInterval Duration `yaml:"tick_interval"`

	// StepSize is the number of readings a manual step advances. Defaults to 5.
	StepSize int `yaml:"step_size"`

	// Seed makes the simulation reproducible. Random when unset.
	Seed *uint64 `yaml:"seed"`

	// Sensors defines individual sensors.
	Sensors []SensorConfig `yaml:"sensors"`

	// Grids defines sensor families that expand via cartesian product.
	Grids []GridConfig `yaml:"grids"`

	// Sinks configures telemetry publishing.
	Sinks SinksConfig `yaml:"sinks"`
}

// SensorConfig defines a single sensor.
type SensorConfig struct {
	ID       string `yaml:"id"`
	Name     string `yaml:"name"`
	Unit     string `yaml:"unit"`
	Location string `yaml:"location"`

	// Nominal, Minimum and Maximum are required and must satisfy
	// minimum < nominal < maximum.
	Nominal *float64 `yaml:"nominal"`
	Minimum *float64 `yaml:"minimum"`
	Maximum *float64 `yaml:"maximum"`
}

// GridConfig defines a sensor family that expands via cartesian product.
//
// For example, with dimensions {press: [A-14, A-15], side: [drive, idle]},
// the grid expands to 4 sensors sharing one calibration.
type GridConfig struct {
	// Name is the base name for generated sensors.
	Name string `yaml:"name"`

	// IDTemplate is a Go template for generating sensor ids.
	// Dimension keys are available as template variables: {{.press}}
	IDTemplate string `yaml:"id_template"`

	// LocationTemplate is an optional Go template for sensor locations.
	LocationTemplate string `yaml:"location_template"`

	// Dimensions maps dimension names to their possible values.
	Dimensions map[string][]string `yaml:"dimensions"`

	Unit    string   `yaml:"unit"`
	Nominal *float64 `yaml:"nominal"`
	Minimum *float64 `yaml:"minimum"`
	Maximum *float64 `yaml:"maximum"`
}

// SinksConfig holds the optional telemetry sinks.
type SinksConfig struct {
	MQTT  *MQTTConfig  `yaml:"mqtt"`
	Kafka *KafkaConfig `yaml:"kafka"`
}

// MQTTConfig configures the MQTT sink.
//
// Broker, Username and Password support environment variable substitution.
type MQTTConfig struct {
	Broker         string   `yaml:"broker"`
	ClientID       string   `yaml:"client_id"`
	Username       string   `yaml:"username"`
	Password       string   `yaml:"password"`
	TopicPrefix    string   `yaml:"topic_prefix"`
	QoS            int      `yaml:"qos"`
	Retained       bool     `yaml:"retained"`
	ConnectTimeout Duration `yaml:"connect_timeout"`
}

// KafkaConfig configures the Kafka sink.
//
// Brokers and Topic support environment variable substitution.
type KafkaConfig struct {
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`

	// Acks is "all", "leader" or "none". Defaults to "all".
	Acks string `yaml:"acks"`

	WriteTimeout Duration `yaml:"write_timeout"`
}

// RequiredAcks maps Acks onto the Kafka acknowledgement count.
func (k KafkaConfig) RequiredAcks() int {
	switch k.Acks {
	case "none":
		return 0
	case "leader":
		return 1
	default:
		return -1
	}
}

// Duration wraps time.Duration for YAML unmarshalling.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler for Duration.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}

	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}

	*d = Duration(parsed)
	return nil
}

// Duration returns the underlying time.Duration value.
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// envVarPattern matches ${VAR} and ${VAR:-default} patterns.
// Group 1: variable name
// Group 2: the ":-default" part (if present, indicates a default was specified)
// Group 3: the default value (may be empty for ${VAR:-})
var envVarPattern = regexp.MustCompile(`\$\{([^}:]+)(:-([^}]*))?\}`)

// expandEnvVars replaces ${VAR} and ${VAR:-default} patterns with environment values.
func expandEnvVars(s string) (string, error) {
	var firstErr error

	result := envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		if firstErr != nil {
			return match
		}

		submatches := envVarPattern.FindStringSubmatch(match)
		varName := submatches[1]
		hasDefault := submatches[2] != ""
		defaultVal := submatches[3]

		value, exists := os.LookupEnv(varName)
		if !exists {
			if hasDefault {
				return defaultVal
			}
			firstErr = fmt.Errorf("environment variable %q is not set", varName)
			return match
		}
		return value
	})

	if firstErr != nil {
		return "", firstErr
	}
	return result, nil
}

// Load reads and parses a YAML configuration file.
//
// Environment variables in sink settings are expanded after parsing.
// Returns an error if the file cannot be read or parsed.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse parses YAML configuration data.
//
// Defaults are applied for Port (8080), TickInterval (4s) and StepSize (5).
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if cfg.Port == 0 {
		cfg.Port = defaultPort
	}
	if cfg.TickInterval == 0 {
		cfg.TickInterval = Duration(defaultTickInterval)
	}
	if cfg.StepSize == 0 {
		cfg.StepSize = defaultStepSize
	}

	if err := cfg.expandAndValidate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// expandAndValidate expands environment variables and validates the config.
func (c *Config) expandAndValidate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", c.Port)
	}
	if c.TickInterval.Duration() < minTickInterval {
		return fmt.Errorf("tick_interval must be at least %s, got %s", minTickInterval, c.TickInterval.Duration())
	}
	if c.StepSize < 1 || c.StepSize > maxStepSize {
		return fmt.Errorf("step_size must be between 1 and %d, got %d", maxStepSize, c.StepSize)
	}

	ids := make(map[string]string)

	for i := range c.Sensors {
		s := &c.Sensors[i]

		if s.ID == "" {
			return fmt.Errorf("sensors[%d]: id is required", i)
		}
		if s.Name == "" {
			return fmt.Errorf("sensors[%d] (%s): name is required", i, s.ID)
		}
		if err := validateBounds(s.Nominal, s.Minimum, s.Maximum); err != nil {
			return fmt.Errorf("sensors[%d] (%s): %w", i, s.ID, err)
		}
		if prev, exists := ids[s.ID]; exists {
			return fmt.Errorf("sensors[%d]: duplicate id %q (first defined in %s)", i, s.ID, prev)
		}
		ids[s.ID] = fmt.Sprintf("sensors[%d]", i)
	}

	for i := range c.Grids {
		g := &c.Grids[i]

		if g.Name == "" {
			return fmt.Errorf("grids[%d]: name is required", i)
		}
		if g.IDTemplate == "" {
			return fmt.Errorf("grids[%d] (%s): id_template is required", i, g.Name)
		}

		// fail fast before SDK tries to use invalid template
		if _, err := template.New("").Parse(g.IDTemplate); err != nil {
			return fmt.Errorf("grids[%d] (%s): invalid id_template: %w", i, g.Name, err)
		}
		if g.LocationTemplate != "" {
			if _, err := template.New("").Parse(g.LocationTemplate); err != nil {
				return fmt.Errorf("grids[%d] (%s): invalid location_template: %w", i, g.Name, err)
			}
		}

		if len(g.Dimensions) == 0 {
			return fmt.Errorf("grids[%d] (%s): at least one dimension is required", i, g.Name)
		}
		for dimName, dimValues := range g.Dimensions {
			if len(dimValues) == 0 {
				return fmt.Errorf("grids[%d] (%s): dimension %q has no values", i, g.Name, dimName)
			}
			seen := make(map[string]struct{}, len(dimValues))
			for _, v := range dimValues {
				if _, exists := seen[v]; exists {
					return fmt.Errorf("grids[%d] (%s): dimension %q has duplicate value %q", i, g.Name, dimName, v)
				}
				seen[v] = struct{}{}
			}
		}

		if err := validateBounds(g.Nominal, g.Minimum, g.Maximum); err != nil {
			return fmt.Errorf("grids[%d] (%s): %w", i, g.Name, err)
		}
	}

	if m := c.Sinks.MQTT; m != nil {
		if err := m.expandAndValidate(); err != nil {
			return fmt.Errorf("sinks.mqtt: %w", err)
		}
	}
	if k := c.Sinks.Kafka; k != nil {
		if err := k.expandAndValidate(); err != nil {
			return fmt.Errorf("sinks.kafka: %w", err)
		}
	}

	return nil
}

// validateBounds checks that all three bounds are present and ordered.
func validateBounds(nominal, minimum, maximum *float64) error {
	switch {
	case nominal == nil:
		return errors.New("nominal is required")
	case minimum == nil:
		return errors.New("minimum is required")
	case maximum == nil:
		return errors.New("maximum is required")
	}
	if !(*minimum < *nominal && *nominal < *maximum) {
		return fmt.Errorf("bounds must satisfy minimum < nominal < maximum, got %g < %g < %g",
			*minimum, *nominal, *maximum)
	}
	return nil
}

func (m *MQTTConfig) expandAndValidate() error {
	for _, field := range []struct {
		name string
		val  *string
	}{
		{"broker", &m.Broker},
		{"username", &m.Username},
		{"password", &m.Password},
	} {
		expanded, err := expandEnvVars(*field.val)
		if err != nil {
			return fmt.Errorf("%s: %w", field.name, err)
		}
		*field.val = expanded
	}

	if strings.TrimSpace(m.Broker) == "" {
		return errors.New("broker is required")
	}
	if m.QoS < 0 || m.QoS > 2 {
		return fmt.Errorf("qos must be 0, 1 or 2, got %d", m.QoS)
	}
	if m.ConnectTimeout.Duration() < 0 {
		return fmt.Errorf("connect_timeout cannot be negative, got %s", m.ConnectTimeout.Duration())
	}
	return nil
}

func (k *KafkaConfig) expandAndValidate() error {
	for i, b := range k.Brokers {
		expanded, err := expandEnvVars(b)
		if err != nil {
			return fmt.Errorf("brokers[%d]: %w", i, err)
		}
		k.Brokers[i] = expanded
	}
	topic, err := expandEnvVars(k.Topic)
	if err != nil {
		return fmt.Errorf("topic: %w", err)
	}
	k.Topic = topic

	if len(k.Brokers) == 0 {
		return errors.New("at least one broker is required")
	}
	for i, b := range k.Brokers {
		if strings.TrimSpace(b) == "" {
			return fmt.Errorf("brokers[%d] is empty", i)
		}
	}
	if strings.TrimSpace(k.Topic) == "" {
		return errors.New("topic is required")
	}
	switch k.Acks {
	case "", "all", "leader", "none":
	default:
		return fmt.Errorf("acks must be all, leader or none, got %q", k.Acks)
	}
	if k.WriteTimeout.Duration() < 0 {
		return fmt.Errorf("write_timeout cannot be negative, got %s", k.WriteTimeout.Duration())
	}
	return nil
}
