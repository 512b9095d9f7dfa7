package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestParse_EmptyConfig(t *testing.T) {
	cfg, err := Parse([]byte(`title: ""`))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	// check defaults applied
	if cfg.Port != 8080 {
		t.Errorf("Port = %d, want 8080", cfg.Port)
	}
	if cfg.TickInterval.Duration() != 4*time.Second {
		t.Errorf("TickInterval = %v, want 4s", cfg.TickInterval.Duration())
	}
	if cfg.StepSize != 5 {
		t.Errorf("StepSize = %d, want 5", cfg.StepSize)
	}
	if cfg.Seed != nil {
		t.Errorf("Seed = %v, want nil", *cfg.Seed)
	}
	if len(cfg.Sensors) != 0 || len(cfg.Grids) != 0 {
		t.Errorf("Sensors/Grids = %d/%d, want none", len(cfg.Sensors), len(cfg.Grids))
	}
	if cfg.Sinks.MQTT != nil || cfg.Sinks.Kafka != nil {
		t.Error("Sinks should be nil when not configured")
	}
}

func TestParse_FullConfig(t *testing.T) {
	yaml := `
title: Plant 3
port: 9090
tick_interval: 2s
step_size: 10
seed: 42

sensors:
  - id: temp-line
    name: Line temperature
    unit: °C
    location: Shop 1
    nominal: 62
    minimum: 40
    maximum: 85
  - id: vibration
    name: Vibration
    nominal: 2.4
    minimum: 0
    maximum: 4.5

grids:
  - name: Bearing temperature
    id_template: "bearing-{{.press}}-{{.side}}"
    location_template: "Press {{.press}}"
    unit: °C
    nominal: 55
    minimum: 30
    maximum: 80
    dimensions:
      press: [A-14, A-15]
      side: [drive, idle]

sinks:
  mqtt:
    broker: tcp://localhost:1883
    topic_prefix: plant3
    qos: 1
    retained: true
    connect_timeout: 3s
  kafka:
    brokers: [localhost:9092, localhost:9093]
    topic: sensor-readings
    acks: leader
    write_timeout: 2s
`
	cfg, err := Parse([]byte(yaml))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if cfg.Title != "Plant 3" || cfg.Port != 9090 || cfg.StepSize != 10 {
		t.Errorf("Title/Port/StepSize = %q/%d/%d", cfg.Title, cfg.Port, cfg.StepSize)
	}
	if cfg.TickInterval.Duration() != 2*time.Second {
		t.Errorf("TickInterval = %v, want 2s", cfg.TickInterval.Duration())
	}
	if cfg.Seed == nil || *cfg.Seed != 42 {
		t.Errorf("Seed = %v, want 42", cfg.Seed)
	}

	if len(cfg.Sensors) != 2 {
		t.Fatalf("len(Sensors) = %d, want 2", len(cfg.Sensors))
	}
	s := cfg.Sensors[0]
	if s.ID != "temp-line" || s.Unit != "°C" || s.Location != "Shop 1" {
		t.Errorf("Sensors[0] = %+v", s)
	}
	if *s.Nominal != 62 || *s.Minimum != 40 || *s.Maximum != 85 {
		t.Errorf("Sensors[0] bounds = %g/%g/%g, want 62/40/85", *s.Nominal, *s.Minimum, *s.Maximum)
	}
	// zero is a valid bound
	if *cfg.Sensors[1].Minimum != 0 {
		t.Errorf("Sensors[1].Minimum = %g, want 0", *cfg.Sensors[1].Minimum)
	}

	g := cfg.Grids[0]
	if g.IDTemplate != "bearing-{{.press}}-{{.side}}" || len(g.Dimensions) != 2 {
		t.Errorf("Grids[0] = %+v", g)
	}

	m := cfg.Sinks.MQTT
	if m == nil {
		t.Fatal("Sinks.MQTT is nil")
	}
	if m.Broker != "tcp://localhost:1883" || m.TopicPrefix != "plant3" || m.QoS != 1 || !m.Retained {
		t.Errorf("Sinks.MQTT = %+v", m)
	}
	if m.ConnectTimeout.Duration() != 3*time.Second {
		t.Errorf("ConnectTimeout = %v, want 3s", m.ConnectTimeout.Duration())
	}

	k := cfg.Sinks.Kafka
	if k == nil {
		t.Fatal("Sinks.Kafka is nil")
	}
	if len(k.Brokers) != 2 || k.Topic != "sensor-readings" || k.RequiredAcks() != 1 {
		t.Errorf("Sinks.Kafka = %+v", k)
	}
	if k.WriteTimeout.Duration() != 2*time.Second {
		t.Errorf("WriteTimeout = %v, want 2s", k.WriteTimeout.Duration())
	}
}

func TestKafkaConfig_RequiredAcks(t *testing.T) {
	tests := []struct {
		acks string
		want int
	}{
		{"", -1},
		{"all", -1},
		{"leader", 1},
		{"none", 0},
	}

	for _, tt := range tests {
		if got := (KafkaConfig{Acks: tt.acks}).RequiredAcks(); got != tt.want {
			t.Errorf("RequiredAcks(%q) = %d, want %d", tt.acks, got, tt.want)
		}
	}
}

func TestParse_EnvVarSubstitution(t *testing.T) {
	t.Setenv("TEST_MQTT_BROKER", "tcp://mqtt.plant3:1883")
	t.Setenv("TEST_MQTT_PASSWORD", "secret123")
	t.Setenv("TEST_KAFKA_BROKER", "kafka.plant3:9092")

	yaml := `
sinks:
  mqtt:
    broker: ${TEST_MQTT_BROKER}
    username: board
    password: "${TEST_MQTT_PASSWORD}"
  kafka:
    brokers: ["${TEST_KAFKA_BROKER}"]
    topic: ${TEST_KAFKA_TOPIC:-readings}
`
	cfg, err := Parse([]byte(yaml))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if cfg.Sinks.MQTT.Broker != "tcp://mqtt.plant3:1883" {
		t.Errorf("Broker = %q", cfg.Sinks.MQTT.Broker)
	}
	if cfg.Sinks.MQTT.Password != "secret123" {
		t.Errorf("Password = %q, want secret123", cfg.Sinks.MQTT.Password)
	}
	if cfg.Sinks.Kafka.Brokers[0] != "kafka.plant3:9092" {
		t.Errorf("Brokers[0] = %q", cfg.Sinks.Kafka.Brokers[0])
	}
	if cfg.Sinks.Kafka.Topic != "readings" {
		t.Errorf("Topic = %q, want readings (default)", cfg.Sinks.Kafka.Topic)
	}
}

func TestParse_EnvVarMissing(t *testing.T) {
	// MISSING_VAR is expected to not exist in the environment
	yaml := `
sinks:
  mqtt:
    broker: ${MISSING_VAR}
`
	_, err := Parse([]byte(yaml))
	if err == nil {
		t.Fatal("Parse() expected error for missing env var, got nil")
	}
	if !strings.Contains(err.Error(), "MISSING_VAR") || !strings.Contains(err.Error(), "sinks.mqtt: broker") {
		t.Errorf("error should name the field and MISSING_VAR: %v", err)
	}
}

func TestParse_ValidationErrors(t *testing.T) {
	tests := []struct {
		name        string
		yaml        string
		wantErrLike string
	}{
		{
			name:        "port out of range",
			yaml:        `port: 70000`,
			wantErrLike: "port must be between 1 and 65535",
		},
		{
			name:        "tick interval too short",
			yaml:        `tick_interval: 10ms`,
			wantErrLike: "tick_interval must be at least 100ms",
		},
		{
			name:        "negative tick interval",
			yaml:        `tick_interval: -1s`,
			wantErrLike: "tick_interval must be at least",
		},
		{
			name:        "step size too large",
			yaml:        `step_size: 500`,
			wantErrLike: "step_size must be between 1 and 240",
		},
		{
			name:        "negative step size",
			yaml:        `step_size: -2`,
			wantErrLike: "step_size must be between",
		},
		{
			name: "sensor missing id",
			yaml: `
sensors:
  - name: Flow
    nominal: 180
    minimum: 120
    maximum: 240
`,
			wantErrLike: "sensors[0]: id is required",
		},
		{
			name: "sensor missing name",
			yaml: `
sensors:
  - id: flow
    nominal: 180
    minimum: 120
    maximum: 240
`,
			wantErrLike: "sensors[0] (flow): name is required",
		},
		{
			name: "sensor missing nominal",
			yaml: `
sensors:
  - id: flow
    name: Flow
    minimum: 120
    maximum: 240
`,
			wantErrLike: "nominal is required",
		},
		{
			name: "sensor missing maximum",
			yaml: `
sensors:
  - id: flow
    name: Flow
    nominal: 180
    minimum: 120
`,
			wantErrLike: "maximum is required",
		},
		{
			name: "sensor bounds out of order",
			yaml: `
sensors:
  - id: flow
    name: Flow
    nominal: 300
    minimum: 120
    maximum: 240
`,
			wantErrLike: "minimum < nominal < maximum",
		},
		{
			name: "duplicate sensor id",
			yaml: `
sensors:
  - {id: flow, name: Flow, nominal: 180, minimum: 120, maximum: 240}
  - {id: flow, name: Flow 2, nominal: 180, minimum: 120, maximum: 240}
`,
			wantErrLike: "sensors[1]: duplicate id \"flow\" (first defined in sensors[0])",
		},
		{
			name: "grid missing name",
			yaml: `
grids:
  - id_template: "flow-{{.line}}"
    dimensions: {line: ["1"]}
    nominal: 180
    minimum: 120
    maximum: 240
`,
			wantErrLike: "grids[0]: name is required",
		},
		{
			name: "grid missing id template",
			yaml: `
grids:
  - name: Flow
    dimensions: {line: ["1"]}
    nominal: 180
    minimum: 120
    maximum: 240
`,
			wantErrLike: "id_template is required",
		},
		{
			name: "grid invalid id template",
			yaml: `
grids:
  - name: Flow
    id_template: "flow-{{.line"
    dimensions: {line: ["1"]}
    nominal: 180
    minimum: 120
    maximum: 240
`,
			wantErrLike: "invalid id_template",
		},
		{
			name: "grid invalid location template",
			yaml: `
grids:
  - name: Flow
    id_template: "flow-{{.line}}"
    location_template: "Line {{"
    dimensions: {line: ["1"]}
    nominal: 180
    minimum: 120
    maximum: 240
`,
			wantErrLike: "invalid location_template",
		},
		{
			name: "grid without dimensions",
			yaml: `
grids:
  - name: Flow
    id_template: "flow"
    nominal: 180
    minimum: 120
    maximum: 240
`,
			wantErrLike: "at least one dimension is required",
		},
		{
			name: "grid dimension without values",
			yaml: `
grids:
  - name: Flow
    id_template: "flow-{{.line}}"
    dimensions: {line: []}
    nominal: 180
    minimum: 120
    maximum: 240
`,
			wantErrLike: "dimension \"line\" has no values",
		},
		{
			name: "grid duplicate dimension value",
			yaml: `
grids:
  - name: Flow
    id_template: "flow-{{.line}}"
    dimensions: {line: ["1", "1"]}
    nominal: 180
    minimum: 120
    maximum: 240
`,
			wantErrLike: "duplicate value \"1\"",
		},
		{
			name: "grid missing bounds",
			yaml: `
grids:
  - name: Flow
    id_template: "flow-{{.line}}"
    dimensions: {line: ["1"]}
`,
			wantErrLike: "grids[0] (Flow): nominal is required",
		},
		{
			name: "mqtt without broker",
			yaml: `
sinks:
  mqtt:
    topic_prefix: plant3
`,
			wantErrLike: "sinks.mqtt: broker is required",
		},
		{
			name: "mqtt invalid qos",
			yaml: `
sinks:
  mqtt:
    broker: tcp://localhost:1883
    qos: 3
`,
			wantErrLike: "qos must be 0, 1 or 2",
		},
		{
			name: "kafka without brokers",
			yaml: `
sinks:
  kafka:
    topic: readings
`,
			wantErrLike: "sinks.kafka: at least one broker is required",
		},
		{
			name: "kafka empty broker",
			yaml: `
sinks:
  kafka:
    brokers: ["localhost:9092", ""]
    topic: readings
`,
			wantErrLike: "brokers[1] is empty",
		},
		{
			name: "kafka without topic",
			yaml: `
sinks:
  kafka:
    brokers: [localhost:9092]
`,
			wantErrLike: "sinks.kafka: topic is required",
		},
		{
			name: "kafka invalid acks",
			yaml: `
sinks:
  kafka:
    brokers: [localhost:9092]
    topic: readings
    acks: some
`,
			wantErrLike: "acks must be all, leader or none",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			if err == nil {
				t.Fatalf("Parse() expected error containing %q, got nil", tt.wantErrLike)
			}
			if !strings.Contains(err.Error(), tt.wantErrLike) {
				t.Errorf("Parse() error = %q, want containing %q", err.Error(), tt.wantErrLike)
			}
		})
	}
}

func TestParse_InvalidYAML(t *testing.T) {
	_, err := Parse([]byte("sensors: [unclosed"))
	if err == nil {
		t.Fatal("Parse() expected error for invalid YAML, got nil")
	}
	if !strings.Contains(err.Error(), "failed to parse YAML") {
		t.Errorf("error = %v, want 'failed to parse YAML'", err)
	}
}

func TestParse_InvalidDuration(t *testing.T) {
	_, err := Parse([]byte("tick_interval: soon"))
	if err == nil {
		t.Fatal("Parse() expected error for invalid duration, got nil")
	}
	if !strings.Contains(err.Error(), "invalid duration") {
		t.Errorf("error = %v, want 'invalid duration'", err)
	}
}

func TestDuration_UnmarshalYAML(t *testing.T) {
	tests := []struct {
		input string
		want  time.Duration
	}{
		{"tick_interval: 500ms", 500 * time.Millisecond},
		{"tick_interval: 4s", 4 * time.Second},
		{"tick_interval: 1m30s", 90 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			cfg, err := Parse([]byte(tt.input))
			if err != nil {
				t.Fatalf("Parse() error = %v", err)
			}
			if got := cfg.TickInterval.Duration(); got != tt.want {
				t.Errorf("TickInterval = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("TEST_VAR", "value")
	t.Setenv("EMPTY_VAR", "") // set but empty

	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{"no vars", "plain text", "plain text", false},
		{"simple var", "${TEST_VAR}", "value", false},
		{"var in text", "prefix ${TEST_VAR} suffix", "prefix value suffix", false},
		{"multiple vars", "${TEST_VAR}-${TEST_VAR}", "value-value", false},
		{"with default (var set)", "${TEST_VAR:-default}", "value", false},
		{"with default (var unset)", "${UNSET:-default}", "default", false},
		{"missing required", "${MISSING}", "", true},
		{"empty default (var unset)", "${UNSET:-}", "", false},
		{"set but empty var", "${EMPTY_VAR}", "", false},
		{"set but empty with default", "${EMPTY_VAR:-fallback}", "", false}, // set var takes precedence
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := expandEnvVars(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expandEnvVars() expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("expandEnvVars() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("expandEnvVars() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sensorboard.yaml")
	if err := os.WriteFile(path, []byte("title: From File\nport: 9191\n"), 0o600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Title != "From File" || cfg.Port != 9191 {
		t.Errorf("Title/Port = %q/%d, want From File/9191", cfg.Title, cfg.Port)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err == nil {
		t.Fatal("Load() expected error for missing file, got nil")
	}
	if !strings.Contains(err.Error(), "failed to read config file") {
		t.Errorf("error = %v, want 'failed to read config file'", err)
	}
}
