package config

import (
	"fmt"
	"log/slog"

	"github.com/jpalmerr/sensorboard"
)

// BuildSensors converts parsed configuration into SDK Sensor objects.
//
// Direct sensors come first in file order, followed by each grid's expansion.
// An empty result means the caller should run the reference catalog.
func BuildSensors(cfg *Config) ([]sensorboard.Sensor, error) {
	var sensors []sensorboard.Sensor

	for i, sc := range cfg.Sensors {
		s, err := buildSensor(sc)
		if err != nil {
			return nil, fmt.Errorf("sensors[%d]: %w", i, err)
		}
		sensors = append(sensors, s)
	}

	for i, gc := range cfg.Grids {
		gridSensors, err := buildGridSensors(gc)
		if err != nil {
			return nil, fmt.Errorf("grids[%d] (%s): %w", i, gc.Name, err)
		}
		sensors = append(sensors, gridSensors...)
	}

	return sensors, nil
}

// buildSensor converts a single SensorConfig to an SDK Sensor.
func buildSensor(sc SensorConfig) (sensorboard.Sensor, error) {
	if err := validateBounds(sc.Nominal, sc.Minimum, sc.Maximum); err != nil {
		return sensorboard.Sensor{}, err
	}

	var opts []sensorboard.SensorOption

	if sc.Unit != "" {
		opts = append(opts, sensorboard.WithUnit(sc.Unit))
	}
	if sc.Location != "" {
		opts = append(opts, sensorboard.WithLocation(sc.Location))
	}

	return sensorboard.NewSensor(sc.ID, sc.Name, *sc.Nominal, *sc.Minimum, *sc.Maximum, opts...)
}

// buildGridSensors expands a GridConfig through [sensorboard.NewSensorGrid].
func buildGridSensors(gc GridConfig) ([]sensorboard.Sensor, error) {
	if err := validateBounds(gc.Nominal, gc.Minimum, gc.Maximum); err != nil {
		return nil, err
	}

	opts := []sensorboard.GridOption{
		sensorboard.WithIDTemplate(gc.IDTemplate),
		sensorboard.WithDimensions(gc.Dimensions),
		sensorboard.WithGridBounds(*gc.Nominal, *gc.Minimum, *gc.Maximum),
	}
	if gc.LocationTemplate != "" {
		opts = append(opts, sensorboard.WithLocationTemplate(gc.LocationTemplate))
	}
	if gc.Unit != "" {
		opts = append(opts, sensorboard.WithGridUnit(gc.Unit))
	}

	return sensorboard.NewSensorGrid(gc.Name, opts...)
}

// BuildSinks creates the configured telemetry sinks.
//
// The MQTT sink connects immediately; the Kafka sink connects lazily. If a
// later sink fails, sinks already created are closed before returning.
func BuildSinks(cfg *Config, logger *slog.Logger) ([]sensorboard.Sink, error) {
	var sinks []sensorboard.Sink

	closeAll := func() {
		for _, s := range sinks {
			_ = s.Close()
		}
	}

	if m := cfg.Sinks.MQTT; m != nil {
		s, err := sensorboard.NewMQTTSink(sensorboard.MQTTSinkConfig{
			Broker:         m.Broker,
			ClientID:       m.ClientID,
			Username:       m.Username,
			Password:       m.Password,
			TopicPrefix:    m.TopicPrefix,
			QoS:            byte(m.QoS),
			Retained:       m.Retained,
			ConnectTimeout: m.ConnectTimeout.Duration(),
		}, logger)
		if err != nil {
			return nil, fmt.Errorf("sinks.mqtt: %w", err)
		}
		sinks = append(sinks, s)
	}

	if k := cfg.Sinks.Kafka; k != nil {
		s, err := sensorboard.NewKafkaSink(sensorboard.KafkaSinkConfig{
			Brokers:      k.Brokers,
			Topic:        k.Topic,
			Acks:         k.RequiredAcks(),
			WriteTimeout: k.WriteTimeout.Duration(),
		})
		if err != nil {
			closeAll()
			return nil, fmt.Errorf("sinks.kafka: %w", err)
		}
		sinks = append(sinks, s)
	}

	return sinks, nil
}

// BoardOptions converts the top-level settings, sensors and sinks into
// options for [sensorboard.New].
func BoardOptions(cfg *Config, sensors []sensorboard.Sensor, sinks []sensorboard.Sink) []sensorboard.Option {
	opts := []sensorboard.Option{
		sensorboard.WithPort(cfg.Port),
		sensorboard.WithTickInterval(cfg.TickInterval.Duration()),
		sensorboard.WithStepSize(cfg.StepSize),
		sensorboard.WithSensors(sensors...),
	}
	if cfg.Title != "" {
		opts = append(opts, sensorboard.WithTitle(cfg.Title))
	}
	if cfg.Seed != nil {
		opts = append(opts, sensorboard.WithSeed(*cfg.Seed))
	}
	for _, s := range sinks {
		opts = append(opts, sensorboard.WithSink(s))
	}
	return opts
}
