package sensorboard

import (
	"context"
	"log/slog"
	"time"

	"github.com/jpalmerr/sensorboard/internal/sink"
	"github.com/jpalmerr/sensorboard/internal/store"
)

// Sink receives every tick produced by a running [Board].
//
// Publish is called from the board's single result goroutine with a bounded
// context; a slow sink delays later ticks but never the simulation itself.
// Errors are logged and counted, never fatal. [Board.Close] closes every
// sink registered with [WithSink].
type Sink interface {
	Name() string
	Publish(ctx context.Context, tick TickResult) error
	Close() error
}

// MQTTSinkConfig configures [NewMQTTSink].
type MQTTSinkConfig struct {
	// Broker is the broker URL, e.g. tcp://localhost:1883. Required.
	Broker string

	// ClientID defaults to "sensorboard-<source>".
	ClientID string

	Username string
	Password string

	// TopicPrefix defaults to "sensorboard". Each sensor publishes on
	// <prefix>/<sensor-id>.
	TopicPrefix string

	// QoS is 0, 1 or 2.
	QoS byte

	Retained bool

	// ConnectTimeout defaults to 10 seconds.
	ConnectTimeout time.Duration

	// Source identifies this board in every message. Defaults to a random UUID.
	Source string
}

// KafkaSinkConfig configures [NewKafkaSink].
type KafkaSinkConfig struct {
	// Brokers lists bootstrap addresses, e.g. "localhost:9092". Required.
	Brokers []string

	// Topic receives one record per sensor per tick, keyed by sensor id. Required.
	Topic string

	// Acks is the number of required acknowledgements: -1 (all), 0 or 1.
	Acks int

	// WriteTimeout bounds a single batch write.
	WriteTimeout time.Duration

	// Source identifies this board in every message. Defaults to a random UUID.
	Source string
}

// NewMQTTSink connects to an MQTT broker and returns a [Sink] that publishes
// one JSON message per sensor per tick.
//
// Returns an error if the configuration is invalid or the broker cannot be
// reached within the connect timeout.
func NewMQTTSink(cfg MQTTSinkConfig, logger *slog.Logger) (Sink, error) {
	s, err := sink.NewMQTTSink(sink.MQTTConfig{
		Broker:         cfg.Broker,
		ClientID:       cfg.ClientID,
		Username:       cfg.Username,
		Password:       cfg.Password,
		TopicPrefix:    cfg.TopicPrefix,
		QoS:            cfg.QoS,
		Retained:       cfg.Retained,
		ConnectTimeout: cfg.ConnectTimeout,
		Source:         cfg.Source,
	}, logger)
	if err != nil {
		return nil, err
	}
	return builtinSink{s}, nil
}

// NewKafkaSink returns a [Sink] that writes one Kafka record per sensor per
// tick. No connection is made until the first publish.
func NewKafkaSink(cfg KafkaSinkConfig) (Sink, error) {
	s, err := sink.NewKafkaSink(sink.KafkaConfig{
		Brokers:      cfg.Brokers,
		Topic:        cfg.Topic,
		Acks:         cfg.Acks,
		WriteTimeout: cfg.WriteTimeout,
		Source:       cfg.Source,
	})
	if err != nil {
		return nil, err
	}
	return builtinSink{s}, nil
}

// builtinSink exposes an internal sink through the public interface.
type builtinSink struct {
	s sink.Sink
}

func (b builtinSink) Name() string { return b.s.Name() }

func (b builtinSink) Publish(ctx context.Context, tick TickResult) error {
	return b.s.Publish(ctx, tick.toStore())
}

func (b builtinSink) Close() error { return b.s.Close() }

// userSink adapts a caller-provided Sink to the internal interface.
type userSink struct {
	s Sink
}

func (u userSink) Name() string { return u.s.Name() }

func (u userSink) Publish(ctx context.Context, tick store.Tick) error {
	return u.s.Publish(ctx, tickFromStore(tick, "", 0))
}

func (u userSink) Close() error { return u.s.Close() }

// toInternalSinks unwraps built-in sinks so ticks reach them without a
// round trip through the public types.
func toInternalSinks(sinks []Sink) sink.Multi {
	out := make(sink.Multi, 0, len(sinks))
	for _, s := range sinks {
		if b, ok := s.(builtinSink); ok {
			out = append(out, b.s)
			continue
		}
		out = append(out, userSink{s})
	}
	return out
}
