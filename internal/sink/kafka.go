package sink

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"

	"github.com/jpalmerr/sensorboard/internal/store"
)

const defaultBatchTimeout = 50 * time.Millisecond

// KafkaConfig configures a [KafkaSink].
type KafkaConfig struct {
	Brokers []string
	Topic   string

	// Acks is the number of required acknowledgements: -1 (all), 0 or 1.
	Acks int

	// WriteTimeout bounds a single WriteMessages call. Zero uses the writer default.
	WriteTimeout time.Duration

	// Source identifies this board in every message. Defaults to a random UUID.
	Source string
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaSink writes one record per sensor per tick, keyed by sensor id so a
// sensor's readings stay ordered within a partition.
type KafkaSink struct {
	writer messageWriter
	source string
}

// NewKafkaSink builds a sink backed by a [kafka.Writer]. No connection is
// made until the first publish.
func NewKafkaSink(cfg KafkaConfig) (*KafkaSink, error) {
	if strings.TrimSpace(cfg.Topic) == "" {
		return nil, errors.New("kafka topic cannot be empty")
	}
	if len(cfg.Brokers) == 0 {
		return nil, errors.New("at least one kafka broker is required")
	}
	switch cfg.Acks {
	case -1, 0, 1:
	default:
		return nil, fmt.Errorf("kafka acks must be -1, 0 or 1, got %d", cfg.Acks)
	}

	writer := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Topic:                  cfg.Topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequiredAcks(cfg.Acks),
		BatchTimeout:           defaultBatchTimeout,
		WriteTimeout:           cfg.WriteTimeout,
		AllowAutoTopicCreation: true,
	}
	return newKafkaSinkWithWriter(cfg, writer), nil
}

// newKafkaSinkWithWriter wires the provided writer into the sink. It is used in tests.
func newKafkaSinkWithWriter(cfg KafkaConfig, writer messageWriter) *KafkaSink {
	source := cfg.Source
	if source == "" {
		source = uuid.NewString()
	}
	return &KafkaSink{writer: writer, source: source}
}

func (s *KafkaSink) Name() string {
	return "kafka"
}

// Publish writes the whole tick in one batch.
func (s *KafkaSink) Publish(ctx context.Context, tick store.Tick) error {
	msgs, err := s.records(tick)
	if err != nil {
		return err
	}
	if len(msgs) == 0 {
		return nil
	}
	if err := s.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("write %d records: %w", len(msgs), err)
	}
	return nil
}

func (s *KafkaSink) records(tick store.Tick) ([]kafka.Message, error) {
	messages := Messages(s.source, tick)
	out := make([]kafka.Message, 0, len(messages))
	for _, msg := range messages {
		value, err := json.Marshal(msg)
		if err != nil {
			return nil, fmt.Errorf("marshal %s: %w", msg.Sensor, err)
		}
		out = append(out, kafka.Message{
			Key:   []byte(msg.Sensor),
			Value: value,
			Time:  msg.Timestamp,
			Headers: []kafka.Header{
				{Key: "source", Value: []byte(s.source)},
				{Key: "status", Value: []byte(msg.Status)},
			},
		})
	}
	return out, nil
}

func (s *KafkaSink) Close() error {
	return s.writer.Close()
}
