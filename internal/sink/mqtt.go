package sink

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	"github.com/jpalmerr/sensorboard/internal/store"
)

const (
	defaultTopicPrefix    = "sensorboard"
	defaultConnectTimeout = 10 * time.Second
	disconnectQuiesce     = 250 // milliseconds
)

// MQTTConfig configures an [MQTTSink].
type MQTTConfig struct {
	// Broker is the broker URL, e.g. tcp://localhost:1883.
	Broker string

	// ClientID defaults to "sensorboard-<source>".
	ClientID string

	Username string
	Password string

	// TopicPrefix defaults to "sensorboard". Messages go to <prefix>/<sensor-id>.
	TopicPrefix string

	// QoS is 0, 1 or 2.
	QoS byte

	Retained bool

	// ConnectTimeout defaults to 10s.
	ConnectTimeout time.Duration

	// Source identifies this board in every message. Defaults to a random UUID.
	Source string
}

// MQTTSink publishes one JSON message per sensor per tick.
type MQTTSink struct {
	client mqtt.Client
	cfg    MQTTConfig
	logger *slog.Logger
}

// NewMQTTSink connects to the broker and returns a ready sink.
func NewMQTTSink(cfg MQTTConfig, logger *slog.Logger) (*MQTTSink, error) {
	if strings.TrimSpace(cfg.Broker) == "" {
		return nil, errors.New("mqtt broker cannot be empty")
	}
	if cfg.QoS > 2 {
		return nil, fmt.Errorf("mqtt qos must be 0, 1 or 2, got %d", cfg.QoS)
	}
	cfg = cfg.withDefaults()
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("sink", "mqtt", "broker", cfg.Broker)

	opts := mqtt.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(cfg.ClientID).
		SetConnectTimeout(cfg.ConnectTimeout).
		SetAutoReconnect(true).
		SetConnectionLostHandler(func(_ mqtt.Client, err error) {
			logger.Warn("mqtt connection lost", "error", err)
		}).
		SetOnConnectHandler(func(mqtt.Client) {
			logger.Debug("mqtt connected")
		})
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
		opts.SetPassword(cfg.Password)
	}

	client := mqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(cfg.ConnectTimeout) {
		client.Disconnect(0)
		return nil, fmt.Errorf("mqtt connect to %s: timed out after %s", cfg.Broker, cfg.ConnectTimeout)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("mqtt connect to %s: %w", cfg.Broker, err)
	}

	return &MQTTSink{client: client, cfg: cfg, logger: logger}, nil
}

func (c MQTTConfig) withDefaults() MQTTConfig {
	if c.Source == "" {
		c.Source = uuid.NewString()
	}
	if c.ClientID == "" {
		c.ClientID = "sensorboard-" + c.Source
	}
	if c.TopicPrefix == "" {
		c.TopicPrefix = defaultTopicPrefix
	}
	c.TopicPrefix = strings.TrimRight(c.TopicPrefix, "/")
	if c.ConnectTimeout <= 0 {
		c.ConnectTimeout = defaultConnectTimeout
	}
	return c
}

// Topic returns the topic readings for sensorID are published on.
func (s *MQTTSink) Topic(sensorID string) string {
	return s.cfg.TopicPrefix + "/" + sensorID
}

func (s *MQTTSink) Name() string {
	return "mqtt"
}

// Publish sends every sensor of the tick and waits for the broker to
// acknowledge each message (for QoS > 0) or for ctx to end.
func (s *MQTTSink) Publish(ctx context.Context, tick store.Tick) error {
	for _, msg := range Messages(s.cfg.Source, tick) {
		payload, err := json.Marshal(msg)
		if err != nil {
			return fmt.Errorf("marshal %s: %w", msg.Sensor, err)
		}

		token := s.client.Publish(s.Topic(msg.Sensor), s.cfg.QoS, s.cfg.Retained, payload)
		select {
		case <-token.Done():
			if err := token.Error(); err != nil {
				return fmt.Errorf("publish %s: %w", msg.Sensor, err)
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

func (s *MQTTSink) Close() error {
	s.client.Disconnect(disconnectQuiesce)
	return nil
}
