// Package publish forwards recognized gestures to an MQTT broker.
package publish

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/ayusman/vitruvius/internal/gesture"
	"github.com/ayusman/vitruvius/internal/skeleton"
)

// ErrNotConnected is returned when publishing while the broker is unreachable.
var ErrNotConnected = errors.New("mqtt client is not connected")

// Publisher sends gesture events and joint data to subscribers.
type Publisher interface {
	Publish(ctx context.Context, e gesture.Event) error
	PublishJoints(ctx context.Context, joints map[string]skeleton.JointRecord) error
	Close()
}

// Config holds configuration options for the MQTT publisher.
type Config struct {
	// Broker is the broker URL, e.g. "tcp://localhost:1883".
	Broker string

	// Topic receives one message per gesture with its name as payload.
	Topic string

	// JointTopic receives the serialized joints of the tracked body.
	JointTopic string

	// ClientID identifies the connection. A random id is used when empty.
	ClientID string

	// QoS is the MQTT quality of service level (0-2).
	QoS byte

	// ConnectTimeout bounds the initial connection attempt.
	ConnectTimeout time.Duration
}

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() Config {
	return Config{
		Broker:         "tcp://192.168.86.37:1883",
		Topic:          "gestures",
		JointTopic:     "skeleton",
		ConnectTimeout: 5 * time.Second,
	}
}

// Client is the subset of the paho client used by MQTTPublisher.
type Client interface {
	Connect() mqtt.Token
	IsConnectionOpen() bool
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
	Disconnect(quiesce uint)
}

// MQTTPublisher implements Publisher over MQTT.
type MQTTPublisher struct {
	config Config
	client Client
}

// NewMQTTPublisher creates a publisher for the configured broker. The
// client reconnects on its own after connection loss.
func NewMQTTPublisher(config Config) *MQTTPublisher {
	if config.ClientID == "" {
		config.ClientID = "vitruvius-" + uuid.NewString()
	}

	opts := mqtt.NewClientOptions().
		AddBroker(config.Broker).
		SetClientID(config.ClientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second).
		SetOnConnectHandler(func(mqtt.Client) {
			log.Info().Str("broker", config.Broker).Str("client_id", config.ClientID).Msg("connected to mqtt broker")
		}).
		SetConnectionLostHandler(func(_ mqtt.Client, err error) {
			log.Warn().Err(err).Str("broker", config.Broker).Msg("mqtt connection lost")
		})

	return newMQTTPublisher(config, mqtt.NewClient(opts))
}

func newMQTTPublisher(config Config, client Client) *MQTTPublisher {
	def := DefaultConfig()
	if config.Topic == "" {
		config.Topic = def.Topic
	}
	if config.JointTopic == "" {
		config.JointTopic = def.JointTopic
	}
	if config.ConnectTimeout <= 0 {
		config.ConnectTimeout = def.ConnectTimeout
	}
	return &MQTTPublisher{config: config, client: client}
}

// Connect starts connecting to the broker and waits up to ConnectTimeout.
// On timeout the client keeps retrying in the background.
func (p *MQTTPublisher) Connect(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, p.config.ConnectTimeout)
	defer cancel()

	if err := wait(ctx, p.client.Connect()); err != nil {
		return fmt.Errorf("connect to %s: %w", p.config.Broker, err)
	}
	return nil
}

// Publish sends the gesture name on the gesture topic.
func (p *MQTTPublisher) Publish(ctx context.Context, e gesture.Event) error {
	return p.publish(ctx, p.config.Topic, []byte(e.Gesture.Topic()))
}

// PublishJoints sends the joints as JSON on the joint topic.
func (p *MQTTPublisher) PublishJoints(ctx context.Context, joints map[string]skeleton.JointRecord) error {
	payload, err := json.Marshal(joints)
	if err != nil {
		return fmt.Errorf("encode joints: %w", err)
	}
	return p.publish(ctx, p.config.JointTopic, payload)
}

func (p *MQTTPublisher) publish(ctx context.Context, topic string, payload []byte) error {
	if !p.client.IsConnectionOpen() {
		return ErrNotConnected
	}
	if err := wait(ctx, p.client.Publish(topic, p.config.QoS, false, payload)); err != nil {
		return fmt.Errorf("publish to %s: %w", topic, err)
	}
	return nil
}

// Close disconnects from the broker, allowing 250ms for in-flight messages.
func (p *MQTTPublisher) Close() {
	p.client.Disconnect(250)
}

// wait blocks until the token completes or ctx is done.
func wait(ctx context.Context, token mqtt.Token) error {
	select {
	case <-token.Done():
		return token.Error()
	case <-ctx.Done():
		return ctx.Err()
	}
}
