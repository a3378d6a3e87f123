package sink

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	"github.com/thermostart/otdecode/pkg/message"
)

// ErrPublishTimeout is returned when the broker does not acknowledge a
// publish within the configured timeout.
var ErrPublishTimeout = errors.New("mqtt: publish timed out")

// Publisher is the part of mqtt.Client used by the MQTT sink.
type Publisher interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
}

// MQTTOptions configures the MQTT sink and its client.
type MQTTOptions struct {
	Broker      string
	ClientID    string
	Username    string
	Password    string
	TopicPrefix string
	QoS         byte
	Retain      bool
	Timeout     time.Duration
}

// DefaultTopicPrefix is used when MQTTOptions.TopicPrefix is empty.
const DefaultTopicPrefix = "thermostart"

// DefaultPublishTimeout is used when MQTTOptions.Timeout is zero.
const DefaultPublishTimeout = 5 * time.Second

// MQTT publishes each record as flat JSON to
// <prefix>/<device_hardware_id>/parsed.
type MQTT struct {
	pub    Publisher
	opts   MQTTOptions
	client mqtt.Client
}

// NewMQTT creates an MQTT sink on top of an existing publisher. Close does
// not disconnect it.
func NewMQTT(pub Publisher, opts MQTTOptions) *MQTT {
	if opts.TopicPrefix == "" {
		opts.TopicPrefix = DefaultTopicPrefix
	}
	opts.TopicPrefix = strings.TrimSuffix(opts.TopicPrefix, "/")
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultPublishTimeout
	}
	return &MQTT{pub: pub, opts: opts}
}

// DialMQTT connects to the broker and returns an MQTT sink that owns the
// connection. A random client ID is generated when none is set.
func DialMQTT(opts MQTTOptions) (*MQTT, error) {
	if opts.Broker == "" {
		return nil, fmt.Errorf("mqtt: broker not set")
	}
	if opts.ClientID == "" {
		opts.ClientID = "otdecode-" + uuid.New().String()[:8]
	}

	co := mqtt.NewClientOptions()
	co.AddBroker(opts.Broker)
	co.SetClientID(opts.ClientID)
	co.SetUsername(opts.Username)
	co.SetPassword(opts.Password)
	co.SetAutoReconnect(true)
	co.SetConnectTimeout(10 * time.Second)

	client := mqtt.NewClient(co)
	token := client.Connect()
	if !token.WaitTimeout(15 * time.Second) {
		return nil, fmt.Errorf("mqtt: connect to %s timed out", opts.Broker)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("mqtt: connect to %s: %w", opts.Broker, err)
	}

	s := NewMQTT(client, opts)
	s.client = client
	return s, nil
}

// Topic returns the topic a record for device is published to.
func (s *MQTT) Topic(device string) string {
	if device == "" {
		device = "unknown"
	}
	return s.opts.TopicPrefix + "/" + device + "/parsed"
}

// Write implements Sink.
func (s *MQTT) Write(ctx context.Context, rec message.Record) error {
	payload, err := rec.MarshalJSON()
	if err != nil {
		return err
	}

	topic := s.Topic(rec.DeviceHardwareID)
	token := s.pub.Publish(topic, s.opts.QoS, s.opts.Retain, payload)

	timer := time.NewTimer(s.opts.Timeout)
	defer timer.Stop()

	select {
	case <-token.Done():
	case <-timer.C:
		return fmt.Errorf("%w: %s", ErrPublishTimeout, topic)
	case <-ctx.Done():
		return ctx.Err()
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("mqtt: publish %s: %w", topic, err)
	}
	return nil
}

// Close disconnects the client if the sink created it.
func (s *MQTT) Close() error {
	if s.client != nil {
		s.client.Disconnect(250)
		s.client = nil
	}
	return nil
}

var _ Sink = (*MQTT)(nil)
