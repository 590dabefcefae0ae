package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// DefaultConnectTimeout bounds the initial broker connection.
const DefaultConnectTimeout = 10 * time.Second

// MQTTOptions configure the MQTT publisher.
type MQTTOptions struct {
	// Broker is a URL such as tcp://localhost:1883.
	Broker   string
	ClientID string
	Topic    string
	Username string
	Password string
	// QoS is the publish quality of service, 0 by default.
	QoS byte
}

// client is the part of mqtt.Client the publisher uses.
type client interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
	Disconnect(quiesce uint)
}

// MQTT publishes events as JSON messages on a single topic.
type MQTT struct {
	client client
	topic  string
	qos    byte
}

// NewMQTT connects to the broker and returns a publisher. The client
// reconnects on its own after the first successful connection.
func NewMQTT(opts MQTTOptions) (*MQTT, error) {
	if opts.Broker == "" {
		return nil, fmt.Errorf("MQTT broker is required")
	}
	if opts.Topic == "" {
		return nil, fmt.Errorf("MQTT topic is required")
	}

	co := mqtt.NewClientOptions().
		AddBroker(opts.Broker).
		SetClientID(opts.ClientID).
		SetAutoReconnect(true).
		SetConnectTimeout(DefaultConnectTimeout)
	if opts.Username != "" {
		co.SetUsername(opts.Username)
		co.SetPassword(opts.Password)
	}

	c := mqtt.NewClient(co)
	if err := connect(c, DefaultConnectTimeout); err != nil {
		return nil, fmt.Errorf("failed to connect to MQTT broker %s: %w", opts.Broker, err)
	}

	return newMQTT(c, opts.Topic, opts.QoS), nil
}

// connector is the part of mqtt.Client used to open a connection.
type connector interface {
	Connect() mqtt.Token
	Disconnect(quiesce uint)
}

// connect waits up to timeout for the first connection. On failure the
// client is disconnected so no reconnect loop is left running.
func connect(c connector, timeout time.Duration) error {
	token := c.Connect()
	if !token.WaitTimeout(timeout) {
		c.Disconnect(0)
		return fmt.Errorf("timeout after %s", timeout)
	}
	if err := token.Error(); err != nil {
		c.Disconnect(0)
		return err
	}
	return nil
}

func newMQTT(c client, topic string, qos byte) *MQTT {
	return &MQTT{client: c, topic: topic, qos: qos}
}

// Publish sends ev and waits for the broker acknowledgement or ctx.
func (m *MQTT) Publish(ctx context.Context, ev Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}

	token := m.client.Publish(m.topic, m.qos, false, payload)
	select {
	case <-token.Done():
		if err := token.Error(); err != nil {
			return fmt.Errorf("failed to publish to %s: %w", m.topic, err)
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close disconnects, allowing 250ms for in-flight messages.
func (m *MQTT) Close() error {
	m.client.Disconnect(250)
	return nil
}
