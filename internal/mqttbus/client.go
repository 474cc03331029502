package mqttbus

import (
	"fmt"
	"log"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
)

// MessageHandler receives messages delivered on a subscribed topic.
type MessageHandler func(topic string, payload []byte)

// Bus is the publish-subscribe surface the bridge consumes. Satisfied by
// Client; tests substitute an in-memory fake.
type Bus interface {
	Subscribe(topic string, handler MessageHandler) error
	Publish(topic string, payload []byte) error
}

// Options configures the broker connection.
type Options struct {
	BrokerURLs     []string
	ClientIDPrefix string
	Username       string
	Password       string
}

// Client wraps a paho MQTT client behind the Bus interface.
type Client struct {
	client mqtt.Client
}

// Connect establishes the broker connection. The client ID carries a random
// suffix so multiple bridge instances do not kick each other off the broker.
func Connect(opts Options) (*Client, error) {
	clientOpts := mqtt.NewClientOptions()
	for _, url := range opts.BrokerURLs {
		clientOpts.AddBroker(url)
	}
	clientOpts.SetClientID(fmt.Sprintf("%s-%s", opts.ClientIDPrefix, uuid.NewString()[:8]))
	if opts.Username != "" {
		clientOpts.SetUsername(opts.Username)
	}
	if opts.Password != "" {
		clientOpts.SetPassword(opts.Password)
	}
	clientOpts.SetCleanSession(true)
	clientOpts.SetAutoReconnect(true)
	clientOpts.SetConnectTimeout(10 * time.Second)

	client := mqtt.NewClient(clientOpts)
	token := client.Connect()
	if token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("connect to MQTT broker: %w", token.Error())
	}
	log.Printf("Connected to MQTT broker(s) %v", opts.BrokerURLs)

	return &Client{client: client}, nil
}

// Subscribe registers handler for topic. Messages on a single subscription
// are delivered in arrival order.
func (c *Client) Subscribe(topic string, handler MessageHandler) error {
	token := c.client.Subscribe(topic, 0, func(_ mqtt.Client, msg mqtt.Message) {
		handler(msg.Topic(), msg.Payload())
	})
	if token.Wait() && token.Error() != nil {
		return fmt.Errorf("subscribe to %s: %w", topic, token.Error())
	}
	return nil
}

// Publish sends payload to topic at QoS 0. Failures are returned to the
// caller; there is no retry or queuing.
func (c *Client) Publish(topic string, payload []byte) error {
	token := c.client.Publish(topic, 0, false, payload)
	if token.Wait() && token.Error() != nil {
		return fmt.Errorf("publish to %s: %w", topic, token.Error())
	}
	return nil
}

// Close disconnects from the broker, allowing in-flight work to finish.
func (c *Client) Close() {
	c.client.Disconnect(250)
}
