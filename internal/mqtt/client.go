package mqtt

import (
	"log"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
)

// DefaultBrokerURL is used when MQTT_URL is not set.
const DefaultBrokerURL = "tcp://localhost:1883"

const (
	connectTimeout   = 10 * time.Second
	operationTimeout = 10 * time.Second
)

// Client wraps the Paho MQTT client for the story service.
type Client struct {
	client    paho.Client
	brokerURL string

	mu        sync.Mutex
	onConnect []func()
}

// NewClient creates a new MQTT client but does not connect. An empty
// brokerURL uses DefaultBrokerURL.
func NewClient(brokerURL, clientID string) *Client {
	if brokerURL == "" {
		brokerURL = DefaultBrokerURL
	}
	c := &Client{brokerURL: brokerURL}

	opts := paho.NewClientOptions().
		AddBroker(brokerURL).
		SetClientID(clientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second).
		SetKeepAlive(30 * time.Second).
		SetOnConnectHandler(func(paho.Client) { c.connected() }).
		SetConnectionLostHandler(func(_ paho.Client, err error) {
			log.Printf("mqtt: connection lost: %v", err)
		})

	c.client = paho.NewClient(opts)
	return c
}

// BrokerURL returns the broker the client connects to.
func (c *Client) BrokerURL() string {
	return c.brokerURL
}

// OnConnect registers fn to run after every successful (re)connect.
// Subscriptions are restored this way since the session is not persistent.
func (c *Client) OnConnect(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onConnect = append(c.onConnect, fn)
}

func (c *Client) connected() {
	c.mu.Lock()
	fns := append([]func(){}, c.onConnect...)
	c.mu.Unlock()
	for _, fn := range fns {
		go fn()
	}
}

// Connect attempts to connect to the broker.
// Returns an error if connection fails, but does not block indefinitely.
func (c *Client) Connect() error {
	token := c.client.Connect()
	if !token.WaitTimeout(connectTimeout) {
		return &TimeoutError{Op: "connect", Topic: c.brokerURL}
	}
	return token.Error()
}

// Subscribe subscribes to a topic with QoS 1.
func (c *Client) Subscribe(topic string, handler paho.MessageHandler) error {
	token := c.client.Subscribe(topic, 1, handler)
	if !token.WaitTimeout(operationTimeout) {
		return &TimeoutError{Op: "subscribe", Topic: topic}
	}
	return token.Error()
}

// Publish sends payload with QoS 1.
func (c *Client) Publish(topic string, payload []byte, retained bool) error {
	token := c.client.Publish(topic, 1, retained, payload)
	if !token.WaitTimeout(operationTimeout) {
		return &TimeoutError{Op: "publish", Topic: topic}
	}
	return token.Error()
}

// Disconnect cleanly disconnects from the broker.
func (c *Client) Disconnect() {
	c.client.Disconnect(1000)
}

// IsConnected returns true if the client is connected.
func (c *Client) IsConnected() bool {
	return c.client.IsConnected()
}

// TimeoutError indicates a broker operation did not complete in time.
type TimeoutError struct {
	Op    string
	Topic string
}

func (e *TimeoutError) Error() string {
	return "mqtt " + e.Op + " timeout: " + e.Topic
}

// Start connects, logging the failure rather than returning it. The client
// keeps retrying in the background and OnConnect handlers run once it
// succeeds. Returns true if connected now.
func (c *Client) Start() bool {
	if err := c.Connect(); err != nil {
		log.Printf("mqtt: failed to connect to %s: %v", c.brokerURL, err)
		return false
	}
	log.Printf("mqtt: connected to %s", c.brokerURL)
	return true
}
