package mqtt

import (
	"errors"
	"sync"

	paho "github.com/eclipse/paho.mqtt.golang"
)

// MockMQTTClient records subscriptions and publications.
type MockMQTTClient struct {
	mu            sync.Mutex
	subscriptions map[string]paho.MessageHandler
	subscribeN    int
	published     []publishedMessage
	connected     bool
	failPublish   bool
}

type publishedMessage struct {
	topic    string
	payload  []byte
	retained bool
}

func NewMockMQTTClient() *MockMQTTClient {
	return &MockMQTTClient{
		subscriptions: make(map[string]paho.MessageHandler),
		connected:     true,
	}
}

func (m *MockMQTTClient) Subscribe(topic string, handler paho.MessageHandler) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subscriptions[topic] = handler
	m.subscribeN++
	return nil
}

func (m *MockMQTTClient) Publish(topic string, payload []byte, retained bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failPublish {
		return errors.New("broker unavailable")
	}
	m.published = append(m.published, publishedMessage{topic: topic, payload: payload, retained: retained})
	return nil
}

func (m *MockMQTTClient) IsConnected() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.connected
}

func (m *MockMQTTClient) Published() []publishedMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]publishedMessage(nil), m.published...)
}

// SimulateMessage delivers payload to the handler subscribed on pattern.
func (m *MockMQTTClient) SimulateMessage(pattern, topic string, payload []byte) bool {
	m.mu.Lock()
	handler, ok := m.subscriptions[pattern]
	m.mu.Unlock()
	if ok {
		handler(nil, &mockMessage{topic: topic, payload: payload})
	}
	return ok
}

type mockMessage struct {
	topic   string
	payload []byte
}

func (m *mockMessage) Duplicate() bool   { return false }
func (m *mockMessage) Qos() byte         { return 1 }
func (m *mockMessage) Retained() bool    { return false }
func (m *mockMessage) Topic() string     { return m.topic }
func (m *mockMessage) MessageID() uint16 { return 0 }
func (m *mockMessage) Payload() []byte   { return m.payload }
func (m *mockMessage) Ack()              {}
