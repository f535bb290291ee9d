package mqtt

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/AaronLay10/ArcEngine/internal/arcscript"
	"github.com/AaronLay10/ArcEngine/internal/events"
	"github.com/AaronLay10/ArcEngine/internal/story"
)

// Subscriber is the subscribing side of a broker connection.
type Subscriber interface {
	Subscribe(topic string, handler paho.MessageHandler) error
}

// Commander is the story surface external commands drive. story.Session
// implements it.
type Commander interface {
	Select(connectionID string) (*story.Turn, error)
	Back() (*story.Turn, error)
	Jump(nodeID string) (*story.Turn, error)
	SetVariable(name string, v arcscript.Value) error
	Reset() (*story.Turn, error)
}

// Command is the JSON payload of a command message. Which fields apply
// depends on the command topic.
type Command struct {
	ConnectionID string          `json:"connection_id"`
	NodeID       string          `json:"node_id"`
	Name         string          `json:"name"`
	Value        json.RawMessage `json:"value"`
	Type         string          `json:"type"`
}

var errMissingField = errors.New("missing field")

// CommandSubscriber applies commands published on <prefix>/commands/<cmd>,
// where cmd is one of select, back, jump, set or reset.
type CommandSubscriber struct {
	client    Subscriber
	commander Commander
	prefix    string

	mu         sync.Mutex
	subscribed bool
}

func NewCommandSubscriber(client Subscriber, commander Commander, prefix string) *CommandSubscriber {
	return &CommandSubscriber{
		client:    client,
		commander: commander,
		prefix:    strings.TrimSuffix(prefix, "/"),
	}
}

// Topic returns the wildcard topic the subscriber listens on.
func (s *CommandSubscriber) Topic() string {
	return s.prefix + "/commands/#"
}

// Subscribe subscribes to the command topic. It is idempotent until
// ClearSubscriptions is called.
func (s *CommandSubscriber) Subscribe() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.subscribed {
		return nil
	}
	if err := s.client.Subscribe(s.Topic(), s.handle); err != nil {
		return err
	}
	s.subscribed = true
	return nil
}

// IsSubscribed reports whether the command topic is subscribed.
func (s *CommandSubscriber) IsSubscribed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.subscribed
}

// ClearSubscriptions forgets the subscription so the next Subscribe call
// subscribes again. Call this when a new broker session starts.
func (s *CommandSubscriber) ClearSubscriptions() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subscribed = false
}

// Resubscribe is the OnConnect hook: clean sessions lose subscriptions.
func (s *CommandSubscriber) Resubscribe() {
	s.ClearSubscriptions()
	if err := s.Subscribe(); err != nil {
		events.Emit("error", "system.error", "failed to subscribe to commands", map[string]interface{}{
			"topic": s.Topic(),
			"error": err.Error(),
		})
	}
}

func (s *CommandSubscriber) handle(_ paho.Client, msg paho.Message) {
	cmd := strings.TrimPrefix(msg.Topic(), s.prefix+"/commands/")
	if err := s.Apply(cmd, msg.Payload()); err != nil {
		events.Emit("error", "system.error", "mqtt command failed", map[string]interface{}{
			"topic":   msg.Topic(),
			"command": cmd,
			"error":   err.Error(),
		})
	}
}

// Apply runs one command. An empty payload is accepted for commands that
// take no arguments.
func (s *CommandSubscriber) Apply(cmd string, payload []byte) error {
	var c Command
	if len(payload) > 0 {
		if err := json.Unmarshal(payload, &c); err != nil {
			return fmt.Errorf("invalid payload: %w", err)
		}
	}

	switch cmd {
	case "select":
		if c.ConnectionID == "" {
			return fmt.Errorf("%w: connection_id", errMissingField)
		}
		_, err := s.commander.Select(c.ConnectionID)
		return err

	case "back":
		_, err := s.commander.Back()
		return err

	case "jump":
		if c.NodeID == "" {
			return fmt.Errorf("%w: node_id", errMissingField)
		}
		_, err := s.commander.Jump(c.NodeID)
		return err

	case "set":
		if c.Name == "" {
			return fmt.Errorf("%w: name", errMissingField)
		}
		if len(c.Value) == 0 {
			return fmt.Errorf("%w: value", errMissingField)
		}
		v, err := arcscript.DecodeJSON(c.Value, c.Type)
		if err != nil {
			return err
		}
		return s.commander.SetVariable(c.Name, v)

	case "reset":
		events.Emit("info", "operator.reset", "", map[string]interface{}{"source": "mqtt"})
		_, err := s.commander.Reset()
		return err

	default:
		return fmt.Errorf("unknown command: %q", cmd)
	}
}
