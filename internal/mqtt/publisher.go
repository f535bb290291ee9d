package mqtt

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/AaronLay10/ArcEngine/internal/arcscript"
	"github.com/AaronLay10/ArcEngine/internal/events"
	"github.com/AaronLay10/ArcEngine/internal/story"
)

// Publisher is the publishing side of a broker connection.
type Publisher interface {
	Publish(topic string, payload []byte, retained bool) error
	IsConnected() bool
}

// VariableMessage is the payload published for a variable change.
type VariableMessage struct {
	Name      string          `json:"name"`
	Value     arcscript.Value `json:"value"`
	Type      string          `json:"type"`
	Timestamp string          `json:"ts"`
}

// VariablePublisher mirrors story variables to retained topics
// <prefix>/variables/<name> so props and dashboards see the latest value on
// subscribe.
type VariablePublisher struct {
	client Publisher
	prefix string
}

var _ story.VariableSink = (*VariablePublisher)(nil)

func NewVariablePublisher(client Publisher, prefix string) *VariablePublisher {
	return &VariablePublisher{client: client, prefix: strings.TrimSuffix(prefix, "/")}
}

// Topic returns the topic a variable is published on.
func (p *VariablePublisher) Topic(name string) string {
	return p.prefix + "/variables/" + name
}

// VariableChanged implements story.VariableSink. Changes made while the
// broker is unreachable are dropped; the retained value catches up on the
// next change.
func (p *VariablePublisher) VariableChanged(name string, value arcscript.Value) {
	if !p.client.IsConnected() {
		return
	}

	payload, err := json.Marshal(VariableMessage{
		Name:      name,
		Value:     value,
		Type:      value.Kind().String(),
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
	})
	if err != nil {
		return
	}

	topic := p.Topic(name)
	if err := p.client.Publish(topic, payload, true); err != nil {
		events.Emit("error", "system.error", "failed to publish variable", map[string]interface{}{
			"topic": topic,
			"error": err.Error(),
		})
	}
}
