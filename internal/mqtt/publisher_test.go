package mqtt

import (
	"encoding/json"
	"testing"

	"github.com/AaronLay10/ArcEngine/internal/arcscript"
	"github.com/AaronLay10/ArcEngine/internal/events"
	"github.com/AaronLay10/ArcEngine/internal/story"
)

func TestVariablePublisher(t *testing.T) {
	mock := NewMockMQTTClient()
	p := NewVariablePublisher(mock, "rooms/cellar/")

	p.VariableChanged("gold", arcscript.Int(5))

	msgs := mock.Published()
	if len(msgs) != 1 {
		t.Fatalf("expected 1 message, got %d", len(msgs))
	}
	if msgs[0].topic != "rooms/cellar/variables/gold" || !msgs[0].retained {
		t.Errorf("unexpected publication: %s retained=%v", msgs[0].topic, msgs[0].retained)
	}

	var payload map[string]interface{}
	if err := json.Unmarshal(msgs[0].payload, &payload); err != nil {
		t.Fatalf("invalid payload: %v", err)
	}
	if payload["name"] != "gold" || payload["value"] != float64(5) || payload["type"] != "integer" {
		t.Errorf("unexpected payload: %v", payload)
	}
	if payload["ts"] == "" {
		t.Error("expected timestamp")
	}
}

func TestVariablePublisherSkipsWhenDisconnected(t *testing.T) {
	mock := NewMockMQTTClient()
	mock.connected = false
	p := NewVariablePublisher(mock, "arc")

	p.VariableChanged("gold", arcscript.Int(5))
	if len(mock.Published()) != 0 {
		t.Error("expected nothing published while disconnected")
	}
}

func TestVariablePublisherReportsFailure(t *testing.T) {
	events.Clear()
	mock := NewMockMQTTClient()
	mock.failPublish = true
	p := NewVariablePublisher(mock, "arc")

	p.VariableChanged("gold", arcscript.Int(5))

	var found bool
	for _, e := range events.Snapshot() {
		if e.Name == "system.error" && e.Fields["topic"] == "arc/variables/gold" {
			found = true
		}
	}
	if !found {
		t.Error("expected system.error event")
	}
}

func TestVariablePublisherAsRuntimeSink(t *testing.T) {
	events.Clear()
	proj, err := story.ParseProject([]byte(`{
		"version": 1,
		"starting_element": "a",
		"elements": {"a": {"content": {"": "lit = true"}}},
		"variables": {"lit": {"type": "boolean", "value": false}}
	}`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	rt := story.NewRuntime(proj, story.NewLocalizer(proj, ""))
	mock := NewMockMQTTClient()
	rt.AddVariableSink(NewVariablePublisher(mock, "arc"))

	if _, err := rt.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}

	msgs := mock.Published()
	if len(msgs) != 1 || msgs[0].topic != "arc/variables/lit" {
		t.Fatalf("expected lit to be published, got %+v", msgs)
	}
	var payload map[string]interface{}
	if err := json.Unmarshal(msgs[0].payload, &payload); err != nil {
		t.Fatalf("invalid payload: %v", err)
	}
	if payload["value"] != true || payload["type"] != "boolean" {
		t.Errorf("unexpected payload: %v", payload)
	}
}
