package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/AaronLay10/ArcEngine/internal/events"
)

// waitFor polls a condition until it returns true or timeout expires.
func waitFor(t *testing.T, timeout time.Duration, condition func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if condition() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Errorf("timeout waiting for: %s", msg)
}

func dialEvents(t *testing.T, query string) (*websocket.Conn, func()) {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(wsEventsHandler))
	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + query

	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		server.Close()
		t.Fatalf("failed to connect: %v", err)
	}
	return conn, func() {
		conn.Close()
		server.Close()
	}
}

func readEvent(t *testing.T, conn *websocket.Conn) events.Event {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("failed to read message: %v", err)
	}
	var e events.Event
	if err := json.Unmarshal(msg, &e); err != nil {
		t.Fatalf("failed to unmarshal event: %v", err)
	}
	return e
}

func TestWebSocketReceivesRecentEvents(t *testing.T) {
	clearTLSEnv(t)
	events.Clear()

	for i := 0; i < 5; i++ {
		events.Emit("info", "node.entered", "", map[string]interface{}{"i": i})
	}

	conn, done := dialEvents(t, "")
	defer done()

	for i := 0; i < 5; i++ {
		if e := readEvent(t, conn); e.Name != "node.entered" {
			t.Errorf("expected 'node.entered', got '%s'", e.Name)
		}
	}
}

func TestWebSocketReceivesNewEvents(t *testing.T) {
	clearTLSEnv(t)
	events.Clear()

	conn, done := dialEvents(t, "")
	defer done()

	go func() {
		time.Sleep(50 * time.Millisecond)
		events.Emit("info", "choice.selected", "", map[string]interface{}{"connection_id": "c_cellar"})
	}()

	e := readEvent(t, conn)
	if e.Name != "choice.selected" {
		t.Errorf("expected 'choice.selected', got '%s'", e.Name)
	}
	if e.Fields["connection_id"] != "c_cellar" {
		t.Errorf("expected connection_id 'c_cellar', got '%v'", e.Fields["connection_id"])
	}
}

func TestWebSocketEventFilter(t *testing.T) {
	clearTLSEnv(t)
	events.Clear()

	events.Emit("info", "node.entered", "", nil)
	events.Emit("info", "story.started", "", nil)

	conn, done := dialEvents(t, "?events=story.,variable.changed")
	defer done()

	if e := readEvent(t, conn); e.Name != "story.started" {
		t.Errorf("expected replayed 'story.started', got '%s'", e.Name)
	}

	go func() {
		time.Sleep(50 * time.Millisecond)
		events.Emit("info", "choice.selected", "", nil)
		events.Emit("info", "variable.changed", "", map[string]interface{}{"name": "gold"})
	}()

	if e := readEvent(t, conn); e.Name != "variable.changed" {
		t.Errorf("expected 'variable.changed', got '%s'", e.Name)
	}
}

func TestParseEventFilter(t *testing.T) {
	f := parseEventFilter(" story. , node.back,,")
	if len(f) != 2 {
		t.Fatalf("expected 2 entries, got %v", f)
	}

	tests := []struct {
		name string
		want bool
	}{
		{"story.started", true},
		{"story.reset", true},
		{"node.back", true},
		{"node.entered", false},
		{"storyline", false},
	}
	for _, tt := range tests {
		if got := f.match(tt.name); got != tt.want {
			t.Errorf("match(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
	if !parseEventFilter("").match("anything") {
		t.Error("empty filter should match everything")
	}
}

func TestWebSocketDisconnectCleansUp(t *testing.T) {
	clearTLSEnv(t)
	events.Clear()
	events.CloseAllSubscribers()

	conn, done := dialEvents(t, "")
	defer done()

	go func() {
		time.Sleep(20 * time.Millisecond)
		events.Emit("info", "node.entered", "", map[string]interface{}{"test": "cleanup"})
	}()
	if e := readEvent(t, conn); e.Name != "node.entered" {
		t.Errorf("expected 'node.entered', got '%s'", e.Name)
	}

	conn.Close()

	waitFor(t, 5*time.Second, func() bool {
		return events.SubscriberCount() == 0
	}, "subscriber count to return to 0 after close")
}

func TestWebSocketMultipleClients(t *testing.T) {
	clearTLSEnv(t)
	events.Clear()

	conn1, done1 := dialEvents(t, "")
	defer done1()
	conn2, done2 := dialEvents(t, "")
	defer done2()

	go func() {
		time.Sleep(50 * time.Millisecond)
		events.Emit("info", "story.ended", "", map[string]interface{}{"node_id": "e_garden"})
	}()

	if e := readEvent(t, conn1); e.Name != "story.ended" {
		t.Errorf("client1: expected 'story.ended', got '%s'", e.Name)
	}
	if e := readEvent(t, conn2); e.Name != "story.ended" {
		t.Errorf("client2: expected 'story.ended', got '%s'", e.Name)
	}
}
