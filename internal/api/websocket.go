package api

import (
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/AaronLay10/ArcEngine/internal/events"
)

const (
	// Number of recent events to replay on connection
	recentEventsCount = 50

	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 54 * time.Second // must be less than pongWait
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// eventFilter matches event names against ?events=a,b. A prefix ending in
// '.' matches a whole family, e.g. "story.".
type eventFilter []string

func parseEventFilter(q string) eventFilter {
	var f eventFilter
	for _, part := range strings.Split(q, ",") {
		if p := strings.TrimSpace(part); p != "" {
			f = append(f, p)
		}
	}
	return f
}

func (f eventFilter) match(name string) bool {
	if len(f) == 0 {
		return true
	}
	for _, p := range f {
		if p == name || (strings.HasSuffix(p, ".") && strings.HasPrefix(name, p)) {
			return true
		}
	}
	return false
}

// wsEventsHandler streams events to a websocket client: recent events
// first, then live ones.
func wsEventsHandler(w http.ResponseWriter, r *http.Request) {
	filter := parseEventFilter(r.URL.Query().Get("events"))

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}

	sub := events.Subscribe()
	closeAll := func() {
		events.Unsubscribe(sub)
		conn.Close()
	}

	send := func(e events.Event) bool {
		if !filter.match(e.Name) {
			return true
		}
		data, err := json.Marshal(e)
		if err != nil {
			return true
		}
		conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			log.Printf("ws write event failed: %v", err)
			return false
		}
		return true
	}

	for _, e := range events.RecentEvents(recentEventsCount) {
		if !send(e) {
			closeAll()
			return
		}
	}

	// The reader handles pongs and notices the client going away.
	done := make(chan struct{})
	go func() {
		defer close(done)
		conn.SetReadDeadline(time.Now().Add(pongWait))
		conn.SetPongHandler(func(string) error {
			conn.SetReadDeadline(time.Now().Add(pongWait))
			return nil
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			closeAll()
			return

		case e, ok := <-sub:
			if !ok {
				// Closed by CloseAllSubscribers on shutdown
				conn.Close()
				return
			}
			if !send(e) {
				closeAll()
				return
			}

		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				closeAll()
				return
			}
		}
	}
}
