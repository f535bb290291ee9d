package api

import (
	"fmt"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/AaronLay10/ArcEngine/internal/events"
	"github.com/AaronLay10/ArcEngine/internal/version"
)

var metricsState = &MetricsState{}

// MetricsState holds runtime metrics for the /metrics endpoint.
type MetricsState struct {
	mu        sync.RWMutex
	startTime time.Time
	storyName string
}

// InitMetrics initializes the metrics system. Must be called at startup.
func InitMetrics() {
	metricsState.mu.Lock()
	defer metricsState.mu.Unlock()
	metricsState.startTime = time.Now()
}

// SetStoryName sets the story name for metrics labels and alerts.
func SetStoryName(name string) {
	metricsState.mu.Lock()
	defer metricsState.mu.Unlock()
	metricsState.storyName = name
}

func GetStoryName() string {
	metricsState.mu.RLock()
	defer metricsState.mu.RUnlock()
	return metricsState.storyName
}

func boolGauge(b bool) int {
	if b {
		return 1
	}
	return 0
}

// metricsHandler returns Prometheus-compatible metrics in text format.
func metricsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	metricsState.mu.RLock()
	startTime := metricsState.startTime
	storyName := metricsState.storyName
	metricsState.mu.RUnlock()

	readiness.mu.RLock()
	storyReady := readiness.storyReady
	mqttConnected := readiness.mqttConnected
	storeConnected := readiness.storeConnected
	readiness.mu.RUnlock()

	ended, choices := false, 0
	if s := getSession(); s != nil {
		if turn := s.Current(); turn != nil {
			ended = turn.Ended
			choices = len(turn.Choices)
		}
	}

	hostname, _ := os.Hostname()
	if hostname == "" {
		hostname = "unknown"
	}

	w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")

	labels := fmt.Sprintf(`story=%q,instance=%q,version=%q`, storyName, hostname, version.Version)
	writeMetric := func(name, mtype, help string, value interface{}) {
		fmt.Fprintf(w, "# HELP %s %s\n", name, help)
		fmt.Fprintf(w, "# TYPE %s %s\n", name, mtype)
		fmt.Fprintf(w, "%s{%s} %v\n", name, labels, value)
	}

	writeMetric("arc_uptime_seconds", "gauge",
		"Number of seconds since the story service started", time.Since(startTime).Seconds())
	writeMetric("arc_story_active", "gauge",
		"Whether the story session is running (1) or not (0)", boolGauge(storyReady))
	writeMetric("arc_story_ended", "gauge",
		"Whether the current element is terminal (1) or not (0)", boolGauge(ended))
	writeMetric("arc_choices_available", "gauge",
		"Number of choices at the current element", choices)
	writeMetric("arc_events_total", "counter",
		"Total number of events emitted since startup", events.TotalCount())
	writeMetric("arc_mqtt_connected", "gauge",
		"Whether MQTT broker is connected (1) or not (0)", boolGauge(mqttConnected))
	writeMetric("arc_store_connected", "gauge",
		"Whether the event store is reachable (1) or not (0)", boolGauge(storeConnected))
	writeMetric("arc_ws_clients", "gauge",
		"Number of active WebSocket client connections", events.SubscriberCount())
}
