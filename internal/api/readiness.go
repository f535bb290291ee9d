package api

import (
	"encoding/json"
	"net/http"
	"sort"
	"strings"
	"sync"
)

var readiness = &readinessState{}

// readinessState tracks the dependencies /ready reports on.
type readinessState struct {
	mu             sync.RWMutex
	storyReady     bool
	mqttConnected  bool
	mqttOptional   bool
	storeConnected bool
	storeOptional  bool
}

// SetStoryReady marks the story session as started (or restored).
func SetStoryReady(ready bool) {
	readiness.mu.Lock()
	defer readiness.mu.Unlock()
	readiness.storyReady = ready
}

// SetMQTTState records broker connectivity. An optional dependency does
// not fail readiness when it is down.
func SetMQTTState(connected, optional bool) {
	readiness.mu.Lock()
	defer readiness.mu.Unlock()
	readiness.mqttConnected = connected
	readiness.mqttOptional = optional
}

// SetStoreState records event store connectivity.
func SetStoreState(connected, optional bool) {
	readiness.mu.Lock()
	defer readiness.mu.Unlock()
	readiness.storeConnected = connected
	readiness.storeOptional = optional
}

type CheckResult struct {
	Status   string `json:"status"`
	Optional bool   `json:"optional,omitempty"`
}

type ReadinessResponse struct {
	Ready       bool                   `json:"ready"`
	Checks      map[string]CheckResult `json:"checks"`
	NotReadyMsg string                 `json:"message,omitempty"`
}

func dependencyCheck(connected, optional bool) CheckResult {
	switch {
	case connected:
		return CheckResult{Status: "ok", Optional: optional}
	case optional:
		return CheckResult{Status: "unavailable", Optional: true}
	default:
		return CheckResult{Status: "not_ready"}
	}
}

func readyHandler(w http.ResponseWriter, r *http.Request) {
	readiness.mu.RLock()
	checks := map[string]CheckResult{
		"story": dependencyCheck(readiness.storyReady, false),
		"mqtt":  dependencyCheck(readiness.mqttConnected, readiness.mqttOptional),
		"store": dependencyCheck(readiness.storeConnected, readiness.storeOptional),
	}
	readiness.mu.RUnlock()

	var reasons []string
	for name, c := range checks {
		if c.Status == "not_ready" {
			reasons = append(reasons, name+" not ready")
		}
	}
	sort.Strings(reasons)

	resp := ReadinessResponse{
		Ready:       len(reasons) == 0,
		Checks:      checks,
		NotReadyMsg: strings.Join(reasons, "; "),
	}

	w.Header().Set("Content-Type", "application/json")
	if !resp.Ready {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	_ = json.NewEncoder(w).Encode(resp)
}
