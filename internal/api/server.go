package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/AaronLay10/ArcEngine/internal/arcscript"
	"github.com/AaronLay10/ArcEngine/internal/events"
	"github.com/AaronLay10/ArcEngine/internal/storage"
	"github.com/AaronLay10/ArcEngine/internal/story"
)

// Session is the story surface the API drives. story.Session implements it.
type Session interface {
	Current() *story.Turn
	Snapshot() story.State
	HasNode(nodeID string) bool
	Select(connectionID string) (*story.Turn, error)
	Back() (*story.Turn, error)
	Jump(nodeID string) (*story.Turn, error)
	SetVariable(name string, v arcscript.Value) error
	Reset() (*story.Turn, error)
}

var (
	sessionMu sync.RWMutex
	session   Session
)

// SetSession sets the session used by the story and operator endpoints.
func SetSession(s Session) {
	sessionMu.Lock()
	defer sessionMu.Unlock()
	session = s
}

func getSession() Session {
	sessionMu.RLock()
	defer sessionMu.RUnlock()
	return session
}

type HealthResponse struct {
	Status    string `json:"status"`
	Service   string `json:"service"`
	Hostname  string `json:"hostname"`
	Timestamp string `json:"ts"`
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	host, _ := os.Hostname()
	resp := HealthResponse{
		Status:    "ok",
		Service:   "storyd",
		Hostname:  host,
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

// eventsHandler returns the in-memory ring buffer, or the persisted log
// when ?source=store is given and a store is configured.
func eventsHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if r.URL.Query().Get("source") != "store" {
		_ = json.NewEncoder(w).Encode(events.Snapshot())
		return
	}

	s := events.GetStore()
	if s == nil {
		writeError(w, http.StatusNotFound, "no event store configured")
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	rows, err := s.Query(storage.ClampLimit(limit))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to query events")
		return
	}
	_ = json.NewEncoder(w).Encode(rows)
}

type Response struct {
	OK    bool        `json:"ok"`
	Error string      `json:"error,omitempty"`
	Turn  *story.Turn `json:"turn,omitempty"`
}

type StateResponse struct {
	Turn  *story.Turn `json:"turn"`
	State story.State `json:"state"`
}

type SelectRequest struct {
	ConnectionID string `json:"connection_id"`
}

type JumpRequest struct {
	NodeID string `json:"node_id"`
}

type SetRequest struct {
	Name  string          `json:"name"`
	Value json.RawMessage `json:"value"`
	Type  string          `json:"type,omitempty"`
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(Response{OK: false, Error: msg})
}

// writeTurn maps navigation errors to status codes.
func writeTurn(w http.ResponseWriter, turn *story.Turn, err error) {
	switch {
	case err == nil:
		_ = json.NewEncoder(w).Encode(Response{OK: true, Turn: turn})
	case errors.Is(err, story.ErrNotStarted), errors.Is(err, story.ErrNoHistory):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, story.ErrUnknownChoice):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

// handle wraps a POST-only JSON endpoint that needs the session.
func handle(fn func(w http.ResponseWriter, s Session)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		s := getSession()
		if s == nil {
			writeError(w, http.StatusServiceUnavailable, "story not loaded")
			return
		}
		fn(w, s)
	}
}

func decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return false
	}
	return true
}

func stateHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	s := getSession()
	if s == nil {
		writeError(w, http.StatusServiceUnavailable, "story not loaded")
		return
	}
	_ = json.NewEncoder(w).Encode(StateResponse{Turn: s.Current(), State: s.Snapshot()})
}

func selectHandler(w http.ResponseWriter, r *http.Request) {
	handle(func(w http.ResponseWriter, s Session) {
		var req SelectRequest
		if !decode(w, r, &req) {
			return
		}
		if req.ConnectionID == "" {
			writeError(w, http.StatusBadRequest, "connection_id required")
			return
		}
		turn, err := s.Select(req.ConnectionID)
		writeTurn(w, turn, err)
	})(w, r)
}

func backHandler(w http.ResponseWriter, r *http.Request) {
	handle(func(w http.ResponseWriter, s Session) {
		turn, err := s.Back()
		writeTurn(w, turn, err)
	})(w, r)
}

func operatorJumpHandler(w http.ResponseWriter, r *http.Request) {
	handle(func(w http.ResponseWriter, s Session) {
		var req JumpRequest
		if !decode(w, r, &req) {
			return
		}
		if req.NodeID == "" {
			writeError(w, http.StatusBadRequest, "node_id required")
			return
		}
		if !s.HasNode(req.NodeID) {
			writeError(w, http.StatusNotFound, "node not found")
			return
		}
		turn, err := s.Jump(req.NodeID)
		writeTurn(w, turn, err)
	})(w, r)
}

func operatorSetHandler(w http.ResponseWriter, r *http.Request) {
	handle(func(w http.ResponseWriter, s Session) {
		var req SetRequest
		if !decode(w, r, &req) {
			return
		}
		if req.Name == "" || len(req.Value) == 0 {
			writeError(w, http.StatusBadRequest, "name and value required")
			return
		}
		v, err := arcscript.DecodeJSON(req.Value, req.Type)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		if err := s.SetVariable(req.Name, v); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		_ = json.NewEncoder(w).Encode(Response{OK: true, Turn: s.Current()})
	})(w, r)
}

func operatorResetHandler(w http.ResponseWriter, r *http.Request) {
	handle(func(w http.ResponseWriter, s Session) {
		events.Emit("info", "operator.reset", "", map[string]interface{}{"source": "api"})
		turn, err := s.Reset()
		writeTurn(w, turn, err)
	})(w, r)
}

// NewMux builds the API routes. Operator endpoints require the operator or
// admin role when auth is enabled.
func NewMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", healthHandler)
	mux.HandleFunc("/ready", readyHandler)
	mux.HandleFunc("/metrics", metricsHandler)
	mux.HandleFunc("/events", eventsHandler)
	mux.HandleFunc("/ws/events", wsEventsHandler)
	mux.HandleFunc("/story/state", stateHandler)
	mux.HandleFunc("/story/select", selectHandler)
	mux.HandleFunc("/story/back", backHandler)
	mux.HandleFunc("/operator/jump", RequireAnyRole(operatorJumpHandler))
	mux.HandleFunc("/operator/set", RequireAnyRole(operatorSetHandler))
	mux.HandleFunc("/operator/reset", RequireAnyRole(operatorResetHandler))
	return mux
}

// ListenAndServe serves the API on the given port until ctx is cancelled,
// then shuts down gracefully. TLS is used when configured.
func ListenAndServe(ctx context.Context, port int) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           NewMux(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if tlsCfg := LoadTLSConfig(); tlsCfg != nil {
			srv.TLSConfig = tlsCfg
			log.Printf("API listening on %s (TLS)", srv.Addr)
			errCh <- srv.ListenAndServeTLS("", "")
			return
		}
		log.Printf("API listening on %s", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		// Hijacked websocket connections are not closed by Shutdown.
		events.CloseAllSubscribers()
		return srv.Shutdown(shutdownCtx)
	}
}
