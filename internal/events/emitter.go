package events

import (
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/AaronLay10/ArcEngine/internal/storage"
)

var buffer = NewRingBuffer(256)

var (
	store         storage.EventStore
	storeMu       sync.RWMutex
	storeErrorLog bool

	totalCount atomic.Int64
)

// SetStore sets the event store used for persistence. Passing nil disables
// persistence.
func SetStore(s storage.EventStore) {
	storeMu.Lock()
	store = s
	storeErrorLog = false
	storeMu.Unlock()
}

// GetStore returns the current event store (for API queries and restore).
func GetStore() storage.EventStore {
	storeMu.RLock()
	defer storeMu.RUnlock()
	return store
}

type Event struct {
	Timestamp string                 `json:"ts"`
	Level     string                 `json:"level"`
	Name      string                 `json:"event"`
	Message   string                 `json:"msg,omitempty"`
	Fields    map[string]interface{} `json:"fields,omitempty"`
}

// Emit records a named event: it is validated against the allow-list,
// kept in the ring buffer, sent to subscribers and persisted. The JSON
// encoding of the event is returned.
func Emit(level, name, msg string, fields map[string]interface{}) ([]byte, error) {
	if err := Validate(name); err != nil {
		return nil, err
	}

	ts := time.Now().UTC()
	e := Event{
		Timestamp: ts.Format(time.RFC3339Nano),
		Level:     level,
		Name:      name,
		Message:   msg,
		Fields:    fields,
	}

	buffer.Add(e)
	totalCount.Add(1)
	broadcast(e)

	storeMu.RLock()
	s := store
	storeMu.RUnlock()

	if s != nil {
		if err := s.Append(ts, level, name, msg, fields, ""); err != nil {
			logStoreError(err)
		}
	}

	b, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal event: %w", err)
	}

	return b, nil
}

// logStoreError records the first persistence failure as system.error.
// It writes to the buffer directly, never through Emit, so a failing
// store cannot recurse.
func logStoreError(err error) {
	storeMu.Lock()
	if storeErrorLog {
		storeMu.Unlock()
		return
	}
	storeErrorLog = true
	storeMu.Unlock()

	errEvent := Event{
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
		Level:     "error",
		Name:      "system.error",
		Message:   "event store append failed",
		Fields: map[string]interface{}{
			"error": err.Error(),
		},
	}
	buffer.Add(errEvent)
	totalCount.Add(1)
	broadcast(errEvent)
}

func Snapshot() []Event {
	return buffer.Snapshot()
}

// TotalCount returns the number of events recorded since startup.
func TotalCount() int64 {
	return totalCount.Load()
}

// Clear resets the event buffer. Used for testing.
func Clear() {
	buffer.Clear()
}
