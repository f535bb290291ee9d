// Package storage defines the persistent event log shared by the story
// service's backends.
package storage

import (
	"context"
	"time"
)

// EventRow is one persisted event.
type EventRow struct {
	EventID   int64                  `json:"event_id"`
	Timestamp time.Time              `json:"ts"`
	Level     string                 `json:"level"`
	Event     string                 `json:"event"`
	Message   *string                `json:"msg,omitempty"`
	Fields    map[string]interface{} `json:"fields,omitempty"`
	StoryID   string                 `json:"story_id"`
	SessionID *string                `json:"session_id,omitempty"`
}

// EventStore appends events and reads them back newest first.
type EventStore interface {
	Append(ts time.Time, level, event, msg string, fields map[string]interface{}, sessionID string) error
	Query(limit int) ([]EventRow, error)
	Close() error
}

// ClampLimit applies the default and maximum page size of Query.
func ClampLimit(limit int) int {
	if limit <= 0 {
		return 200
	}
	if limit > 10000 {
		return 10000
	}
	return limit
}

// Chronological reverses rows returned by Query in place and returns them.
func Chronological(rows []EventRow) []EventRow {
	for i, j := 0, len(rows)-1; i < j; i, j = i+1, j-1 {
		rows[i], rows[j] = rows[j], rows[i]
	}
	return rows
}

// Pinger is implemented by stores backed by a connection that can drop.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Healthy reports whether s answers a ping within the context deadline.
// Stores without a connection are always healthy; a nil store is not.
func Healthy(ctx context.Context, s EventStore) bool {
	if s == nil {
		return false
	}
	p, ok := s.(Pinger)
	if !ok {
		return true
	}
	return p.Ping(ctx) == nil
}
