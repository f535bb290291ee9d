// Package sqlite provides a SQLite-backed story event log.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/AaronLay10/ArcEngine/internal/storage"
)

// Store persists story events in a local SQLite file.
type Store struct {
	db      *sql.DB
	storyID string
}

var _ storage.EventStore = (*Store)(nil)

// Open opens (creating if needed) the database at path.
func Open(path, storyID string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	dsn := filepath.Clean(path) + "?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=5000&_synchronous=NORMAL"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}

	s := &Store{db: db, storyID: storyID}
	if err := s.createTable(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create story_events table: %w", err)
	}
	return s, nil
}

func (s *Store) createTable() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS story_events (
			event_id   INTEGER PRIMARY KEY AUTOINCREMENT,
			ts         INTEGER NOT NULL,
			level      TEXT NOT NULL,
			event      TEXT NOT NULL,
			msg        TEXT,
			fields     TEXT,
			story_id   TEXT NOT NULL,
			session_id TEXT
		);
		CREATE INDEX IF NOT EXISTS idx_story_events_story_ts ON story_events(story_id, ts DESC);
	`)
	return err
}

// Append inserts an event. Timestamps are stored as Unix nanoseconds.
func (s *Store) Append(ts time.Time, level, event, msg string, fields map[string]interface{}, sessionID string) error {
	var fieldsJSON interface{}
	if fields != nil {
		b, err := json.Marshal(fields)
		if err != nil {
			return fmt.Errorf("marshal fields: %w", err)
		}
		fieldsJSON = string(b)
	}

	_, err := s.db.Exec(
		`INSERT INTO story_events (ts, level, event, msg, fields, story_id, session_id)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		ts.UTC().UnixNano(), level, event, nullable(msg), fieldsJSON, s.storyID, nullable(sessionID),
	)
	return err
}

// Query returns the last limit events of the story, newest first.
func (s *Store) Query(limit int) ([]storage.EventRow, error) {
	rows, err := s.db.Query(
		`SELECT event_id, ts, level, event, msg, fields, story_id, session_id
		 FROM story_events
		 WHERE story_id = ?
		 ORDER BY ts DESC, event_id DESC
		 LIMIT ?`,
		s.storyID, storage.ClampLimit(limit),
	)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	var out []storage.EventRow
	for rows.Next() {
		var (
			e         storage.EventRow
			ts        int64
			msg       sql.NullString
			fields    sql.NullString
			sessionID sql.NullString
		)
		if err := rows.Scan(&e.EventID, &ts, &e.Level, &e.Event, &msg, &fields, &e.StoryID, &sessionID); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		e.Timestamp = time.Unix(0, ts).UTC()
		if msg.Valid {
			e.Message = &msg.String
		}
		if sessionID.Valid {
			e.SessionID = &sessionID.String
		}
		if fields.Valid && fields.String != "" {
			if err := json.Unmarshal([]byte(fields.String), &e.Fields); err != nil {
				return nil, fmt.Errorf("unmarshal fields: %w", err)
			}
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Ping checks the database handle.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func nullable(v string) interface{} {
	if v == "" {
		return nil
	}
	return v
}
