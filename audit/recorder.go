// Package audit persists every emitted market and token event to a sqlite
// database so operators can reconstruct settlement history offline.
package audit

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	_ "github.com/glebarez/sqlite"

	"sftmarket/core/events"
)

const schema = `
CREATE TABLE IF NOT EXISTS audit_events (
    id          INTEGER PRIMARY KEY AUTOINCREMENT,
    event_type  TEXT NOT NULL,
    attributes  TEXT NOT NULL,
    recorded_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_audit_events_type ON audit_events(event_type);
`

// ErrPathRequired is returned when the backing store path is missing.
var ErrPathRequired = errors.New("audit storage path must be configured")

// Recorder is an events.Emitter that writes each event to sqlite and then
// forwards it to the next emitter in the chain. Persistence failures are
// logged, never surfaced: the audit trail must not fail a settlement.
type Recorder struct {
	db   *sql.DB
	next events.Emitter
	now  func() time.Time
}

// Open initialises the audit store at the sqlite-compatible DSN.
func Open(path string, next events.Emitter) (*Recorder, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return nil, ErrPathRequired
	}
	db, err := sql.Open("sqlite", trimmed)
	if err != nil {
		return nil, fmt.Errorf("open audit database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply audit schema: %w", err)
	}
	if next == nil {
		next = events.NoopEmitter{}
	}
	return &Recorder{db: db, next: next, now: time.Now}, nil
}

// Close releases database resources.
func (r *Recorder) Close() error {
	if r == nil || r.db == nil {
		return nil
	}
	return r.db.Close()
}

func (r *Recorder) Emit(evt events.Event) {
	if r != nil && r.db != nil && evt != nil {
		r.record(evt)
	}
	if r != nil && r.next != nil {
		r.next.Emit(evt)
	}
}

func (r *Recorder) record(evt events.Event) {
	attributes := map[string]string{}
	if payload, ok := evt.(events.Payload); ok {
		if decoded := payload.Event(); decoded != nil {
			attributes = decoded.Attributes
		}
	}
	encoded, err := json.Marshal(attributes)
	if err != nil {
		slog.Warn("audit: encode attributes", "type", evt.EventType(), "error", err)
		return
	}
	_, err = r.db.Exec(
		`INSERT INTO audit_events(event_type, attributes, recorded_at) VALUES(?, ?, ?)`,
		evt.EventType(), string(encoded), r.now().Unix(),
	)
	if err != nil {
		slog.Warn("audit: record event", "type", evt.EventType(), "error", err)
	}
}

// Record is a stored audit row.
type Record struct {
	ID         int64
	EventType  string
	Attributes map[string]string
	RecordedAt time.Time
}

// Recent returns up to limit events, newest first.
func (r *Recorder) Recent(limit int) ([]Record, error) {
	if r == nil || r.db == nil {
		return nil, fmt.Errorf("audit storage not configured")
	}
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.Query(
		`SELECT id, event_type, attributes, recorded_at FROM audit_events ORDER BY id DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query audit events: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var (
			record  Record
			attrs   string
			stamped int64
		)
		if err := rows.Scan(&record.ID, &record.EventType, &attrs, &stamped); err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		if err := json.Unmarshal([]byte(attrs), &record.Attributes); err != nil {
			return nil, fmt.Errorf("decode audit attributes: %w", err)
		}
		record.RecordedAt = time.Unix(stamped, 0)
		records = append(records, record)
	}
	return records, rows.Err()
}
