package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	// Registers the pure-Go "sqlite" driver.
	_ "modernc.org/sqlite"

	"github.com/whistle-ai/whistle/internal/config"
	"github.com/whistle-ai/whistle/internal/domain/anomaly"
)

// DefaultLimit is how many events a listing returns when no limit is given.
const DefaultLimit = 20

// schema holds detection events; timestamps are stored as RFC 3339 text.
const schema = `
CREATE TABLE IF NOT EXISTS events (
	id         TEXT PRIMARY KEY,
	created_at TEXT NOT NULL,
	source     TEXT NOT NULL,
	entry      TEXT NOT NULL,
	reason     TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS events_created_at ON events (created_at);
`

// errEventIncomplete is returned when a recorded event misses required fields.
var errEventIncomplete = errors.New("event must have an ID and a timestamp")

// Repository defines persistence operations for detection events.
type Repository interface {
	Record(ctx context.Context, event *anomaly.Event) error
	Recent(ctx context.Context, limit int) ([]*anomaly.Event, error)
	Close() error
}

// SQLiteRepository persists detection events in a local SQLite database file.
type SQLiteRepository struct {
	// db is the underlying database handle.
	db *sql.DB
}

var _ Repository = (*SQLiteRepository)(nil)

// Open creates the database file (and its directory) if needed and prepares the schema.
func Open(path string) (*SQLiteRepository, error) {
	path = filepath.Clean(path)
	if err := os.MkdirAll(filepath.Dir(path), config.DefaultDirPermissions); err != nil {
		return nil, fmt.Errorf("create history directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open history database: %w", err)
	}

	// A single connection serializes writers; the monitor loop is the only
	// frequent one anyway.
	db.SetMaxOpenConns(1)

	if _, err = db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("prepare history schema: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

// Record inserts one detection event.
func (r *SQLiteRepository) Record(ctx context.Context, event *anomaly.Event) error {
	if event == nil || event.ID == "" || event.Timestamp.IsZero() {
		return errEventIncomplete
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO events (id, created_at, source, entry, reason) VALUES (?, ?, ?, ?, ?)`,
		event.ID,
		event.Timestamp.UTC().Format(time.RFC3339Nano),
		string(event.Source),
		event.Entry,
		event.Reason,
	)
	if err != nil {
		return fmt.Errorf("insert event: %w", err)
	}

	return nil
}

// Recent returns up to limit events, newest first.
func (r *SQLiteRepository) Recent(ctx context.Context, limit int) ([]*anomaly.Event, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT id, created_at, source, entry, reason FROM events ORDER BY created_at DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}

	defer func() {
		_ = rows.Close()
	}()

	var events []*anomaly.Event

	for rows.Next() {
		var (
			event     anomaly.Event
			createdAt string
			source    string
		)

		if err = rows.Scan(&event.ID, &createdAt, &source, &event.Entry, &event.Reason); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}

		event.Timestamp, err = time.Parse(time.RFC3339Nano, createdAt)
		if err != nil {
			return nil, fmt.Errorf("parse event timestamp: %w", err)
		}

		event.Source = anomaly.Source(source)
		events = append(events, &event)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}

	return events, nil
}

// Close releases the database handle.
func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}
