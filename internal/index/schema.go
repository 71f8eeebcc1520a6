// Package index provides a SQLite-backed catalogue of parsed notes and their
// action items, with optional FTS5 full-text search.
package index

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

const coreSchemaSQL = `
CREATE TABLE IF NOT EXISTS notes (
	path          TEXT PRIMARY KEY,
	title         TEXT NOT NULL DEFAULT '',
	category      TEXT NOT NULL DEFAULT 'inbox',
	confidence    REAL NOT NULL DEFAULT 0,
	checksum      TEXT NOT NULL DEFAULT '',
	tags          TEXT NOT NULL DEFAULT '[]',
	body          TEXT NOT NULL DEFAULT '',
	word_count    INTEGER NOT NULL DEFAULT 0,
	action_count  INTEGER NOT NULL DEFAULT 0,
	pending_count INTEGER NOT NULL DEFAULT 0,
	updated_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS action_items (
	note_path   TEXT NOT NULL REFERENCES notes(path) ON DELETE CASCADE,
	line_number INTEGER NOT NULL,
	text        TEXT NOT NULL,
	completed   INTEGER NOT NULL DEFAULT 0,
	assignee    TEXT NOT NULL DEFAULT '',
	due_date    TEXT NOT NULL DEFAULT '',
	priority    TEXT NOT NULL DEFAULT '',
	fingerprint TEXT NOT NULL,
	UNIQUE(note_path, line_number)
);

CREATE INDEX IF NOT EXISTS idx_notes_category ON notes(category);
CREATE INDEX IF NOT EXISTS idx_action_items_note ON action_items(note_path);
`

// DB wraps a sql.DB with index-specific operations.
type DB struct {
	conn *sql.DB
	now  func() time.Time
}

// Open opens (or creates) the SQLite database and applies the schema.
func Open(dsn string) (*DB, error) {
	conn, err := sql.Open("sqlite3", dsn+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("index: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("index: ping: %w", err)
	}
	if _, err := conn.Exec(coreSchemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("index: apply core schema: %w", err)
	}
	if err := initFTS(conn); err != nil {
		conn.Close()
		return nil, fmt.Errorf("index: apply fts schema: %w", err)
	}
	return &DB{conn: conn, now: time.Now}, nil
}

// Ping checks that the database is reachable.
func (db *DB) Ping(ctx context.Context) error {
	return db.conn.PingContext(ctx)
}

// Close closes the underlying database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}
