package index

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/starford/paranote/internal/apperr"
	"github.com/starford/paranote/internal/models"
)

// Default and maximum page sizes for ListNotes.
const (
	DefaultPageSize = 50
	MaxPageSize     = 500
)

// NoteRow represents a row in the notes table.
type NoteRow struct {
	Path         string    `json:"path"`
	Title        string    `json:"title"`
	Category     string    `json:"category"`
	Confidence   float64   `json:"confidence"`
	Checksum     string    `json:"checksum"`
	Tags         []string  `json:"tags"`
	WordCount    int       `json:"word_count"`
	ActionCount  int       `json:"action_count"`
	PendingCount int       `json:"pending_count"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// NoteFilter narrows ListNotes. Empty fields match everything.
type NoteFilter struct {
	Category string
	Tag      string
	Limit    int
	Offset   int
}

// DefaultSearchLimit caps search results when SearchQuery.Limit is unset.
const DefaultSearchLimit = 20

// SearchQuery selects notes by free text, optionally within one category.
type SearchQuery struct {
	Text     string
	Category string
	Limit    int
}

func (q SearchQuery) limit() int {
	if q.Limit <= 0 {
		return DefaultSearchLimit
	}
	return min(q.Limit, MaxPageSize)
}

// SearchResult represents one search hit.
type SearchResult struct {
	Path         string `json:"path"`
	Title        string `json:"title"`
	Category     string `json:"category"`
	PendingCount int    `json:"pending_count"`
	Snippet      string `json:"snippet"`
}

func scanResults(rows *sql.Rows) ([]SearchResult, error) {
	defer rows.Close()
	out := []SearchResult{}
	for rows.Next() {
		var r SearchResult
		if err := rows.Scan(&r.Path, &r.Title, &r.Category, &r.PendingCount, &r.Snippet); err != nil {
			return nil, fmt.Errorf("index: scan search result: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// UpsertNote inserts or replaces a note, its FTS entry, and its action items
// within a transaction.
func (db *DB) UpsertNote(note *models.ParsedNote, checksum string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	tags := note.Tags
	if tags == nil {
		tags = []string{}
	}
	tagsJSON, _ := json.Marshal(tags)
	pending := 0
	for _, it := range note.ActionItems {
		if !it.Completed {
			pending++
		}
	}
	title := note.Title()

	_, err = tx.Exec(`
		INSERT INTO notes (path, title, category, confidence, checksum, tags, body,
			word_count, action_count, pending_count, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			title         = excluded.title,
			category      = excluded.category,
			confidence    = excluded.confidence,
			checksum      = excluded.checksum,
			tags          = excluded.tags,
			body          = excluded.body,
			word_count    = excluded.word_count,
			action_count  = excluded.action_count,
			pending_count = excluded.pending_count,
			updated_at    = excluded.updated_at
	`, note.Path, title, note.Category.Category.String(), note.Category.Confidence, checksum,
		string(tagsJSON), note.Content, note.WordCount, len(note.ActionItems), pending, db.now().UTC())
	if err != nil {
		return fmt.Errorf("index: upsert note: %w", err)
	}

	// FTS upsert (no-op when FTS5 tag is absent).
	if err := ftsUpsert(tx, note.Path, title, note.Content, tags); err != nil {
		return err
	}

	if _, err := tx.Exec(`DELETE FROM action_items WHERE note_path = ?`, note.Path); err != nil {
		return fmt.Errorf("index: clear action items: %w", err)
	}
	if len(note.ActionItems) > 0 {
		stmt, err := tx.Prepare(`
			INSERT OR REPLACE INTO action_items
				(note_path, line_number, text, completed, assignee, due_date, priority, fingerprint)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("index: prepare action insert: %w", err)
		}
		defer stmt.Close()
		for _, it := range note.ActionItems {
			if _, err := stmt.Exec(note.Path, it.LineNumber, it.Text, it.Completed,
				it.Assignee, it.DueDate, it.Priority, it.Fingerprint(note.Path)); err != nil {
				return fmt.Errorf("index: insert action item: %w", err)
			}
		}
	}

	return tx.Commit()
}

// DeleteNote removes a note, its FTS entry, and its action items.
func (db *DB) DeleteNote(path string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	ftsDelete(tx, path)
	if _, err := tx.Exec(`DELETE FROM action_items WHERE note_path = ?`, path); err != nil {
		return fmt.Errorf("index: delete action items: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM notes WHERE path = ?`, path); err != nil {
		return fmt.Errorf("index: delete note: %w", err)
	}
	return tx.Commit()
}

// GetChecksum returns the stored checksum for a note, or empty string if not found.
func (db *DB) GetChecksum(path string) (string, error) {
	var cs string
	err := db.conn.QueryRow(`SELECT checksum FROM notes WHERE path = ?`, path).Scan(&cs)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("index: get checksum: %w", err)
	}
	return cs, nil
}

const noteColumns = `path, title, category, confidence, checksum, tags,
	word_count, action_count, pending_count, updated_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanNote(s scanner) (NoteRow, error) {
	var (
		r    NoteRow
		tags string
	)
	if err := s.Scan(&r.Path, &r.Title, &r.Category, &r.Confidence, &r.Checksum, &tags,
		&r.WordCount, &r.ActionCount, &r.PendingCount, &r.UpdatedAt); err != nil {
		return r, err
	}
	if err := json.Unmarshal([]byte(tags), &r.Tags); err != nil || r.Tags == nil {
		r.Tags = []string{}
	}
	return r, nil
}

// GetNote returns the indexed row for path.
func (db *DB) GetNote(path string) (*NoteRow, error) {
	row, err := scanNote(db.conn.QueryRow(`SELECT `+noteColumns+` FROM notes WHERE path = ?`, path))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("index: note %s: %w", path, apperr.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("index: get note: %w", err)
	}
	return &row, nil
}

// ListNotes returns one page of notes ordered by path, plus the total number
// of rows matching the filter.
func (db *DB) ListNotes(f NoteFilter) ([]NoteRow, int, error) {
	if f.Limit <= 0 {
		f.Limit = DefaultPageSize
	}
	if f.Limit > MaxPageSize {
		f.Limit = MaxPageSize
	}
	if f.Offset < 0 {
		f.Offset = 0
	}

	where := ` WHERE (? = '' OR category = ?)
		AND (? = '' OR EXISTS (SELECT 1 FROM json_each(notes.tags) WHERE json_each.value = ?))`
	args := []any{f.Category, f.Category, f.Tag, f.Tag}

	var total int
	if err := db.conn.QueryRow(`SELECT count(*) FROM notes`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("index: count notes: %w", err)
	}

	rows, err := db.conn.Query(`SELECT `+noteColumns+` FROM notes`+where+` ORDER BY path LIMIT ? OFFSET ?`,
		append(args, f.Limit, f.Offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("index: list notes: %w", err)
	}
	defer rows.Close()

	out := []NoteRow{}
	for rows.Next() {
		r, err := scanNote(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, r)
	}
	return out, total, rows.Err()
}

// ActionItems returns the indexed action items of one note in line order.
func (db *DB) ActionItems(path string) ([]models.ActionItem, error) {
	rows, err := db.conn.Query(`
		SELECT text, completed, assignee, due_date, line_number, priority
		FROM action_items WHERE note_path = ? ORDER BY line_number`, path)
	if err != nil {
		return nil, fmt.Errorf("index: action items: %w", err)
	}
	defer rows.Close()

	out := []models.ActionItem{}
	for rows.Next() {
		var it models.ActionItem
		if err := rows.Scan(&it.Text, &it.Completed, &it.Assignee, &it.DueDate, &it.LineNumber, &it.Priority); err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

// AllChecksums returns the stored checksum of every indexed note.
func (db *DB) AllChecksums() (map[string]string, error) {
	rows, err := db.conn.Query(`SELECT path, checksum FROM notes`)
	if err != nil {
		return nil, fmt.Errorf("index: all checksums: %w", err)
	}
	defer rows.Close()
	out := make(map[string]string)
	for rows.Next() {
		var p, cs string
		if err := rows.Scan(&p, &cs); err != nil {
			return nil, err
		}
		out[p] = cs
	}
	return out, rows.Err()
}
