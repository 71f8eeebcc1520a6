// Package models defines the domain types for paranote.
package models

import (
	"strconv"
	"time"

	"github.com/starford/paranote/internal/checksum"
)

// Document is a note as read from disk.
type Document struct {
	Path    string
	Content string
}

// ActionItem is one checklist line extracted from a note body.
// Optional fields are empty when the annotation is absent.
type ActionItem struct {
	Text       string `json:"text"`
	Completed  bool   `json:"completed"`
	Assignee   string `json:"assignee,omitempty"`
	DueDate    string `json:"due_date,omitempty"`
	LineNumber int    `json:"line_number"`
	Priority   string `json:"priority,omitempty"`
	// Occurrence counts earlier items in the same note with the same text.
	Occurrence int `json:"-"`
}

// Fingerprint returns an identifier for the item within the note at path.
// It ignores the line number, so moving an item keeps its identity.
// Repeated lines with the same text are told apart by their occurrence.
func (a ActionItem) Fingerprint(path string) string {
	if a.Occurrence == 0 {
		return checksum.Fingerprint(path, a.Text)
	}
	return checksum.Fingerprint(path, a.Text, strconv.Itoa(a.Occurrence))
}

// ParsedNote is the aggregate produced by parsing one note.
type ParsedNote struct {
	Path        string         `json:"file_path"`
	Frontmatter *Frontmatter   `json:"frontmatter"`
	Content     string         `json:"content"`
	RawContent  string         `json:"-"`
	ActionItems []ActionItem   `json:"action_items"`
	Attendees   []string       `json:"attendees"`
	Dates       []string       `json:"dates"`
	Tags        []string       `json:"tags"`
	Category    Categorization `json:"suggested_category"`
	WordCount   int            `json:"word_count"`
	ReadTime    int            `json:"estimated_read_time"`
}

// Title returns the frontmatter title, or the note path when none is set.
func (n *ParsedNote) Title() string {
	if t := n.Frontmatter.String("title"); t != "" {
		return t
	}
	return n.Path
}

// NoteMetadata is a lightweight representation returned by list operations.
type NoteMetadata struct {
	Path      string    `json:"path"`
	Checksum  string    `json:"checksum"`
	UpdatedAt time.Time `json:"updated_at"`
}
