package index

import "github.com/starford/paranote/internal/models"

// Reader is the query side of the index used by the HTTP and MCP front ends.
type Reader interface {
	GetNote(path string) (*NoteRow, error)
	ListNotes(f NoteFilter) ([]NoteRow, int, error)
	ActionItems(path string) ([]models.ActionItem, error)
	Search(q SearchQuery) ([]SearchResult, error)
}

// Writer keeps index rows in step with the vault. Sync and Watch drive it.
type Writer interface {
	UpsertNote(note *models.ParsedNote, checksum string) error
	DeleteNote(path string) error
	GetChecksum(path string) (string, error)
	AllChecksums() (map[string]string, error)
}

// NoteIndex is the full index surface.
type NoteIndex interface {
	Reader
	Writer
	Close() error
}

var _ NoteIndex = (*DB)(nil)
