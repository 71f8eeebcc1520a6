// Package storage defines the vault file-system abstraction.
package storage

import (
	"io/fs"
	"time"

	"github.com/starford/paranote/internal/models"
)

// DefaultPattern matches Markdown notes.
const DefaultPattern = "*.md"

// Provider is the interface for vault file operations. Paths are relative
// to the vault root.
type Provider interface {
	// Root returns the absolute vault directory.
	Root() string
	// List returns metadata for every file under dir whose base name matches
	// pattern, in lexical walk order. Hidden directories are skipped.
	List(dir, pattern string) ([]models.NoteMetadata, error)
	// Stat describes the file or directory at path.
	Stat(path string) (fs.FileInfo, error)
	// Read returns the raw bytes of the file at path.
	Read(path string) ([]byte, error)
	// Write atomically replaces the file at path with content.
	Write(path string, content []byte) error
	// Backup copies the file at path into backupDir as
	// <name>_<timestamp>.bak and returns the backup path.
	Backup(path, backupDir string, at time.Time) (string, error)
	// Move renames oldPath to newPath without overwriting an existing file.
	Move(oldPath, newPath string) error
}
