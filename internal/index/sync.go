package index

import (
	"log/slog"
	"path/filepath"

	"github.com/starford/paranote/internal/checksum"
	"github.com/starford/paranote/internal/parser"
	"github.com/starford/paranote/internal/storage"
)

// indexer applies vault state to a Writer and reports each change.
type indexer struct {
	db      Writer
	store   storage.Provider
	parser  *parser.Parser
	pattern string
	logger  *slog.Logger
	emit    EventCallback
}

func newIndexer(db Writer, store storage.Provider, p *parser.Parser, pattern string, logger *slog.Logger, emit EventCallback) *indexer {
	if pattern == "" {
		pattern = storage.DefaultPattern
	}
	return &indexer{db: db, store: store, parser: p, pattern: pattern, logger: logger, emit: emit}
}

// isNote reports whether the file name matches the note pattern.
func (ix *indexer) isNote(path string) bool {
	ok, _ := filepath.Match(ix.pattern, filepath.Base(path))
	return ok
}

func (ix *indexer) notify(kind, path string) {
	if ix.emit != nil {
		ix.emit(kind, path)
	}
}

// index parses data gracefully and upserts it. Only empty documents fail.
func (ix *indexer) index(path string, data []byte) error {
	note, err := ix.parser.Parse(path, data, parser.Graceful).Result()
	if err != nil {
		return err
	}
	return ix.db.UpsertNote(note, checksum.Sum(data))
}

// indexPath reads and indexes one vault file.
func (ix *indexer) indexPath(path, kind string) bool {
	data, err := ix.store.Read(path)
	if err == nil {
		err = ix.index(path, data)
	}
	if err != nil {
		ix.logger.Warn("index: skipped note", slog.String("path", path), slog.String("error", err.Error()))
		return false
	}
	ix.notify(kind, path)
	return true
}

func (ix *indexer) remove(path string) bool {
	if err := ix.db.DeleteNote(path); err != nil {
		ix.logger.Warn("index: delete failed", slog.String("path", path), slog.String("error", err.Error()))
		return false
	}
	ix.notify(EventDeleted, path)
	return true
}

// reconcile indexes notes under dir whose checksum differs from the index.
// With prune set, index rows without a file on disk are removed; pruning
// always covers the whole vault.
func (ix *indexer) reconcile(dir string, prune bool) error {
	metas, err := ix.store.List(dir, ix.pattern)
	if err != nil {
		return err
	}
	known, err := ix.db.AllChecksums()
	if err != nil {
		return err
	}

	var indexed, removed int
	onDisk := make(map[string]bool, len(metas))
	for _, m := range metas {
		onDisk[m.Path] = true
		prev, seen := known[m.Path]
		if prev == m.Checksum {
			continue
		}
		kind := EventUpdated
		if !seen {
			kind = EventCreated
		}
		if ix.indexPath(m.Path, kind) {
			indexed++
		}
	}
	if prune {
		for path := range known {
			if !onDisk[path] && ix.remove(path) {
				removed++
			}
		}
	}
	if indexed+removed > 0 {
		ix.logger.Info("index: reconciled",
			slog.String("dir", dir),
			slog.Int("indexed", indexed),
			slog.Int("removed", removed))
	}
	return nil
}

// Sync brings the index in line with the whole vault: changed notes are
// reparsed and notes gone from disk are dropped. Unreadable or empty notes
// are logged and skipped. Only files matching pattern are notes; an empty
// pattern means storage.DefaultPattern.
func Sync(db Writer, store storage.Provider, p *parser.Parser, pattern string, logger *slog.Logger) error {
	ix := newIndexer(db, store, p, pattern, logger, nil)
	return ix.reconcile("", true)
}
