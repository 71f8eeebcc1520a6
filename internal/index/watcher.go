package index

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/starford/paranote/internal/parser"
	"github.com/starford/paranote/internal/storage"
)

// Kinds passed to EventCallback.
const (
	EventCreated = "created"
	EventUpdated = "updated"
	EventDeleted = "deleted"
)

// EventCallback is called after a watcher-driven index change.
type EventCallback func(kind string, path string)

const reconcileDelay = 200 * time.Millisecond

// Watch keeps the index current with the vault until ctx is cancelled.
// Directories created at runtime are watched and scanned; hidden
// directories such as backups and caches are ignored. pattern selects note
// files as in Sync. fsnotify reports a
// rename only on the old path, so renames schedule a debounced full
// reconcile that picks up the new path and drops stale rows.
func Watch(ctx context.Context, db Writer, store storage.Provider, p *parser.Parser, pattern string, logger *slog.Logger, cb EventCallback) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	root := store.Root()
	if err := watchTree(w, root); err != nil {
		return err
	}
	logger.Info("watcher: started", slog.String("root", root))

	ix := newIndexer(db, store, p, pattern, logger, cb)
	pending := time.NewTimer(reconcileDelay)
	pending.Stop()
	defer pending.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("watcher: stopped")
			return nil

		case <-pending.C:
			if err := ix.reconcile("", true); err != nil {
				logger.Warn("watcher: reconcile failed", slog.String("error", err.Error()))
			}

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if ix.handle(w, root, ev) {
				pending.Reset(reconcileDelay)
			}

		case werr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher: error", slog.String("error", werr.Error()))
		}
	}
}

// handle applies one fsnotify event and reports whether a full reconcile
// is needed.
func (ix *indexer) handle(w *fsnotify.Watcher, root string, ev fsnotify.Event) bool {
	rel, err := filepath.Rel(root, ev.Name)
	if err != nil || isHidden(rel) {
		return false
	}
	rel = filepath.ToSlash(rel)

	if ev.Has(fsnotify.Create) {
		if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
			if err := watchTree(w, ev.Name); err != nil {
				ix.logger.Warn("watcher: add dir failed", slog.String("path", rel), slog.String("error", err.Error()))
			}
			if err := ix.reconcile(rel, false); err != nil {
				ix.logger.Warn("watcher: scan dir failed", slog.String("path", rel), slog.String("error", err.Error()))
			}
			return false
		}
	}
	if !ix.isNote(ev.Name) {
		return false
	}

	switch {
	case ev.Has(fsnotify.Create):
		ix.indexPath(rel, EventCreated)
	case ev.Has(fsnotify.Write):
		ix.indexPath(rel, EventUpdated)
	case ev.Has(fsnotify.Remove):
		ix.remove(rel)
	case ev.Has(fsnotify.Rename):
		ix.remove(rel)
		return true
	}
	return false
}

// watchTree adds dir and its non-hidden subdirectories to w.
func watchTree(w *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		switch {
		case err != nil:
			return err
		case !d.IsDir():
			return nil
		case path != dir && strings.HasPrefix(d.Name(), "."):
			return filepath.SkipDir
		}
		return w.Add(path)
	})
}

// isHidden reports whether any segment of the vault-relative path starts
// with a dot.
func isHidden(rel string) bool {
	for _, seg := range strings.Split(filepath.ToSlash(rel), "/") {
		if strings.HasPrefix(seg, ".") && seg != "." && seg != ".." {
			return true
		}
	}
	return false
}
