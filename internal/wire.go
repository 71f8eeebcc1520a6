package internal

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/starford/paranote/internal/index"
	"github.com/starford/paranote/internal/noteservice"
	"github.com/starford/paranote/internal/parser"
	"github.com/starford/paranote/internal/storage"
)

// NewLogger returns the structured JSON logger used by every entry point.
func NewLogger(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
}

// NewParser builds a parser from the categorization and reading settings.
func NewParser(cfg *Config) (*parser.Parser, error) {
	keywords, err := cfg.Categorization.KeywordMap()
	if err != nil {
		return nil, err
	}
	return parser.New(
		parser.WithScorer(parser.NewScorer(keywords, cfg.Categorization.Threshold)),
		parser.WithWordsPerMinute(cfg.Reading.WordsPerMinute),
	), nil
}

// NewNoteService wires a note service over store. idx may be nil.
func NewNoteService(cfg *Config, store storage.Provider, logger *slog.Logger, idx noteservice.Indexer) (*noteservice.Service, error) {
	p, err := NewParser(cfg)
	if err != nil {
		return nil, err
	}
	opts := []noteservice.Option{
		noteservice.WithBackupDir(cfg.Backup.Dir),
		noteservice.WithCacheDir(cfg.Cache.Dir),
		noteservice.WithLogger(logger),
	}
	if idx != nil {
		opts = append(opts, noteservice.WithIndex(idx))
	}
	return noteservice.NewService(store, p, opts...), nil
}

// OpenIndex opens the SQLite index, creating its directory.
func OpenIndex(cfg *Config) (*index.DB, error) {
	path := cfg.IndexPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create index dir: %w", err)
	}
	return index.Open(path)
}

// Vault bundles the storage, index and note service of one vault.
type Vault struct {
	Store   *storage.FS
	Index   *index.DB
	Service *noteservice.Service
}

// OpenVault opens the configured vault and its index, then brings the
// index up to date. A failed sync is logged; the index stays usable.
// Callers must Close the vault.
func OpenVault(cfg *Config, logger *slog.Logger) (*Vault, error) {
	store, err := storage.NewFS(cfg.Vault.Path)
	if err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}
	db, err := OpenIndex(cfg)
	if err != nil {
		return nil, fmt.Errorf("init index: %w", err)
	}
	svc, err := NewNoteService(cfg, store, logger, db)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("init service: %w", err)
	}
	if err := index.Sync(db, store, svc.Parser(), cfg.Vault.Pattern, logger); err != nil {
		logger.Warn("initial sync failed", slog.String("error", err.Error()))
	}
	return &Vault{Store: store, Index: db, Service: svc}, nil
}

// Close releases the index.
func (v *Vault) Close() error {
	return v.Index.Close()
}
