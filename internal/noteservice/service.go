// Package noteservice coordinates storage, parsing and indexing for the
// CLI, HTTP and MCP front ends.
package noteservice

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/starford/paranote/internal/apperr"
	"github.com/starford/paranote/internal/checksum"
	"github.com/starford/paranote/internal/models"
	"github.com/starford/paranote/internal/parser"
	"github.com/starford/paranote/internal/storage"
)

// Defaults for vault-relative service directories.
const (
	DefaultBackupDir = ".backups"
	DefaultCacheDir  = ".paranote/cache"
)

// Indexer receives parsed notes after the service changes them on disk.
type Indexer interface {
	UpsertNote(note *models.ParsedNote, checksum string) error
	DeleteNote(path string) error
}

// Option configures a Service.
type Option func(*Service)

// WithIndex keeps idx up to date after writes and moves.
func WithIndex(idx Indexer) Option {
	return func(s *Service) {
		s.index = idx
	}
}

// WithBackupDir sets the vault-relative backup directory.
func WithBackupDir(dir string) Option {
	return func(s *Service) {
		if dir != "" {
			s.backupDir = dir
		}
	}
}

// WithCacheDir sets the vault-relative project cache directory.
func WithCacheDir(dir string) Option {
	return func(s *Service) {
		if dir != "" {
			s.cacheDir = dir
		}
	}
}

// WithClock overrides the time source used for backups, staleness and sync stamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		s.logger = l
	}
}

// Service coordinates storage, parsing and index operations.
type Service struct {
	store     storage.Provider
	parser    *parser.Parser
	index     Indexer
	backupDir string
	cacheDir  string
	now       func() time.Time
	logger    *slog.Logger

	locksMu sync.Mutex
	locks   map[string]*sync.Mutex
}

// NewService creates a new note service.
func NewService(store storage.Provider, p *parser.Parser, opts ...Option) *Service {
	s := &Service{
		store:     store,
		parser:    p,
		backupDir: DefaultBackupDir,
		cacheDir:  DefaultCacheDir,
		now:       time.Now,
		logger:    slog.Default(),
		locks:     make(map[string]*sync.Mutex),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Store returns the underlying storage provider.
func (s *Service) Store() storage.Provider { return s.store }

// Parser returns the note parser.
func (s *Service) Parser() *parser.Parser { return s.parser }

// ParseFile reads and parses the note at path. A missing file fails with
// apperr.ErrNotFound in either mode.
func (s *Service) ParseFile(_ context.Context, path string, mode parser.Mode) parser.Outcome {
	data, err := s.read(path)
	if err != nil {
		return parser.Outcome{Status: parser.StatusFailed, Err: err}
	}
	out := s.parser.Parse(path, data, mode)
	if out.Status == parser.StatusDegraded || out.Status == parser.StatusFallback {
		s.logger.Warn("note parsed with degraded result",
			slog.String("path", path),
			slog.String("status", out.Status.String()),
			slog.String("error", out.Err.Error()))
	}
	return out
}

// FileError reports a per-file failure in a batch operation.
type FileError struct {
	Path    string `json:"path"`
	Message string `json:"error"`
}

// BatchResult collects the notes parsed from a directory.
type BatchResult struct {
	Notes     []*models.ParsedNote `json:"notes"`
	Processed int                  `json:"processed"`
	Degraded  []string             `json:"degraded,omitempty"`
	Errors    []FileError          `json:"errors"`
}

// Batch parses every file under dir matching pattern, in listing order.
// Per-file failures are collected and never stop the batch. A missing
// directory fails with apperr.ErrNotFound.
func (s *Service) Batch(ctx context.Context, dir, pattern string, mode parser.Mode) (*BatchResult, error) {
	info, err := s.store.Stat(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("noteservice: directory %s: %w", dir, apperr.ErrNotFound)
		}
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("noteservice: %s is not a directory", dir)
	}
	metas, err := s.store.List(dir, pattern)
	if err != nil {
		return nil, err
	}

	res := &BatchResult{Notes: []*models.ParsedNote{}, Errors: []FileError{}}
	for _, m := range metas {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		out := s.ParseFile(ctx, m.Path, mode)
		note, err := out.Result()
		if err != nil {
			s.logger.Warn("batch: skipping note", slog.String("path", m.Path), slog.String("error", err.Error()))
			res.Errors = append(res.Errors, FileError{Path: m.Path, Message: err.Error()})
			continue
		}
		if out.Status != parser.StatusParsed {
			res.Degraded = append(res.Degraded, m.Path)
		}
		res.Notes = append(res.Notes, note)
		res.Processed++
	}
	return res, nil
}

// Summary aggregates a batch.
type Summary struct {
	Notes          int            `json:"notes"`
	Failed         int            `json:"failed"`
	ByCategory     map[string]int `json:"by_category"`
	ActionItems    int            `json:"action_items"`
	Pending        int            `json:"pending"`
	Completed      int            `json:"completed"`
	WithAttendees  int            `json:"with_attendees"`
	Words          int            `json:"words"`
	ReadingMinutes int            `json:"reading_minutes"`
	Tags           []string       `json:"tags"`
}

// Summarize computes totals over a batch result.
func Summarize(res *BatchResult) Summary {
	sum := Summary{
		Notes:      len(res.Notes),
		Failed:     len(res.Errors),
		ByCategory: make(map[string]int),
		Tags:       []string{},
	}
	seen := make(map[string]struct{})
	for _, n := range res.Notes {
		sum.ByCategory[n.Category.Category.String()]++
		for _, it := range n.ActionItems {
			sum.ActionItems++
			if it.Completed {
				sum.Completed++
			} else {
				sum.Pending++
			}
		}
		if len(n.Attendees) > 0 {
			sum.WithAttendees++
		}
		sum.Words += n.WordCount
		sum.ReadingMinutes += n.ReadTime
		for _, t := range n.Tags {
			if _, ok := seen[t]; !ok {
				seen[t] = struct{}{}
				sum.Tags = append(sum.Tags, t)
			}
		}
	}
	slices.Sort(sum.Tags)
	return sum
}

func (s *Service) read(path string) ([]byte, error) {
	data, err := s.store.Read(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("noteservice: %s: %w", path, apperr.ErrNotFound)
		}
		return nil, err
	}
	return data, nil
}

// reindex refreshes the index entry for path, if an index is attached.
func (s *Service) reindex(path string, data []byte) {
	if s.index == nil {
		return
	}
	note, err := s.parser.Parse(path, data, parser.Graceful).Result()
	if err == nil {
		err = s.index.UpsertNote(note, checksum.Sum(data))
	}
	if err != nil {
		s.logger.Warn("reindex failed", slog.String("path", path), slog.String("error", err.Error()))
	}
}

// lockPath serializes read-modify-write sequences on one path within this
// process. It does not protect against other processes.
func (s *Service) lockPath(path string) func() {
	s.locksMu.Lock()
	mu, ok := s.locks[path]
	if !ok {
		mu = &sync.Mutex{}
		s.locks[path] = mu
	}
	s.locksMu.Unlock()
	mu.Lock()
	return mu.Unlock
}
