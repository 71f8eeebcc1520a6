package noteservice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"strings"

	"github.com/starford/paranote/internal/actions"
	"github.com/starford/paranote/internal/apperr"
	"github.com/starford/paranote/internal/checksum"
	"github.com/starford/paranote/internal/models"
	"github.com/starford/paranote/internal/parser"
)

// Move is a filing suggestion for an inbox note.
type Move struct {
	From       string          `json:"from"`
	To         string          `json:"to"`
	Category   models.Category `json:"category"`
	Confidence float64         `json:"confidence"`
	Reasoning  []string        `json:"reasoning"`
	Applied    bool            `json:"applied"`
}

// Categorize suggests a PARA directory for every inbox note under dir whose
// category is no longer inbox. With apply set the notes are moved; an
// existing destination is reported as a per-file error.
func (s *Service) Categorize(ctx context.Context, dir, pattern string, apply bool) ([]Move, []FileError, error) {
	res, err := s.Batch(ctx, dir, pattern, parser.Graceful)
	if err != nil {
		return nil, nil, err
	}
	moves := []Move{}
	failures := res.Errors
	for _, n := range res.Notes {
		if !strings.HasPrefix(actions.ProjectKey(n.Path), models.Inbox.Dir()) {
			continue
		}
		c := n.Category
		if c.Category == models.Inbox {
			continue
		}
		m := Move{
			From:       n.Path,
			To:         path.Join(c.Category.Dir(), path.Base(n.Path)),
			Category:   c.Category,
			Confidence: c.Confidence,
			Reasoning:  c.Reasoning,
		}
		if apply {
			if err := s.move(m.From, m.To, n); err != nil {
				failures = append(failures, FileError{Path: m.From, Message: err.Error()})
				moves = append(moves, m)
				continue
			}
			m.Applied = true
		}
		moves = append(moves, m)
	}
	return moves, failures, nil
}

func (s *Service) move(from, to string, note *models.ParsedNote) error {
	unlock := s.lockPath(from)
	defer unlock()

	if err := s.store.Move(from, to); err != nil {
		if errors.Is(err, apperr.ErrAlreadyExists) {
			return fmt.Errorf("noteservice: %s already exists", to)
		}
		return err
	}
	s.logger.Info("note filed", slog.String("from", from), slog.String("to", to))
	if s.index != nil {
		if err := s.index.DeleteNote(from); err != nil {
			s.logger.Warn("index delete failed", slog.String("path", from), slog.String("error", err.Error()))
		}
		moved := *note
		moved.Path = to
		if err := s.index.UpsertNote(&moved, checksum.Sum([]byte(note.RawContent))); err != nil {
			s.logger.Warn("index upsert failed", slog.String("path", to), slog.String("error", err.Error()))
		}
	}
	return nil
}
