package noteservice

import (
	"context"

	"github.com/starford/paranote/internal/actions"
	"github.com/starford/paranote/internal/models"
	"github.com/starford/paranote/internal/parser"
)

// createdKeys are the frontmatter fields read as a note's creation date.
var createdKeys = []string{"created", "date", "created_at"}

// Actions parses every note under dir and returns a repository over all
// their action items, plus the per-file failures.
func (s *Service) Actions(ctx context.Context, dir, pattern string) (*actions.Repository, []FileError, error) {
	res, err := s.Batch(ctx, dir, pattern, parser.Graceful)
	if err != nil {
		return nil, nil, err
	}
	return actions.NewRepository(Records(res.Notes), actions.WithClock(s.now)), res.Errors, nil
}

// Records flattens the action items of notes, tagging each with its source.
func Records(notes []*models.ParsedNote) []actions.Record {
	var out []actions.Record
	for _, n := range notes {
		created := createdDate(n.Frontmatter)
		for _, it := range n.ActionItems {
			out = append(out, actions.Record{Item: it, NotePath: n.Path, Created: created})
		}
	}
	return out
}

func createdDate(fm *models.Frontmatter) string {
	for _, k := range createdKeys {
		if v := fm.String(k); v != "" {
			return v
		}
	}
	return ""
}
