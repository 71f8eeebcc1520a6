package noteservice

import (
	"context"
	"encoding/json"
	"fmt"
	"path"
	"slices"
	"strings"
	"time"

	"github.com/starford/paranote/internal/actions"
	"github.com/starford/paranote/internal/models"
	"github.com/starford/paranote/internal/parser"
)

// ProjectSnapshot is the cached summary of one project folder.
type ProjectSnapshot struct {
	Project     string    `json:"project"`
	Notes       []string  `json:"notes"`
	ActionItems int       `json:"action_items"`
	Pending     int       `json:"pending"`
	Completed   int       `json:"completed"`
	Overdue     int       `json:"overdue"`
	Tags        []string  `json:"tags"`
	SyncedAt    time.Time `json:"synced_at"`
}

// SyncProjects writes one JSON snapshot per project folder (the first
// sub-folder of the projects directory) into the cache directory. The
// snapshots are write-only; nothing reads them back.
func (s *Service) SyncProjects(ctx context.Context, dir, pattern string) ([]ProjectSnapshot, error) {
	res, err := s.Batch(ctx, dir, pattern, parser.Graceful)
	if err != nil {
		return nil, err
	}
	now := s.now().UTC()
	repo := actions.NewRepository(nil, actions.WithClock(s.now))

	byProject := make(map[string]*ProjectSnapshot)
	var order []string
	for _, n := range res.Notes {
		name, ok := projectName(n.Path)
		if !ok {
			continue
		}
		snap, ok := byProject[name]
		if !ok {
			snap = &ProjectSnapshot{Project: name, Notes: []string{}, Tags: []string{}, SyncedAt: now}
			byProject[name] = snap
			order = append(order, name)
		}
		snap.Notes = append(snap.Notes, n.Path)
		for _, rec := range Records([]*models.ParsedNote{n}) {
			snap.ActionItems++
			switch {
			case rec.Item.Completed:
				snap.Completed++
			default:
				snap.Pending++
			}
			if repo.IsOverdue(rec) {
				snap.Overdue++
			}
		}
		for _, t := range n.Tags {
			if !slices.Contains(snap.Tags, t) {
				snap.Tags = append(snap.Tags, t)
			}
		}
	}

	out := make([]ProjectSnapshot, 0, len(order))
	for _, name := range order {
		snap := byProject[name]
		slices.Sort(snap.Tags)
		data, err := json.MarshalIndent(snap, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("noteservice: encode project %s: %w", name, err)
		}
		if err := s.store.Write(path.Join(s.cacheDir, cacheFileName(name)), append(data, '\n')); err != nil {
			return nil, fmt.Errorf("noteservice: write project cache %s: %w", name, err)
		}
		out = append(out, *snap)
	}
	return out, nil
}

func projectName(notePath string) (string, bool) {
	key := actions.ProjectKey(notePath)
	prefix := models.Projects.Dir() + "/"
	if !strings.HasPrefix(key, prefix) {
		return "", false
	}
	return strings.TrimPrefix(key, prefix), true
}

func cacheFileName(project string) string {
	safe := strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|':
			return '_'
		}
		return r
	}, project)
	return safe + ".json"
}
