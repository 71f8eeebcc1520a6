package noteservice

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/starford/paranote/internal/apperr"
	"github.com/starford/paranote/internal/models"
	"github.com/starford/paranote/internal/parser"
)

// UpdateResult describes a completed frontmatter update.
type UpdateResult struct {
	Path       string             `json:"path"`
	BackupPath string             `json:"backup_path,omitempty"`
	Note       *models.ParsedNote `json:"note"`
}

// UpdateFrontmatter merges updates into the note's frontmatter and rewrites
// the file with its body unchanged. Later keys override earlier ones;
// nested values are replaced, not merged.
//
// With backup set the current file is copied to the backup directory
// first, and a failed backup aborts the update. The new content is built
// in memory and written atomically, so the note is either fully replaced
// or left untouched. Backup and write failures wrap apperr.ErrSafety.
func (s *Service) UpdateFrontmatter(ctx context.Context, path string, updates *models.Frontmatter, backup bool) (*UpdateResult, error) {
	return s.mutate(ctx, path, backup, func(fm *models.Frontmatter) {
		fm.Merge(updates)
	})
}

// LinkProject records project in the note's frontmatter and adds the
// project name to its tags.
func (s *Service) LinkProject(ctx context.Context, path, project string, backup bool) (*UpdateResult, error) {
	project = strings.TrimSpace(project)
	if project == "" {
		return nil, fmt.Errorf("noteservice: project name is required")
	}
	return s.mutate(ctx, path, backup, func(fm *models.Frontmatter) {
		fm.Set("project", project)
		tags := s.parser.Extractor().Tags("", fm)
		found := false
		for _, t := range tags {
			if t == project {
				found = true
				break
			}
		}
		if !found {
			tags = append(tags, project)
		}
		seq := make([]any, len(tags))
		for i, t := range tags {
			seq[i] = t
		}
		fm.Set("tags", seq)
	})
}

func (s *Service) mutate(_ context.Context, path string, backup bool, apply func(*models.Frontmatter)) (*UpdateResult, error) {
	unlock := s.lockPath(path)
	defer unlock()

	data, err := s.read(path)
	if err != nil {
		return nil, err
	}
	note, err := s.parser.Parse(path, data, parser.Strict).Result()
	if err != nil {
		return nil, err
	}

	fm := note.Frontmatter.Clone()
	apply(fm)
	content, err := parser.RenderNote(fm, note.Content)
	if err != nil {
		return nil, fmt.Errorf("noteservice: render %s: %w", path, err)
	}

	res := &UpdateResult{Path: path}
	if backup {
		res.BackupPath, err = s.store.Backup(path, s.backupDir, s.now())
		if err != nil {
			return nil, fmt.Errorf("noteservice: backup %s: %w: %w", path, apperr.ErrSafety, err)
		}
	}
	if err := s.store.Write(path, []byte(content)); err != nil {
		return nil, fmt.Errorf("noteservice: write %s: %w: %w", path, apperr.ErrSafety, err)
	}
	s.logger.Info("frontmatter updated",
		slog.String("path", path),
		slog.String("backup", res.BackupPath),
		slog.Int("keys", fm.Len()))

	s.reindex(path, []byte(content))
	res.Note, err = s.parser.Parse(path, []byte(content), parser.Graceful).Result()
	if err != nil {
		return nil, err
	}
	return res, nil
}
