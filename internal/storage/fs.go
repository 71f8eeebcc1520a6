package storage

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/starford/paranote/internal/apperr"
	"github.com/starford/paranote/internal/checksum"
	"github.com/starford/paranote/internal/models"
)

// BackupTimeFormat is the timestamp suffix of backup file names.
const BackupTimeFormat = "20060102_150405"

// FS is a Provider over a directory on the local file system.
type FS struct {
	root string
}

var _ Provider = (*FS)(nil)

// NewFS opens the existing directory root as a vault.
func NewFS(root string) (*FS, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("storage: resolve root: %w", err)
	}
	info, err := os.Stat(abs)
	switch {
	case err != nil:
		return nil, fmt.Errorf("storage: open vault: %w", err)
	case !info.IsDir():
		return nil, fmt.Errorf("storage: vault %s is not a directory", abs)
	}
	return &FS{root: abs}, nil
}

func (f *FS) Root() string { return f.root }

// abs maps a slash-separated vault path onto the file system. Absolute
// paths and paths that climb out of the vault fail with
// apperr.ErrInvalidPath.
func (f *FS) abs(rel string) (string, error) {
	if rel == "" {
		return f.root, nil
	}
	local := filepath.FromSlash(rel)
	if !filepath.IsLocal(local) {
		if filepath.Clean(local) == "." {
			return f.root, nil
		}
		return "", fmt.Errorf("storage: %q: %w", rel, apperr.ErrInvalidPath)
	}
	return filepath.Join(f.root, local), nil
}

// List walks dir and returns metadata for every file whose base name
// matches pattern. Hidden directories below dir are skipped.
func (f *FS) List(dir, pattern string) ([]models.NoteMetadata, error) {
	if pattern == "" {
		pattern = DefaultPattern
	}
	if _, err := filepath.Match(pattern, ""); err != nil {
		return nil, fmt.Errorf("storage: bad pattern %q: %w", pattern, err)
	}
	base, err := f.abs(dir)
	if err != nil {
		return nil, err
	}

	out := []models.NoteMetadata{}
	err = filepath.WalkDir(base, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if p != base && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if ok, _ := filepath.Match(pattern, d.Name()); !ok {
			return nil
		}
		meta, err := f.describe(p, d)
		if err != nil {
			return err
		}
		out = append(out, meta)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("storage: list %s: %w", dir, err)
	}
	return out, nil
}

func (f *FS) describe(p string, d fs.DirEntry) (models.NoteMetadata, error) {
	info, err := d.Info()
	if err != nil {
		return models.NoteMetadata{}, err
	}
	data, err := os.ReadFile(p)
	if err != nil {
		return models.NoteMetadata{}, err
	}
	rel, err := filepath.Rel(f.root, p)
	if err != nil {
		return models.NoteMetadata{}, err
	}
	return models.NoteMetadata{
		Path:      filepath.ToSlash(rel),
		Checksum:  checksum.Sum(data),
		UpdatedAt: info.ModTime(),
	}, nil
}

func (f *FS) Stat(path string) (fs.FileInfo, error) {
	abs, err := f.abs(path)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("storage: stat %s: %w", path, err)
	}
	return info, nil
}

func (f *FS) Read(path string) ([]byte, error) {
	abs, err := f.abs(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		return nil, fmt.Errorf("storage: read %s: %w", path, err)
	}
	return data, nil
}

func (f *FS) Write(path string, content []byte) error {
	abs, err := f.abs(path)
	if err != nil {
		return err
	}
	if abs == f.root {
		return fmt.Errorf("storage: write to vault root: %w", apperr.ErrInvalidPath)
	}
	return writeAtomic(abs, content)
}

// Backup copies path to backupDir/<name>_<timestamp>.bak. Backups taken
// within the same second get a counter suffix (_1, _2, ...) so an earlier
// copy is never replaced.
func (f *FS) Backup(path, backupDir string, at time.Time) (string, error) {
	data, err := f.Read(path)
	if err != nil {
		return "", err
	}
	stem := filepath.ToSlash(filepath.Join(backupDir,
		filepath.Base(filepath.FromSlash(path))+"_"+at.Format(BackupTimeFormat)))
	target := stem + ".bak"
	for n := 1; ; n++ {
		_, err := f.Stat(target)
		if errors.Is(err, fs.ErrNotExist) {
			break
		}
		if err != nil {
			return "", fmt.Errorf("storage: backup %s: %w", path, err)
		}
		target = fmt.Sprintf("%s_%d.bak", stem, n)
	}
	if err := f.Write(target, data); err != nil {
		return "", fmt.Errorf("storage: backup %s: %w", path, err)
	}
	return target, nil
}

// Move renames oldPath to newPath, creating parent directories. An
// existing destination fails with apperr.ErrAlreadyExists.
func (f *FS) Move(oldPath, newPath string) error {
	from, err := f.abs(oldPath)
	if err != nil {
		return err
	}
	to, err := f.abs(newPath)
	if err != nil {
		return err
	}
	if _, err := os.Lstat(to); err == nil {
		return fmt.Errorf("storage: move %s to %s: %w", oldPath, newPath, apperr.ErrAlreadyExists)
	} else if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("storage: move: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(to), 0o755); err != nil {
		return fmt.Errorf("storage: move: %w", err)
	}
	if err := os.Rename(from, to); err != nil {
		return fmt.Errorf("storage: move %s: %w", oldPath, err)
	}
	return nil
}
