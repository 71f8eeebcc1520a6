package storage

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/paranote/internal/apperr"
	"github.com/starford/paranote/internal/checksum"
)

func tempVault(t *testing.T, files map[string]string) *FS {
	t.Helper()
	s, err := NewFS(t.TempDir())
	require.NoError(t, err)
	for path, content := range files {
		require.NoError(t, s.Write(path, []byte(content)))
	}
	return s
}

func readString(t *testing.T, s *FS, path string) string {
	t.Helper()
	data, err := s.Read(path)
	require.NoError(t, err)
	return string(data)
}

func TestNewFS(t *testing.T) {
	_, err := NewFS(filepath.Join(t.TempDir(), "does-not-exist"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	file := filepath.Join(t.TempDir(), "note.md")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))
	_, err = NewFS(file)
	assert.ErrorContains(t, err, "not a directory")

	s, err := NewFS(".")
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(s.Root()))
}

func TestWrite_CreatesParentsAndReplaces(t *testing.T) {
	s := tempVault(t, map[string]string{"Projects/site/plan.md": "v1"})
	assert.Equal(t, "v1", readString(t, s, "Projects/site/plan.md"))

	require.NoError(t, s.Write("Projects/site/plan.md", []byte("v2")))
	assert.Equal(t, "v2", readString(t, s, "Projects/site/plan.md"))

	leftovers, _ := filepath.Glob(filepath.Join(s.Root(), "Projects", "site", tempPrefix+"*"))
	assert.Empty(t, leftovers)
}

func TestWrite_KeepsPermissions(t *testing.T) {
	s := tempVault(t, nil)
	abs := filepath.Join(s.Root(), "private.md")
	require.NoError(t, os.WriteFile(abs, []byte("v1"), 0o600))
	require.NoError(t, os.Chmod(abs, 0o640))

	require.NoError(t, s.Write("private.md", []byte("v2")))
	info, err := os.Stat(abs)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o640), info.Mode().Perm())

	require.NoError(t, s.Write("Inbox/new.md", []byte("fresh")))
	info, err = os.Stat(filepath.Join(s.Root(), "Inbox", "new.md"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o644), info.Mode().Perm())
}

func TestWrite_RejectsRoot(t *testing.T) {
	s := tempVault(t, nil)
	assert.ErrorIs(t, s.Write("", []byte("x")), apperr.ErrInvalidPath)
}

func TestRead_MissingKeepsNotExist(t *testing.T) {
	s := tempVault(t, nil)
	_, err := s.Read("Inbox/missing.md")
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestPathsOutsideVault(t *testing.T) {
	s := tempVault(t, nil)
	for _, p := range []string{"../../etc/passwd", "../outside.md", "/etc/shadow", "Inbox/../../x.md"} {
		t.Run(p, func(t *testing.T) {
			_, err := s.Read(p)
			assert.ErrorIs(t, err, apperr.ErrInvalidPath)
			assert.ErrorIs(t, s.Write(p, []byte("x")), apperr.ErrInvalidPath)
			_, err = s.List(p, "")
			assert.ErrorIs(t, err, apperr.ErrInvalidPath)
			assert.ErrorIs(t, s.Move("a.md", p), apperr.ErrInvalidPath)
		})
	}
	_, err := s.Stat("Inbox/..")
	assert.NoError(t, err, "paths that stay inside the vault are allowed")
}

func TestList(t *testing.T) {
	s := tempVault(t, map[string]string{
		"Inbox/a.md":                        "a",
		"Projects/launch/b.md":              "b",
		"Projects/launch/c.markdown":        "c",
		"readme.txt":                        "not a note",
		".backups/a.md_20250101_000000.bak": "old",
		".paranote/cache/launch.md":         "cached",
	})

	items, err := s.List("", "")
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "Inbox/a.md", items[0].Path)
	assert.Equal(t, "Projects/launch/b.md", items[1].Path)
	assert.Equal(t, checksum.Sum([]byte("b")), items[1].Checksum)
	assert.False(t, items[1].UpdatedAt.IsZero())

	items, err = s.List("Projects", "*.markdown")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Projects/launch/c.markdown", items[0].Path)

	items, err = s.List("Areas", "")
	assert.ErrorIs(t, err, os.ErrNotExist)
	assert.Nil(t, items)

	_, err = s.List("", "[bad")
	assert.ErrorContains(t, err, "bad pattern")
}

func TestList_HiddenStartDir(t *testing.T) {
	s := tempVault(t, map[string]string{".backups/plan.md": "old"})
	items, err := s.List(".backups", "")
	require.NoError(t, err)
	assert.Len(t, items, 1, "the listed directory itself may be hidden")
}

func TestBackup(t *testing.T) {
	s := tempVault(t, map[string]string{"Projects/plan.md": "v1"})
	at := time.Date(2025, 1, 10, 9, 8, 7, 5, time.UTC)

	first, err := s.Backup("Projects/plan.md", ".backups", at)
	require.NoError(t, err)
	assert.Equal(t, ".backups/plan.md_20250110_090807.bak", first)
	assert.Equal(t, "v1", readString(t, s, first))

	require.NoError(t, s.Write("Projects/plan.md", []byte("v2")))
	second, err := s.Backup("Projects/plan.md", ".backups", at)
	require.NoError(t, err)
	assert.Equal(t, ".backups/plan.md_20250110_090807_1.bak", second)

	require.NoError(t, s.Write("Projects/plan.md", []byte("v3")))
	third, err := s.Backup("Projects/plan.md", ".backups", at)
	require.NoError(t, err)
	assert.Equal(t, ".backups/plan.md_20250110_090807_2.bak", third)

	assert.Equal(t, "v1", readString(t, s, first))
	assert.Equal(t, "v2", readString(t, s, second))
	assert.Equal(t, "v3", readString(t, s, third))

	_, err = s.Backup("nope.md", ".backups", at)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestMove(t *testing.T) {
	s := tempVault(t, map[string]string{"Inbox/idea.md": "data", "Resources/taken.md": "keep"})

	require.NoError(t, s.Move("Inbox/idea.md", "Resources/guides/idea.md"))
	assert.Equal(t, "data", readString(t, s, "Resources/guides/idea.md"))
	_, err := s.Stat("Inbox/idea.md")
	assert.ErrorIs(t, err, os.ErrNotExist)

	err = s.Move("Resources/guides/idea.md", "Resources/taken.md")
	assert.ErrorIs(t, err, apperr.ErrAlreadyExists)
	assert.Equal(t, "keep", readString(t, s, "Resources/taken.md"))

	assert.ErrorIs(t, s.Move("Inbox/ghost.md", "Archive/ghost.md"), os.ErrNotExist)
}
