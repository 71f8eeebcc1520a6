package internal

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/starford/paranote/internal/models"
	"github.com/starford/paranote/internal/parser"
	"github.com/starford/paranote/internal/testutil"
)

func TestNewParser_UsesConfiguredKeywords(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Categorization.Threshold = 1
	cfg.Categorization.Keywords = map[string]parser.KeywordTiers{
		"areas": {High: []string{"garden"}},
	}
	cfg.Reading.WordsPerMinute = 2

	p, err := NewParser(cfg)
	if err != nil {
		t.Fatal(err)
	}
	note, err := p.Analyze("n.md", "Water the garden today, then rest.")
	if err != nil {
		t.Fatal(err)
	}
	if note.Category.Category != models.Areas {
		t.Errorf("category = %s, want areas", note.Category.Category)
	}
	if note.ReadTime != 3 {
		t.Errorf("read time = %d, want 3 at 2 wpm", note.ReadTime)
	}
}

func TestNewNoteService_BackupDirFromConfig(t *testing.T) {
	vault, store := testutil.TestVault(t)
	testutil.WriteNote(t, vault, "a.md", "---\ntitle: A\n---\nbody\n")

	cfg := NewDefaultConfig()
	cfg.Backup.Dir = "archive/bak"
	svc, err := NewNoteService(cfg, store, testutil.DiscardLogger(), nil)
	if err != nil {
		t.Fatal(err)
	}
	res, err := svc.UpdateFrontmatter(context.Background(), "a.md", models.FrontmatterOf("done", true), true)
	if err != nil {
		t.Fatal(err)
	}
	if filepath.Dir(res.BackupPath) != "archive/bak" {
		t.Errorf("backup path = %s", res.BackupPath)
	}
}

func TestOpenIndex_CreatesDirectory(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.SQLite.Path = filepath.Join(t.TempDir(), "nested", "dir", "index.db")
	db, err := OpenIndex(cfg)
	if err != nil {
		t.Fatalf("OpenIndex: %v", err)
	}
	defer db.Close()
	if _, err := os.Stat(filepath.Dir(cfg.SQLite.Path)); err != nil {
		t.Errorf("index dir missing: %v", err)
	}
}

func TestOpenIndex_RelativePathLivesInVault(t *testing.T) {
	vault := t.TempDir()
	cfg := NewDefaultConfig()
	cfg.Vault.Path = vault
	db, err := OpenIndex(cfg)
	if err != nil {
		t.Fatalf("OpenIndex: %v", err)
	}
	defer db.Close()
	if _, err := os.Stat(filepath.Join(vault, ".paranote", "index.db")); err != nil {
		t.Errorf("index not inside vault: %v", err)
	}
}

func TestOpenVault_SyncUsesVaultPattern(t *testing.T) {
	vault := t.TempDir()
	testutil.WriteNote(t, vault, "Inbox/a.markdown", "# A\n")
	testutil.WriteNote(t, vault, "Inbox/b.md", "# B\n")
	cfg := NewDefaultConfig()
	cfg.Vault.Path = vault
	cfg.Vault.Pattern = "*.markdown"
	v, err := OpenVault(cfg, testutil.DiscardLogger())
	if err != nil {
		t.Fatalf("OpenVault: %v", err)
	}
	defer v.Close()
	sums, err := v.Index.AllChecksums()
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := sums["Inbox/a.markdown"]; !ok || len(sums) != 1 {
		t.Errorf("indexed = %v, want only Inbox/a.markdown", sums)
	}
}

func TestNewLogger_WritesJSON(t *testing.T) {
	f, err := os.CreateTemp(t.TempDir(), "log")
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	NewLogger(f, 0).Info("hello")
	data, _ := os.ReadFile(f.Name())
	if len(data) == 0 || data[0] != '{' {
		t.Errorf("log output = %q, want JSON", data)
	}
}
