package index

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/paranote/internal/parser"
	"github.com/starford/paranote/internal/storage"
)

const (
	waitFor = 5 * time.Second
	tick    = 25 * time.Millisecond
)

type vaultHarness struct {
	t     *testing.T
	root  string
	store storage.Provider
	db    *DB
	// pattern selects note files; empty means the default.
	pattern string

	mu     sync.Mutex
	events []string
}

func newVaultHarness(t *testing.T) *vaultHarness {
	t.Helper()
	store, err := storage.NewFS(t.TempDir())
	require.NoError(t, err)
	return &vaultHarness{t: t, root: store.Root(), store: store, db: testDB(t)}
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func (h *vaultHarness) write(rel, content string) {
	h.t.Helper()
	abs := filepath.Join(h.root, filepath.FromSlash(rel))
	require.NoError(h.t, os.MkdirAll(filepath.Dir(abs), 0o755))
	require.NoError(h.t, os.WriteFile(abs, []byte(content), 0o644))
}

func (h *vaultHarness) sync() {
	h.t.Helper()
	require.NoError(h.t, Sync(h.db, h.store, parser.New(), h.pattern, quietLogger()))
}

func (h *vaultHarness) indexed(rel string) bool {
	cs, _ := h.db.GetChecksum(rel)
	return cs != ""
}

func (h *vaultHarness) record(kind, path string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events = append(h.events, kind+":"+path)
}

func (h *vaultHarness) sawEvent(e string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return slices.Contains(h.events, e)
}

// watch runs Watch until the test ends and gives fsnotify time to register.
func (h *vaultHarness) watch() {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = Watch(ctx, h.db, h.store, parser.New(), h.pattern, quietLogger(), h.record)
	}()
	h.t.Cleanup(func() {
		cancel()
		<-done
	})
	time.Sleep(100 * time.Millisecond)
}

func TestSync_IndexesAndPrunes(t *testing.T) {
	h := newVaultHarness(t)
	h.write("Inbox/keep.md", "- [ ] call Bob")
	h.write("Inbox/drop.md", "temporary")
	h.write("Inbox/empty.md", "  \n")
	h.write(".backups/keep.md_20250101_000000.md", "old copy")
	h.sync()

	checksums, err := h.db.AllChecksums()
	require.NoError(t, err)
	assert.Len(t, checksums, 2, "empty and hidden notes are skipped")

	require.NoError(t, os.Remove(filepath.Join(h.root, "Inbox", "drop.md")))
	h.sync()
	assert.False(t, h.indexed("Inbox/drop.md"))
	assert.True(t, h.indexed("Inbox/keep.md"))
}

func TestSync_ReparsesChangedNotes(t *testing.T) {
	h := newVaultHarness(t)
	h.write("Projects/plan.md", "- [ ] draft\n- [ ] review\n")
	h.sync()

	row, err := h.db.GetNote("Projects/plan.md")
	require.NoError(t, err)
	assert.Equal(t, 2, row.PendingCount)

	h.write("Projects/plan.md", "- [x] draft\n- [ ] review\n")
	h.sync()
	row, err = h.db.GetNote("Projects/plan.md")
	require.NoError(t, err)
	assert.Equal(t, 1, row.PendingCount)
}

func TestSync_UsesNotePattern(t *testing.T) {
	h := newVaultHarness(t)
	h.pattern = "*.markdown"
	h.write("Inbox/long.markdown", "- [ ] call Bob")
	h.write("Inbox/short.md", "- [ ] call Ann")
	h.sync()

	assert.True(t, h.indexed("Inbox/long.markdown"))
	assert.False(t, h.indexed("Inbox/short.md"))
}

func TestWatcher_UsesNotePattern(t *testing.T) {
	h := newVaultHarness(t)
	h.pattern = "*.markdown"
	h.watch()

	h.write("skip.md", "# Skip")
	h.write("keep.markdown", "# Keep")
	require.Eventually(t, func() bool { return h.indexed("keep.markdown") }, waitFor, tick)
	assert.False(t, h.indexed("skip.md"))
}

func TestWatcher_CreateAndUpdate(t *testing.T) {
	h := newVaultHarness(t)
	h.watch()

	h.write("new.md", "# New\n- [ ] first\n")
	require.Eventually(t, func() bool { return h.indexed("new.md") }, waitFor, tick)
	// The first read can race the write and see an empty file, in which
	// case the note arrives with the following write event instead.
	require.Eventually(t, func() bool {
		return h.sawEvent("created:new.md") || h.sawEvent("updated:new.md")
	}, waitFor, tick)

	h.write("new.md", "# New\n- [x] first\n")
	require.Eventually(t, func() bool {
		row, err := h.db.GetNote("new.md")
		return err == nil && row.PendingCount == 0
	}, waitFor, tick, "edit not reindexed")
	assert.True(t, h.sawEvent("updated:new.md"))
}

func TestWatcher_NewDirScanned(t *testing.T) {
	h := newVaultHarness(t)
	h.watch()

	require.NoError(t, os.MkdirAll(filepath.Join(h.root, "Projects", "launch"), 0o755))
	time.Sleep(200 * time.Millisecond)
	h.write("Projects/launch/deep.md", "# Deep")

	require.Eventually(t, func() bool { return h.indexed("Projects/launch/deep.md") }, waitFor, tick)
}

func TestWatcher_IgnoresHiddenDirs(t *testing.T) {
	h := newVaultHarness(t)
	require.NoError(t, os.MkdirAll(filepath.Join(h.root, ".backups"), 0o755))
	h.watch()

	h.write(".backups/old.md", "# Old")
	h.write("visible.md", "# Visible")

	require.Eventually(t, func() bool { return h.indexed("visible.md") }, waitFor, tick)
	assert.False(t, h.indexed(".backups/old.md"))
}

func TestWatcher_DeleteRemovesFromIndex(t *testing.T) {
	h := newVaultHarness(t)
	h.write("del.md", "# Delete Me")
	h.sync()
	require.True(t, h.indexed("del.md"))
	h.watch()

	require.NoError(t, os.Remove(filepath.Join(h.root, "del.md")))
	require.Eventually(t, func() bool { return !h.indexed("del.md") }, waitFor, tick)
	assert.True(t, h.sawEvent("deleted:del.md"))
}

func TestWatcher_MoveBetweenCategories(t *testing.T) {
	h := newVaultHarness(t)
	h.write("Inbox/idea.md", "# Idea")
	h.sync()
	h.watch()

	require.NoError(t, os.MkdirAll(filepath.Join(h.root, "Resources"), 0o755))
	time.Sleep(200 * time.Millisecond)
	require.NoError(t, os.Rename(filepath.Join(h.root, "Inbox", "idea.md"), filepath.Join(h.root, "Resources", "idea.md")))

	require.Eventually(t, func() bool {
		return !h.indexed("Inbox/idea.md") && h.indexed("Resources/idea.md")
	}, waitFor, tick, "old path should be dropped and the new one indexed")
}
