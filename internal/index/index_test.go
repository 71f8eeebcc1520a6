package index

import (
	"errors"
	"os"
	"sort"
	"testing"

	"github.com/starford/paranote/internal/apperr"
	"github.com/starford/paranote/internal/models"
	"github.com/starford/paranote/internal/parser"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	f, err := os.CreateTemp("", "paranote-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	f.Close()
	t.Cleanup(func() { os.Remove(f.Name()) })

	db, err := Open(f.Name())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// note parses text the way the indexer does.
func note(t *testing.T, path, text string) *models.ParsedNote {
	t.Helper()
	n, err := parser.New().Analyze(path, text)
	if err != nil {
		t.Fatalf("Analyze(%s): %v", path, err)
	}
	return n
}

const sprintNote = `---
title: Sprint Plan
tags: [work]
---
Sprint deadline and milestone for the launch deliverable.

- [ ] Draft launch post @ana due: 2024-03-01 [high]
- [x] Book venue
`

func TestSchemaCreation(t *testing.T) {
	db := testDB(t)
	var count int
	if err := db.conn.QueryRow(`SELECT count(*) FROM notes`).Scan(&count); err != nil {
		t.Fatalf("notes table missing: %v", err)
	}
	if err := db.conn.QueryRow(`SELECT count(*) FROM action_items`).Scan(&count); err != nil {
		t.Fatalf("action_items table missing: %v", err)
	}
}

func TestUpsertAndGetNote(t *testing.T) {
	db := testDB(t)
	if err := db.UpsertNote(note(t, "Projects/sprint.md", sprintNote), "abc123"); err != nil {
		t.Fatalf("UpsertNote: %v", err)
	}
	cs, err := db.GetChecksum("Projects/sprint.md")
	if err != nil {
		t.Fatalf("GetChecksum: %v", err)
	}
	if cs != "abc123" {
		t.Errorf("checksum = %q, want %q", cs, "abc123")
	}

	row, err := db.GetNote("Projects/sprint.md")
	if err != nil {
		t.Fatalf("GetNote: %v", err)
	}
	if row.Title != "Sprint Plan" {
		t.Errorf("title = %q", row.Title)
	}
	if row.Category != "projects" {
		t.Errorf("category = %q, want projects", row.Category)
	}
	if row.ActionCount != 2 || row.PendingCount != 1 {
		t.Errorf("actions = %d/%d, want 2/1", row.ActionCount, row.PendingCount)
	}
	if len(row.Tags) != 1 || row.Tags[0] != "work" {
		t.Errorf("tags = %v", row.Tags)
	}
}

func TestGetNote_NotFound(t *testing.T) {
	db := testDB(t)
	_, err := db.GetNote("missing.md")
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestActionItemsStored(t *testing.T) {
	db := testDB(t)
	_ = db.UpsertNote(note(t, "sprint.md", sprintNote), "1")

	items, err := db.ActionItems("sprint.md")
	if err != nil {
		t.Fatalf("ActionItems: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("got %d items, want 2", len(items))
	}
	first := items[0]
	if first.Text != "Draft launch post" || first.Assignee != "ana" || first.DueDate != "2024-03-01" || first.Priority != "high" {
		t.Errorf("first item = %+v", first)
	}
	if !items[1].Completed {
		t.Error("second item should be completed")
	}
}

func TestDeleteNote(t *testing.T) {
	db := testDB(t)
	_ = db.UpsertNote(note(t, "del.md", sprintNote), "x")

	if err := db.DeleteNote("del.md"); err != nil {
		t.Fatalf("DeleteNote: %v", err)
	}
	cs, _ := db.GetChecksum("del.md")
	if cs != "" {
		t.Errorf("deleted note still has checksum %q", cs)
	}
	items, _ := db.ActionItems("del.md")
	if len(items) != 0 {
		t.Errorf("expected no action items after delete, got %d", len(items))
	}
}

func TestUpsertUpdatesExisting(t *testing.T) {
	db := testDB(t)
	_ = db.UpsertNote(note(t, "up.md", sprintNote), "1")
	_ = db.UpsertNote(note(t, "up.md", "---\ntitle: New\n---\n- [ ] only one\n"), "2")

	cs, _ := db.GetChecksum("up.md")
	if cs != "2" {
		t.Errorf("checksum = %q, want %q", cs, "2")
	}
	items, _ := db.ActionItems("up.md")
	if len(items) != 1 || items[0].Text != "only one" {
		t.Errorf("items not replaced: %+v", items)
	}
}

func TestGetChecksum_NotFound(t *testing.T) {
	db := testDB(t)
	cs, err := db.GetChecksum("nonexistent.md")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cs != "" {
		t.Errorf("expected empty checksum, got %q", cs)
	}
}

func TestListNotes_Filters(t *testing.T) {
	db := testDB(t)
	_ = db.UpsertNote(note(t, "a.md", sprintNote), "1")
	_ = db.UpsertNote(note(t, "b.md", "---\ntags: [reading]\n---\nA tutorial and reference guide.\n"), "2")
	_ = db.UpsertNote(note(t, "c.md", "plain words"), "3")

	rows, total, err := db.ListNotes(NoteFilter{})
	if err != nil {
		t.Fatalf("ListNotes: %v", err)
	}
	if total != 3 || len(rows) != 3 || rows[0].Path != "a.md" {
		t.Errorf("all: total=%d rows=%+v", total, rows)
	}

	rows, total, _ = db.ListNotes(NoteFilter{Category: "resources"})
	if total != 1 || rows[0].Path != "b.md" {
		t.Errorf("category filter: total=%d rows=%+v", total, rows)
	}

	rows, total, _ = db.ListNotes(NoteFilter{Tag: "work"})
	if total != 1 || rows[0].Path != "a.md" {
		t.Errorf("tag filter: total=%d rows=%+v", total, rows)
	}

	rows, total, _ = db.ListNotes(NoteFilter{Limit: 1, Offset: 1})
	if total != 3 || len(rows) != 1 || rows[0].Path != "b.md" {
		t.Errorf("paging: total=%d rows=%+v", total, rows)
	}
}

func TestAllChecksums(t *testing.T) {
	db := testDB(t)
	_ = db.UpsertNote(note(t, "a.md", "alpha"), "1")
	_ = db.UpsertNote(note(t, "b.md", "beta"), "2")

	got, err := db.AllChecksums()
	if err != nil {
		t.Fatalf("AllChecksums: %v", err)
	}
	if len(got) != 2 || got["a.md"] != "1" || got["b.md"] != "2" {
		t.Errorf("AllChecksums = %v", got)
	}
}

func TestSearch_Basic(t *testing.T) {
	db := testDB(t)
	_ = db.UpsertNote(note(t, "s.md", "---\ntitle: Search Me\n---\nuniqueword appears here\n"), "1")

	results, err := db.Search(SearchQuery{Text: "uniqueword"})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 || results[0].Path != "s.md" {
		t.Errorf("search results = %+v, want 1 hit for s.md", results)
	}
}

func TestSearch_TermsAndCategory(t *testing.T) {
	db := testDB(t)
	_ = db.UpsertNote(note(t, "Projects/site/plan.md", "Launch milestone: follow-up with design.\n\n- [ ] Ship it\n"), "1")
	_ = db.UpsertNote(note(t, "Resources/guide.md", "A reference guide to design and follow-up etiquette.\n"), "2")
	_ = db.UpsertNote(note(t, "Inbox/sale.md", "Discount of 50% today\n"), "3")
	_ = db.UpsertNote(note(t, "Inbox/stock.md", "Order 500 widgets\n"), "4")

	paths := func(rs []SearchResult) []string {
		out := make([]string, len(rs))
		for i, r := range rs {
			out[i] = r.Path
		}
		sort.Strings(out)
		return out
	}

	got, err := db.Search(SearchQuery{Text: "design follow-up"})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if p := paths(got); len(p) != 2 || p[0] != "Projects/site/plan.md" || p[1] != "Resources/guide.md" {
		t.Errorf("all terms = %v", p)
	}

	got, _ = db.Search(SearchQuery{Text: "design", Category: "projects"})
	if len(got) != 1 || got[0].Category != "projects" || got[0].PendingCount != 1 {
		t.Errorf("category filter = %+v", got)
	}

	got, _ = db.Search(SearchQuery{Text: "50%"})
	if p := paths(got); len(p) != 1 || p[0] != "Inbox/sale.md" {
		t.Errorf("literal percent = %v", p)
	}

	got, err = db.Search(SearchQuery{Text: "   "})
	if err != nil || len(got) != 0 {
		t.Errorf("blank query = %v, %v", got, err)
	}
}
