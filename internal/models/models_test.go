package models

import (
	"encoding/json"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"
)

func TestFrontmatter_YAMLKeepsOrder(t *testing.T) {
	src := "zeta: 1\nalpha: two\nmid:\n  - a\n  - b\n"
	var fm Frontmatter
	if err := yaml.Unmarshal([]byte(src), &fm); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	got := strings.Join(fm.Keys(), ",")
	if got != "zeta,alpha,mid" {
		t.Errorf("keys = %q", got)
	}
	out, err := yaml.Marshal(&fm)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !strings.HasPrefix(string(out), "zeta: 1\nalpha: two\n") {
		t.Errorf("output order lost:\n%s", out)
	}
}

func TestFrontmatter_YAMLKeepsDatesPlain(t *testing.T) {
	src := "created: 2025-01-08\nwhen: 2025-01-08T09:30:00Z\nlabel: \"quoted text\"\ndays:\n  - 2025-02-01\n"
	var fm Frontmatter
	if err := yaml.Unmarshal([]byte(src), &fm); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got := fm.String("created"); got != "2025-01-08" {
		t.Errorf("created = %q", got)
	}
	out, err := yaml.Marshal(&fm)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want := "created: 2025-01-08\nwhen: 2025-01-08T09:30:00Z\nlabel: quoted text\ndays:\n    - 2025-02-01\n"
	if string(out) != want {
		t.Errorf("output:\n%s\nwant:\n%s", out, want)
	}
}

func TestFrontmatter_RejectsScalar(t *testing.T) {
	var fm Frontmatter
	if err := yaml.Unmarshal([]byte("just a string"), &fm); err == nil {
		t.Fatal("expected error for scalar document")
	}
}

func TestFrontmatter_SetKeepsPosition(t *testing.T) {
	fm := FrontmatterOf("a", 1, "b", 2)
	fm.Set("a", 10)
	fm.Set("c", 3)
	if got := strings.Join(fm.Keys(), ","); got != "a,b,c" {
		t.Errorf("keys = %q", got)
	}
	if v, _ := fm.Get("a"); v != 10 {
		t.Errorf("a = %v", v)
	}
}

func TestFrontmatter_MergeOverrides(t *testing.T) {
	base := FrontmatterOf("title", "Old", "status", "draft")
	base.Merge(FrontmatterOf("status", "done", "owner", "sam"))
	if base.String("status") != "done" || base.String("owner") != "sam" || base.String("title") != "Old" {
		t.Errorf("merge result = %v", base.Map())
	}
}

func TestFrontmatter_JSONOrder(t *testing.T) {
	fm := FrontmatterOf("b", "x", "a", []any{"y"})
	out, err := json.Marshal(fm)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(out) != `{"b":"x","a":["y"]}` {
		t.Errorf("json = %s", out)
	}
	var back Frontmatter
	if err := json.Unmarshal([]byte(`{"z":1,"y":"two"}`), &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got := strings.Join(back.Keys(), ","); got != "z,y" {
		t.Errorf("keys = %q", got)
	}
}

func TestFrontmatter_NilSafe(t *testing.T) {
	var fm *Frontmatter
	if fm.Len() != 0 || fm.String("x") != "" {
		t.Error("nil frontmatter should behave as empty")
	}
	if _, ok := fm.Get("x"); ok {
		t.Error("nil frontmatter has no keys")
	}
}

func TestParseCategory(t *testing.T) {
	cases := map[string]Category{
		"projects":  Projects,
		" AREAS ":   Areas,
		"Resources": Resources,
		"archive":   Archive,
		"INBOX":     Inbox,
	}
	for in, want := range cases {
		got, err := ParseCategory(in)
		if err != nil {
			t.Errorf("ParseCategory(%q): %v", in, err)
			continue
		}
		if got != want {
			t.Errorf("ParseCategory(%q) = %v, want %v", in, got, want)
		}
	}
	if _, err := ParseCategory("someday"); err == nil {
		t.Error("unknown category should fail")
	}
}

func TestActionItem_FingerprintIgnoresLine(t *testing.T) {
	a := ActionItem{Text: "Call vendor", LineNumber: 4}
	b := ActionItem{Text: "Call vendor", LineNumber: 9}
	if a.Fingerprint("p.md") != b.Fingerprint("p.md") {
		t.Error("fingerprint should not depend on line number")
	}
	if a.Fingerprint("p.md") == a.Fingerprint("q.md") {
		t.Error("fingerprint should depend on path")
	}
	dup := ActionItem{Text: "Call vendor", LineNumber: 12, Occurrence: 1}
	if dup.Fingerprint("p.md") == a.Fingerprint("p.md") {
		t.Error("a repeated line should get its own fingerprint")
	}
}
