package parser

import (
	"errors"
	"strings"
	"testing"

	"github.com/starford/paranote/internal/apperr"
	"github.com/starford/paranote/internal/models"
)

func TestSplitFrontmatter_NoMarker(t *testing.T) {
	for _, in := range []string{
		"",
		"   \n\t",
		"# Heading\nBody text.\n",
		"\n---\ntitle: late\n---\nbody",
	} {
		fm, body, err := SplitFrontmatter(in)
		if err != nil {
			t.Fatalf("SplitFrontmatter(%q): %v", in, err)
		}
		if fm.Len() != 0 {
			t.Errorf("SplitFrontmatter(%q) frontmatter = %v, want empty", in, fm.Map())
		}
		if body != in {
			t.Errorf("SplitFrontmatter(%q) body = %q, want input unchanged", in, body)
		}
	}
}

func TestSplitFrontmatter_MetaAndBody(t *testing.T) {
	in := "---\ntitle: Hello\ntags:\n  - go\n---\n\n\n# Hello\nBody.\n"
	fm, body, err := SplitFrontmatter(in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fm.String("title") != "Hello" {
		t.Errorf("title = %q", fm.String("title"))
	}
	if body != "# Hello\nBody.\n" {
		t.Errorf("body = %q", body)
	}
}

func TestSplitFrontmatter_Unterminated(t *testing.T) {
	in := "---\nfoo"
	fm, body, err := SplitFrontmatter(in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fm.Len() != 0 || body != in {
		t.Errorf("got (%v, %q), want empty frontmatter and full text", fm.Map(), body)
	}
}

func TestSplitFrontmatter_EmptyBlock(t *testing.T) {
	fm, body, err := SplitFrontmatter("---\n  \n---\nbody")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fm.Len() != 0 {
		t.Errorf("frontmatter = %v, want empty", fm.Map())
	}
	if body != "body" {
		t.Errorf("body = %q", body)
	}
}

func TestSplitFrontmatter_InvalidYAML(t *testing.T) {
	_, _, err := SplitFrontmatter("---\n: bad: [\n---\nBody\n")
	if err == nil {
		t.Fatal("expected structured data error")
	}
	var sde *StructuredDataError
	if !errors.As(err, &sde) {
		t.Errorf("error type = %T, want *StructuredDataError", err)
	}
	if !errors.Is(err, apperr.ErrStructuredData) {
		t.Error("error should match apperr.ErrStructuredData")
	}
}

func TestSplitFrontmatter_ScalarBlockIsError(t *testing.T) {
	if _, _, err := SplitFrontmatter("---\njust words\n---\nbody"); err == nil {
		t.Fatal("scalar frontmatter should be rejected")
	}
}

func TestRenderNote_RoundTrip(t *testing.T) {
	fm, body, err := SplitFrontmatter("---\ntitle: Plan\nstatus: draft\n---\n# Plan\n\n- [ ] first\n")
	if err != nil {
		t.Fatal(err)
	}
	fm.Merge(models.FrontmatterOf("status", "active", "owner", "sam"))

	out, err := RenderNote(fm, body)
	if err != nil {
		t.Fatalf("RenderNote: %v", err)
	}
	if !strings.HasPrefix(out, "---\ntitle: Plan\nstatus: active\nowner: sam\n---\n\n") {
		t.Errorf("unexpected rendering:\n%s", out)
	}

	fm2, body2, err := SplitFrontmatter(out)
	if err != nil {
		t.Fatalf("re-split: %v", err)
	}
	if body2 != body {
		t.Errorf("body changed: %q -> %q", body, body2)
	}
	for _, k := range []string{"title", "status", "owner"} {
		if fm2.String(k) != fm.String(k) {
			t.Errorf("%s = %q, want %q", k, fm2.String(k), fm.String(k))
		}
	}
}

func TestStripFrontmatterPrefix(t *testing.T) {
	cases := map[string]string{
		"---\n: bad: [\n---\nBody\n": "Body\n",
		"---\nno close":              "---\nno close",
		"plain text":                 "plain text",
		"---\nx: 1\n---":             "",
	}
	for in, want := range cases {
		if got := stripFrontmatterPrefix(in); got != want {
			t.Errorf("stripFrontmatterPrefix(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestRenderNote_RejectsDelimiterInValues(t *testing.T) {
	for _, fm := range []*models.Frontmatter{
		models.FrontmatterOf("range", "mon---fri"),
		models.FrontmatterOf("a", 1, "divider", "---"),
		models.FrontmatterOf("notes", map[string]any{"x": "a---b"}),
	} {
		out, err := RenderNote(fm, "body\n")
		if !errors.Is(err, apperr.ErrSafety) {
			t.Errorf("RenderNote(%v) = %q, %v; want ErrSafety", fm.Keys(), out, err)
		}
	}
}

func TestRenderNote_BodyRulesAreFine(t *testing.T) {
	out, err := RenderNote(models.FrontmatterOf("title", "Plan"), "intro\n\n---\n\nmore\n")
	if err != nil {
		t.Fatalf("RenderNote: %v", err)
	}
	if out != "---\ntitle: Plan\n---\n\nintro\n\n---\n\nmore\n" {
		t.Errorf("out = %q", out)
	}
}
