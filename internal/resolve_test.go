package internal

import (
	"os"
	"path/filepath"
	"testing"
)

func TestResolve(t *testing.T) {
	vault := t.TempDir()
	outside := t.TempDir()
	if err := os.WriteFile(filepath.Join(outside, "loose.md"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	absVault, _ := filepath.Abs(vault)
	absOutside, _ := filepath.Abs(outside)

	tests := []struct {
		name     string
		arg      string
		wantRoot string
		wantRel  string
	}{
		{"vault itself", vault, absVault, ""},
		{"note in vault", filepath.Join(vault, "Projects", "site", "plan.md"), absVault, "Projects/site/plan.md"},
		{"missing note in vault", filepath.Join(vault, "Inbox", "gone.md"), absVault, "Inbox/gone.md"},
		{"file outside", filepath.Join(outside, "loose.md"), absOutside, "loose.md"},
		{"dir outside", outside, absOutside, ""},
		{"missing outside", filepath.Join(outside, "nope.md"), absOutside, "nope.md"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Resolve(vault, tt.arg)
			if err != nil {
				t.Fatalf("Resolve: %v", err)
			}
			if got.Root != tt.wantRoot || got.Rel != tt.wantRel {
				t.Errorf("Resolve = %+v, want {%s %s}", got, tt.wantRoot, tt.wantRel)
			}
		})
	}
}

func TestResolve_SiblingPrefixIsOutside(t *testing.T) {
	parent := t.TempDir()
	vault := filepath.Join(parent, "vault")
	sibling := filepath.Join(parent, "vault-old")
	for _, d := range []string{vault, sibling} {
		if err := os.Mkdir(d, 0o755); err != nil {
			t.Fatal(err)
		}
	}
	got, err := Resolve(vault, sibling)
	if err != nil {
		t.Fatal(err)
	}
	if got.Rel != "" || got.Root != sibling {
		t.Errorf("Resolve = %+v, want sibling as its own root", got)
	}
}
