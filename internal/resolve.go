package internal

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Target is a command-line path split into a storage root and a path
// relative to it.
type Target struct {
	Root string
	Rel  string
}

// Resolve locates arg for the CLI. Paths inside the vault keep the vault
// as their root so PARA folders are recognised; anything else is rooted at
// its own directory (or at itself, for directories).
func Resolve(vault, arg string) (Target, error) {
	absVault, err := filepath.Abs(vault)
	if err != nil {
		return Target{}, fmt.Errorf("resolve vault: %w", err)
	}
	absArg, err := filepath.Abs(arg)
	if err != nil {
		return Target{}, fmt.Errorf("resolve %s: %w", arg, err)
	}

	if rel, ok := within(absVault, absArg); ok {
		return Target{Root: absVault, Rel: rel}, nil
	}

	info, err := os.Stat(absArg)
	switch {
	case err == nil && info.IsDir():
		return Target{Root: absArg}, nil
	case err == nil, errors.Is(err, fs.ErrNotExist):
		return Target{Root: filepath.Dir(absArg), Rel: filepath.Base(absArg)}, nil
	default:
		return Target{}, fmt.Errorf("stat %s: %w", arg, err)
	}
}

// within reports whether path lies inside root, returning the slash
// separated relative path ("" for root itself).
func within(root, path string) (string, bool) {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return "", false
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(os.PathSeparator)) {
		return "", false
	}
	if rel == "." {
		return "", true
	}
	return filepath.ToSlash(rel), true
}
