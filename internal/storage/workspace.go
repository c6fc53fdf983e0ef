// Package storage provides read-only access to a BUSY workspace on disk.
package storage

import (
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
)

// Provider is the read surface the loader depends on. The graph is a pure
// read model, so there are no write operations.
type Provider interface {
	// List returns workspace-relative paths of files matching any of the
	// glob patterns, sorted lexicographically.
	List(globs []string) ([]string, error)
	// Read returns the raw bytes of one workspace file.
	Read(rel string) ([]byte, error)
	// Root returns the absolute workspace root.
	Root() string
}

// Workspace implements Provider backed by the local file system.
type Workspace struct {
	root string
}

// NewWorkspace creates a Provider rooted at dir, which must exist.
func NewWorkspace(dir string) (*Workspace, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("storage: resolve root: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("storage: stat root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("storage: root is not a directory: %s", abs)
	}
	return &Workspace{root: abs}, nil
}

// Root returns the absolute workspace root.
func (w *Workspace) Root() string { return w.root }

// safePath resolves a relative path against the root and rejects any result
// that escapes it.
func (w *Workspace) safePath(rel string) (string, error) {
	cleaned := filepath.Clean(rel)
	if filepath.IsAbs(cleaned) {
		return "", fmt.Errorf("storage: absolute paths not allowed: %s", rel)
	}
	abs, err := filepath.Abs(filepath.Join(w.root, cleaned))
	if err != nil {
		return "", fmt.Errorf("storage: resolve path: %w", err)
	}
	if !strings.HasPrefix(abs, w.root+string(os.PathSeparator)) && abs != w.root {
		return "", fmt.Errorf("storage: path escapes workspace root: %s", rel)
	}
	return abs, nil
}

// List walks the workspace and returns every file matching the globs,
// sorted by path so corpus loads are deterministic.
func (w *Workspace) List(globs []string) ([]string, error) {
	if len(globs) == 0 {
		globs = []string{"**/*.md"}
	}
	var out []string
	err := filepath.WalkDir(w.root, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			if d.Name() == ".git" {
				return filepath.SkipDir
			}
			return nil
		}
		rel, err := filepath.Rel(w.root, p)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		for _, g := range globs {
			if MatchGlob(g, rel) {
				out = append(out, rel)
				break
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("storage: list: %w", err)
	}
	sort.Strings(out)
	return out, nil
}

// Read returns the raw bytes of a workspace file.
func (w *Workspace) Read(rel string) ([]byte, error) {
	abs, err := w.safePath(rel)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		return nil, fmt.Errorf("storage: read %s: %w", rel, err)
	}
	return data, nil
}

// MatchGlob matches a slash-separated path against a glob pattern where
// `**` spans any number of path segments and `*`/`?` match within one
// segment (path.Match semantics).
func MatchGlob(pattern, name string) bool {
	return matchSegments(strings.Split(path.Clean(pattern), "/"), strings.Split(name, "/"))
}

func matchSegments(pat, segs []string) bool {
	if len(pat) == 0 {
		return len(segs) == 0
	}
	if pat[0] == "**" {
		for skip := 0; skip <= len(segs); skip++ {
			if matchSegments(pat[1:], segs[skip:]) {
				return true
			}
		}
		return false
	}
	if len(segs) == 0 {
		return false
	}
	ok, err := path.Match(pat[0], segs[0])
	if err != nil || !ok {
		return false
	}
	return matchSegments(pat[1:], segs[1:])
}
