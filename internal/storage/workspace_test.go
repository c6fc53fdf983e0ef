package storage

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, root, rel string) {
	t.Helper()
	full := filepath.Join(root, rel)
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(full, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestMatchGlob(t *testing.T) {
	cases := []struct {
		pattern string
		name    string
		want    bool
	}{
		{"**/*.md", "a.md", true},
		{"**/*.md", "deep/nested/b.md", true},
		{"**/*.md", "a.txt", false},
		{"**/*.busy.md", "roles/support.busy.md", true},
		{"**/*.busy.md", "roles/support.md", false},
		{"docs/*.md", "docs/a.md", true},
		{"docs/*.md", "docs/sub/a.md", false},
		{"docs/**/*.md", "docs/sub/a.md", true},
		{"*.md", "a.md", true},
		{"*.md", "sub/a.md", false},
	}
	for _, tc := range cases {
		if got := MatchGlob(tc.pattern, tc.name); got != tc.want {
			t.Errorf("MatchGlob(%q, %q) = %v, want %v", tc.pattern, tc.name, got, tc.want)
		}
	}
}

func TestWorkspace_ListSortedAndFiltered(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "b.busy.md")
	writeFile(t, root, "a.busy.md")
	writeFile(t, root, "nested/c.busy.md")
	writeFile(t, root, "ignore.txt")
	writeFile(t, root, ".git/objects/junk.md")

	ws, err := NewWorkspace(root)
	if err != nil {
		t.Fatal(err)
	}
	paths, err := ws.List([]string{"**/*.md"})
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"a.busy.md", "b.busy.md", "nested/c.busy.md"}
	if len(paths) != len(want) {
		t.Fatalf("paths = %v, want %v", paths, want)
	}
	for i := range want {
		if paths[i] != want[i] {
			t.Errorf("paths[%d] = %q, want %q", i, paths[i], want[i])
		}
	}
}

func TestWorkspace_ReadRejectsEscape(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "ok.md")

	ws, err := NewWorkspace(root)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := ws.Read("ok.md"); err != nil {
		t.Errorf("read inside root: %v", err)
	}
	if _, err := ws.Read("../outside.md"); err == nil {
		t.Error("expected traversal rejection")
	}
	if _, err := ws.Read("/etc/passwd"); err == nil {
		t.Error("expected absolute path rejection")
	}
}

func TestNewWorkspace_RequiresDirectory(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "file.md")

	if _, err := NewWorkspace(filepath.Join(root, "file.md")); err == nil {
		t.Error("expected error for non-directory root")
	}
	if _, err := NewWorkspace(filepath.Join(root, "missing")); err == nil {
		t.Error("expected error for missing root")
	}
}
