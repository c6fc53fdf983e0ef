package snapshot

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/starford/ansuz/internal/graph"
	"github.com/starford/ansuz/internal/testutil"
)

const doc = `---
Name: Orders
---

## Local Definitions

### Rush Order

Same-day handling.

## Operations

### Process

1. Handle the [Rush Order].
`

func TestExport(t *testing.T) {
	root, store := testutil.TestWorkspace(t)
	testutil.WriteFile(t, root, "orders.busy.md", doc)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	repo, err := graph.Load(context.Background(), store, []string{"**/*.md"}, logger)
	if err != nil {
		t.Fatal(err)
	}

	dbPath := filepath.Join(t.TempDir(), "snapshot.db")
	if err := Export(dbPath, repo); err != nil {
		t.Fatalf("export: %v", err)
	}

	conn, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()

	counts := map[string]int{
		"documents":  len(repo.Documents),
		"operations": len(repo.Operations),
		"localdefs":  len(repo.LocalDefs),
		"edges":      len(repo.Edges),
	}
	for table, want := range counts {
		var got int
		if err := conn.QueryRow("SELECT COUNT(*) FROM " + table).Scan(&got); err != nil {
			t.Fatalf("count %s: %v", table, err)
		}
		if got != want {
			t.Errorf("%s rows = %d, want %d", table, got, want)
		}
	}

	var steps string
	err = conn.QueryRow("SELECT steps FROM operations WHERE id = ?", "orders#process").Scan(&steps)
	if err != nil {
		t.Fatal(err)
	}
	if steps == "[]" || steps == "" {
		t.Errorf("steps json = %q", steps)
	}
}

func TestExport_Overwrites(t *testing.T) {
	root, store := testutil.TestWorkspace(t)
	testutil.WriteFile(t, root, "orders.busy.md", doc)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	repo, err := graph.Load(context.Background(), store, []string{"**/*.md"}, logger)
	if err != nil {
		t.Fatal(err)
	}

	dbPath := filepath.Join(t.TempDir(), "snapshot.db")
	if err := Export(dbPath, repo); err != nil {
		t.Fatal(err)
	}
	// A second export of the same repo must replace, not accumulate.
	if err := Export(dbPath, repo); err != nil {
		t.Fatal(err)
	}

	conn, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()

	var docs int
	if err := conn.QueryRow("SELECT COUNT(*) FROM documents").Scan(&docs); err != nil {
		t.Fatal(err)
	}
	if docs != len(repo.Documents) {
		t.Errorf("documents = %d after re-export, want %d", docs, len(repo.Documents))
	}
}
