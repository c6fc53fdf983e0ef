// Package snapshot exports a built Repo to a SQLite file. The export is an
// immutable artifact for external consumers (LSP tooling, ad-hoc queries):
// every export rebuilds all tables from scratch, mirroring how the Repo
// itself is rebuilt rather than mutated.
package snapshot

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"sort"

	_ "github.com/mattn/go-sqlite3"

	"github.com/starford/ansuz/internal/graph"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS documents (
	doc_id    TEXT PRIMARY KEY,
	name      TEXT NOT NULL,
	kind      TEXT NOT NULL,
	file_path TEXT NOT NULL,
	checksum  TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS concepts (
	id      TEXT PRIMARY KEY,
	kind    TEXT NOT NULL,
	doc_id  TEXT NOT NULL,
	slug    TEXT NOT NULL,
	name    TEXT NOT NULL,
	extends TEXT NOT NULL DEFAULT '[]'
);

CREATE TABLE IF NOT EXISTS operations (
	id        TEXT PRIMARY KEY,
	doc_id    TEXT NOT NULL,
	name      TEXT NOT NULL,
	inherited INTEGER NOT NULL DEFAULT 0,
	steps     TEXT NOT NULL DEFAULT '[]',
	checklist TEXT NOT NULL DEFAULT '[]'
);

CREATE TABLE IF NOT EXISTS localdefs (
	id      TEXT PRIMARY KEY,
	doc_id  TEXT NOT NULL,
	name    TEXT NOT NULL,
	content TEXT NOT NULL DEFAULT '',
	extends TEXT NOT NULL DEFAULT '[]'
);

CREATE TABLE IF NOT EXISTS edges (
	src  TEXT NOT NULL,
	dst  TEXT NOT NULL,
	role TEXT NOT NULL,
	UNIQUE(src, dst, role)
);

CREATE INDEX IF NOT EXISTS idx_edges_src ON edges(src);
CREATE INDEX IF NOT EXISTS idx_edges_dst ON edges(dst);
`

// Export writes the repo to a SQLite file at path, replacing any previous
// contents.
func Export(path string, repo *graph.Repo) error {
	conn, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return fmt.Errorf("snapshot: open db: %w", err)
	}
	defer conn.Close()

	if _, err := conn.Exec(schemaSQL); err != nil {
		return fmt.Errorf("snapshot: apply schema: %w", err)
	}

	tx, err := conn.Begin()
	if err != nil {
		return fmt.Errorf("snapshot: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	for _, table := range []string{"documents", "concepts", "operations", "localdefs", "edges"} {
		if _, err := tx.Exec("DELETE FROM " + table); err != nil {
			return fmt.Errorf("snapshot: clear %s: %w", table, err)
		}
	}

	for _, doc := range repo.Documents {
		_, err := tx.Exec(`INSERT INTO documents (doc_id, name, kind, file_path, checksum) VALUES (?, ?, ?, ?, ?)`,
			doc.DocID, doc.Name, string(doc.Kind), doc.FilePath, repo.Checksums[doc.FilePath])
		if err != nil {
			return fmt.Errorf("snapshot: insert document: %w", err)
		}
	}
	for _, c := range repo.Concepts {
		_, err := tx.Exec(`INSERT OR IGNORE INTO concepts (id, kind, doc_id, slug, name, extends) VALUES (?, ?, ?, ?, ?, ?)`,
			c.ID, string(c.Kind), c.DocID, c.Slug, c.Name, jsonList(c.Extends))
		if err != nil {
			return fmt.Errorf("snapshot: insert concept: %w", err)
		}
	}
	for _, op := range repo.OperationList() {
		steps, _ := json.Marshal(op.Steps)
		_, err := tx.Exec(`INSERT INTO operations (id, doc_id, name, inherited, steps, checklist) VALUES (?, ?, ?, ?, ?, ?)`,
			op.ID, op.DocID, op.Name, boolInt(op.Inherited), string(steps), jsonList(op.Checklist))
		if err != nil {
			return fmt.Errorf("snapshot: insert operation: %w", err)
		}
	}
	for _, id := range sortedDefIDs(repo) {
		def := repo.LocalDefs[id]
		_, err := tx.Exec(`INSERT INTO localdefs (id, doc_id, name, content, extends) VALUES (?, ?, ?, ?, ?)`,
			def.ID, def.DocID, def.Name, def.Content, jsonList(def.Extends))
		if err != nil {
			return fmt.Errorf("snapshot: insert localdef: %w", err)
		}
	}
	for _, e := range repo.Edges {
		_, err := tx.Exec(`INSERT OR IGNORE INTO edges (src, dst, role) VALUES (?, ?, ?)`,
			e.From, e.To, string(e.Role))
		if err != nil {
			return fmt.Errorf("snapshot: insert edge: %w", err)
		}
	}

	return tx.Commit()
}

func jsonList(items []string) string {
	if items == nil {
		items = []string{}
	}
	b, _ := json.Marshal(items)
	return string(b)
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func sortedDefIDs(repo *graph.Repo) []string {
	ids := make([]string, 0, len(repo.LocalDefs))
	for id := range repo.LocalDefs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
