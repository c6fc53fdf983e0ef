package graph

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/starford/ansuz/internal/apperr"
	"github.com/starford/ansuz/internal/models"
	"github.com/starford/ansuz/internal/testutil"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

const supportDoc = `---
Name: Support Role
Type: Playbook
---

[Escalate]: escalation.busy.md#handoff

## Local Definitions

### Persona

Calm, precise, never speculative.

### Traits

_Extends: Persona_

Additional detail.

## Operations

### Answer Ticket

1. Match the [Persona].
2. If stuck, run [Escalate].
`

const escalationDoc = `---
Name: Escalation
---

## Operations

### Handoff

1. Summarize the thread.
2. Page the on-call lead.
`

func loadCorpus(t *testing.T, files map[string]string) *Repo {
	t.Helper()
	root, store := testutil.TestWorkspace(t)
	for rel, content := range files {
		testutil.WriteFile(t, root, rel, content)
	}
	repo, err := Load(context.Background(), store, []string{"**/*.md"}, discardLogger())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	return repo
}

func findEdge(repo *Repo, from, to string) (models.Edge, bool) {
	for _, e := range repo.Edges {
		if e.From == from && e.To == to {
			return e, true
		}
	}
	return models.Edge{}, false
}

func TestLoad_EndToEnd(t *testing.T) {
	repo := loadCorpus(t, map[string]string{
		"support.busy.md":    supportDoc,
		"escalation.busy.md": escalationDoc,
	})

	if len(repo.Warnings) != 0 {
		t.Fatalf("warnings = %v", repo.Warnings)
	}
	if len(repo.Documents) != 2 {
		t.Fatalf("documents = %d, want 2", len(repo.Documents))
	}
	if _, ok := repo.Operations["support_role#answer-ticket"]; !ok {
		t.Fatalf("operations = %v", repo.Operations)
	}

	// Definition reference stays a ref edge.
	e, ok := findEdge(repo, "support_role#answer-ticket", "support_role::persona")
	if !ok || e.Role != models.RoleRef {
		t.Errorf("persona edge = %+v, ok = %v", e, ok)
	}

	// Import-resolved reference to an operation is upgraded to calls.
	e, ok = findEdge(repo, "support_role#answer-ticket", "escalation#handoff")
	if !ok || e.Role != models.RoleCalls {
		t.Errorf("handoff edge = %+v, ok = %v", e, ok)
	}
	if label, ok := repo.EdgeSymbol(e); !ok || label != "Escalate" {
		t.Errorf("edge symbol = %q, ok = %v", label, ok)
	}

	// Import table entries become document-level imports edges.
	if e, ok := findEdge(repo, "support_role", "escalation"); !ok || e.Role != models.RoleImports {
		t.Errorf("imports edge = %+v, ok = %v", e, ok)
	}

	// Sibling extends between definitions.
	if e, ok := findEdge(repo, "support_role::traits", "support_role::persona"); !ok || e.Role != models.RoleExtends {
		t.Errorf("traits extends edge = %+v, ok = %v", e, ok)
	}
}

// hubDoc declares its imports out of alphabetical order so that edge
// ordering cannot accidentally match declaration order.
const hubDoc = `---
Name: Hub
---

[Delta]: d.busy.md
[Alpha]: a.busy.md
[Echo]: e.busy.md
[Bravo]: b.busy.md
[Charlie]: c.busy.md

Body.
`

func spokeDoc(name string) string {
	return "---\nName: " + name + "\n---\n\nBody.\n"
}

func TestLoad_Idempotent(t *testing.T) {
	files := map[string]string{
		"support.busy.md":    supportDoc,
		"escalation.busy.md": escalationDoc,
		"hub.busy.md":        hubDoc,
		"a.busy.md":          spokeDoc("Alpha Doc"),
		"b.busy.md":          spokeDoc("Bravo Doc"),
		"c.busy.md":          spokeDoc("Charlie Doc"),
		"d.busy.md":          spokeDoc("Delta Doc"),
		"e.busy.md":          spokeDoc("Echo Doc"),
	}
	a := loadCorpus(t, files)
	for run := 0; run < 10; run++ {
		b := loadCorpus(t, files)
		if len(a.Edges) != len(b.Edges) {
			t.Fatalf("edge counts differ: %d vs %d", len(a.Edges), len(b.Edges))
		}
		for i := range a.Edges {
			if a.Edges[i] != b.Edges[i] {
				t.Fatalf("edge %d differs: %+v vs %+v", i, a.Edges[i], b.Edges[i])
			}
		}
		for path, sum := range a.Checksums {
			if b.Checksums[path] != sum {
				t.Errorf("checksum for %s differs", path)
			}
		}
	}

	// A document with several imports resolves them in sorted label
	// order, not symbol-table order.
	var hubTargets []string
	for _, e := range a.Edges {
		if e.From == "hub" && e.Role == models.RoleImports {
			hubTargets = append(hubTargets, e.To)
		}
	}
	want := []string{"alpha_doc", "bravo_doc", "charlie_doc", "delta_doc", "echo_doc"}
	if len(hubTargets) != len(want) {
		t.Fatalf("hub imports edges = %v, want %v", hubTargets, want)
	}
	for i := range want {
		if hubTargets[i] != want[i] {
			t.Errorf("hub import %d = %q, want %q", i, hubTargets[i], want[i])
		}
	}
}

func TestLoad_InheritanceAndOverride(t *testing.T) {
	base := `---
Name: Base Role
---

## Operations

### Common Task

1. Shared step.

### Special Task

1. Parent version.
`
	child := `---
Name: Night Shift
Extends: Base Role
---

## Operations

### Special Task

1. Child version.
`
	repo := loadCorpus(t, map[string]string{
		"base.busy.md":  base,
		"child.busy.md": child,
	})

	inherited, ok := repo.Operations["night_shift#common-task"]
	if !ok {
		t.Fatalf("inherited operation missing; have %v", sortedKeys(repo.Operations))
	}
	if !inherited.Inherited {
		t.Error("inherited flag not set")
	}
	if inherited.DocID != "night_shift" {
		t.Errorf("inherited docID = %q", inherited.DocID)
	}
	if inherited.Steps[0].Instruction != "Shared step." {
		t.Errorf("inherited steps = %+v", inherited.Steps)
	}

	own, ok := repo.Operations["night_shift#special-task"]
	if !ok {
		t.Fatal("own operation missing")
	}
	if own.Inherited {
		t.Error("own operation must win over the inherited copy")
	}
	if own.Steps[0].Instruction != "Child version." {
		t.Errorf("own steps = %+v", own.Steps)
	}

	// The extends edge between the documents exists.
	if e, ok := findEdge(repo, "night_shift", "base_role"); !ok || e.Role != models.RoleExtends {
		t.Errorf("doc extends edge = %+v, ok = %v", e, ok)
	}
}

func TestLoad_DuplicateDocIsFatal(t *testing.T) {
	root, store := testutil.TestWorkspace(t)
	testutil.WriteFile(t, root, "a.busy.md", "---\nName: Twin\n---\n")
	testutil.WriteFile(t, root, "b.busy.md", "---\nName: Twin\n---\n")

	_, err := Load(context.Background(), store, []string{"**/*.md"}, discardLogger())
	if !errors.Is(err, apperr.ErrDuplicateDoc) {
		t.Fatalf("err = %v, want ErrDuplicateDoc", err)
	}
	if err != nil && !(strings.Contains(err.Error(), "a.busy.md") && strings.Contains(err.Error(), "b.busy.md")) {
		t.Errorf("error should name both files: %v", err)
	}
}

func TestLoad_ExtendsCycleIsFatal(t *testing.T) {
	doc := `---
Name: Cyclic
---

## Local Definitions

### Alpha

_Extends: Beta_

### Beta

_Extends: Alpha_
`
	root, store := testutil.TestWorkspace(t)
	testutil.WriteFile(t, root, "cyclic.busy.md", doc)

	_, err := Load(context.Background(), store, []string{"**/*.md"}, discardLogger())
	if !errors.Is(err, apperr.ErrExtendsCycle) {
		t.Fatalf("err = %v, want ErrExtendsCycle", err)
	}
}

func TestLoad_UnresolvedImportWarns(t *testing.T) {
	doc := `---
Name: Lonely
---

[Ghost]: missing.busy.md

## Operations

### Work

1. Use [Ghost].
`
	repo := loadCorpus(t, map[string]string{"lonely.busy.md": doc})

	found := false
	for _, w := range repo.Warnings {
		if strings.Contains(w.Message, "unresolved import") && strings.Contains(w.Message, "Ghost") {
			found = true
		}
	}
	if !found {
		t.Errorf("warnings = %v, want unresolved import warning", repo.Warnings)
	}
	if _, ok := findEdge(repo, "lonely", "missing"); ok {
		t.Error("no imports edge should exist for an unresolved import")
	}
}

func TestLoad_ImportBasenameFallback(t *testing.T) {
	main := `---
Name: Main
---

[Ship]: shipping.busy.md

## Operations

### Send

1. Dispatch via [Ship].
`
	shipping := `---
Name: Shipping
---

Body.
`
	repo := loadCorpus(t, map[string]string{
		"main.busy.md":            main,
		"nested/shipping.busy.md": shipping,
	})

	imp := repo.Imports("main")["Ship"]
	if imp.TargetDoc != "shipping" {
		t.Errorf("target doc = %q, want shipping (resolved via basename)", imp.TargetDoc)
	}
	if _, ok := findEdge(repo, "main", "shipping"); !ok {
		t.Error("imports edge missing")
	}
}

func TestResolveRef_Forms(t *testing.T) {
	repo := loadCorpus(t, map[string]string{
		"support.busy.md":    supportDoc,
		"escalation.busy.md": escalationDoc,
	})

	cases := []struct {
		ref  string
		want string
	}{
		{"support_role#answer-ticket", "support_role#answer-ticket"},
		{"Support Role#Answer Ticket", "support_role#answer-ticket"},
		{"Answer Ticket", "support_role#answer-ticket"},
		{"support_role::persona", "support_role::persona"},
		{"Persona", "support_role::persona"},
	}
	for _, tc := range cases {
		node, ok := repo.ResolveRef(tc.ref)
		if !ok {
			t.Errorf("ResolveRef(%q) not found", tc.ref)
			continue
		}
		var id string
		switch n := node.(type) {
		case *models.Operation:
			id = n.ID
		case *models.LocalDef:
			id = n.ID
		case *models.Document:
			id = n.ID
		case *models.Section:
			id = n.ID
		}
		if id != tc.want {
			t.Errorf("ResolveRef(%q) = %s, want %s", tc.ref, id, tc.want)
		}
	}

	if node, ok := repo.ResolveRef("Support Role"); !ok {
		t.Error("document lookup by name failed")
	} else if doc, isDoc := node.(*models.Document); !isDoc || doc.DocID != "support_role" {
		t.Errorf("node = %#v", node)
	}

	if _, ok := repo.ResolveRef("no such thing"); ok {
		t.Error("expected miss for unknown ref")
	}
}

func TestWriteDOT(t *testing.T) {
	repo := loadCorpus(t, map[string]string{
		"support.busy.md":    supportDoc,
		"escalation.busy.md": escalationDoc,
	})

	var sb strings.Builder
	if err := repo.WriteDOT(&sb); err != nil {
		t.Fatalf("write dot: %v", err)
	}
	out := sb.String()
	if !strings.HasPrefix(out, "digraph busy {") {
		t.Errorf("missing digraph header: %q", out[:40])
	}
	if !strings.Contains(out, `"support_role#answer-ticket" -> "escalation#handoff"`) {
		t.Errorf("missing calls edge in dot output:\n%s", out)
	}
}
