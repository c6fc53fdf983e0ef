package agentctx

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/starford/ansuz/internal/apperr"
	"github.com/starford/ansuz/internal/graph"
	"github.com/starford/ansuz/internal/testutil"
)

const diamondDoc = `---
Name: Diamond
---

## Local Definitions

### Base

Common ground.

### Left

_Extends: Base_

Left detail.

### Right

_Extends: Base_

Right detail.

### Tip

_Extends: Left, Right_

Tip detail.

## Guide

Overview only.

### Part

See [Base].

## Operations

### Use Tip

1. Apply the [Tip].
2. Call [Helper Op].

### Helper Op

1. Assist.
`

func loadRepo(t *testing.T, files map[string]string) *graph.Repo {
	t.Helper()
	root, store := testutil.TestWorkspace(t)
	for rel, content := range files {
		testutil.WriteFile(t, root, rel, content)
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	repo, err := graph.Load(context.Background(), store, []string{"**/*.md"}, logger)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	return repo
}

func TestBuild_DiamondClosureOrder(t *testing.T) {
	repo := loadRepo(t, map[string]string{"diamond.busy.md": diamondDoc})

	p, err := Build(repo, "Use Tip", Options{})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if p.Operation.Ref != "diamond#use-tip" {
		t.Errorf("ref = %q", p.Operation.Ref)
	}

	var ids []string
	for _, d := range p.Defs {
		ids = append(ids, d.ID)
	}
	want := []string{"diamond::base", "diamond::left", "diamond::right", "diamond::tip"}
	if len(ids) != len(want) {
		t.Fatalf("defs = %v, want %v", ids, want)
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Errorf("defs[%d] = %s, want %s (parents before children, each once)", i, ids[i], want[i])
		}
	}

	if len(p.Calls) != 1 || p.Calls[0].Ref != "diamond#helper-op" {
		t.Fatalf("calls = %+v", p.Calls)
	}
	if p.Calls[0].Title != "Helper Op" {
		t.Errorf("call title = %q", p.Calls[0].Title)
	}
	// Callables are referenced, never inlined.
	for _, d := range p.Defs {
		if d.ID == "diamond#helper-op" {
			t.Error("called operation must not appear in defs")
		}
	}
}

func TestBuild_IncludeChildren(t *testing.T) {
	repo := loadRepo(t, map[string]string{"diamond.busy.md": diamondDoc})

	p, err := Build(repo, "diamond#guide", Options{})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if len(p.Defs) != 0 {
		t.Errorf("defs without children = %v", p.Defs)
	}

	p, err = Build(repo, "diamond#guide", Options{IncludeChildren: true})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if len(p.Defs) != 1 || p.Defs[0].ID != "diamond::base" {
		t.Errorf("defs with children = %+v, want [diamond::base]", p.Defs)
	}
}

func TestBuild_MaxDefChars(t *testing.T) {
	doc := `---
Name: Verbose
---

## Local Definitions

### Wall

First line of the wall.
Second line of the wall.
Third line of the wall.

## Operations

### Read Wall

1. Study the [Wall].
`
	repo := loadRepo(t, map[string]string{"verbose.busy.md": doc})

	p, err := Build(repo, "Read Wall", Options{MaxDefChars: 30})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if len(p.Defs) != 1 {
		t.Fatalf("defs = %+v", p.Defs)
	}
	content := p.Defs[0].Content
	if !strings.HasSuffix(content, TrimMarker) {
		t.Errorf("content = %q, want trim marker suffix", content)
	}
	if strings.Contains(content, "Second line") {
		t.Errorf("content = %q, should have been cut after the first line", content)
	}
}

func TestBuild_SymbolsEcho(t *testing.T) {
	main := `---
Name: Main
---

[Escalate]: escalation.busy.md#handoff

## Operations

### Work

1. Run [Escalate].
`
	escalation := `---
Name: Escalation
---

## Operations

### Handoff

1. Page someone.
`
	repo := loadRepo(t, map[string]string{
		"main.busy.md":       main,
		"escalation.busy.md": escalation,
	})

	p, err := Build(repo, "main#work", Options{})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	sym, ok := p.Symbols["Escalate"]
	if !ok {
		t.Fatalf("symbols = %+v, want Escalate", p.Symbols)
	}
	if sym.DocID != "escalation" || sym.Slug != "handoff" {
		t.Errorf("symbol = %+v", sym)
	}
}

func TestBuild_Errors(t *testing.T) {
	repo := loadRepo(t, map[string]string{"diamond.busy.md": diamondDoc})

	if _, err := Build(repo, "no such ref", Options{}); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
	if _, err := Build(repo, "Diamond", Options{}); !errors.Is(err, apperr.ErrNotExecutable) {
		t.Errorf("document seed: err = %v, want ErrNotExecutable", err)
	}
	if _, err := Build(repo, "diamond::tip", Options{}); !errors.Is(err, apperr.ErrNotExecutable) {
		t.Errorf("definition seed: err = %v, want ErrNotExecutable", err)
	}
}

func TestTrimContent(t *testing.T) {
	if got := TrimContent("short", 100); got != "short" {
		t.Errorf("under budget: %q", got)
	}
	if got := TrimContent("anything", 0); got != "anything" {
		t.Errorf("zero disables trimming: %q", got)
	}
	got := TrimContent("line1\nline2\nline3", 6)
	if got != "line1\n"+TrimMarker {
		t.Errorf("got %q", got)
	}
	// A budget too small for even one line keeps only the marker.
	if got := TrimContent("0123456789", 4); got != TrimMarker {
		t.Errorf("got %q", got)
	}
}
