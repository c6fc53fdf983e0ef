// Package agentctx computes the minimized execution context for a single
// operation: the closure of local definitions it depends on, the operations
// it calls, and the import symbols consumed along the way. The result is
// self-contained and safe to hand to an external agent.
package agentctx

import (
	"fmt"

	"github.com/starford/ansuz/internal/apperr"
	"github.com/starford/ansuz/internal/graph"
	"github.com/starford/ansuz/internal/models"
)

// Options control payload construction.
type Options struct {
	// MaxDefChars trims definition content to a character budget,
	// cutting only at line boundaries. Zero disables trimming.
	MaxDefChars int
	// IncludeChildren also collects edges from sections nested beneath
	// the seed.
	IncludeChildren bool
}

// Payload is the closure-complete context bundle for one seed.
type Payload struct {
	Operation OperationView         `json:"operation"`
	Defs      []DefView             `json:"defs"`
	Calls     []CallView            `json:"calls"`
	Symbols   map[string]SymbolView `json:"symbols"`
}

// OperationView describes the seed operation or section.
type OperationView struct {
	Ref       string        `json:"ref"`
	Title     string        `json:"title"`
	Content   string        `json:"content"`
	Attrs     Attrs         `json:"attrs"`
	Steps     []models.Step `json:"steps,omitempty"`
	Checklist []string      `json:"checklist,omitempty"`
}

// Attrs carries the seed's metadata.
type Attrs struct {
	DocID     string      `json:"docId"`
	Kind      models.Kind `json:"kind,omitempty"`
	Inputs    []string    `json:"inputs,omitempty"`
	Outputs   []string    `json:"outputs,omitempty"`
	Extends   []string    `json:"extends,omitempty"`
	Inherited bool        `json:"inherited,omitempty"`
}

// DefView is one emitted definition; defs are topologically ordered with
// parents before children and deduplicated.
type DefView struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	Content string   `json:"content"`
	Extends []string `json:"extends"`
}

// CallView references a callable operation. Callables are never inlined;
// agents request their content on demand.
type CallView struct {
	Ref   string `json:"ref"`
	Title string `json:"title,omitempty"`
}

// SymbolView echoes an import-table entry that was consumed during
// resolution for this request.
type SymbolView struct {
	DocID string `json:"docId,omitempty"`
	Slug  string `json:"slug,omitempty"`
}

// Build computes the context payload for a seed reference. The reference
// must resolve to an operation or a section; anything else fails this
// request without touching the repo.
func Build(repo *graph.Repo, ref string, opts Options) (*Payload, error) {
	node, ok := repo.ResolveRef(ref)
	if !ok {
		return nil, fmt.Errorf("agentctx: %q: %w", ref, apperr.ErrNotFound)
	}

	p := &Payload{Symbols: make(map[string]SymbolView)}
	var seedID string

	switch n := node.(type) {
	case *models.Operation:
		seedID = n.ID
		p.Operation = OperationView{
			Ref:     n.ID,
			Title:   n.Name,
			Content: n.Content,
			Attrs: Attrs{
				DocID:     n.DocID,
				Kind:      n.Kind,
				Inputs:    n.Inputs,
				Outputs:   n.Outputs,
				Extends:   n.Extends,
				Inherited: n.Inherited,
			},
			Steps:     n.Steps,
			Checklist: n.Checklist,
		}
	case *models.Section:
		seedID = n.ID
		p.Operation = OperationView{
			Ref:     n.ID,
			Title:   n.Title,
			Content: n.Content,
			Attrs:   Attrs{DocID: n.DocID, Extends: n.Extends},
		}
	default:
		return nil, fmt.Errorf("agentctx: %q: %w", ref, apperr.ErrNotExecutable)
	}

	seedEdges := collectEdges(repo, seedID, opts.IncludeChildren)

	// Defs closure: every local definition directly referenced from the
	// seed, plus all transitive extends ancestors.
	var direct []*models.LocalDef
	for _, e := range seedEdges {
		if def, ok := repo.LocalDefs[e.To]; ok {
			direct = append(direct, def)
			p.recordSymbol(repo, e)
		}
	}

	visited := make(map[string]struct{})
	for _, def := range direct {
		p.emitDef(repo, def, visited, opts.MaxDefChars)
	}

	for _, e := range seedEdges {
		if e.Role != models.RoleCalls {
			continue
		}
		call := CallView{Ref: e.To}
		if op, ok := repo.Operations[e.To]; ok {
			call.Title = op.Name
		}
		p.Calls = append(p.Calls, call)
		p.recordSymbol(repo, e)
	}
	return p, nil
}

// emitDef appends a definition after all of its direct parents. The
// visited set keeps each node unique under diamond inheritance; the
// loader's cycle check guarantees termination.
func (p *Payload) emitDef(repo *graph.Repo, def *models.LocalDef, visited map[string]struct{}, maxChars int) {
	if _, dup := visited[def.ID]; dup {
		return
	}
	visited[def.ID] = struct{}{}

	for _, e := range repo.EdgesFrom(def.ID) {
		if e.Role != models.RoleExtends {
			continue
		}
		if parent, ok := repo.LocalDefs[e.To]; ok {
			p.emitDef(repo, parent, visited, maxChars)
			p.recordSymbol(repo, e)
		}
	}

	extends := def.Extends
	if extends == nil {
		extends = []string{}
	}
	p.Defs = append(p.Defs, DefView{
		ID:      def.ID,
		Name:    def.Name,
		Content: TrimContent(def.Content, maxChars),
		Extends: extends,
	})
}

func (p *Payload) recordSymbol(repo *graph.Repo, e models.Edge) {
	label, ok := repo.EdgeSymbol(e)
	if !ok {
		return
	}
	view := SymbolView{}
	switch t, _ := repo.ByID(e.To); n := t.(type) {
	case *models.LocalDef:
		view = SymbolView{DocID: n.DocID, Slug: n.Slug}
	case *models.Operation:
		view = SymbolView{DocID: n.DocID, Slug: n.Slug}
	case *models.Section:
		view = SymbolView{DocID: n.DocID, Slug: n.Slug}
	case *models.Document:
		view = SymbolView{DocID: n.DocID}
	}
	p.Symbols[label] = view
}

func collectEdges(repo *graph.Repo, seedID string, includeChildren bool) []models.Edge {
	edges := append([]models.Edge(nil), repo.EdgesFrom(seedID)...)
	if includeChildren {
		for _, id := range repo.DescendantIDs(seedID) {
			edges = append(edges, repo.EdgesFrom(id)...)
		}
	}
	return edges
}
