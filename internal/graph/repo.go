// Package graph builds the corpus-wide BUSY document graph: it aggregates
// per-file parse artifacts, resolves cross-document references, runs the
// operation-inheritance and edge-reclassification passes, and exposes the
// lookup indices the context builder and external consumers depend on.
package graph

import (
	"sort"
	"strings"

	"github.com/starford/ansuz/internal/models"
	"github.com/starford/ansuz/internal/parser"
)

// Warning is a recoverable per-file problem surfaced in the load result.
type Warning struct {
	File    string `json:"file"`
	Message string `json:"message"`
}

// Repo is the immutable aggregate over one loaded corpus. Rebuilding
// requires a fresh Load pass; nothing is mutated after Load returns, so a
// Repo may be shared across goroutines freely.
type Repo struct {
	Documents  []*models.Document           `json:"documents"`
	Concepts   []*models.Concept            `json:"concepts"`
	LocalDefs  map[string]*models.LocalDef  `json:"localdefs"`
	Operations map[string]*models.Operation `json:"operations"`
	Edges      []models.Edge                `json:"edges"`
	Warnings   []Warning                    `json:"warnings,omitempty"`

	// Checksums maps file path to content digest; a stable fingerprint
	// for idempotence checks and snapshot metadata.
	Checksums map[string]string `json:"checksums,omitempty"`

	sections  map[string][]*models.Section          // docID -> section roots
	imports   map[string]map[string]models.ImportDef // docID -> label -> import
	byID      map[string]any
	byDoc     map[string]*models.Document
	fileIndex map[string]string   // path alias -> docID
	edgesFrom map[string][]models.Edge
	// edgeSymbol records the import label that resolved an edge, keyed by
	// from+"\x00"+to. The context builder echoes consumed labels back.
	edgeSymbol map[string]string
}

// Doc returns the document with the given DocID.
func (r *Repo) Doc(docID string) (*models.Document, bool) {
	d, ok := r.byDoc[docID]
	return d, ok
}

// Sections returns the section roots of a document.
func (r *Repo) Sections(docID string) []*models.Section {
	return r.sections[docID]
}

// Imports returns the import symbol table of a document.
func (r *Repo) Imports(docID string) map[string]models.ImportDef {
	return r.imports[docID]
}

// ByID looks up any node (document, operation, local definition, or
// section) by its canonical id. Operations shadow the section created for
// the same heading.
func (r *Repo) ByID(id string) (any, bool) {
	v, ok := r.byID[id]
	return v, ok
}

// EdgesFrom returns the edges originating at the given id.
func (r *Repo) EdgesFrom(id string) []models.Edge {
	return r.edgesFrom[id]
}

// EdgeSymbol returns the import label that resolved the given edge, if any.
func (r *Repo) EdgeSymbol(e models.Edge) (string, bool) {
	label, ok := r.edgeSymbol[e.From+"\x00"+e.To]
	return label, ok
}

// OperationList returns all operations sorted by id, for deterministic
// whole-corpus iteration.
func (r *Repo) OperationList() []*models.Operation {
	out := make([]*models.Operation, 0, len(r.Operations))
	for _, op := range r.Operations {
		out = append(out, op)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// ResolveRef resolves a user-supplied reference to a node. Accepted forms:
// a canonical id ("doc#slug", "doc::slug", bare doc id), or a bare name
// matched against operation slugs, then local definitions, then documents.
func (r *Repo) ResolveRef(ref string) (any, bool) {
	ref = strings.TrimSpace(ref)
	if v, ok := r.byID[ref]; ok {
		return v, true
	}
	// Normalize the document part of qualified refs.
	for _, sep := range []string{"::", "#"} {
		if i := strings.Index(ref, sep); i > 0 {
			id := parser.NormalizeDocID(ref[:i]) + sep + parser.Slugify(ref[i+len(sep):])
			if v, ok := r.byID[id]; ok {
				return v, true
			}
		}
	}
	slug := parser.Slugify(parser.StripBrackets(ref))
	for _, op := range r.OperationList() {
		if op.Slug == slug {
			return op, true
		}
	}
	for _, id := range sortedKeys(r.LocalDefs) {
		if r.LocalDefs[id].Slug == slug {
			return r.LocalDefs[id], true
		}
	}
	if d, ok := r.byDoc[parser.NormalizeDocID(ref)]; ok {
		return d, true
	}
	return nil, false
}

// DescendantIDs returns the ids of every section nested beneath the node
// with the given id (used by includeChildren context requests).
func (r *Repo) DescendantIDs(id string) []string {
	docID, slug, qualified := splitSectionID(id)
	if !qualified {
		return nil
	}
	var out []string
	for _, root := range r.sections[docID] {
		root.Walk(func(s *models.Section) {
			if s.Slug != slug {
				return
			}
			for _, c := range s.Children {
				c.Walk(func(d *models.Section) { out = append(out, d.ID) })
			}
		})
	}
	return out
}

func splitSectionID(id string) (docID, slug string, ok bool) {
	if i := strings.Index(id, "#"); i > 0 {
		return id[:i], id[i+1:], true
	}
	return "", "", false
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
