// Package models defines the domain types for the BUSY document graph.
package models

import "strings"

// Kind discriminates the concept variants in the graph.
type Kind string

// Concept kinds, in inference priority order.
const (
	KindDocument  Kind = "document"
	KindOperation Kind = "operation"
	KindChecklist Kind = "checklist"
	KindTool      Kind = "tool"
	KindPlaybook  Kind = "playbook"
	KindConcept   Kind = "concept"
	KindLocalDef  Kind = "localdef"
	KindImportDef Kind = "importdef"
)

// EdgeRole classifies a directed relation between two graph nodes.
type EdgeRole string

// Edge roles. Ref edges are provisional and may be reclassified to
// calls once the target kind is known corpus-wide.
const (
	RoleRef     EdgeRole = "ref"
	RoleCalls   EdgeRole = "calls"
	RoleExtends EdgeRole = "extends"
	RoleImports EdgeRole = "imports"
)

// Edge is a directed relation between two canonical ids.
type Edge struct {
	From string   `json:"from"`
	To   string   `json:"to"`
	Role EdgeRole `json:"role"`
}

// Concept is the shared base of every named node in the graph.
//
// ID formats: documents use the bare DocID, sections use "docId#slug",
// local definitions use "docId::slug".
type Concept struct {
	ID       string   `json:"id"`
	Kind     Kind     `json:"kind"`
	DocID    string   `json:"docId"`
	Slug     string   `json:"slug"`
	Name     string   `json:"name"`
	Types    []string `json:"types,omitempty"`
	Extends  []string `json:"extends,omitempty"`
	FilePath string   `json:"filePath,omitempty"`
}

// Document is a parsed BUSY document (front matter identity plus body
// artifacts; the section tree and operations live in the Repo indices).
type Document struct {
	Concept
	Description string   `json:"description,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	Setup       string   `json:"setup,omitempty"`
}

// LocalDef is a named, inheritable definition promoted from a
// subsection of the document's Local Definitions section.
type LocalDef struct {
	Concept
	Content string `json:"content"`
}

// Step is one numbered instruction inside an operation.
type Step struct {
	Number        int      `json:"number"`
	Instruction   string   `json:"instruction"`
	OperationRefs []string `json:"operationRefs,omitempty"`
}

// Operation is a callable unit parsed from the Operations section.
type Operation struct {
	Concept
	Content   string   `json:"content"`
	Inputs    []string `json:"inputs,omitempty"`
	Outputs   []string `json:"outputs,omitempty"`
	Steps     []Step   `json:"steps,omitempty"`
	Checklist []string `json:"checklist,omitempty"`
	// Inherited is set when the operation was copied from a parent
	// document during the inheritance pass.
	Inherited bool `json:"inherited,omitempty"`
}

// ImportDef is one reference-style link definition ([Label]: path#anchor).
type ImportDef struct {
	Label  string `json:"label"`
	Path   string `json:"path"`
	Anchor string `json:"anchor,omitempty"`
	DocID  string `json:"docId"`
	// TargetDoc is the DocID the path resolved to, empty when unresolved.
	TargetDoc string `json:"targetDoc,omitempty"`
}

// Section is one markdown heading with its sliced content.
//
// Content spans from the line after the heading to the line before the
// next heading at any depth, so it is section-local, not subtree-local.
type Section struct {
	ID       string     `json:"id"`
	DocID    string     `json:"docId"`
	Slug     string     `json:"slug"`
	Depth    int        `json:"depth"`
	Title    string     `json:"title"`
	Content  string     `json:"content"`
	Line     int        `json:"line"`
	Extends  []string   `json:"extends,omitempty"`
	Children []*Section `json:"children,omitempty"`
}

// Walk visits the section and all descendants depth-first in document order.
func (s *Section) Walk(fn func(*Section)) {
	fn(s)
	for _, c := range s.Children {
		c.Walk(fn)
	}
}

// InferKind maps a normalized types list to a concept kind. Matching is a
// case-insensitive containment check in priority order; first match wins.
func InferKind(types []string) Kind {
	priority := []Kind{KindDocument, KindOperation, KindChecklist, KindTool, KindPlaybook, KindConcept}
	for _, k := range priority {
		for _, t := range types {
			if strings.Contains(strings.ToLower(t), string(k)) {
				return k
			}
		}
	}
	return KindConcept
}
