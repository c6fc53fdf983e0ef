package graph

import (
	"github.com/starford/ansuz/internal/models"
	"github.com/starford/ansuz/internal/parser"
)

// inheritOperations copies operations from parent documents into children.
// Parent names come from the union of a document's extends and types
// fields. A child's own operation of the same slug always wins over an
// inherited one. Inherited copies are rewritten with the child's document
// id and file path but keep the parent's steps and checklist.
//
// Documents are processed in sorted file order, so a parent loaded earlier
// passes its own inherited operations down the chain deterministically.
func (ld *loader) inheritOperations() {
	r := ld.repo
	for _, doc := range r.Documents {
		owned := make(map[string]struct{})
		for _, op := range ld.docOps[doc.DocID] {
			owned[op.Slug] = struct{}{}
		}

		for _, parentName := range unionNames(doc.Extends, doc.Types) {
			parent, ok := r.byDoc[parser.NormalizeDocID(parentName)]
			if !ok {
				continue // types routinely name non-document concepts
			}
			if parent.DocID == doc.DocID {
				continue
			}
			for _, parentOp := range ld.docOps[parent.DocID] {
				if _, taken := owned[parentOp.Slug]; taken {
					continue
				}
				owned[parentOp.Slug] = struct{}{}

				copied := *parentOp
				copied.ID = doc.DocID + "#" + parentOp.Slug
				copied.DocID = doc.DocID
				copied.FilePath = doc.FilePath
				copied.Inherited = true

				r.Operations[copied.ID] = &copied
				if _, taken := r.byID[copied.ID]; !taken {
					r.byID[copied.ID] = &copied
				}
				ld.docOps[doc.DocID] = append(ld.docOps[doc.DocID], &copied)
			}
		}
	}
}

func unionNames(lists ...[]string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, list := range lists {
		for _, name := range list {
			key := parser.NormalizeDocID(name)
			if _, dup := seen[key]; dup || key == "" {
				continue
			}
			seen[key] = struct{}{}
			out = append(out, name)
		}
	}
	return out
}

// reclassify runs the corpus-wide classification pass: every provisional
// edge is re-examined now that all target kinds are known.
func (ld *loader) reclassify() {
	for i, e := range ld.repo.Edges {
		target := ld.repo.byID[e.To]
		ld.repo.Edges[i].Role = ld.classifier.Classify(e, target)
	}
}

// finalize builds the derived tables that depend on final edge roles: the
// deduplicated concept table and the per-node outgoing edge index.
func (ld *loader) finalize() {
	r := ld.repo

	seen := make(map[string]struct{})
	add := func(c models.Concept) {
		if _, dup := seen[c.ID]; dup {
			return
		}
		seen[c.ID] = struct{}{}
		cc := c
		r.Concepts = append(r.Concepts, &cc)
	}
	for _, doc := range r.Documents {
		add(doc.Concept)
	}
	for _, id := range sortedKeys(r.LocalDefs) {
		add(r.LocalDefs[id].Concept)
	}
	for _, op := range r.OperationList() {
		add(op.Concept)
	}

	for _, e := range r.Edges {
		r.edgesFrom[e.From] = append(r.edgesFrom[e.From], e)
	}
}
