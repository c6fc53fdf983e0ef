package graph

import (
	"fmt"
	"strings"

	"github.com/starford/ansuz/internal/models"
	"github.com/starford/ansuz/internal/parser"
)

// buildEdges walks every section's content and every operation's steps and
// emits provisional edges. Targets resolve exactly like imports: relative
// file plus anchor, bare anchor against the current document, or via the
// per-document symbol table for reference-style usages. Roles start as ref
// (or extends/imports where the relation is structural); the corpus-wide
// reclassification pass upgrades ref edges afterwards.
func (ld *loader) buildEdges() {
	r := ld.repo

	for _, doc := range r.Documents {
		for _, sec := range parser.FlattenSections(r.sections[doc.DocID]) {
			for _, lk := range parser.ScanLinks(sec.Content) {
				to, symbol, ok := ld.resolveLink(doc.DocID, lk)
				if !ok {
					ld.warn(doc.FilePath, fmt.Sprintf("unresolved reference %q in section %s", refText(lk), sec.ID))
					continue
				}
				ld.addEdge(models.Edge{From: sec.ID, To: to, Role: models.RoleRef}, symbol)
			}
		}

		// Step-embedded operation references attach to the operation
		// itself, so a context seed finds its calls without descending
		// into a Steps subsection.
		for _, op := range ld.docOps[doc.DocID] {
			for _, step := range op.Steps {
				for _, ref := range step.OperationRefs {
					to, symbol, ok := ld.resolveLink(doc.DocID, parser.Link{Text: ref, Label: ref})
					if !ok {
						continue // already warned if it appeared in content
					}
					ld.addEdge(models.Edge{From: op.ID, To: to, Role: models.RoleRef}, symbol)
				}
			}
		}

		ld.extendsEdgesForDoc(doc)
	}

	for _, id := range sortedKeys(r.LocalDefs) {
		ld.extendsEdgesForDef(r.LocalDefs[id])
	}
}

func refText(lk parser.Link) string {
	if lk.Target != "" {
		return lk.Target
	}
	return lk.Label
}

// resolveLink resolves one scanned link to a canonical id. The returned
// symbol names the import-table label consumed, when one was.
func (ld *loader) resolveLink(docID string, lk parser.Link) (to, symbol string, ok bool) {
	if lk.Target != "" {
		return ld.resolveTarget(docID, lk.Target)
	}

	if imp, found := ld.repo.imports[docID][lk.Label]; found && imp.TargetDoc != "" {
		if imp.Anchor != "" {
			if id, ok := ld.resolveInDoc(imp.TargetDoc, parser.Slugify(imp.Anchor)); ok {
				return id, lk.Label, true
			}
			return "", "", false
		}
		return imp.TargetDoc, lk.Label, true
	}

	// Bare [Term] against the current document, then against the corpus
	// document table.
	if id, found := ld.resolveInDoc(docID, parser.Slugify(lk.Label)); found {
		return id, "", true
	}
	if target, found := ld.repo.fileIndex[parser.NormalizeDocID(lk.Label)]; found {
		return target, "", true
	}
	return "", "", false
}

// resolveTarget resolves an inline link destination: "#anchor",
// "path#anchor", or "path".
func (ld *loader) resolveTarget(docID, target string) (string, string, bool) {
	if strings.HasPrefix(target, "#") {
		id, ok := ld.resolveInDoc(docID, parser.Slugify(target[1:]))
		return id, "", ok
	}
	path, anchor := target, ""
	if i := strings.IndexByte(target, '#'); i >= 0 {
		path, anchor = target[:i], target[i+1:]
	}
	targetDoc, ok := ld.lookupFile(path)
	if !ok {
		return "", "", false
	}
	if anchor == "" {
		return targetDoc, "", true
	}
	id, ok := ld.resolveInDoc(targetDoc, parser.Slugify(anchor))
	return id, "", ok
}

// extendsEdgesForDoc links a document to the parent documents named by its
// front-matter Extends list.
func (ld *loader) extendsEdgesForDoc(doc *models.Document) {
	for _, parent := range doc.Extends {
		parentID := parser.NormalizeDocID(parent)
		if _, ok := ld.repo.byDoc[parentID]; !ok {
			ld.warn(doc.FilePath, fmt.Sprintf("unresolved extends parent %q", parent))
			continue
		}
		ld.addEdge(models.Edge{From: doc.ID, To: parentID, Role: models.RoleExtends}, "")
	}
}

// extendsEdgesForDef links a local definition to each declared parent:
// first a sibling definition in the same document, then an imported one.
func (ld *loader) extendsEdgesForDef(def *models.LocalDef) {
	doc, _ := ld.repo.Doc(def.DocID)
	for _, parent := range def.Extends {
		slug := parser.Slugify(parent)
		if id := def.DocID + "::" + slug; ld.repo.byID[id] != nil {
			ld.addEdge(models.Edge{From: def.ID, To: id, Role: models.RoleExtends}, "")
			continue
		}
		if imp, ok := ld.repo.imports[def.DocID][parent]; ok && imp.TargetDoc != "" {
			anchor := slug
			if imp.Anchor != "" {
				anchor = parser.Slugify(imp.Anchor)
			}
			if id, ok := ld.resolveInDoc(imp.TargetDoc, anchor); ok {
				ld.addEdge(models.Edge{From: def.ID, To: id, Role: models.RoleExtends}, parent)
				continue
			}
		}
		file := def.FilePath
		if file == "" && doc != nil {
			file = doc.FilePath
		}
		ld.warn(file, fmt.Sprintf("definition %s: unresolved extends parent %q", def.ID, parent))
	}
}
