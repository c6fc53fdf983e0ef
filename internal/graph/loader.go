package graph

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/starford/ansuz/internal/apperr"
	"github.com/starford/ansuz/internal/checksum"
	"github.com/starford/ansuz/internal/models"
	"github.com/starford/ansuz/internal/parser"
	"github.com/starford/ansuz/internal/storage"
)

// Load builds the corpus graph from every workspace file matching the
// globs. Files are parsed in parallel (they are independent until the
// cross-document passes), then aggregated in sorted path order so the
// result is deterministic. Per-file problems become warnings; only
// duplicate document ids and extends cycles are fatal.
func Load(ctx context.Context, store storage.Provider, globs []string, logger *slog.Logger, opts ...LoadOption) (*Repo, error) {
	cfg := loadConfig{classifier: DefaultClassifier{}}
	for _, o := range opts {
		o(&cfg)
	}

	paths, err := store.List(globs)
	if err != nil {
		return nil, fmt.Errorf("graph: list workspace: %w", err)
	}

	type slot struct {
		res  *parser.FileResult
		sum  string
		warn string
	}
	slots := make([]slot, len(paths))

	g, _ := errgroup.WithContext(ctx)
	for i, p := range paths {
		g.Go(func() error {
			data, err := store.Read(p)
			if err != nil {
				slots[i].warn = fmt.Sprintf("read failed: %v", err)
				return nil
			}
			slots[i].res = parser.ParseDocument(data, p)
			slots[i].sum = checksum.Sum(data)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	ld := &loader{
		repo: &Repo{
			LocalDefs:  make(map[string]*models.LocalDef),
			Operations: make(map[string]*models.Operation),
			Checksums:  make(map[string]string),
			sections:   make(map[string][]*models.Section),
			imports:    make(map[string]map[string]models.ImportDef),
			byID:       make(map[string]any),
			byDoc:      make(map[string]*models.Document),
			fileIndex:  make(map[string]string),
			edgesFrom:  make(map[string][]models.Edge),
			edgeSymbol: make(map[string]string),
		},
		classifier: cfg.classifier,
		logger:     logger,
		docOps:     make(map[string][]*models.Operation),
		edgeSeen:   make(map[models.Edge]struct{}),
	}

	// Aggregation barrier: the file index must be complete before any
	// cross-file resolution runs.
	for i, p := range paths {
		if slots[i].warn != "" {
			ld.warn(p, slots[i].warn)
			continue
		}
		if slots[i].res == nil {
			continue
		}
		if err := ld.addFile(p, slots[i].res, slots[i].sum); err != nil {
			return nil, err
		}
	}

	ld.resolveImports()
	ld.inheritOperations()
	ld.buildEdges()
	ld.reclassify()
	if err := ld.checkExtendsCycles(); err != nil {
		return nil, err
	}
	ld.finalize()

	for _, w := range ld.repo.Warnings {
		logger.Warn("load warning", slog.String("file", w.File), slog.String("message", w.Message))
	}
	logger.Info("corpus loaded",
		slog.Int("documents", len(ld.repo.Documents)),
		slog.Int("operations", len(ld.repo.Operations)),
		slog.Int("localdefs", len(ld.repo.LocalDefs)),
		slog.Int("edges", len(ld.repo.Edges)),
		slog.Int("warnings", len(ld.repo.Warnings)))
	return ld.repo, nil
}

type loadConfig struct {
	classifier Classifier
}

// LoadOption customizes a Load call.
type LoadOption func(*loadConfig)

// WithClassifier substitutes the edge classifier used by the
// reclassification pass.
func WithClassifier(c Classifier) LoadOption {
	return func(cfg *loadConfig) { cfg.classifier = c }
}

type loader struct {
	repo       *Repo
	classifier Classifier
	logger     *slog.Logger
	docOps     map[string][]*models.Operation // declaration order per doc
	edgeSeen   map[models.Edge]struct{}
}

func (ld *loader) warn(file, msg string) {
	ld.repo.Warnings = append(ld.repo.Warnings, Warning{File: file, Message: msg})
}

// addFile registers one parsed file into the repo indices. Duplicate
// document ids abort the load: two files claiming one identity would make
// every downstream lookup ambiguous.
func (ld *loader) addFile(path string, res *parser.FileResult, sum string) error {
	r := ld.repo
	docID := res.Doc.ID
	if prev, dup := r.byDoc[docID]; dup {
		return fmt.Errorf("%w: %q claimed by both %s and %s", apperr.ErrDuplicateDoc, docID, prev.FilePath, path)
	}

	r.Documents = append(r.Documents, res.Doc)
	r.byDoc[docID] = res.Doc
	r.byID[docID] = res.Doc
	r.Checksums[path] = sum
	r.sections[docID] = res.Sections
	r.imports[docID] = res.Imports

	// Index the file under every alias an import path might use. First
	// registration wins so sorted file order stays authoritative.
	base := path
	if i := strings.LastIndexByte(base, '/'); i >= 0 {
		base = base[i+1:]
	}
	for _, alias := range []string{path, base, parser.FileStem(base), docID} {
		if _, taken := r.fileIndex[alias]; !taken && alias != "" {
			r.fileIndex[alias] = docID
		}
	}

	for _, s := range parser.FlattenSections(res.Sections) {
		if _, taken := r.byID[s.ID]; !taken {
			r.byID[s.ID] = s
		}
	}
	for _, d := range res.LocalDefs {
		r.LocalDefs[d.ID] = d
		r.byID[d.ID] = d
	}
	for _, op := range res.Operations {
		r.Operations[op.ID] = op
		r.byID[op.ID] = op // shadows the section under the same heading
	}
	ld.docOps[docID] = res.Operations

	for _, w := range res.Warnings {
		ld.warn(path, w)
	}
	return nil
}

// resolveImports resolves every symbol-table entry against the file index
// (exact path, basename, stripped basename) and validates anchors against
// the target document. Unresolvable imports stay in the table with their
// anchor information and surface as warnings.
func (ld *loader) resolveImports() {
	r := ld.repo
	for _, doc := range r.Documents {
		table := r.imports[doc.DocID]
		for _, label := range sortedKeys(table) {
			imp := table[label]
			target, ok := ld.lookupFile(imp.Path)
			if !ok {
				ld.warn(doc.FilePath, fmt.Sprintf("unresolved import [%s]: %s", label, imp.Path))
				continue
			}
			imp.TargetDoc = target
			table[label] = imp
			ld.addEdge(models.Edge{From: doc.DocID, To: target, Role: models.RoleImports}, "")
			if imp.Anchor != "" {
				if _, ok := ld.resolveInDoc(target, parser.Slugify(imp.Anchor)); !ok {
					ld.warn(doc.FilePath, fmt.Sprintf("import [%s]: anchor #%s not found in %s", label, imp.Anchor, imp.Path))
				}
			}
		}
	}
}

func (ld *loader) lookupFile(path string) (string, bool) {
	for _, key := range parser.ImportLookupKeys(path) {
		if docID, ok := ld.repo.fileIndex[key]; ok {
			return docID, true
		}
	}
	return "", false
}

// resolveInDoc resolves a slug within one document: local definitions
// first, then operations and sections (operations shadow their section).
func (ld *loader) resolveInDoc(docID, slug string) (string, bool) {
	if id := docID + "::" + slug; ld.repo.byID[id] != nil {
		return id, true
	}
	if id := docID + "#" + slug; ld.repo.byID[id] != nil {
		return id, true
	}
	return "", false
}

func (ld *loader) addEdge(e models.Edge, symbol string) {
	if e.From == e.To {
		return
	}
	if _, dup := ld.edgeSeen[e]; dup {
		return
	}
	ld.edgeSeen[e] = struct{}{}
	// edgesFrom is indexed in finalize, after reclassification settles
	// the final roles.
	ld.repo.Edges = append(ld.repo.Edges, e)
	if symbol != "" {
		ld.repo.edgeSymbol[e.From+"\x00"+e.To] = symbol
	}
}
