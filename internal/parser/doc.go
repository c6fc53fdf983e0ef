package parser

import (
	"fmt"

	"github.com/starford/ansuz/internal/models"
)

// FileResult holds every artifact parsed from a single document. All
// cross-document resolution (imports, extends targets, link edges) happens
// later, over the full corpus.
type FileResult struct {
	Doc        *models.Document
	Sections   []*models.Section
	LocalDefs  []*models.LocalDef
	Operations []*models.Operation
	Imports    map[string]models.ImportDef
	Warnings   []string
}

var setupAliases = []string{"Setup"}

// ParseDocument parses one BUSY markdown file into its per-file artifacts.
// It never returns an error: recoverable problems become warnings and the
// document degrades to whatever could be parsed.
func ParseDocument(data []byte, path string) *FileResult {
	res := &FileResult{}

	fm, body, warn := ParseFrontMatter(data, path)
	if warn != nil {
		res.Warnings = append(res.Warnings, warn.Error())
	}

	docID := NormalizeDocID(fm.Name)
	if docID == "" {
		docID = NormalizeDocID(FileStem(path))
		res.Warnings = append(res.Warnings, fmt.Sprintf("%s: empty document name, using filename", path))
	}

	res.Doc = &models.Document{
		Concept: models.Concept{
			ID:       docID,
			Kind:     fm.Kind(),
			DocID:    docID,
			Slug:     Slugify(fm.Name),
			Name:     fm.Name,
			Types:    fm.Types,
			Extends:  fm.Extends,
			FilePath: path,
		},
		Description: fm.Description,
		Tags:        fm.Tags,
	}

	res.Sections = ParseSections(body, docID)
	if setup := FindSection(res.Sections, setupAliases, nil); setup != nil {
		res.Doc.Setup = setup.Content
	}

	res.LocalDefs = ExtractLocalDefs(res.Sections, docID)
	res.Operations = ExtractOperations(res.Sections, docID)
	res.Imports = ParseImports(body, docID)

	for i := range res.LocalDefs {
		res.LocalDefs[i].FilePath = path
	}
	for i := range res.Operations {
		res.Operations[i].FilePath = path
	}
	return res
}
