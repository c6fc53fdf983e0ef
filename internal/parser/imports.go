package parser

import (
	"regexp"
	"strings"

	"github.com/starford/ansuz/internal/models"
)

// importRe matches reference-style link definitions: [Label]: path#anchor
var importRe = regexp.MustCompile(`(?m)^\[([^\]]+)\]:\s*([^\s#]+)(?:#(\S+))?\s*$`)

// ParseImports builds the per-document symbol table from reference-style
// link definitions. Later definitions of the same label win, matching how
// markdown renderers resolve duplicate reference labels.
func ParseImports(body, docID string) map[string]models.ImportDef {
	table := make(map[string]models.ImportDef)
	for _, m := range importRe.FindAllStringSubmatch(body, -1) {
		label := strings.TrimSpace(m[1])
		table[label] = models.ImportDef{
			Label:  label,
			Path:   m[2],
			Anchor: m[3],
			DocID:  docID,
		}
	}
	return table
}

// ImportLookupKeys returns the file-index keys tried, in order, when
// resolving an import path: the path exactly as written, its basename, and
// the basename with BUSY markdown suffixes stripped. Import paths may be
// written relative, absolute-from-repo-root, or bare, and corpus files are
// indexed under several aliases to tolerate extension migrations.
func ImportLookupKeys(path string) []string {
	cleaned := strings.TrimPrefix(path, "./")
	base := cleaned
	if i := strings.LastIndexByte(base, '/'); i >= 0 {
		base = base[i+1:]
	}
	keys := []string{cleaned}
	if base != cleaned {
		keys = append(keys, base)
	}
	if stem := FileStem(base); stem != base {
		keys = append(keys, stem)
	}
	return keys
}
