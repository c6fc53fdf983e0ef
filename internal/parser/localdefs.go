package parser

import (
	"encoding/json"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/starford/ansuz/internal/models"
)

// Aliases accepted for the Local Definitions section.
var (
	LocalDefAliases     = []string{"Local Definitions", "Definitions", "Glossary"}
	LocalDefSlugAliases = []string{"local-definitions-section"}
)

var (
	inlineExtendsRe = regexp.MustCompile(`(?mi)^_?\*{0,2}Extends:\*{0,2}_?\s*(.+)$`)
	fencedBusyRe    = regexp.MustCompile("(?ms)^```(?:yaml|json)[ \t]+busy[ \t]*\n(.*?)^```")
)

// ExtractLocalDefs promotes every section nested beneath the document's
// Local Definitions section (at any depth) into a named definition.
// A definition's extends list is the union, in declaration order, of the
// implicit [Title][Type] heading parent and parents declared in the body.
func ExtractLocalDefs(roots []*models.Section, docID string) []*models.LocalDef {
	root := FindSection(roots, LocalDefAliases, LocalDefSlugAliases)
	if root == nil {
		return nil
	}

	var defs []*models.LocalDef
	for _, child := range root.Children {
		child.Walk(func(s *models.Section) {
			extends := unionOrdered(s.Extends, parseBodyExtends(s.Content))
			defs = append(defs, &models.LocalDef{
				Concept: models.Concept{
					ID:      docID + "::" + s.Slug,
					Kind:    models.KindLocalDef,
					DocID:   docID,
					Slug:    s.Slug,
					Name:    s.Title,
					Extends: extends,
				},
				Content: s.Content,
			})
		})
	}
	return defs
}

// parseBodyExtends finds extends declarations inside definition content:
// a fenced `yaml busy`/`json busy` block with an Extends key, or inline
// `Extends: ...` lines (optionally emphasized as `_Extends:_`).
func parseBodyExtends(content string) []string {
	var out []string

	for _, m := range fencedBusyRe.FindAllStringSubmatch(content, -1) {
		var block struct {
			Extends StringList `yaml:"Extends" json:"Extends"`
		}
		if err := yaml.Unmarshal([]byte(m[1]), &block); err == nil {
			out = append(out, block.Extends...)
		}
	}

	// Inline declarations outside fenced blocks.
	plain := fencedBusyRe.ReplaceAllString(content, "")
	for _, m := range inlineExtendsRe.FindAllStringSubmatch(plain, -1) {
		out = append(out, ParseNameList(m[1])...)
	}
	return out
}

// ParseNameList parses `[A, B]` (JSON array) or `A, B` (comma list) into
// names. Malformed array syntax falls back to a comma split of the
// bracket-stripped remainder.
func ParseNameList(v string) []string {
	v = strings.TrimSpace(v)
	if strings.HasPrefix(v, "[") && strings.HasSuffix(v, "]") {
		var arr []string
		if err := json.Unmarshal([]byte(v), &arr); err == nil {
			return cleanNames(arr)
		}
		v = strings.TrimSuffix(strings.TrimPrefix(v, "["), "]")
	}
	return cleanNames(strings.Split(v, ","))
}

func cleanNames(items []string) []string {
	var out []string
	for _, it := range items {
		// Emphasis markers survive from `_Extends: Name_` declarations.
		it = strings.Trim(strings.TrimSpace(it), "\"'_*")
		it = StripBrackets(it)
		if it != "" {
			out = append(out, it)
		}
	}
	return out
}

func unionOrdered(lists ...[]string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, list := range lists {
		for _, it := range list {
			if _, dup := seen[it]; dup {
				continue
			}
			seen[it] = struct{}{}
			out = append(out, it)
		}
	}
	return out
}
