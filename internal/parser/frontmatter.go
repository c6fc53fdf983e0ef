// Package parser extracts front matter, sections, definitions, operations,
// and reference links from BUSY markdown documents.
package parser

import (
	"fmt"
	"path/filepath"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"gopkg.in/yaml.v3"

	"github.com/starford/ansuz/internal/models"
)

// FrontMatter is the normalized YAML metadata block of a document.
type FrontMatter struct {
	Name        string
	Description string
	Types       []string
	Extends     []string
	Tags        []string
}

// Validate checks the structural requirements of the front matter.
func (fm FrontMatter) Validate() error {
	return validation.ValidateStruct(&fm,
		validation.Field(&fm.Name, validation.Required),
	)
}

// StringList accepts either a YAML scalar or a sequence and normalizes
// to a list, since BUSY authors write both `Type: Role` and `Type: [Role]`.
type StringList []string

// UnmarshalYAML implements yaml.Unmarshaler.
func (l *StringList) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		var s string
		if err := value.Decode(&s); err != nil {
			return err
		}
		if s = strings.TrimSpace(s); s != "" {
			*l = StringList{s}
		}
		return nil
	case yaml.SequenceNode:
		var items []string
		if err := value.Decode(&items); err != nil {
			return err
		}
		out := make(StringList, 0, len(items))
		for _, it := range items {
			if it = strings.TrimSpace(it); it != "" {
				out = append(out, it)
			}
		}
		*l = out
		return nil
	default:
		return fmt.Errorf("expected scalar or sequence, got yaml kind %d", value.Kind)
	}
}

type rawFrontMatter struct {
	Name        string     `yaml:"Name"`
	Type        StringList `yaml:"Type"`
	Description string     `yaml:"Description"`
	Extends     StringList `yaml:"Extends"`
	Tags        StringList `yaml:"Tags"`
}

// SplitFrontMatter separates the leading ---fenced YAML block from the body.
// Only a block starting at the very first content line counts; horizontal
// rules further down are body text. Absent or unterminated fences mean the
// whole input is body.
func SplitFrontMatter(data []byte) (yamlBlock, body string) {
	lines := strings.Split(strings.TrimLeft(string(data), "\n\r"), "\n")
	if len(lines) == 0 || strings.TrimSpace(lines[0]) != "---" {
		return "", string(data)
	}
	for i := 1; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) == "---" {
			return strings.Join(lines[1:i], "\n"), strings.Join(lines[i+1:], "\n")
		}
	}
	// Unterminated fence.
	return "", string(data)
}

// ParseFrontMatter extracts and validates the front matter of one file.
// It never fails: structurally invalid metadata falls back to a minimal
// identity derived from the filename, with a warning describing why, so a
// single malformed document cannot abort a corpus load.
func ParseFrontMatter(data []byte, path string) (fm FrontMatter, body string, warn error) {
	yamlBlock, body := SplitFrontMatter(data)

	var raw rawFrontMatter
	if yamlBlock != "" {
		if err := yaml.Unmarshal([]byte(yamlBlock), &raw); err != nil {
			return fallbackFrontMatter(path), body, fmt.Errorf("%s: invalid front matter yaml: %w", path, err)
		}
	}

	fm = FrontMatter{
		Name:        strings.TrimSpace(raw.Name),
		Description: strings.TrimSpace(raw.Description),
		Types:       stripAll(raw.Type),
		Extends:     stripAll(raw.Extends),
		Tags:        stripAll(raw.Tags),
	}
	if err := fm.Validate(); err != nil {
		return fallbackFrontMatter(path), body, fmt.Errorf("%s: front matter validation: %w", path, err)
	}
	return fm, body, nil
}

func fallbackFrontMatter(path string) FrontMatter {
	return FrontMatter{Name: FileStem(path)}
}

// FileStem returns the basename with BUSY markdown extensions removed.
func FileStem(path string) string {
	base := filepath.Base(path)
	base = strings.TrimSuffix(base, ".busy.md")
	base = strings.TrimSuffix(base, ".md")
	base = strings.TrimSuffix(base, ".busy")
	return base
}

func stripAll(items []string) []string {
	if len(items) == 0 {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, StripBrackets(it))
	}
	return out
}

// Kind infers the coarse document kind from the normalized types.
func (fm FrontMatter) Kind() models.Kind {
	if len(fm.Types) == 0 {
		return models.KindDocument
	}
	return models.InferKind(fm.Types)
}
