package parser

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/starford/ansuz/internal/models"
)

// Aliases accepted for the Operations section and its subsections.
var (
	OperationsAliases = []string{"Operations", "Operation"}
	inputsAliases     = []string{"Inputs", "Input"}
	outputsAliases    = []string{"Outputs", "Output"}
	stepsAliases      = []string{"Steps", "Step"}
	checklistAliases  = []string{"Checklist"}
)

var (
	numberedRe = regexp.MustCompile(`^\s*(\d+)\.\s+(.*)$`)
	bulletRe   = regexp.MustCompile(`^\s*[-*]\s+(.*)$`)
	bracketRe  = regexp.MustCompile(`\[([^\[\]]+)\]`)
)

// ExtractOperations parses every operation declared under the document's
// Operations section. Each direct child heading is one operation.
//
// Operations with no steps, no checklist, and no content at all are forward
// declarations meant to be inherited from a parent document; they are
// excluded here and filled in by the repo inheritance pass.
func ExtractOperations(roots []*models.Section, docID string) []*models.Operation {
	root := FindSection(roots, OperationsAliases, nil)
	if root == nil {
		return nil
	}

	var ops []*models.Operation
	for _, sec := range root.Children {
		op := parseOperation(sec, docID)
		if op != nil {
			ops = append(ops, op)
		}
	}
	return ops
}

func parseOperation(sec *models.Section, docID string) *models.Operation {
	op := &models.Operation{
		Concept: models.Concept{
			ID:      sec.ID,
			Kind:    models.KindOperation,
			DocID:   docID,
			Slug:    sec.Slug,
			Name:    sec.Title,
			Extends: sec.Extends,
		},
		Content: sec.Content,
	}

	stepsSource := sec.Content
	for _, child := range sec.Children {
		switch {
		case titleMatches(child.Title, inputsAliases):
			op.Inputs = parseBullets(child.Content)
		case titleMatches(child.Title, outputsAliases):
			op.Outputs = parseBullets(child.Content)
		case titleMatches(child.Title, stepsAliases):
			stepsSource = child.Content
		case titleMatches(child.Title, checklistAliases):
			op.Checklist = parseBullets(child.Content)
		}
	}
	op.Steps = ParseSteps(stepsSource)

	if len(op.Steps) == 0 && len(op.Checklist) == 0 && subtreeEmpty(sec) {
		return nil // placeholder, inherited later
	}
	return op
}

func titleMatches(title string, aliases []string) bool {
	for _, a := range aliases {
		if strings.EqualFold(title, a) {
			return true
		}
	}
	return false
}

func subtreeEmpty(sec *models.Section) bool {
	empty := true
	sec.Walk(func(s *models.Section) {
		if strings.TrimSpace(s.Content) != "" {
			empty = false
		}
	})
	return empty
}

// ParseSteps parses numbered instruction lines. Lines that are neither
// numbered, bulleted, nor headings continue the preceding step.
func ParseSteps(content string) []models.Step {
	var steps []models.Step
	for _, line := range strings.Split(content, "\n") {
		if m := numberedRe.FindStringSubmatch(line); m != nil {
			n, _ := strconv.Atoi(m[1])
			steps = append(steps, models.Step{
				Number:      n,
				Instruction: strings.TrimSpace(m[2]),
			})
			continue
		}
		trimmed := strings.TrimSpace(line)
		if len(steps) == 0 || trimmed == "" ||
			strings.HasPrefix(trimmed, "#") || bulletRe.MatchString(line) {
			continue
		}
		last := &steps[len(steps)-1]
		last.Instruction += "\n" + trimmed
	}
	for i := range steps {
		steps[i].OperationRefs = ExtractBareRefs(steps[i].Instruction)
	}
	return steps
}

// parseBullets parses bulleted items with the same continuation rule as
// steps.
func parseBullets(content string) []string {
	var items []string
	for _, line := range strings.Split(content, "\n") {
		if m := bulletRe.FindStringSubmatch(line); m != nil {
			items = append(items, strings.TrimSpace(m[1]))
			continue
		}
		trimmed := strings.TrimSpace(line)
		if len(items) == 0 || trimmed == "" ||
			strings.HasPrefix(trimmed, "#") || numberedRe.MatchString(line) {
			continue
		}
		items[len(items)-1] += "\n" + trimmed
	}
	return items
}

// ExtractBareRefs collects [Name] bracket references that are not markdown
// links, i.e. not immediately followed by an opening parenthesis.
func ExtractBareRefs(text string) []string {
	var refs []string
	for _, loc := range bracketRe.FindAllStringSubmatchIndex(text, -1) {
		end := loc[1]
		if end < len(text) && text[end] == '(' {
			continue // [text](url) is a link, not a reference
		}
		refs = append(refs, text[loc[2]:loc[3]])
	}
	return refs
}
