package parser

import (
	"regexp"
	"strings"

	"github.com/starford/ansuz/internal/models"
)

var (
	headingRe = regexp.MustCompile(`^(#{1,6})\s+(.+?)\s*$`)
	// [Title][Type] headings declare the concept name and its parent type
	// through a markdown link reference.
	headingLinkRefRe = regexp.MustCompile(`^\[([^\]]+)\]\[([^\]]+)\]$`)
)

// ParseSections builds the section tree of a document body.
//
// Headings inside fenced code blocks are ignored. A section's content is
// sliced from the line after its heading to the line before the next heading
// at any depth. Implicit extends from [Title][Type] headings are carried on
// the returned section nodes rather than any shared side channel, so bodies
// can be parsed concurrently.
func ParseSections(body, docID string) []*models.Section {
	lines := strings.Split(body, "\n")

	type rawHeading struct {
		depth   int
		title   string
		extends []string
		line    int
	}
	var heads []rawHeading

	inFence := false
	for i, ln := range lines {
		if strings.HasPrefix(strings.TrimSpace(ln), "```") {
			inFence = !inFence
			continue
		}
		if inFence {
			continue
		}
		m := headingRe.FindStringSubmatch(ln)
		if m == nil {
			continue
		}
		title := strings.TrimSpace(m[2])
		var extends []string
		if lm := headingLinkRefRe.FindStringSubmatch(title); lm != nil {
			title = strings.TrimSpace(lm[1])
			extends = []string{strings.TrimSpace(lm[2])}
		} else {
			title = StripBrackets(title)
		}
		heads = append(heads, rawHeading{depth: len(m[1]), title: title, extends: extends, line: i})
	}

	sections := make([]*models.Section, len(heads))
	for i, h := range heads {
		end := len(lines)
		if i+1 < len(heads) {
			end = heads[i+1].line
		}
		slug := Slugify(h.title)
		sections[i] = &models.Section{
			ID:      docID + "#" + slug,
			DocID:   docID,
			Slug:    slug,
			Depth:   h.depth,
			Title:   h.title,
			Content: strings.TrimSpace(strings.Join(lines[h.line+1:end], "\n")),
			Line:    h.line + 1,
			Extends: h.extends,
		}
	}

	// Rebuild the hierarchy with a depth stack: a heading closes every open
	// section at its own depth or deeper.
	var roots, stack []*models.Section
	for _, s := range sections {
		for len(stack) > 0 && stack[len(stack)-1].Depth >= s.Depth {
			stack = stack[:len(stack)-1]
		}
		if len(stack) == 0 {
			roots = append(roots, s)
		} else {
			parent := stack[len(stack)-1]
			parent.Children = append(parent.Children, s)
		}
		stack = append(stack, s)
	}
	return roots
}

// FlattenSections returns all sections in document order.
func FlattenSections(roots []*models.Section) []*models.Section {
	var out []*models.Section
	for _, r := range roots {
		r.Walk(func(s *models.Section) { out = append(out, s) })
	}
	return out
}

// FindSection returns the first section (document order, any depth) whose
// title case-insensitively matches one of the aliases, or whose slug equals
// one of the slugAliases.
func FindSection(roots []*models.Section, aliases, slugAliases []string) *models.Section {
	for _, s := range FlattenSections(roots) {
		for _, a := range aliases {
			if strings.EqualFold(s.Title, a) {
				return s
			}
		}
		for _, sa := range slugAliases {
			if s.Slug == sa {
				return s
			}
		}
	}
	return nil
}
