package parser

import (
	"regexp"
	"strings"
)

// Link is one inline link, reference-style usage, or bare bracket
// reference found inside section content. Exactly one of Target or Label
// is meaningful: Target for inline links, Label for reference usages.
type Link struct {
	Text   string
	Target string // path, path#anchor, or #anchor
	Label  string // reference label, resolved via the import symbol table
}

var (
	inlineLinkRe = regexp.MustCompile(`\[([^\[\]]+)\]\(([^)\s]+)\)`)
	refLinkRe    = regexp.MustCompile(`\[([^\[\]]+)\]\[([^\[\]]*)\]`)
)

// ScanLinks finds links in content, skipping fenced code blocks and
// reference-definition lines. Bare [Term] brackets count as shortcut
// references with the term as label.
func ScanLinks(content string) []Link {
	var links []Link
	inFence := false
	for _, line := range strings.Split(content, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "```") {
			inFence = !inFence
			continue
		}
		if inFence || importRe.MatchString(line) {
			continue
		}

		claimed := make([]int, 0, 4) // start/end pairs already consumed

		for _, loc := range inlineLinkRe.FindAllStringSubmatchIndex(line, -1) {
			links = append(links, Link{
				Text:   line[loc[2]:loc[3]],
				Target: line[loc[4]:loc[5]],
			})
			claimed = append(claimed, loc[0], loc[1])
		}
		for _, loc := range refLinkRe.FindAllStringSubmatchIndex(line, -1) {
			if overlaps(claimed, loc[0], loc[1]) {
				continue
			}
			text := line[loc[2]:loc[3]]
			label := line[loc[4]:loc[5]]
			if label == "" {
				label = text // collapsed reference [text][]
			}
			links = append(links, Link{Text: text, Label: label})
			claimed = append(claimed, loc[0], loc[1])
		}
		for _, loc := range bracketRe.FindAllStringSubmatchIndex(line, -1) {
			if overlaps(claimed, loc[0], loc[1]) {
				continue
			}
			if end := loc[1]; end < len(line) && (line[end] == '(' || line[end] == '[' || line[end] == ':') {
				continue
			}
			text := line[loc[2]:loc[3]]
			links = append(links, Link{Text: text, Label: text})
		}
	}
	return links
}

func overlaps(claimed []int, start, end int) bool {
	for i := 0; i+1 < len(claimed); i += 2 {
		if start < claimed[i+1] && end > claimed[i] {
			return true
		}
	}
	return false
}
