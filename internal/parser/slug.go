package parser

import (
	"strings"
	"unicode"
)

// Slugify normalizes a heading or definition title into an anchor-style
// identifier (github-slugger behavior): lowercase, punctuation removed,
// spaces collapsed to single hyphens.
func Slugify(title string) string {
	var b strings.Builder
	lastHyphen := false
	for _, r := range strings.TrimSpace(title) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(unicode.ToLower(r))
			lastHyphen = false
		case r == ' ' || r == '-' || r == '_':
			if !lastHyphen && b.Len() > 0 {
				b.WriteByte('-')
				lastHyphen = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

// NormalizeDocID derives a stable document identifier from a front-matter
// name or filename stem: lowercase with spaces and dashes as underscores.
func NormalizeDocID(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	s = strings.Map(func(r rune) rune {
		switch r {
		case ' ', '-':
			return '_'
		}
		return r
	}, s)
	return s
}

// StripBrackets removes one layer of markdown-link brackets: "[Document]"
// becomes "Document". Non-bracketed input is returned unchanged.
func StripBrackets(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "[") && strings.HasSuffix(s, "]") {
		return strings.TrimSpace(s[1 : len(s)-1])
	}
	return s
}
