package agentctx

import "strings"

// TrimMarker is appended whenever definition content is truncated.
const TrimMarker = "[... trimmed ...]"

// TrimContent truncates content to at most max characters of whole lines,
// appending the trim marker. Truncation never happens mid-line, so
// headings and fenced code blocks are not corrupted. max <= 0 disables
// trimming.
func TrimContent(content string, max int) string {
	if max <= 0 || len(content) <= max {
		return content
	}
	var kept []string
	total := 0
	for _, line := range strings.Split(content, "\n") {
		cost := len(line)
		if len(kept) > 0 {
			cost++ // the joining newline
		}
		if total+cost > max {
			break
		}
		total += cost
		kept = append(kept, line)
	}
	return strings.Join(append(kept, TrimMarker), "\n")
}
