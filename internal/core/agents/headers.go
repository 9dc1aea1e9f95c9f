package agents

import "strings"

const (
	headerFrom    = "from"
	headerTo      = "to"
	headerCc      = "cc"
	headerSubject = "subject"
	headerDate    = "date"
)

// parseHeaderLine recognizes "Name: value" lines for the headers the agents
// care about. Matching is case-insensitive.
func parseHeaderLine(line string) (string, string, bool) {
	trimmed := strings.TrimSpace(line)
	idx := strings.IndexByte(trimmed, ':')
	if idx <= 0 {
		return "", "", false
	}
	key := strings.ToLower(trimmed[:idx])
	switch key {
	case headerFrom, headerTo, headerCc, headerSubject, headerDate:
		return key, strings.TrimSpace(trimmed[idx+1:]), true
	default:
		return "", "", false
	}
}

func splitLines(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	return strings.Split(text, "\n")
}

// scanHeaders reports which headers appear within the first limit lines.
func scanHeaders(text string, limit int) map[string]bool {
	found := make(map[string]bool)
	for i, line := range splitLines(text) {
		if i >= limit {
			break
		}
		if key, _, ok := parseHeaderLine(line); ok {
			found[key] = true
		}
	}
	return found
}

type emailParts struct {
	headers map[string]string
	body    string
}

// parseEmail splits text into a header block and a body at the first blank
// line. The first occurrence of a header wins. Without a blank line the
// non-header lines form the body.
func parseEmail(text string) emailParts {
	lines := splitLines(text)
	for len(lines) > 0 && strings.TrimSpace(lines[0]) == "" {
		lines = lines[1:]
	}

	blank := -1
	for i, line := range lines {
		if strings.TrimSpace(line) == "" {
			blank = i
			break
		}
	}

	headerBlock := lines
	var rest []string
	if blank >= 0 {
		headerBlock = lines[:blank]
		rest = lines[blank+1:]
	}

	parts := emailParts{headers: make(map[string]string)}
	var loose []string
	for _, line := range headerBlock {
		if key, value, ok := parseHeaderLine(line); ok {
			if _, seen := parts.headers[key]; !seen {
				parts.headers[key] = value
			}
			continue
		}
		loose = append(loose, line)
	}

	bodyLines := rest
	if blank < 0 {
		bodyLines = loose
	}
	parts.body = strings.TrimSpace(strings.Join(bodyLines, "\n"))
	return parts
}
