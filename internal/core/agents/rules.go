package agents

import "strings"

// Rules holds the heuristics shared by the classifier and the format agents.
type Rules struct {
	HeaderScanLines    int      `yaml:"header_scan_lines"`
	UrgentKeywords     []string `yaml:"urgent_keywords"`
	ImportantKeywords  []string `yaml:"important_keywords"`
	SnippetChars       int      `yaml:"snippet_chars"`
	RequiredJSONFields []string `yaml:"required_json_fields"`
	EmailExtensions    []string `yaml:"email_extensions"`
	JSONExtensions     []string `yaml:"json_extensions"`
}

func DefaultRules() Rules {
	return Rules{
		HeaderScanLines:   20,
		UrgentKeywords:    []string{"urgent", "immediate", "asap", "critical"},
		ImportantKeywords: []string{"important", "priority", "attention"},
		SnippetChars:      200,
		EmailExtensions:   []string{".eml", ".msg"},
		JSONExtensions:    []string{".json"},
	}
}

// Normalize fills zero values from DefaultRules and lower-cases keywords and extensions.
func (r Rules) Normalize() Rules {
	def := DefaultRules()
	out := r
	if out.HeaderScanLines <= 0 {
		out.HeaderScanLines = def.HeaderScanLines
	}
	if out.SnippetChars <= 0 {
		out.SnippetChars = def.SnippetChars
	}
	if len(out.UrgentKeywords) == 0 {
		out.UrgentKeywords = def.UrgentKeywords
	}
	if len(out.ImportantKeywords) == 0 {
		out.ImportantKeywords = def.ImportantKeywords
	}
	if len(out.EmailExtensions) == 0 {
		out.EmailExtensions = def.EmailExtensions
	}
	if len(out.JSONExtensions) == 0 {
		out.JSONExtensions = def.JSONExtensions
	}
	out.UrgentKeywords = lowerAll(out.UrgentKeywords)
	out.ImportantKeywords = lowerAll(out.ImportantKeywords)
	out.EmailExtensions = normalizeExtensions(out.EmailExtensions)
	out.JSONExtensions = normalizeExtensions(out.JSONExtensions)
	return out
}

func lowerAll(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.ToLower(strings.TrimSpace(v))
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}

func normalizeExtensions(values []string) []string {
	out := lowerAll(values)
	for i, ext := range out {
		if !strings.HasPrefix(ext, ".") {
			out[i] = "." + ext
		}
	}
	return out
}

func containsAnyKeyword(text string, keywords []string) bool {
	lowered := strings.ToLower(text)
	for _, keyword := range keywords {
		if keyword != "" && strings.Contains(lowered, keyword) {
			return true
		}
	}
	return false
}

func hasExtension(ext string, candidates []string) bool {
	if ext == "" {
		return false
	}
	for _, c := range candidates {
		if c == ext {
			return true
		}
	}
	return false
}
