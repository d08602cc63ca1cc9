// Package normalize turns raw model text into structured values. It never
// executes model output; list literals go through a restricted parser.
package normalize

import "strings"

const fence = "```"

// languageTags are the fence labels stripped even when code follows on the
// same line (e.g. "```json {...}" or "```json{...}").
var languageTags = map[string]bool{
	"json":       true,
	"python":     true,
	"py":         true,
	"text":       true,
	"plaintext":  true,
	"javascript": true,
	"js":         true,
}

// StripFences trims whitespace and removes code fences, with or without a
// language tag, from both ends. It repeats until the text is stable, so
// StripFences(StripFences(s)) == StripFences(s).
func StripFences(raw string) string {
	s := strings.TrimSpace(raw)
	for {
		prev := s
		if strings.HasPrefix(s, fence) {
			s = stripLanguageTag(s[len(fence):])
		}
		if strings.HasSuffix(s, fence) {
			s = s[:len(s)-len(fence)]
		}
		s = strings.TrimSpace(s)
		if s == prev {
			return s
		}
	}
}

func stripLanguageTag(s string) string {
	end := 0
	for end < len(s) && isTagChar(s[end]) {
		end++
	}
	if end == 0 {
		return s
	}
	tag := s[:end]
	rest := s[end:]
	switch {
	case rest == "" || rest[0] == '\n' || rest[0] == '\r':
		return rest
	case languageTags[strings.ToLower(tag)] && (rest[0] == ' ' || rest[0] == '\t'):
		return rest
	case languageTags[strings.ToLower(tag)] && (rest[0] == '{' || rest[0] == '['):
		return rest
	default:
		return s
	}
}

func isTagChar(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' || c == '-' || c == '+'
}
