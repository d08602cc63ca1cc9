package normalize

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/stockbox/backend/internal/domain"
)

// JSONObject strips fences from raw, parses it as a JSON object and checks it
// against shape. Failures are *domain.MalformedResponseError carrying raw.
func JSONObject(raw string, shape Shape) (map[string]any, error) {
	cleaned := StripFences(raw)
	if cleaned == "" {
		return nil, domain.NewMalformed(raw, "%s: empty response", shape.Name)
	}

	var obj map[string]any
	if err := json.Unmarshal([]byte(cleaned), &obj); err != nil {
		return nil, domain.NewMalformed(raw, "%s: not a JSON object: %v", shape.Name, err)
	}
	if obj == nil {
		return nil, domain.NewMalformed(raw, "%s: not a JSON object: null", shape.Name)
	}

	for _, key := range shape.RequiredKeys {
		if _, ok := obj[key]; !ok {
			return nil, domain.NewMalformed(raw, "%s: missing required key %q", shape.Name, key)
		}
	}

	if shape.schema != nil {
		if result := shape.schema.ValidateJSON([]byte(cleaned)); !result.Valid {
			return nil, domain.NewMalformed(raw, "%s: schema validation failed: %v", shape.Name, result)
		}
	}
	return obj, nil
}

// Decode runs JSONObject and then decodes the cleaned text into v.
func Decode(raw string, shape Shape, v any) error {
	if _, err := JSONObject(raw, shape); err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(StripFences(raw)), v); err != nil {
		return domain.NewMalformed(raw, "%s: %v", shape.Name, err)
	}
	return nil
}

var identPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// AssignmentList expects `<name> = [ ... ]` and returns the list's entries in
// order, as read by Literal.Entries. The right-hand side is read by
// ParseLiteral and is never evaluated.
func AssignmentList(raw, name string) ([]string, error) {
	if !identPattern.MatchString(name) {
		return nil, domain.NewMalformed(raw, "invalid assignment name %q", name)
	}
	cleaned := StripFences(raw)

	prefix := regexp.MustCompile(`^` + name + `\s*=\s*`)
	loc := prefix.FindStringIndex(cleaned)
	if loc == nil {
		return nil, domain.NewMalformed(raw, "expected %q assignment", name+" = [")
	}
	rhs := strings.TrimSpace(cleaned[loc[1]:])
	if !strings.HasPrefix(rhs, "[") {
		return nil, domain.NewMalformed(raw, "expected %q assignment", name+" = [")
	}

	lit, err := ParseLiteral(rhs)
	if err != nil {
		return nil, domain.NewMalformed(raw, "%s: %v", name, err)
	}

	entries, err := lit.Entries()
	if err != nil {
		return nil, domain.NewMalformed(raw, "%s: %v", name, err)
	}

	out := make([]string, 0, len(entries))
	for _, s := range entries {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out, nil
}
