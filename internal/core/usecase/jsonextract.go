package usecase

import "strings"

// extractJSON pulls the JSON payload out of a raw model reply. Models wrap
// JSON in markdown despite instructions, so the search order is: fenced
// ```json block, fenced generic block, first balanced {...} span, raw text.
func extractJSON(raw string) string {
	raw = strings.TrimSpace(raw)

	if block, ok := fencedBlock(raw, "```json"); ok {
		return block
	}
	if block, ok := fencedBlock(raw, "```"); ok {
		return block
	}
	if span, ok := balancedObject(raw); ok {
		return span
	}
	return raw
}

func fencedBlock(raw, fence string) (string, bool) {
	start := strings.Index(raw, fence)
	if start < 0 {
		return "", false
	}
	rest := raw[start+len(fence):]
	end := strings.Index(rest, "```")
	if end < 0 {
		return "", false
	}
	return strings.TrimSpace(rest[:end]), true
}

// balancedObject finds the first top-level {...} span, tracking strings and
// escapes so braces inside JSON values do not break the count.
func balancedObject(raw string) (string, bool) {
	start := strings.IndexByte(raw, '{')
	if start < 0 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(raw); i++ {
		ch := raw[i]
		switch {
		case escaped:
			escaped = false
		case ch == '\\' && inString:
			escaped = true
		case ch == '"':
			inString = !inString
		case inString:
		case ch == '{':
			depth++
		case ch == '}':
			depth--
			if depth == 0 {
				return raw[start : i+1], true
			}
		}
	}
	return "", false
}

// rawExcerpt truncates a model reply for error diagnostics.
func rawExcerpt(raw string) string {
	const limit = 200
	raw = strings.TrimSpace(raw)
	if len(raw) <= limit {
		return raw
	}
	return raw[:limit] + "..."
}
