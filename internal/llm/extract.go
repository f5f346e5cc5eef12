package llm

import "strings"

// ExtractJSONObject pulls a JSON object out of completion output.
// Providers frequently wrap JSON in markdown fences or surround it
// with prose; this tries, in order, the whole text, a fenced block,
// and the outermost brace-delimited substring.
func ExtractJSONObject(text string) (string, bool) {
	trimmed := strings.TrimSpace(text)
	if strings.HasPrefix(trimmed, "{") && strings.HasSuffix(trimmed, "}") {
		return trimmed, true
	}

	if fenced := stripFences(trimmed); fenced != trimmed {
		inner := strings.TrimSpace(fenced)
		if strings.HasPrefix(inner, "{") && strings.HasSuffix(inner, "}") {
			return inner, true
		}
	}

	start := strings.Index(trimmed, "{")
	end := strings.LastIndex(trimmed, "}")
	if start >= 0 && end > start {
		return trimmed[start : end+1], true
	}
	return "", false
}

// stripFences removes a surrounding markdown code fence, with or
// without a language tag, returning the input unchanged when no fence
// is present.
func stripFences(text string) string {
	trimmed := strings.TrimSpace(text)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	body := strings.TrimPrefix(trimmed, "```")
	if idx := strings.Index(body, "\n"); idx >= 0 {
		// Drop the language tag line, e.g. ```json.
		body = body[idx+1:]
	}
	if idx := strings.LastIndex(body, "```"); idx >= 0 {
		body = body[:idx]
	}
	return strings.TrimSpace(body)
}
