// Package llm - util.go provides shared utilities for LLM response processing.
package llm

import "strings"

// CleanJSONBlock removes markdown code block wrappers and conversational
// preamble or trailing text around a JSON object or array.
// LLMs often wrap JSON in ```json ... ``` blocks even when instructed not to.
func CleanJSONBlock(text string) string {
	text = strings.TrimSpace(text)

	if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```")
		// Skip potential language identifier on first line
		if idx := strings.Index(text, "\n"); idx >= 0 {
			firstLine := text[:idx]
			if len(firstLine) < 20 && !strings.Contains(firstLine, " ") && !strings.ContainsAny(firstLine, "{[") {
				text = text[idx+1:]
			}
		}
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
		text = strings.TrimSpace(text)
	}

	start := strings.IndexAny(text, "{[")
	if start < 0 {
		return text
	}

	var extracted string
	if text[start] == '{' {
		extracted = extractJSONObject(text[start:])
	} else {
		extracted = extractJSONArray(text[start:])
	}
	if extracted == "" {
		return text[start:]
	}
	return extracted
}

// extractJSONObject returns the balanced object at the start of text, or "".
func extractJSONObject(text string) string {
	if !strings.HasPrefix(text, "{") {
		return ""
	}
	if end := matchingClose(text); end > 0 {
		return text[:end+1]
	}
	return ""
}

// extractJSONArray returns the balanced array at the start of text, or "".
func extractJSONArray(text string) string {
	if !strings.HasPrefix(text, "[") {
		return ""
	}
	if end := matchingClose(text); end > 0 {
		return text[:end+1]
	}
	return ""
}

// matchingClose returns the index of the bracket closing text[0],
// skipping brackets inside JSON strings, or -1 when unbalanced.
func matchingClose(text string) int {
	depth := 0
	inString := false
	escaped := false

	for i := 0; i < len(text); i++ {
		ch := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}

		switch ch {
		case '"':
			inString = true
		case '{', '[':
			depth++
		case '}', ']':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}
