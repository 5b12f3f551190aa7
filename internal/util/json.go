package util

import (
	"encoding/json"
	"fmt"
	"strings"
)

// StripCodeFences removes a leading/trailing markdown code fence from model
// output. Models frequently wrap JSON answers in ```json ... ``` blocks even
// when instructed otherwise.
func StripCodeFences(s string) string {
	trimmed := strings.TrimSpace(s)

	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}

	// Drop the opening fence line (``` or ```json)
	if idx := strings.Index(trimmed, "\n"); idx >= 0 {
		trimmed = trimmed[idx+1:]
	} else {
		return strings.TrimPrefix(trimmed, "```")
	}

	if idx := strings.LastIndex(trimmed, "```"); idx >= 0 {
		trimmed = trimmed[:idx]
	}

	return strings.TrimSpace(trimmed)
}

// DecodeJSON unmarshals model-produced JSON into v, tolerating surrounding
// whitespace and markdown code fences. It also recovers when the payload is
// embedded in prose by retrying from the first '{' or '[' character.
func DecodeJSON(s string, v any) error {
	cleaned := StripCodeFences(s)

	if err := json.Unmarshal([]byte(cleaned), v); err == nil {
		return nil
	}

	start := strings.IndexAny(cleaned, "{[")
	if start < 0 {
		return fmt.Errorf("no JSON payload found in text")
	}

	var end int
	if cleaned[start] == '{' {
		end = strings.LastIndex(cleaned, "}")
	} else {
		end = strings.LastIndex(cleaned, "]")
	}
	if end <= start {
		return fmt.Errorf("unterminated JSON payload in text")
	}

	if err := json.Unmarshal([]byte(cleaned[start:end+1]), v); err != nil {
		return fmt.Errorf("decode JSON payload: %w", err)
	}

	return nil
}
