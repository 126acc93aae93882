package parser

import (
	"encoding/json"
	"strings"
)

// ParseFields recovers the JSON object embedded in free-form model output.
// It takes the widest span from the first '{' to the last '}' and returns nil
// when no span exists or the span does not decode as an object.
func ParseFields(raw string) map[string]any {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end <= start {
		return nil
	}

	var fields map[string]any
	if err := json.Unmarshal([]byte(raw[start:end+1]), &fields); err != nil {
		return nil
	}
	return fields
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
