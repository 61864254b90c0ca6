package analysis

import (
	"encoding/json"
	"fmt"
	"strings"
)

// StripFences removes a markdown code fence around a model reply. Models
// asked for "ONLY JSON" still wrap the payload in ```json fences often
// enough that every reply goes through here.
func StripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	parts := strings.Split(s, "```")
	if len(parts) > 1 {
		s = parts[1]
	}
	if strings.HasPrefix(s, "json") {
		s = s[4:]
	}
	return strings.TrimSpace(s)
}

// Decode parses a model reply into out. A reply wrapped in a JSON array is
// coerced to its first element; some models return [{...}] for a single
// object.
func Decode[T any](raw string, out *T) error {
	cleaned := StripFences(raw)
	if strings.HasPrefix(cleaned, "[") {
		var list []T
		if err := json.Unmarshal([]byte(cleaned), &list); err != nil {
			return fmt.Errorf("decode reply array: %w", err)
		}
		if len(list) == 0 {
			return fmt.Errorf("decode reply: empty array")
		}
		*out = list[0]
		return nil
	}
	if err := json.Unmarshal([]byte(cleaned), out); err != nil {
		return fmt.Errorf("decode reply: %w", err)
	}
	return nil
}
