package util

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/kaptinlin/jsonrepair"
)

// ParseLooseJSON decodes a JSON object from model output. Model payloads are
// frequently wrapped in markdown code fences or slightly malformed; fences
// are stripped and a repair pass is attempted before giving up.
func ParseLooseJSON(raw string) (map[string]any, error) {
	text := stripFences(strings.TrimSpace(raw))

	var out map[string]any
	if err := json.Unmarshal([]byte(text), &out); err == nil {
		return out, nil
	}

	repaired, err := jsonrepair.JSONRepair(text)
	if err != nil {
		return nil, fmt.Errorf("failed to repair json payload: %w", err)
	}
	if err := json.Unmarshal([]byte(repaired), &out); err != nil {
		return nil, fmt.Errorf("failed to parse repaired json payload: %w", err)
	}
	return out, nil
}

// stripFences removes a surrounding markdown code fence (``` or ```json).
func stripFences(text string) string {
	if !strings.HasPrefix(text, "```") {
		return text
	}
	text = strings.TrimPrefix(text, "```")
	if idx := strings.Index(text, "\n"); idx >= 0 {
		text = text[idx+1:] // drop the language hint line
	}
	text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	return strings.TrimSpace(text)
}
