package classifier

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/kr4t0z/chrono-server/internal/activity"
)

// ParseResponse extracts a Classification from model output. The JSON may be
// wrapped in code fences or surrounded by prose. A missing or non-boolean
// same-session verdict is an error; a malformed confidence becomes
// DefaultConfidence and an unknown category is dropped.
func ParseResponse(responseText string) (*Classification, error) {
	text := strings.TrimSpace(responseText)
	if strings.HasPrefix(text, "```json") {
		text = strings.TrimPrefix(text, "```json")
		text = strings.TrimSuffix(text, "```")
	} else if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```")
		text = strings.TrimSuffix(text, "```")
	}
	text = strings.TrimSpace(text)

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end < start {
		return nil, fmt.Errorf("no JSON object in response: %.200s", text)
	}
	text = text[start : end+1]

	var raw map[string]any
	if err := json.Unmarshal([]byte(text), &raw); err != nil {
		return nil, fmt.Errorf("parsing classification JSON: %w (response was: %.200s)", err, text)
	}

	same, ok := lookup(raw, "same_session", "sameSession").(bool)
	if !ok {
		return nil, fmt.Errorf("response has no boolean same_session field")
	}

	result := &Classification{
		SameSession: same,
		Confidence:  DefaultConfidence,
	}
	if conf, ok := lookup(raw, "confidence").(float64); ok && conf >= 0 && conf <= 1 {
		result.Confidence = conf
	}
	if reason, ok := lookup(raw, "reason").(string); ok {
		result.Reason = strings.TrimSpace(reason)
	}
	if cat, ok := lookup(raw, "category", "suggested_category", "suggestedCategory").(string); ok {
		if parsed, valid := activity.ParseCategory(cat); valid {
			result.SuggestedCategory = string(parsed)
		}
	}
	return result, nil
}

// lookup returns the first present key's value.
func lookup(m map[string]any, keys ...string) any {
	for _, k := range keys {
		if v, ok := m[k]; ok {
			return v
		}
	}
	return nil
}
