package explain

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/kailas-cloud/collabmatch/internal/domain/match"
)

type generated struct {
	Summary     string
	Suggestions []string
}

func parseExplanation(raw string) (generated, error) {
	var data map[string]any
	if err := json.Unmarshal([]byte(extractJSON(raw)), &data); err != nil {
		return generated{}, fmt.Errorf("parse explanation: %w", err)
	}

	out := generated{
		Summary:     coerceString(data["reasonSummary"]),
		Suggestions: coerceStrings(data["collaborationSuggestions"]),
	}
	if out.Summary == "" {
		return generated{}, fmt.Errorf("parse explanation: reasonSummary is empty")
	}
	if len(out.Suggestions) > match.MaxSuggestions {
		out.Suggestions = out.Suggestions[:match.MaxSuggestions]
	}
	return out, nil
}

func parseNarrative(raw string) (string, error) {
	var data map[string]any
	if err := json.Unmarshal([]byte(extractJSON(raw)), &data); err != nil {
		return "", fmt.Errorf("parse summary: %w", err)
	}
	s := coerceString(data["summary"])
	if s == "" {
		return "", fmt.Errorf("parse summary: summary is empty")
	}
	return s, nil
}

// extractJSON strips markdown code fences some models wrap around JSON.
func extractJSON(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "```") {
		raw = strings.TrimPrefix(raw, "```json")
		raw = strings.TrimPrefix(raw, "```")
		raw = strings.TrimSpace(raw)
		if idx := strings.LastIndex(raw, "```"); idx != -1 {
			raw = raw[:idx]
		}
	}
	raw = strings.Trim(raw, "`")
	return strings.TrimSpace(raw)
}

func coerceString(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(val)
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(b)
	}
}

// coerceStrings accepts a JSON array or a single string and drops blank entries.
func coerceStrings(v any) []string {
	var out []string
	switch val := v.(type) {
	case []any:
		for _, item := range val {
			if s := coerceString(item); s != "" {
				out = append(out, s)
			}
		}
	case string:
		if s := strings.TrimSpace(val); s != "" {
			out = append(out, s)
		}
	}
	return out
}
