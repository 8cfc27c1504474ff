package logger

import (
	"strings"

	"go.uber.org/zap"
)

// AIFields describes the provider side of a remote model call.
func AIFields(provider, model string) []zap.Field {
	return []zap.Field{
		zap.String("ai_provider", provider),
		zap.String("ai_model", model),
	}
}

// TruncateForLog trims s and cuts it to limit runes, appending an ellipsis when cut.
func TruncateForLog(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	s = strings.TrimSpace(s)
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit]) + "..."
}
