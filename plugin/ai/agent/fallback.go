package agent

import (
	"context"
	"encoding/json"
	"log/slog"
)

// GenericFallback returns a fallback that answers with a fixed message.
func GenericFallback(message string) FallbackFunc {
	return func(_ context.Context, tool Tool, _ string, err error) (string, error) {
		slog.Warn("tool degraded to fallback", "tool", toolName(tool), "error", err)
		return message, nil
	}
}

// ErrorJSONFallback answers with {"error": "<cause>"} so JSON speaking
// tools keep their result shape when they fail.
func ErrorJSONFallback() FallbackFunc {
	return func(_ context.Context, tool Tool, _ string, err error) (string, error) {
		msg := "unknown error"
		if err != nil {
			msg = err.Error()
		}
		slog.Warn("tool degraded to fallback", "tool", toolName(tool), "error", msg)
		out, _ := json.Marshal(map[string]string{"error": msg})
		return string(out), nil
	}
}

// DefaultFallbackRules degrades the lookup tools to a result the model
// can relay instead of failing the call.
func DefaultFallbackRules() map[string]FallbackFunc {
	return map[string]FallbackFunc{
		"retrieve_legal_info": ErrorJSONFallback(),
		"search_web":          GenericFallback("Web search is temporarily unavailable. Answer from the legal library or general knowledge and say so."),
	}
}

func toolName(tool Tool) string {
	if tool == nil {
		return ""
	}
	return tool.Name()
}
