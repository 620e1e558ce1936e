package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/hrygo/lexagent/plugin/ai/agent"
	"github.com/hrygo/lexagent/plugin/ai/timeout"
	"github.com/hrygo/lexagent/plugin/websearch"
)

// WebSearchToolName is the name the model calls the web search tool by.
const WebSearchToolName = "search_web"

// WebSearcher renders a web search as text for the model.
type WebSearcher interface {
	SearchText(ctx context.Context, query string) string
}

var _ WebSearcher = (*websearch.Client)(nil)

// WebSearchInput is the argument object of search_web.
type WebSearchInput struct {
	Query string `json:"query"`
}

// NewWebSearchTool searches the web for recent case law and news.
func NewWebSearchTool(searcher WebSearcher) agent.ToolWithSchema {
	return agent.NewNativeTool(
		WebSearchToolName,
		"Search the web for recent legal cases, news or judgments that are not in the legal reference library.",
		func(ctx context.Context, input string) (string, error) {
			var in WebSearchInput
			if err := json.Unmarshal([]byte(input), &in); err != nil {
				return fmt.Sprintf("Error: invalid arguments: %v", err), nil
			}
			query := strings.TrimSpace(in.Query)
			if query == "" {
				return "Error: query is required", nil
			}
			if searcher == nil {
				return websearch.UnavailableMessage, nil
			}
			return searcher.SearchText(ctx, query), nil
		},
		map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"query": map[string]interface{}{
					"type":        "string",
					"description": "What to search for, e.g. \"Supreme Court judgment cheque bounce 2024\".",
				},
			},
			"required": []string{"query"},
		},
		// the client enforces its own deadline; leave headroom for it
		agent.WithTimeout(timeout.WebSearchTimeout+timeout.WebSearchTimeout/2),
	)
}
