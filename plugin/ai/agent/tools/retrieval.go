// Package tools provides the legal assistant's agent tools.
package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/hrygo/lexagent/plugin/ai/agent"
	"github.com/hrygo/lexagent/plugin/ai/timeout"
	"github.com/hrygo/lexagent/plugin/ai/vector"
)

const (
	// RetrievalToolName is the name the model calls the retrieval tool by.
	RetrievalToolName = "retrieve_legal_info"

	noDocsMessage = "No docs found."
)

// RetrievalInput is the argument object of retrieve_legal_info.
type RetrievalInput struct {
	Query string `json:"query"`
}

type retrievalOutput struct {
	Results []vector.Passage `json:"results,omitempty"`
	Message string           `json:"message,omitempty"`
	Error   string           `json:"error,omitempty"`
}

// NewRetrievalTool searches the legal reference library.
func NewRetrievalTool(retriever vector.Retriever) agent.ToolWithSchema {
	return agent.NewNativeTool(
		RetrievalToolName,
		"Search the legal reference library for laws, acts and rights (e.g. BNS, Consumer Protection Act). Returns the most relevant passages with their source.",
		func(ctx context.Context, input string) (string, error) {
			return retrieve(ctx, retriever, input)
		},
		map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"query": map[string]interface{}{
					"type":        "string",
					"description": "The user's legal question, e.g. \"rights for defective goods\".",
				},
			},
			"required": []string{"query"},
		},
	)
}

func retrieve(ctx context.Context, retriever vector.Retriever, input string) (string, error) {
	var in RetrievalInput
	if err := json.Unmarshal([]byte(input), &in); err != nil {
		return encode(retrievalOutput{Error: fmt.Sprintf("invalid arguments: %v", err)})
	}
	query := strings.TrimSpace(in.Query)
	if query == "" {
		return encode(retrievalOutput{Error: "query is required"})
	}
	if retriever == nil {
		return encode(retrievalOutput{Error: "legal reference library is not configured"})
	}

	passages, err := retriever.Search(ctx, query, timeout.RetrievalLimit)
	if err != nil {
		// returned as an error so the executor can retry and fall back
		return "", fmt.Errorf("%w: legal library search: %v", agent.ErrServiceUnavailable, err)
	}
	if len(passages) > timeout.RetrievalLimit {
		passages = passages[:timeout.RetrievalLimit]
	}
	slog.Debug("legal library search", "query", query, "results", len(passages))
	if len(passages) == 0 {
		return encode(retrievalOutput{Message: noDocsMessage})
	}
	return encode(retrievalOutput{Results: passages})
}

func encode(v any) (string, error) {
	out, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(out), nil
}
