package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hrygo/lexagent/plugin/ai/agent"
	"github.com/hrygo/lexagent/plugin/drafter"
)

// DraftToolName is the name the model calls the drafting tool by.
const DraftToolName = "generate_legal_document"

// DraftInput is the argument object of generate_legal_document. The
// details may arrive as a JSON string or, from lenient models, as an
// object.
type DraftInput struct {
	DocType         string          `json:"doc_type"`
	UserDetailsJSON json.RawMessage `json:"user_details_json"`
}

// NewDraftTool fills a document template with the user's details.
func NewDraftTool(d *drafter.Drafter) agent.ToolWithSchema {
	return agent.NewNativeTool(
		DraftToolName,
		"Generate a legal document (notice, consumer_complaint, rti) by filling a template with the user's details. Use ONLY when the user explicitly asks to draft or create a document.",
		func(ctx context.Context, input string) (string, error) {
			var in DraftInput
			if err := json.Unmarshal([]byte(input), &in); err != nil {
				return fmt.Sprintf("Failed to generate document: invalid arguments: %v", err), nil
			}
			return d.Draft(in.DocType, detailsText(in.UserDetailsJSON)), nil
		},
		map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"doc_type": map[string]interface{}{
					"type":        "string",
					"description": "Template to use: notice, consumer_complaint or rti.",
				},
				"user_details_json": map[string]interface{}{
					"type":        "string",
					"description": "JSON object of template fields, e.g. {\"CLIENT_NAME\": \"...\", \"DATE\": \"...\"}.",
				},
			},
			"required": []string{"doc_type", "user_details_json"},
		},
	)
}

// detailsText unwraps a JSON string argument; anything else is passed on
// as raw JSON text.
func detailsText(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}
