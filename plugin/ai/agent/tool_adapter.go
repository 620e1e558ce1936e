package agent

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/hrygo/lexagent/plugin/ai"
)

// ToolWithSchema extends the Tool interface with a JSON Schema definition
// offered to the model.
type ToolWithSchema interface {
	Tool

	// Parameters returns the JSON Schema for the tool's input parameters.
	Parameters() map[string]interface{}
}

// NativeTool implements ToolWithSchema with direct function execution.
type NativeTool struct {
	Tool
	params map[string]interface{}
}

// NewNativeTool creates a new NativeTool.
func NewNativeTool(
	name string,
	description string,
	execute func(ctx context.Context, input string) (string, error),
	parameters map[string]interface{},
	opts ...ToolOption,
) ToolWithSchema {
	return &NativeTool{
		Tool:   NewBaseTool(name, description, execute, opts...),
		params: parameters,
	}
}

// Parameters returns the JSON Schema for parameters.
func (t *NativeTool) Parameters() map[string]interface{} {
	return t.params
}

// toolDescriptors converts tools to ai.ToolDescriptor format.
func toolDescriptors(tools []ToolWithSchema) []ai.ToolDescriptor {
	descriptors := make([]ai.ToolDescriptor, len(tools))
	for i, tool := range tools {
		paramsJSON, err := json.Marshal(tool.Parameters())
		if err != nil {
			slog.Warn("failed to marshal tool parameters, using empty schema",
				"tool", tool.Name(),
				"error", err)
			paramsJSON = []byte(`{"type":"object","properties":{}}`)
		}
		descriptors[i] = ai.ToolDescriptor{
			Name:        tool.Name(),
			Description: tool.Description(),
			Parameters:  string(paramsJSON),
		}
	}
	return descriptors
}
