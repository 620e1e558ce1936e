package agent

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/hrygo/lexagent/plugin/ai/timeout"
)

// Tool is the interface for agent tools.
type Tool interface {
	// Name returns the name of the tool.
	Name() string

	// Description returns a description of what the tool does.
	Description() string

	// Run executes the tool with the given input.
	Run(ctx context.Context, input string) (string, error)
}

// BaseTool provides a reusable base implementation for tools.
type BaseTool struct {
	name        string
	description string
	execute     func(ctx context.Context, input string) (string, error)
	timeout     time.Duration
}

// ToolOption is a function that configures a BaseTool.
type ToolOption func(*BaseTool)

// WithTimeout sets a timeout for tool execution.
func WithTimeout(timeout time.Duration) ToolOption {
	return func(t *BaseTool) {
		t.timeout = timeout
	}
}

// NewBaseTool creates a new BaseTool.
//
// Example:
//
//	tool := NewBaseTool(
//	    "retrieve_legal_info",
//	    "Search the legal reference library",
//	    func(ctx context.Context, input string) (string, error) {
//	        return "result", nil
//	    },
//	    WithTimeout(30*time.Second),
//	)
func NewBaseTool(
	name string,
	description string,
	execute func(ctx context.Context, input string) (string, error),
	opts ...ToolOption,
) *BaseTool {
	tool := &BaseTool{
		name:        name,
		description: description,
		execute:     execute,
		timeout:     timeout.ToolExecutionTimeout,
	}

	for _, opt := range opts {
		opt(tool)
	}

	return tool
}

// Name returns the name of the tool.
func (t *BaseTool) Name() string {
	return t.name
}

// Description returns the description of the tool.
func (t *BaseTool) Description() string {
	return t.description
}

// Run executes the tool with validation and error handling.
func (t *BaseTool) Run(ctx context.Context, input string) (string, error) {
	if err := validateInput(input); err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	execCtx := ctx
	if t.timeout > 0 {
		var cancel context.CancelFunc
		execCtx, cancel = context.WithTimeout(ctx, t.timeout)
		defer cancel()
	}

	result, err := t.execute(execCtx, input)
	if err != nil {
		return "", fmt.Errorf("tool execution failed: %w", err)
	}

	if strings.TrimSpace(result) == "" {
		return "", fmt.Errorf("tool returned empty result")
	}

	return result, nil
}

// validateInput rejects blank input.
func validateInput(input string) error {
	if strings.TrimSpace(input) == "" {
		return fmt.Errorf("input cannot be empty")
	}
	return nil
}

// ToolRegistry manages a collection of tools.
type ToolRegistry struct {
	tools map[string]ToolWithSchema
}

// NewToolRegistry creates a new ToolRegistry.
func NewToolRegistry() *ToolRegistry {
	return &ToolRegistry{
		tools: make(map[string]ToolWithSchema),
	}
}

// Register adds a tool to the registry.
func (r *ToolRegistry) Register(tool ToolWithSchema) error {
	if tool == nil {
		return fmt.Errorf("tool cannot be nil")
	}
	name := tool.Name()
	if name == "" {
		return fmt.Errorf("tool name cannot be empty")
	}
	if _, exists := r.tools[name]; exists {
		return fmt.Errorf("tool %s already registered", name)
	}
	r.tools[name] = tool
	return nil
}

// Get retrieves a tool by name.
func (r *ToolRegistry) Get(name string) (ToolWithSchema, bool) {
	tool, exists := r.tools[name]
	return tool, exists
}

// List returns all registered tool names, sorted.
func (r *ToolRegistry) List() []string {
	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Tools returns the registered tools in name order.
func (r *ToolRegistry) Tools() []ToolWithSchema {
	names := r.List()
	tools := make([]ToolWithSchema, len(names))
	for i, name := range names {
		tools[i] = r.tools[name]
	}
	return tools
}
