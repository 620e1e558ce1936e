// Package agent runs bounded, tool-augmented conversational turns for the
// legal assistant.
package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"strings"
	"time"

	"github.com/kaptinlin/jsonrepair"
	"github.com/lithammer/shortuuid/v4"

	"github.com/hrygo/lexagent/plugin/ai"
	"github.com/hrygo/lexagent/plugin/ai/session"
	"github.com/hrygo/lexagent/plugin/ai/timeout"
)

// EventSource produces the events of one turn. The session passed in
// already holds the user message; sources must not modify it. Iteration
// may be abandoned by the consumer at any point.
type EventSource interface {
	Run(ctx context.Context, sess *session.Session, invocationID string) iter.Seq2[*session.Event, error]
}

// AgentConfig holds configuration for creating a new LLMAgent.
type AgentConfig struct {
	// Name identifies this agent in logs.
	Name string

	// Prompt is the versioned system instruction.
	Prompt *PromptConfig

	// HistoryTokens bounds the history sent per request; 0 uses the default.
	HistoryTokens int
}

// LLMAgent is an EventSource backed by a tool-calling completion service.
// Each model response that requests tools becomes an agent event carrying
// the calls, followed by one tool event per executed call; a response
// without tool calls becomes the final event.
type LLMAgent struct {
	llm      ai.LLMService
	config   AgentConfig
	registry *ToolRegistry
	executor *ResilientToolExecutor
	now      func() time.Time
}

// NewLLMAgent creates a new LLMAgent. A nil executor gets the defaults.
func NewLLMAgent(llm ai.LLMService, config AgentConfig, tools []ToolWithSchema, executor *ResilientToolExecutor) (*LLMAgent, error) {
	if llm == nil {
		return nil, errors.New("llm service is required")
	}
	if config.Name == "" {
		config.Name = "legal_agent"
	}
	if config.Prompt == nil {
		config.Prompt = NewLegalPrompt()
	}
	if config.HistoryTokens <= 0 {
		config.HistoryTokens = DefaultHistoryTokens
	}
	if executor == nil {
		executor = NewResilientToolExecutor(nil)
	}

	registry := NewToolRegistry()
	for _, tool := range tools {
		if err := registry.Register(tool); err != nil {
			return nil, err
		}
	}

	return &LLMAgent{
		llm:      llm,
		config:   config,
		registry: registry,
		executor: executor,
		now:      time.Now,
	}, nil
}

// Tools returns the names of the registered tools.
func (a *LLMAgent) Tools() []string {
	return a.registry.List()
}

// Run implements EventSource.
func (a *LLMAgent) Run(ctx context.Context, sess *session.Session, invocationID string) iter.Seq2[*session.Event, error] {
	return func(yield func(*session.Event, error) bool) {
		messages := []ai.Message{ai.SystemPrompt(a.config.Prompt.SystemPrompt(a.now().Format("2 January 2006")))}
		messages = append(messages, buildHistory(sess.Events, a.config.HistoryTokens)...)
		descriptors := toolDescriptors(a.registry.Tools())

		for iteration := 1; ; iteration++ {
			llmCtx, cancel := context.WithTimeout(ctx, timeout.LLMRequestTimeout)
			resp, err := a.llm.ChatWithTools(llmCtx, messages, descriptors)
			cancel()
			if err != nil {
				yield(nil, fmt.Errorf("LLM call failed (iteration %d): %w", iteration, err))
				return
			}

			if len(resp.ToolCalls) == 0 {
				answer := a.newEvent(invocationID, session.AuthorAgent, session.TextPart(resp.Content))
				answer.Final = true
				yield(answer, nil)
				return
			}

			callEvent := a.newEvent(invocationID, session.AuthorAgent)
			if resp.Content != "" {
				callEvent.Content = append(callEvent.Content, session.TextPart(resp.Content))
			}
			for _, tc := range resp.ToolCalls {
				id := tc.ID
				if id == "" {
					id = "call_" + shortuuid.New()
				}
				callEvent.Content = append(callEvent.Content, session.Part{FunctionCall: &session.FunctionCall{
					ID:   id,
					Name: tc.Function.Name,
					Args: repairArguments(tc.Function.Name, tc.Function.Arguments),
				}})
			}
			if !yield(callEvent, nil) {
				return
			}
			messages = append(messages, eventMessages(callEvent)...)

			for _, call := range callEvent.FunctionCalls() {
				slog.Info("agent tool call",
					"agent", a.config.Name,
					"tool", call.Name,
					"iteration", iteration,
					"args", truncateString(call.Args, timeout.MaxTruncateLength))

				result := a.executeTool(ctx, call.Name, call.Args)
				resultEvent := a.newEvent(invocationID, session.AuthorTool, session.Part{
					FunctionResponse: &session.FunctionResponse{ID: call.ID, Name: call.Name, Response: result},
				})
				if !yield(resultEvent, nil) {
					return
				}
				messages = append(messages, ai.ToolMessage(call.ID, result))
			}
		}
	}
}

// executeTool runs a tool by name. Failures become the tool's result text
// so the model can react to them.
func (a *LLMAgent) executeTool(ctx context.Context, name, input string) string {
	tool, ok := a.registry.Get(name)
	if !ok {
		return fmt.Sprintf("Error: %v: %s", ErrToolNotFound, name)
	}
	result, err := a.executor.Execute(ctx, tool, input)
	if err != nil {
		return fmt.Sprintf("Error: %v", err)
	}
	return result
}

func (a *LLMAgent) newEvent(invocationID string, author session.Author, parts ...session.Part) *session.Event {
	return &session.Event{
		ID:           shortuuid.New(),
		Author:       author,
		InvocationID: invocationID,
		Content:      parts,
		Timestamp:    a.now().Unix(),
	}
}

// repairArguments returns args as valid JSON object text when possible.
func repairArguments(tool, args string) string {
	trimmed := strings.TrimSpace(args)
	if trimmed == "" {
		return "{}"
	}
	if json.Valid([]byte(trimmed)) {
		return trimmed
	}
	fixed, err := jsonrepair.JSONRepair(trimmed)
	if err != nil || !json.Valid([]byte(fixed)) {
		slog.Warn("tool arguments are not valid JSON", "tool", tool, "args", truncateString(args, timeout.MaxTruncateLength))
		return args
	}
	slog.Debug("repaired tool arguments", "tool", tool)
	return fixed
}
