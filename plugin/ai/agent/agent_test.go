package agent

import (
	"context"
	"errors"
	"iter"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/hrygo/lexagent/plugin/ai"
	"github.com/hrygo/lexagent/plugin/ai/session"
)

// MockLLM implements ai.LLMService for testing.
type MockLLM struct {
	mock.Mock
}

func (m *MockLLM) Chat(ctx context.Context, messages []ai.Message) (string, error) {
	args := m.Called(ctx, messages)
	return args.String(0), args.Error(1)
}

func (m *MockLLM) ChatWithTools(ctx context.Context, messages []ai.Message, tools []ai.ToolDescriptor) (*ai.ChatResponse, error) {
	args := m.Called(ctx, messages, tools)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ai.ChatResponse), args.Error(1)
}

// Helper to create a tool call response.
func mockToolCallResponse(toolName, args string, content string) *ai.ChatResponse {
	return &ai.ChatResponse{
		Content: content,
		ToolCalls: []ai.ToolCall{
			{
				ID:   "call_123",
				Type: "function",
				Function: ai.FunctionCall{
					Name:      toolName,
					Arguments: args,
				},
			},
		},
	}
}

// Helper to create a final answer response.
func mockFinalAnswer(answer string) *ai.ChatResponse {
	return &ai.ChatResponse{
		Content:   answer,
		ToolCalls: []ai.ToolCall{},
	}
}

func echoTool(name string, calls *[]string) ToolWithSchema {
	return NewNativeTool(name, "echoes its input",
		func(ctx context.Context, input string) (string, error) {
			*calls = append(*calls, input)
			return "echo: " + input, nil
		},
		map[string]interface{}{
			"type":       "object",
			"properties": map[string]interface{}{"query": map[string]interface{}{"type": "string"}},
		})
}

func userSession(text string) *session.Session {
	return &session.Session{
		ID: "s1",
		Events: []*session.Event{{
			ID:           "u1",
			Author:       session.AuthorUser,
			InvocationID: "e-1",
			Content:      []session.Part{session.TextPart(text)},
		}},
	}
}

func collect(t *testing.T, seq iter.Seq2[*session.Event, error]) ([]*session.Event, error) {
	t.Helper()
	var events []*session.Event
	for ev, err := range seq {
		if err != nil {
			return events, err
		}
		events = append(events, ev)
	}
	return events, nil
}

func TestLLMAgent_ToolCallThenAnswer(t *testing.T) {
	mockLLM := new(MockLLM)
	var calls []string

	mockLLM.On("ChatWithTools", mock.Anything, mock.Anything, mock.Anything).
		Return(mockToolCallResponse("retrieve_legal_info", `{"query": "theft"}`, "Checking the Acts."), nil).
		Once()
	mockLLM.On("ChatWithTools", mock.Anything, mock.MatchedBy(func(msgs []ai.Message) bool {
		last := msgs[len(msgs)-1]
		return last.Role == "tool" && last.ToolCallID == "call_123" && strings.Contains(last.Content, "echo:")
	}), mock.Anything).
		Return(mockFinalAnswer("Theft is covered by Section 303 BNS."), nil).
		Once()

	a, err := NewLLMAgent(mockLLM, AgentConfig{}, []ToolWithSchema{echoTool("retrieve_legal_info", &calls)}, nil)
	require.NoError(t, err)

	events, err := collect(t, a.Run(context.Background(), userSession("What is theft?"), "e-1"))
	require.NoError(t, err)
	require.Len(t, events, 3)

	assert.Equal(t, session.AuthorAgent, events[0].Author)
	assert.Equal(t, "Checking the Acts.", events[0].Text())
	fcs := events[0].FunctionCalls()
	require.Len(t, fcs, 1)
	assert.Equal(t, "retrieve_legal_info", fcs[0].Name)
	assert.Equal(t, "call_123", fcs[0].ID)

	assert.Equal(t, session.AuthorTool, events[1].Author)
	require.NotNil(t, events[1].Content[0].FunctionResponse)
	assert.Equal(t, `echo: {"query": "theft"}`, events[1].Content[0].FunctionResponse.Response)

	assert.True(t, events[2].Final)
	assert.Equal(t, "Theft is covered by Section 303 BNS.", events[2].Text())
	for _, ev := range events {
		assert.Equal(t, "e-1", ev.InvocationID)
		assert.NotEmpty(t, ev.ID)
	}

	assert.Equal(t, []string{`{"query": "theft"}`}, calls)
	mockLLM.AssertExpectations(t)
}

func TestLLMAgent_SystemPromptAndTools(t *testing.T) {
	mockLLM := new(MockLLM)
	var calls []string

	mockLLM.On("ChatWithTools", mock.Anything,
		mock.MatchedBy(func(msgs []ai.Message) bool {
			return len(msgs) == 2 &&
				msgs[0].Role == "system" &&
				strings.Contains(msgs[0].Content, "14 March 2025") &&
				msgs[1].Role == "user" && msgs[1].Content == "hello"
		}),
		mock.MatchedBy(func(tools []ai.ToolDescriptor) bool {
			return len(tools) == 1 && tools[0].Name == "search_web" && strings.Contains(tools[0].Parameters, `"query"`)
		})).
		Return(mockFinalAnswer("Hi."), nil).
		Once()

	a, err := NewLLMAgent(mockLLM, AgentConfig{}, []ToolWithSchema{echoTool("search_web", &calls)}, nil)
	require.NoError(t, err)
	a.now = func() time.Time { return time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC) }

	events, err := collect(t, a.Run(context.Background(), userSession("hello"), "e-1"))
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, []string{"search_web"}, a.Tools())
	mockLLM.AssertExpectations(t)
}

func TestLLMAgent_UnknownTool(t *testing.T) {
	mockLLM := new(MockLLM)
	mockLLM.On("ChatWithTools", mock.Anything, mock.Anything, mock.Anything).
		Return(mockToolCallResponse("summon_judge", `{}`, ""), nil).
		Once()
	mockLLM.On("ChatWithTools", mock.Anything, mock.Anything, mock.Anything).
		Return(mockFinalAnswer("I can not do that."), nil).
		Once()

	a, err := NewLLMAgent(mockLLM, AgentConfig{}, nil, nil)
	require.NoError(t, err)

	events, err := collect(t, a.Run(context.Background(), userSession("go"), "e-1"))
	require.NoError(t, err)
	require.Len(t, events, 3)
	assert.Empty(t, events[0].Text())
	assert.Equal(t, "Error: tool not found: summon_judge", events[1].Content[0].FunctionResponse.Response)
}

func TestLLMAgent_ToolErrorBecomesResult(t *testing.T) {
	mockLLM := new(MockLLM)
	mockLLM.On("ChatWithTools", mock.Anything, mock.Anything, mock.Anything).
		Return(mockToolCallResponse("broken", `{"a":1}`, ""), nil).
		Once()
	mockLLM.On("ChatWithTools", mock.Anything, mock.Anything, mock.Anything).
		Return(mockFinalAnswer("done"), nil).
		Once()

	broken := NewNativeTool("broken", "always fails",
		func(ctx context.Context, input string) (string, error) {
			return "", errors.New("bad request")
		}, map[string]interface{}{"type": "object"})

	a, err := NewLLMAgent(mockLLM, AgentConfig{}, []ToolWithSchema{broken}, NewResilientToolExecutor(nil, WithMaxRetries(0)))
	require.NoError(t, err)

	events, err := collect(t, a.Run(context.Background(), userSession("go"), "e-1"))
	require.NoError(t, err)
	require.Len(t, events, 3)
	resp := events[1].Content[0].FunctionResponse.Response
	assert.True(t, strings.HasPrefix(resp, "Error: "), resp)
	assert.Contains(t, resp, "bad request")
}

func TestLLMAgent_LLMError(t *testing.T) {
	mockLLM := new(MockLLM)
	mockLLM.On("ChatWithTools", mock.Anything, mock.Anything, mock.Anything).
		Return(nil, errors.New("rate limited")).
		Once()

	a, err := NewLLMAgent(mockLLM, AgentConfig{}, nil, nil)
	require.NoError(t, err)

	events, err := collect(t, a.Run(context.Background(), userSession("go"), "e-1"))
	require.Error(t, err)
	assert.Empty(t, events)
	assert.Contains(t, err.Error(), "LLM call failed (iteration 1)")
	assert.Contains(t, err.Error(), "rate limited")
}

func TestLLMAgent_StopsWhenConsumerStops(t *testing.T) {
	mockLLM := new(MockLLM)
	var calls []string
	mockLLM.On("ChatWithTools", mock.Anything, mock.Anything, mock.Anything).
		Return(mockToolCallResponse("lookup", `{"q":"x"}`, ""), nil)

	a, err := NewLLMAgent(mockLLM, AgentConfig{}, []ToolWithSchema{echoTool("lookup", &calls)}, nil)
	require.NoError(t, err)

	n := 0
	for _, err := range a.Run(context.Background(), userSession("loop"), "e-1") {
		require.NoError(t, err)
		n++
		if n == 5 {
			break
		}
	}
	assert.Equal(t, 5, n)
	// two calls and two tool runs produce five events before the break
	mockLLM.AssertNumberOfCalls(t, "ChatWithTools", 3)
	assert.Len(t, calls, 2)
}

func TestNewLLMAgent_Validation(t *testing.T) {
	_, err := NewLLMAgent(nil, AgentConfig{}, nil, nil)
	assert.Error(t, err)

	var calls []string
	_, err = NewLLMAgent(new(MockLLM), AgentConfig{}, []ToolWithSchema{echoTool("dup", &calls), echoTool("dup", &calls)}, nil)
	assert.Error(t, err)
}

func TestRepairArguments(t *testing.T) {
	assert.Equal(t, "{}", repairArguments("t", "  "))
	assert.Equal(t, `{"a": 1}`, repairArguments("t", `{"a": 1}`))

	fixed := repairArguments("t", `{'doc_type': 'notice',}`)
	assert.JSONEq(t, `{"doc_type": "notice"}`, fixed)
}
