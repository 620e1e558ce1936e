package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newFakeOpenAI serves /chat/completions and /embeddings with canned bodies.
func newFakeOpenAI(t *testing.T, chat func(req map[string]any) (int, string)) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		w.Header().Set("Content-Type", "application/json")

		switch r.URL.Path {
		case "/chat/completions":
			status, body := chat(req)
			w.WriteHeader(status)
			w.Write([]byte(body))
		case "/embeddings":
			w.Write([]byte(`{"object":"list","data":[
				{"object":"embedding","index":1,"embedding":[0,1]},
				{"object":"embedding","index":0,"embedding":[1,0]}
			],"model":"m"}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestLLMService_ChatWithTools(t *testing.T) {
	var seen map[string]any
	srv := newFakeOpenAI(t, func(req map[string]any) (int, string) {
		seen = req
		return http.StatusOK, `{"id":"x","object":"chat.completion","choices":[{"index":0,"message":{
			"role":"assistant","content":"",
			"tool_calls":[{"id":"call_1","type":"function","function":{"name":"search_web","arguments":"{\"query\":\"RTI Act\"}"}}]
		},"finish_reason":"tool_calls"}]}`
	})

	svc, err := NewLLMService(&LLMConfig{Model: "test-model", APIKey: "k", BaseURL: srv.URL, MaxRetries: 1})
	require.NoError(t, err)

	resp, err := svc.ChatWithTools(context.Background(),
		[]Message{SystemPrompt("sys"), UserMessage("hi")},
		[]ToolDescriptor{{Name: "search_web", Description: "search", Parameters: `{"type":"object","properties":{"query":{"type":"string"}}}`}},
	)
	require.NoError(t, err)
	require.Len(t, resp.ToolCalls, 1)
	assert.Equal(t, "call_1", resp.ToolCalls[0].ID)
	assert.Equal(t, "search_web", resp.ToolCalls[0].Function.Name)
	assert.JSONEq(t, `{"query":"RTI Act"}`, resp.ToolCalls[0].Function.Arguments)

	assert.Equal(t, "test-model", seen["model"])
	tools, ok := seen["tools"].([]any)
	require.True(t, ok)
	assert.Len(t, tools, 1)
}

func TestLLMService_ToolMessagesRoundTrip(t *testing.T) {
	var seen map[string]any
	srv := newFakeOpenAI(t, func(req map[string]any) (int, string) {
		seen = req
		return http.StatusOK, `{"choices":[{"index":0,"message":{"role":"assistant","content":"answer"}}]}`
	})

	svc, err := NewLLMService(&LLMConfig{Model: "m", BaseURL: srv.URL, MaxRetries: 1})
	require.NoError(t, err)

	history := []Message{
		UserMessage("q"),
		{Role: "assistant", ToolCalls: []ToolCall{{ID: "c1", Function: FunctionCall{Name: "t", Arguments: "{}"}}}},
		ToolMessage("c1", "result"),
	}
	out, err := svc.Chat(context.Background(), history)
	require.NoError(t, err)
	assert.Equal(t, "answer", out)

	msgs := seen["messages"].([]any)
	require.Len(t, msgs, 3)
	toolMsg := msgs[2].(map[string]any)
	assert.Equal(t, "tool", toolMsg["role"])
	assert.Equal(t, "c1", toolMsg["tool_call_id"])
}

func TestLLMService_RetriesThenFails(t *testing.T) {
	var calls atomic.Int32
	srv := newFakeOpenAI(t, func(req map[string]any) (int, string) {
		calls.Add(1)
		return http.StatusBadRequest, `{"error":{"message":"bad","type":"invalid_request_error"}}`
	})

	svc, err := NewLLMService(&LLMConfig{Model: "m", BaseURL: srv.URL, MaxRetries: 2})
	require.NoError(t, err)

	_, err = svc.Chat(context.Background(), []Message{UserMessage("q")})
	assert.ErrorIs(t, err, ErrLLMUnavailable)
	assert.Equal(t, int32(2), calls.Load())
}

func TestLLMService_CanceledIsNotUnavailable(t *testing.T) {
	srv := newFakeOpenAI(t, func(req map[string]any) (int, string) {
		return http.StatusOK, `{"choices":[{"index":0,"message":{"role":"assistant","content":"late"}}]}`
	})

	svc, err := NewLLMService(&LLMConfig{Model: "m", BaseURL: srv.URL, MaxRetries: 1})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = svc.Chat(ctx, []Message{UserMessage("q")})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, ErrLLMUnavailable)
}

func TestNewLLMService_RequiresModel(t *testing.T) {
	_, err := NewLLMService(&LLMConfig{})
	assert.Error(t, err)
}

func TestEmbeddingService_OrdersByIndex(t *testing.T) {
	srv := newFakeOpenAI(t, nil)

	svc, err := NewEmbeddingService(&EmbeddingConfig{Model: "m", BaseURL: srv.URL})
	require.NoError(t, err)

	vectors, err := svc.EmbedBatch(context.Background(), []string{"a", "b"})
	require.NoError(t, err)
	assert.Equal(t, [][]float32{{1, 0}, {0, 1}}, vectors)
	assert.Equal(t, "m", svc.Model())

	_, err = svc.EmbedBatch(context.Background(), nil)
	assert.Error(t, err)
}

func TestConfig_Validate(t *testing.T) {
	assert.NoError(t, (&Config{}).Validate())
	assert.Error(t, (&Config{Enabled: true}).Validate())
	assert.NoError(t, (&Config{
		Enabled:   true,
		LLM:       LLMConfig{APIKey: "k", Model: "m"},
		Embedding: EmbeddingConfig{Model: "e"},
	}).Validate())
}
