package agent

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test errors for retry logic
var (
	errNetwork   = errors.New("network error")
	errPermanent = errors.New("permanent error")
)

// mockTool implements Tool interface for testing.
type mockTool struct {
	name      string
	runFunc   func(ctx context.Context, input string) (string, error)
	callCount int32
}

func (m *mockTool) Name() string {
	return m.name
}

func (m *mockTool) Description() string {
	return "mock tool"
}

func (m *mockTool) Run(ctx context.Context, input string) (string, error) {
	atomic.AddInt32(&m.callCount, 1)
	return m.runFunc(ctx, input)
}

func (m *mockTool) CallCount() int {
	return int(atomic.LoadInt32(&m.callCount))
}

func TestResilientToolExecutor_Execute_Success(t *testing.T) {
	m := &recordingMetrics{}
	executor := NewResilientToolExecutor(m)

	tool := &mockTool{
		name: "test_tool",
		runFunc: func(ctx context.Context, input string) (string, error) {
			return "success", nil
		},
	}

	result, err := executor.Execute(context.Background(), tool, "test input")
	require.NoError(t, err)
	assert.Equal(t, "success", result)
	assert.Equal(t, 1, tool.CallCount())
	assert.Equal(t, []bool{true}, m.tools["test_tool"])
}

func TestResilientToolExecutor_Execute_RetryOnTransientError(t *testing.T) {
	executor := NewResilientToolExecutor(nil,
		WithMaxRetries(2),
		WithRetryDelay(10*time.Millisecond),
	)

	callCount := 0
	tool := &mockTool{
		name: "test_tool",
		runFunc: func(ctx context.Context, input string) (string, error) {
			callCount++
			if callCount < 3 {
				return "", errNetwork
			}
			return "success after retry", nil
		},
	}

	result, err := executor.Execute(context.Background(), tool, "test input")
	require.NoError(t, err)
	assert.Equal(t, "success after retry", result)
	assert.Equal(t, 3, callCount)
}

func TestResilientToolExecutor_Execute_NoRetryOnPermanentError(t *testing.T) {
	m := &recordingMetrics{}
	executor := NewResilientToolExecutor(m, WithRetryDelay(time.Millisecond))

	tool := &mockTool{
		name: "test_tool",
		runFunc: func(ctx context.Context, input string) (string, error) {
			return "", errPermanent
		},
	}

	_, err := executor.Execute(context.Background(), tool, "test input")
	assert.ErrorIs(t, err, errPermanent)
	assert.Equal(t, 1, tool.CallCount())
	assert.Equal(t, []bool{false}, m.tools["test_tool"])
}

func TestResilientToolExecutor_Execute_NoRetryOnInvalidInput(t *testing.T) {
	executor := NewResilientToolExecutor(nil, WithRetryDelay(time.Millisecond))
	tool := NewBaseTool("strict", "rejects blank input", func(ctx context.Context, input string) (string, error) {
		return "never", nil
	})

	_, err := executor.Execute(context.Background(), tool, "  ")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestResilientToolExecutor_Execute_FallbackOnFailure(t *testing.T) {
	executor := NewResilientToolExecutor(nil,
		WithFallbackRules(map[string]FallbackFunc{
			"test_tool": GenericFallback("fallback result"),
		}),
		WithMaxRetries(0),
	)

	tool := &mockTool{
		name: "test_tool",
		runFunc: func(ctx context.Context, input string) (string, error) {
			return "", errors.New("permanent failure")
		},
	}

	result, err := executor.Execute(context.Background(), tool, "test input")
	require.NoError(t, err)
	assert.Equal(t, "fallback result", result)
}

func TestResilientToolExecutor_Execute_Timeout(t *testing.T) {
	executor := NewResilientToolExecutor(nil,
		WithAttemptTimeout(50*time.Millisecond),
		WithRetryDelay(10*time.Millisecond),
		WithMaxRetries(1),
	)

	tool := &mockTool{
		name: "slow_tool",
		runFunc: func(ctx context.Context, input string) (string, error) {
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(200 * time.Millisecond):
				return "completed", nil
			}
		},
	}

	_, err := executor.Execute(context.Background(), tool, "test input")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	// original attempt plus one retry, deadline errors are retryable
	assert.Equal(t, 2, tool.CallCount())
}

func TestResilientToolExecutor_Execute_CanceledContext(t *testing.T) {
	executor := NewResilientToolExecutor(nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	tool := &mockTool{name: "t", runFunc: func(ctx context.Context, input string) (string, error) {
		return "unreachable", nil
	}}

	_, err := executor.Execute(ctx, tool, "x")
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, tool.CallCount())
}

func TestDefaultFallbackRules(t *testing.T) {
	rules := DefaultFallbackRules()
	require.Contains(t, rules, "retrieve_legal_info")
	require.Contains(t, rules, "search_web")

	out, err := rules["retrieve_legal_info"](context.Background(), nil, "", errNetwork)
	require.NoError(t, err)
	assert.JSONEq(t, `{"error": "network error"}`, out)

	out, err = rules["search_web"](context.Background(), nil, "", errNetwork)
	require.NoError(t, err)
	assert.Contains(t, out, "temporarily unavailable")
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		err  error
		want bool
	}{
		{ErrNetworkError, true},
		{ErrServiceUnavailable, true},
		{context.DeadlineExceeded, true},
		{errors.New("connection reset by peer"), true},
		{errors.New("unexpected EOF"), true},
		{context.Canceled, false},
		{ErrInvalidInput, false},
		{errPermanent, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, isRetryable(tt.err), tt.err.Error())
	}
}
