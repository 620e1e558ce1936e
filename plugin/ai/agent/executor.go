package agent

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/hrygo/lexagent/plugin/ai/metrics"
	"github.com/hrygo/lexagent/plugin/ai/timeout"
)

// FallbackFunc produces a degraded tool result after all attempts failed.
type FallbackFunc func(ctx context.Context, tool Tool, input string, err error) (string, error)

// ResilientToolExecutor provides retry and fallback capabilities for tool execution.
type ResilientToolExecutor struct {
	maxRetries     int
	retryDelay     time.Duration
	timeout        time.Duration
	metricsService metrics.MetricsService
	fallbackRules  map[string]FallbackFunc
}

// ExecutorOption configures a ResilientToolExecutor.
type ExecutorOption func(*ResilientToolExecutor)

// WithMaxRetries sets the maximum number of retry attempts.
func WithMaxRetries(n int) ExecutorOption {
	return func(e *ResilientToolExecutor) {
		e.maxRetries = n
	}
}

// WithRetryDelay sets the delay between retry attempts.
func WithRetryDelay(d time.Duration) ExecutorOption {
	return func(e *ResilientToolExecutor) {
		e.retryDelay = d
	}
}

// WithAttemptTimeout sets the timeout for each execution attempt.
func WithAttemptTimeout(d time.Duration) ExecutorOption {
	return func(e *ResilientToolExecutor) {
		e.timeout = d
	}
}

// WithFallbackRules sets custom fallback rules. The map is copied.
func WithFallbackRules(rules map[string]FallbackFunc) ExecutorOption {
	return func(e *ResilientToolExecutor) {
		e.fallbackRules = make(map[string]FallbackFunc, len(rules))
		for k, v := range rules {
			e.fallbackRules[k] = v
		}
	}
}

// NewResilientToolExecutor creates a new ResilientToolExecutor with the given options.
func NewResilientToolExecutor(metricsService metrics.MetricsService, opts ...ExecutorOption) *ResilientToolExecutor {
	if metricsService == nil {
		metricsService = metrics.Nop{}
	}
	e := &ResilientToolExecutor{
		maxRetries:     1,
		retryDelay:     500 * time.Millisecond,
		timeout:        timeout.ToolExecutionTimeout,
		metricsService: metricsService,
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Execute runs the tool, retrying transient errors. When every attempt
// fails the tool's fallback rule, if any, supplies the result.
func (e *ResilientToolExecutor) Execute(ctx context.Context, tool Tool, input string) (string, error) {
	start := time.Now()
	var lastErr error
	toolName := tool.Name()

attemptsLoop:
	for attempt := 0; attempt <= e.maxRetries; attempt++ {
		if ctx.Err() != nil {
			lastErr = ctx.Err()
			break attemptsLoop
		}

		execCtx, cancel := context.WithTimeout(ctx, e.timeout)
		result, err := tool.Run(execCtx, input)
		cancel()

		if err == nil {
			e.metricsService.RecordToolCall(ctx, toolName, time.Since(start), true)
			slog.Debug("tool execution succeeded",
				slog.String("tool", toolName),
				slog.Int("attempt", attempt+1),
				slog.Duration("duration", time.Since(start)))
			return result, nil
		}

		lastErr = err
		slog.Warn("tool execution failed",
			slog.String("tool", toolName),
			slog.Int("attempt", attempt+1),
			slog.String("error", err.Error()))

		if !isRetryable(err) {
			break attemptsLoop
		}

		if attempt < e.maxRetries {
			select {
			case <-ctx.Done():
				lastErr = ctx.Err()
				break attemptsLoop
			case <-time.After(e.retryDelay):
			}
		}
	}

	e.metricsService.RecordToolCall(ctx, toolName, time.Since(start), false)

	if fallback, ok := e.fallbackRules[toolName]; ok {
		slog.Info("executing fallback strategy", slog.String("tool", toolName))
		return fallback(ctx, tool, input, lastErr)
	}

	return "", lastErr
}

// isRetryable determines if an error should trigger a retry.
func isRetryable(err error) bool {
	if errors.Is(err, ErrInvalidInput) || errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) || IsTransientError(err) {
		return true
	}

	errMsg := strings.ToLower(err.Error())
	for _, pattern := range []string{
		"network",
		"timeout",
		"connection",
		"unavailable",
		"temporary",
		"eof",
	} {
		if strings.Contains(errMsg, pattern) {
			return true
		}
	}
	return false
}
