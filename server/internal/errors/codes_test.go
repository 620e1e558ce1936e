package errors

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/hrygo/lexagent/plugin/ai"
)

func TestAIError_Error(t *testing.T) {
	cause := stderrors.New("disk full")
	err := StorageFailed("save session", cause)

	assert.Equal(t, "[STORAGE_FAILED] save session: disk full", err.Error())
	assert.Equal(t, "disk full", err.Detail())
	assert.ErrorIs(t, err, cause)

	assert.Equal(t, "[INVALID_ARGUMENT] message is required", InvalidArgument("message is required").Error())
	assert.Equal(t, "message is required", InvalidArgument("message is required").Detail())
}

func TestAIError_HTTPStatus(t *testing.T) {
	tests := []struct {
		err  *AIError
		want int
	}{
		{InvalidArgument("x"), http.StatusBadRequest},
		{NotFound("x"), http.StatusNotFound},
		{RateLimitExceeded("x"), http.StatusTooManyRequests},
		{AgentExecutionFailed("x", nil), http.StatusInternalServerError},
		{LLMUnavailable("x", nil), http.StatusInternalServerError},
		{ServiceUnavailable("x"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(string(tt.err.Code), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.HTTPStatus())
		})
	}
}

func TestFromTurnError(t *testing.T) {
	assert.Equal(t, ErrCodeContextCanceled, FromTurnError(fmt.Errorf("turn: %w", context.Canceled)).Code)
	assert.Equal(t, ErrCodeTimeout, FromTurnError(context.DeadlineExceeded).Code)
	assert.Equal(t, ErrCodeAgentExecutionFailed, FromTurnError(stderrors.New("LLM call failed")).Code)

	wrapped := fmt.Errorf("outer: %w", NotFound("session"))
	assert.Equal(t, ErrCodeNotFound, FromTurnError(wrapped).Code)
}

func TestFromTurnError_LLMUnavailable(t *testing.T) {
	cause := fmt.Errorf("LLM call failed (iteration 1): %w: failed to complete chat: %w",
		ai.ErrLLMUnavailable, stderrors.New("status 502"))

	aiErr := FromTurnError(cause)
	assert.Equal(t, ErrCodeLLMUnavailable, aiErr.Code)
	assert.Equal(t, http.StatusInternalServerError, aiErr.HTTPStatus())
	assert.Equal(t, cause.Error(), aiErr.Detail())
	assert.ErrorIs(t, aiErr, ai.ErrLLMUnavailable)
}
