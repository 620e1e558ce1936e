package v1

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/hrygo/lexagent/plugin/ai/agent"
	aierrors "github.com/hrygo/lexagent/server/internal/errors"
	"github.com/hrygo/lexagent/server/internal/observability"
)

// ChatRequest is the body of POST /chat.
type ChatRequest struct {
	Message   string `json:"message"`
	SessionID string `json:"session_id,omitempty"`
	UserID    string `json:"user_id,omitempty"`
}

// ChatResponse is the reply to POST /chat. Filename is null when the
// reply names no generated document.
type ChatResponse struct {
	Response  string  `json:"response"`
	Filename  *string `json:"filename"`
	SessionID string  `json:"session_id"`
}

// SessionResponse is the reply to POST /session.
type SessionResponse struct {
	SessionID string `json:"session_id"`
}

// CreateSession starts an empty session for the default user.
// POST /session
func (s *APIV1Service) CreateSession(c echo.Context) error {
	id, err := s.Sessions.Create(c.Request().Context(), s.appName(), agent.DefaultUserID)
	if err != nil {
		slog.Error("failed to create session", "error", err)
		return errorResponse(c, aierrors.StorageFailed("create session", err))
	}
	return c.JSON(http.StatusOK, SessionResponse{SessionID: id})
}

// Chat runs one turn and reports the reply and any generated document.
// POST /chat
func (s *APIV1Service) Chat(c echo.Context) error {
	var req ChatRequest
	if err := c.Bind(&req); err != nil {
		return errorResponse(c, aierrors.InvalidArgument("invalid request body"))
	}
	if strings.TrimSpace(req.Message) == "" {
		return errorResponse(c, aierrors.InvalidArgument("message is required"))
	}
	if req.UserID == "" {
		req.UserID = agent.DefaultUserID
	}

	requestID := c.Response().Header().Get(echo.HeaderXRequestID)
	rc := observability.NewRequestContextWithID(slog.Default(), requestID, req.UserID, req.SessionID)
	ctx := observability.WithRequestContext(c.Request().Context(), rc)
	rc.Info("chat request", slog.Int(observability.LogFieldMessageLen, len(req.Message)))

	result, err := s.Runner.RunTurn(ctx, req.SessionID, req.Message, req.UserID)
	if err != nil {
		if errors.Is(err, agent.ErrEmptyMessage) {
			return errorResponse(c, aierrors.InvalidArgument("message is required"))
		}
		aiErr := aierrors.FromTurnError(err)
		rc.Error("chat failed", err,
			slog.String(observability.LogFieldErrorCode, string(aiErr.Code)),
			slog.Int64(observability.LogFieldDuration, rc.DurationMs()))
		// turn failures surface as 500 with the bare message
		return c.JSON(http.StatusInternalServerError, map[string]string{"detail": aiErr.Detail()})
	}

	rc.SetSessionID(result.SessionID)
	resp := ChatResponse{Response: result.Reply, SessionID: result.SessionID}
	if name, ok := agent.ExtractArtifactReference(result.Reply); ok {
		resp.Filename = &name
	}
	rc.Info("chat completed",
		slog.String("state", string(result.State)),
		slog.Int(observability.LogFieldIteration, result.EventCount),
		slog.Int64(observability.LogFieldDuration, rc.DurationMs()))
	return c.JSON(http.StatusOK, resp)
}
