package v1

import (
	"log/slog"
	"net/http"
	"sort"

	"github.com/labstack/echo/v4"

	"github.com/hrygo/lexagent/plugin/ai/session"
	"github.com/hrygo/lexagent/store"
	aierrors "github.com/hrygo/lexagent/server/internal/errors"
)

// SessionSummary describes a stored session without its events.
type SessionSummary struct {
	ID         string `json:"id"`
	UserID     string `json:"user_id"`
	EventCount int    `json:"event_count"`
	CreatedTs  int64  `json:"created_ts"`
	UpdatedTs  int64  `json:"updated_ts"`
}

// ListSessionsResponse is the reply to GET /api/v1/sessions.
type ListSessionsResponse struct {
	Sessions []SessionSummary `json:"sessions"`
}

// ListSessions lists every stored session, most recently updated first.
// GET /api/v1/sessions
func (s *APIV1Service) ListSessions(c echo.Context) error {
	ctx := c.Request().Context()
	ids, err := s.Sessions.List(ctx, s.appName(), "")
	if err != nil {
		return errorResponse(c, aierrors.StorageFailed("list sessions", err))
	}

	out := ListSessionsResponse{Sessions: []SessionSummary{}}
	for _, id := range ids {
		sess, err := s.Sessions.Get(ctx, s.appName(), "", id)
		if err != nil || sess == nil {
			slog.Warn("skipping unreadable session", "session_id", id, "error", err)
			continue
		}
		out.Sessions = append(out.Sessions, summarize(sess))
	}
	sort.SliceStable(out.Sessions, func(i, j int) bool {
		return out.Sessions[i].UpdatedTs > out.Sessions[j].UpdatedTs
	})
	return c.JSON(http.StatusOK, out)
}

// GetSession returns a session with its full event log.
// GET /api/v1/sessions/:id
func (s *APIV1Service) GetSession(c echo.Context) error {
	sess, aiErr := s.loadSession(c)
	if aiErr != nil {
		return errorResponse(c, aiErr)
	}
	return c.JSON(http.StatusOK, sess)
}

// DeleteSession removes a session.
// DELETE /api/v1/sessions/:id
func (s *APIV1Service) DeleteSession(c echo.Context) error {
	id := c.Param("id")
	if err := store.ValidateSessionID(id); err != nil {
		return errorResponse(c, aierrors.InvalidArgument(err.Error()))
	}
	if err := s.Sessions.Delete(c.Request().Context(), s.appName(), "", id); err != nil {
		return errorResponse(c, aierrors.StorageFailed("delete session", err))
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *APIV1Service) loadSession(c echo.Context) (*session.Session, *aierrors.AIError) {
	id := c.Param("id")
	if err := store.ValidateSessionID(id); err != nil {
		return nil, aierrors.InvalidArgument(err.Error())
	}
	sess, err := s.Sessions.Get(c.Request().Context(), s.appName(), "", id)
	if err != nil {
		return nil, aierrors.StorageFailed("load session", err)
	}
	if sess == nil {
		return nil, aierrors.NotFound("session not found: " + id)
	}
	return sess, nil
}

func summarize(sess *session.Session) SessionSummary {
	return SessionSummary{
		ID:         sess.ID,
		UserID:     sess.UserID,
		EventCount: len(sess.Events),
		CreatedTs:  sess.CreatedTs,
		UpdatedTs:  sess.UpdatedTs,
	}
}

// ListTemplates lists the installed document templates.
// GET /api/v1/templates
func (s *APIV1Service) ListTemplates(c echo.Context) error {
	if s.Templates == nil {
		return c.JSON(http.StatusOK, map[string][]string{"templates": {}})
	}
	names, err := s.Templates.List()
	if err != nil {
		return errorResponse(c, aierrors.ServiceUnavailable(err.Error()))
	}
	if names == nil {
		names = []string{}
	}
	return c.JSON(http.StatusOK, map[string][]string{"templates": names})
}
