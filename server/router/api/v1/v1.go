package v1

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/hrygo/lexagent/internal/profile"
	"github.com/hrygo/lexagent/plugin/ai/agent"
	"github.com/hrygo/lexagent/plugin/ai/metrics"
	"github.com/hrygo/lexagent/plugin/ai/session"
	"github.com/hrygo/lexagent/plugin/drafter"
	aierrors "github.com/hrygo/lexagent/server/internal/errors"
)

// TurnRunner runs one conversational turn.
// Consumers: the chat handler.
type TurnRunner interface {
	RunTurn(ctx context.Context, sessionID, userMessage, userID string) (*agent.TurnResult, error)
	AppName() string
}

var _ TurnRunner = (*agent.TurnRunner)(nil)

type APIV1Service struct {
	Profile   *profile.Profile
	Runner    TurnRunner
	Sessions  session.Service
	Templates *drafter.TemplateStore
	Metrics   metrics.MetricsService
}

func NewAPIV1Service(profile *profile.Profile, runner TurnRunner, sessions session.Service, templates *drafter.TemplateStore, metricsService metrics.MetricsService) *APIV1Service {
	if metricsService == nil {
		metricsService = metrics.Nop{}
	}
	return &APIV1Service{
		Profile:   profile,
		Runner:    runner,
		Sessions:  sessions,
		Templates: templates,
		Metrics:   metricsService,
	}
}

// RegisterRoutes registers the chat surface at the root and the admin
// surface under /api/v1.
func (s *APIV1Service) RegisterRoutes(e *echo.Echo) {
	e.GET("/", s.Health)
	e.POST("/session", s.CreateSession)
	e.POST("/chat", s.Chat)
	if s.Profile != nil && s.Profile.OutputDir != "" {
		e.Static("/downloads", s.Profile.OutputDir)
	}

	g := e.Group("/api/v1")
	g.GET("/sessions", s.ListSessions)
	g.GET("/sessions/:id", s.GetSession)
	g.DELETE("/sessions/:id", s.DeleteSession)
	g.GET("/sessions/:id/transcript", s.GetTranscript)
	g.GET("/templates", s.ListTemplates)
	g.GET("/system/metrics/overview", s.GetMetricsOverview)
}

func (s *APIV1Service) appName() string {
	if s.Runner != nil {
		return s.Runner.AppName()
	}
	return profile.DefaultAppName
}

// errorResponse writes {"detail": message} with the status mapped from err.
func errorResponse(c echo.Context, err *aierrors.AIError) error {
	return c.JSON(err.HTTPStatus(), map[string]string{"detail": err.Detail()})
}

// Health reports liveness.
// GET /
func (s *APIV1Service) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok", "service": profile.DefaultAppName})
}
