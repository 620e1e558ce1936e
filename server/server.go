package server

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hrygo/lexagent/internal/profile"
	"github.com/hrygo/lexagent/plugin/ai/agent"
	"github.com/hrygo/lexagent/plugin/ai/metrics"
	"github.com/hrygo/lexagent/plugin/ai/session"
	"github.com/hrygo/lexagent/plugin/drafter"
	ratelimit "github.com/hrygo/lexagent/server/middleware"
	"github.com/hrygo/lexagent/server/internal/observability"
	apiv1 "github.com/hrygo/lexagent/server/router/api/v1"
	"github.com/hrygo/lexagent/store"
)

type Server struct {
	Profile  *profile.Profile
	Store    *store.Store
	Sessions session.Service
	Runner   *agent.TurnRunner

	echoServer *echo.Echo
	registry   *prometheus.Registry
	limiter    *ratelimit.RateLimiter
}

// Option customizes server construction.
type Option func(*options)

type options struct {
	source    agent.EventSource
	rateLimit ratelimit.RateLimitConfig
}

// WithEventSource replaces the LLM agent as the source of turn events.
func WithEventSource(source agent.EventSource) Option {
	return func(o *options) {
		o.source = source
	}
}

// WithRateLimit overrides the per-client request limits.
func WithRateLimit(cfg ratelimit.RateLimitConfig) Option {
	return func(o *options) {
		o.rateLimit = cfg
	}
}

func NewServer(ctx context.Context, profile *profile.Profile, store *store.Store, opts ...Option) (*Server, error) {
	o := &options{rateLimit: ratelimit.DefaultRateLimitConfig()}
	for _, opt := range opts {
		opt(o)
	}

	s := &Server{
		Profile:  profile,
		Store:    store,
		registry: prometheus.NewRegistry(),
		limiter:  ratelimit.NewRateLimiter(o.rateLimit),
	}
	s.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	var sessionOpts []session.Option
	if profile.StrictSessionDecode {
		sessionOpts = append(sessionOpts, session.WithCodec(session.Codec{Strict: true}))
	}
	s.Sessions = session.NewStore(store, sessionOpts...)

	turnMetrics, err := metrics.NewService(s.registry)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create turn metrics")
	}
	httpMetrics, err := observability.NewHTTPMetrics(s.registry)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create http metrics")
	}

	docDrafter := drafter.New(profile.TemplateDir, profile.OutputDir)
	if written, err := drafter.WriteDefaultTemplates(profile.TemplateDir, false); err != nil {
		slog.Warn("failed to install default templates", "dir", profile.TemplateDir, "error", err)
	} else if len(written) > 0 {
		slog.Info("installed default templates", "dir", profile.TemplateDir, "templates", written)
	}

	source := o.source
	if source == nil {
		llmAgent, err := newLegalAgent(ctx, profile, store, docDrafter, turnMetrics)
		if err != nil {
			return nil, err
		}
		source = llmAgent
	}
	s.Runner = agent.NewTurnRunner(s.Sessions, source,
		agent.WithAppName(profile.AppName),
		agent.WithMetrics(turnMetrics),
	)

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowHeaders: []string{"*"},
	}))
	e.Use(httpMetrics.Middleware())
	e.Use(s.limiter.Middleware())
	s.echoServer = e

	e.GET("/healthz", func(c echo.Context) error {
		return c.String(http.StatusOK, "Service ready.")
	})
	e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{})))

	apiV1Service := apiv1.NewAPIV1Service(profile, s.Runner, s.Sessions, docDrafter.Templates(), turnMetrics)
	apiV1Service.RegisterRoutes(e)

	return s, nil
}

// Handler exposes the HTTP surface.
func (s *Server) Handler() http.Handler {
	return s.echoServer
}

func (s *Server) Start(ctx context.Context) error {
	address := fmt.Sprintf("%s:%d", s.Profile.Addr, s.Profile.Port)
	listener, err := net.Listen("tcp", address)
	if err != nil {
		return errors.Wrap(err, "failed to listen")
	}

	s.echoServer.Listener = listener
	go func() {
		if err := s.echoServer.Start(address); err != nil && err != http.ErrServerClosed {
			slog.Error("failed to start echo server", "error", err)
		}
	}()
	return nil
}

func (s *Server) Shutdown(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	// Shutdown echo server.
	if err := s.echoServer.Shutdown(ctx); err != nil {
		slog.Error("failed to shutdown server", "error", err)
	}

	// Close database connection.
	if err := s.Store.Close(); err != nil {
		slog.Error("failed to close database", "error", err)
	}

	slog.Info("lexagent stopped properly")
}
