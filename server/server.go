// Package server exposes a [projfs.Backend] as the JSON HTTP API used by the
// browser UI and by remote clients.
package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/brettbedarf/projfs"
	"github.com/brettbedarf/projfs/config"
	"github.com/brettbedarf/projfs/internal/metrics"
	"github.com/brettbedarf/projfs/internal/util"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

// Route prefixes. Both serve the same handlers.
var apiPrefixes = []string{"/api", "/api/fs"}

// Server holds the HTTP API dependencies.
type Server struct {
	echo    *echo.Echo
	backend projfs.Backend
	cfg     *config.Config
	logger  util.Logger
}

// New creates a server with all routes configured. Every backend call is
// counted and timed.
func New(cfg *config.Config, backend projfs.Backend) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.StdLogger = util.NewLogLogger("Echo", util.WarnLevel)
	e.Server.ErrorLog = util.NewLogLogger("HTTPServer", util.WarnLevel)

	s := &Server{
		echo:    e,
		backend: metrics.Instrument(backend),
		cfg:     cfg,
		logger:  util.GetLogger("Server"),
	}
	e.HTTPErrorHandler = s.handleHTTPError

	// Global middleware
	e.Use(middleware.Recover())
	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{Generator: uuid.NewString}))
	e.Use(requestLogger())
	e.Use(metrics.EchoMiddleware())

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})
	e.GET("/metrics", echo.WrapHandler(metrics.Handler()))

	for _, prefix := range apiPrefixes {
		api := e.Group(prefix)
		api.GET("/list", s.list)
		api.POST("/create", s.create)
	}

	return s
}

// Handler returns the root handler, for tests and embedding
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Start listens on addr and blocks until the server stops. A graceful
// [Server.Shutdown] returns nil.
func (s *Server) Start(addr string) error {
	s.logger.Info().Str("addr", addr).Str("root", s.cfg.Root).Msg("Serving project")
	if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting connections and waits for in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

// requestLogger logs one line per request through zerolog
func requestLogger() echo.MiddlewareFunc {
	logger := util.GetLogger("HTTP")
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		LogValuesFunc: func(_ echo.Context, v middleware.RequestLoggerValues) error {
			evt := logger.Debug()
			if v.Status >= http.StatusInternalServerError {
				evt = logger.Error().Err(v.Error)
			}
			evt.Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("request_id", v.RequestID).
				Msg("Request")
			return nil
		},
	})
}
