// Package server exposes the consumer-facing API and the upstream passthrough
// proxies over a single Echo instance.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"BiasBoard/internal/market"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// Server wraps the Echo HTTP server.
type Server struct {
	echo *echo.Echo
	port int
	svc  *market.Service
	loc  *time.Location
	log  zerolog.Logger
}

// New builds the server and registers all routes.
func New(port int, svc *market.Service, proxy *Proxy, loc *time.Location, log zerolog.Logger) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	s := &Server{
		echo: e,
		port: port,
		svc:  svc,
		loc:  loc,
		log:  log,
	}

	api := e.Group("/api")
	api.GET("/markets", s.handleMarkets)
	api.GET("/markets/:symbol", s.handleMarket)
	api.POST("/refresh", s.handleRefresh)
	api.GET("/schedule", s.handleSchedule)

	if proxy != nil {
		proxy.RegisterRoutes(e)
	}

	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	return s
}

// Start listens in a goroutine; errors other than graceful close are logged.
func (s *Server) Start() {
	addr := fmt.Sprintf(":%d", s.port)
	go func() {
		s.log.Info().Str("addr", addr).Msg("http server listening")
		if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error().Err(err).Msg("http server error")
		}
	}()
}

// Stop shuts the server down gracefully.
func (s *Server) Stop(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

// Echo exposes the underlying instance for tests.
func (s *Server) Echo() *echo.Echo { return s.echo }
