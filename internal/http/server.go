// Package http provides the HTTP API for remedyd.
package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/fyrsmithlabs/remedyd/internal/config"
	"github.com/fyrsmithlabs/remedyd/internal/engine"
)

// Server exposes the remediation engine over HTTP: alert ingestion, the
// approval workflow, statistics, audit history and runtime controls.
type Server struct {
	echo    *echo.Echo
	engine  *engine.Engine
	logger  *zap.Logger
	config  *config.ServerConfig
	limiter *rate.Limiter
}

// NewServer creates the API server around a running engine.
func NewServer(eng *engine.Engine, logger *zap.Logger, cfg *config.ServerConfig) (*Server, error) {
	if eng == nil {
		return nil, fmt.Errorf("engine cannot be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required for request tracking and debugging")
	}
	if cfg == nil {
		cfg = &config.ServerConfig{
			Host:           "localhost",
			Port:           9482,
			AlertRateLimit: 50,
			AlertRateBurst: 100,
		}
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			duration := time.Since(start)

			logger.Info("http request",
				zap.String("method", c.Request().Method),
				zap.String("uri", c.Request().RequestURI),
				zap.Int("status", c.Response().Status),
				zap.Duration("duration", duration),
				zap.String("request_id", c.Response().Header().Get(echo.HeaderXRequestID)),
			)

			return err
		}
	})
	e.Use(NewHTTPMetrics(logger).MetricsMiddleware())

	s := &Server{
		echo:    e,
		engine:  eng,
		logger:  logger,
		config:  cfg,
		limiter: rate.NewLimiter(rate.Limit(cfg.AlertRateLimit), cfg.AlertRateBurst),
	}

	s.registerRoutes()

	return s, nil
}

// registerRoutes sets up the HTTP endpoints.
func (s *Server) registerRoutes() {
	s.echo.GET("/health", s.handleHealth)
	s.echo.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	// Alert ingestion shares one rate limiter across sources.
	s.echo.POST("/webhook/alertmanager", s.handleAlertmanager, s.alertRateLimit)

	v1 := s.echo.Group("/api/v1")
	v1.POST("/alerts", s.handleAlert, s.alertRateLimit)
	v1.GET("/approvals", s.handleListApprovals)
	v1.POST("/approvals/:id/approve", s.handleApprove)
	v1.POST("/approvals/:id/reject", s.handleReject)
	v1.GET("/statistics", s.handleStatistics)
	v1.GET("/history", s.handleHistory)
	v1.GET("/history/:id", s.handleHistoryByID)
	v1.GET("/mode", s.handleGetMode)
	v1.PUT("/mode", s.handleSetMode)
	v1.POST("/killswitch/enable", s.handleKillSwitchEnable)
	v1.POST("/killswitch/disable", s.handleKillSwitchDisable)
}

// alertRateLimit applies the shared ingestion rate limit.
func (s *Server) alertRateLimit(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if !s.limiter.Allow() {
			return echo.NewHTTPError(http.StatusTooManyRequests, "alert rate limit exceeded")
		}
		return next(c)
	}
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.logger.Info("starting http server", zap.String("addr", addr))
	return s.echo.Start(addr)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down http server")
	return s.echo.Shutdown(ctx)
}
