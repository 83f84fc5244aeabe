// Package http serves the diagnostics endpoints of a running chat session:
// health probes and the Prometheus scrape target.
package http

import (
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/avachat/chat-widget/internal/core/ports"
	"github.com/avachat/chat-widget/internal/infrastructure/http/handlers"
)

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(storage ports.TokenStore, session ports.SessionReader) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())

	healthHandler := handlers.NewHealthHandler()
	readinessHandler := handlers.NewReadinessHandler(storage, session)

	e.GET("/health", healthHandler.Liveness)
	e.GET("/health/ready", readinessHandler.Readiness)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	return e
}
