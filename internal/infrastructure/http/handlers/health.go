package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/avachat/chat-widget/internal/core/ports"
)

// HealthHandler handles GET /health: liveness probe.
type HealthHandler struct{}

func NewHealthHandler() *HealthHandler {
	return &HealthHandler{}
}

func (h *HealthHandler) Liveness(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status": "ok",
	})
}

// Pinger is implemented by token stores backed by a network service.
type Pinger interface {
	Ping(ctx context.Context) error
}

// ReadinessHandler handles GET /health/ready. The widget is ready when its
// client storage answers and a session is active.
type ReadinessHandler struct {
	storage ports.TokenStore
	session ports.SessionReader
}

func NewReadinessHandler(storage ports.TokenStore, session ports.SessionReader) *ReadinessHandler {
	return &ReadinessHandler{storage: storage, session: session}
}

type dependencyStatus struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

type readinessResponse struct {
	Status       string                      `json:"status"`
	Dependencies map[string]dependencyStatus `json:"dependencies"`
}

func (h *ReadinessHandler) Readiness(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 3*time.Second)
	defer cancel()

	deps := make(map[string]dependencyStatus)
	healthy := true

	// Local stores have nothing to ping.
	if p, ok := h.storage.(Pinger); ok {
		if err := p.Ping(ctx); err != nil {
			deps["storage"] = dependencyStatus{Status: "unhealthy", Error: err.Error()}
			healthy = false
		} else {
			deps["storage"] = dependencyStatus{Status: "ok"}
		}
	} else {
		deps["storage"] = dependencyStatus{Status: "ok"}
	}

	if h.session.Snapshot().Authenticated {
		deps["session"] = dependencyStatus{Status: "ok"}
	} else {
		deps["session"] = dependencyStatus{Status: "unhealthy", Error: "not signed in"}
		healthy = false
	}

	status := "ok"
	httpStatus := http.StatusOK
	if !healthy {
		status = "degraded"
		httpStatus = http.StatusServiceUnavailable
	}

	return c.JSON(httpStatus, readinessResponse{
		Status:       status,
		Dependencies: deps,
	})
}
