package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// TokenHolder reports the access token currently cached by a client.
type TokenHolder interface {
	Token() string
}

// HealthHandler provides health and readiness endpoints.
type HealthHandler struct {
	tokens TokenHolder
}

// NewHealthHandler creates a new HealthHandler.
func NewHealthHandler(t TokenHolder) *HealthHandler {
	return &HealthHandler{tokens: t}
}

// Healthz returns 200 if the process is running.
func (*HealthHandler) Healthz(c echo.Context) error {
	return c.JSON(http.StatusOK, StatusResponse{Status: "ok"})
}

// Readyz returns 200 once the gateway holds an access token for its shop and
// 503 while it is still waiting for the app to be installed.
func (h *HealthHandler) Readyz(c echo.Context) error {
	if h.tokens.Token() == "" {
		return c.JSON(
			http.StatusServiceUnavailable,
			StatusResponse{Status: "awaiting_install"},
		)
	}
	return c.JSON(http.StatusOK, StatusResponse{Status: "ready"})
}
