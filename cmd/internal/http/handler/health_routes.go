package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/gommon/log"
)

type HealthRoute struct {
	ping       func() error
	lookupMode string
}

func NewHealthRoute(ping func() error, lookupMode string) *HealthRoute {
	return &HealthRoute{ping: ping, lookupMode: lookupMode}
}

// Check backs the Docker Compose healthcheck.
func (h *HealthRoute) Check(c echo.Context) error {
	resp := echo.Map{"status": "OK", "database": "OK", "lookup_mode": h.lookupMode}

	if err := h.ping(); err != nil {
		log.Errorf("health check failed to ping database: %v", err)
		resp["status"] = "DEGRADED"
		resp["database"] = "UNAVAILABLE"
		return c.JSON(http.StatusServiceUnavailable, &resp)
	}
	return c.JSON(http.StatusOK, &resp)
}
