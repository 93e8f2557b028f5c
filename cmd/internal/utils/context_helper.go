package utils

import (
	"github.com/labstack/echo/v4"
	"github.com/labstack/gommon/log"
)

const CollectorKey = "collector"

// GetCollectorFromContext returns the token subject set by the auth
// middleware, or an empty string when authentication is disabled.
func GetCollectorFromContext(c echo.Context) string {
	val := c.Get(CollectorKey)
	if val == nil {
		return ""
	}

	collector, ok := val.(string)
	if !ok {
		log.Warnf("expected string at '%s' context key, got %T", CollectorKey, val)
		return ""
	}
	return collector
}
