package middleware

import (
	"rastru/cmd/internal/utils"
	"rastru/cmd/internal/utils/apierror"

	"github.com/labstack/echo/v4"
	"github.com/labstack/gommon/log"
)

type AuthMiddlewareConfig struct {
	// Verifier is nil when authentication is disabled.
	Verifier *utils.TokenVerifier
}

// NewAuthMiddleware requires a valid collector token and exposes its
// subject to the handlers.
func NewAuthMiddleware(cfg *AuthMiddlewareConfig) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if cfg.Verifier == nil {
				return next(c)
			}

			if c.Request().Header.Get(echo.HeaderAuthorization) == "" {
				apierr := apierror.MissingTokenError
				return c.JSON(apierr.Code(), apierr)
			}

			tokenData, err := cfg.Verifier.ParseTokenDataCtx(c)
			if err != nil {
				log.Debugf("rejected token on %s: %v", c.Request().URL.Path, err)
				apierr := apierror.InvalidTokenError
				return c.JSON(apierr.Code(), apierr)
			}

			c.Set(utils.CollectorKey, tokenData.Sub)
			return next(c)
		}
	}
}
