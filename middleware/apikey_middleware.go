package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/carlospion/AvocadoLegal/limiter"
	"github.com/carlospion/AvocadoLegal/models"
	"github.com/carlospion/AvocadoLegal/services"
)

// APIKeyMiddleware authenticates tenant platforms. The credential travels as
// "Authorization: Api-Key <key>"; failures are a generic denial so callers
// cannot probe which keys exist.
func APIKeyMiddleware(platformService *services.PlatformService) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get("Authorization")
			var apiKey string
			if authHeader != "" {
				parts := strings.SplitN(authHeader, " ", 2)
				if len(parts) != 2 || !strings.EqualFold(parts[0], "Api-Key") {
					return c.JSON(http.StatusUnauthorized, map[string]string{
						"error": "invalid authorization header",
					})
				}
				apiKey = parts[1]
			} else {
				apiKey = c.QueryParam("api_key")
				if apiKey == "" {
					return c.JSON(http.StatusUnauthorized, map[string]string{
						"error": "missing api key",
					})
				}
			}

			platform, err := platformService.Authenticate(apiKey)
			if err != nil {
				if errors.Is(err, services.ErrInvalidAPIKey) {
					return c.JSON(http.StatusUnauthorized, map[string]string{
						"error": "invalid api key",
					})
				}
				return c.JSON(http.StatusInternalServerError, map[string]string{
					"error": "authentication failed",
				})
			}

			c.Set("platform", platform)
			return next(c)
		}
	}
}

// PlatformFrom pulls the authenticated tenant out of the request context.
func PlatformFrom(c echo.Context) *models.Platform {
	platform, _ := c.Get("platform").(*models.Platform)
	return platform
}

type RateLimitConfig struct {
	Limit   int
	Window  time.Duration
	KeyFunc func(c echo.Context) string
}

// NewRateLimitMiddleware throttles per caller key; on Redis failure it fails
// open so a cache outage cannot take the API down.
func NewRateLimitMiddleware(manager *limiter.Manager, config RateLimitConfig) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key := config.KeyFunc(c)
			if key == "" {
				key = c.RealIP()
			}
			redisKey := fmt.Sprintf("limiter:%s", key)
			allowed, err := manager.Allow(c.Request().Context(), redisKey, config.Limit, config.Window)
			if err != nil {
				c.Logger().Errorf("Rate limit redis error: %v", err)
				return next(c)
			}

			if !allowed {
				return c.JSON(http.StatusTooManyRequests, map[string]string{
					"code": "429",
					"msg":  "Too Many Requests",
				})
			}
			return next(c)
		}
	}
}
