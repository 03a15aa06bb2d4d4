package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/carlospion/AvocadoLegal/models"
	"github.com/carlospion/AvocadoLegal/services"
)

// LawyerAuthMiddleware resolves a bearer JWT to a lawyer. Websocket clients
// cannot set headers, so the token may also arrive as a query parameter.
func LawyerAuthMiddleware(authService *services.AuthService) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get("Authorization")
			var tokenString string
			if authHeader != "" {
				parts := strings.Split(authHeader, " ")
				if len(parts) != 2 || parts[0] != "Bearer" {
					return c.JSON(http.StatusUnauthorized, map[string]string{
						"error": "invalid authorization header",
					})
				}
				tokenString = parts[1]
			} else {
				tokenString = c.QueryParam("token")
				if tokenString == "" {
					return c.JSON(http.StatusUnauthorized, map[string]string{
						"error": "missing authorization token",
					})
				}
				tokenString = strings.TrimSpace(strings.TrimPrefix(tokenString, "Bearer "))
			}

			claims, err := authService.ValidateToken(tokenString)
			if err != nil {
				return c.JSON(http.StatusUnauthorized, map[string]string{
					"error": "invalid token",
				})
			}
			var lawyer models.Lawyer
			if err := authService.Db.First(&lawyer, "id = ?", claims.LawyerID).Error; err != nil {
				return c.JSON(http.StatusNotFound, map[string]string{
					"error": "lawyer not found",
				})
			}

			c.Set("lawyer", &lawyer)
			return next(c)
		}
	}
}

// LawyerFrom pulls the authenticated lawyer out of the request context.
func LawyerFrom(c echo.Context) *models.Lawyer {
	lawyer, _ := c.Get("lawyer").(*models.Lawyer)
	return lawyer
}
