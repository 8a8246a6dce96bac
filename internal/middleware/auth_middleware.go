package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

// TokenAuth requires "Authorization: Bearer <token>" on every route except /health.
// An empty token rejects every protected request.
func TokenAuth(token string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			// Skip for public routes
			if c.Request().URL.Path == "/health" {
				return next(c)
			}

			presented, ok := bearerToken(c.Request().Header.Get(echo.HeaderAuthorization))
			if !ok || token == "" || subtle.ConstantTimeCompare([]byte(presented), []byte(token)) != 1 {
				c.Response().Header().Set(echo.HeaderWWWAuthenticate, `Bearer realm="ironsync"`)
				return c.JSON(http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
			}

			return next(c)
		}
	}
}

func bearerToken(header string) (string, bool) {
	scheme, value, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	value = strings.TrimSpace(value)
	return value, value != ""
}
