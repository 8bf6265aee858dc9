package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// AdminGuard keeps the stats, moderation, and ledger routes admin-only.
// It runs after JWTMiddleware, which stores the role claim on the
// context.
func AdminGuard(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		role, ok := c.Get("role").(string)
		if !ok || role != "admin" {
			return c.JSON(http.StatusForbidden, echo.Map{"error": "admin access required"})
		}
		return next(c)
	}
}
