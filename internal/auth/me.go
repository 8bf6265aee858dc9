package auth

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/hourbank-app/hourbank/internal/user"
)

// Me returns the currently authenticated user's record through the
// cache layer, so a flaky backend still yields a usable answer.
func (h *Handlers) Me(c echo.Context) error {
	claims := user.ClaimsFromContext(c)
	if claims == nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	u, err := h.Records.Get(c.Request().Context(), claims.UserID, claims)
	if err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"id":             u.ID,
		"name":           u.Name,
		"email":          u.Email,
		"role":           u.Role,
		"time_credits":   u.TimeCredits,
		"email_verified": u.EmailVerified,
	})
}
