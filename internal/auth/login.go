package auth

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/bcrypt"

	"github.com/hourbank-app/hourbank/internal/db"
)

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Token string `json:"token"`
}

// ===== Login =====
func (h *Handlers) Login(c echo.Context) error {
	req := new(LoginRequest)
	if err := c.Bind(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if req.Email == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email and password are required"})
	}

	var (
		userID, name, email, password, role string
		verified, isActive                  bool
	)
	err := db.Conn.QueryRow(c.Request().Context(), `
        SELECT id, name, email, password, role, email_verified, is_active
        FROM users WHERE email = $1`,
		strings.ToLower(strings.TrimSpace(req.Email))).
		Scan(&userID, &name, &email, &password, &role, &verified, &isActive)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}

	if err := bcrypt.CompareHashAndPassword([]byte(password), []byte(req.Password)); err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}
	if !isActive {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "account suspended"})
	}

	// Unverified accounts are rejected with a machine-readable code so
	// the client can offer a resend instead of a generic failure.
	if !verified {
		return c.JSON(http.StatusForbidden, echo.Map{
			"error": "email not verified, check your inbox for the verification link",
			"code":  "email_not_verified",
		})
	}

	signed, err := signSession(userID, name, email, role)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "token generation failed"})
	}

	return c.JSON(http.StatusOK, LoginResponse{Token: signed})
}
