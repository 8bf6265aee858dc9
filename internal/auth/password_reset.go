package auth

import (
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/bcrypt"

	"github.com/hourbank-app/hourbank/internal/alerts"
	"github.com/hourbank-app/hourbank/internal/db"
)

type RequestPasswordResetRequest struct {
	Email string `json:"email"`
}

type RequestPasswordResetResponse struct {
	Message string `json:"message"`
}

// POST /auth/password-reset/request
// Always responds with success message to avoid user enumeration.
func (h *Handlers) RequestPasswordReset(c echo.Context) error {
	generic := RequestPasswordResetResponse{Message: "If the email exists, a reset link has been sent."}

	req := new(RequestPasswordResetRequest)
	if err := c.Bind(req); err != nil || req.Email == "" {
		return c.JSON(http.StatusOK, generic)
	}

	var userID, name string
	err := db.Conn.QueryRow(c.Request().Context(),
		`SELECT id, name FROM users WHERE email = $1`,
		strings.ToLower(strings.TrimSpace(req.Email))).Scan(&userID, &name)
	if err != nil || userID == "" {
		return c.JSON(http.StatusOK, generic)
	}

	expiryMinutes := 30
	if v := os.Getenv("PASSWORD_RESET_EXP_MINUTES"); v != "" {
		if dur, parseErr := time.ParseDuration(v + "m"); parseErr == nil {
			expiryMinutes = int(dur.Minutes())
		}
	}
	signed, signErr := signPurpose(userID, PurposeReset, time.Duration(expiryMinutes)*time.Minute)
	if signErr != nil {
		return c.JSON(http.StatusOK, generic)
	}

	resetURL := fmt.Sprintf("%s/reset-password?token=%s",
		strings.TrimRight(h.AppURL, "/"), url.QueryEscape(signed))

	_ = alerts.EnqueuePasswordReset(userID, req.Email, resetURL, name)

	return c.JSON(http.StatusOK, generic)
}

type ResetPasswordRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"new_password"`
}

// POST /auth/password-reset/confirm
func (h *Handlers) ResetPassword(c echo.Context) error {
	req := new(ResetPasswordRequest)
	if err := c.Bind(req); err != nil || req.Token == "" || len(req.NewPassword) < MinPasswordLen {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	userID, err := parsePurpose(req.Token, PurposeReset)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": err.Error()})
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "server error"})
	}

	ct, err := db.Conn.Exec(c.Request().Context(),
		`UPDATE users SET password = $1 WHERE id = $2`, string(hashed), userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update password"})
	}
	if ct.RowsAffected() == 0 {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
	}

	return c.JSON(http.StatusOK, echo.Map{"message": "password updated successfully"})
}
