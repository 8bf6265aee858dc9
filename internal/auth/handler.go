package auth

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/bcrypt"

	"github.com/hourbank-app/hourbank/internal/alerts"
	"github.com/hourbank-app/hourbank/internal/config"
	"github.com/hourbank-app/hourbank/internal/db"
	"github.com/hourbank-app/hourbank/internal/user"
)

// Handlers carries the pieces the auth routes need beyond the global
// pool: the record cache to invalidate and the signup policy numbers.
type Handlers struct {
	Records *user.Records
	Grant   int64
	AppURL  string
}

func NewHandlers(records *user.Records, cfg config.Config) *Handlers {
	return &Handlers{Records: records, Grant: cfg.InitialCreditGrant, AppURL: cfg.AppURL}
}

type SignupResponse struct {
	Message string `json:"message"`
	UserID  string `json:"user_id"`
}

// ===== Signup =====
func (h *Handlers) Signup(c echo.Context) error {
	req := new(SignupRequest)
	if err := c.Bind(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	// Malformed input never reaches the backend.
	if msg := ValidateSignup(*req); msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "server error"})
	}

	ctx := c.Request().Context()
	userID := uuid.New().String()
	name := strings.TrimSpace(req.Name)
	email := strings.ToLower(strings.TrimSpace(req.Email))

	// New members start with the initial credit grant.
	_, err = db.Conn.Exec(ctx, `
		INSERT INTO users (id, name, email, password, role, time_credits, created_at)
		VALUES ($1, $2, $3, $4, 'member', $5, $6)`,
		userID, name, email, string(hashed), h.Grant, time.Now())
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email already registered"})
	}

	if err := h.sendVerification(userID, email, name); err != nil {
		// Account exists; the member can ask for a resend.
		c.Logger().Warnf("could not enqueue verification email for %s: %v", userID, err)
	}

	return c.JSON(http.StatusCreated, SignupResponse{
		Message: "account created, check your email to verify your address",
		UserID:  userID,
	})
}

func (h *Handlers) sendVerification(userID, email, name string) error {
	token, err := signPurpose(userID, PurposeEmailVerify, 24*time.Hour)
	if err != nil {
		return err
	}
	verifyURL := fmt.Sprintf("%s/auth/verify-email?token=%s",
		strings.TrimRight(h.AppURL, "/"), url.QueryEscape(token))
	return alerts.EnqueueVerificationEmail(userID, email, name, verifyURL)
}

type ResendVerificationRequest struct {
	Email string `json:"email"`
}

// POST /auth/resend-verification
// Always responds with a generic message to avoid user enumeration.
func (h *Handlers) ResendVerification(c echo.Context) error {
	generic := echo.Map{"message": "If the email exists and is unverified, a new link has been sent."}

	req := new(ResendVerificationRequest)
	if err := c.Bind(req); err != nil || req.Email == "" {
		return c.JSON(http.StatusOK, generic)
	}

	var userID, name string
	var verified bool
	err := db.Conn.QueryRow(c.Request().Context(),
		`SELECT id, name, email_verified FROM users WHERE email = $1`,
		strings.ToLower(strings.TrimSpace(req.Email))).Scan(&userID, &name, &verified)
	if err != nil || verified {
		return c.JSON(http.StatusOK, generic)
	}

	if err := h.sendVerification(userID, req.Email, name); err != nil {
		c.Logger().Warnf("could not enqueue verification email for %s: %v", userID, err)
	}
	return c.JSON(http.StatusOK, generic)
}

type VerifyEmailRequest struct {
	Token string `json:"token" query:"token"`
}

// GET /auth/verify-email?token=...
// The token arrives as a query parameter from the emailed link, or in
// the body when a client drives the flow itself.
func (h *Handlers) VerifyEmail(c echo.Context) error {
	req := new(VerifyEmailRequest)
	if err := c.Bind(req); err != nil || req.Token == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "missing token"})
	}

	userID, err := parsePurpose(req.Token, PurposeEmailVerify)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": err.Error()})
	}

	ct, err := db.Conn.Exec(c.Request().Context(),
		`UPDATE users SET email_verified = TRUE WHERE id = $1`, userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to verify email"})
	}
	if ct.RowsAffected() == 0 {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
	}

	h.Records.Invalidate(userID)
	return c.JSON(http.StatusOK, echo.Map{"message": "email verified, you can sign in now"})
}

// DELETE /auth/account
func (h *Handlers) DeleteAccount(c echo.Context) error {
	userID, ok := c.Get("user_id").(string)
	if !ok || userID == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	// Listings, requests, reviews, and transactions cascade with the row.
	ct, err := db.Conn.Exec(c.Request().Context(), `DELETE FROM users WHERE id = $1`, userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to delete account"})
	}
	if ct.RowsAffected() == 0 {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
	}

	h.Records.Invalidate(userID)
	return c.JSON(http.StatusOK, echo.Map{"message": "account deleted"})
}
