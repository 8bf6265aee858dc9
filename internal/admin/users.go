package admin

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/hourbank-app/hourbank/internal/db"
)

type AdminUser struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Email         string    `json:"email"`
	Role          string    `json:"role"`
	TimeCredits   int64     `json:"time_credits"`
	EmailVerified bool      `json:"email_verified"`
	IsActive      bool      `json:"is_active"`
	CreatedAt     time.Time `json:"created_at"`
}

// GET /admin/users
func ListUsers(c echo.Context) error {
	rows, err := db.Conn.Query(context.Background(), `
        SELECT id, name, email, role, time_credits, email_verified, is_active, created_at
        FROM users ORDER BY created_at DESC`)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not fetch users"})
	}
	defer rows.Close()

	var users []AdminUser
	for rows.Next() {
		var u AdminUser
		if err := rows.Scan(&u.ID, &u.Name, &u.Email, &u.Role, &u.TimeCredits,
			&u.EmailVerified, &u.IsActive, &u.CreatedAt); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to read user record"})
		}
		users = append(users, u)
	}
	return c.JSON(http.StatusOK, echo.Map{"users": users})
}

// POST /admin/users/:id/suspend
func SuspendUser(c echo.Context) error {
	userID := c.Param("id")
	if userID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "user id required"})
	}
	_, err := db.Conn.Exec(context.Background(), `UPDATE users SET is_active = FALSE WHERE id = $1`, userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to suspend user"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "user suspended", "user_id": userID})
}

// POST /admin/users/:id/activate
func ActivateUser(c echo.Context) error {
	userID := c.Param("id")
	if userID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "user id required"})
	}
	_, err := db.Conn.Exec(context.Background(), `UPDATE users SET is_active = TRUE WHERE id = $1`, userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to activate user"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "user activated", "user_id": userID})
}
