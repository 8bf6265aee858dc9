package user

import (
	"errors"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/labstack/echo/v4"

	"github.com/hourbank-app/hourbank/internal/db"
)

// Handlers serves user profile routes over the cache-backed record
// layer.
type Handlers struct {
	Records *Records
}

func NewHandlers(records *Records) *Handlers {
	return &Handlers{Records: records}
}

// GET /user/:id/profile
func (h *Handlers) GetPublicProfile(c echo.Context) error {
	userID := c.Param("id")
	if userID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "missing user id"})
	}

	var (
		id, name, bio, location, skills string
		offered, received               int
		rating                          float64
		createdAt                       time.Time
	)
	err := db.Conn.QueryRow(c.Request().Context(), `
        SELECT id, name, bio, location, skills, services_offered,
               services_received, average_rating, created_at
        FROM users WHERE id = $1 AND is_active`, userID).
		Scan(&id, &name, &bio, &location, &skills, &offered, &received, &rating, &createdAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch user"})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"id":                id,
		"name":              name,
		"bio":               bio,
		"location":          location,
		"skills":            skills,
		"services_offered":  offered,
		"services_received": received,
		"average_rating":    rating,
		"created_at":        createdAt.Format(time.RFC3339),
	})
}

// GET /user/record serves the caller's full record via the read-through
// cache, degrading to session claims when the backend is unreachable.
func (h *Handlers) GetRecord(c echo.Context) error {
	claims := ClaimsFromContext(c)
	if claims == nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	u, err := h.Records.Get(c.Request().Context(), claims.UserID, claims)
	if err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "user record not found"})
	}
	return c.JSON(http.StatusOK, u)
}

type UpdateProfileRequest struct {
	Name     string `json:"name"`
	Bio      string `json:"bio"`
	Location string `json:"location"`
	Skills   string `json:"skills"`
}

// PATCH /user/profile
func (h *Handlers) UpdateProfile(c echo.Context) error {
	userID, ok := c.Get("user_id").(string)
	if !ok || userID == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid or missing token"})
	}

	var req UpdateProfileRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	query := `
		UPDATE users
		SET name = COALESCE(NULLIF($1, ''), name),
		    bio = COALESCE(NULLIF($2, ''), bio),
		    location = COALESCE(NULLIF($3, ''), location),
		    skills = COALESCE(NULLIF($4, ''), skills)
		WHERE id = $5
	`
	_, err := db.Conn.Exec(c.Request().Context(), query, req.Name, req.Bio, req.Location, req.Skills, userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update profile"})
	}

	h.Records.Invalidate(userID)

	return c.JSON(http.StatusOK, echo.Map{
		"message": "profile updated successfully",
	})
}

// ClaimsFromContext rebuilds session claims placed by the JWT
// middleware.
func ClaimsFromContext(c echo.Context) *Claims {
	uid, _ := c.Get("user_id").(string)
	if uid == "" {
		return nil
	}
	name, _ := c.Get("name").(string)
	email, _ := c.Get("email").(string)
	role, _ := c.Get("role").(string)
	return &Claims{UserID: uid, Name: name, Email: email, Role: role}
}
