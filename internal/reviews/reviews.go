package reviews

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/labstack/echo/v4"

	"github.com/hourbank-app/hourbank/internal/config"
	"github.com/hourbank-app/hourbank/internal/db"
	"github.com/hourbank-app/hourbank/internal/faults"
	"github.com/hourbank-app/hourbank/internal/user"
)

// duplicateReview reports whether an insert failed on the unique
// request_id constraint, as opposed to a dropped connection or some
// other violation.
func duplicateReview(err error) bool {
	return faults.KindOf(err) == faults.KindConflict
}

type Review struct {
	ID           string    `json:"id"`
	RequestID    string    `json:"request_id"`
	ServiceID    string    `json:"service_id"`
	ReviewerID   string    `json:"reviewer_id"`
	ReviewerName string    `json:"reviewer_name"`
	ProviderID   string    `json:"provider_id"`
	Rating       int       `json:"rating"`
	Comment      string    `json:"comment"`
	CreatedAt    time.Time `json:"created_at"`
}

type Handlers struct {
	Records *user.Records
	Budgets config.Timeouts
}

func NewHandlers(records *user.Records, cfg config.Config) *Handlers {
	return &Handlers{Records: records, Budgets: cfg.Timeouts}
}

type CreateReviewRequest struct {
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}

// Create lets the requester rate a completed request. The provider's
// average_rating is recomputed as the mean over all their reviews in
// the same transaction.
func (h *Handlers) Create(c echo.Context) error {
	uid, ok := c.Get("user_id").(string)
	if !ok || uid == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	reviewerName, _ := c.Get("name").(string)

	requestID := c.Param("id")
	if _, err := uuid.Parse(requestID); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request id"})
	}

	var req CreateReviewRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if req.Rating < 1 || req.Rating > 5 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "rating must be between 1 and 5"})
	}
	if len(req.Comment) > 1000 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "comment too long (max 1000 characters)"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.Budgets.Write)
	defer cancel()

	var serviceID, providerID, status string
	err := db.Conn.QueryRow(ctx,
		`SELECT service_id, provider_id, status FROM service_requests
         WHERE id = $1 AND requester_id = $2`,
		requestID, uid).Scan(&serviceID, &providerID, &status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "request not found or not yours"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch request"})
	}
	if status != "completed" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "can only review completed requests"})
	}

	tx, err := db.Conn.Begin(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "transaction start failed"})
	}
	defer tx.Rollback(ctx)

	review := Review{
		ID:           uuid.New().String(),
		RequestID:    requestID,
		ServiceID:    serviceID,
		ReviewerID:   uid,
		ReviewerName: reviewerName,
		ProviderID:   providerID,
		Rating:       req.Rating,
		Comment:      req.Comment,
		CreatedAt:    time.Now(),
	}

	_, err = tx.Exec(ctx, `
        INSERT INTO reviews (id, request_id, service_id, reviewer_id, reviewer_name,
                             provider_id, rating, comment, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		review.ID, review.RequestID, review.ServiceID, review.ReviewerID,
		review.ReviewerName, review.ProviderID, review.Rating, review.Comment,
		review.CreatedAt)
	if err != nil {
		if duplicateReview(err) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "review already exists for this request"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to store review"})
	}

	_, err = tx.Exec(ctx, `
        UPDATE users
        SET average_rating = (SELECT AVG(rating)::float FROM reviews WHERE provider_id = $1)
        WHERE id = $1`, providerID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update provider rating"})
	}

	if err := tx.Commit(ctx); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "commit failed"})
	}

	h.Records.Invalidate(providerID)

	return c.JSON(http.StatusCreated, review)
}

// ByProvider returns a provider's reviews with their rating summary.
func (h *Handlers) ByProvider(c echo.Context) error {
	providerID := c.Param("id")
	if providerID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "missing provider id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.Budgets.Query)
	defer cancel()

	var providerName string
	err := db.Conn.QueryRow(ctx,
		`SELECT name FROM users WHERE id = $1`, providerID).Scan(&providerName)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "provider not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch provider"})
	}

	var total int
	var average float64
	err = db.Conn.QueryRow(ctx,
		`SELECT COUNT(*), COALESCE(AVG(rating), 0) FROM reviews WHERE provider_id = $1`,
		providerID).Scan(&total, &average)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch rating summary"})
	}

	reviews, err := h.list(ctx, `provider_id`, providerID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch reviews"})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"provider_id":    providerID,
		"provider_name":  providerName,
		"total_reviews":  total,
		"average_rating": average,
		"reviews":        reviews,
	})
}

// ByService returns the reviews left on a specific service.
func (h *Handlers) ByService(c echo.Context) error {
	serviceID := c.Param("id")
	if _, err := uuid.Parse(serviceID); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid service id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.Budgets.Query)
	defer cancel()

	reviews, err := h.list(ctx, `service_id`, serviceID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch reviews"})
	}
	return c.JSON(http.StatusOK, echo.Map{"reviews": reviews})
}

func (h *Handlers) list(ctx context.Context, column, value string) ([]Review, error) {
	rows, err := db.Conn.Query(ctx, `
        SELECT id, request_id, service_id, reviewer_id, reviewer_name,
               provider_id, rating, comment, created_at
        FROM reviews WHERE `+column+` = $1
        ORDER BY created_at DESC`, value)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Review{}
	for rows.Next() {
		var r Review
		if err := rows.Scan(&r.ID, &r.RequestID, &r.ServiceID, &r.ReviewerID,
			&r.ReviewerName, &r.ProviderID, &r.Rating, &r.Comment, &r.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
