package requests

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/labstack/echo/v4"

	"github.com/hourbank-app/hourbank/internal/alerts"
	"github.com/hourbank-app/hourbank/internal/config"
	"github.com/hourbank-app/hourbank/internal/db"
	"github.com/hourbank-app/hourbank/internal/user"
)

// Handlers serves the request lifecycle. Records is used to drop
// cached user records whose balances a settlement just changed.
type Handlers struct {
	Records *user.Records
	Budgets config.Timeouts
}

func NewHandlers(records *user.Records, cfg config.Config) *Handlers {
	return &Handlers{Records: records, Budgets: cfg.Timeouts}
}

type CreateRequestRequest struct {
	ServiceID string `json:"service_id"`
	Message   string `json:"message"`
}

// Create books an available service: the pending request and the
// service's booked status land in one transaction so neither exists
// without the other.
func (h *Handlers) Create(c echo.Context) error {
	uid, ok := c.Get("user_id").(string)
	if !ok || uid == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	requesterName, _ := c.Get("name").(string)

	var req CreateRequestRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if _, err := uuid.Parse(req.ServiceID); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid service id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.Budgets.Write)
	defer cancel()

	tx, err := db.Conn.Begin(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "transaction start failed"})
	}
	defer tx.Rollback(ctx)

	var providerID, svcStatus string
	err = tx.QueryRow(ctx,
		`SELECT provider_id, status FROM services WHERE id = $1 FOR UPDATE`,
		req.ServiceID).Scan(&providerID, &svcStatus)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "service not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch service"})
	}
	if providerID == uid {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "you cannot request your own service"})
	}
	if svcStatus != "available" {
		return c.JSON(http.StatusConflict, echo.Map{"error": "service is not available"})
	}

	request := ServiceRequest{
		ID:            uuid.New().String(),
		ServiceID:     req.ServiceID,
		RequesterID:   uid,
		RequesterName: requesterName,
		ProviderID:    providerID,
		Status:        StatusPending,
		Message:       req.Message,
		CreatedAt:     time.Now(),
		UpdatedAt:     time.Now(),
	}

	_, err = tx.Exec(ctx, `
        INSERT INTO service_requests (id, service_id, requester_id, requester_name,
                                      provider_id, status, message, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		request.ID, request.ServiceID, request.RequesterID, request.RequesterName,
		request.ProviderID, request.Status, request.Message, request.CreatedAt, request.UpdatedAt)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not create request"})
	}

	_, err = tx.Exec(ctx,
		`UPDATE services SET status = 'booked', updated_at = NOW() WHERE id = $1`,
		req.ServiceID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not book service"})
	}

	if err := tx.Commit(ctx); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "commit failed"})
	}

	// Tell the provider about the new request.
	var providerEmail string
	_ = db.Conn.QueryRow(c.Request().Context(),
		`SELECT email FROM users WHERE id = $1`, providerID).Scan(&providerEmail)
	if providerEmail != "" {
		_ = alerts.EnqueueRequestReceived(request.ID, uid, providerID, providerEmail, requesterName)
	}

	return c.JSON(http.StatusCreated, request)
}

// Accept moves a pending request to accepted. The service stays
// booked.
func (h *Handlers) Accept(c echo.Context) error {
	return h.transition(c, StatusAccepted)
}

// Reject declines a pending request and returns the service to the
// catalog.
func (h *Handlers) Reject(c echo.Context) error {
	return h.transition(c, StatusRejected)
}

func (h *Handlers) transition(c echo.Context, to string) error {
	uid, ok := c.Get("user_id").(string)
	if !ok || uid == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	requestID := c.Param("id")
	if _, err := uuid.Parse(requestID); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.Budgets.Write)
	defer cancel()

	tx, err := db.Conn.Begin(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "transaction start failed"})
	}
	defer tx.Rollback(ctx)

	var serviceID, status string
	err = tx.QueryRow(ctx,
		`SELECT service_id, status FROM service_requests
         WHERE id = $1 AND provider_id = $2 FOR UPDATE`,
		requestID, uid).Scan(&serviceID, &status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "request not found or not yours"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch request"})
	}
	if !CanTransition(status, to) {
		return c.JSON(http.StatusConflict, echo.Map{"error": "request is not pending", "status": status})
	}

	_, err = tx.Exec(ctx,
		`UPDATE service_requests SET status = $1, updated_at = NOW() WHERE id = $2`,
		to, requestID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update request"})
	}

	_, err = tx.Exec(ctx,
		`UPDATE services SET status = $1, updated_at = NOW() WHERE id = $2`,
		ServiceStatusFor(to), serviceID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update service"})
	}

	if err := tx.Commit(ctx); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "commit failed"})
	}

	if to == StatusAccepted {
		var requesterID, requesterEmail string
		_ = db.Conn.QueryRow(c.Request().Context(), `
            SELECT r.requester_id, u.email FROM service_requests r
            JOIN users u ON u.id = r.requester_id WHERE r.id = $1`,
			requestID).Scan(&requesterID, &requesterEmail)
		if requesterEmail != "" {
			_ = alerts.EnqueueRequestAccepted(requestID, requesterID, uid, requesterEmail)
		}
	}

	return c.JSON(http.StatusOK, echo.Map{"message": "request " + to})
}

// ListForUser returns requests where the caller is either side, each
// annotated with the role, newest first.
func (h *Handlers) ListForUser(c echo.Context) error {
	uid, ok := c.Get("user_id").(string)
	if !ok || uid == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.Budgets.Query)
	defer cancel()

	rows, err := db.Conn.Query(ctx, `
        SELECT id, service_id, requester_id, requester_name, provider_id,
               status, message, created_at, updated_at, completed_at,
               CASE WHEN requester_id = $1 THEN 'requester' ELSE 'provider' END AS role
        FROM service_requests
        WHERE requester_id = $1 OR provider_id = $1
        ORDER BY created_at DESC`, uid)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not fetch requests"})
	}
	defer rows.Close()

	out := []RequestWithRole{}
	for rows.Next() {
		var r RequestWithRole
		if err := rows.Scan(&r.ID, &r.ServiceID, &r.RequesterID, &r.RequesterName,
			&r.ProviderID, &r.Status, &r.Message, &r.CreatedAt, &r.UpdatedAt,
			&r.CompletedAt, &r.Role); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to parse request record"})
		}
		out = append(out, r)
	}

	return c.JSON(http.StatusOK, echo.Map{"requests": out})
}
