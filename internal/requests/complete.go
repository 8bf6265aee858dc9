package requests

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/labstack/echo/v4"

	"github.com/hourbank-app/hourbank/internal/alerts"
	"github.com/hourbank-app/hourbank/internal/db"
	"github.com/hourbank-app/hourbank/internal/faults"
)

// settleStore is the slice of a pgx transaction the settlement needs,
// kept narrow so tests can stand in for it.
type settleStore interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
}

// settlement records what one completed exchange moved.
type settlement struct {
	ServiceID   string
	RequesterID string
	Hours       int64
}

// settle moves an accepted request to completed and transfers its
// credits: the provider earns the service's hours_required, the
// requester pays them, both counters move, and a credit/debit pair is
// recorded. The first status update doubles as a compare-and-swap,
// only one caller can move accepted to completed, so credits can never
// settle twice. All statements run on the same transaction the caller
// owns.
func settle(ctx context.Context, tx settleStore, requestID, providerID string, now time.Time) (settlement, error) {
	var s settlement

	// CAS guard: claim the request before touching any balance.
	err := tx.QueryRow(ctx, `
        UPDATE service_requests
        SET status = 'completed', updated_at = NOW(), completed_at = NOW()
        WHERE id = $1 AND provider_id = $2 AND status = 'accepted'
        RETURNING service_id, requester_id`,
		requestID, providerID).Scan(&s.ServiceID, &s.RequesterID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Either not yours, or not in a completable state (already
			// completed included).
			return s, faults.New(faults.KindConflict, "requests.settle", "request cannot be completed")
		}
		return s, faults.Wrap("requests.settle", err)
	}

	err = tx.QueryRow(ctx,
		`UPDATE services SET status = 'completed', updated_at = NOW()
         WHERE id = $1 RETURNING hours_required`, s.ServiceID).Scan(&s.Hours)
	if err != nil {
		return s, faults.Wrap("requests.settle", err)
	}

	// Provider earns, requester pays; both by exactly hours.
	if _, err := tx.Exec(ctx, `
        UPDATE users SET time_credits = time_credits + $1,
                         services_offered = services_offered + 1
        WHERE id = $2`, s.Hours, providerID); err != nil {
		return s, faults.Wrap("requests.settle", err)
	}
	if _, err := tx.Exec(ctx, `
        UPDATE users SET time_credits = time_credits - $1,
                         services_received = services_received + 1
        WHERE id = $2`, s.Hours, s.RequesterID); err != nil {
		return s, faults.Wrap("requests.settle", err)
	}

	if _, err := tx.Exec(ctx, `
        INSERT INTO credit_transactions (id, user_id, amount, type, reference, created_at)
        VALUES ($1, $2, $3, 'credit', $4, $5), ($6, $7, $8, 'debit', $9, $10)`,
		uuid.New().String(), providerID, s.Hours, requestID, now,
		uuid.New().String(), s.RequesterID, s.Hours, requestID, now); err != nil {
		return s, faults.Wrap("requests.settle", err)
	}

	return s, nil
}

// Complete settles an accepted request in one transaction; see settle.
func (h *Handlers) Complete(c echo.Context) error {
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

	s, err := settle(ctx, tx, requestID, uid, time.Now())
	if err != nil {
		if faults.KindOf(err) == faults.KindConflict {
			return c.JSON(http.StatusConflict, echo.Map{"error": "request cannot be completed"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "settlement failed"})
	}

	if err := tx.Commit(ctx); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "commit failed"})
	}

	// Cached balances are now wrong on both sides.
	h.Records.Invalidate(uid)
	h.Records.Invalidate(s.RequesterID)

	var requesterEmail string
	_ = db.Conn.QueryRow(context.Background(),
		`SELECT email FROM users WHERE id = $1`, s.RequesterID).Scan(&requesterEmail)
	if requesterEmail != "" {
		_ = alerts.EnqueueRequestCompleted(requestID, s.RequesterID, uid, requesterEmail, s.Hours)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"message":           "request completed, credits transferred",
		"hours_transferred": s.Hours,
	})
}
