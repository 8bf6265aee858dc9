package credits

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/hourbank-app/hourbank/internal/config"
	"github.com/hourbank-app/hourbank/internal/db"
	"github.com/hourbank-app/hourbank/internal/faults"
	"github.com/hourbank-app/hourbank/internal/user"
)

// Transaction is one side of a settled exchange: the provider's row is
// a credit, the requester's a debit, both referencing the request that
// settled them.
type Transaction struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Amount    int64     `json:"amount"`
	Type      string    `json:"type"` // credit | debit
	Reference string    `json:"reference"`
	CreatedAt time.Time `json:"created_at"`
}

type Handlers struct {
	Records *user.Records
	Budgets config.Timeouts
}

func NewHandlers(records *user.Records, cfg config.Config) *Handlers {
	return &Handlers{Records: records, Budgets: cfg.Timeouts}
}

// Balance reads the caller's credit balance through the cached record
// layer, so a flaky backend still answers with the last known value.
func (h *Handlers) Balance(c echo.Context) error {
	claims := user.ClaimsFromContext(c)
	if claims == nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	u, err := h.Records.Get(c.Request().Context(), claims.UserID, claims)
	if err != nil {
		if faults.KindOf(err) == faults.KindNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not fetch balance"})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"user_id":           u.ID,
		"time_credits":      u.TimeCredits,
		"services_offered":  u.ServicesOffered,
		"services_received": u.ServicesReceived,
	})
}

// History returns the caller's credit transactions, newest first.
func (h *Handlers) History(c echo.Context) error {
	uid, ok := c.Get("user_id").(string)
	if !ok || uid == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.Budgets.Query)
	defer cancel()

	rows, err := db.Conn.Query(ctx, `
        SELECT id, user_id, amount, type, reference, created_at
        FROM credit_transactions
        WHERE user_id = $1
        ORDER BY created_at DESC`, uid)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not fetch transactions"})
	}
	defer rows.Close()

	txs := []Transaction{}
	for rows.Next() {
		var t Transaction
		if err := rows.Scan(&t.ID, &t.UserID, &t.Amount, &t.Type, &t.Reference, &t.CreatedAt); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "scan error"})
		}
		txs = append(txs, t)
	}

	return c.JSON(http.StatusOK, echo.Map{"transactions": txs})
}

// AdminListAll returns every credit transaction in the system, for the
// admin transactions screen.
func (h *Handlers) AdminListAll(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), h.Budgets.Query)
	defer cancel()

	rows, err := db.Conn.Query(ctx, `
        SELECT t.id, t.user_id, t.amount, t.type, t.reference, t.created_at, u.name, u.email
        FROM credit_transactions t
        JOIN users u ON u.id = t.user_id
        ORDER BY t.created_at DESC
        LIMIT 500`)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not fetch transactions"})
	}
	defer rows.Close()

	type adminRow struct {
		Transaction
		UserName  string `json:"user_name"`
		UserEmail string `json:"user_email"`
	}

	txs := []adminRow{}
	for rows.Next() {
		var t adminRow
		if err := rows.Scan(&t.ID, &t.UserID, &t.Amount, &t.Type, &t.Reference,
			&t.CreatedAt, &t.UserName, &t.UserEmail); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "scan error"})
		}
		txs = append(txs, t)
	}

	return c.JSON(http.StatusOK, echo.Map{"transactions": txs})
}
