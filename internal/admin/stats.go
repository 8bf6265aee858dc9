package admin

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/hourbank-app/hourbank/internal/db"
)

// GET /admin/stats
func Stats(c echo.Context) error {
	ctx := context.Background()

	var users, services, requests, reviews int
	var circulating int64

	_ = db.Conn.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&users)
	_ = db.Conn.QueryRow(ctx, `SELECT COUNT(*) FROM services`).Scan(&services)
	_ = db.Conn.QueryRow(ctx, `SELECT COUNT(*) FROM service_requests`).Scan(&requests)
	_ = db.Conn.QueryRow(ctx, `SELECT COUNT(*) FROM reviews`).Scan(&reviews)
	_ = db.Conn.QueryRow(ctx, `SELECT COALESCE(SUM(time_credits), 0) FROM users`).Scan(&circulating)

	return c.JSON(http.StatusOK, echo.Map{
		"users":               users,
		"services":            services,
		"services_by_status":  countByStatus(ctx, "services"),
		"requests":            requests,
		"requests_by_status":  countByStatus(ctx, "service_requests"),
		"reviews":             reviews,
		"credits_circulating": circulating,
	})
}

func countByStatus(ctx context.Context, table string) map[string]int {
	out := map[string]int{}
	rows, err := db.Conn.Query(ctx, `SELECT status, COUNT(*) FROM `+table+` GROUP BY status`)
	if err != nil {
		return out
	}
	defer rows.Close()
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return out
		}
		out[status] = n
	}
	return out
}
