package db

import (
	"context"
	"log"
	"time"
)

// Probe decides, cheaply, whether the backend is currently reachable
// before anyone commits to a full-budget query. It tries two
// lightweight reads in sequence, each under its own short timeout, and
// reports true on the first success. False answers are a heuristic,
// not a verdict: callers use the result only to pick between a real
// query and the cache/fallback path.
func Probe(ctx context.Context, timeout time.Duration) bool {
	if Conn == nil {
		return false
	}

	// 1: the sentinel row that always exists
	if err := probeRead(ctx, timeout, `SELECT id FROM system_status WHERE id = 'status'`); err == nil {
		return true
	} else {
		log.Printf("[probe] sentinel read failed: %v", err)
	}

	// 2: a minimal one-row query against a real collection
	if err := probeRead(ctx, timeout, `SELECT id FROM services LIMIT 1`); err == nil {
		return true
	} else {
		log.Printf("[probe] minimal query failed: %v", err)
	}

	return false
}

func probeRead(ctx context.Context, timeout time.Duration, sql string) error {
	pctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	rows, err := Conn.Query(pctx, sql)
	if err != nil {
		return err
	}
	defer rows.Close()
	rows.Next()
	return rows.Err()
}
