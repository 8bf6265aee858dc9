package catalog

import (
	"context"
	"log"

	"github.com/hourbank-app/hourbank/internal/cache"
	"github.com/hourbank-app/hourbank/internal/config"
	"github.com/hourbank-app/hourbank/internal/db"
	"github.com/hourbank-app/hourbank/internal/faults"
)

type remoteLister func(ctx context.Context, category string, max int) ([]Service, error)
type prober func(ctx context.Context) bool

// Listings is the read-through path for browsing available services.
// It prefers a fresh cache entry, probes connectivity before paying
// for a full query, and serves the stale same-key entry when the
// backend cannot be reached. Stale data beats no data; an unrelated
// key's data never substitutes for the one requested.
type Listings struct {
	cache   *cache.Store[[]Service]
	probe   prober
	query   remoteLister
	budgets config.Timeouts
	max     int
}

func NewListings(c *cache.Store[[]Service], cfg config.Config) *Listings {
	l := &Listings{
		cache:   c,
		budgets: cfg.Timeouts,
		max:     cfg.ListingPageMax,
	}
	l.probe = func(ctx context.Context) bool { return db.Probe(ctx, cfg.Timeouts.Probe) }
	l.query = queryAvailable
	return l
}

func listingKey(category string) string {
	if category == "" {
		return cache.AllKey
	}
	return category
}

// Available returns the available listings for category ("" means
// all), newest first, capped at the configured page size.
func (l *Listings) Available(ctx context.Context, category string) ([]Service, error) {
	key := listingKey(category)

	if items, ok := l.cache.Get(key); ok {
		return items, nil
	}

	// Miss or stale: decide fast whether the real query is worth it.
	if !l.probe(ctx) {
		if items, ok, _ := l.cache.GetAny(key); ok {
			log.Printf("[cache] backend unreachable, serving stale %q listings", key)
			return items, nil
		}
		return []Service{}, nil
	}

	qctx, cancel := context.WithTimeout(ctx, l.budgets.Query)
	defer cancel()

	items, err := l.query(qctx, category, l.max)
	if err != nil {
		err = faults.Wrap("catalog.available", err)
		if items, ok, _ := l.cache.GetAny(key); ok {
			log.Printf("[cache] query for %q failed (%v), serving stale entry", key, err)
			return items, nil
		}
		if faults.Connectivity(err) {
			return []Service{}, nil
		}
		return nil, err
	}

	l.cache.Put(key, items)
	return items, nil
}

func queryAvailable(ctx context.Context, category string, max int) ([]Service, error) {
	sql := `SELECT id, provider_id, provider_name, provider_rating, title, description,
                   category, hours_required, location, status, created_at, updated_at
            FROM services WHERE status = 'available'`
	args := []any{}
	if category != "" {
		sql += ` AND category = $1`
		args = append(args, category)
	}
	if category != "" {
		sql += ` ORDER BY created_at DESC LIMIT $2`
	} else {
		sql += ` ORDER BY created_at DESC LIMIT $1`
	}
	args = append(args, max)

	rows, err := db.Conn.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	services := []Service{}
	for rows.Next() {
		var s Service
		if err := rows.Scan(&s.ID, &s.ProviderID, &s.ProviderName, &s.ProviderRating,
			&s.Title, &s.Description, &s.Category, &s.HoursRequired, &s.Location,
			&s.Status, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, err
		}
		services = append(services, s)
	}
	return services, rows.Err()
}
