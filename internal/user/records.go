package user

import (
	"context"
	"log"

	"github.com/hourbank-app/hourbank/internal/cache"
	"github.com/hourbank-app/hourbank/internal/config"
	"github.com/hourbank-app/hourbank/internal/db"
	"github.com/hourbank-app/hourbank/internal/faults"
)

type remoteGetter func(ctx context.Context, id string) (User, error)

// Records is the read-through path for user documents. Fresh cache
// entries short-circuit the backend. When the backend cannot be read
// and the record requested belongs to the caller, a default record is
// synthesized from the session claims so the UI can proceed degraded.
type Records struct {
	cache   *cache.Store[User]
	fetch   remoteGetter
	persist func(ctx context.Context, u User) error
	budgets config.Timeouts
	grant   int64
}

func NewRecords(c *cache.Store[User], cfg config.Config) *Records {
	return &Records{
		cache:   c,
		fetch:   fetchUser,
		persist: seedUser,
		budgets: cfg.Timeouts,
		grant:   cfg.InitialCreditGrant,
	}
}

// Get returns the user record for id. viewer may be nil; when it
// matches id it enables the claims fallback.
func (r *Records) Get(ctx context.Context, id string, viewer *Claims) (User, error) {
	if u, ok := r.cache.Get(id); ok {
		return u, nil
	}

	qctx, cancel := context.WithTimeout(ctx, r.budgets.Ping)
	defer cancel()

	u, err := r.fetch(qctx, id)
	if err == nil {
		r.cache.Put(id, u)
		return u, nil
	}
	err = faults.Wrap("user.get", err)

	if faults.KindOf(err) == faults.KindNotFound {
		// The identity exists but its document does not; seed a
		// default one for the caller's own id.
		if viewer != nil && viewer.UserID == id {
			fb := r.Fallback(*viewer)
			if seedErr := r.seed(ctx, fb); seedErr != nil {
				log.Printf("[user] could not seed record for %s: %v", id, seedErr)
			}
			r.cache.Put(id, fb)
			return fb, nil
		}
		return User{}, err
	}

	// Connectivity-shaped failure: stale entry first, then claims.
	if faults.Connectivity(err) {
		if u, ok, _ := r.cache.GetAny(id); ok {
			log.Printf("[cache] backend unreachable, serving stale user %s", id)
			return u, nil
		}
		if viewer != nil && viewer.UserID == id {
			log.Printf("[user] backend unreachable, using session fallback for %s", id)
			return r.Fallback(*viewer), nil
		}
	}
	return User{}, err
}

// Invalidate drops the cached record for id, forcing the next read to
// hit the backend. Settlement and review writes call this.
func (r *Records) Invalidate(id string) { r.cache.Drop(id) }

// Fallback synthesizes the default record used when the backend is
// unreadable: initial grant, zero counters, unrated.
func (r *Records) Fallback(claims Claims) User {
	return User{
		ID:          claims.UserID,
		Name:        claims.Name,
		Email:       claims.Email,
		Role:        claims.Role,
		TimeCredits: r.grant,
		IsActive:    true,
	}
}

func (r *Records) seed(ctx context.Context, u User) error {
	wctx, cancel := context.WithTimeout(ctx, r.budgets.Write)
	defer cancel()
	return r.persist(wctx, u)
}

func seedUser(ctx context.Context, u User) error {
	_, err := db.Conn.Exec(ctx, `
        INSERT INTO users (id, name, email, password, role, time_credits)
        VALUES ($1, $2, $3, '', $4, $5)
        ON CONFLICT (id) DO NOTHING`,
		u.ID, u.Name, u.Email, u.Role, u.TimeCredits)
	return err
}

func fetchUser(ctx context.Context, id string) (User, error) {
	var u User
	err := db.Conn.QueryRow(ctx, `
        SELECT id, name, email, role, bio, location, skills, time_credits,
               services_offered, services_received, average_rating,
               email_verified, is_active, created_at
        FROM users WHERE id = $1`, id).
		Scan(&u.ID, &u.Name, &u.Email, &u.Role, &u.Bio, &u.Location, &u.Skills,
			&u.TimeCredits, &u.ServicesOffered, &u.ServicesReceived,
			&u.AverageRating, &u.EmailVerified, &u.IsActive, &u.CreatedAt)
	return u, err
}
