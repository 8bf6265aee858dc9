package user

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/hourbank-app/hourbank/internal/cache"
	"github.com/hourbank-app/hourbank/internal/config"
)

func newTestRecords(fetch remoteGetter) (*Records, *time.Time) {
	now := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	clk := &now
	return &Records{
		cache:   cache.New[User](5*time.Minute, func() time.Time { return *clk }),
		fetch:   fetch,
		persist: func(context.Context, User) error { return nil },
		budgets: config.Defaults().Timeouts,
		grant:   10,
	}, clk
}

func TestGetCachesRecord(t *testing.T) {
	calls := 0
	r, clk := newTestRecords(func(ctx context.Context, id string) (User, error) {
		calls++
		return User{ID: id, Name: "Ada", TimeCredits: 12}, nil
	})
	ctx := context.Background()

	if _, err := r.Get(ctx, "u1", nil); err != nil {
		t.Fatalf("first get: %v", err)
	}

	*clk = clk.Add(2 * time.Minute)
	u, err := r.Get(ctx, "u1", nil)
	if err != nil {
		t.Fatalf("cached get: %v", err)
	}
	if calls != 1 {
		t.Errorf("expected 1 backend read, got %d", calls)
	}
	if u.TimeCredits != 12 {
		t.Errorf("unexpected record: %+v", u)
	}

	*clk = clk.Add(4 * time.Minute)
	if _, err := r.Get(ctx, "u1", nil); err != nil {
		t.Fatalf("expired get: %v", err)
	}
	if calls != 2 {
		t.Errorf("expected refresh after TTL, got %d reads", calls)
	}
}

func TestConnectivityFailureUsesStaleEntry(t *testing.T) {
	healthy := true
	r, clk := newTestRecords(func(ctx context.Context, id string) (User, error) {
		if !healthy {
			return User{}, context.DeadlineExceeded
		}
		return User{ID: id, Name: "Ada", TimeCredits: 7}, nil
	})
	ctx := context.Background()

	if _, err := r.Get(ctx, "u1", nil); err != nil {
		t.Fatalf("seed get: %v", err)
	}

	healthy = false
	*clk = clk.Add(30 * time.Minute)
	u, err := r.Get(ctx, "u1", nil)
	if err != nil {
		t.Fatalf("expected stale record, got %v", err)
	}
	if u.TimeCredits != 7 {
		t.Errorf("expected stale record, got %+v", u)
	}
}

func TestConnectivityFailureFallsBackToClaims(t *testing.T) {
	r, _ := newTestRecords(func(ctx context.Context, id string) (User, error) {
		return User{}, context.DeadlineExceeded
	})

	viewer := &Claims{UserID: "u1", Name: "Ada", Email: "ada@example.com", Role: "member"}
	u, err := r.Get(context.Background(), "u1", viewer)
	if err != nil {
		t.Fatalf("expected claims fallback, got %v", err)
	}
	if u.TimeCredits != 10 {
		t.Errorf("fallback should carry the initial grant, got %d", u.TimeCredits)
	}
	if u.ServicesOffered != 0 || u.ServicesReceived != 0 || u.AverageRating != 0 {
		t.Errorf("fallback counters should be zero: %+v", u)
	}
}

func TestConnectivityFailureForOtherUserPropagates(t *testing.T) {
	r, _ := newTestRecords(func(ctx context.Context, id string) (User, error) {
		return User{}, context.DeadlineExceeded
	})

	viewer := &Claims{UserID: "u1"}
	if _, err := r.Get(context.Background(), "u2", viewer); err == nil {
		t.Fatal("no fallback exists for someone else's record")
	}
}

func TestMissingOwnRecordIsSeeded(t *testing.T) {
	seeded := 0
	r, _ := newTestRecords(func(ctx context.Context, id string) (User, error) {
		return User{}, pgx.ErrNoRows
	})
	r.persist = func(ctx context.Context, u User) error {
		seeded++
		return nil
	}

	viewer := &Claims{UserID: "u1", Name: "Ada", Role: "member"}
	u, err := r.Get(context.Background(), "u1", viewer)
	if err != nil {
		t.Fatalf("expected seeded default record, got %v", err)
	}
	if seeded != 1 {
		t.Errorf("expected one seed write, got %d", seeded)
	}
	if u.TimeCredits != 10 {
		t.Errorf("seeded record should carry the grant: %+v", u)
	}
}

func TestMissingOtherRecordIsNotFound(t *testing.T) {
	r, _ := newTestRecords(func(ctx context.Context, id string) (User, error) {
		return User{}, pgx.ErrNoRows
	})
	if _, err := r.Get(context.Background(), "u2", &Claims{UserID: "u1"}); err == nil {
		t.Fatal("expected not-found to propagate")
	}
}

func TestInvalidateForcesRefetch(t *testing.T) {
	calls := 0
	r, _ := newTestRecords(func(ctx context.Context, id string) (User, error) {
		calls++
		return User{ID: id}, nil
	})
	ctx := context.Background()

	if _, err := r.Get(ctx, "u1", nil); err != nil {
		t.Fatal(err)
	}
	r.Invalidate("u1")
	if _, err := r.Get(ctx, "u1", nil); err != nil {
		t.Fatal(err)
	}
	if calls != 2 {
		t.Errorf("expected refetch after invalidate, got %d reads", calls)
	}
}

func TestNonConnectivityErrorPropagates(t *testing.T) {
	r, _ := newTestRecords(func(ctx context.Context, id string) (User, error) {
		return User{}, errors.New("permission denied for table users")
	})
	if _, err := r.Get(context.Background(), "u1", &Claims{UserID: "u1"}); err == nil {
		t.Fatal("unclassified errors must propagate")
	}
}
