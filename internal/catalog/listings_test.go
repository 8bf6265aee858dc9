package catalog

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hourbank-app/hourbank/internal/cache"
	"github.com/hourbank-app/hourbank/internal/config"
	"github.com/hourbank-app/hourbank/internal/faults"
)

type listingsFixture struct {
	listings *Listings
	clock    *time.Time
	remote   *int // remote call counter
}

func newListingsFixture(t *testing.T, probeUp bool, remote remoteLister) listingsFixture {
	t.Helper()
	now := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	clk := &now
	calls := 0

	store := cache.New[[]Service](5*time.Minute, func() time.Time { return *clk })
	l := &Listings{
		cache:   store,
		budgets: config.Defaults().Timeouts,
		max:     50,
		probe:   func(context.Context) bool { return probeUp },
		query: func(ctx context.Context, category string, max int) ([]Service, error) {
			calls++
			return remote(ctx, category, max)
		},
	}
	return listingsFixture{listings: l, clock: clk, remote: &calls}
}

func threeServices(category string) []Service {
	out := make([]Service, 3)
	for i := range out {
		out[i] = Service{ID: "s" + string(rune('1'+i)), Category: category, Status: StatusAvailable}
	}
	return out
}

func TestFreshCacheSkipsRemote(t *testing.T) {
	fx := newListingsFixture(t, true, func(ctx context.Context, category string, max int) ([]Service, error) {
		return threeServices(category), nil
	})
	ctx := context.Background()

	got, err := fx.listings.Available(ctx, "technology")
	if err != nil {
		t.Fatalf("first fetch: %v", err)
	}
	if len(got) != 3 || *fx.remote != 1 {
		t.Fatalf("expected 3 items via 1 remote call, got %d items %d calls", len(got), *fx.remote)
	}

	// t+1m: same three items, zero additional remote calls.
	*fx.clock = fx.clock.Add(1 * time.Minute)
	got, err = fx.listings.Available(ctx, "technology")
	if err != nil {
		t.Fatalf("cached fetch: %v", err)
	}
	if len(got) != 3 {
		t.Errorf("expected cached 3 items, got %d", len(got))
	}
	if *fx.remote != 1 {
		t.Errorf("expected no remote call on fresh cache, got %d calls", *fx.remote)
	}

	// t+6m: the entry is past its 5 minute TTL, so the backend is hit.
	*fx.clock = fx.clock.Add(5 * time.Minute)
	if _, err := fx.listings.Available(ctx, "technology"); err != nil {
		t.Fatalf("expired fetch: %v", err)
	}
	if *fx.remote != 2 {
		t.Errorf("expected remote call after expiry, got %d calls", *fx.remote)
	}
}

func TestProbeDownServesStaleEntry(t *testing.T) {
	fx := newListingsFixture(t, true, func(ctx context.Context, category string, max int) ([]Service, error) {
		return threeServices(category), nil
	})
	ctx := context.Background()

	if _, err := fx.listings.Available(ctx, ""); err != nil {
		t.Fatalf("seed fetch: %v", err)
	}

	// Entry goes stale and the probe starts failing.
	*fx.clock = fx.clock.Add(20 * time.Minute)
	fx.listings.probe = func(context.Context) bool { return false }

	got, err := fx.listings.Available(ctx, "")
	if err != nil {
		t.Fatalf("degraded fetch: %v", err)
	}
	if len(got) != 3 {
		t.Errorf("expected stale 3 items rather than empty list, got %d", len(got))
	}
	if *fx.remote != 1 {
		t.Errorf("probe-down path must not hit the backend, got %d calls", *fx.remote)
	}
}

func TestProbeDownNoCacheReturnsEmpty(t *testing.T) {
	fx := newListingsFixture(t, false, func(ctx context.Context, category string, max int) ([]Service, error) {
		t.Fatal("remote must not be called when probe is down")
		return nil, nil
	})

	got, err := fx.listings.Available(context.Background(), "cooking")
	if err != nil {
		t.Fatalf("expected degraded empty result, got error %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected empty result, got %d items", len(got))
	}
}

func TestQueryFailureFallsBackToSameKeyOnly(t *testing.T) {
	healthy := func(ctx context.Context, category string, max int) ([]Service, error) {
		return threeServices(category), nil
	}
	fx := newListingsFixture(t, true, healthy)
	ctx := context.Background()

	// Seed only the "all" entry.
	if _, err := fx.listings.Available(ctx, ""); err != nil {
		t.Fatalf("seed fetch: %v", err)
	}

	// Remote starts timing out.
	fx.listings.query = func(ctx context.Context, category string, max int) ([]Service, error) {
		return nil, context.DeadlineExceeded
	}

	// A category fetch must not be satisfied from the unrelated "all"
	// entry: with no same-key entry it comes back empty.
	got, err := fx.listings.Available(ctx, "technology")
	if err != nil {
		t.Fatalf("category fetch: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("category miss must not borrow the all entry, got %d items", len(got))
	}

	// The "all" key still degrades to its own stale entry.
	*fx.clock = fx.clock.Add(10 * time.Minute)
	got, err = fx.listings.Available(ctx, "")
	if err != nil {
		t.Fatalf("all fetch: %v", err)
	}
	if len(got) != 3 {
		t.Errorf("expected stale all entry, got %d items", len(got))
	}
}

func TestNonConnectivityErrorPropagates(t *testing.T) {
	boom := errors.New("syntax error at or near")
	fx := newListingsFixture(t, true, func(ctx context.Context, category string, max int) ([]Service, error) {
		return nil, boom
	})

	_, err := fx.listings.Available(context.Background(), "")
	if err == nil {
		t.Fatal("expected a propagated error")
	}
	if faults.Connectivity(err) {
		t.Errorf("plain query errors must not classify as connectivity: %v", err)
	}
}

func TestSuccessfulFetchOverwritesEntry(t *testing.T) {
	items := threeServices("gardening")
	fx := newListingsFixture(t, true, func(ctx context.Context, category string, max int) ([]Service, error) {
		return items, nil
	})
	ctx := context.Background()

	if _, err := fx.listings.Available(ctx, "gardening"); err != nil {
		t.Fatalf("seed: %v", err)
	}

	items = items[:1]
	*fx.clock = fx.clock.Add(6 * time.Minute)
	got, err := fx.listings.Available(ctx, "gardening")
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if len(got) != 1 {
		t.Errorf("expected refreshed entry with 1 item, got %d", len(got))
	}

	// And the refresh restamped the entry.
	*fx.clock = fx.clock.Add(1 * time.Minute)
	if _, ok := fx.listings.cache.Get("gardening"); !ok {
		t.Error("refreshed entry should be fresh again")
	}
}
