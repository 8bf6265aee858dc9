package cache

import (
	"testing"
	"time"
)

type fakeClock struct{ t time.Time }

func (f *fakeClock) now() time.Time          { return f.t }
func (f *fakeClock) advance(d time.Duration) { f.t = f.t.Add(d) }

func newTestStore(ttl time.Duration) (*Store[[]string], *fakeClock) {
	clk := &fakeClock{t: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	return New[[]string](ttl, clk.now), clk
}

func TestGetFreshEntry(t *testing.T) {
	s, clk := newTestStore(5 * time.Minute)
	s.Put("technology", []string{"a", "b", "c"})

	clk.advance(1 * time.Minute)
	got, ok := s.Get("technology")
	if !ok {
		t.Fatal("expected fresh entry at t+1m")
	}
	if len(got) != 3 {
		t.Errorf("expected 3 items, got %d", len(got))
	}
}

func TestGetExpiredEntry(t *testing.T) {
	s, clk := newTestStore(5 * time.Minute)
	s.Put("technology", []string{"a"})

	clk.advance(6 * time.Minute)
	if _, ok := s.Get("technology"); ok {
		t.Error("expected miss at t+6m with 5m TTL")
	}
}

func TestTTLBoundaryIsExclusive(t *testing.T) {
	s, clk := newTestStore(5 * time.Minute)
	s.Put("all", []string{"a"})

	clk.advance(5 * time.Minute)
	if _, ok := s.Get("all"); ok {
		t.Error("entry exactly at TTL should be stale")
	}
}

func TestGetAnyServesStale(t *testing.T) {
	s, clk := newTestStore(5 * time.Minute)
	s.Put("all", []string{"a", "b"})

	clk.advance(30 * time.Minute)
	got, ok, fresh := s.GetAny("all")
	if !ok {
		t.Fatal("expected stale entry to be present")
	}
	if fresh {
		t.Error("entry should be reported stale")
	}
	if len(got) != 2 {
		t.Errorf("expected 2 items, got %d", len(got))
	}
}

func TestNoCrossKeySubstitution(t *testing.T) {
	s, _ := newTestStore(5 * time.Minute)
	s.Put(AllKey, []string{"a", "b", "c"})

	if _, ok := s.Get("technology"); ok {
		t.Error("category read must not be satisfied from the all entry")
	}
	if _, ok, _ := s.GetAny("technology"); ok {
		t.Error("stale path must not cross keys either")
	}
}

func TestPutOverwritesSameKeyOnly(t *testing.T) {
	s, clk := newTestStore(5 * time.Minute)
	s.Put(AllKey, []string{"old"})
	s.Put("technology", []string{"t1"})

	clk.advance(4 * time.Minute)
	s.Put("technology", []string{"t2"})

	// technology was refreshed; all keeps its original timestamp
	clk.advance(2 * time.Minute)
	if _, ok := s.Get(AllKey); ok {
		t.Error("all entry should have expired")
	}
	got, ok := s.Get("technology")
	if !ok {
		t.Fatal("refreshed technology entry should be fresh")
	}
	if got[0] != "t2" {
		t.Errorf("expected overwritten value t2, got %s", got[0])
	}
}

func TestDrop(t *testing.T) {
	s, _ := newTestStore(time.Minute)
	s.Put("u1", []string{"x"})
	s.Drop("u1")
	if _, ok, _ := s.GetAny("u1"); ok {
		t.Error("dropped entry should be gone")
	}
	if s.Len() != 0 {
		t.Errorf("expected empty store, got %d entries", s.Len())
	}
}
