package offline

import (
	"path/filepath"
	"testing"
)

type rec struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

func TestAppendAndPending(t *testing.T) {
	path := filepath.Join(t.TempDir(), "offline_services.json")
	q := NewQueue[rec](path)

	if err := q.Append(rec{ID: "offline_1", Title: "lawn mowing"}); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := q.Append(rec{ID: "offline_2", Title: "guitar lessons"}); err != nil {
		t.Fatalf("append: %v", err)
	}

	items, err := q.Pending()
	if err != nil {
		t.Fatalf("pending: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 records, got %d", len(items))
	}
	if items[0].ID != "offline_1" || items[1].ID != "offline_2" {
		t.Errorf("order not preserved: %+v", items)
	}
}

func TestEmptySlot(t *testing.T) {
	q := NewQueue[rec](filepath.Join(t.TempDir(), "missing.json"))
	items, err := q.Pending()
	if err != nil {
		t.Fatalf("pending on missing file: %v", err)
	}
	if len(items) != 0 {
		t.Errorf("expected empty slot, got %d", len(items))
	}
}

func TestSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "offline_services.json")
	q := NewQueue[rec](path)
	if err := q.Append(rec{ID: "offline_1"}); err != nil {
		t.Fatalf("append: %v", err)
	}

	// A fresh queue over the same path sees the persisted records.
	q2 := NewQueue[rec](path)
	n, err := q2.Len()
	if err != nil {
		t.Fatalf("len: %v", err)
	}
	if n != 1 {
		t.Errorf("expected 1 persisted record, got %d", n)
	}
}

func TestAppendAddsExactlyOne(t *testing.T) {
	q := NewQueue[rec](filepath.Join(t.TempDir(), "q.json"))
	for i := 0; i < 3; i++ {
		before, _ := q.Len()
		if err := q.Append(rec{ID: "x"}); err != nil {
			t.Fatalf("append: %v", err)
		}
		after, _ := q.Len()
		if after != before+1 {
			t.Fatalf("append %d: len went %d -> %d", i, before, after)
		}
	}
}
