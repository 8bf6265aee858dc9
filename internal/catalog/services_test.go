package catalog

import (
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/hourbank-app/hourbank/internal/offline"
)

func TestNewOfflineServiceShape(t *testing.T) {
	now := time.Date(2025, 6, 1, 8, 30, 0, 0, time.UTC)
	req := CreateServiceRequest{
		Title:         "bike repair",
		Description:   "fix flats and brakes",
		Category:      "handyman",
		HoursRequired: 2,
		Location:      "east side",
	}

	svc := NewOfflineService(req, "u1", "Dana", now)

	if !strings.HasPrefix(svc.ID, OfflineIDPrefix) {
		t.Errorf("offline id must carry the %q prefix, got %s", OfflineIDPrefix, svc.ID)
	}
	if !svc.CreatedOffline {
		t.Error("offline record must be flagged created_offline")
	}
	if !IsOffline(svc.ID) {
		t.Error("IsOffline should recognize the synthesized id")
	}
	if svc.Status != StatusAvailable {
		t.Errorf("expected available status, got %s", svc.Status)
	}
	if svc.HoursRequired != 2 || svc.ProviderID != "u1" || svc.ProviderName != "Dana" {
		t.Errorf("fields not carried over: %+v", svc)
	}
	if !svc.CreatedAt.Equal(now) {
		t.Errorf("expected timestamp %v, got %v", now, svc.CreatedAt)
	}
}

func TestOfflineFallbackAppendsExactlyOne(t *testing.T) {
	q := offline.NewQueue[Service](filepath.Join(t.TempDir(), "offline_services.json"))
	req := CreateServiceRequest{Title: "tutoring", Category: "education", HoursRequired: 1}

	svc := NewOfflineService(req, "u1", "Dana", time.Now())
	if err := q.Append(svc); err != nil {
		t.Fatalf("append: %v", err)
	}

	n, err := q.Len()
	if err != nil {
		t.Fatalf("len: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected exactly one queued record, got %d", n)
	}
}

func TestValidCategory(t *testing.T) {
	for _, c := range Categories {
		if !ValidCategory(c) {
			t.Errorf("category %q should be valid", c)
		}
	}
	for _, c := range []string{"", "plumbing", "Technology", "ALL"} {
		if ValidCategory(c) {
			t.Errorf("category %q should be rejected", c)
		}
	}
}

func TestIsOffline(t *testing.T) {
	if IsOffline("2f6b9c1e-0000-0000-0000-000000000000") {
		t.Error("backend ids are not offline")
	}
	if IsOffline("offline_") {
		t.Error("bare prefix is not a valid offline id")
	}
	if !IsOffline("offline_abc") {
		t.Error("prefixed id should be offline")
	}
}
