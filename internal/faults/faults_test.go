package faults

import (
	"context"
	"errors"
	"fmt"
	"net"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type fakeNetErr struct{ timeout bool }

func (e fakeNetErr) Error() string   { return "fake net error" }
func (e fakeNetErr) Timeout() bool   { return e.timeout }
func (e fakeNetErr) Temporary() bool { return true }

var _ net.Error = fakeNetErr{}

func TestClassify(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want Kind
	}{
		{"deadline", context.DeadlineExceeded, KindTimeout},
		{"canceled", context.Canceled, KindTimeout},
		{"no rows", pgx.ErrNoRows, KindNotFound},
		{"wrapped no rows", fmt.Errorf("query: %w", pgx.ErrNoRows), KindNotFound},
		{"connection failure", &pgconn.PgError{Code: "08006"}, KindUnavailable},
		{"cannot connect now", &pgconn.PgError{Code: "57P03"}, KindUnavailable},
		{"too many connections", &pgconn.PgError{Code: "53300"}, KindUnavailable},
		{"unique violation", &pgconn.PgError{Code: "23505"}, KindConflict},
		{"constraint violation", &pgconn.PgError{Code: "23503"}, KindUnknown},
		{"net timeout", fakeNetErr{timeout: true}, KindTimeout},
		{"net down", fakeNetErr{timeout: false}, KindOffline},
		{"plain error", errors.New("boom"), KindUnknown},
	}
	for _, tc := range cases {
		if got := Classify(tc.err); got != tc.want {
			t.Errorf("%s: Classify = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestWrapPreservesExistingFault(t *testing.T) {
	orig := New(KindValidation, "signup", "bad email")
	wrapped := Wrap("outer", orig)
	if KindOf(wrapped) != KindValidation {
		t.Fatalf("wrap changed kind: %v", KindOf(wrapped))
	}
}

func TestWrapNil(t *testing.T) {
	if Wrap("op", nil) != nil {
		t.Fatal("Wrap(nil) should be nil")
	}
}

func TestConnectivity(t *testing.T) {
	degradable := []error{
		Timeout("probe", "backend slow"),
		New(KindOffline, "query", "network down"),
		Wrap("query", &pgconn.PgError{Code: "08006"}),
		context.DeadlineExceeded,
	}
	for _, err := range degradable {
		if !Connectivity(err) {
			t.Errorf("Connectivity(%v) = false, want true", err)
		}
	}

	hard := []error{
		pgx.ErrNoRows,
		New(KindConflict, "insert", "duplicate"),
		New(KindAuth, "login", "bad password"),
		errors.New("boom"),
	}
	for _, err := range hard {
		if Connectivity(err) {
			t.Errorf("Connectivity(%v) = true, want false", err)
		}
	}
}

func TestFaultError(t *testing.T) {
	f := New(KindTimeout, "fetch services", "backend did not answer in time")
	if f.Error() != "fetch services: backend did not answer in time" {
		t.Fatalf("unexpected message: %s", f.Error())
	}

	inner := errors.New("dial tcp: refused")
	wrapped := Wrap("fetch services", inner)
	if !errors.Is(wrapped, inner) {
		t.Fatal("wrapped fault should unwrap to the cause")
	}
}
