package faults

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Kind classifies a failure at the point it is produced, replacing
// string probing of error messages downstream.
type Kind int

const (
	KindUnknown Kind = iota
	KindTimeout
	KindOffline
	KindUnavailable
	KindNotFound
	KindConflict
	KindValidation
	KindAuth
)

func (k Kind) String() string {
	switch k {
	case KindTimeout:
		return "timeout"
	case KindOffline:
		return "offline"
	case KindUnavailable:
		return "unavailable"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindValidation:
		return "validation"
	case KindAuth:
		return "auth"
	default:
		return "unknown"
	}
}

// Fault carries an enumerated kind, the operation that produced it,
// and a human-readable message.
type Fault struct {
	Kind Kind
	Op   string
	Msg  string
	Err  error
}

func (f *Fault) Error() string {
	if f.Msg != "" {
		return fmt.Sprintf("%s: %s", f.Op, f.Msg)
	}
	if f.Err != nil {
		return fmt.Sprintf("%s: %v", f.Op, f.Err)
	}
	return f.Op
}

func (f *Fault) Unwrap() error { return f.Err }

// New builds a fault with an explicit kind and message.
func New(kind Kind, op, msg string) *Fault {
	return &Fault{Kind: kind, Op: op, Msg: msg}
}

// Wrap classifies err and attaches the operation name. A nil err
// returns nil.
func Wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	var f *Fault
	if errors.As(err, &f) {
		return err
	}
	return &Fault{Kind: Classify(err), Op: op, Err: err}
}

// Timeout builds a timeout fault with a user-facing message.
func Timeout(op, msg string) *Fault {
	return &Fault{Kind: KindTimeout, Op: op, Msg: msg}
}

// KindOf extracts the kind from err, or KindUnknown.
func KindOf(err error) Kind {
	var f *Fault
	if errors.As(err, &f) {
		return f.Kind
	}
	return Classify(err)
}

// Postgres SQLSTATE classes that indicate the backend is not in a
// state to serve us, as opposed to rejecting the statement.
var unavailableCodes = map[string]bool{
	"57P01": true, // admin_shutdown
	"57P02": true, // crash_shutdown
	"57P03": true, // cannot_connect_now
	"08000": true, // connection_exception
	"08003": true, // connection_does_not_exist
	"08006": true, // connection_failure
	"53300": true, // too_many_connections
}

// Classify maps an arbitrary error to a kind. Deadline and network
// errors come out as connectivity-shaped so callers can degrade
// instead of failing hard.
func Classify(err error) Kind {
	switch {
	case err == nil:
		return KindUnknown
	case errors.Is(err, context.DeadlineExceeded):
		return KindTimeout
	case errors.Is(err, context.Canceled):
		return KindTimeout
	case errors.Is(err, pgx.ErrNoRows):
		return KindNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if unavailableCodes[pgErr.Code] {
			return KindUnavailable
		}
		if pgErr.Code == "23505" { // unique_violation
			return KindConflict
		}
		return KindUnknown
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return KindTimeout
		}
		return KindOffline
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return KindOffline
	}

	if pgconn.Timeout(err) {
		return KindTimeout
	}
	return KindUnknown
}

// Connectivity reports whether err is connectivity-shaped: a timeout,
// an offline signal, or a backend-unavailable condition. These are the
// failures that qualify for cache and offline fallbacks.
func Connectivity(err error) bool {
	switch KindOf(err) {
	case KindTimeout, KindOffline, KindUnavailable:
		return true
	}
	return false
}
