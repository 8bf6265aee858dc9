package auth

import (
	"testing"
	"time"
)

func TestPurposeTokenRoundTrip(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	signed, err := signPurpose("u1", PurposeEmailVerify, time.Hour)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	uid, err := parsePurpose(signed, PurposeEmailVerify)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if uid != "u1" {
		t.Errorf("expected u1, got %s", uid)
	}
}

func TestPurposeMismatchRejected(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	signed, err := signPurpose("u1", PurposeReset, time.Hour)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	// A reset token must not verify an email.
	if _, err := parsePurpose(signed, PurposeEmailVerify); err == nil {
		t.Error("expected purpose mismatch to be rejected")
	}
}

func TestExpiredTokenRejected(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	signed, err := signPurpose("u1", PurposeEmailVerify, -time.Minute)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := parsePurpose(signed, PurposeEmailVerify); err == nil {
		t.Error("expected expired token to be rejected")
	}
}

func TestSessionTokenIsNotAVerificationToken(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	signed, err := signSession("u1", "Ada", "ada@example.com", "member")
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := parsePurpose(signed, PurposeEmailVerify); err == nil {
		t.Error("session token must not pass as a verification token")
	}
}
