package session

import (
	"testing"
	"time"
)

func TestIdentityAuthenticated(t *testing.T) {
	sess := Session{Username: " alice ", Authenticated: true}
	username, ok := sess.Identity()
	if !ok {
		t.Fatal("expected authenticated identity")
	}
	if username != "alice" {
		t.Fatalf("username = %q, want %q", username, "alice")
	}
}

func TestIdentityRejectsUnauthenticated(t *testing.T) {
	sess := Session{Username: "alice", Authenticated: false}
	if _, ok := sess.Identity(); ok {
		t.Fatal("expected no identity for unauthenticated session")
	}
}

func TestIdentityRejectsEmptyUsername(t *testing.T) {
	sess := Session{Username: "   ", Authenticated: true}
	if _, ok := sess.Identity(); ok {
		t.Fatal("expected no identity for blank username")
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	created := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	sess := Session{
		Username:      "alice",
		Authenticated: true,
		CreatedAt:     created,
		ExpiresAt:     created.Add(time.Hour),
	}

	payload, err := Encode(sess)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	decoded, err := Decode(payload)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded != sess {
		t.Fatalf("decoded = %+v, want %+v", decoded, sess)
	}
}

func TestDecodeRejectsGarbage(t *testing.T) {
	if _, err := Decode([]byte("{not json")); err == nil {
		t.Fatal("expected decode error")
	}
}
