package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrNotFound indicates the session key has no live session, either because
// it never existed or because it expired.
var ErrNotFound = errors.New("session not found")

// ErrUnavailable indicates the store itself failed. Callers treat it the
// same as a missing session for authorization outcomes but log it
// distinctly for operability.
var ErrUnavailable = errors.New("session store unavailable")

// Session is the payload stored under a session key.
//
// The record is owned by the HTTP layer; this subsystem never mutates it.
type Session struct {
	Username      string    `json:"username"`
	Authenticated bool      `json:"authenticated"`
	CreatedAt     time.Time `json:"created_at"`
	ExpiresAt     time.Time `json:"expires_at,omitzero"`
}

// Identity returns the authenticated username bound to the session, or
// false when the session carries no authenticated identity.
func (s Session) Identity() (string, bool) {
	username := strings.TrimSpace(s.Username)
	if !s.Authenticated || username == "" {
		return "", false
	}
	return username, true
}

// Store is the opaque key to session lookup shared between layers.
//
// Lookup returns ErrNotFound for missing or expired sessions and wraps any
// infrastructure failure in ErrUnavailable. Put and Delete exist for the
// HTTP layer and operational tooling; the realtime layer only calls Lookup.
type Store interface {
	Lookup(ctx context.Context, key string) (Session, error)
	Put(ctx context.Context, key string, sess Session, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// Encode serializes a session to its stored JSON form.
func Encode(sess Session) ([]byte, error) {
	payload, err := json.Marshal(sess)
	if err != nil {
		return nil, fmt.Errorf("encode session: %w", err)
	}
	return payload, nil
}

// Decode restores a session from its stored JSON form.
func Decode(payload []byte) (Session, error) {
	var sess Session
	if err := json.Unmarshal(payload, &sess); err != nil {
		return Session{}, fmt.Errorf("decode session: %w", err)
	}
	return sess, nil
}
