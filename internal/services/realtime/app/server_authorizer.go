package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/huddleworks/huddle/internal/platform/timeouts"
	"github.com/huddleworks/huddle/internal/session"
	"github.com/huddleworks/huddle/internal/session/sessioncookie"
)

var errSessionUnauthenticated = errors.New("session has no authenticated identity")

// connAuthorizer authorizes one websocket connection attempt before the
// handshake completes. It runs exactly once per connection.
type connAuthorizer interface {
	Authorize(ctx context.Context, r *http.Request) (string, error)
}

// sessionAuthorizer resolves the signed session cookie against the shared
// session store. It must be configured with the same cookie name and
// signing secret as the HTTP layer that issued the cookie.
type sessionAuthorizer struct {
	cookieName string
	secret     []byte
	store      session.Store
}

func newSessionAuthorizer(cookieName string, secret []byte, store session.Store) *sessionAuthorizer {
	if cookieName == "" {
		cookieName = sessioncookie.DefaultName
	}
	return &sessionAuthorizer{
		cookieName: cookieName,
		secret:     secret,
		store:      store,
	}
}

// Authorize returns the authenticated username bound to the request's
// session cookie. Any failure (missing or malformed cookie, bad signature,
// unknown session, unauthenticated session, or store error) rejects the
// connection; callers distinguish session.ErrUnavailable only for logging.
func (a *sessionAuthorizer) Authorize(ctx context.Context, r *http.Request) (string, error) {
	value, err := sessioncookie.Read(r, a.cookieName)
	if err != nil {
		return "", err
	}

	key, err := sessioncookie.Verify(a.secret, value)
	if err != nil {
		return "", err
	}

	lookupCtx, cancel := context.WithTimeout(ctx, timeouts.SessionLookup)
	defer cancel()

	sess, err := a.store.Lookup(lookupCtx, key)
	if err != nil {
		return "", fmt.Errorf("lookup session: %w", err)
	}

	username, ok := sess.Identity()
	if !ok {
		return "", errSessionUnauthenticated
	}
	return username, nil
}
