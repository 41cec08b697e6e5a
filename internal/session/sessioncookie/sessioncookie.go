// Package sessioncookie centralizes signed session cookie behavior.
//
// The cookie value binds a session key to an HMAC-SHA256 signature so the
// realtime layer can verify, with the same secret and cookie name as the
// HTTP layer, that a presented key was issued by this deployment before
// touching the session store.
package sessioncookie

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"net/http"
	"strings"
)

// DefaultName is the canonical session cookie name. Both layers may
// override it through configuration, but they must agree on the value.
const DefaultName = "huddle.sid"

// valuePrefix marks a signed cookie value.
const valuePrefix = "s:"

var (
	// ErrMissing indicates the request carries no session cookie.
	ErrMissing = errors.New("session cookie missing")
	// ErrMalformed indicates the cookie value is not in signed form.
	ErrMalformed = errors.New("session cookie malformed")
	// ErrBadSignature indicates the signature does not match the key.
	ErrBadSignature = errors.New("session cookie signature mismatch")
)

// Sign produces the cookie value for a session key: the key joined to a
// base64url HMAC-SHA256 signature under the shared secret.
func Sign(secret []byte, sessionKey string) string {
	return valuePrefix + sessionKey + "." + signature(secret, sessionKey)
}

// Verify checks a cookie value and returns the embedded session key.
func Verify(secret []byte, value string) (string, error) {
	value = strings.TrimSpace(value)
	if !strings.HasPrefix(value, valuePrefix) {
		return "", ErrMalformed
	}
	rest := strings.TrimPrefix(value, valuePrefix)
	dot := strings.LastIndexByte(rest, '.')
	if dot <= 0 || dot == len(rest)-1 {
		return "", ErrMalformed
	}
	sessionKey := rest[:dot]
	sig := rest[dot+1:]
	if !hmac.Equal([]byte(signature(secret, sessionKey)), []byte(sig)) {
		return "", ErrBadSignature
	}
	return sessionKey, nil
}

// Read returns the raw session cookie value when present.
func Read(r *http.Request, name string) (string, error) {
	if r == nil {
		return "", ErrMissing
	}
	if strings.TrimSpace(name) == "" {
		name = DefaultName
	}
	cookie, err := r.Cookie(name)
	if err != nil || cookie == nil {
		return "", ErrMissing
	}
	value := strings.TrimSpace(cookie.Value)
	if value == "" {
		return "", ErrMissing
	}
	return value, nil
}

// Write sets the session cookie for the current request context.
func Write(w http.ResponseWriter, name string, value string, secure bool) {
	if w == nil {
		return
	}
	if strings.TrimSpace(name) == "" {
		name = DefaultName
	}
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    strings.TrimSpace(value),
		Path:     "/",
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// Clear expires the session cookie for the current request context.
func Clear(w http.ResponseWriter, name string, secure bool) {
	if w == nil {
		return
	}
	if strings.TrimSpace(name) == "" {
		name = DefaultName
	}
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
	})
}

func signature(secret []byte, sessionKey string) string {
	mac := hmac.New(sha256.New, secret)
	_, _ = mac.Write([]byte(sessionKey))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}
