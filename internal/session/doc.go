// Package session defines the shared session record and the store contract
// used by both the HTTP login layer and the realtime layer.
//
// Sessions are created and destroyed by the HTTP layer; the realtime layer
// only reads them to authorize websocket connections. Both layers must use
// the same store backend, cookie name, and signing secret to agree on
// session identity.
package session
