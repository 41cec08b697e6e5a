package server

import (
	"log"
	"sync"
)

type connState int

const (
	statePending connState = iota
	stateAuthorized
	stateClosed
)

// connection is the per-websocket state machine:
// pending -> authorized -> closed, or pending -> closed when authorization
// fails. The bound username is set once on authorization and never replaced
// by anything the client sends later.
type connection struct {
	mu       sync.Mutex
	state    connState
	id       string
	username string

	peer     *wsPeer
	hub      *hub
	presence *presenceTracker
}

func newConnection(id string, hub *hub, presence *presenceTracker, peer *wsPeer) *connection {
	return &connection{
		state:    statePending,
		id:       id,
		peer:     peer,
		hub:      hub,
		presence: presence,
	}
}

// authorize transitions pending -> authorized and runs the connect side
// effects in order: bind identity, subscribe, increment presence, announce.
func (c *connection) authorize(username string) bool {
	c.mu.Lock()
	if c.state != statePending {
		c.mu.Unlock()
		return false
	}
	c.state = stateAuthorized
	c.username = username
	c.mu.Unlock()

	c.hub.join(c.peer)
	count := c.presence.increment()
	log.Printf("realtime: user %q connected conn=%s current_users=%d", username, c.id, count)
	c.hub.broadcast(presenceFrame(username, count, true))
	return true
}

// relayChat broadcasts a chat message under the bound identity. Frames on a
// connection that is not authorized are dropped.
func (c *connection) relayChat(message string) {
	c.mu.Lock()
	if c.state != stateAuthorized {
		c.mu.Unlock()
		return
	}
	username := c.username
	c.mu.Unlock()

	c.hub.broadcast(chatMessageFrame(username, message))
}

// close transitions to the terminal state. Closing an authorized connection
// unsubscribes, decrements presence, and announces the departure; closing a
// pending or already-closed connection does nothing. The transition runs at
// most once no matter how many times close is called.
func (c *connection) close() {
	c.mu.Lock()
	previous := c.state
	c.state = stateClosed
	c.mu.Unlock()

	if previous != stateAuthorized {
		return
	}

	c.hub.leave(c.peer)
	count := c.presence.decrement()
	log.Printf("realtime: user %q disconnected conn=%s current_users=%d", c.username, c.id, count)
	c.hub.broadcast(presenceFrame(c.username, count, false))
}
