package server

import (
	"fmt"
	"sync"
)

// presenceTracker counts currently authorized connections.
//
// The counter is owned by a single handler instance and mutated only by the
// +1/-1 transitions of connection state machines, so it can never observe a
// decrement without a matching prior increment.
type presenceTracker struct {
	mu    sync.Mutex
	count int
}

func newPresenceTracker() *presenceTracker {
	return &presenceTracker{}
}

// increment records a newly authorized connection and returns the new count.
func (p *presenceTracker) increment() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.count++
	return p.count
}

// decrement records a closed connection and returns the new count.
//
// A negative result means the connection set and the counter have drifted
// apart; that invariant break is not recoverable, so the process dies
// rather than keep serving inconsistent presence.
func (p *presenceTracker) decrement() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.count--
	if p.count < 0 {
		panic(fmt.Sprintf("presence count went negative: %d", p.count))
	}
	return p.count
}

// current returns the live count.
func (p *presenceTracker) current() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.count
}
