package storage

import "sync"

// HandlerGuard gates deliveries to a change handler so a subscription can be
// torn down cleanly: once Close returns, the handler never runs again, even
// for a notification that was already in flight when Close was called.
type HandlerGuard struct {
	mu      sync.Mutex
	closed  bool
	handler func(Change)
}

// NewHandlerGuard wraps a change handler.
func NewHandlerGuard(handler func(Change)) *HandlerGuard {
	return &HandlerGuard{handler: handler}
}

// Deliver invokes the handler unless the guard is closed.
func (g *HandlerGuard) Deliver(ch Change) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.closed {
		return
	}
	g.handler(ch)
}

// Close shuts delivery off permanently. It blocks until any in-flight
// delivery has finished.
func (g *HandlerGuard) Close() {
	g.mu.Lock()
	g.closed = true
	g.mu.Unlock()
}
