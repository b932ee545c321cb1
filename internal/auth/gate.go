package auth

import (
	"sync"
	"time"
)

// CodeGate is a one-shot latch released when the OAuth callback delivers an
// authorization code.
type CodeGate struct {
	once sync.Once
	ch   chan struct{}
}

// NewCodeGate creates a closed gate.
func NewCodeGate() *CodeGate {
	return &CodeGate{ch: make(chan struct{})}
}

// Release opens the gate. Calls after the first are no-ops.
func (g *CodeGate) Release() {
	g.once.Do(func() { close(g.ch) })
}

// Wait blocks until the gate opens or timeout elapses, reporting whether it
// opened. It cannot be cancelled.
func (g *CodeGate) Wait(timeout time.Duration) bool {
	select {
	case <-g.ch:
		return true
	default:
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-g.ch:
		return true
	case <-timer.C:
		return false
	}
}
