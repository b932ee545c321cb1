package auth

import "sync/atomic"

// Readiness is the process-wide flag gating moderation until authorization
// completes. The bootstrap flow is its only writer.
type Readiness struct {
	ready atomic.Bool
}

// MarkReady sets the flag.
func (r *Readiness) MarkReady() {
	r.ready.Store(true)
}

// Ready reports whether authorization has completed.
func (r *Readiness) Ready() bool {
	return r.ready.Load()
}
