// Package gate decides when a metric source may start a new fetch.
//
// A Gate opens once the minimum interval has passed since the last
// successful fetch, and never while another fetch is still running.
// Failed fetches do not move the clock, so a failing source retries on
// the next read after the interval elapses from its last success.
package gate

import (
	"sync"
	"time"
)

// State is a point-in-time copy of a gate's bookkeeping.
type State struct {
	LastSuccess time.Time
	InFlight    bool
	MinInterval time.Duration
}

// Gate is safe for concurrent use.
type Gate struct {
	mu          sync.Mutex
	minInterval time.Duration
	lastSuccess time.Time
	inFlight    bool
}

// New returns a gate that has never succeeded, so the first check opens it.
func New(minInterval time.Duration) *Gate {
	return &Gate{minInterval: minInterval}
}

// ShouldStart reports whether a fetch could start at now.
// It does not reserve the slot; use TryStart for that.
func (g *Gate) ShouldStart(now time.Time) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.openLocked(now)
}

func (g *Gate) openLocked(now time.Time) bool {
	if g.inFlight {
		return false
	}
	if g.lastSuccess.IsZero() {
		return true
	}
	return now.Sub(g.lastSuccess) > g.minInterval
}

// MarkStarted records that a fetch is running. It returns false and
// changes nothing when one is already in flight.
func (g *Gate) MarkStarted() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.inFlight {
		return false
	}
	g.inFlight = true
	return true
}

// TryStart checks the gate and reserves it in one step. Exactly one of
// any number of concurrent callers can win a given window.
func (g *Gate) TryStart(now time.Time) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.openLocked(now) {
		return false
	}
	g.inFlight = true
	return true
}

// Finish releases the in-flight slot. Only a successful fetch moves the
// last-success time forward.
func (g *Gate) Finish(now time.Time, success bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.inFlight = false
	if success {
		g.lastSuccess = now
	}
}

// State returns a copy of the gate's bookkeeping.
func (g *Gate) State() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return State{
		LastSuccess: g.lastSuccess,
		InFlight:    g.inFlight,
		MinInterval: g.minInterval,
	}
}

// NextEligible is the earliest instant after which the gate opens, ignoring
// any fetch in flight. The zero time means it is open now.
func (g *Gate) NextEligible() time.Time {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.lastSuccess.IsZero() {
		return time.Time{}
	}
	return g.lastSuccess.Add(g.minInterval)
}

// MinInterval returns the configured interval.
func (g *Gate) MinInterval() time.Duration {
	return g.minInterval
}
