package bsky

import (
	"sync"
	"time"
)

// AuthGuard suppresses repeated attempts against a failing credential. After
// a recorded failure, Allow reports false until the cooldown window elapses.
// Requests record failures from whichever goroutine is in flight, so the
// failure timestamp is guarded by a mutex.
type AuthGuard struct {
	cooldown time.Duration

	mu       sync.Mutex
	lastFail time.Time
	now      func() time.Time
}

// NewAuthGuard creates a guard with the given cooldown window.
func NewAuthGuard(cooldown time.Duration) *AuthGuard {
	return &AuthGuard{cooldown: cooldown, now: time.Now}
}

// Allow reports whether an authenticated attempt may proceed.
func (g *AuthGuard) Allow() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.lastFail.IsZero() {
		return true
	}
	return g.now().Sub(g.lastFail) >= g.cooldown
}

// Failure records an authentication failure, starting the cooldown.
func (g *AuthGuard) Failure() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.lastFail = g.now()
}

// Reset clears any recorded failure, typically after a successful login.
func (g *AuthGuard) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.lastFail = time.Time{}
}

// Remaining returns how long until attempts are allowed again.
func (g *AuthGuard) Remaining() time.Duration {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.lastFail.IsZero() {
		return 0
	}
	rem := g.cooldown - g.now().Sub(g.lastFail)
	if rem < 0 {
		return 0
	}
	return rem
}
