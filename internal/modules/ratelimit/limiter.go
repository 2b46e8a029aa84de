package ratelimit

import (
	"strings"
	"sync"
	"time"
)

// Policy is one event type's quota: at most Max events per Window.
type Policy struct {
	Max    int
	Window time.Duration
}

// Default socket event policies.
var (
	Chat     = Policy{Max: 10, Window: time.Minute}
	Location = Policy{Max: 60, Window: time.Minute}
	General  = Policy{Max: 30, Window: time.Minute}
)

// Limiter is a per-connection, per-event sliding window counter guarding the
// socket hot path. Timestamps are pruned lazily on every check and by the
// periodic Sweep.
type Limiter struct {
	mu       sync.Mutex
	requests map[string][]time.Time
	now      func() time.Time
}

func NewLimiter() *Limiter {
	return &Limiter{
		requests: make(map[string][]time.Time),
		now:      time.Now,
	}
}

func key(sid, event string) string { return sid + ":" + event }

// Allow records one event if the (sid, event) window has quota left and
// reports whether it was admitted. A rejected call does not mutate the
// window.
func (l *Limiter) Allow(sid, event string, p Policy) bool {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	k := key(sid, event)
	valid := pruneBefore(l.requests[k], now.Add(-p.Window))
	if len(valid) >= p.Max {
		l.requests[k] = valid
		return false
	}
	l.requests[k] = append(valid, now)
	return true
}

// Remaining reports the quota left in the current window without consuming
// any of it.
func (l *Limiter) Remaining(sid, event string, p Policy) int {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	valid := pruneBefore(l.requests[key(sid, event)], now.Add(-p.Window))
	if rem := p.Max - len(valid); rem > 0 {
		return rem
	}
	return 0
}

// Reset drops all windows belonging to a connection. Called on disconnect
// so the memory is reclaimed immediately instead of waiting for Sweep.
func (l *Limiter) Reset(sid string) {
	prefix := sid + ":"
	l.mu.Lock()
	defer l.mu.Unlock()
	for k := range l.requests {
		if strings.HasPrefix(k, prefix) {
			delete(l.requests, k)
		}
	}
}

// Sweep prunes every window and deletes entries that emptied out, returning
// the number of deleted keys. Run periodically at roughly the window
// duration.
func (l *Limiter) Sweep(window time.Duration) int {
	cutoff := l.now().Add(-window)

	l.mu.Lock()
	defer l.mu.Unlock()

	deleted := 0
	for k, times := range l.requests {
		valid := pruneBefore(times, cutoff)
		if len(valid) == 0 {
			delete(l.requests, k)
			deleted++
			continue
		}
		l.requests[k] = valid
	}
	return deleted
}

func pruneBefore(times []time.Time, cutoff time.Time) []time.Time {
	out := times[:0:0]
	for _, ts := range times {
		if ts.After(cutoff) {
			out = append(out, ts)
		}
	}
	return out
}
