package encounter

import (
	"sort"
	"strings"
	"sync"
	"time"
)

// Ledger remembers when each unordered pair of connections last triggered an
// encounter, so that two users lingering near each other are not notified on
// every position update.
type Ledger struct {
	mu       sync.Mutex
	pairs    map[string]time.Time
	cooldown time.Duration
	now      func() time.Time
}

func NewLedger(cooldown time.Duration) *Ledger {
	return &Ledger{
		pairs:    make(map[string]time.Time),
		cooldown: cooldown,
		now:      time.Now,
	}
}

// PairKey canonicalizes an unordered connection pair: PairKey(a,b) ==
// PairKey(b,a).
func PairKey(a, b string) string {
	ids := []string{a, b}
	sort.Strings(ids)
	return strings.Join(ids, ":")
}

// ShouldTrigger reports whether the pair is outside its cooldown window
// (or has never triggered).
func (l *Ledger) ShouldTrigger(a, b string) bool {
	key := PairKey(a, b)
	l.mu.Lock()
	defer l.mu.Unlock()
	last, ok := l.pairs[key]
	if !ok {
		return true
	}
	return l.now().Sub(last) > l.cooldown
}

// RecordTrigger stamps the pair with the current time, starting (or
// restarting) its cooldown window.
func (l *Ledger) RecordTrigger(a, b string) {
	key := PairKey(a, b)
	l.mu.Lock()
	l.pairs[key] = l.now()
	l.mu.Unlock()
}

// Sweep deletes entries older than the cooldown window and returns the
// number removed. Run periodically to bound memory.
func (l *Ledger) Sweep() int {
	cutoff := l.now().Add(-l.cooldown)
	l.mu.Lock()
	defer l.mu.Unlock()
	removed := 0
	for key, last := range l.pairs {
		if last.Before(cutoff) {
			delete(l.pairs, key)
			removed++
		}
	}
	return removed
}

// Len returns the number of live pair entries.
func (l *Ledger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.pairs)
}
