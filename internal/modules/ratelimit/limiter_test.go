package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAllowEnforcesQuota(t *testing.T) {
	l := NewLimiter()
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return base }

	p := Policy{Max: 10, Window: time.Minute}
	for i := 0; i < 10; i++ {
		l.now = func() time.Time { return base.Add(time.Duration(i) * time.Second) }
		assert.True(t, l.Allow("sid", "chat", p), "call %d should pass", i+1)
	}

	l.now = func() time.Time { return base.Add(11 * time.Second) }
	assert.False(t, l.Allow("sid", "chat", p), "11th call inside the window is rejected")

	// Once the window has elapsed from the first call, quota frees up.
	l.now = func() time.Time { return base.Add(time.Minute + time.Second) }
	assert.True(t, l.Allow("sid", "chat", p))
}

func TestAllowIsolatesConnectionsAndEvents(t *testing.T) {
	l := NewLimiter()
	p := Policy{Max: 1, Window: time.Minute}

	assert.True(t, l.Allow("a", "chat", p))
	assert.False(t, l.Allow("a", "chat", p))
	assert.True(t, l.Allow("a", "location", p), "different event, separate window")
	assert.True(t, l.Allow("b", "chat", p), "different connection, separate window")
}

func TestRejectionDoesNotExtendWindow(t *testing.T) {
	l := NewLimiter()
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	p := Policy{Max: 1, Window: time.Minute}

	l.now = func() time.Time { return base }
	assert.True(t, l.Allow("sid", "chat", p))

	// Hammering while limited must not push the window forward.
	for i := 1; i < 30; i++ {
		l.now = func() time.Time { return base.Add(time.Duration(i) * time.Second) }
		assert.False(t, l.Allow("sid", "chat", p))
	}
	l.now = func() time.Time { return base.Add(61 * time.Second) }
	assert.True(t, l.Allow("sid", "chat", p))
}

func TestRemainingDoesNotMutate(t *testing.T) {
	l := NewLimiter()
	p := Policy{Max: 3, Window: time.Minute}

	assert.Equal(t, 3, l.Remaining("sid", "chat", p))
	assert.Equal(t, 3, l.Remaining("sid", "chat", p))

	l.Allow("sid", "chat", p)
	l.Allow("sid", "chat", p)
	assert.Equal(t, 1, l.Remaining("sid", "chat", p))

	l.Allow("sid", "chat", p)
	l.Allow("sid", "chat", p) // rejected
	assert.Equal(t, 0, l.Remaining("sid", "chat", p))
}

func TestResetClearsAllWindowsForConnection(t *testing.T) {
	l := NewLimiter()
	p := Policy{Max: 1, Window: time.Minute}

	l.Allow("a", "chat", p)
	l.Allow("a", "location", p)
	l.Allow("b", "chat", p)

	l.Reset("a")
	assert.True(t, l.Allow("a", "chat", p))
	assert.True(t, l.Allow("a", "location", p))
	assert.False(t, l.Allow("b", "chat", p), "other connections keep their windows")
}

func TestSweepDeletesExpiredKeys(t *testing.T) {
	l := NewLimiter()
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	p := Policy{Max: 5, Window: time.Minute}

	l.now = func() time.Time { return base }
	l.Allow("old", "chat", p)

	l.now = func() time.Time { return base.Add(50 * time.Second) }
	l.Allow("fresh", "chat", p)

	l.now = func() time.Time { return base.Add(70 * time.Second) }
	deleted := l.Sweep(time.Minute)

	assert.Equal(t, 1, deleted)
	assert.Len(t, l.requests, 1)
}
