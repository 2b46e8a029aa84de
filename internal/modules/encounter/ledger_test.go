package encounter

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPairKeyIsSymmetric(t *testing.T) {
	assert.Equal(t, PairKey("a", "b"), PairKey("b", "a"))
	assert.Equal(t, "a:b", PairKey("b", "a"))
	assert.Equal(t, "x:x", PairKey("x", "x"))
}

func TestShouldTriggerCooldownWindow(t *testing.T) {
	l := NewLedger(5 * time.Minute)
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return base }

	assert.True(t, l.ShouldTrigger("a", "b"), "unknown pair triggers")
	l.RecordTrigger("a", "b")

	// Halfway through the cooldown: suppressed, from either side.
	l.now = func() time.Time { return base.Add(150 * time.Second) }
	assert.False(t, l.ShouldTrigger("a", "b"))
	assert.False(t, l.ShouldTrigger("b", "a"))

	// Just past the cooldown: triggers again.
	l.now = func() time.Time { return base.Add(5*time.Minute + time.Millisecond) }
	assert.True(t, l.ShouldTrigger("a", "b"))
}

func TestRecordTriggerRefreshesExistingEntry(t *testing.T) {
	l := NewLedger(5 * time.Minute)
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	l.now = func() time.Time { return base }
	l.RecordTrigger("a", "b")
	assert.Equal(t, 1, l.Len())

	l.now = func() time.Time { return base.Add(6 * time.Minute) }
	l.RecordTrigger("b", "a")
	assert.Equal(t, 1, l.Len(), "at most one live entry per unordered pair")

	// The bump restarted the window.
	l.now = func() time.Time { return base.Add(8 * time.Minute) }
	assert.False(t, l.ShouldTrigger("a", "b"))
}

func TestSweepRemovesOnlyExpiredEntries(t *testing.T) {
	l := NewLedger(5 * time.Minute)
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	l.now = func() time.Time { return base }
	l.RecordTrigger("a", "b")

	l.now = func() time.Time { return base.Add(4 * time.Minute) }
	l.RecordTrigger("c", "d")

	l.now = func() time.Time { return base.Add(6 * time.Minute) }
	removed := l.Sweep()

	assert.Equal(t, 1, removed)
	assert.Equal(t, 1, l.Len())
	assert.True(t, l.ShouldTrigger("a", "b"))
	assert.False(t, l.ShouldTrigger("c", "d"))
}
