package presence

import (
	"errors"
	"sync"
	"time"

	"github.com/sure-link/core/internal/modules/geo"
	"github.com/sure-link/core/internal/pkg/sanitize"
)

// ErrInvalidPosition is returned when an update carries coordinates outside
// the valid latitude/longitude range.
var ErrInvalidPosition = errors.New("position out of latitude/longitude range")

const maxNicknameLen = 50

// UserPresence is the last known state of one live connection.
type UserPresence struct {
	SID         string       `json:"-"`
	Nickname    string       `json:"nickname"`
	Position    geo.Position `json:"position"`
	LastUpdated time.Time    `json:"-"`
}

// Store holds the in-memory position of every connection that has sent at
// least one location update. It is the sole owner of its entries; readers
// get copies via Snapshot or Get.
type Store struct {
	mu    sync.RWMutex
	users map[string]UserPresence
	now   func() time.Time
}

func NewStore() *Store {
	return &Store{
		users: make(map[string]UserPresence),
		now:   time.Now,
	}
}

// Upsert records a connection's position, creating the entry on first
// update. The nickname falls back to a short prefix of the connection id,
// matching what clients display before a name is chosen. Returns
// ErrInvalidPosition without mutating anything when the coordinates are out
// of range.
func (s *Store) Upsert(sid string, pos geo.Position, nickname string) (UserPresence, error) {
	if !pos.InRange() {
		return UserPresence{}, ErrInvalidPosition
	}

	nickname = sanitize.Truncate(sanitize.String(nickname), maxNicknameLen)
	if nickname == "" {
		nickname = sanitize.Truncate(sid, 5)
	}

	entry := UserPresence{
		SID:         sid,
		Nickname:    nickname,
		Position:    pos,
		LastUpdated: s.now(),
	}

	s.mu.Lock()
	s.users[sid] = entry
	s.mu.Unlock()
	return entry, nil
}

// Remove deletes a connection's entry. Removing an unknown id is a no-op.
func (s *Store) Remove(sid string) {
	s.mu.Lock()
	delete(s.users, sid)
	s.mu.Unlock()
}

// Get returns a copy of one entry.
func (s *Store) Get(sid string) (UserPresence, bool) {
	s.mu.RLock()
	entry, ok := s.users[sid]
	s.mu.RUnlock()
	return entry, ok
}

// Snapshot returns a copy of all live entries. Later mutations of the store
// are not visible through it.
func (s *Store) Snapshot() map[string]UserPresence {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]UserPresence, len(s.users))
	for sid, entry := range s.users {
		out[sid] = entry
	}
	return out
}

// Count returns the number of live entries.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.users)
}

// EvictStale removes every entry whose last update is older than maxAge and
// returns the number removed. Safety net for connections that vanished
// without a disconnect event.
func (s *Store) EvictStale(maxAge time.Duration) int {
	cutoff := s.now().Add(-maxAge)

	s.mu.Lock()
	defer s.mu.Unlock()
	evicted := 0
	for sid, entry := range s.users {
		if entry.LastUpdated.Before(cutoff) {
			delete(s.users, sid)
			evicted++
		}
	}
	return evicted
}
