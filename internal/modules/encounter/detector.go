package encounter

import (
	"sort"

	"github.com/sure-link/core/internal/modules/geo"
	"github.com/sure-link/core/internal/modules/presence"
)

// Match is one qualifying proximity event returned by Detect.
type Match struct {
	SID      string       `json:"userId"`
	Nickname string       `json:"nickname"`
	Distance float64      `json:"distance"`
	Position geo.Position `json:"location"`
}

// NearbyUser is a neighbor within a query radius, without cooldown
// semantics.
type NearbyUser struct {
	SID      string  `json:"userId"`
	Nickname string  `json:"nickname"`
	Distance float64 `json:"distance"`
}

// Detector scans live presence for users within the encounter threshold of
// a just-updated connection. The scan is linear over all entries, which is
// fine at the intended scale of tens to low hundreds of connections.
type Detector struct {
	store     *presence.Store
	ledger    *Ledger
	threshold float64
}

func NewDetector(store *presence.Store, ledger *Ledger, thresholdMeters float64) *Detector {
	return &Detector{store: store, ledger: ledger, threshold: thresholdMeters}
}

// Detect returns every other connection strictly closer than the threshold
// whose pair cooldown has expired. Each returned pair is stamped in the
// ledger before Detect returns, so the very next update from either side
// cannot re-trigger it. A currentID with no recorded position yields an
// empty result.
func (d *Detector) Detect(currentID string) []Match {
	snapshot := d.store.Snapshot()
	current, ok := snapshot[currentID]
	if !ok {
		return nil
	}

	var matches []Match
	for sid, other := range snapshot {
		if sid == currentID {
			continue
		}

		dist := geo.DistanceMeters(current.Position, other.Position)
		if dist >= d.threshold {
			continue
		}
		if !d.ledger.ShouldTrigger(currentID, sid) {
			continue
		}

		d.ledger.RecordTrigger(currentID, sid)
		matches = append(matches, Match{
			SID:      sid,
			Nickname: other.Nickname,
			Distance: dist,
			Position: other.Position,
		})
	}
	return matches
}

// Nearby lists all other connections within radius meters of the given one,
// closest first. Unlike Detect it is a pure query: no cooldown is consulted
// or recorded.
func (d *Detector) Nearby(currentID string, radius float64) []NearbyUser {
	snapshot := d.store.Snapshot()
	current, ok := snapshot[currentID]
	if !ok {
		return nil
	}

	var out []NearbyUser
	for sid, other := range snapshot {
		if sid == currentID {
			continue
		}
		dist := geo.DistanceMeters(current.Position, other.Position)
		if dist <= radius {
			out = append(out, NearbyUser{SID: sid, Nickname: other.Nickname, Distance: dist})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Distance < out[j].Distance })
	return out
}
