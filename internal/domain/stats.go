package domain

// StatCounters holds win/kill tallies keyed by player ID string.
// Counters only ever increase.
type StatCounters struct {
	Wins  map[string]int `json:"wins"`
	Kills map[string]int `json:"kills"`
}

// NewStatCounters returns empty, non-nil counters.
func NewStatCounters() *StatCounters {
	return &StatCounters{
		Wins:  make(map[string]int),
		Kills: make(map[string]int),
	}
}

// Bump adds delta to a counter map, creating the entry if needed.
func Bump(m map[string]int, playerID int64, delta int) {
	m[Key(playerID)] += delta
}

// LifetimeStats is the persistent global/per-room win and kill ledger.
// Updated exactly once per finished match.
type LifetimeStats struct {
	Version int                      `json:"version"`
	Global  *StatCounters            `json:"global"`
	Rooms   map[string]*StatCounters `json:"rooms"`
}

// DefaultLifetimeStats is the document value when nothing has been stored.
func DefaultLifetimeStats() *LifetimeStats {
	return &LifetimeStats{
		Version: 1,
		Global:  NewStatCounters(),
		Rooms:   make(map[string]*StatCounters),
	}
}

// Room returns the counters for a room scope, creating them if absent.
func (s *LifetimeStats) Room(roomID string) *StatCounters {
	if s.Rooms == nil {
		s.Rooms = make(map[string]*StatCounters)
	}
	c, ok := s.Rooms[roomID]
	if !ok {
		c = NewStatCounters()
		s.Rooms[roomID] = c
	}
	return c
}
