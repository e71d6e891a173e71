package domain

import "time"

// Phase is the lifecycle state of a room's game session
type Phase string

const (
	PhaseLobby    Phase = "lobby"
	PhaseRunning  Phase = "running"
	PhaseFinished Phase = "finished"
)

// ActionKind identifies what produced a round event
type ActionKind string

const (
	ActionBite      ActionKind = "bite"
	ActionFight     ActionKind = "fight"
	ActionBleed     ActionKind = "bleed"
	ActionStalemate ActionKind = "stalemate"
)

// Outcome identifies how an action resolved
type Outcome string

const (
	OutcomeHit  Outcome = "hit"
	OutcomeMiss Outcome = "miss"
	OutcomeCrit Outcome = "crit"
)

// RoundEvent is one resolved action within a round. Narration is derived
// from the structured fields; downstream consumers never parse the text.
type RoundEvent struct {
	Kind       ActionKind `json:"kind"`
	Outcome    Outcome    `json:"outcome,omitempty"`
	AttackerID int64      `json:"attacker_id,omitempty"`
	TargetID   int64      `json:"target_id,omitempty"`
	Damage     int        `json:"damage,omitempty"`
	BleedStack int        `json:"bleed_stack,omitempty"`
	Fatal      bool       `json:"fatal,omitempty"`
	Text       string     `json:"text"`
}

// KeyPlay is the single event chosen for illustration, with the pair
// identified for the rendering collaborator. Swap asks the renderer to
// mirror the card layout; AttackerMissed asks it to fade the attacker
// instead of the target.
type KeyPlay struct {
	Attacker       Player `json:"attacker"`
	Target         Player `json:"target"`
	Text           string `json:"text"`
	AttackerMissed bool   `json:"attacker_missed"`
	Swap           bool   `json:"swap"`
}

// PlayerHealth is one row of the per-round health snapshot, in roster order.
type PlayerHealth struct {
	Player Player `json:"player"`
	HP     int    `json:"hp"`
	MaxHP  int    `json:"max_hp"`
}

// RoundResult is everything a resolved round produced.
type RoundResult struct {
	Round   int            `json:"round"`
	Intro   string         `json:"intro,omitempty"`
	Events  []RoundEvent   `json:"events"`
	Health  []PlayerHealth `json:"health"`
	KeyPlay *KeyPlay       `json:"key_play,omitempty"`
}

// MatchResult is handed to the finish path exactly once per clean
// termination. Winner is nil when everyone fell.
type MatchResult struct {
	RoomID       string
	Winner       *Player
	Roster       []Player
	Kills        map[int64]int
	Rounds       int
	Duration     time.Duration
	IsTournament bool
	EntryFee     int
	Pot          int
}

// TotalKills sums the kills credited during the match's attack phases.
func (r *MatchResult) TotalKills() int {
	total := 0
	for _, k := range r.Kills {
		total += k
	}
	return total
}

// MatchSummary is the payload emitted to the room when a match ends.
type MatchSummary struct {
	RoomID     string  `json:"room_id"`
	Winner     *Player `json:"winner,omitempty"`
	TotalKills int     `json:"total_kills"`
	Rounds     int     `json:"rounds"`
	DurationS  int     `json:"duration_seconds"`
	RoomWins   int     `json:"room_wins,omitempty"`
	GlobalWins int     `json:"global_wins,omitempty"`
	Pot        int     `json:"pot,omitempty"`
}

// LobbyInfo describes an open lobby back to the caller that started it.
type LobbyInfo struct {
	RoomID       string        `json:"room_id"`
	Host         Player        `json:"host"`
	ClosesIn     time.Duration `json:"closes_in"`
	IsTournament bool          `json:"is_tournament"`
	EntryFee     int           `json:"entry_fee,omitempty"`
}

// PotInfo answers the pot query for a tournament-scoped session.
type PotInfo struct {
	RoomID   string `json:"room_id"`
	Pot      int    `json:"pot"`
	EntryFee int    `json:"entry_fee"`
	Players  int    `json:"players"`
}

// Profile is a player's lifetime record, room-scoped and global.
type Profile struct {
	PlayerID    int64 `json:"player_id"`
	RoomWins    int   `json:"room_wins"`
	RoomKills   int   `json:"room_kills"`
	GlobalWins  int   `json:"global_wins"`
	GlobalKills int   `json:"global_kills"`
}
