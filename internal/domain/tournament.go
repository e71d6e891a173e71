package domain

import "time"

// PrizeMode controls how a tournament win is rewarded
type PrizeMode string

const (
	PrizeModeCredits  PrizeMode = "credits"
	PrizeModeWishlist PrizeMode = "wishlist"
	PrizeModeMixed    PrizeMode = "mixed"
)

// ValidPrizeMode reports whether m is one of the three supported modes.
func ValidPrizeMode(m PrizeMode) bool {
	return m == PrizeModeCredits || m == PrizeModeWishlist || m == PrizeModeMixed
}

// TournamentState is the singleton document describing the active
// tournament, if any. Sessions snapshot EntryFee/Active at creation and
// never re-read them mid-match.
type TournamentState struct {
	Version             int        `json:"version"`
	Active              bool       `json:"active"`
	ID                  string     `json:"id,omitempty"`
	Name                string     `json:"name,omitempty"`
	EntryFee            int        `json:"entry_fee"`
	RoomID              string     `json:"room_id,omitempty"`
	CreatedAt           *time.Time `json:"created_at,omitempty"`
	GamesTarget         int        `json:"games_target"`
	GamesPlayed         int        `json:"games_played"`
	PrizeMode           PrizeMode  `json:"prize_mode"`
	WishlistCount       int        `json:"wishlist_count"`
	MixedCreditsPercent int        `json:"mixed_credits_percent"`
}

// DefaultTournamentState is the document value when nothing has been stored.
func DefaultTournamentState() *TournamentState {
	return &TournamentState{
		Version:             1,
		Active:              false,
		EntryFee:            100,
		PrizeMode:           PrizeModeCredits,
		WishlistCount:       2,
		MixedCreditsPercent: 70,
	}
}

// TournamentStats accumulates per-tournament results, keyed by player ID
// string. Never mutated after its tournament is closed.
type TournamentStats struct {
	Wins       map[string]int    `json:"wins"`
	Kills      map[string]int    `json:"kills"`
	CreditsWon map[string]int    `json:"credits_won"`
	Names      map[string]string `json:"names"`
	Games      int               `json:"games"`
	Pots       int               `json:"pots"`
}

// NewTournamentStats returns an empty stats block.
func NewTournamentStats() *TournamentStats {
	return &TournamentStats{
		Wins:       make(map[string]int),
		Kills:      make(map[string]int),
		CreditsWon: make(map[string]int),
		Names:      make(map[string]string),
	}
}

// TournamentStatsDoc is the document holding historical stats for every
// tournament ever run, keyed by tournament ID.
type TournamentStatsDoc struct {
	Version     int                         `json:"version"`
	Tournaments map[string]*TournamentStats `json:"tournaments"`
}

// DefaultTournamentStatsDoc is the document value when nothing has been stored.
func DefaultTournamentStatsDoc() *TournamentStatsDoc {
	return &TournamentStatsDoc{
		Version:     1,
		Tournaments: make(map[string]*TournamentStats),
	}
}

// Tournament returns the stats block for a tournament, creating it if absent.
func (d *TournamentStatsDoc) Tournament(id string) *TournamentStats {
	if d.Tournaments == nil {
		d.Tournaments = make(map[string]*TournamentStats)
	}
	ts, ok := d.Tournaments[id]
	if !ok {
		ts = NewTournamentStats()
		d.Tournaments[id] = ts
	}
	return ts
}

// LeaderboardRow is one ranked entry of a tournament leaderboard.
type LeaderboardRow struct {
	Rank     int    `json:"rank"`
	PlayerID int64  `json:"player_id"`
	Name     string `json:"name,omitempty"`
	Wins     int    `json:"wins"`
	Credits  int    `json:"credits"`
	Kills    int    `json:"kills"`
}

// TournamentResult is the final leaderboard published when a tournament ends.
type TournamentResult struct {
	ID       string           `json:"id"`
	Name     string           `json:"name"`
	Games    int              `json:"games"`
	Pots     int              `json:"pots"`
	EntryFee int              `json:"entry_fee"`
	Top      []LeaderboardRow `json:"top"`
}
