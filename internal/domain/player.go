package domain

import "strconv"

// Player is an opaque identity supplied by the chat gateway. The core never
// mutates it; the numeric ID is stable, the display name is whatever the
// gateway currently shows for the user.
type Player struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Bot  bool   `json:"bot,omitempty"`
}

// Key returns the string form of a player ID used as a map key inside the
// ledger documents.
func Key(playerID int64) string {
	return strconv.FormatInt(playerID, 10)
}

// ParseKey converts a ledger map key back into a player ID.
func ParseKey(key string) int64 {
	id, _ := strconv.ParseInt(key, 10, 64)
	return id
}
