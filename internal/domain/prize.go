package domain

import "time"

// PrizeKind is what a prize entry pays out
type PrizeKind string

const (
	PrizeCredits  PrizeKind = "credits"
	PrizeWishlist PrizeKind = "wishlist"
)

// PrizeEntry is one pending or delivered tournament reward. The ID is the
// ledger sequence value at creation and stays unique for the document's
// lifetime.
type PrizeEntry struct {
	ID           int       `json:"id"`
	Kind         PrizeKind `json:"kind"`
	Amount       int       `json:"amount,omitempty"`
	Count        int       `json:"count,omitempty"`
	WinnerID     int64     `json:"winner_id"`
	WinnerName   string    `json:"winner_name"`
	RoomID       string    `json:"room_id"`
	TournamentID string    `json:"tournament_id"`
	CreatedAt    time.Time `json:"created_at"`
}

// PrizeLedger is the queue of open and delivered rewards. Entries move from
// open to closed exactly once, by ID.
type PrizeLedger struct {
	Version  int          `json:"version"`
	Sequence int          `json:"sequence"`
	Open     []PrizeEntry `json:"open"`
	Closed   []PrizeEntry `json:"closed"`
}

// DefaultPrizeLedger is the document value when nothing has been stored.
func DefaultPrizeLedger() *PrizeLedger {
	return &PrizeLedger{Version: 1}
}

// Append assigns the next sequence ID to the entry and places it on the
// open queue, returning the stored entry.
func (l *PrizeLedger) Append(e PrizeEntry) PrizeEntry {
	l.Sequence++
	e.ID = l.Sequence
	l.Open = append(l.Open, e)
	return e
}

// MarkDelivered moves an open entry to the closed list by ID. Returns false
// when no open entry has that ID.
func (l *PrizeLedger) MarkDelivered(id int) (PrizeEntry, bool) {
	for i, e := range l.Open {
		if e.ID == id {
			l.Open = append(l.Open[:i], l.Open[i+1:]...)
			l.Closed = append(l.Closed, e)
			return e, true
		}
	}
	return PrizeEntry{}, false
}
