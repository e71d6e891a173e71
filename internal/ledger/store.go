// Package ledger defines the persistent document store behind the game:
// four JSON documents loaded whole, mutated in memory and saved whole.
// Writes are tiny and infrequent, one per finished match or admin action.
package ledger

import (
	"context"

	"github.com/bitefight-arena/internal/domain"
)

// Document keys. Each names one row in the backing documents table.
const (
	DocLifetimeStats   = "lifetime_stats"
	DocTournamentState = "tournament_state"
	DocTournamentStats = "tournament_stats"
	DocPrizeLedger     = "prize_ledger"
)

// MatchCommit carries every document touched by one match finish. Nil
// fields are left untouched; the store writes the rest atomically so a
// crash never records lifetime stats without the matching prize entry.
type MatchCommit struct {
	Lifetime        *domain.LifetimeStats
	Tournament      *domain.TournamentState
	TournamentStats *domain.TournamentStatsDoc
	Prizes          *domain.PrizeLedger
}

// Store is the persistence boundary for the game documents. Load methods
// return the document's default value when nothing has been stored yet.
type Store interface {
	LoadLifetimeStats(ctx context.Context) (*domain.LifetimeStats, error)
	SaveLifetimeStats(ctx context.Context, doc *domain.LifetimeStats) error

	LoadTournamentState(ctx context.Context) (*domain.TournamentState, error)
	SaveTournamentState(ctx context.Context, doc *domain.TournamentState) error

	LoadTournamentStats(ctx context.Context) (*domain.TournamentStatsDoc, error)
	SaveTournamentStats(ctx context.Context, doc *domain.TournamentStatsDoc) error

	LoadPrizeLedger(ctx context.Context) (*domain.PrizeLedger, error)
	SavePrizeLedger(ctx context.Context, doc *domain.PrizeLedger) error

	// CommitMatchFinish writes all of a finish's documents in one
	// transaction.
	CommitMatchFinish(ctx context.Context, commit MatchCommit) error

	Close()
}
