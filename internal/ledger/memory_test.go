package ledger

import (
	"context"
	"sync"
	"testing"

	"github.com/bitefight-arena/internal/domain"
)

func TestMemoryStoreReturnsDefaults(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	stats, err := s.LoadLifetimeStats(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if stats.Version != 1 || stats.Global == nil {
		t.Fatalf("expected fresh default document, got %+v", stats)
	}

	state, err := s.LoadTournamentState(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if state.Active || state.EntryFee != 100 || state.PrizeMode != domain.PrizeModeCredits {
		t.Fatalf("unexpected default tournament state: %+v", state)
	}
}

func TestMemoryStoreRoundTripIsolatesCallers(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	doc, _ := s.LoadLifetimeStats(ctx)
	domain.Bump(doc.Global.Wins, 42, 1)
	domain.Bump(doc.Room("room-1").Kills, 42, 3)
	if err := s.SaveLifetimeStats(ctx, doc); err != nil {
		t.Fatalf("save: %v", err)
	}

	// Mutating the saved copy must not leak into the store.
	domain.Bump(doc.Global.Wins, 42, 100)

	reloaded, err := s.LoadLifetimeStats(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got := reloaded.Global.Wins[domain.Key(42)]; got != 1 {
		t.Fatalf("expected 1 win, got %d", got)
	}
	if got := reloaded.Room("room-1").Kills[domain.Key(42)]; got != 3 {
		t.Fatalf("expected 3 room kills, got %d", got)
	}
}

func TestCommitMatchFinishSkipsNilDocuments(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	stats, _ := s.LoadLifetimeStats(ctx)
	domain.Bump(stats.Global.Wins, 7, 1)

	err := s.CommitMatchFinish(ctx, MatchCommit{Lifetime: stats})
	if err != nil {
		t.Fatalf("commit: %v", err)
	}

	reloaded, _ := s.LoadLifetimeStats(ctx)
	if reloaded.Global.Wins[domain.Key(7)] != 1 {
		t.Fatal("lifetime stats were not committed")
	}
	state, _ := s.LoadTournamentState(ctx)
	if state.GamesPlayed != 0 {
		t.Fatal("untouched documents must stay at defaults")
	}

	ledger, _ := s.LoadPrizeLedger(ctx)
	if ledger.Sequence != 0 || len(ledger.Open) != 0 {
		t.Fatalf("expected empty prize ledger, got %+v", ledger)
	}
}

func TestCommitMatchFinishAppliesWholeBatch(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	// Each commit writes a matched pair of markers. Whole-batch application
	// means the store always ends up with both markers from the same commit,
	// whichever one lands last.
	const commits = 100
	var wg sync.WaitGroup
	for i := 0; i < commits; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			lifetime := domain.DefaultLifetimeStats()
			lifetime.Global.Wins[domain.Key(1)] = n
			state := domain.DefaultTournamentState()
			state.GamesPlayed = n
			err := s.CommitMatchFinish(ctx, MatchCommit{Lifetime: lifetime, Tournament: state})
			if err != nil {
				t.Errorf("commit: %v", err)
			}
		}(i)
	}
	wg.Wait()

	lifetime, _ := s.LoadLifetimeStats(ctx)
	state, _ := s.LoadTournamentState(ctx)
	if got := lifetime.Global.Wins[domain.Key(1)]; got != state.GamesPlayed {
		t.Fatalf("commit must land as one unit, got wins %d against games %d", got, state.GamesPlayed)
	}
}
