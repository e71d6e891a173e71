package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bitefight-arena/internal/domain"
)

func TestStartTournamentValidation(t *testing.T) {
	s, _, _ := newTestService()
	ctx := context.Background()

	if _, err := s.StartTournament(ctx, "Cheap Cup", -5, 0, ""); !errors.Is(err, domain.ErrInvalidAnte) {
		t.Fatalf("expected ErrInvalidAnte, got %v", err)
	}
	if _, err := s.StartTournament(ctx, "Rich Cup", MaxAnte+1, 0, ""); !errors.Is(err, domain.ErrInvalidAnte) {
		t.Fatalf("expected ErrInvalidAnte, got %v", err)
	}

	state, err := s.StartTournament(ctx, "Default Cup", 0, 0, "")
	if err != nil {
		t.Fatalf("start tournament: %v", err)
	}
	if state.EntryFee != 100 {
		t.Fatalf("zero fee must fall back to the default ante, got %d", state.EntryFee)
	}
	if state.ID == "" || state.CreatedAt == nil {
		t.Fatalf("expected id and creation time, got %+v", state)
	}

	if _, err := s.StartTournament(ctx, "Second Cup", 50, 0, ""); !errors.Is(err, domain.ErrTournamentActive) {
		t.Fatalf("expected ErrTournamentActive, got %v", err)
	}
}

func TestEndTournamentPublishesResult(t *testing.T) {
	s, store, b := newTestService()
	ctx := context.Background()

	if _, err := s.EndTournament(ctx); !errors.Is(err, domain.ErrNoActiveTournament) {
		t.Fatalf("expected ErrNoActiveTournament, got %v", err)
	}

	state, err := s.StartTournament(ctx, "Final Cup", 100, 0, "")
	if err != nil {
		t.Fatalf("start tournament: %v", err)
	}
	playMatch(t, s, b, "room-1")

	result, err := s.EndTournament(ctx)
	if err != nil {
		t.Fatalf("end tournament: %v", err)
	}
	if result.ID != state.ID || result.Games != 1 || result.Pots != 200 {
		t.Fatalf("unexpected result %+v", result)
	}
	if len(result.Top) == 0 || result.Top[0].Wins != 1 {
		t.Fatalf("expected the winner on top, got %+v", result.Top)
	}

	cleared, _ := store.LoadTournamentState(ctx)
	if cleared.Active || cleared.ID != "" {
		t.Fatalf("ended tournament must deactivate and clear its id, got %+v", cleared)
	}

	select {
	case <-b.tournament:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for tournament end broadcast")
	}
}

func TestSetPrizeModeClampsInputs(t *testing.T) {
	s, _, _ := newTestService()
	ctx := context.Background()

	if _, err := s.SetPrizeMode(ctx, domain.PrizeMode("jackpot"), 0, 0); !errors.Is(err, domain.ErrInvalidPrizeMode) {
		t.Fatalf("expected ErrInvalidPrizeMode, got %v", err)
	}

	state, err := s.SetPrizeMode(ctx, domain.PrizeModeWishlist, 99, 0)
	if err != nil {
		t.Fatalf("set prize mode: %v", err)
	}
	if state.WishlistCount != 10 {
		t.Fatalf("wishlist count must clamp to 10, got %d", state.WishlistCount)
	}

	state, err = s.SetPrizeMode(ctx, domain.PrizeModeMixed, -3, 250)
	if err != nil {
		t.Fatalf("set prize mode: %v", err)
	}
	if state.WishlistCount != 1 {
		t.Fatalf("wishlist count must clamp to 1, got %d", state.WishlistCount)
	}
	if state.MixedCreditsPercent != 100 {
		t.Fatalf("credits percent must clamp to 100, got %d", state.MixedCreditsPercent)
	}
}

func TestRoomAnteOverridesTournamentFee(t *testing.T) {
	s, _, _ := newTestService()
	ctx := context.Background()

	if _, err := s.StartTournament(ctx, "Override Cup", 100, 0, ""); err != nil {
		t.Fatalf("start tournament: %v", err)
	}
	if err := s.SetRoomAnte("room-1", 25); err != nil {
		t.Fatalf("set room ante: %v", err)
	}
	if err := s.SetRoomAnte("room-1", MaxAnte+1); !errors.Is(err, domain.ErrInvalidAnte) {
		t.Fatalf("expected ErrInvalidAnte, got %v", err)
	}

	info, err := s.StartLobby(ctx, "room-1", alice)
	if err != nil {
		t.Fatalf("start lobby: %v", err)
	}
	if info.EntryFee != 25 {
		t.Fatalf("expected room override fee 25, got %d", info.EntryFee)
	}
	if err := s.Stop(ctx, "room-1", "test over"); err != nil {
		t.Fatalf("stop: %v", err)
	}

	// Clearing the override restores the tournament fee.
	if err := s.SetRoomAnte("room-1", 0); err != nil {
		t.Fatalf("clear room ante: %v", err)
	}
	info, err = s.StartLobby(ctx, "room-1", alice)
	if err != nil {
		t.Fatalf("start lobby: %v", err)
	}
	if info.EntryFee != 100 {
		t.Fatalf("expected tournament fee 100, got %d", info.EntryFee)
	}
	_ = s.Stop(ctx, "room-1", "test over")
}

func TestPrizeDeliveryMovesEntriesOnce(t *testing.T) {
	s, _, b := newTestService()
	ctx := context.Background()

	if _, err := s.StartTournament(ctx, "Delivery Cup", 100, 0, ""); err != nil {
		t.Fatalf("start tournament: %v", err)
	}
	playMatch(t, s, b, "room-1")

	queue, err := s.PrizeQueue(ctx)
	if err != nil {
		t.Fatalf("prize queue: %v", err)
	}
	if len(queue.Open) != 1 || len(queue.Closed) != 0 {
		t.Fatalf("expected one open prize, got %+v", queue)
	}
	id := queue.Open[0].ID

	entry, err := s.MarkPrizeDelivered(ctx, id)
	if err != nil {
		t.Fatalf("mark delivered: %v", err)
	}
	if entry.ID != id {
		t.Fatalf("expected entry %d back, got %+v", id, entry)
	}

	if _, err := s.MarkPrizeDelivered(ctx, id); !errors.Is(err, domain.ErrPrizeNotFound) {
		t.Fatalf("expected ErrPrizeNotFound on re-delivery, got %v", err)
	}
	queue, _ = s.PrizeQueue(ctx)
	if len(queue.Open) != 0 || len(queue.Closed) != 1 {
		t.Fatalf("expected entry moved to closed, got %+v", queue)
	}
}

func TestRankStatsOrdering(t *testing.T) {
	stats := domain.NewTournamentStats()
	// Carol: most wins. Alice and Bob tie on wins; Alice leads on credits.
	// Dave ties Bob on wins and credits but leads on kills.
	stats.Wins["1"], stats.CreditsWon["1"], stats.Kills["1"] = 2, 500, 1
	stats.Wins["2"], stats.CreditsWon["2"], stats.Kills["2"] = 2, 100, 9
	stats.Wins["3"], stats.CreditsWon["3"], stats.Kills["3"] = 5, 0, 0
	stats.Wins["4"], stats.CreditsWon["4"], stats.Kills["4"] = 2, 100, 12
	stats.Names["3"] = "Carol"

	rows := rankStats(stats, 10)
	got := make([]int64, len(rows))
	for i, r := range rows {
		got[i] = r.PlayerID
	}
	want := []int64{3, 1, 4, 2}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected order %v, got %v", want, got)
		}
	}
	if rows[0].Rank != 1 || rows[0].Name != "Carol" {
		t.Fatalf("unexpected top row %+v", rows[0])
	}

	if got := rankStats(stats, 2); len(got) != 2 {
		t.Fatalf("expected truncation to 2 rows, got %d", len(got))
	}
}
