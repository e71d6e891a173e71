package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/bitefight-arena/internal/domain"
)

// Entry fee bounds, in credits.
const (
	MinAnte = 1
	MaxAnte = 10_000_000
)

const (
	minWishlistCount = 1
	maxWishlistCount = 10
	leaderboardSize  = 10
)

// StartTournament activates a tournament. Only one can run at a time;
// roomID restricts it to a single room when non-empty, gamesTarget of zero
// means the tournament runs until ended by hand.
func (s *ArenaService) StartTournament(ctx context.Context, name string, entryFee, gamesTarget int, roomID string) (*domain.TournamentState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, err := s.store.LoadTournamentState(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading tournament state: %w", err)
	}
	if state.Active {
		return nil, domain.ErrTournamentActive
	}
	if entryFee == 0 {
		entryFee = s.cfg.DefaultAnte
	}
	if entryFee < MinAnte || entryFee > MaxAnte {
		return nil, domain.ErrInvalidAnte
	}

	now := time.Now()
	state.Active = true
	state.ID = uuid.New().String()
	state.Name = name
	state.EntryFee = entryFee
	state.RoomID = roomID
	state.CreatedAt = &now
	state.GamesTarget = gamesTarget
	state.GamesPlayed = 0

	if err := s.store.SaveTournamentState(ctx, state); err != nil {
		return nil, fmt.Errorf("saving tournament state: %w", err)
	}
	s.logger.Info("tournament started",
		"tournament_id", state.ID,
		"name", name,
		"entry_fee", entryFee,
		"games_target", gamesTarget,
	)
	return state, nil
}

// EndTournament closes the active tournament and publishes its final
// leaderboard. Safe to race with an auto-end; whichever sees Active first
// wins and the other gets ErrNoActiveTournament.
func (s *ArenaService) EndTournament(ctx context.Context) (domain.TournamentResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, err := s.store.LoadTournamentState(ctx)
	if err != nil {
		return domain.TournamentResult{}, fmt.Errorf("loading tournament state: %w", err)
	}
	if !state.Active {
		return domain.TournamentResult{}, domain.ErrNoActiveTournament
	}

	ended := cloneState(state)
	state.Active = false
	state.ID = ""
	if err := s.store.SaveTournamentState(ctx, state); err != nil {
		return domain.TournamentResult{}, fmt.Errorf("saving tournament state: %w", err)
	}

	statsDoc, err := s.store.LoadTournamentStats(ctx)
	if err != nil {
		return domain.TournamentResult{}, fmt.Errorf("loading tournament stats: %w", err)
	}
	result := s.buildResult(ended, statsDoc.Tournament(ended.ID))

	s.broadcaster.TournamentEnded(result)
	if s.mirror != nil {
		if err := s.mirror.Delete(ctx, ended.ID); err != nil {
			s.logger.Warn("failed to drop mirror keys", "error", err)
		}
	}
	s.logger.Info("tournament ended", "tournament_id", ended.ID, "games", result.Games)
	return result, nil
}

// publishTournamentEnd announces an auto-end triggered by the games
// target. The state was already flipped inside the finish transaction.
func (s *ArenaService) publishTournamentEnd(ctx context.Context, state *domain.TournamentState, stats *domain.TournamentStats) {
	result := s.buildResult(state, stats)
	s.broadcaster.TournamentEnded(result)
	if s.mirror != nil {
		if err := s.mirror.Delete(ctx, state.ID); err != nil {
			s.logger.Warn("failed to drop mirror keys", "error", err)
		}
	}
	s.logger.Info("tournament ended by games target",
		"tournament_id", state.ID,
		"games", state.GamesPlayed,
	)
}

func (s *ArenaService) buildResult(state *domain.TournamentState, stats *domain.TournamentStats) domain.TournamentResult {
	return domain.TournamentResult{
		ID:       state.ID,
		Name:     state.Name,
		Games:    stats.Games,
		Pots:     stats.Pots,
		EntryFee: state.EntryFee,
		Top:      rankStats(stats, leaderboardSize),
	}
}

// SetPrizeMode updates how future wins are rewarded. Wishlist count and
// the mixed credits percentage are clamped rather than rejected.
func (s *ArenaService) SetPrizeMode(ctx context.Context, mode domain.PrizeMode, wishlistCount, creditsPercent int) (*domain.TournamentState, error) {
	if !domain.ValidPrizeMode(mode) {
		return nil, domain.ErrInvalidPrizeMode
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	state, err := s.store.LoadTournamentState(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading tournament state: %w", err)
	}
	state.PrizeMode = mode
	if wishlistCount != 0 {
		state.WishlistCount = clampInt(wishlistCount, minWishlistCount, maxWishlistCount)
	}
	if mode == domain.PrizeModeMixed {
		state.MixedCreditsPercent = clampInt(creditsPercent, 0, 100)
	}
	if err := s.store.SaveTournamentState(ctx, state); err != nil {
		return nil, fmt.Errorf("saving tournament state: %w", err)
	}
	s.logger.Info("prize mode updated", "mode", mode)
	return state, nil
}

// SetDefaultAnte changes the entry fee for future lobbies. Already-open
// lobbies keep the fee they froze.
func (s *ArenaService) SetDefaultAnte(ctx context.Context, fee int) (*domain.TournamentState, error) {
	if fee < MinAnte || fee > MaxAnte {
		return nil, domain.ErrInvalidAnte
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	state, err := s.store.LoadTournamentState(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading tournament state: %w", err)
	}
	state.EntryFee = fee
	if err := s.store.SaveTournamentState(ctx, state); err != nil {
		return nil, fmt.Errorf("saving tournament state: %w", err)
	}
	return state, nil
}

// SetRoomAnte overrides the entry fee for one room's future lobbies.
// A fee of zero clears the override.
func (s *ArenaService) SetRoomAnte(roomID string, fee int) error {
	if fee != 0 && (fee < MinAnte || fee > MaxAnte) {
		return domain.ErrInvalidAnte
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if fee == 0 {
		delete(s.roomAnte, roomID)
	} else {
		s.roomAnte[roomID] = fee
	}
	return nil
}

// TournamentInfo returns the current tournament document, active or not.
func (s *ArenaService) TournamentInfo(ctx context.Context) (*domain.TournamentState, error) {
	return s.store.LoadTournamentState(ctx)
}

// Leaderboard ranks a tournament from the stats document. An empty
// tournamentID means the active tournament.
func (s *ArenaService) Leaderboard(ctx context.Context, tournamentID string, limit int) ([]domain.LeaderboardRow, error) {
	if tournamentID == "" {
		state, err := s.store.LoadTournamentState(ctx)
		if err != nil {
			return nil, fmt.Errorf("loading tournament state: %w", err)
		}
		if !state.Active {
			return nil, domain.ErrNoActiveTournament
		}
		tournamentID = state.ID
	}
	statsDoc, err := s.store.LoadTournamentStats(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading tournament stats: %w", err)
	}
	if limit <= 0 {
		limit = leaderboardSize
	}
	return rankStats(statsDoc.Tournament(tournamentID), limit), nil
}

// LiveLeaderboard reads the mirror's view of the active tournament,
// falling back to the documents when no mirror is wired.
func (s *ArenaService) LiveLeaderboard(ctx context.Context, limit int) ([]domain.LeaderboardRow, error) {
	state, err := s.store.LoadTournamentState(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading tournament state: %w", err)
	}
	if !state.Active {
		return nil, domain.ErrNoActiveTournament
	}
	if limit <= 0 {
		limit = leaderboardSize
	}
	if s.mirror == nil {
		return s.Leaderboard(ctx, state.ID, limit)
	}
	rows, err := s.mirror.TopWins(ctx, state.ID, limit)
	if err != nil {
		s.logger.Warn("mirror read failed, serving document leaderboard", "error", err)
		return s.Leaderboard(ctx, state.ID, limit)
	}
	return rows, nil
}

// PrizeQueue returns the prize ledger, open entries first.
func (s *ArenaService) PrizeQueue(ctx context.Context) (*domain.PrizeLedger, error) {
	return s.store.LoadPrizeLedger(ctx)
}

// MarkPrizeDelivered closes an open prize entry by ID.
func (s *ArenaService) MarkPrizeDelivered(ctx context.Context, id int) (domain.PrizeEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	prizes, err := s.store.LoadPrizeLedger(ctx)
	if err != nil {
		return domain.PrizeEntry{}, fmt.Errorf("loading prize ledger: %w", err)
	}
	entry, ok := prizes.MarkDelivered(id)
	if !ok {
		return domain.PrizeEntry{}, domain.ErrPrizeNotFound
	}
	if err := s.store.SavePrizeLedger(ctx, prizes); err != nil {
		return domain.PrizeEntry{}, fmt.Errorf("saving prize ledger: %w", err)
	}
	s.logger.Info("prize delivered", "prize_id", id, "winner_id", entry.WinnerID)
	return entry, nil
}

// rankStats orders players by wins, then credits won, then kills, with
// the numeric player ID as the final tiebreak so ranking is stable.
func rankStats(stats *domain.TournamentStats, limit int) []domain.LeaderboardRow {
	ids := make(map[string]struct{})
	for id := range stats.Wins {
		ids[id] = struct{}{}
	}
	for id := range stats.CreditsWon {
		ids[id] = struct{}{}
	}
	for id := range stats.Kills {
		ids[id] = struct{}{}
	}

	rows := make([]domain.LeaderboardRow, 0, len(ids))
	for id := range ids {
		rows = append(rows, domain.LeaderboardRow{
			PlayerID: domain.ParseKey(id),
			Name:     stats.Names[id],
			Wins:     stats.Wins[id],
			Credits:  stats.CreditsWon[id],
			Kills:    stats.Kills[id],
		})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Wins != rows[j].Wins {
			return rows[i].Wins > rows[j].Wins
		}
		if rows[i].Credits != rows[j].Credits {
			return rows[i].Credits > rows[j].Credits
		}
		if rows[i].Kills != rows[j].Kills {
			return rows[i].Kills > rows[j].Kills
		}
		return rows[i].PlayerID < rows[j].PlayerID
	})
	if len(rows) > limit {
		rows = rows[:limit]
	}
	for i := range rows {
		rows[i].Rank = i + 1
	}
	return rows
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
