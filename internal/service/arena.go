// Package service wires the game sessions, ledger documents, leaderboard
// mirror and broadcast surface into the operations the transports expose.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"github.com/bitefight-arena/internal/banter"
	"github.com/bitefight-arena/internal/config"
	"github.com/bitefight-arena/internal/domain"
	"github.com/bitefight-arena/internal/game"
	"github.com/bitefight-arena/internal/ledger"
)

// Mirror is the optional live-standings cache. All calls are best-effort;
// the documents stay authoritative.
type Mirror interface {
	ApplyMatch(ctx context.Context, tournamentID string, result domain.MatchResult, creditsWon int) error
	Rebuild(ctx context.Context, tournamentID string, stats *domain.TournamentStats) error
	TopWins(ctx context.Context, tournamentID string, n int) ([]domain.LeaderboardRow, error)
	Delete(ctx context.Context, tournamentID string) error
}

// Broadcaster pushes session and tournament events to rendering
// collaborators.
type Broadcaster interface {
	game.Notifier
	TournamentEnded(result domain.TournamentResult)
}

// matchRecorder is implemented by stores that keep an audit log of
// finished matches alongside the documents.
type matchRecorder interface {
	RecordMatch(ctx context.Context, result domain.MatchResult, tournamentID string) error
}

// ArenaService coordinates rooms, the tournament and the ledgers.
type ArenaService struct {
	registry    *game.Registry
	store       ledger.Store
	mirror      Mirror
	broadcaster Broadcaster
	banter      *banter.Table
	cfg         config.GameConfig
	logger      *slog.Logger

	// mu serializes every read-modify-write over the ledger documents,
	// match finishes included, and guards roomAnte.
	mu       sync.Mutex
	roomAnte map[string]int
}

// NewArenaService creates the coordinator. mirror may be nil when Redis is
// not available.
func NewArenaService(store ledger.Store, mirror Mirror, broadcaster Broadcaster, cfg config.GameConfig, logger *slog.Logger) *ArenaService {
	return &ArenaService{
		registry:    game.NewRegistry(),
		store:       store,
		mirror:      mirror,
		broadcaster: broadcaster,
		banter:      banter.Load(),
		cfg:         cfg,
		logger:      logger,
		roomAnte:    make(map[string]int),
	}
}

// Shutdown stops every live session.
func (s *ArenaService) Shutdown() {
	s.registry.StopAll("server shutting down")
}

func (s *ArenaService) sessionConfig() game.SessionConfig {
	return game.SessionConfig{
		MaxHP:          s.cfg.MaxHP,
		MinPlayers:     s.cfg.MinPlayers,
		LobbyCountdown: s.cfg.LobbyCountdown,
		IntroDelay:     s.cfg.IntroDelay,
		RoundDelay:     s.cfg.RoundDelay,
	}
}

// entryFee resolves the fee a new lobby plays for: the room override when
// set, otherwise the tournament's configured fee.
func (s *ArenaService) entryFee(roomID string, state *domain.TournamentState) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if fee, ok := s.roomAnte[roomID]; ok {
		return fee
	}
	if state.EntryFee > 0 {
		return state.EntryFee
	}
	return s.cfg.DefaultAnte
}

// StartLobby opens an empty lobby in the room on the host's behalf; the
// host joins like everyone else. Tournament terms are frozen into the
// session here.
func (s *ArenaService) StartLobby(ctx context.Context, roomID string, host domain.Player) (domain.LobbyInfo, error) {
	if host.Bot {
		return domain.LobbyInfo{}, domain.ErrNotHuman
	}

	state, err := s.store.LoadTournamentState(ctx)
	if err != nil {
		return domain.LobbyInfo{}, fmt.Errorf("loading tournament state: %w", err)
	}

	var snapshot game.TournamentSnapshot
	if state.Active && (state.RoomID == "" || state.RoomID == roomID) {
		snapshot = game.TournamentSnapshot{
			Active:   true,
			ID:       state.ID,
			Name:     state.Name,
			EntryFee: s.entryFee(roomID, state),
		}
	}

	_, err = s.registry.Create(roomID, func() *game.Session {
		return game.NewSession(
			roomID, host, snapshot, s.sessionConfig(),
			s.banter, game.NewRand(), s.broadcaster,
			func(ctx context.Context, result domain.MatchResult) (domain.MatchSummary, error) {
				return s.finishMatch(ctx, snapshot, result)
			},
			s.logger,
		)
	})
	if err != nil {
		return domain.LobbyInfo{}, err
	}

	s.logger.Info("lobby opened",
		"room_id", roomID,
		"host_id", host.ID,
		"tournament", snapshot.Active,
	)
	return domain.LobbyInfo{
		RoomID:       roomID,
		Host:         host,
		ClosesIn:     s.cfg.LobbyCountdown,
		IsTournament: snapshot.Active,
		EntryFee:     snapshot.EntryFee,
	}, nil
}

// Join adds a player to the room's open lobby.
func (s *ArenaService) Join(ctx context.Context, roomID string, player domain.Player) (int, error) {
	session, err := s.registry.Get(roomID)
	if err != nil {
		return 0, domain.ErrNoOpenLobby
	}
	return session.Join(player)
}

// Begin closes the lobby early and starts the match.
func (s *ArenaService) Begin(ctx context.Context, roomID string) error {
	session, err := s.registry.Get(roomID)
	if err != nil {
		return err
	}
	return session.Begin()
}

// Stop aborts the room's session without ledger writes.
func (s *ArenaService) Stop(ctx context.Context, roomID, reason string) error {
	session, err := s.registry.Get(roomID)
	if err != nil {
		return err
	}
	return session.Stop(reason)
}

// Pot reports the tournament pot collected by the room's live session.
func (s *ArenaService) Pot(ctx context.Context, roomID string) (domain.PotInfo, error) {
	session, err := s.registry.Get(roomID)
	if err != nil {
		return domain.PotInfo{}, err
	}
	return session.Pot()
}

// Profile returns a player's lifetime record, scoped to the room and
// globally.
func (s *ArenaService) Profile(ctx context.Context, roomID string, playerID int64) (domain.Profile, error) {
	stats, err := s.store.LoadLifetimeStats(ctx)
	if err != nil {
		return domain.Profile{}, fmt.Errorf("loading lifetime stats: %w", err)
	}
	key := domain.Key(playerID)
	profile := domain.Profile{
		PlayerID:    playerID,
		GlobalWins:  stats.Global.Wins[key],
		GlobalKills: stats.Global.Kills[key],
	}
	if room, ok := stats.Rooms[roomID]; ok {
		profile.RoomWins = room.Wins[key]
		profile.RoomKills = room.Kills[key]
	}
	return profile, nil
}

// finishMatch commits one clean match termination: lifetime stats always,
// and for tournament sessions the tournament counters, prize entry and
// possible auto-end, all in one store transaction. Finishes are serialized
// under mu; the documents are loaded, mutated and saved as a unit, so
// concurrent rooms never lose counters and the games target trips once.
func (s *ArenaService) finishMatch(ctx context.Context, snapshot game.TournamentSnapshot, result domain.MatchResult) (domain.MatchSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	lifetime, err := s.store.LoadLifetimeStats(ctx)
	if err != nil {
		return domain.MatchSummary{}, fmt.Errorf("loading lifetime stats: %w", err)
	}
	room := lifetime.Room(result.RoomID)
	if result.Winner != nil {
		domain.Bump(lifetime.Global.Wins, result.Winner.ID, 1)
		domain.Bump(room.Wins, result.Winner.ID, 1)
	}
	for playerID, kills := range result.Kills {
		if kills > 0 {
			domain.Bump(lifetime.Global.Kills, playerID, kills)
			domain.Bump(room.Kills, playerID, kills)
		}
	}

	commit := ledger.MatchCommit{Lifetime: lifetime}
	creditsWon := 0
	var endedState *domain.TournamentState
	var endedStats *domain.TournamentStats

	if snapshot.Active {
		state, err := s.store.LoadTournamentState(ctx)
		if err != nil {
			return domain.MatchSummary{}, fmt.Errorf("loading tournament state: %w", err)
		}
		statsDoc, err := s.store.LoadTournamentStats(ctx)
		if err != nil {
			return domain.MatchSummary{}, fmt.Errorf("loading tournament stats: %w", err)
		}
		ts := statsDoc.Tournament(snapshot.ID)
		ts.Games++
		ts.Pots += result.Pot
		for _, p := range result.Roster {
			ts.Names[domain.Key(p.ID)] = p.Name
		}
		for playerID, kills := range result.Kills {
			if kills > 0 {
				domain.Bump(ts.Kills, playerID, kills)
			}
		}

		if result.Winner != nil {
			domain.Bump(ts.Wins, result.Winner.ID, 1)

			prizes, err := s.store.LoadPrizeLedger(ctx)
			if err != nil {
				return domain.MatchSummary{}, fmt.Errorf("loading prize ledger: %w", err)
			}
			entry := s.resolvePrize(state, snapshot, result)
			if entry.Kind == domain.PrizeCredits {
				creditsWon = entry.Amount
				domain.Bump(ts.CreditsWon, result.Winner.ID, creditsWon)
			}
			prizes.Append(entry)
			commit.Prizes = prizes
		}

		// The fee frozen into the session also counts the game against
		// the tournament that was active when the lobby opened.
		if state.Active && state.ID == snapshot.ID {
			state.GamesPlayed++
			if state.GamesTarget > 0 && state.GamesPlayed >= state.GamesTarget {
				state.Active = false
				endedState = cloneState(state)
				endedStats = ts
				// Historical stats stay keyed by the old id.
				state.ID = ""
			}
		}
		commit.Tournament = state
		commit.TournamentStats = statsDoc
	}

	if err := s.store.CommitMatchFinish(ctx, commit); err != nil {
		return domain.MatchSummary{}, fmt.Errorf("committing match finish: %w", err)
	}

	if rec, ok := s.store.(matchRecorder); ok {
		if err := rec.RecordMatch(ctx, result, snapshot.ID); err != nil {
			s.logger.Warn("failed to record match audit row", "error", err)
		}
	}
	if snapshot.Active && s.mirror != nil {
		if err := s.mirror.ApplyMatch(ctx, snapshot.ID, result, creditsWon); err != nil {
			s.logger.Warn("failed to update leaderboard mirror", "error", err)
		}
	}

	summary := domain.MatchSummary{
		RoomID:     result.RoomID,
		Winner:     result.Winner,
		TotalKills: result.TotalKills(),
		Rounds:     result.Rounds,
		DurationS:  int(result.Duration.Seconds()),
		Pot:        result.Pot,
	}
	if result.Winner != nil {
		key := domain.Key(result.Winner.ID)
		summary.RoomWins = lifetime.Room(result.RoomID).Wins[key]
		summary.GlobalWins = lifetime.Global.Wins[key]
	}

	s.logger.Info("match finished",
		"room_id", result.RoomID,
		"rounds", result.Rounds,
		"kills", result.TotalKills(),
		"tournament", snapshot.Active,
	)

	if endedState != nil {
		s.publishTournamentEnd(ctx, endedState, endedStats)
	}
	return summary, nil
}

// resolvePrize applies the prize mode in force when the match finished.
// The pot size itself was frozen when the lobby opened.
func (s *ArenaService) resolvePrize(state *domain.TournamentState, snapshot game.TournamentSnapshot, result domain.MatchResult) domain.PrizeEntry {
	entry := domain.PrizeEntry{
		WinnerID:     result.Winner.ID,
		WinnerName:   result.Winner.Name,
		RoomID:       result.RoomID,
		TournamentID: snapshot.ID,
		CreatedAt:    time.Now(),
	}

	mode := state.PrizeMode
	if mode == domain.PrizeModeMixed {
		if rand.Intn(100)+1 <= state.MixedCreditsPercent {
			mode = domain.PrizeModeCredits
		} else {
			mode = domain.PrizeModeWishlist
		}
	}

	if mode == domain.PrizeModeWishlist {
		entry.Kind = domain.PrizeWishlist
		entry.Count = state.WishlistCount
	} else {
		entry.Kind = domain.PrizeCredits
		entry.Amount = result.Pot
	}
	return entry
}

func cloneState(state *domain.TournamentState) *domain.TournamentState {
	c := *state
	return &c
}
