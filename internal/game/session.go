package game

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/bitefight-arena/internal/banter"
	"github.com/bitefight-arena/internal/domain"
)

// Notifier receives session lifecycle and round output for a room. The
// websocket hub implements it for rendering collaborators; tests plug in
// a recorder.
type Notifier interface {
	LobbyOpened(roomID string, info domain.LobbyInfo)
	LobbyNotice(roomID string, closesIn time.Duration)
	PlayerJoined(roomID string, player domain.Player, count int)
	MatchStarted(roomID string, intro string, roster []domain.Player)
	RoundPlayed(roomID string, result domain.RoundResult)
	MatchEnded(roomID string, summary domain.MatchSummary)
	SessionCancelled(roomID string, reason string)
}

// FinishFunc commits a clean match termination to the ledgers and returns
// the summary to announce. The session calls it at most once.
type FinishFunc func(ctx context.Context, result domain.MatchResult) (domain.MatchSummary, error)

// TournamentSnapshot freezes the tournament terms a session plays under.
// It is captured when the lobby opens; later admin changes to the
// tournament never reprice a lobby that is already collecting players.
type TournamentSnapshot struct {
	Active   bool
	ID       string
	Name     string
	EntryFee int
}

// SessionConfig carries the pacing and threshold knobs a session needs.
type SessionConfig struct {
	MaxHP          int
	MinPlayers     int
	LobbyCountdown time.Duration
	IntroDelay     time.Duration
	RoundDelay     time.Duration
}

// Session is one room's game from lobby open to termination. All state is
// guarded by mu; the countdown and match loop run on their own goroutines
// and take the lock per step.
type Session struct {
	roomID     string
	host       domain.Player
	tournament TournamentSnapshot
	cfg        SessionConfig

	notifier Notifier
	onFinish FinishFunc
	banter   *banter.Table
	rnd      Rand
	logger   *slog.Logger

	mu        sync.Mutex
	phase     domain.Phase
	roster    []domain.Player
	joined    map[int64]bool
	startedAt time.Time
	finished  bool

	// ctx ends the whole session; countdownCancel only stops the lobby
	// timer when the match begins.
	ctx             context.Context
	cancel          context.CancelFunc
	countdownCancel context.CancelFunc
}

// NewSession opens a lobby for the room and starts the countdown. The lobby
// opens empty; the host is only announced and enters through Join like every
// other player, paying the same buy-in.
func NewSession(roomID string, host domain.Player, snapshot TournamentSnapshot, cfg SessionConfig, tbl *banter.Table, rnd Rand, notifier Notifier, onFinish FinishFunc, logger *slog.Logger) *Session {
	ctx, cancel := context.WithCancel(context.Background())
	countdownCtx, countdownCancel := context.WithCancel(ctx)

	s := &Session{
		roomID:          roomID,
		host:            host,
		tournament:      snapshot,
		cfg:             cfg,
		notifier:        notifier,
		onFinish:        onFinish,
		banter:          tbl,
		rnd:             rnd,
		logger:          logger.With("room_id", roomID),
		phase:           domain.PhaseLobby,
		joined:          make(map[int64]bool),
		ctx:             ctx,
		cancel:          cancel,
		countdownCancel: countdownCancel,
	}

	s.notifier.LobbyOpened(roomID, s.lobbyInfo())
	go s.countdown(countdownCtx)
	return s
}

// Phase returns the session's current lifecycle phase.
func (s *Session) Phase() domain.Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

// Finished reports whether the session has terminated.
func (s *Session) Finished() bool {
	return s.Phase() == domain.PhaseFinished
}

// Tournament returns the terms frozen when the lobby opened.
func (s *Session) Tournament() TournamentSnapshot {
	return s.tournament
}

// Roster returns a copy of the current roster in join order.
func (s *Session) Roster() []domain.Player {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Player, len(s.roster))
	copy(out, s.roster)
	return out
}

// Pot reports the tournament pot collected so far. Casual sessions have
// no pot.
func (s *Session) Pot() (domain.PotInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.tournament.Active {
		return domain.PotInfo{}, domain.ErrNotTournament
	}
	return domain.PotInfo{
		RoomID:   s.roomID,
		Pot:      s.tournament.EntryFee * len(s.roster),
		EntryFee: s.tournament.EntryFee,
		Players:  len(s.roster),
	}, nil
}

// Join adds a player to an open lobby. Bots and duplicates are rejected,
// and nobody joins once the countdown has fired.
func (s *Session) Join(player domain.Player) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.phase {
	case domain.PhaseLobby:
	case domain.PhaseRunning:
		return 0, domain.ErrLobbyClosed
	default:
		return 0, domain.ErrNoOpenLobby
	}
	if player.Bot {
		return 0, domain.ErrNotHuman
	}
	if s.joined[player.ID] {
		return 0, domain.ErrAlreadyJoined
	}

	s.roster = append(s.roster, player)
	s.joined[player.ID] = true
	count := len(s.roster)

	s.notifier.PlayerJoined(s.roomID, player, count)
	return count, nil
}

// Begin closes the lobby and starts the match. With too few players the
// session cancels instead, leaving the ledgers untouched.
func (s *Session) Begin() error {
	s.mu.Lock()
	if s.phase != domain.PhaseLobby {
		s.mu.Unlock()
		return domain.ErrNoOpenLobby
	}
	if len(s.roster) < s.cfg.MinPlayers {
		s.phase = domain.PhaseFinished
		s.mu.Unlock()
		s.cancel()
		s.notifier.SessionCancelled(s.roomID, "not enough players joined")
		return domain.ErrNotEnoughPlayers
	}

	s.phase = domain.PhaseRunning
	s.startedAt = time.Now()
	s.mu.Unlock()

	s.countdownCancel()
	go s.run()
	return nil
}

// Stop aborts the session at any point before termination. Nothing is
// written to the ledgers.
func (s *Session) Stop(reason string) error {
	s.mu.Lock()
	if s.phase == domain.PhaseFinished {
		s.mu.Unlock()
		return domain.ErrNoActiveGame
	}
	s.phase = domain.PhaseFinished
	s.mu.Unlock()

	s.cancel()
	s.notifier.SessionCancelled(s.roomID, reason)
	return nil
}

func (s *Session) lobbyInfo() domain.LobbyInfo {
	return domain.LobbyInfo{
		RoomID:       s.roomID,
		Host:         s.host,
		ClosesIn:     s.cfg.LobbyCountdown,
		IsTournament: s.tournament.Active,
		EntryFee:     s.tournament.EntryFee,
	}
}

// countdown announces the midpoint and auto-begins when the lobby window
// closes. Begin and Stop both cancel it.
func (s *Session) countdown(ctx context.Context) {
	half := s.cfg.LobbyCountdown / 2

	select {
	case <-ctx.Done():
		return
	case <-time.After(half):
	}
	if s.Phase() == domain.PhaseLobby {
		s.notifier.LobbyNotice(s.roomID, s.cfg.LobbyCountdown-half)
	}

	select {
	case <-ctx.Done():
		return
	case <-time.After(s.cfg.LobbyCountdown - half):
	}

	if err := s.Begin(); err != nil {
		s.logger.Info("lobby closed without starting", "error", err)
	}
}

// run drives the match loop until one player is left, the session is
// stopped, or the round resolver faults.
func (s *Session) run() {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("match loop fault", "panic", r)
			s.mu.Lock()
			s.phase = domain.PhaseFinished
			s.mu.Unlock()
			s.cancel()
			s.notifier.SessionCancelled(s.roomID, "internal error, game reset")
		}
	}()

	st := NewMatchState(s.cfg.MaxHP)
	st.Roster = s.Roster()
	for _, p := range st.Roster {
		st.HP[p.ID] = st.MaxHP
	}

	s.notifier.MatchStarted(s.roomID, s.banter.Pick("intro"), st.Roster)
	if !s.pause(s.cfg.IntroDelay) {
		return
	}

	round := 0
	for {
		round++
		s.mu.Lock()
		result := ResolveRound(&st, round, s.banter, s.rnd)
		alive := st.Alive()
		s.mu.Unlock()

		s.notifier.RoundPlayed(s.roomID, result)

		if len(alive) <= 1 {
			s.finish(&st, alive, round)
			return
		}
		if !s.pause(s.cfg.RoundDelay) {
			return
		}
	}
}

// pause sleeps between announcements, bailing out when the session is
// cancelled mid-match.
func (s *Session) pause(d time.Duration) bool {
	if d <= 0 {
		select {
		case <-s.ctx.Done():
			return false
		default:
			return true
		}
	}
	select {
	case <-s.ctx.Done():
		return false
	case <-time.After(d):
		return true
	}
}

func (s *Session) finish(st *MatchState, alive []domain.Player, rounds int) {
	s.mu.Lock()
	if s.finished || s.phase != domain.PhaseRunning {
		s.mu.Unlock()
		return
	}
	s.finished = true
	s.phase = domain.PhaseFinished

	var winner *domain.Player
	if len(alive) == 1 {
		w := alive[0]
		winner = &w
	}
	result := domain.MatchResult{
		RoomID:       s.roomID,
		Winner:       winner,
		Roster:       st.Roster,
		Kills:        st.Kills,
		Rounds:       rounds,
		Duration:     time.Since(s.startedAt),
		IsTournament: s.tournament.Active,
		EntryFee:     s.tournament.EntryFee,
	}
	if s.tournament.Active {
		result.Pot = s.tournament.EntryFee * len(st.Roster)
	}
	s.mu.Unlock()
	s.cancel()

	summary, err := s.onFinish(context.Background(), result)
	if err != nil {
		s.logger.Error("failed to commit match result", "error", err)
		summary = domain.MatchSummary{
			RoomID:     s.roomID,
			Winner:     winner,
			TotalKills: result.TotalKills(),
			Rounds:     rounds,
			DurationS:  int(result.Duration.Seconds()),
			Pot:        result.Pot,
		}
	}
	s.notifier.MatchEnded(s.roomID, summary)
}
