package domain

import "errors"

// Domain errors
var (
	ErrGameInProgress     = errors.New("a game is already active in this room")
	ErrNoOpenLobby        = errors.New("no open lobby in this room")
	ErrNoActiveGame       = errors.New("no active game in this room")
	ErrLobbyClosed        = errors.New("lobby closed")
	ErrAlreadyJoined      = errors.New("player already joined")
	ErrNotHuman           = errors.New("bots cannot join")
	ErrNotEnoughPlayers   = errors.New("not enough players joined")
	ErrNotTournament      = errors.New("no tournament pot for casual games")
	ErrTournamentActive   = errors.New("a tournament is already active")
	ErrNoActiveTournament = errors.New("no active tournament")
	ErrPrizeNotFound      = errors.New("prize id not found")
	ErrInvalidPrizeMode   = errors.New("prize mode must be credits, wishlist or mixed")
	ErrInvalidAnte        = errors.New("entry fee must be between 1 and 10,000,000")
	ErrInvalidRequest     = errors.New("invalid request")
	ErrUnauthorized       = errors.New("admin token required")
	ErrInternalError      = errors.New("internal server error")
)

// IsNotFoundError checks if an error is a not-found type error
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNoOpenLobby) ||
		errors.Is(err, ErrNoActiveGame) ||
		errors.Is(err, ErrNoActiveTournament) ||
		errors.Is(err, ErrPrizeNotFound)
}

// IsConflictError checks if an error reports a state conflict rather than a
// malformed request.
func IsConflictError(err error) bool {
	return errors.Is(err, ErrGameInProgress) ||
		errors.Is(err, ErrTournamentActive) ||
		errors.Is(err, ErrAlreadyJoined) ||
		errors.Is(err, ErrLobbyClosed) ||
		errors.Is(err, ErrNotHuman) ||
		errors.Is(err, ErrNotEnoughPlayers)
}
