// Package redis mirrors the active tournament's standings into sorted
// sets so the live leaderboard endpoint never touches the document store.
// The mirror is advisory; the JSONB documents stay the source of truth.
package redis

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/bitefight-arena/internal/config"
	"github.com/bitefight-arena/internal/domain"
)

// LeaderboardMirror provides Redis-based live tournament standings
type LeaderboardMirror struct {
	client *redis.Client
	logger *slog.Logger
}

// NewLeaderboardMirror creates a new Redis leaderboard mirror
func NewLeaderboardMirror(cfg *config.RedisConfig, logger *slog.Logger) (*LeaderboardMirror, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	})

	// Test connection
	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connecting to redis: %w", err)
	}

	return &LeaderboardMirror{
		client: client,
		logger: logger,
	}, nil
}

// Close closes the Redis connection
func (m *LeaderboardMirror) Close() error {
	return m.client.Close()
}

// Client returns the underlying Redis client
func (m *LeaderboardMirror) Client() *redis.Client {
	return m.client
}

func (m *LeaderboardMirror) winsKey(tournamentID string) string {
	return fmt.Sprintf("tournament:%s:wins", tournamentID)
}

func (m *LeaderboardMirror) creditsKey(tournamentID string) string {
	return fmt.Sprintf("tournament:%s:credits", tournamentID)
}

func (m *LeaderboardMirror) killsKey(tournamentID string) string {
	return fmt.Sprintf("tournament:%s:kills", tournamentID)
}

func (m *LeaderboardMirror) namesKey(tournamentID string) string {
	return fmt.Sprintf("tournament:%s:names", tournamentID)
}

// ApplyMatch folds one finished match into the mirror: the winner's win
// and credits, every fighter's kills, and display names for rendering.
func (m *LeaderboardMirror) ApplyMatch(ctx context.Context, tournamentID string, result domain.MatchResult, creditsWon int) error {
	pipe := m.client.Pipeline()

	if result.Winner != nil {
		winner := domain.Key(result.Winner.ID)
		pipe.ZIncrBy(ctx, m.winsKey(tournamentID), 1, winner)
		if creditsWon > 0 {
			pipe.ZIncrBy(ctx, m.creditsKey(tournamentID), float64(creditsWon), winner)
		}
	}
	for playerID, kills := range result.Kills {
		if kills > 0 {
			pipe.ZIncrBy(ctx, m.killsKey(tournamentID), float64(kills), domain.Key(playerID))
		}
	}
	for _, p := range result.Roster {
		pipe.HSet(ctx, m.namesKey(tournamentID), domain.Key(p.ID), p.Name)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("applying match to mirror: %w", err)
	}
	return nil
}

// Rebuild replaces the mirror's sets with the stats document's view, for
// recovery after a Redis flush or missed writes.
func (m *LeaderboardMirror) Rebuild(ctx context.Context, tournamentID string, stats *domain.TournamentStats) error {
	pipe := m.client.Pipeline()
	pipe.Del(ctx, m.winsKey(tournamentID), m.creditsKey(tournamentID), m.killsKey(tournamentID))

	for playerID, wins := range stats.Wins {
		pipe.ZAdd(ctx, m.winsKey(tournamentID), redis.Z{Score: float64(wins), Member: playerID})
	}
	for playerID, credits := range stats.CreditsWon {
		pipe.ZAdd(ctx, m.creditsKey(tournamentID), redis.Z{Score: float64(credits), Member: playerID})
	}
	for playerID, kills := range stats.Kills {
		pipe.ZAdd(ctx, m.killsKey(tournamentID), redis.Z{Score: float64(kills), Member: playerID})
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("rebuilding mirror: %w", err)
	}
	m.logger.Info("tournament mirror rebuilt", "tournament_id", tournamentID)
	return nil
}

// TopWins returns the mirror's top N by wins, with credits and kills
// filled in from the sibling sets.
func (m *LeaderboardMirror) TopWins(ctx context.Context, tournamentID string, n int) ([]domain.LeaderboardRow, error) {
	results, err := m.client.ZRevRangeWithScores(ctx, m.winsKey(tournamentID), 0, int64(n-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("reading mirror standings: %w", err)
	}

	rows := make([]domain.LeaderboardRow, 0, len(results))
	for i, result := range results {
		member, ok := result.Member.(string)
		if !ok {
			continue
		}
		row := domain.LeaderboardRow{
			Rank:     i + 1,
			PlayerID: domain.ParseKey(member),
			Wins:     int(result.Score),
		}
		if credits, err := m.client.ZScore(ctx, m.creditsKey(tournamentID), member).Result(); err == nil {
			row.Credits = int(credits)
		}
		if kills, err := m.client.ZScore(ctx, m.killsKey(tournamentID), member).Result(); err == nil {
			row.Kills = int(kills)
		}
		if name, err := m.client.HGet(ctx, m.namesKey(tournamentID), member).Result(); err == nil {
			row.Name = name
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// Delete drops a tournament's mirror keys after the tournament ends.
func (m *LeaderboardMirror) Delete(ctx context.Context, tournamentID string) error {
	err := m.client.Del(ctx,
		m.winsKey(tournamentID),
		m.creditsKey(tournamentID),
		m.killsKey(tournamentID),
		m.namesKey(tournamentID),
	).Err()
	if err != nil {
		return fmt.Errorf("deleting mirror keys: %w", err)
	}
	return nil
}
