// Package postgres implements the ledger.Store interface on a single
// documents table. Each game document is one JSONB row keyed by name.
package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/bitefight-arena/internal/config"
	"github.com/bitefight-arena/internal/domain"
	"github.com/bitefight-arena/internal/ledger"
)

// Repository provides PostgreSQL-based document storage
type Repository struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

var _ ledger.Store = (*Repository)(nil)

// NewRepository creates a new PostgreSQL repository
func NewRepository(cfg *config.PostgresConfig, logger *slog.Logger) (*Repository, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.ConnectionString())
	if err != nil {
		return nil, fmt.Errorf("parsing connection string: %w", err)
	}

	poolConfig.MaxConns = int32(cfg.MaxConnections)
	poolConfig.MinConns = int32(cfg.MinConnections)
	poolConfig.MaxConnLifetime = cfg.MaxConnLifetime
	poolConfig.MaxConnIdleTime = cfg.MaxConnIdleTime

	pool, err := pgxpool.NewWithConfig(context.Background(), poolConfig)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	// Test connection
	if err := pool.Ping(context.Background()); err != nil {
		pool.Close()
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	return &Repository{
		pool:   pool,
		logger: logger,
	}, nil
}

// Close closes the database connection pool
func (r *Repository) Close() {
	r.pool.Close()
}

// Pool returns the underlying connection pool
func (r *Repository) Pool() *pgxpool.Pool {
	return r.pool
}

// RunMigrations executes database migrations
func (r *Repository) RunMigrations(ctx context.Context) error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS documents (
			key VARCHAR(64) PRIMARY KEY,
			doc JSONB NOT NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS match_log (
			id BIGSERIAL PRIMARY KEY,
			room_id VARCHAR(64) NOT NULL,
			winner_id BIGINT,
			rounds INT NOT NULL,
			total_kills INT NOT NULL,
			pot INT NOT NULL DEFAULT 0,
			tournament_id VARCHAR(64),
			duration_ms BIGINT NOT NULL,
			finished_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_match_log_room ON match_log(room_id, finished_at DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_match_log_tournament ON match_log(tournament_id)`,
	}

	for _, migration := range migrations {
		_, err := r.pool.Exec(ctx, migration)
		if err != nil {
			return fmt.Errorf("executing migration: %w", err)
		}
	}

	r.logger.Info("database migrations completed")
	return nil
}

func loadDoc[T any](ctx context.Context, r *Repository, key string, def func() *T) (*T, error) {
	query := `SELECT doc FROM documents WHERE key = $1`
	var raw []byte
	err := r.pool.QueryRow(ctx, query, key).Scan(&raw)
	if err != nil {
		if err == pgx.ErrNoRows {
			return def(), nil
		}
		return nil, fmt.Errorf("loading document %s: %w", key, err)
	}
	doc := new(T)
	if err := json.Unmarshal(raw, doc); err != nil {
		return nil, fmt.Errorf("decoding document %s: %w", key, err)
	}
	return doc, nil
}

// execer is satisfied by both the pool and a transaction.
type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

func saveDoc[T any](ctx context.Context, exec execer, key string, doc *T) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encoding document %s: %w", key, err)
	}
	query := `
		INSERT INTO documents (key, doc, created_at, updated_at)
		VALUES ($1, $2, $3, $3)
		ON CONFLICT (key)
		DO UPDATE SET doc = $2, updated_at = $3
	`
	_, err = exec.Exec(ctx, query, key, raw, time.Now())
	if err != nil {
		return fmt.Errorf("saving document %s: %w", key, err)
	}
	return nil
}

func (r *Repository) LoadLifetimeStats(ctx context.Context) (*domain.LifetimeStats, error) {
	return loadDoc(ctx, r, ledger.DocLifetimeStats, domain.DefaultLifetimeStats)
}

func (r *Repository) SaveLifetimeStats(ctx context.Context, doc *domain.LifetimeStats) error {
	return saveDoc(ctx, r.pool, ledger.DocLifetimeStats, doc)
}

func (r *Repository) LoadTournamentState(ctx context.Context) (*domain.TournamentState, error) {
	return loadDoc(ctx, r, ledger.DocTournamentState, domain.DefaultTournamentState)
}

func (r *Repository) SaveTournamentState(ctx context.Context, doc *domain.TournamentState) error {
	return saveDoc(ctx, r.pool, ledger.DocTournamentState, doc)
}

func (r *Repository) LoadTournamentStats(ctx context.Context) (*domain.TournamentStatsDoc, error) {
	return loadDoc(ctx, r, ledger.DocTournamentStats, domain.DefaultTournamentStatsDoc)
}

func (r *Repository) SaveTournamentStats(ctx context.Context, doc *domain.TournamentStatsDoc) error {
	return saveDoc(ctx, r.pool, ledger.DocTournamentStats, doc)
}

func (r *Repository) LoadPrizeLedger(ctx context.Context) (*domain.PrizeLedger, error) {
	return loadDoc(ctx, r, ledger.DocPrizeLedger, domain.DefaultPrizeLedger)
}

func (r *Repository) SavePrizeLedger(ctx context.Context, doc *domain.PrizeLedger) error {
	return saveDoc(ctx, r.pool, ledger.DocPrizeLedger, doc)
}

// CommitMatchFinish writes every touched document in a single transaction.
// A crash mid-finish either records the whole match or none of it.
func (r *Repository) CommitMatchFinish(ctx context.Context, commit ledger.MatchCommit) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("starting finish transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if commit.Lifetime != nil {
		if err := saveDoc(ctx, tx, ledger.DocLifetimeStats, commit.Lifetime); err != nil {
			return err
		}
	}
	if commit.Tournament != nil {
		if err := saveDoc(ctx, tx, ledger.DocTournamentState, commit.Tournament); err != nil {
			return err
		}
	}
	if commit.TournamentStats != nil {
		if err := saveDoc(ctx, tx, ledger.DocTournamentStats, commit.TournamentStats); err != nil {
			return err
		}
	}
	if commit.Prizes != nil {
		if err := saveDoc(ctx, tx, ledger.DocPrizeLedger, commit.Prizes); err != nil {
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing finish transaction: %w", err)
	}
	return nil
}

// RecordMatch appends one row to the audit log of finished matches.
func (r *Repository) RecordMatch(ctx context.Context, result domain.MatchResult, tournamentID string) error {
	query := `
		INSERT INTO match_log (room_id, winner_id, rounds, total_kills, pot, tournament_id, duration_ms, finished_at)
		VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), $7, $8)
	`
	var winnerID *int64
	if result.Winner != nil {
		winnerID = &result.Winner.ID
	}
	_, err := r.pool.Exec(ctx, query,
		result.RoomID,
		winnerID,
		result.Rounds,
		result.TotalKills(),
		result.Pot,
		tournamentID,
		result.Duration.Milliseconds(),
		time.Now(),
	)
	if err != nil {
		return fmt.Errorf("recording match: %w", err)
	}
	return nil
}
