// Package worker rebuilds the Redis standings mirror from the documents
// on a fixed interval, recovering from missed writes or a Redis flush.
package worker

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/bitefight-arena/internal/config"
	"github.com/bitefight-arena/internal/ledger"
	"github.com/bitefight-arena/internal/redis"
)

// MirrorWorker periodically reconciles the mirror with the stats document
type MirrorWorker struct {
	mirror  *redis.LeaderboardMirror
	store   ledger.Store
	config  *config.MirrorConfig
	logger  *slog.Logger
	stopCh  chan struct{}
	doneCh  chan struct{}
	mu      sync.Mutex
	running bool
}

// NewMirrorWorker creates a new mirror worker
func NewMirrorWorker(
	mirror *redis.LeaderboardMirror,
	store ledger.Store,
	cfg *config.MirrorConfig,
	logger *slog.Logger,
) *MirrorWorker {
	return &MirrorWorker{
		mirror: mirror,
		store:  store,
		config: cfg,
		logger: logger,
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
	}
}

// Start begins the background rebuild process. The first rebuild runs
// immediately so a restart repopulates the mirror before traffic arrives.
func (w *MirrorWorker) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.mu.Unlock()

	w.logger.Info("mirror worker started", "interval", w.config.Interval)

	w.RunOnce(ctx)
	go w.run(ctx)
	return nil
}

// Stop stops the background rebuild process
func (w *MirrorWorker) Stop() error {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return nil
	}
	w.mu.Unlock()

	close(w.stopCh)
	<-w.doneCh

	w.mu.Lock()
	w.running = false
	w.mu.Unlock()

	w.logger.Info("mirror worker stopped")
	return nil
}

// run is the main worker loop
func (w *MirrorWorker) run(ctx context.Context) {
	defer close(w.doneCh)

	ticker := time.NewTicker(w.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case <-ticker.C:
			w.RunOnce(ctx)
		}
	}
}

// RunOnce rebuilds the active tournament's mirror from the documents.
// With no active tournament there is nothing to reconcile.
func (w *MirrorWorker) RunOnce(ctx context.Context) {
	startTime := time.Now()

	state, err := w.store.LoadTournamentState(ctx)
	if err != nil {
		w.logger.Error("failed to load tournament state for rebuild", "error", err)
		return
	}
	if !state.Active {
		return
	}

	statsDoc, err := w.store.LoadTournamentStats(ctx)
	if err != nil {
		w.logger.Error("failed to load tournament stats for rebuild", "error", err)
		return
	}

	if err := w.mirror.Rebuild(ctx, state.ID, statsDoc.Tournament(state.ID)); err != nil {
		w.logger.Error("failed to rebuild mirror",
			"tournament_id", state.ID,
			"error", err,
		)
		return
	}

	w.logger.Info("mirror rebuild completed",
		"tournament_id", state.ID,
		"duration", time.Since(startTime),
	)
}

// IsRunning returns whether the worker is currently running
func (w *MirrorWorker) IsRunning() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}
