package ledger

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/bitefight-arena/internal/domain"
)

// MemoryStore keeps the documents as marshalled JSON in a map. It gives the
// same value semantics as the database-backed store, so service tests and
// single-node dev runs behave like production.
type MemoryStore struct {
	mu   sync.Mutex
	docs map[string][]byte
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{docs: make(map[string][]byte)}
}

func load[T any](s *MemoryStore, key string, def func() *T) (*T, error) {
	s.mu.Lock()
	raw, ok := s.docs[key]
	s.mu.Unlock()
	if !ok {
		return def(), nil
	}
	doc := new(T)
	if err := json.Unmarshal(raw, doc); err != nil {
		return nil, fmt.Errorf("failed to decode document %s: %w", key, err)
	}
	return doc, nil
}

func save[T any](s *MemoryStore, key string, doc *T) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to encode document %s: %w", key, err)
	}
	s.mu.Lock()
	s.docs[key] = raw
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) LoadLifetimeStats(ctx context.Context) (*domain.LifetimeStats, error) {
	return load(s, DocLifetimeStats, domain.DefaultLifetimeStats)
}

func (s *MemoryStore) SaveLifetimeStats(ctx context.Context, doc *domain.LifetimeStats) error {
	return save(s, DocLifetimeStats, doc)
}

func (s *MemoryStore) LoadTournamentState(ctx context.Context) (*domain.TournamentState, error) {
	return load(s, DocTournamentState, domain.DefaultTournamentState)
}

func (s *MemoryStore) SaveTournamentState(ctx context.Context, doc *domain.TournamentState) error {
	return save(s, DocTournamentState, doc)
}

func (s *MemoryStore) LoadTournamentStats(ctx context.Context) (*domain.TournamentStatsDoc, error) {
	return load(s, DocTournamentStats, domain.DefaultTournamentStatsDoc)
}

func (s *MemoryStore) SaveTournamentStats(ctx context.Context, doc *domain.TournamentStatsDoc) error {
	return save(s, DocTournamentStats, doc)
}

func (s *MemoryStore) LoadPrizeLedger(ctx context.Context) (*domain.PrizeLedger, error) {
	return load(s, DocPrizeLedger, domain.DefaultPrizeLedger)
}

func (s *MemoryStore) SavePrizeLedger(ctx context.Context, doc *domain.PrizeLedger) error {
	return save(s, DocPrizeLedger, doc)
}

// CommitMatchFinish writes every non-nil document under a single lock
// hold: the batch is encoded first, then applied whole, so no other store
// call observes a partially committed finish.
func (s *MemoryStore) CommitMatchFinish(ctx context.Context, commit MatchCommit) error {
	batch := make(map[string][]byte, 4)
	encode := func(key string, doc any) error {
		raw, err := json.Marshal(doc)
		if err != nil {
			return fmt.Errorf("failed to encode document %s: %w", key, err)
		}
		batch[key] = raw
		return nil
	}

	if commit.Lifetime != nil {
		if err := encode(DocLifetimeStats, commit.Lifetime); err != nil {
			return err
		}
	}
	if commit.Tournament != nil {
		if err := encode(DocTournamentState, commit.Tournament); err != nil {
			return err
		}
	}
	if commit.TournamentStats != nil {
		if err := encode(DocTournamentStats, commit.TournamentStats); err != nil {
			return err
		}
	}
	if commit.Prizes != nil {
		if err := encode(DocPrizeLedger, commit.Prizes); err != nil {
			return err
		}
	}

	s.mu.Lock()
	for key, raw := range batch {
		s.docs[key] = raw
	}
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Close() {}
