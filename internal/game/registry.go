package game

import (
	"sync"

	"github.com/bitefight-arena/internal/domain"
)

// Registry tracks at most one live session per room. Finished sessions are
// evicted lazily on the next lookup or create.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*Session
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{sessions: make(map[string]*Session)}
}

// Create installs a session built by the factory, unless the room already
// has one in the lobby or running phase. The factory runs under the
// registry lock so two concurrent starts cannot both win.
func (r *Registry) Create(roomID string, factory func() *Session) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.sessions[roomID]; ok && !existing.Finished() {
		return nil, domain.ErrGameInProgress
	}
	s := factory()
	r.sessions[roomID] = s
	return s, nil
}

// Get returns the room's live session, or ErrNoActiveGame when there is
// none or the last one finished.
func (r *Registry) Get(roomID string) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[roomID]
	if !ok {
		return nil, domain.ErrNoActiveGame
	}
	if s.Finished() {
		delete(r.sessions, roomID)
		return nil, domain.ErrNoActiveGame
	}
	return s, nil
}

// Live returns the sessions currently in the lobby or running phase.
func (r *Registry) Live() []*Session {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []*Session
	for roomID, s := range r.sessions {
		if s.Finished() {
			delete(r.sessions, roomID)
			continue
		}
		out = append(out, s)
	}
	return out
}

// StopAll aborts every live session, for shutdown.
func (r *Registry) StopAll(reason string) {
	for _, s := range r.Live() {
		_ = s.Stop(reason)
	}
}
