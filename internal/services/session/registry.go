package session

import (
	"sync"

	"netauth/internal/domain"
)

// Registry holds the sessions of all live connections.
type Registry struct {
	mu       sync.RWMutex
	sessions map[domain.ConnectionID]*Session
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{sessions: make(map[domain.ConnectionID]*Session)}
}

// Open registers a fresh session for id. An existing session under the same
// id is closed and replaced.
func (r *Registry) Open(id domain.ConnectionID) *Session {
	s := NewSession(id)
	r.mu.Lock()
	old := r.sessions[id]
	r.sessions[id] = s
	r.mu.Unlock()
	if old != nil {
		old.Close()
	}
	return s
}

// Get returns the session for id.
func (r *Registry) Get(id domain.ConnectionID) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[id]
	return s, ok
}

// Close closes and forgets the session for id only.
func (r *Registry) Close(id domain.ConnectionID) {
	r.mu.Lock()
	s := r.sessions[id]
	delete(r.sessions, id)
	r.mu.Unlock()
	if s != nil {
		s.Close()
	}
}

// CloseAll closes and forgets every session.
func (r *Registry) CloseAll() {
	r.mu.Lock()
	all := r.sessions
	r.sessions = make(map[domain.ConnectionID]*Session)
	r.mu.Unlock()
	for _, s := range all {
		s.Close()
	}
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
