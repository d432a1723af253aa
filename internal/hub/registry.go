package hub

import (
	"sync"

	"qtunnel/internal/domain"
)

// Registry is the single source of truth for connected services. All
// mutation is atomic with respect to lookups; a session is only ever
// inserted fully constructed.
type Registry struct {
	mu       sync.RWMutex
	sessions map[domain.ServiceID]*Session
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{sessions: make(map[domain.ServiceID]*Session)}
}

// Insert adds s under its service id and returns any prior session that
// held the same id. The caller must close the evicted session; leaving it
// registered would orphan its transport.
func (r *Registry) Insert(s *Session) (evicted *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	evicted = r.sessions[s.ID()]
	r.sessions[s.ID()] = s
	return evicted
}

// Lookup returns the session registered under id, if any.
func (r *Registry) Lookup(id domain.ServiceID) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[id]
	return s, ok
}

// Remove deletes the session under id and returns it so the caller can wipe
// its keys and close the transport.
func (r *Registry) Remove(id domain.ServiceID) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if ok {
		delete(r.sessions, id)
	}
	return s, ok
}

// Drop removes s only if it is still the registered session for its id.
// A worker cleaning up after an eviction must not delete its replacement.
func (r *Registry) Drop(s *Session) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.sessions[s.ID()] != s {
		return false
	}
	delete(r.sessions, s.ID())
	return true
}

// Len returns the number of registered sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Snapshot returns summaries of every registered session for the control
// surface.
func (r *Registry) Snapshot() []domain.SessionSummary {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.SessionSummary, 0, len(r.sessions))
	for _, s := range r.sessions {
		out = append(out, s.Summary())
	}
	return out
}

// Clear empties the registry and returns the removed sessions for the
// caller to close. Used on hub shutdown.
func (r *Registry) Clear() []*Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*Session, 0, len(r.sessions))
	for id, s := range r.sessions {
		out = append(out, s)
		delete(r.sessions, id)
	}
	return out
}
