// Package registry holds the lobby's only cross-connection shared state: the
// session registry and the room registry. Each is guarded by its own mutex,
// and neither mutex is ever held across network I/O or a persistence
// round-trip. When both registries are touched, the room registry is always
// locked first.
package registry

import (
	"sync"

	"github.com/franbrizuelab/NPHW2/internal/model"
)

// Pusher is a send-only handle to a connected client. Implementations must be
// safe for concurrent use; pushes happen from arbitrary goroutines.
type Pusher interface {
	Push(v any) error
}

// Session is a live, logged-in connection
type Session struct {
	Username string
	Conn     Pusher
	Presence model.Presence
}

// SessionRegistry is the process-wide username -> session map
type SessionRegistry struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewSessionRegistry creates an empty session registry
func NewSessionRegistry() *SessionRegistry {
	return &SessionRegistry{
		sessions: make(map[string]*Session),
	}
}

// Register inserts a new Online session. Fails if the username already has a
// live session.
func (r *SessionRegistry) Register(username string, conn Pusher) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[username]; ok {
		return model.ErrAlreadyLoggedIn
	}
	r.sessions[username] = &Session{
		Username: username,
		Conn:     conn,
		Presence: model.Online(),
	}
	return nil
}

// Remove atomically pops a session. The second return is false if no session
// existed.
func (r *SessionRegistry) Remove(username string) (Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[username]
	if !ok {
		return Session{}, false
	}
	delete(r.sessions, username)
	return *s, true
}

// Get returns a copy of the session for the given user
func (r *SessionRegistry) Get(username string) (Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[username]
	if !ok {
		return Session{}, false
	}
	return *s, true
}

// SetPresence updates a session's presence. Missing sessions are ignored;
// the disconnect cascade may race with presence updates.
func (r *SessionRegistry) SetPresence(username string, p model.Presence) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.sessions[username]; ok {
		s.Presence = p
	}
}

// List returns every live session as a copy, in no particular order
func (r *SessionRegistry) List() []Session {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		out = append(out, *s)
	}
	return out
}
