package playback

import (
	"sync"
	"time"
)

// Registry is a thread-safe session store with TTL eviction. Evicted
// sessions are closed so their handles and timers are released.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*tracked
	ttl      time.Duration
}

type tracked struct {
	session    *Session
	lastAccess time.Time
}

func NewRegistry(ttl time.Duration) *Registry {
	return &Registry{
		sessions: make(map[string]*tracked),
		ttl:      ttl,
	}
}

func (r *Registry) Put(s *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[s.ID] = &tracked{session: s, lastAccess: time.Now()}
}

// Get returns a session by ID, refreshing its eviction clock.
func (r *Registry) Get(id string) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.sessions[id]
	if !ok {
		return nil
	}
	t.lastAccess = time.Now()
	return t.session
}

// Delete closes and removes a session.
func (r *Registry) Delete(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.sessions[id]
	if !ok {
		return false
	}
	t.session.Close()
	delete(r.sessions, id)
	return true
}

// Cleanup closes and removes sessions idle past the TTL.
func (r *Registry) Cleanup() {
	if r.ttl <= 0 {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now()
	for id, t := range r.sessions {
		if now.Sub(t.lastAccess) > r.ttl {
			t.session.Close()
			delete(r.sessions, id)
		}
	}
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}
